// Package main is the single-binary entrypoint for the forensic worker.
package main

import "github.com/LiWinston/DeepFake-Forensic/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
