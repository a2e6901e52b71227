package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/LiWinston/DeepFake-Forensic/internal/api"
	"github.com/LiWinston/DeepFake-Forensic/internal/classify"
	"github.com/LiWinston/DeepFake-Forensic/internal/detect"
	"github.com/LiWinston/DeepFake-Forensic/internal/detect/copymove"
	"github.com/LiWinston/DeepFake-Forensic/internal/detect/frequency"
	"github.com/LiWinston/DeepFake-Forensic/internal/detect/noisepattern"
	"github.com/LiWinston/DeepFake-Forensic/internal/detect/opticalflow"
	"github.com/LiWinston/DeepFake-Forensic/internal/detect/temporal"
	"github.com/LiWinston/DeepFake-Forensic/internal/domain"
	"github.com/LiWinston/DeepFake-Forensic/internal/health"
	"github.com/LiWinston/DeepFake-Forensic/internal/infra/metrics"
	"github.com/LiWinston/DeepFake-Forensic/internal/infra/objectstore"
	"github.com/LiWinston/DeepFake-Forensic/internal/infra/queue"
	"github.com/LiWinston/DeepFake-Forensic/internal/infra/sqlite"
	"github.com/LiWinston/DeepFake-Forensic/internal/worker"
)

// Daemon is the core forensic runtime. It wires together the store, the
// broker, the detector set, and the HTTP API.
type Daemon struct {
	Config     Config
	DB         *sqlite.DB
	Broker     *queue.Broker
	Dispatcher *worker.Dispatcher
	Progress   *worker.ProgressTracker
	Health     *health.Checker
	Server     *api.Server
	cancel     context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	db, err := sqlite.Open(forensicHome())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	broker := queue.NewBroker(db, queue.TaskTopics,
		queue.WithVisibility(parseDuration(cfg.Worker.Visibility, queue.DefaultVisibility)),
		queue.WithPollInterval(parseDuration(cfg.Worker.PollInterval, queue.DefaultPollInterval)),
	)

	progress := worker.NewProgressTracker(db)
	dedup := worker.NewDedupLedger(db)
	results := worker.NewResultPublisher(broker)

	var uploader worker.Uploader
	if cfg.ObjectStore.Endpoint != "" {
		uploader = objectstore.New(cfg.ObjectStore.Endpoint, cfg.ObjectStore.PublicURL)
	}
	artifacts := worker.NewArtifactPublisher(uploader)

	var classifier worker.ImageClassifier
	if cfg.Classifier.Endpoint != "" {
		classifier = classify.New(cfg.Classifier.Endpoint)
	}

	detectors := map[domain.TaskType]detect.Detector{
		domain.TaskOpticalFlow: opticalflow.New(),
		domain.TaskTemporal:    temporal.New(),
		domain.TaskFrequency:   frequency.New(),
		domain.TaskNoise:       noisepattern.New(),
		domain.TaskCopyMove:    copymove.New(),
	}

	workDir := cfg.Worker.WorkDir
	if workDir == "" {
		workDir = filepath.Join(forensicHome(), "work")
	}

	dispatcher := worker.NewDispatcher(
		broker, results, progress, dedup, artifacts, detectors, classifier, workDir,
	)

	checker := health.NewChecker(db, workDir)

	srv := api.NewServer(db, broker, progress)
	srv.SetChecker(checker)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:     cfg,
		DB:         db,
		Broker:     broker,
		Dispatcher: dispatcher,
		Progress:   progress,
		Health:     checker,
		Server:     srv,
	}, nil
}

// Serve starts the consumer and HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if d.Config.Worker.Enabled {
		go func() {
			if err := d.Dispatcher.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("[daemon] dispatcher stopped: %v", err)
			}
		}()
	}

	// Reclaim expired progress records and dedup markers in the background.
	go d.purgeLoop(ctx)
	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	fmt.Printf("Forensic worker serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// purgeLoop periodically deletes expired key-value entries and refreshes
// the queue depth gauges.
func (d *Daemon) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := d.DB.PurgeExpired(); err != nil {
				log.Printf("[daemon] purge failed: %v", err)
			} else if n > 0 {
				log.Printf("[daemon] purged %d expired entries", n)
			}
			for _, topic := range queue.TaskTopics {
				if n, err := d.DB.PendingCount(topic); err == nil {
					metrics.QueuePending.WithLabelValues(topic).Set(float64(n))
				}
			}
		}
	}
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
