// Package api provides the HTTP surface of the forensic worker: task
// submission, progress and result lookup, health, and metrics.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LiWinston/DeepFake-Forensic/internal/domain"
	"github.com/LiWinston/DeepFake-Forensic/internal/health"
	"github.com/LiWinston/DeepFake-Forensic/internal/infra/queue"
	"github.com/LiWinston/DeepFake-Forensic/internal/infra/sqlite"
	"github.com/LiWinston/DeepFake-Forensic/internal/worker"
)

// Server is the forensic HTTP API server.
type Server struct {
	db             *sqlite.DB
	publisher      queue.Publisher
	progress       *worker.ProgressTracker
	checker        *health.Checker
	metricsEnabled bool
}

// NewServer creates the API server over the shared store and broker.
func NewServer(db *sqlite.DB, publisher queue.Publisher, progress *worker.ProgressTracker) *Server {
	return &Server{db: db, publisher: publisher, progress: progress}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetChecker attaches a background health checker whose statuses are
// included in /health responses.
func (s *Server) SetChecker(c *health.Checker) { s.checker = c }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Minute))
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/tasks", s.handleSubmitTask)
		r.Get("/progress/{taskID}", s.handleProgress)
		r.Get("/results/{taskID}", s.handleResult)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// handleHealth reports process and store health, plus the latest
// background check results when a checker is attached.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"store":  err.Error(),
		})
		return
	}

	resp := map[string]interface{}{"status": "ok"}
	status := http.StatusOK
	if s.checker != nil {
		resp["checks"] = s.checker.Statuses()
		if !s.checker.IsHealthy() {
			resp["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}

// handleSubmitTask validates a task message and enqueues it on the topic
// matching its type.
func (s *Server) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	var task domain.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid task: %v", err))
		return
	}
	if !task.Type.Known() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%v: %s", domain.ErrUnknownTaskType, task.Type))
		return
	}

	id := task.ID()
	payload, err := json.Marshal(task)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	topic := queue.TopicFor(task.Type)
	if err := s.publisher.Publish(r.Context(), topic, id, payload); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("enqueue: %v", err))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"taskId": id,
		"topic":  topic,
	})
}

// handleProgress returns the live progress record for a task.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	rec, ok, err := s.progress.Fetch(taskID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no progress for task "+taskID)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleResult returns the latest published result envelope for a task.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	msg, err := s.db.LatestByKey(queue.TopicResults, taskID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if msg == nil {
		writeError(w, http.StatusNotFound, "no result for task "+taskID)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(msg.Payload)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
