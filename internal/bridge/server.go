package bridge

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// maxMessageBytes bounds a message body. GET_JOB_DATA may carry a full page.
const maxMessageBytes = 6 << 20

// NewRouter wires the bridge endpoints. keyFn is consulted on every request
// so a regenerated key takes effect immediately.
func NewRouter(d *Dispatcher, keyFn func() string, limiter *rate.Limiter, logger *slog.Logger, opts ...RouterOption) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(BridgeKeyAuth(keyFn))
		r.Use(RateLimit(limiter))
		r.Post("/message", MessageHandler(d))
		for _, opt := range opts {
			opt(r)
		}
	})

	return r
}

// MessageHandler decodes one message and writes the dispatcher's reply.
// Replies are always 200; failures are encoded in the body.
func MessageHandler(d *Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var msg Message
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes))
		if err := dec.Decode(&msg); err != nil {
			status := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			writeJSON(w, status, Result{OK: false, Data: Detail{Detail: "Invalid message"}})
			return
		}
		writeJSON(w, http.StatusOK, d.Handle(r.Context(), msg))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
