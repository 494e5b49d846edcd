package bridge

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pysugar/careertracker/internal/db/models"
)

// CallHistory is the stored record of pipeline calls.
type CallHistory interface {
	Recent(ctx context.Context, limit, sinceMinutes int) ([]models.CallLog, error)
	Stats(ctx context.Context) (models.CallStats, error)
	Clear(ctx context.Context) error
}

// KeyRotator replaces the bridge key and returns the new one.
type KeyRotator func() (string, error)

// RouterOption adds optional endpoints to the router.
type RouterOption func(r chi.Router)

// WithAdmin mounts the call log and key rotation under /admin, behind the
// same key check as /message.
func WithAdmin(calls CallHistory, rotate KeyRotator, logger *slog.Logger) RouterOption {
	if logger == nil {
		logger = slog.Default()
	}
	return func(r chi.Router) {
		r.Route("/admin", func(r chi.Router) {
			r.Get("/calls", CallsHandler(calls))
			r.Get("/calls/stats", CallStatsHandler(calls))
			r.Delete("/calls", ClearCallsHandler(calls))
			r.Post("/bridge-key/regenerate", RegenerateKeyHandler(rotate, logger))
		})
	}
}

// CallsHandler returns recent calls. Query: limit, since (minutes).
func CallsHandler(calls CallHistory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit")
		since := queryInt(r, "since")
		logs, err := calls.Recent(r.Context(), limit, since)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, Detail{Detail: "Failed to load call log"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"calls": logs,
			"count": len(logs),
		})
	}
}

func CallStatsHandler(calls CallHistory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := calls.Stats(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, Detail{Detail: "Failed to load call stats"})
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func ClearCallsHandler(calls CallHistory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := calls.Clear(r.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, Detail{Detail: "Failed to clear call log"})
			return
		}
		writeJSON(w, http.StatusOK, Ack{OK: true})
	}
}

// RegenerateKeyHandler rotates the bridge key. The reply carries the new key
// once; the caller must store it, the old key stops working immediately.
func RegenerateKeyHandler(rotate KeyRotator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := rotate()
		if err != nil {
			logger.ErrorContext(r.Context(), "regenerate bridge key failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, Detail{Detail: "Failed to regenerate bridge key"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"bridge_key": key})
	}
}

func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
