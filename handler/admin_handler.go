package handler

import (
	"context"
	"net/http"
	"time"

	"civicreport/models"
)

// Sweeper runs one batch priority recompute
type Sweeper interface {
	UpdateAllPriorities(ctx context.Context) (*models.SweepResult, error)
}

// Pinger reports database reachability
type Pinger interface {
	PingContext(ctx context.Context) error
}

// AdminHandler provides operator endpoints (ADMIN_TOKEN) and the health check
type AdminHandler struct {
	sweeper Sweeper
	db      Pinger
}

// NewAdminHandler creates an admin handler
func NewAdminHandler(sweeper Sweeper, db Pinger) *AdminHandler {
	return &AdminHandler{sweeper: sweeper, db: db}
}

// SweepPriorities handles POST /api/v1/admin/priorities/sweep.
// Concurrent calls (and a running scheduled sweep) share one batch.
func (h *AdminHandler) SweepPriorities(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweeper.UpdateAllPriorities(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, result)
}

// Health handles GET /health
func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "unavailable",
				"database": err.Error(),
			})
			return
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
