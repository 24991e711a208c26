package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"omnirelay/internal/domain"
	"omnirelay/internal/ledger"
	"omnirelay/internal/report"
)

type handler struct {
	ledger  *ledger.Ledger
	catalog *report.Catalog
	logger  *slog.Logger
	started time.Time
}

// reportView is the catalog entry shape served over the API.
type reportView struct {
	Name       string `json:"name"`
	ReportID   int    `json:"report_id"`
	FilePrefix string `json:"file_prefix"`
	Timezone   string `json:"timezone"`
	Schedule   string `json:"schedule,omitempty"`
	Window     string `json:"window,omitempty"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	})
}

func (h *handler) reports(w http.ResponseWriter, r *http.Request) {
	defs := h.catalog.List()
	views := make([]reportView, 0, len(defs))
	for _, def := range defs {
		views = append(views, reportView{
			Name:       def.Name,
			ReportID:   def.ReportID,
			FilePrefix: def.FilePrefix,
			Timezone:   def.Timezone,
			Schedule:   def.Schedule,
			Window:     string(def.Window),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handler) runs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, http.StatusBadRequest, "invalid limit", "BAD_REQUEST")
			return
		}
		limit = n
	}

	runs, err := h.ledger.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("list runs failed", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "list runs failed", "INTERNAL_ERROR")
		return
	}
	if runs == nil {
		runs = []domain.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *handler) run(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.ledger.Get(r.Context(), id)
	if errors.Is(err, ledger.ErrNotFound) {
		h.writeError(w, r, http.StatusNotFound, "run not found", "NOT_FOUND")
		return
	}
	if err != nil {
		h.logger.Error("get run failed", "run", id, "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "get run failed", "INTERNAL_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, status int, msg, code string) {
	writeJSON(w, status, map[string]interface{}{
		"error":      msg,
		"code":       code,
		"request_id": RequestIDFromContext(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
