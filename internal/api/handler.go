package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mtlprog/lendstat/internal/domain"
	"github.com/mtlprog/lendstat/internal/format"
	"github.com/mtlprog/lendstat/internal/snapshot"
)

// SnapshotService defines stored snapshot access.
type SnapshotService interface {
	Generate(ctx context.Context, account string, date time.Time) (domain.Portfolio, error)
	GetLatest(ctx context.Context, account string) (*snapshot.Snapshot, error)
	GetByDate(ctx context.Context, account string, date time.Time) (*snapshot.Snapshot, error)
	List(ctx context.Context, account string, limit int) ([]snapshot.Snapshot, error)
}

// Handler provides HTTP endpoints for stored portfolio snapshots.
type Handler struct {
	snapshots SnapshotService
}

// NewHandler creates a new snapshot API handler.
func NewHandler(snapshots SnapshotService) *Handler {
	return &Handler{snapshots: snapshots}
}

// accountParam reads and validates the {account} path value.
func accountParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	account := r.PathValue("account")
	if !common.IsHexAddress(account) {
		writeError(w, http.StatusBadRequest, "invalid account address")
		return "", false
	}
	return account, true
}

// GetLatestSnapshot handles GET /api/v1/snapshots/{account}/latest.
func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	account, ok := accountParam(w, r)
	if !ok {
		return
	}

	s, err := h.snapshots.GetLatest(r.Context(), account)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no snapshots found")
			return
		}
		slog.Error("failed to get latest snapshot", "account", account, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetSnapshotByDate handles GET /api/v1/snapshots/{account}/{date}.
func (h *Handler) GetSnapshotByDate(w http.ResponseWriter, r *http.Request) {
	account, ok := accountParam(w, r)
	if !ok {
		return
	}

	dateStr := r.PathValue("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	s, err := h.snapshots.GetByDate(r.Context(), account, date)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "snapshot not found for date")
			return
		}
		slog.Error("failed to get snapshot by date", "account", account, "date", dateStr, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ListSnapshots handles GET /api/v1/snapshots/{account}.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	account, ok := accountParam(w, r)
	if !ok {
		return
	}

	const maxLimit = 365
	limit := 30
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}

	snapshots, err := h.snapshots.List(r.Context(), account, limit)
	if err != nil {
		slog.Error("failed to list snapshots", "account", account, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if snapshots == nil {
		snapshots = []snapshot.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// GenerateSnapshot handles POST /api/v1/snapshots/{account}/generate.
func (h *Handler) GenerateSnapshot(w http.ResponseWriter, r *http.Request) {
	account, ok := accountParam(w, r)
	if !ok {
		return
	}

	p, err := h.snapshots.Generate(r.Context(), account, time.Now())
	if err != nil {
		if errors.Is(err, snapshot.ErrIncomplete) {
			writeError(w, http.StatusServiceUnavailable, "markets still loading, try again later")
			return
		}
		slog.Error("failed to generate snapshot", "account", account, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate snapshot")
		return
	}
	writeJSON(w, http.StatusOK, portfolioResponse{Portfolio: p, Display: format.View(p)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
