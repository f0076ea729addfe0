package engine

import (
	"context"
	"net/http"
	"strconv"
	"time"

	middle "watchpost/internals/middleware"
	"watchpost/pkg/apperror"
	"watchpost/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// ResultReader serves the check-history read API off *Repository.
type ResultReader interface {
	ListByMonitor(ctx context.Context, monitorID uuid.UUID, limit, offset int32) ([]CheckResult, error)
}

// OwnerVerifier scopes history access to the monitor's owner.
type OwnerVerifier interface {
	VerifyMonitorOwner(ctx context.Context, accountID, monitorID uuid.UUID) error
}

type Handler struct {
	results ResultReader
	owners  OwnerVerifier
}

func NewHandler(results ResultReader, owners OwnerVerifier) *Handler {
	return &Handler{
		results: results,
		owners:  owners,
	}
}

type CheckResultResponse struct {
	MonitorID  string `json:"monitor_id"`
	Region     string `json:"region"`
	Success    bool   `json:"success"`
	StatusCode *int32 `json:"status_code,omitempty"`
	LatencyMs  *int64 `json:"latency_ms,omitempty"`
	Error      string `json:"error,omitempty"`
	CheckedAt  string `json:"checked_at"`
}

type ListChecksResponse struct {
	Limit  int32                 `json:"limit"`
	Offset int32                 `json:"offset"`
	Checks []CheckResultResponse `json:"checks"`
}

// GET /checks?monitor_id=...&offset=0&limit=50
func (h *Handler) ListChecks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	acct, ok := middle.AccountFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	monitorID, err := uuid.Parse(r.URL.Query().Get("monitor_id"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid or missing monitor_id")
		return
	}
	if err := h.owners.VerifyMonitorOwner(ctx, acct.AccountID, monitorID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	limit := queryInt32(r, "limit", 50)
	offset := queryInt32(r, "offset", 0)

	results, err := h.results.ListByMonitor(ctx, monitorID, limit, offset)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	out := make([]CheckResultResponse, 0, len(results))
	for i := range results {
		res := &results[i]
		out = append(out, CheckResultResponse{
			MonitorID:  res.MonitorID.String(),
			Region:     res.Region,
			Success:    res.Success,
			StatusCode: res.StatusCode,
			LatencyMs:  res.LatencyMs,
			Error:      res.CheckError,
			CheckedAt:  res.CheckedAt.Format(time.RFC3339),
		})
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "", ListChecksResponse{
		Limit:  limit,
		Offset: offset,
		Checks: out,
	})
}

func queryInt32(r *http.Request, key string, def int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v < 0 {
		return def
	}
	return int32(v)
}
