package incident

import (
	"context"
	"net/http"
	"strconv"

	middle "watchpost/internals/middleware"
	"watchpost/pkg/apperror"
	"watchpost/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Reader serves the read side of the incident API off *Repository.
type Reader interface {
	GetByID(ctx context.Context, incidentID uuid.UUID) (*Incident, error)
	ListByMonitor(ctx context.Context, monitorID uuid.UUID, limit, offset int32) ([]Incident, error)
}

// OwnerVerifier scopes incident access to the monitor's owner. The
// monitor service provides this at wiring time.
type OwnerVerifier interface {
	VerifyMonitorOwner(ctx context.Context, accountID, monitorID uuid.UUID) error
}

type Handler struct {
	service *Service
	reader  Reader
	owners  OwnerVerifier
}

func NewHandler(service *Service, reader Reader, owners OwnerVerifier) *Handler {
	return &Handler{
		service: service,
		reader:  reader,
		owners:  owners,
	}
}

// GET /incidents?monitor_id=...&offset=0&limit=20
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
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

	limit := queryInt32(r, "limit", 20)
	offset := queryInt32(r, "offset", 0)

	incidents, err := h.reader.ListByMonitor(ctx, monitorID, limit, offset)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	out := make([]IncidentResponse, 0, len(incidents))
	for i := range incidents {
		out = append(out, toResponse(&incidents[i]))
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "", ListIncidentsResponse{
		Limit:     limit,
		Offset:    offset,
		Incidents: out,
	})
}

func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	acct, ok := middle.AccountFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	incidentID, err := uuid.Parse(chi.URLParam(r, "incidentID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid incident id")
		return
	}

	inc, err := h.reader.GetByID(ctx, incidentID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	if err := h.owners.VerifyMonitorOwner(ctx, acct.AccountID, inc.MonitorID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "incident retrieved", toResponse(inc))
}

// POST /incidents/{incidentID}/ack
func (h *Handler) AcknowledgeIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	acct, ok := middle.AccountFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	incidentID, err := uuid.Parse(chi.URLParam(r, "incidentID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid incident id")
		return
	}

	inc, err := h.reader.GetByID(ctx, incidentID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	if err := h.owners.VerifyMonitorOwner(ctx, acct.AccountID, inc.MonitorID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	applied, err := h.service.Acknowledge(ctx, incidentID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	if !applied {
		utils.WriteError(w, http.StatusConflict, reqID, apperror.Conflict, "incident already acknowledged or resolved")
		return
	}

	utils.WriteJSON[any](w, http.StatusOK, reqID, "incident acknowledged", nil)
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
