package monitor

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	middle "watchpost/internals/middleware"
	"watchpost/internals/modules/probe"
	"watchpost/pkg/apperror"
	"watchpost/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service, validator *validator.Validate) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
	}
}

func (h *Handler) CreateMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	acct, ok := middle.AccountFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	var req CreateMonitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	mID, err := h.service.CreateMonitor(ctx, CreateMonitorCmd{
		AccountID:           acct.AccountID,
		Name:                req.Name,
		Kind:                probe.Kind(req.Kind),
		Target:              req.Target,
		Method:              req.Method,
		Headers:             req.Headers,
		Body:                req.Body,
		Regions:             req.Regions,
		IntervalSec:         req.IntervalSec,
		TimeoutSec:          req.TimeoutSec,
		DegradedThresholdMs: req.DegradedThresholdMs,
	})
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, reqID, "monitor created", mID.String())
}

func (h *Handler) GetMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	acct, ok := middle.AccountFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	m, err := h.service.GetMonitor(ctx, acct.AccountID, monitorID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "monitor retrieved", toResponse(m))
}

// GET /monitors/{monitorID}/status returns the latest per-region
// probe snapshot.
func (h *Handler) GetMonitorStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	acct, ok := middle.AccountFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	status, err := h.service.RegionStatus(ctx, acct.AccountID, monitorID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	if status == nil {
		status = map[string]string{}
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "", status)
}

// GET /monitors?offset=0&limit=20
func (h *Handler) GetAllMonitors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	acct, ok := middle.AccountFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	limit := queryInt32(r, "limit", 20)
	offset := queryInt32(r, "offset", 0)

	monitors, err := h.service.GetAllMonitors(ctx, acct.AccountID, limit, offset)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	out := make([]MonitorResponse, 0, len(monitors))
	for i := range monitors {
		out = append(out, toResponse(&monitors[i]))
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "", ListMonitorsResponse{
		Limit:    limit,
		Offset:   offset,
		Monitors: out,
	})
}

// PATCH /monitors/{monitorID}/state
func (h *Handler) UpdateMonitorState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	acct, ok := middle.AccountFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	var req UpdateMonitorStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	switch req.State {
	case "disable", "enable":
		if err := h.service.SetEnabled(ctx, acct.AccountID, monitorID, req.State == "enable"); err != nil {
			utils.FromAppError(w, reqID, err)
			return
		}
	default:
		var status Status
		switch req.State {
		case "pause":
			status = StatusPaused
		case "maintenance":
			status = StatusMaintenance
		case "resume":
			status = StatusInitializing
		}
		if err := h.service.SetAdministrativeStatus(ctx, acct.AccountID, monitorID, status); err != nil {
			utils.FromAppError(w, reqID, err)
			return
		}
	}

	utils.WriteJSON[any](w, http.StatusOK, reqID, "monitor state updated", nil)
}

func toResponse(m *Monitor) MonitorResponse {
	res := MonitorResponse{
		ID:                  m.ID.String(),
		Name:                m.Name,
		Kind:                string(m.Kind),
		Target:              m.Target,
		Regions:             m.Regions,
		IntervalSec:         m.IntervalSec,
		TimeoutSec:          m.TimeoutSec,
		DegradedThresholdMs: m.DegradedThresholdMs,
		Status:              string(m.Status),
		ErrorMessage:        m.ErrorMessage,
		Enabled:             m.Enabled,
	}
	if m.LastCheckAt != nil {
		res.LastCheckAt = m.LastCheckAt.Format(time.RFC3339)
	}
	if m.LastSuccessAt != nil {
		res.LastSuccessAt = m.LastSuccessAt.Format(time.RFC3339)
	}
	if m.LastFailureAt != nil {
		res.LastFailureAt = m.LastFailureAt.Format(time.RFC3339)
	}
	return res
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
