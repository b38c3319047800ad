package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/resolution"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

type ResolutionHandler interface {
	RunRollover(w http.ResponseWriter, r *http.Request)
	RunSafety(w http.ResponseWriter, r *http.Request)
	GetWorkday(w http.ResponseWriter, r *http.Request)
	GetOpenPunch(w http.ResponseWriter, r *http.Request)
}

type resolutionHandlerImpl struct {
	resolutionService resolution.ResolutionService
}

func NewResolutionHandler(resolutionService resolution.ResolutionService) ResolutionHandler {
	return &resolutionHandlerImpl{
		resolutionService: resolutionService,
	}
}

// getUserIDFromContext extracts user_id from JWT context
func getUserIDFromContext(r *http.Request) string {
	_, claims, _ := jwtauth.FromContext(r.Context())
	if userID, ok := claims["user_id"].(string); ok {
		return userID
	}
	return ""
}

// RunRollover implements ResolutionHandler.
func (h *resolutionHandlerImpl) RunRollover(w http.ResponseWriter, r *http.Request) {
	var req resolution.RolloverSweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	slog.Info("Resolution: manual rollover sweep requested",
		"org_id", req.OrgID,
		"lookback_days", req.LookbackDays,
		"requested_by", getUserIDFromContext(r))

	result, err := h.resolutionService.SweepRollover(r.Context(), req.OrgID, req.LookbackDays)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Rollover sweep completed", result)
}

// RunSafety implements ResolutionHandler.
func (h *resolutionHandlerImpl) RunSafety(w http.ResponseWriter, r *http.Request) {
	var req resolution.SafetySweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	slog.Info("Resolution: manual safety sweep requested",
		"org_id", req.OrgID,
		"requested_by", getUserIDFromContext(r))

	result, err := h.resolutionService.SweepSafety(r.Context(), req.OrgID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Safety sweep completed", result)
}

// GetWorkday implements ResolutionHandler.
func (h *resolutionHandlerImpl) GetWorkday(w http.ResponseWriter, r *http.Request) {
	req := resolution.WorkdayRequest{
		OrgID:      r.URL.Query().Get("org_id"),
		EmployeeID: chi.URLParam(r, "employeeID"),
		Date:       chi.URLParam(r, "date"),
	}

	workday, err := h.resolutionService.GetWorkday(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, workday)
}

// GetOpenPunch implements ResolutionHandler.
func (h *resolutionHandlerImpl) GetOpenPunch(w http.ResponseWriter, r *http.Request) {
	req := resolution.OpenPunchRequest{
		OrgID:      r.URL.Query().Get("org_id"),
		EmployeeID: chi.URLParam(r, "employeeID"),
	}

	preview, err := h.resolutionService.PreviewOpenPunch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, preview)
}
