package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/contracthub/engine/internal/api/types"
	"github.com/contracthub/engine/internal/api/validators"
	"github.com/contracthub/engine/internal/models"
	"github.com/contracthub/engine/internal/services"
)

type MilestonesHandler struct {
	svc services.MilestoneService
}

func NewMilestonesHandler(svc services.MilestoneService) *MilestonesHandler {
	return &MilestonesHandler{svc: svc}
}

func (h *MilestonesHandler) List(w http.ResponseWriter, r *http.Request) {
	programmeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid programme id")
		return
	}
	items, err := h.svc.List(r.Context(), programmeID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items})
}

func (h *MilestonesHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	milestoneID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid milestone id")
		return
	}
	var req types.MilestoneStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validators.New().Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}

	forecast, err := parseDatePtr(req.ForecastDate)
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid forecast_date")
		return
	}
	actual, err := parseDatePtr(req.ActualDate)
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid actual_date")
		return
	}

	m, err := h.svc.UpdateStatus(r.Context(), &services.UpdateMilestoneStatusInput{
		MilestoneID:  milestoneID,
		Status:       models.MilestoneStatus(req.Status),
		ForecastDate: forecast,
		ActualDate:   actual,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: m})
}

func (h *MilestonesHandler) SetKeyDate(w http.ResponseWriter, r *http.Request) {
	milestoneID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid milestone id")
		return
	}
	var req types.MilestoneKeyDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.svc.SetKeyDate(r.Context(), milestoneID, req.IsKeyDate); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true})
}

func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t, nil
		}
	}
	return nil, &time.ParseError{Layout: time.RFC3339, Value: *s}
}
