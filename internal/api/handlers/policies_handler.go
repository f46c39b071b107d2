package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/contracthub/engine/internal/api/types"
	"github.com/contracthub/engine/internal/api/validators"
	"github.com/contracthub/engine/internal/services"
)

type PoliciesHandler struct {
	svc services.PolicyService
}

func NewPoliciesHandler(svc services.PolicyService) *PoliciesHandler {
	return &PoliciesHandler{svc: svc}
}

func (h *PoliciesHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return
	}
	p, err := h.svc.GetLatest(r.Context(), projectID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: p})
}

func (h *PoliciesHandler) Put(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return
	}
	var req types.PolicyPutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validators.New().Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.svc.SetPolicy(r.Context(), &services.SetPolicyInput{
		ProjectID:          projectID,
		AutoApproveMaxCost: req.AutoApproveMaxCost,
		MinorChangeMaxCost: req.MinorChangeMaxCost,
		PMApprovalMaxCost:  req.PMApprovalMaxCost,
		ClauseRates:        req.ClauseRates,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: p})
}
