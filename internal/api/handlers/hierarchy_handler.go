package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/contracthub/engine/internal/api/types"
	"github.com/contracthub/engine/internal/api/validators"
	"github.com/contracthub/engine/internal/models"
	"github.com/contracthub/engine/internal/services"
)

type HierarchyHandler struct {
	svc services.HierarchyService
}

func NewHierarchyHandler(svc services.HierarchyService) *HierarchyHandler {
	return &HierarchyHandler{svc: svc}
}

func (h *HierarchyHandler) Register(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return
	}
	var req types.HierarchyRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validators.New().Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}

	canApprove := make([]models.ChangeType, 0, len(req.CanApproveTypes))
	for _, t := range req.CanApproveTypes {
		canApprove = append(canApprove, models.ChangeType(t))
	}

	entry, err := h.svc.Register(r.Context(), &services.RegisterApproverInput{
		ProjectID:          projectID,
		UserID:             req.UserID,
		AuthorizationLevel: models.AuthorizationLevel(req.AuthorizationLevel),
		MaxApprovalValue:   req.MaxApprovalValue,
		CanApproveTypes:    canApprove,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: entry})
}

func (h *HierarchyHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return
	}
	entries, err := h.svc.List(r.Context(), projectID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: entries})
}

func (h *HierarchyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid entry id")
		return
	}
	if err := h.svc.Revoke(r.Context(), entryID); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true})
}
