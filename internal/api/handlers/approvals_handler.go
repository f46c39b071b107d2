package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/contracthub/engine/internal/api/middleware"
	"github.com/contracthub/engine/internal/api/types"
	"github.com/contracthub/engine/internal/api/validators"
	"github.com/contracthub/engine/internal/models"
	"github.com/contracthub/engine/internal/services"
)

type ApprovalsHandler struct {
	svc services.ApprovalService
}

func NewApprovalsHandler(svc services.ApprovalService) *ApprovalsHandler {
	return &ApprovalsHandler{svc: svc}
}

func (h *ApprovalsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req types.ApprovalSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validators.New().Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}
	projectID, _ := uuid.Parse(req.ProjectID)

	out, err := h.svc.Submit(r.Context(), &services.SubmitInput{
		ProjectID:       projectID,
		ChangeType:      models.ChangeType(req.ChangeType),
		Description:     req.Description,
		ClauseReference: req.ClauseReference,
		RequestedBy:     middleware.GetUserID(r.Context()),
		OriginAddress:   r.RemoteAddr,
		ClientIdentity:  r.UserAgent(),
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: out})
}

func (h *ApprovalsHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.URL.Query().Get("project_id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid project_id")
		return
	}
	items, err := h.svc.ListByProject(r.Context(), projectID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items})
}

func (h *ApprovalsHandler) Pending(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.URL.Query().Get("project_id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid project_id")
		return
	}
	items, err := h.svc.GetPending(r.Context(), projectID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items})
}

func (h *ApprovalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid approval id")
		return
	}
	out, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: out})
}

// Decide applies a terminal decision without consulting the authorization
// registry. Deployments that maintain a registry should disable this route in
// favour of the authorized variant.
func (h *ApprovalsHandler) Decide(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

// DecideAuthorized validates the caller against the project's authorization
// registry before applying the decision.
func (h *ApprovalsHandler) DecideAuthorized(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

func (h *ApprovalsHandler) decide(w http.ResponseWriter, r *http.Request, authorized bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid approval id")
		return
	}
	var req types.ApprovalDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validators.New().Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Approve && req.Reason == "" {
		writeErrorStr(w, http.StatusBadRequest, "rejection requires a reason")
		return
	}

	input := &services.DecideInput{
		ApprovalID:     id,
		Approve:        req.Approve,
		Reason:         req.Reason,
		DecidedBy:      middleware.GetUserID(r.Context()),
		OriginAddress:  r.RemoteAddr,
		ClientIdentity: r.UserAgent(),
	}
	if req.ModifiedImpact != nil {
		input.ModifiedImpact = &models.Impact{
			DelayDays:           req.ModifiedImpact.DelayDays,
			Cost:                req.ModifiedImpact.Cost,
			AffectsCriticalPath: req.ModifiedImpact.AffectsCriticalPath,
			Confidence:          req.ModifiedImpact.Confidence,
		}
	}

	var out *models.ApprovalRequest
	if authorized {
		out, err = h.svc.DecideAuthorized(r.Context(), input)
	} else {
		out, err = h.svc.Decide(r.Context(), input)
	}
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: out})
}

func (h *ApprovalsHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid approval id")
		return
	}
	entries, err := h.svc.GetAuditTrail(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: entries})
}
