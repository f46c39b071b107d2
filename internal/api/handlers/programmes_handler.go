package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/contracthub/engine/internal/api/middleware"
	"github.com/contracthub/engine/internal/api/types"
	"github.com/contracthub/engine/internal/api/validators"
	"github.com/contracthub/engine/internal/models"
	"github.com/contracthub/engine/internal/services"
	appErr "github.com/contracthub/engine/pkg/errors"
)

type ProgrammesHandler struct {
	svc      services.ImportService
	maxBytes int64
}

func NewProgrammesHandler(svc services.ImportService, maxBytes int64) *ProgrammesHandler {
	return &ProgrammesHandler{svc: svc, maxBytes: maxBytes}
}

func (h *ProgrammesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.ProgrammeCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validators.New().Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}
	projectID, _ := uuid.Parse(req.ProjectID)
	p := models.Programme{ProjectID: projectID, Name: req.Name}
	if err := h.svc.CreateProgramme(r.Context(), &p); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: p})
}

func (h *ProgrammesHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.URL.Query().Get("project_id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid project_id")
		return
	}
	items, err := h.svc.ListProgrammes(r.Context(), projectID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items})
}

func (h *ProgrammesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid programme id")
		return
	}
	p, err := h.svc.GetProgramme(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: p})
}

// Import accepts the raw schedule file as the request body. With ?async=true
// the file is queued for the worker and 202 is returned immediately;
// otherwise the import runs inline and the result includes parse statistics.
func (h *ProgrammesHandler) Import(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid programme id")
		return
	}

	body := io.Reader(r.Body)
	if h.maxBytes > 0 {
		body = io.LimitReader(r.Body, h.maxBytes+1)
	}
	content, err := io.ReadAll(body)
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "read request body failed")
		return
	}
	if h.maxBytes > 0 && int64(len(content)) > h.maxBytes {
		writeErrorStr(w, http.StatusRequestEntityTooLarge, "schedule file exceeds size limit")
		return
	}

	if r.URL.Query().Get("async") == "true" {
		if err := h.svc.EnqueueImport(r.Context(), id, content, middleware.GetUserID(r.Context())); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, types.APIResponse{Success: true, Data: map[string]string{"status": "queued"}})
		return
	}

	res, err := h.svc.Import(r.Context(), id, content)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: res})
}

func (h *ProgrammesHandler) Graph(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid programme id")
		return
	}
	activities, relationships, err := h.svc.GetGraph(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: map[string]any{
		"activities":    activities,
		"relationships": relationships,
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, types.APIResponse{Success: false, Error: types.FromAppError(err)})
}

func writeErrorStr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.APIResponse{Success: false, Error: &types.APIError{Code: "invalid", Message: msg}})
}

// writeAppError maps a service error's stable code onto an HTTP status.
func writeAppError(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), err)
}

func statusForError(err error) int {
	switch {
	case appErr.IsCode(err, appErr.CodeInvalid):
		return http.StatusBadRequest
	case appErr.IsCode(err, appErr.CodeNotFound):
		return http.StatusNotFound
	case appErr.IsCode(err, appErr.CodeConflict), appErr.IsCode(err, appErr.CodeAlreadyExists):
		return http.StatusConflict
	case appErr.IsCode(err, appErr.CodeUnauthorized):
		return http.StatusUnauthorized
	case appErr.IsCode(err, appErr.CodeForbidden):
		return http.StatusForbidden
	case appErr.IsCode(err, appErr.CodeNotImplemented):
		return http.StatusNotImplemented
	case appErr.IsCode(err, appErr.CodeDeadline):
		return http.StatusGatewayTimeout
	case appErr.IsCode(err, appErr.CodeUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
