package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/safeher/platform/internal/service"
)

// InfrastructureHandler serves the infrastructure-role issue queue.
type InfrastructureHandler struct {
	issues *service.IssueService
}

// NewInfrastructureHandler creates the handler.
func NewInfrastructureHandler(issues *service.IssueService) *InfrastructureHandler {
	return &InfrastructureHandler{issues: issues}
}

// ListIssues returns every issue.
func (h *InfrastructureHandler) ListIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := h.issues.List(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, issuesToView(issues))
}

// MyIssues returns issues accepted by the caller.
func (h *InfrastructureHandler) MyIssues(w http.ResponseWriter, r *http.Request) {
	assigneeID, ok := subjectID(w, r)
	if !ok {
		return
	}

	issues, err := h.issues.ListMine(r.Context(), assigneeID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, issuesToView(issues))
}

// AcceptIssue assigns a pending issue to the caller.
func (h *InfrastructureHandler) AcceptIssue(w http.ResponseWriter, r *http.Request) {
	assigneeID, ok := subjectID(w, r)
	if !ok {
		return
	}
	issueID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid issue id")
		return
	}

	issue, err := h.issues.Accept(r.Context(), issueID, assigneeID)
	if err != nil {
		if errors.Is(err, service.ErrIssueNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, issueToView(issue))
}

// CompleteIssue closes an issue held by the caller.
func (h *InfrastructureHandler) CompleteIssue(w http.ResponseWriter, r *http.Request) {
	assigneeID, ok := subjectID(w, r)
	if !ok {
		return
	}
	issueID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid issue id")
		return
	}

	issue, err := h.issues.Complete(r.Context(), issueID, assigneeID)
	if err != nil {
		if errors.Is(err, service.ErrIssueNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, issueToView(issue))
}
