package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"rotation/assignment"
	"rotation/models"
)

// AssignmentService is the coordinator surface the HTTP layer consumes.
type AssignmentService interface {
	WhoIsNext(ctx context.Context, periodWeek string) ([]models.Candidate, error)
	Summary(ctx context.Context, periodWeek string) ([]models.EmployeeSummary, error)
	AssignNext(ctx context.Context, periodWeek string, hours float64, refused bool) (*models.Assignment, error)
}

type AssignmentHandler struct {
	svc AssignmentService
	log *logrus.Logger
}

func NewAssignmentHandler(svc AssignmentService, log *logrus.Logger) *AssignmentHandler {
	return &AssignmentHandler{svc: svc, log: log}
}

func (h *AssignmentHandler) WhoIsNext(w http.ResponseWriter, r *http.Request) {
	periodWeek := r.URL.Query().Get("period")
	candidates, err := h.svc.WhoIsNext(r.Context(), periodWeek)
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	if candidates == nil {
		candidates = []models.Candidate{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"period_week": periodWeek,
		"candidates":  candidates,
	})
}

func (h *AssignmentHandler) Summary(w http.ResponseWriter, r *http.Request) {
	periodWeek := r.URL.Query().Get("period")
	summaries, err := h.svc.Summary(r.Context(), periodWeek)
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	if summaries == nil {
		summaries = []models.EmployeeSummary{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"period_week":        periodWeek,
		"employee_summaries": summaries,
	})
}

type assignNextRequest struct {
	Period  string   `json:"period"`
	Hours   *float64 `json:"hours"`
	Reason  string   `json:"reason"`
	Refused bool     `json:"refused"`
}

func (h *AssignmentHandler) AssignNext(w http.ResponseWriter, r *http.Request) {
	var req assignNextRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON")
		return
	}
	if req.Reason == "" {
		respondError(w, http.StatusBadRequest, "Validation Error", "reason is required")
		return
	}
	hours := 8.0
	if req.Hours != nil {
		hours = *req.Hours
	}

	created, err := h.svc.AssignNext(r.Context(), req.Period, hours, req.Refused)
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"period":      created.PeriodWeek,
		"employee_id": created.EmployeeID,
		"status":      created.Status,
		"reason":      req.Reason,
	}).Info("assignment created")
	respondJSON(w, http.StatusCreated, created)
}

// respondFailure maps the coordinator's outcome taxonomy onto HTTP statuses.
func (h *AssignmentHandler) respondFailure(w http.ResponseWriter, err error) {
	message := "Something went wrong"
	var f *assignment.Failure
	if errors.As(err, &f) {
		message = f.Message
	}

	switch assignment.KindOf(err) {
	case assignment.KindValidation:
		respondError(w, http.StatusBadRequest, "Validation Error", message)
	case assignment.KindNoCandidate:
		respondError(w, http.StatusNotFound, "Not Found", message)
	case assignment.KindConflict:
		respondError(w, http.StatusConflict, "Conflict", message)
	case assignment.KindUnavailable:
		respondError(w, http.StatusServiceUnavailable, "Service Unavailable", "assignment is busy, retry shortly")
	default:
		h.log.WithError(err).Error("assignment request failed")
		respondError(w, http.StatusInternalServerError, "Internal Server Error", "Something went wrong")
	}
}
