package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"rotation/database"
	"rotation/models"
)

type OvertimeHandler struct {
	log *logrus.Logger
}

func NewOvertimeHandler(log *logrus.Logger) *OvertimeHandler {
	return &OvertimeHandler{log: log}
}

type createEntryRequest struct {
	EmployeeID uuid.UUID `json:"employee_id"`
	Hours      float64   `json:"hours"`
	OccurredAt time.Time `json:"occurred_at"`
	Source     string    `json:"source"`
	Note       string    `json:"note"`
}

func (h *OvertimeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON")
		return
	}
	if req.EmployeeID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "Validation Error", "employee_id is required")
		return
	}
	if req.Hours < 0 || req.Hours > 24 {
		respondError(w, http.StatusBadRequest, "Validation Error", "hours must be between 0 and 24")
		return
	}
	if req.OccurredAt.IsZero() {
		respondError(w, http.StatusBadRequest, "Validation Error", "occurred_at is required")
		return
	}
	source := models.OvertimeSource(req.Source)
	if source == "" {
		source = models.SourceManual
	}
	if source != models.SourceManual && source != models.SourceImport {
		respondError(w, http.StatusBadRequest, "Validation Error", "source must be manual or import")
		return
	}
	if len(req.Note) > 500 {
		respondError(w, http.StatusBadRequest, "Validation Error", "note must be at most 500 characters")
		return
	}

	db := database.GetDB().WithContext(r.Context())
	var employee models.Employee
	if err := db.First(&employee, "id = ?", req.EmployeeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Not Found", "employee not found")
			return
		}
		h.log.WithError(err).Error("load employee")
		respondError(w, http.StatusInternalServerError, "Internal Server Error", "Something went wrong")
		return
	}

	entry := models.OvertimeEntry{
		EmployeeID: req.EmployeeID,
		Hours:      req.Hours,
		OccurredAt: req.OccurredAt,
		Source:     source,
		Note:       req.Note,
	}
	if err := db.Create(&entry).Error; err != nil {
		h.log.WithError(err).Error("create overtime entry")
		respondError(w, http.StatusInternalServerError, "Internal Server Error", "Something went wrong")
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}
