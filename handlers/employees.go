package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"rotation/database"
	"rotation/models"
)

type EmployeeHandler struct {
	log *logrus.Logger
}

func NewEmployeeHandler(log *logrus.Logger) *EmployeeHandler {
	return &EmployeeHandler{log: log}
}

type createEmployeeRequest struct {
	Name   string `json:"name"`
	Badge  string `json:"badge"`
	Active *bool  `json:"active"`
}

type updateEmployeeRequest struct {
	Name   *string `json:"name"`
	Badge  *string `json:"badge"`
	Active *bool   `json:"active"`
}

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	employees := []models.Employee{}
	if err := database.GetDB().WithContext(r.Context()).Order("created_at asc").Find(&employees).Error; err != nil {
		h.log.WithError(err).Error("list employees")
		respondError(w, http.StatusInternalServerError, "Internal Server Error", "Something went wrong")
		return
	}
	respondJSON(w, http.StatusOK, employees)
}

func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON")
		return
	}
	if msg, ok := validateName(req.Name); !ok {
		respondError(w, http.StatusBadRequest, "Validation Error", msg)
		return
	}
	if msg, ok := validateBadge(req.Badge); !ok {
		respondError(w, http.StatusBadRequest, "Validation Error", msg)
		return
	}

	employee := models.Employee{
		Name:   req.Name,
		Badge:  req.Badge,
		Active: true,
	}
	if req.Active != nil {
		employee.Active = *req.Active
	}

	if err := database.GetDB().WithContext(r.Context()).Create(&employee).Error; err != nil {
		if isUniqueViolation(err) {
			respondError(w, http.StatusConflict, "Conflict", "badge already in use")
			return
		}
		h.log.WithError(err).Error("create employee")
		respondError(w, http.StatusInternalServerError, "Internal Server Error", "Something went wrong")
		return
	}
	respondJSON(w, http.StatusCreated, employee)
}

func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Validation Error", "invalid employee id")
		return
	}

	var req updateEmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON")
		return
	}

	db := database.GetDB().WithContext(r.Context())
	var employee models.Employee
	if err := db.First(&employee, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Not Found", "employee not found")
			return
		}
		h.log.WithError(err).Error("load employee")
		respondError(w, http.StatusInternalServerError, "Internal Server Error", "Something went wrong")
		return
	}

	if req.Name != nil {
		if msg, ok := validateName(*req.Name); !ok {
			respondError(w, http.StatusBadRequest, "Validation Error", msg)
			return
		}
		employee.Name = *req.Name
	}
	if req.Badge != nil {
		if msg, ok := validateBadge(*req.Badge); !ok {
			respondError(w, http.StatusBadRequest, "Validation Error", msg)
			return
		}
		employee.Badge = *req.Badge
	}
	if req.Active != nil {
		employee.Active = *req.Active
	}

	if err := db.Save(&employee).Error; err != nil {
		if isUniqueViolation(err) {
			respondError(w, http.StatusConflict, "Conflict", "badge already in use")
			return
		}
		h.log.WithError(err).Error("update employee")
		respondError(w, http.StatusInternalServerError, "Internal Server Error", "Something went wrong")
		return
	}
	respondJSON(w, http.StatusOK, employee)
}

func validateName(name string) (string, bool) {
	if name == "" || len(name) > 100 {
		return "name must be between 1 and 100 characters", false
	}
	return "", true
}

func validateBadge(badge string) (string, bool) {
	if badge == "" || len(badge) > 20 {
		return "badge must be between 1 and 20 characters", false
	}
	return "", true
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
