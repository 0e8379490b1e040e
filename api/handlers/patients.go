package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/healthcare-records/api/middleware"
	"github.com/OldStager01/healthcare-records/internal/events"
	"github.com/OldStager01/healthcare-records/internal/logger"
	"github.com/OldStager01/healthcare-records/pkg/database/queries"
	"github.com/OldStager01/healthcare-records/pkg/models"
	"github.com/OldStager01/healthcare-records/pkg/validation"
)

// PatientStore is the part of queries.PatientRepository the patient handlers
// use.
type PatientStore interface {
	Search(ctx context.Context, f models.PatientFilter) (*models.PatientPage, error)
	GetByID(ctx context.Context, id int) (*models.Patient, error)
	Create(ctx context.Context, p *models.Patient) error
	Update(ctx context.Context, p *models.Patient) error
	Delete(ctx context.Context, id int) error
}

type PaginationConfig struct {
	DefaultLimit int
	MaxLimit     int
}

type PatientHandler struct {
	patients   PatientStore
	publisher  *events.Publisher
	pagination PaginationConfig
}

func NewPatientHandler(patients PatientStore, publisher *events.Publisher, pagination PaginationConfig) *PatientHandler {
	if pagination.DefaultLimit <= 0 {
		pagination.DefaultLimit = 20
	}
	if pagination.MaxLimit < pagination.DefaultLimit {
		pagination.MaxLimit = pagination.DefaultLimit
	}
	return &PatientHandler{
		patients:   patients,
		publisher:  publisher,
		pagination: pagination,
	}
}

// PatientRequest is the create/update body. bmi accepts a number, a numeric
// string, "N/A", "" or null.
type PatientRequest struct {
	ID              int             `json:"id" example:"9046"`
	Gender          string          `json:"gender" example:"Male"`
	Age             float64         `json:"age" example:"67"`
	Hypertension    int             `json:"hypertension" example:"0"`
	HeartDisease    int             `json:"heart_disease" example:"1"`
	EverMarried     string          `json:"ever_married" example:"Yes"`
	WorkType        string          `json:"work_type" example:"Private"`
	ResidenceType   string          `json:"Residence_type" example:"Urban"`
	AvgGlucoseLevel float64         `json:"avg_glucose_level" example:"228.69"`
	BMI             json.RawMessage `json:"bmi" swaggertype:"string" example:"36.6"`
	SmokingStatus   string          `json:"smoking_status" example:"formerly smoked"`
	Stroke          int             `json:"stroke" example:"1"`
}

func (r PatientRequest) toPatient() (*models.Patient, error) {
	bmi, err := parseBMI(r.BMI)
	if err != nil {
		return nil, err
	}
	return &models.Patient{
		ID:              r.ID,
		Gender:          validation.SanitizeInput(r.Gender),
		Age:             r.Age,
		Hypertension:    r.Hypertension,
		HeartDisease:    r.HeartDisease,
		EverMarried:     validation.SanitizeInput(r.EverMarried),
		WorkType:        validation.SanitizeInput(r.WorkType),
		ResidenceType:   validation.SanitizeInput(r.ResidenceType),
		AvgGlucoseLevel: r.AvgGlucoseLevel,
		BMI:             bmi,
		SmokingStatus:   validation.SanitizeInput(r.SmokingStatus),
		Stroke:          r.Stroke,
	}, nil
}

func parseBMI(raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return &v, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: bmi must be a number or \"N/A\"", validation.ErrInvalidInput)
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "N/A") {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bmi must be a number or \"N/A\"", validation.ErrInvalidInput)
	}
	return &v, nil
}

// List godoc
// @Summary Search patients
// @Description A numeric search matches the id exactly; other text matches gender, work type or smoking status.
// @Tags Patients
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search text or patient id"
// @Param stroke_filter query string false "0 or 1"
// @Param gender_filter query string false "Male, Female or Other"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Page size" default(20)
// @Success 200 {object} models.PatientPage
// @Failure 400 {object} map[string]string "Page out of range"
// @Failure 503 {object} map[string]string "Database unavailable"
// @Router /api/v1/patients [get]
func (h *PatientHandler) List(c *gin.Context) {
	filter := models.PatientFilter{
		Query:   validation.SanitizeString(c.Query("search")),
		Gender:  validation.SanitizeString(c.Query("gender_filter")),
		Page:    queryInt(c, "page", 1),
		PerPage: queryInt(c, "per_page", h.pagination.DefaultLimit),
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Page > models.MaxPage {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page out of range"})
		return
	}
	if filter.PerPage < 1 {
		filter.PerPage = h.pagination.DefaultLimit
	}
	if filter.PerPage > h.pagination.MaxLimit {
		filter.PerPage = h.pagination.MaxLimit
	}
	switch c.Query("stroke_filter") {
	case "0", "1":
		v, _ := strconv.Atoi(c.Query("stroke_filter"))
		filter.Stroke = &v
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	page, err := h.patients.Search(ctx, filter)
	if err != nil {
		respondDBError(c, "search patients", err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Get godoc
// @Summary Get patient
// @Tags Patients
// @Produce json
// @Security BearerAuth
// @Param id path int true "Patient ID"
// @Success 200 {object} models.Patient
// @Failure 400 {object} map[string]string "Invalid id"
// @Failure 404 {object} map[string]string "Patient not found"
// @Failure 503 {object} map[string]string "Database unavailable"
// @Router /api/v1/patients/{id} [get]
func (h *PatientHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), shortTimeout)
	defer cancel()

	patient, err := h.patients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, queries.ErrPatientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
			return
		}
		respondDBError(c, "get patient", err)
		return
	}

	c.JSON(http.StatusOK, patient)
}

// Create godoc
// @Summary Create patient
// @Tags Patients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PatientRequest true "Patient record"
// @Success 201 {object} models.Patient
// @Failure 400 {object} map[string]string "Validation failed"
// @Failure 409 {object} map[string]string "Patient id already exists"
// @Failure 503 {object} map[string]string "Database unavailable"
// @Router /api/v1/patients [post]
func (h *PatientHandler) Create(c *gin.Context) {
	patient, ok := h.bindPatient(c)
	if !ok {
		return
	}

	username := middleware.GetUsername(c)
	patient.CreatedBy = username
	patient.UpdatedBy = username

	ctx, cancel := context.WithTimeout(c.Request.Context(), shortTimeout)
	defer cancel()

	if err := h.patients.Create(ctx, patient); err != nil {
		if errors.Is(err, queries.ErrDuplicatePatient) {
			c.JSON(http.StatusConflict, gin.H{"error": "patient ID already exists"})
			return
		}
		respondDBError(c, "create patient", err)
		return
	}

	logger.WithPatient(patient.ID).WithField("user", username).Info("Patient created")
	h.publisher.WithContext(c.Request.Context()).PatientCreated(username, patient.ID)

	c.JSON(http.StatusCreated, patient)
}

// Update godoc
// @Summary Update patient
// @Description Replaces every attribute of the patient. The id in the body is ignored.
// @Tags Patients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Patient ID"
// @Param request body PatientRequest true "Patient record"
// @Success 200 {object} models.Patient
// @Failure 400 {object} map[string]string "Validation failed"
// @Failure 404 {object} map[string]string "Patient not found"
// @Failure 503 {object} map[string]string "Database unavailable"
// @Router /api/v1/patients/{id} [put]
func (h *PatientHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	c.Set("patient_id", id)

	patient, ok := h.bindPatient(c)
	if !ok {
		return
	}
	patient.UpdatedBy = middleware.GetUsername(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), shortTimeout)
	defer cancel()

	if err := h.patients.Update(ctx, patient); err != nil {
		if errors.Is(err, queries.ErrPatientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
			return
		}
		respondDBError(c, "update patient", err)
		return
	}

	logger.WithPatient(id).WithField("user", patient.UpdatedBy).Info("Patient updated")
	h.publisher.WithContext(c.Request.Context()).PatientUpdated(patient.UpdatedBy, id)

	c.JSON(http.StatusOK, patient)
}

// Delete godoc
// @Summary Delete patient
// @Tags Patients
// @Produce json
// @Security BearerAuth
// @Param id path int true "Patient ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Patient not found"
// @Failure 503 {object} map[string]string "Database unavailable"
// @Router /api/v1/patients/{id} [delete]
func (h *PatientHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), shortTimeout)
	defer cancel()

	if err := h.patients.Delete(ctx, id); err != nil {
		if errors.Is(err, queries.ErrPatientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
			return
		}
		respondDBError(c, "delete patient", err)
		return
	}

	username := middleware.GetUsername(c)
	logger.WithPatient(id).WithField("user", username).Info("Patient deleted")
	h.publisher.WithContext(c.Request.Context()).PatientDeleted(username, id)

	c.JSON(http.StatusOK, gin.H{"message": "patient deleted"})
}

// bindPatient decodes, sanitizes and validates the body. On update the id
// comes from the path.
func (h *PatientHandler) bindPatient(c *gin.Context) (*models.Patient, bool) {
	var req PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return nil, false
	}
	if id := c.GetInt("patient_id"); id > 0 {
		req.ID = id
	}

	patient, err := req.toPatient()
	if err == nil {
		err = validation.ValidatePatient(patient)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return patient, true
}
