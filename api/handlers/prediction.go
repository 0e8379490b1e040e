package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/healthcare-records/api/middleware"
	"github.com/OldStager01/healthcare-records/internal/events"
	"github.com/OldStager01/healthcare-records/internal/logger"
	"github.com/OldStager01/healthcare-records/internal/prediction"
)

type Predictor interface {
	PredictRaw(ctx context.Context, raw map[string]interface{}) (*prediction.Result, error)
}

type PredictionHandler struct {
	predictor Predictor
	publisher *events.Publisher
}

func NewPredictionHandler(predictor Predictor, publisher *events.Publisher) *PredictionHandler {
	return &PredictionHandler{
		predictor: predictor,
		publisher: publisher,
	}
}

// PredictRequest documents the accepted body. Numbers may also be sent as
// numeric strings.
type PredictRequest struct {
	Gender          string  `json:"gender" example:"Male"`
	Age             float64 `json:"age" example:"45"`
	Hypertension    int     `json:"hypertension" example:"0"`
	HeartDisease    int     `json:"heart_disease" example:"0"`
	EverMarried     string  `json:"ever_married" example:"Yes"`
	WorkType        string  `json:"work_type" example:"Private"`
	ResidenceType   string  `json:"Residence_type" example:"Urban"`
	AvgGlucoseLevel float64 `json:"avg_glucose_level" example:"120.5"`
	BMI             float64 `json:"bmi" example:"25.6"`
	SmokingStatus   string  `json:"smoking_status" example:"never smoked"`
}

type PredictResponse struct {
	Success         bool    `json:"success" example:"true"`
	RiskProbability float64 `json:"risk_probability" example:"12.34"`
	RiskCategory    string  `json:"risk_category" example:"Low Risk"`
	RiskColor       string  `json:"risk_color" example:"green"`
}

type PredictFailure struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error"`
}

// Predict godoc
// @Summary Predict stroke risk
// @Description Runs the trained classifier on one patient's attributes. All ten fields are required.
// @Tags Prediction
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PredictRequest true "Patient attributes"
// @Success 200 {object} PredictResponse
// @Failure 400 {object} PredictFailure "Missing or invalid field"
// @Failure 503 {object} PredictFailure "Model unavailable"
// @Failure 500 {object} PredictFailure "Unexpected error"
// @Router /api/v1/predict [post]
func (h *PredictionHandler) Predict(c *gin.Context) {
	var raw map[string]interface{}
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil || raw == nil {
		fail(c, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	result, err := h.predictor.PredictRaw(c.Request.Context(), raw)
	if err != nil {
		status, message := predictionError(err)
		entry := logger.WithFieldsCtx(c.Request.Context(), map[string]interface{}{
			"error": err.Error(),
		})
		if status >= http.StatusInternalServerError {
			entry.Error("Prediction failed")
		} else {
			entry.Warn("Prediction rejected")
		}
		fail(c, status, message)
		return
	}

	username := middleware.GetUsername(c)
	percent := result.Percent()
	h.publisher.WithContext(c.Request.Context()).PredictionMade(username, percent, result.Label(), result.Version)

	c.JSON(http.StatusOK, PredictResponse{
		Success:         true,
		RiskProbability: percent,
		RiskCategory:    result.Label(),
		RiskColor:       result.Color(),
	})
}

func predictionError(err error) (int, string) {
	switch {
	case errors.Is(err, prediction.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, prediction.ErrMissingArtifact),
		errors.Is(err, prediction.ErrInvalidArtifact),
		errors.Is(err, prediction.ErrArtifactMismatch):
		return http.StatusServiceUnavailable, "prediction model unavailable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "prediction timed out"
	default:
		return http.StatusInternalServerError, "prediction failed"
	}
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, PredictFailure{Success: false, Error: message})
}
