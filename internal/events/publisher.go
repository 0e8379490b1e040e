package events

import (
	"context"
	"fmt"

	"github.com/OldStager01/healthcare-records/internal/logger"
	"github.com/OldStager01/healthcare-records/pkg/models"
)

// Publisher builds domain events and puts them on the bus. Event data carries
// identifiers and outcomes only, never patient attributes.
type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

// WithContext tags events with the request trace ID, if any.
func (p *Publisher) WithContext(ctx context.Context) *Publisher {
	return p.WithTraceID(logger.TraceIDFromContext(ctx))
}

func (p *Publisher) publish(event *models.Event) {
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

func (p *Publisher) PatientCreated(actor string, patientID int) {
	event := models.NewEvent(models.EventTypePatientCreated, actor, fmt.Sprintf("Patient %d created", patientID)).
		WithData(map[string]interface{}{"patient_id": patientID})
	p.publish(event)
}

func (p *Publisher) PatientUpdated(actor string, patientID int) {
	event := models.NewEvent(models.EventTypePatientUpdated, actor, fmt.Sprintf("Patient %d updated", patientID)).
		WithData(map[string]interface{}{"patient_id": patientID})
	p.publish(event)
}

func (p *Publisher) PatientDeleted(actor string, patientID int) {
	event := models.NewEvent(models.EventTypePatientDeleted, actor, fmt.Sprintf("Patient %d deleted", patientID)).
		WithSeverity(models.SeverityWarning).
		WithData(map[string]interface{}{"patient_id": patientID})
	p.publish(event)
}

func (p *Publisher) PredictionMade(actor string, probability float64, category, modelVersion string) {
	event := models.NewEvent(models.EventTypePredictionMade, actor, "Stroke risk predicted: "+category).
		WithData(map[string]interface{}{
			"risk_probability": probability,
			"risk_category":    category,
			"model_version":    modelVersion,
		})
	p.publish(event)
}

func (p *Publisher) UserRegistered(username string, userID int) {
	event := models.NewEvent(models.EventTypeUserRegistered, username, "User registered").
		WithData(map[string]interface{}{"user_id": userID})
	p.publish(event)
}

func (p *Publisher) LoginFailed(username, ip, reason string) {
	event := models.NewEvent(models.EventTypeLoginFailed, username, "Login failed: "+reason).
		WithSeverity(models.SeverityWarning).
		WithData(map[string]interface{}{"ip": ip, "reason": reason})
	p.publish(event)
}

func (p *Publisher) AccessDenied(username, method, path string) {
	event := models.NewEvent(models.EventTypeAccessDenied, username, "Admin access denied").
		WithSeverity(models.SeverityWarning).
		WithData(map[string]interface{}{"method": method, "path": path})
	p.publish(event)
}
