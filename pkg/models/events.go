package models

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventTypePatientCreated EventType = "patient_created"
	EventTypePatientUpdated EventType = "patient_updated"
	EventTypePatientDeleted EventType = "patient_deleted"
	EventTypePredictionMade EventType = "prediction_made"
	EventTypeUserRegistered EventType = "user_registered"
	EventTypeLoginFailed    EventType = "login_failed"
	EventTypeAccessDenied   EventType = "access_denied"
)

type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityCritical EventSeverity = "critical"
)

// Event represents an internal system event
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Severity  EventSeverity `json:"severity"`
	Actor     string        `json:"actor,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Message   string        `json:"message"`
	Data      interface{}   `json:"data,omitempty"`
	TraceID   string        `json:"trace_id,omitempty"`
}

func NewEvent(eventType EventType, actor, message string) *Event {
	return &Event{
		ID:        NewUUID(),
		Type:      eventType,
		Severity:  SeverityInfo,
		Actor:     actor,
		Timestamp: time.Now(),
		Message:   message,
	}
}

func (e *Event) WithSeverity(severity EventSeverity) *Event {
	e.Severity = severity
	return e
}

func (e *Event) WithData(data interface{}) *Event {
	e.Data = data
	return e
}

func (e *Event) WithTraceID(traceID string) *Event {
	e.TraceID = traceID
	return e
}

func AllEventTypes() []EventType {
	return []EventType{
		EventTypePatientCreated,
		EventTypePatientUpdated,
		EventTypePatientDeleted,
		EventTypePredictionMade,
		EventTypeUserRegistered,
		EventTypeLoginFailed,
		EventTypeAccessDenied,
	}
}

// AuditEntry is a persisted event row.
type AuditEntry struct {
	ID        int64           `json:"id"`
	EventID   string          `json:"event_id"`
	Type      EventType       `json:"type"`
	Severity  EventSeverity   `json:"severity"`
	Actor     string          `json:"actor,omitempty"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	TraceID   string          `json:"trace_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
