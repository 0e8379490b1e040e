package websocket

import (
	"encoding/json"
	"time"

	"github.com/OldStager01/healthcare-records/pkg/models"
)

// Topic groups the events a live feed client can subscribe to.
type Topic string

const (
	TopicPatients    Topic = "patients"
	TopicPredictions Topic = "predictions"
	TopicSecurity    Topic = "security"
)

// adminTopics need an admin session.
var adminTopics = map[Topic]bool{TopicSecurity: true}

func ParseTopic(s string) (Topic, bool) {
	switch t := Topic(s); t {
	case TopicPatients, TopicPredictions, TopicSecurity:
		return t, true
	}
	return "", false
}

// TopicForEvent returns "" for events that are not streamed.
func TopicForEvent(t models.EventType) Topic {
	switch t {
	case models.EventTypePatientCreated, models.EventTypePatientUpdated, models.EventTypePatientDeleted:
		return TopicPatients
	case models.EventTypePredictionMade:
		return TopicPredictions
	case models.EventTypeLoginFailed, models.EventTypeAccessDenied, models.EventTypeUserRegistered:
		return TopicSecurity
	default:
		return ""
	}
}

type IncomingMessage struct {
	Type  string `json:"type"`
	Topic string `json:"topic,omitempty"`
}

// OutgoingMessage is one event as sent to clients.
type OutgoingMessage struct {
	Type      string      `json:"type"`
	Topic     Topic       `json:"topic"`
	Timestamp time.Time   `json:"timestamp"`
	Actor     string      `json:"actor,omitempty"`
	Severity  string      `json:"severity,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func NewEventMessage(topic Topic, event *models.Event) *OutgoingMessage {
	return &OutgoingMessage{
		Type:      string(event.Type),
		Topic:     topic,
		Timestamp: event.Timestamp,
		Actor:     event.Actor,
		Severity:  string(event.Severity),
		Message:   event.Message,
		Data:      event.Data,
	}
}

type SubscriptionUpdate struct {
	Type      string    `json:"type"`
	Action    string    `json:"action"`
	Topic     Topic     `json:"topic,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (m *OutgoingMessage) JSON() ([]byte, error) {
	return json.Marshal(m)
}
