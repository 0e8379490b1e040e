package events

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/OldStager01/healthcare-records/internal/logger"
	"github.com/OldStager01/healthcare-records/internal/metrics"
	"github.com/OldStager01/healthcare-records/internal/resilience"
	"github.com/OldStager01/healthcare-records/pkg/config"
	"github.com/OldStager01/healthcare-records/pkg/models"
)

// MessageWriter is the part of *kafkago.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewKafkaWriter builds a writer for the events topic, with TLS and SASL when
// configured.
func NewKafkaWriter(cfg config.KafkaConfig) (*kafkago.Writer, error) {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafkago.RequireAll,
	}

	if cfg.TLS || cfg.SASLEnabled {
		transport := &kafkago.Transport{}
		if cfg.TLS {
			transport.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		if cfg.SASLEnabled {
			mechanism, err := saslMechanism(cfg)
			if err != nil {
				return nil, err
			}
			transport.SASL = mechanism
		}
		w.Transport = transport
	}
	return w, nil
}

func saslMechanism(cfg config.KafkaConfig) (sasl.Mechanism, error) {
	switch cfg.SASLMechanism {
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.SASLUsername, cfg.SASLPassword)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.SASLUsername, cfg.SASLPassword)
	case "PLAIN", "":
		return plain.Mechanism{Username: cfg.SASLUsername, Password: cfg.SASLPassword}, nil
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism %q", cfg.SASLMechanism)
	}
}

// KafkaSink forwards bus events to Kafka as JSON, keyed by event type. Writes
// go through a circuit breaker so a dead broker costs one rejected call per
// event instead of a write timeout.
type KafkaSink struct {
	writer    MessageWriter
	breaker   *resilience.CircuitBreaker
	eventChan <-chan *models.Event
	timeout   time.Duration
	metrics   *metrics.Metrics

	cancel context.CancelFunc
	done   chan struct{}
}

func NewKafkaSink(writer MessageWriter, eventChan <-chan *models.Event, cfg config.KafkaConfig, m *metrics.Metrics) *KafkaSink {
	if m == nil {
		m = metrics.Get()
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:        "kafka",
		MaxFailures: cfg.Breaker.MaxFailures,
		Timeout:     cfg.Breaker.Timeout,
		OnStateChange: func(name string, from, to resilience.State) {
			m.SetCircuitBreakerState(name, int(to))
			logger.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
	m.SetCircuitBreakerState(breaker.Name(), int(breaker.State()))

	return &KafkaSink{
		writer:    writer,
		breaker:   breaker,
		eventChan: eventChan,
		timeout:   timeout,
		metrics:   m,
	}
}

// Start runs the worker until the event channel is closed and drained.
// Cancelling ctx stops it early and abandons buffered events.
func (s *KafkaSink) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.run(ctx)
	}()
}

// Stop waits for the worker to flush the closed event channel, or for ctx to
// end, and then closes the writer.
func (s *KafkaSink) Stop(ctx context.Context) error {
	stopErr := stopWorker(ctx, s.cancel, s.done)
	if err := s.writer.Close(); err != nil {
		return errors.Join(stopErr, fmt.Errorf("close kafka writer: %w", err))
	}
	return stopErr
}

func (s *KafkaSink) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.eventChan:
			if !ok {
				return
			}
			if err := s.write(ctx, event); err != nil {
				s.metrics.IncKafkaWriteError()
				logger.WithFields(map[string]interface{}{
					"event_id": event.ID,
					"error":    err.Error(),
				}).Warn("Failed to stream event to Kafka")
			}
		}
	}
}

func (s *KafkaSink) write(ctx context.Context, event *models.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.Type),
		Value: value,
		Time:  event.Timestamp,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}
	if event.TraceID != "" {
		msg.Headers = append(msg.Headers, kafkago.Header{Key: "trace_id", Value: []byte(event.TraceID)})
	}

	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.writer.WriteMessages(ctx, msg)
	})
}
