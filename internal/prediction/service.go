package prediction

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/OldStager01/healthcare-records/internal/logger"
	"github.com/OldStager01/healthcare-records/internal/metrics"
)

// LoaderFunc loads a model from its artifacts.
type LoaderFunc func(Paths) (*Model, error)

// Service serves predictions from a lazily loaded model.
//
// The model is loaded on first use or by Init. Concurrent loads collapse into
// one and every caller waits for its result. A failed load is not kept, so a
// later call retries. Close drops the model; the next call loads it again.
// A load still running when Close is called serves its waiting callers but is
// not kept.
type Service struct {
	paths   Paths
	loader  LoaderFunc
	metrics *metrics.Metrics

	model atomic.Pointer[Model]
	group singleflight.Group

	// mu orders stores against Close; generation counts Close calls.
	mu         sync.Mutex
	generation uint64
}

type Option func(*Service)

// WithLoader replaces LoadModel.
func WithLoader(fn LoaderFunc) Option {
	return func(s *Service) { s.loader = fn }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(paths Paths, opts ...Option) *Service {
	s := &Service{
		paths:   paths,
		loader:  LoadModel,
		metrics: metrics.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init loads the model now instead of on the first prediction.
func (s *Service) Init(ctx context.Context) error {
	_, err := s.load(ctx)
	return err
}

// Close drops the loaded model.
func (s *Service) Close() error {
	s.mu.Lock()
	s.generation++
	old := s.model.Swap(nil)
	s.mu.Unlock()

	if old != nil {
		s.metrics.SetModelLoaded(false, 0)
		logger.Info("Prediction model unloaded")
	}
	return nil
}

// Ready reports whether a model is loaded. It never triggers a load.
func (s *Service) Ready() bool {
	return s.model.Load() != nil
}

// Version is the loaded model version, or "" when none is loaded.
func (s *Service) Version() string {
	if m := s.model.Load(); m != nil {
		return m.Version
	}
	return ""
}

// PredictRaw validates a decoded JSON object and predicts. Input errors are
// returned before the model is touched or loaded.
func (s *Service) PredictRaw(ctx context.Context, raw map[string]interface{}) (*Result, error) {
	f, err := ParseFeatures(raw)
	if err != nil {
		s.metrics.IncPredictionError("invalid_input")
		return nil, err
	}
	return s.Predict(ctx, f)
}

func (s *Service) Predict(ctx context.Context, f Features) (*Result, error) {
	m, err := s.load(ctx)
	if err != nil {
		s.metrics.IncPredictionError("model_unavailable")
		return nil, err
	}

	start := time.Now()
	result, unseen := m.Predict(f)

	for _, u := range unseen {
		s.metrics.IncUnseenCategory(u.Field)
		logger.WithFieldsCtx(ctx, map[string]interface{}{
			"field": u.Field,
			"value": u.Value,
		}).Warn("Unseen category value, using default code")
	}

	s.metrics.IncPrediction(result.Label(), time.Since(start))
	return result, nil
}

func (s *Service) load(ctx context.Context) (*Model, error) {
	if m := s.model.Load(); m != nil {
		return m, nil
	}

	ch := s.group.DoChan("model", func() (interface{}, error) {
		if m := s.model.Load(); m != nil {
			return m, nil
		}

		s.mu.Lock()
		generation := s.generation
		s.mu.Unlock()

		start := time.Now()
		m, err := s.loader(s.paths)
		if err != nil {
			s.metrics.SetModelLoaded(false, 0)
			logger.WithField("error", err.Error()).Error("Failed to load prediction model")
			return nil, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generation != generation {
			logger.Info("Prediction model loaded after Close, not keeping it")
			return m, nil
		}

		s.model.Store(m)
		s.metrics.SetModelLoaded(true, time.Since(start))
		logger.WithFields(map[string]interface{}{
			"version":  m.Version,
			"trees":    len(m.Forest.Trees),
			"duration": time.Since(start).String(),
		}).Info("Prediction model loaded")
		return m, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Model), nil
	}
}
