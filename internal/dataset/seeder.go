package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/OldStager01/healthcare-records/internal/logger"
	"github.com/OldStager01/healthcare-records/internal/metrics"
	"github.com/OldStager01/healthcare-records/pkg/models"
)

const (
	seedActor     = "dataset"
	seedBatchSize = 1000
)

// PatientStore is the part of the patient repository the seeder needs.
type PatientStore interface {
	Count(ctx context.Context) (int, error)
	BulkInsert(ctx context.Context, patients []*models.Patient, createdBy string) (int, error)
}

type Seeder struct {
	store   PatientStore
	path    string
	metrics *metrics.Metrics
}

func NewSeeder(store PatientStore, path string, m *metrics.Metrics) *Seeder {
	if m == nil {
		m = metrics.Get()
	}
	return &Seeder{store: store, path: path, metrics: m}
}

// Seed loads the dataset when the patients table is empty and returns the
// number of rows inserted. A non-empty table is left untouched.
func (s *Seeder) Seed(ctx context.Context) (int, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	if count > 0 {
		logger.Debugf("Patients table already has %d rows, skipping seed", count)
		return 0, nil
	}

	start := time.Now()
	patients, err := LoadFile(s.path)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for i := 0; i < len(patients); i += seedBatchSize {
		end := i + seedBatchSize
		if end > len(patients) {
			end = len(patients)
		}

		n, err := s.store.BulkInsert(ctx, patients[i:end], seedActor)
		if err != nil {
			return inserted, fmt.Errorf("insert rows %d-%d: %w", i, end, err)
		}
		inserted += n
	}

	s.metrics.AddPatientsSeeded(inserted)
	logger.WithFields(map[string]interface{}{
		"path":     s.path,
		"rows":     inserted,
		"duration": time.Since(start).String(),
	}).Info("Seeded patients from dataset")

	return inserted, nil
}
