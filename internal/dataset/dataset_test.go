package dataset_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/healthcare-records/internal/dataset"
	"github.com/OldStager01/healthcare-records/internal/metrics"
	"github.com/OldStager01/healthcare-records/pkg/models"
)

const sampleCSV = `id,gender,age,hypertension,heart_disease,ever_married,work_type,Residence_type,avg_glucose_level,bmi,smoking_status,stroke
9046,Male,67,0,1,Yes,Private,Urban,228.69,36.6,formerly smoked,1
51676,Female,61,0,0,Yes,Self-employed,Rural,202.21,N/A,never smoked,1
31112,Male,80,0,1,Yes,Private,Rural,105.92,32.5,never smoked,1
`

func TestParse(t *testing.T) {
	patients, err := dataset.Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, patients, 3)

	first := patients[0]
	assert.Equal(t, 9046, first.ID)
	assert.Equal(t, "Male", first.Gender)
	assert.Equal(t, 67.0, first.Age)
	assert.Equal(t, 1, first.HeartDisease)
	assert.Equal(t, "Urban", first.ResidenceType)
	require.NotNil(t, first.BMI)
	assert.Equal(t, 36.6, *first.BMI)
	assert.Equal(t, "formerly smoked", first.SmokingStatus)
	assert.Equal(t, 1, first.Stroke)

	assert.Nil(t, patients[1].BMI, "N/A bmi")
}

func TestParse_ColumnsByName(t *testing.T) {
	csv := "stroke,id,gender,age,hypertension,heart_disease,ever_married,work_type,Residence_type,avg_glucose_level,bmi,smoking_status\n" +
		"0,7,Female,30,0,0,No,Govt_job,Urban,90,22.1,smokes\n"

	patients, err := dataset.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, 7, patients[0].ID)
	assert.Equal(t, 0, patients[0].Stroke)
}

func TestParse_MissingColumn(t *testing.T) {
	_, err := dataset.Parse(strings.NewReader("id,gender,age\n1,Male,3\n"))
	assert.ErrorIs(t, err, dataset.ErrMissingColumn)
}

func TestParse_BadNumber(t *testing.T) {
	bad := strings.Replace(sampleCSV, "202.21", "lots", 1)

	_, err := dataset.Parse(strings.NewReader(bad))

	var parseErr *dataset.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 3, parseErr.Line)
	assert.Equal(t, "avg_glucose_level", parseErr.Column)
}

type fakeStore struct {
	count    int
	inserted []*models.Patient
	actor    string
	err      error
}

func (f *fakeStore) Count(ctx context.Context) (int, error) {
	return f.count, nil
}

func (f *fakeStore) BulkInsert(ctx context.Context, patients []*models.Patient, createdBy string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.inserted = append(f.inserted, patients...)
	f.actor = createdBy
	return len(patients), nil
}

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stroke.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	return path
}

func TestSeeder_SeedsEmptyTable(t *testing.T) {
	store := &fakeStore{}
	seeder := dataset.NewSeeder(store, writeSample(t), metrics.New())

	n, err := seeder.Seed(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, store.inserted, 3)
	assert.Equal(t, "dataset", store.actor)
}

func TestSeeder_SkipsPopulatedTable(t *testing.T) {
	store := &fakeStore{count: 10}
	seeder := dataset.NewSeeder(store, "does-not-exist.csv", metrics.New())

	n, err := seeder.Seed(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, store.inserted)
}

func TestSeeder_PropagatesInsertError(t *testing.T) {
	store := &fakeStore{err: errors.New("boom")}
	seeder := dataset.NewSeeder(store, writeSample(t), metrics.New())

	_, err := seeder.Seed(context.Background())

	assert.ErrorContains(t, err, "boom")
}
