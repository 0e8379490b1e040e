package queries_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/OldStager01/healthcare-records/pkg/database"
	"github.com/OldStager01/healthcare-records/pkg/database/queries"
	"github.com/OldStager01/healthcare-records/pkg/models"
)

// setupDB starts a throwaway Postgres, applies the migrations and returns the
// connection. Skipped unless HEALTHREC_INTEGRATION=1.
func setupDB(t *testing.T) *database.DB {
	t.Helper()

	if os.Getenv("HEALTHREC_INTEGRATION") != "1" {
		t.Skip("set HEALTHREC_INTEGRATION=1 to run database integration tests")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("healthcare_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("warning: failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(dsn, database.Config{MaxConnections: 5})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db).Up(ctx))
	return db
}

func floatPtr(v float64) *float64 { return &v }

func samplePatients() []*models.Patient {
	return []*models.Patient{
		{ID: 1, Gender: "Male", Age: 67, Hypertension: 0, HeartDisease: 1, EverMarried: "Yes", WorkType: "Private", ResidenceType: "Urban", AvgGlucoseLevel: 228.69, BMI: floatPtr(36.6), SmokingStatus: "formerly smoked", Stroke: 1},
		{ID: 2, Gender: "Female", Age: 61, Hypertension: 0, HeartDisease: 0, EverMarried: "Yes", WorkType: "Self-employed", ResidenceType: "Rural", AvgGlucoseLevel: 202.21, BMI: nil, SmokingStatus: "never smoked", Stroke: 1},
		{ID: 3, Gender: "Female", Age: 15, Hypertension: 1, HeartDisease: 0, EverMarried: "No", WorkType: "children", ResidenceType: "Urban", AvgGlucoseLevel: 90.0, BMI: floatPtr(20.1), SmokingStatus: "Unknown", Stroke: 0},
		{ID: 4, Gender: "Male", Age: 35, Hypertension: 0, HeartDisease: 0, EverMarried: "Yes", WorkType: "Private", ResidenceType: "Rural", AvgGlucoseLevel: 100.5, BMI: floatPtr(28.3), SmokingStatus: "smokes", Stroke: 0},
	}
}

func TestPatientRepository_Integration(t *testing.T) {
	db := setupDB(t)
	repo := queries.NewPatientRepository(db.DB)
	ctx := context.Background()

	n, err := repo.BulkInsert(ctx, samplePatients(), "seed")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	t.Run("get by id keeps null bmi", func(t *testing.T) {
		p, err := repo.GetByID(ctx, 2)
		require.NoError(t, err)
		assert.Nil(t, p.BMI)
		assert.Equal(t, "seed", p.CreatedBy)
	})

	t.Run("missing patient", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 999)
		assert.ErrorIs(t, err, queries.ErrPatientNotFound)
	})

	t.Run("search by id", func(t *testing.T) {
		page, err := repo.Search(ctx, models.PatientFilter{Query: "3", Page: 1, PerPage: 20})
		require.NoError(t, err)
		require.Len(t, page.Patients, 1)
		assert.Equal(t, 3, page.Patients[0].ID)
	})

	t.Run("search by text and stroke filter", func(t *testing.T) {
		stroke := 1
		page, err := repo.Search(ctx, models.PatientFilter{Query: "SMOKED", Stroke: &stroke, Page: 1, PerPage: 20})
		require.NoError(t, err)
		assert.Equal(t, 2, page.TotalCount)
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := repo.Search(ctx, models.PatientFilter{Page: 2, PerPage: 3})
		require.NoError(t, err)
		assert.Equal(t, 4, page.TotalCount)
		assert.Equal(t, 2, page.TotalPages)
		assert.Len(t, page.Patients, 1)
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, stats.TotalPatients)
		assert.Equal(t, 2, stats.StrokeCases)
		assert.Equal(t, 2, stats.NoStrokeCases)
		assert.Equal(t, 44.5, stats.AvgAge)
	})

	t.Run("analytics", func(t *testing.T) {
		a, err := repo.Analytics(ctx)
		require.NoError(t, err)
		assert.Len(t, a.GenderDistribution, 2)
		assert.Equal(t, []models.StrokeBucket{
			{Key: "0-20", Count: 1, StrokeCount: 0},
			{Key: "20-40", Count: 1, StrokeCount: 0},
			{Key: "60-80", Count: 2, StrokeCount: 2},
		}, a.AgeGroups)
		assert.Len(t, a.SmokingStroke, 4)
	})

	t.Run("create duplicate", func(t *testing.T) {
		err := repo.Create(ctx, samplePatients()[0])
		assert.ErrorIs(t, err, queries.ErrDuplicatePatient)
	})

	t.Run("update and delete", func(t *testing.T) {
		p, err := repo.GetByID(ctx, 4)
		require.NoError(t, err)

		p.Stroke = 1
		p.UpdatedBy = "doctor"
		require.NoError(t, repo.Update(ctx, p))

		updated, err := repo.GetByID(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.Stroke)
		assert.Equal(t, "doctor", updated.UpdatedBy)

		require.NoError(t, repo.Delete(ctx, 4))
		assert.ErrorIs(t, repo.Delete(ctx, 4), queries.ErrPatientNotFound)
	})
}

func TestUserRepository_Integration(t *testing.T) {
	db := setupDB(t)
	repo := queries.NewUserRepository(db.DB)
	ctx := context.Background()

	user := &models.User{Username: "doctor", Email: "doctor@hospital.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	dup := &models.User{Username: "doctor", Email: "other@hospital.com", PasswordHash: "hash"}
	assert.ErrorIs(t, repo.Create(ctx, dup), queries.ErrDuplicateUser)

	exists, err := repo.Exists(ctx, "nobody", "doctor@hospital.com")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, time.Now()))

	got, err := repo.GetByUsername(ctx, "doctor")
	require.NoError(t, err)
	assert.NotNil(t, got.LastLogin)

	_, err = repo.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, queries.ErrUserNotFound)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAuditRepository_Integration(t *testing.T) {
	db := setupDB(t)
	repo := queries.NewAuditRepository(db.DB)
	ctx := context.Background()

	event := models.NewEvent(models.EventTypeLoginFailed, "mallory", "invalid credentials").
		WithSeverity(models.SeverityWarning).
		WithData(map[string]string{"ip": "10.0.0.1"})
	require.NoError(t, repo.Insert(ctx, event))

	entries, err := repo.GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, event.ID, entries[0].EventID)
	assert.Equal(t, models.EventTypeLoginFailed, entries[0].Type)
	assert.JSONEq(t, `{"ip":"10.0.0.1"}`, string(entries[0].Data))
}
