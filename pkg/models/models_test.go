package models_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OldStager01/healthcare-records/pkg/models"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, perPage, expected int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{5110, 20, 256},
		{10, 0, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, models.TotalPages(tt.total, tt.perPage), "total=%d perPage=%d", tt.total, tt.perPage)
	}
}

func TestPatientFilter_Offset(t *testing.T) {
	tests := []struct {
		name   string
		filter models.PatientFilter
		want   int
	}{
		{"page zero", models.PatientFilter{Page: 0, PerPage: 20}, 0},
		{"first page", models.PatientFilter{Page: 1, PerPage: 20}, 0},
		{"third page", models.PatientFilter{Page: 3, PerPage: 20}, 40},
		{"last allowed page", models.PatientFilter{Page: models.MaxPage, PerPage: 20}, (models.MaxPage - 1) * 20},
		{"huge page is capped", models.PatientFilter{Page: math.MaxInt64 / 10, PerPage: 20}, (models.MaxPage - 1) * 20},
		{"huge page size saturates", models.PatientFilter{Page: models.MaxPage, PerPage: math.MaxInt32}, math.MaxInt32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Offset()
			assert.GreaterOrEqual(t, got, 0)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAgeGroupLabel(t *testing.T) {
	assert.Equal(t, "0-20", models.AgeGroupLabel(0))
	assert.Equal(t, "80-120", models.AgeGroupLabel(4))
	assert.Equal(t, models.AgeGroupOther, models.AgeGroupLabel(5))
	assert.Equal(t, models.AgeGroupOther, models.AgeGroupLabel(-1))
}

func TestNewEvent(t *testing.T) {
	event := models.NewEvent(models.EventTypePatientCreated, "doctor", "patient 42 created").
		WithSeverity(models.SeverityWarning).
		WithData(map[string]int{"patient_id": 42}).
		WithTraceID("trace-1")

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, models.EventTypePatientCreated, event.Type)
	assert.Equal(t, models.SeverityWarning, event.Severity)
	assert.Equal(t, "doctor", event.Actor)
	assert.Equal(t, "trace-1", event.TraceID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestPatient_HasStroke(t *testing.T) {
	assert.True(t, (&models.Patient{Stroke: 1}).HasStroke())
	assert.False(t, (&models.Patient{Stroke: 0}).HasStroke())
}
