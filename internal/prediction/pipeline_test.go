package prediction_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/healthcare-records/internal/prediction"
)

func TestBucket(t *testing.T) {
	tests := []struct {
		p        float64
		category prediction.Category
		label    string
		color    string
	}{
		{0, prediction.CategoryLow, "Low Risk", "green"},
		{0.32, prediction.CategoryLow, "Low Risk", "green"},
		{0.33, prediction.CategoryMedium, "Medium Risk", "orange"},
		{0.5, prediction.CategoryMedium, "Medium Risk", "orange"},
		{0.659, prediction.CategoryMedium, "Medium Risk", "orange"},
		{0.66, prediction.CategoryHigh, "High Risk", "red"},
		{1, prediction.CategoryHigh, "High Risk", "red"},
	}

	for _, tt := range tests {
		c := prediction.Bucket(tt.p)
		assert.Equal(t, tt.category, c, "p=%v", tt.p)
		assert.Equal(t, tt.label, c.Label())
		assert.Equal(t, tt.color, c.Color())
	}
}

func TestParseFeatures(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		f, err := prediction.ParseFeatures(exampleRaw())
		require.NoError(t, err)
		assert.Equal(t, exampleFeatures(), f)
	})

	t.Run("numeric strings and json numbers", func(t *testing.T) {
		raw := exampleRaw()
		raw["age"] = "45"
		raw["bmi"] = json.Number("25.6")
		raw["hypertension"] = " 0 "

		f, err := prediction.ParseFeatures(raw)
		require.NoError(t, err)
		assert.Equal(t, 45.0, f.Age)
		assert.Equal(t, 25.6, f.BMI)
	})

	tests := []struct {
		name   string
		modify func(raw map[string]interface{})
		field  string
	}{
		{"missing age", func(r map[string]interface{}) { delete(r, "age") }, "age"},
		{"null bmi", func(r map[string]interface{}) { r["bmi"] = nil }, "bmi"},
		{"non numeric glucose", func(r map[string]interface{}) { r["avg_glucose_level"] = "high" }, "avg_glucose_level"},
		{"bmi N/A", func(r map[string]interface{}) { r["bmi"] = "N/A" }, "bmi"},
		{"boolean hypertension", func(r map[string]interface{}) { r["hypertension"] = true }, "hypertension"},
		{"missing gender", func(r map[string]interface{}) { delete(r, "gender") }, "gender"},
		{"blank work type", func(r map[string]interface{}) { r["work_type"] = "  " }, "work_type"},
		{"numeric smoking status", func(r map[string]interface{}) { r["smoking_status"] = 1.0 }, "smoking_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := exampleRaw()
			tt.modify(raw)

			_, err := prediction.ParseFeatures(raw)

			require.Error(t, err)
			assert.ErrorIs(t, err, prediction.ErrInvalidInput)
			var inputErr *prediction.InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.field, inputErr.Field)
		})
	}
}

func TestLabelEncoder(t *testing.T) {
	enc, err := prediction.FitLabelEncoder([]string{"Urban", "Rural", "Urban", "Rural"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Rural", "Urban"}, enc.Classes())

	code, ok := enc.Encode("Urban")
	assert.True(t, ok)
	assert.Equal(t, 1, code)

	code, ok = enc.Encode("Suburban")
	assert.False(t, ok)
	assert.Equal(t, prediction.UnseenCode, code)

	_, err = prediction.NewLabelEncoder([]string{"b", "a"})
	assert.ErrorIs(t, err, prediction.ErrInvalidArtifact)

	_, err = prediction.NewLabelEncoder([]string{"a", "a"})
	assert.ErrorIs(t, err, prediction.ErrInvalidArtifact)
}

func TestEncoders_EncodeKeepsFeatureOrder(t *testing.T) {
	m := testModel(t)

	v, unseen := m.Encoders.Encode(exampleFeatures())

	assert.Empty(t, unseen)
	assert.Equal(t, prediction.Vector{1, 45, 0, 0, 1, 2, 1, 120.5, 25.6, 2}, v)
}

func TestEncoders_UnseenCategory(t *testing.T) {
	m := testModel(t)
	f := exampleFeatures()
	f.WorkType = "Astronaut"

	v, unseen := m.Encoders.Encode(f)

	assert.Equal(t, float64(prediction.UnseenCode), v[5])
	assert.Equal(t, []prediction.Unseen{{Field: "work_type", Value: "Astronaut"}}, unseen)
}

func TestScaler(t *testing.T) {
	rows := []prediction.Vector{
		{0, 10, 1, 0, 0, 0, 0, 100, 20, 0},
		{0, 30, 1, 0, 0, 0, 0, 200, 30, 0},
	}
	s := prediction.FitScaler(rows)

	assert.Equal(t, 20.0, s.Mean[1])
	assert.Equal(t, 10.0, s.Scale[1])
	assert.Equal(t, 1.0, s.Scale[0], "constant column scale")

	out := s.Transform(rows[1])
	assert.InDelta(t, 1.0, out[1], 1e-12)
	assert.InDelta(t, 0.0, out[2], 1e-12)

	// Values far outside the training range pass through unclipped.
	far := rows[0]
	far[1] = 1000
	assert.InDelta(t, 98.0, s.Transform(far)[1], 1e-12)

	_, err := prediction.NewScaler([]float64{0}, []float64{1})
	assert.ErrorIs(t, err, prediction.ErrInvalidArtifact)
}

func TestForest_Validate(t *testing.T) {
	tests := []struct {
		name  string
		nodes []prediction.Node
	}{
		{"empty tree", nil},
		{"child points backwards", []prediction.Node{{Feature: 0, Left: 0, Right: 1}, {Feature: -1}}},
		{"child out of range", []prediction.Node{{Feature: 0, Left: 1, Right: 5}, {Feature: -1}}},
		{"unknown feature", []prediction.Node{{Feature: 12, Left: 1, Right: 2}, {Feature: -1}, {Feature: -1}}},
		{"leaf above one", []prediction.Node{{Feature: -1, Value: 1.5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := prediction.NewForest([]prediction.Tree{{Nodes: tt.nodes}})
			assert.ErrorIs(t, err, prediction.ErrInvalidArtifact)
		})
	}
}

func TestModel_Predict(t *testing.T) {
	m := testModel(t)

	result, unseen := m.Predict(exampleFeatures())
	assert.Empty(t, unseen)
	assert.InDelta(t, 0.3, result.Probability, 1e-12)
	assert.Equal(t, prediction.CategoryLow, result.Category)
	assert.Equal(t, "test-v1", result.Version)

	older := exampleFeatures()
	older.Age = 70
	result, _ = m.Predict(older)
	assert.InDelta(t, 0.7, result.Probability, 1e-12)
	assert.Equal(t, prediction.CategoryHigh, result.Category)
}

func TestResult_Percent(t *testing.T) {
	tests := []struct {
		p        float64
		expected float64
	}{
		{0.3, 30},
		{0.123456, 12.35},
		{0, 0},
		{1, 100},
	}

	for _, tt := range tests {
		r := &prediction.Result{Probability: tt.p}
		assert.Equal(t, tt.expected, r.Percent(), "p=%v", tt.p)
	}
}
