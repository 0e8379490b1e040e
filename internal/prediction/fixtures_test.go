package prediction_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OldStager01/healthcare-records/internal/prediction"
)

// testModel splits on age only: with identity scaling, age <= 50 averages to
// 0.3 and anything older to 0.7.
func testModel(t *testing.T) *prediction.Model {
	t.Helper()

	vocab := map[string][]string{
		prediction.FieldGender:        {"Female", "Male", "Other"},
		prediction.FieldEverMarried:   {"No", "Yes"},
		prediction.FieldWorkType:      {"Govt_job", "Never_worked", "Private", "Self-employed", "children"},
		prediction.FieldResidenceType: {"Rural", "Urban"},
		prediction.FieldSmokingStatus: {"Unknown", "formerly smoked", "never smoked", "smokes"},
	}
	fields := make(map[string]*prediction.LabelEncoder)
	for name, classes := range vocab {
		enc, err := prediction.NewLabelEncoder(classes)
		require.NoError(t, err)
		fields[name] = enc
	}
	encoders, err := prediction.NewEncoders(fields)
	require.NoError(t, err)

	mean := make([]float64, prediction.NumFeatures)
	scale := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	scaler, err := prediction.NewScaler(mean, scale)
	require.NoError(t, err)

	ageSplit := prediction.Tree{Nodes: []prediction.Node{
		{Feature: 1, Threshold: 50, Left: 1, Right: 2},
		{Feature: prediction.LeafFeature, Value: 0.1},
		{Feature: prediction.LeafFeature, Value: 0.9},
	}}
	constant := prediction.Tree{Nodes: []prediction.Node{
		{Feature: prediction.LeafFeature, Value: 0.5},
	}}
	forest, err := prediction.NewForest([]prediction.Tree{ageSplit, constant})
	require.NoError(t, err)

	return &prediction.Model{
		Version:  "test-v1",
		Encoders: encoders,
		Scaler:   scaler,
		Forest:   forest,
	}
}

func exampleFeatures() prediction.Features {
	return prediction.Features{
		Gender:          "Male",
		Age:             45,
		Hypertension:    0,
		HeartDisease:    0,
		EverMarried:     "Yes",
		WorkType:        "Private",
		ResidenceType:   "Urban",
		AvgGlucoseLevel: 120.5,
		BMI:             25.6,
		SmokingStatus:   "never smoked",
	}
}

func exampleRaw() map[string]interface{} {
	return map[string]interface{}{
		"gender":            "Male",
		"age":               45.0,
		"hypertension":      0.0,
		"heart_disease":     0.0,
		"ever_married":      "Yes",
		"work_type":         "Private",
		"Residence_type":    "Urban",
		"avg_glucose_level": 120.5,
		"bmi":               25.6,
		"smoking_status":    "never smoked",
	}
}
