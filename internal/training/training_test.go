package training_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/healthcare-records/internal/prediction"
	"github.com/OldStager01/healthcare-records/internal/training"
	"github.com/OldStager01/healthcare-records/pkg/models"
)

func floatPtr(v float64) *float64 { return &v }

// syntheticPatients labels older hypertensive patients with high glucose as
// strokes, with a little noise.
func syntheticPatients(n int, seed int64) []*models.Patient {
	rng := rand.New(rand.NewSource(seed))
	genders := []string{"Male", "Female"}
	work := []string{"Private", "Self-employed", "Govt_job", "children"}
	smoking := []string{"never smoked", "formerly smoked", "smokes", ""}

	patients := make([]*models.Patient, n)
	for i := range patients {
		age := rng.Float64() * 90
		hyper := rng.Intn(2)
		glucose := 60 + rng.Float64()*200

		stroke := 0
		if age > 55 && (hyper == 1 || glucose > 180) {
			stroke = 1
		}
		if rng.Float64() < 0.03 {
			stroke = 1 - stroke
		}

		p := &models.Patient{
			ID:              i + 1,
			Gender:          genders[rng.Intn(2)],
			Age:             age,
			Hypertension:    hyper,
			HeartDisease:    rng.Intn(2),
			EverMarried:     []string{"Yes", "No"}[rng.Intn(2)],
			WorkType:        work[rng.Intn(len(work))],
			ResidenceType:   []string{"Urban", "Rural"}[rng.Intn(2)],
			AvgGlucoseLevel: glucose,
			SmokingStatus:   smoking[rng.Intn(len(smoking))],
			Stroke:          stroke,
		}
		if rng.Float64() > 0.1 {
			p.BMI = floatPtr(18 + rng.Float64()*20)
		}
		patients[i] = p
	}
	return patients
}

func smallConfig() training.Config {
	cfg := training.DefaultConfig()
	cfg.Version = "test"
	cfg.Forest.NTrees = 15
	cfg.Forest.Tree.MaxDepth = 6
	return cfg
}

func TestTrain_LearnsSignal(t *testing.T) {
	model, report, err := training.Train(context.Background(), syntheticPatients(600, 1), smallConfig())
	require.NoError(t, err)

	assert.Equal(t, 600, report.Samples)
	assert.Equal(t, 480, report.TrainSize)
	assert.Equal(t, 120, report.TestSize)
	assert.Greater(t, report.ROCAUC, 0.85)
	assert.Len(t, report.TopFeatures, 5)
	assert.Equal(t, 600, report.Stratification.Total())
	assert.Len(t, model.Forest.Trees, 15)

	var sum float64
	for _, v := range model.FeatureImportances {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestTrain_Deterministic(t *testing.T) {
	patients := syntheticPatients(300, 2)
	cfg := smallConfig()

	a, _, err := training.Train(context.Background(), patients, cfg)
	require.NoError(t, err)

	cfg.Forest.Workers = 1
	b, _, err := training.Train(context.Background(), patients, cfg)
	require.NoError(t, err)

	f := prediction.Features{
		Gender: "Male", Age: 70, Hypertension: 1, EverMarried: "Yes", WorkType: "Private",
		ResidenceType: "Urban", AvgGlucoseLevel: 200, BMI: 30, SmokingStatus: "smokes",
	}
	ra, _ := a.Predict(f)
	rb, _ := b.Predict(f)
	assert.Equal(t, ra.Probability, rb.Probability)
}

func TestTrain_ArtifactsLoadForServing(t *testing.T) {
	model, _, err := training.Train(context.Background(), syntheticPatients(300, 3), smallConfig())
	require.NoError(t, err)

	paths := prediction.DefaultPaths(t.TempDir())
	require.NoError(t, prediction.SaveModel(paths, model))

	loaded, err := prediction.LoadModel(paths)
	require.NoError(t, err)

	high := prediction.Features{
		Gender: "Female", Age: 80, Hypertension: 1, HeartDisease: 1, EverMarried: "Yes",
		WorkType: "Self-employed", ResidenceType: "Rural", AvgGlucoseLevel: 230, BMI: 32,
		SmokingStatus: "formerly smoked",
	}
	low := high
	low.Age = 10
	low.Hypertension = 0
	low.AvgGlucoseLevel = 80
	low.WorkType = "children"

	rh, _ := loaded.Predict(high)
	rl, _ := loaded.Predict(low)
	assert.Greater(t, rh.Probability, rl.Probability)
}

func TestTrain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := training.Train(ctx, syntheticPatients(100, 4), smallConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrain_RequiresVersion(t *testing.T) {
	cfg := smallConfig()
	cfg.Version = ""

	_, _, err := training.Train(context.Background(), syntheticPatients(50, 5), cfg)
	assert.Error(t, err)
}

func TestPrepare(t *testing.T) {
	patients := []*models.Patient{
		{ID: 1, Gender: "Male", Age: 50, EverMarried: "Yes", WorkType: "Private", ResidenceType: "Urban", BMI: floatPtr(20), SmokingStatus: "smokes"},
		{ID: 2, Gender: "Female", Age: 60, EverMarried: "No", WorkType: "Govt_job", ResidenceType: "Rural", BMI: floatPtr(30), SmokingStatus: "", Stroke: 1},
		{ID: 3, Gender: "Female", Age: 70, EverMarried: "No", WorkType: "Govt_job", ResidenceType: "Rural", BMI: nil, SmokingStatus: "never smoked"},
		{ID: 4, Gender: "", Age: 30, EverMarried: "No", WorkType: "Private", ResidenceType: "Urban", SmokingStatus: "smokes"},
	}

	ds, err := training.Prepare(patients)
	require.NoError(t, err)

	assert.Equal(t, 1, ds.Dropped)
	require.Len(t, ds.X, 3)
	assert.Equal(t, []int{0, 1, 0}, ds.Y)
	assert.Equal(t, 25.0, ds.X[2][8], "missing bmi filled with median")
	assert.Equal(t, []string{"Unknown", "never smoked", "smokes"}, ds.Encoders.Field("smoking_status").Classes())
	assert.Equal(t, []string{"Female", "Male"}, ds.Encoders.Field("gender").Classes())
}

func TestPrepare_RejectsBadLabel(t *testing.T) {
	_, err := training.Prepare([]*models.Patient{{ID: 1, Gender: "Male", Stroke: 2}})
	assert.Error(t, err)

	_, err = training.Prepare(nil)
	assert.ErrorIs(t, err, training.ErrNoData)
}

func TestStratifiedSplit(t *testing.T) {
	y := make([]int, 1000)
	for i := 0; i < 50; i++ {
		y[i] = 1
	}

	train, test := training.StratifiedSplit(y, 0.2, 42)

	assert.Len(t, test, 200)
	assert.Len(t, train, 800)

	positives := 0
	for _, i := range test {
		positives += y[i]
	}
	assert.Equal(t, 10, positives)

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i], "index %d in both sides", i)
		seen[i] = true
	}
}

func TestClassWeights(t *testing.T) {
	w := training.ClassWeights([]int{0, 0, 0, 1})
	assert.InDelta(t, 4.0/6.0, w[0], 1e-12)
	assert.InDelta(t, 2.0, w[1], 1e-12)
}

func TestROCAUC(t *testing.T) {
	assert.Equal(t, 1.0, training.ROCAUC([]int{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9}))
	assert.Equal(t, 0.0, training.ROCAUC([]int{1, 1, 0, 0}, []float64{0.1, 0.2, 0.8, 0.9}))
	assert.Equal(t, 0.5, training.ROCAUC([]int{0, 1}, []float64{0.5, 0.5}))
	assert.InDelta(t, 0.75, training.ROCAUC([]int{0, 0, 1, 1}, []float64{0.1, 0.4, 0.35, 0.8}), 1e-12)
	assert.True(t, math.IsNaN(training.ROCAUC([]int{1, 1}, []float64{0.2, 0.3})))
}

func TestConfusionMatrix(t *testing.T) {
	cm := training.NewConfusionMatrix([]int{0, 0, 1, 1, 1}, []float64{0.2, 0.7, 0.9, 0.4, 0.5})

	assert.Equal(t, training.ConfusionMatrix{{1, 1}, {2, 1}}, cm)
	assert.InDelta(t, 0.5, cm.Precision(), 1e-12)
	assert.InDelta(t, 1.0/3.0, cm.Recall(), 1e-12)
	assert.InDelta(t, 0.4, cm.Accuracy(), 1e-12)
}

func TestStratify(t *testing.T) {
	s := training.Stratify([]float64{0.1, 0.32, 0.33, 0.65, 0.66, 0.99})
	assert.Equal(t, training.Stratification{Low: 2, Medium: 2, High: 2}, s)
}
