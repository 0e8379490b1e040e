package training

import (
	"errors"
	"fmt"
	"sort"

	"github.com/OldStager01/healthcare-records/internal/prediction"
	"github.com/OldStager01/healthcare-records/pkg/models"
)

var ErrNoData = errors.New("training: no usable rows")

// Dataset is the encoded design matrix and labels.
type Dataset struct {
	X        []prediction.Vector
	Y        []int
	Encoders *prediction.Encoders
	Dropped  int
}

// Prepare cleans and encodes patients the same way serving encodes a request.
// Missing bmi becomes the median bmi, missing smoking status becomes
// "Unknown" and rows without a gender are dropped.
func Prepare(patients []*models.Patient) (*Dataset, error) {
	var (
		kept []*models.Patient
		bmis []float64
	)
	for _, p := range patients {
		if p.Gender == "" {
			continue
		}
		if p.Stroke != 0 && p.Stroke != 1 {
			return nil, fmt.Errorf("training: patient %d has stroke label %d, want 0 or 1", p.ID, p.Stroke)
		}
		kept = append(kept, p)
		if p.BMI != nil {
			bmis = append(bmis, *p.BMI)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoData
	}

	medianBMI := median(bmis)

	features := make([]prediction.Features, len(kept))
	columns := make(map[string][]string, len(prediction.CategoricalFields))
	for i, p := range kept {
		f := prediction.Features{
			Gender:          p.Gender,
			Age:             p.Age,
			Hypertension:    float64(p.Hypertension),
			HeartDisease:    float64(p.HeartDisease),
			EverMarried:     p.EverMarried,
			WorkType:        p.WorkType,
			ResidenceType:   p.ResidenceType,
			AvgGlucoseLevel: p.AvgGlucoseLevel,
			BMI:             medianBMI,
			SmokingStatus:   p.SmokingStatus,
		}
		if p.BMI != nil {
			f.BMI = *p.BMI
		}
		if f.SmokingStatus == "" {
			f.SmokingStatus = "Unknown"
		}
		features[i] = f

		for _, field := range prediction.CategoricalFields {
			v, _ := f.Categorical(field)
			columns[field] = append(columns[field], v)
		}
	}

	fields := make(map[string]*prediction.LabelEncoder, len(columns))
	for field, values := range columns {
		enc, err := prediction.FitLabelEncoder(values)
		if err != nil {
			return nil, fmt.Errorf("fit encoder %s: %w", field, err)
		}
		fields[field] = enc
	}
	encoders, err := prediction.NewEncoders(fields)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		X:        make([]prediction.Vector, len(kept)),
		Y:        make([]int, len(kept)),
		Encoders: encoders,
		Dropped:  len(patients) - len(kept),
	}
	for i, f := range features {
		ds.X[i], _ = encoders.Encode(f)
		ds.Y[i] = kept[i].Stroke
	}
	return ds, nil
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
