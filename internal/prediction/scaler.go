package prediction

import (
	"fmt"
	"math"
)

// Scaler standardizes a vector with statistics captured at training time.
type Scaler struct {
	Mean  Vector
	Scale Vector
}

func NewScaler(mean, scale []float64) (*Scaler, error) {
	if len(mean) != NumFeatures || len(scale) != NumFeatures {
		return nil, fmt.Errorf("%w: scaler needs %d means and scales, got %d and %d",
			ErrInvalidArtifact, NumFeatures, len(mean), len(scale))
	}

	var s Scaler
	for i := 0; i < NumFeatures; i++ {
		if scale[i] == 0 || math.IsNaN(scale[i]) || math.IsNaN(mean[i]) {
			return nil, fmt.Errorf("%w: bad scaler statistics for %s", ErrInvalidArtifact, FeatureOrder[i])
		}
		s.Mean[i] = mean[i]
		s.Scale[i] = scale[i]
	}
	return &s, nil
}

// FitScaler computes per-column mean and population standard deviation.
// Constant columns get a scale of 1.
func FitScaler(rows []Vector) *Scaler {
	var s Scaler
	if len(rows) == 0 {
		for i := range s.Scale {
			s.Scale[i] = 1
		}
		return &s
	}

	n := float64(len(rows))
	for _, r := range rows {
		for i, x := range r {
			s.Mean[i] += x
		}
	}
	for i := range s.Mean {
		s.Mean[i] /= n
	}

	for _, r := range rows {
		for i, x := range r {
			d := x - s.Mean[i]
			s.Scale[i] += d * d
		}
	}
	for i := range s.Scale {
		s.Scale[i] = math.Sqrt(s.Scale[i] / n)
		if s.Scale[i] == 0 {
			s.Scale[i] = 1
		}
	}
	return &s
}

// Transform applies (x - mean) / scale elementwise. No clipping.
func (s *Scaler) Transform(v Vector) Vector {
	var out Vector
	for i := range v {
		out[i] = (v[i] - s.Mean[i]) / s.Scale[i]
	}
	return out
}
