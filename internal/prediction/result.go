package prediction

import "github.com/shopspring/decimal"

type Result struct {
	Probability float64
	Category    Category
	Version     string
}

func newResult(p float64, version string) *Result {
	return &Result{
		Probability: p,
		Category:    Bucket(p),
		Version:     version,
	}
}

// Percent is the probability as a percentage rounded half away from zero to
// two decimals.
func (r *Result) Percent() float64 {
	return decimal.NewFromFloat(r.Probability * 100).Round(2).InexactFloat64()
}

func (r *Result) Label() string {
	return r.Category.Label()
}

func (r *Result) Color() string {
	return r.Category.Color()
}
