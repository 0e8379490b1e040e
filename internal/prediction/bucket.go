package prediction

type Category string

const (
	CategoryLow    Category = "Low"
	CategoryMedium Category = "Medium"
	CategoryHigh   Category = "High"
)

const (
	MediumThreshold = 0.33
	HighThreshold   = 0.66
)

// Bucket maps a probability to its risk category. Ties go to the higher bucket.
func Bucket(p float64) Category {
	switch {
	case p < MediumThreshold:
		return CategoryLow
	case p < HighThreshold:
		return CategoryMedium
	default:
		return CategoryHigh
	}
}

// Label is the display text, e.g. "High Risk".
func (c Category) Label() string {
	return string(c) + " Risk"
}

func (c Category) Color() string {
	switch c {
	case CategoryLow:
		return "green"
	case CategoryMedium:
		return "orange"
	default:
		return "red"
	}
}
