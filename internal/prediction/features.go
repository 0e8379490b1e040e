package prediction

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const NumFeatures = 10

// Feature names in the order the classifier was trained on.
const (
	FieldGender          = "gender"
	FieldAge             = "age"
	FieldHypertension    = "hypertension"
	FieldHeartDisease    = "heart_disease"
	FieldEverMarried     = "ever_married"
	FieldWorkType        = "work_type"
	FieldResidenceType   = "Residence_type"
	FieldAvgGlucoseLevel = "avg_glucose_level"
	FieldBMI             = "bmi"
	FieldSmokingStatus   = "smoking_status"
)

var FeatureOrder = [NumFeatures]string{
	FieldGender,
	FieldAge,
	FieldHypertension,
	FieldHeartDisease,
	FieldEverMarried,
	FieldWorkType,
	FieldResidenceType,
	FieldAvgGlucoseLevel,
	FieldBMI,
	FieldSmokingStatus,
}

// CategoricalFields are label-encoded before scaling.
var CategoricalFields = []string{
	FieldGender,
	FieldEverMarried,
	FieldWorkType,
	FieldResidenceType,
	FieldSmokingStatus,
}

// Vector is a feature vector in FeatureOrder.
type Vector [NumFeatures]float64

// Features holds one patient's raw attributes.
type Features struct {
	Gender          string  `json:"gender"`
	Age             float64 `json:"age"`
	Hypertension    float64 `json:"hypertension"`
	HeartDisease    float64 `json:"heart_disease"`
	EverMarried     string  `json:"ever_married"`
	WorkType        string  `json:"work_type"`
	ResidenceType   string  `json:"Residence_type"`
	AvgGlucoseLevel float64 `json:"avg_glucose_level"`
	BMI             float64 `json:"bmi"`
	SmokingStatus   string  `json:"smoking_status"`
}

// Categorical returns the raw value of a categorical field.
func (f Features) Categorical(field string) (string, bool) {
	switch field {
	case FieldGender:
		return f.Gender, true
	case FieldEverMarried:
		return f.EverMarried, true
	case FieldWorkType:
		return f.WorkType, true
	case FieldResidenceType:
		return f.ResidenceType, true
	case FieldSmokingStatus:
		return f.SmokingStatus, true
	}
	return "", false
}

// ParseFeatures builds Features from a decoded JSON object. Every field is
// required. Numeric fields accept JSON numbers or numeric strings; nothing
// else is coerced.
func ParseFeatures(raw map[string]interface{}) (Features, error) {
	var (
		f   Features
		err error
	)

	strField := func(name string, dst *string) {
		if err != nil {
			return
		}
		*dst, err = parseString(raw, name)
	}
	numField := func(name string, dst *float64) {
		if err != nil {
			return
		}
		*dst, err = parseNumber(raw, name)
	}

	strField(FieldGender, &f.Gender)
	numField(FieldAge, &f.Age)
	numField(FieldHypertension, &f.Hypertension)
	numField(FieldHeartDisease, &f.HeartDisease)
	strField(FieldEverMarried, &f.EverMarried)
	strField(FieldWorkType, &f.WorkType)
	strField(FieldResidenceType, &f.ResidenceType)
	numField(FieldAvgGlucoseLevel, &f.AvgGlucoseLevel)
	numField(FieldBMI, &f.BMI)
	strField(FieldSmokingStatus, &f.SmokingStatus)

	if err != nil {
		return Features{}, err
	}
	return f, nil
}

func parseString(raw map[string]interface{}, field string) (string, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return "", missingField(field)
	}

	s, ok := v.(string)
	if !ok {
		return "", notString(field)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", missingField(field)
	}
	return s, nil
}

func parseNumber(raw map[string]interface{}, field string) (float64, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return 0, missingField(field)
	}

	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, notNumeric(field)
		}
		n = parsed
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, missingField(field)
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, notNumeric(field)
		}
		n = parsed
	default:
		return 0, notNumeric(field)
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, notNumeric(field)
	}
	return n, nil
}
