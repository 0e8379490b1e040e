package prediction

import (
	"fmt"
	"sort"
)

// UnseenCode is the code given to a categorical value that was not in the
// training vocabulary. Trained codes are 0..n-1, so it never collides with one.
const UnseenCode = -1

// LabelEncoder maps one field's categories to integer codes. Classes are
// sorted and a value's code is its index.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrInvalidArtifact)
	}
	if !sort.StringsAreSorted(classes) {
		return nil, fmt.Errorf("%w: vocabulary is not sorted", ErrInvalidArtifact)
	}

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("%w: duplicate class %q", ErrInvalidArtifact, c)
		}
		index[c] = i
	}

	return &LabelEncoder{
		classes: append([]string(nil), classes...),
		index:   index,
	}, nil
}

// FitLabelEncoder builds an encoder from the distinct values seen in training.
func FitLabelEncoder(values []string) (*LabelEncoder, error) {
	seen := make(map[string]struct{})
	var classes []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return NewLabelEncoder(classes)
}

// Encode returns the code for value, or UnseenCode and false.
func (e *LabelEncoder) Encode(value string) (int, bool) {
	code, ok := e.index[value]
	if !ok {
		return UnseenCode, false
	}
	return code, true
}

func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

// Unseen records a categorical value missing from the vocabulary.
type Unseen struct {
	Field string
	Value string
}

// Encoders holds one LabelEncoder per categorical field.
type Encoders struct {
	fields map[string]*LabelEncoder
}

func NewEncoders(fields map[string]*LabelEncoder) (*Encoders, error) {
	for _, name := range CategoricalFields {
		if fields[name] == nil {
			return nil, fmt.Errorf("%w: no encoder for %s", ErrInvalidArtifact, name)
		}
	}
	return &Encoders{fields: fields}, nil
}

func (e *Encoders) Field(name string) *LabelEncoder {
	return e.fields[name]
}

// Encode assembles the feature vector, replacing categorical values by their
// codes. Values outside the vocabulary become UnseenCode and are reported.
func (e *Encoders) Encode(f Features) (Vector, []Unseen) {
	var unseen []Unseen

	code := func(field string) float64 {
		value, _ := f.Categorical(field)
		c, ok := e.fields[field].Encode(value)
		if !ok {
			unseen = append(unseen, Unseen{Field: field, Value: value})
		}
		return float64(c)
	}

	v := Vector{
		code(FieldGender),
		f.Age,
		f.Hypertension,
		f.HeartDisease,
		code(FieldEverMarried),
		code(FieldWorkType),
		code(FieldResidenceType),
		f.AvgGlucoseLevel,
		f.BMI,
		code(FieldSmokingStatus),
	}
	return v, unseen
}
