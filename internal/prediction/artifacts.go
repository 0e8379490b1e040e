package prediction

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const ModelType = "random_forest"

// Paths locates the three artifacts that make up one model version.
type Paths struct {
	Classifier string
	Scaler     string
	Encoders   string
}

// DefaultPaths returns the standard artifact file names inside dir.
func DefaultPaths(dir string) Paths {
	return Paths{
		Classifier: filepath.Join(dir, "stroke_model.json"),
		Scaler:     filepath.Join(dir, "scaler.json"),
		Encoders:   filepath.Join(dir, "label_encoders.json"),
	}
}

// header is shared by every artifact and must be identical across the set.
type header struct {
	Version      string   `json:"version"`
	FeatureOrder []string `json:"feature_order"`
}

type classifierFile struct {
	header
	ModelType          string    `json:"model_type"`
	Trees              []Tree    `json:"trees"`
	FeatureImportances []float64 `json:"feature_importances,omitempty"`
}

type scalerFile struct {
	header
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

type encodersFile struct {
	header
	Encoders map[string][]string `json:"encoders"`
}

// LoadModel reads and cross-checks the three artifacts.
func LoadModel(paths Paths) (*Model, error) {
	var (
		cf classifierFile
		sf scalerFile
		ef encodersFile
	)

	if err := readArtifact(paths.Classifier, &cf); err != nil {
		return nil, err
	}
	if err := readArtifact(paths.Scaler, &sf); err != nil {
		return nil, err
	}
	if err := readArtifact(paths.Encoders, &ef); err != nil {
		return nil, err
	}

	for name, h := range map[string]header{"classifier": cf.header, "scaler": sf.header, "encoders": ef.header} {
		if err := h.check(); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	if cf.Version != sf.Version || cf.Version != ef.Version {
		return nil, fmt.Errorf("%w: versions classifier=%q scaler=%q encoders=%q",
			ErrArtifactMismatch, cf.Version, sf.Version, ef.Version)
	}

	if cf.ModelType != ModelType {
		return nil, fmt.Errorf("%w: unsupported model type %q", ErrInvalidArtifact, cf.ModelType)
	}

	forest, err := NewForest(cf.Trees)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}

	scaler, err := NewScaler(sf.Mean, sf.Scale)
	if err != nil {
		return nil, fmt.Errorf("scaler: %w", err)
	}

	fields := make(map[string]*LabelEncoder, len(ef.Encoders))
	for name, classes := range ef.Encoders {
		enc, err := NewLabelEncoder(classes)
		if err != nil {
			return nil, fmt.Errorf("encoder %s: %w", name, err)
		}
		fields[name] = enc
	}
	encoders, err := NewEncoders(fields)
	if err != nil {
		return nil, fmt.Errorf("encoders: %w", err)
	}

	return &Model{
		Version:            cf.Version,
		Encoders:           encoders,
		Scaler:             scaler,
		Forest:             forest,
		FeatureImportances: cf.FeatureImportances,
	}, nil
}

// check fails with ErrArtifactMismatch when the artifact was trained on a
// different feature order.
func (h header) check() error {
	if h.Version == "" {
		return fmt.Errorf("%w: missing version", ErrInvalidArtifact)
	}
	if len(h.FeatureOrder) != NumFeatures {
		return fmt.Errorf("%w: feature order has %d entries, want %d", ErrArtifactMismatch, len(h.FeatureOrder), NumFeatures)
	}
	for i, name := range h.FeatureOrder {
		if name != FeatureOrder[i] {
			return fmt.Errorf("%w: feature %d is %q, want %q", ErrArtifactMismatch, i, name, FeatureOrder[i])
		}
	}
	return nil
}

func readArtifact(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingArtifact, path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, path, err)
	}
	return nil
}

// SaveModel writes the model as three artifacts sharing one version.
func SaveModel(paths Paths, m *Model) error {
	h := header{Version: m.Version, FeatureOrder: FeatureOrder[:]}

	encoders := make(map[string][]string, len(CategoricalFields))
	for _, name := range CategoricalFields {
		encoders[name] = m.Encoders.Field(name).Classes()
	}

	artifacts := []struct {
		path string
		v    interface{}
	}{
		{paths.Classifier, classifierFile{header: h, ModelType: ModelType, Trees: m.Forest.Trees, FeatureImportances: m.FeatureImportances}},
		{paths.Scaler, scalerFile{header: h, Mean: m.Scaler.Mean[:], Scale: m.Scaler.Scale[:]}},
		{paths.Encoders, encodersFile{header: h, Encoders: encoders}},
	}

	for _, a := range artifacts {
		if err := writeArtifact(a.path, a.v); err != nil {
			return err
		}
	}
	return nil
}

// writeArtifact writes via a temp file and rename so a reader never sees a
// half-written artifact.
func writeArtifact(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
