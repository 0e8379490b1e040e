package prediction

// Model is one loaded, immutable set of matched artifacts.
type Model struct {
	Version            string
	Encoders           *Encoders
	Scaler             *Scaler
	Forest             *Forest
	FeatureImportances []float64
}

// Predict runs encode, scale and classify. It is a pure function of f.
func (m *Model) Predict(f Features) (*Result, []Unseen) {
	encoded, unseen := m.Encoders.Encode(f)
	scaled := m.Scaler.Transform(encoded)
	p := m.Forest.PredictProba(scaled)
	return newResult(p, m.Version), unseen
}
