package models

// Feature column layout consumed by the inference backend.
const (
	FeatLogPrice = iota
	FeatConfidenceRatio
	FeatTimePosition
	FeatReturn
	FeatVolatility
)

// FeatureSequence is a fixed-shape (sequence_length x feature_count) model
// input. Never ragged.
type FeatureSequence struct {
	Rows      [][]float32
	Synthetic bool
}

// ValidShape reports whether the sequence matches the expected dimensions.
func (s FeatureSequence) ValidShape(seqLen, featCount int) bool {
	if len(s.Rows) != seqLen {
		return false
	}
	for _, row := range s.Rows {
		if len(row) != featCount {
			return false
		}
	}
	return true
}

// Column returns one feature column as float64 values.
func (s FeatureSequence) Column(idx int) []float64 {
	out := make([]float64, 0, len(s.Rows))
	for _, row := range s.Rows {
		if idx < len(row) {
			out = append(out, float64(row[idx]))
		}
	}
	return out
}
