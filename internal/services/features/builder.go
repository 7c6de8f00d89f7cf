package features

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/vijaygopalbalasa/ZKRisk/internal/domain/models"
	drepo "github.com/vijaygopalbalasa/ZKRisk/internal/domain/repository"
)

const (
	// recentVolatilityWindow feeds the broadcast volatility feature column.
	recentVolatilityWindow = 6 * time.Hour

	// Synthetic random-walk parameters used when history is too thin.
	syntheticBasePrice  = 4000.0
	syntheticVolatility = 0.15
	syntheticFloorPrice = 100.0
)

// Builder constructs fixed-shape feature sequences for the inference backend.
type Builder struct {
	hist      drepo.History
	est       *Estimator
	seqLen    int
	featCount int
}

// NewBuilder creates a Builder producing seqLen x featCount sequences.
func NewBuilder(hist drepo.History, est *Estimator, seqLen, featCount int) *Builder {
	if seqLen <= 0 {
		seqLen = 24
	}
	if featCount <= 0 {
		featCount = 5
	}
	return &Builder{hist: hist, est: est, seqLen: seqLen, featCount: featCount}
}

// SequenceLength returns the fixed sequence dimension.
func (b *Builder) SequenceLength() int { return b.seqLen }

// FeatureCount returns the fixed feature dimension.
func (b *Builder) FeatureCount() int { return b.featCount }

// Build assembles a feature sequence from real price history, switching to a
// synthetic random-walk sequence when fewer than seqLen samples exist. The
// output shape is always exactly seqLen x featCount.
func (b *Builder) Build(symbol string) models.FeatureSequence {
	samples := b.hist.Recent(symbol, b.seqLen)
	if len(samples) < b.seqLen {
		return b.Synthetic()
	}

	recentVol := b.est.HistoricalVolatility(symbol, recentVolatilityWindow)

	rows := make([][]float32, b.seqLen)
	for i, s := range samples {
		row := make([]float32, b.featCount)
		if s.Price > 0 {
			row[models.FeatLogPrice] = float32(math.Log(s.Price))
			row[models.FeatConfidenceRatio] = float32(s.Confidence / s.Price)
		}
		row[models.FeatTimePosition] = float32(float64(i) / float64(b.seqLen))
		if i > 0 && samples[i-1].Price > 0 {
			row[models.FeatReturn] = float32((s.Price - samples[i-1].Price) / samples[i-1].Price)
		}
		row[models.FeatVolatility] = float32(recentVol)
		rows[i] = row
	}
	return models.FeatureSequence{Rows: rows}
}

// Synthetic generates a geometric-random-walk sequence with the same feature
// layout, so the backend stays invocable without real data. Tagged so callers
// can discount it.
func (b *Builder) Synthetic() models.FeatureSequence {
	rows := make([][]float32, b.seqLen)
	price := syntheticBasePrice
	for i := 0; i < b.seqLen; i++ {
		change := distuv.UnitNormal.Rand() * syntheticVolatility * price * 0.01
		price += change
		if price < syntheticFloorPrice {
			price = syntheticFloorPrice
		}

		row := make([]float32, b.featCount)
		row[models.FeatLogPrice] = float32(math.Log(price))
		row[models.FeatConfidenceRatio] = 0.001
		row[models.FeatTimePosition] = float32(float64(i) / float64(b.seqLen))
		if i > 0 {
			row[models.FeatReturn] = float32(change / price)
		}
		row[models.FeatVolatility] = syntheticVolatility
		rows[i] = row
	}
	return models.FeatureSequence{Rows: rows, Synthetic: true}
}

// FromVolatilitySequence builds a sequence from an explicit volatility series
// (short series are left-padded with their mean, long ones truncated to the
// last seqLen values), broadcasting each value across the feature columns.
func (b *Builder) FromVolatilitySequence(vols []float64) models.FeatureSequence {
	padded := make([]float64, b.seqLen)
	switch {
	case len(vols) == 0:
		for i := range padded {
			padded[i] = 0.1
		}
	case len(vols) < b.seqLen:
		mean := stat.Mean(vols, nil)
		pad := b.seqLen - len(vols)
		for i := 0; i < pad; i++ {
			padded[i] = mean
		}
		copy(padded[pad:], vols)
	default:
		copy(padded, vols[len(vols)-b.seqLen:])
	}

	rows := make([][]float32, b.seqLen)
	for i, v := range padded {
		row := make([]float32, b.featCount)
		for j := range row {
			row[j] = float32(v)
		}
		rows[i] = row
	}
	return models.FeatureSequence{Rows: rows}
}
