package features

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/vijaygopalbalasa/ZKRisk/internal/domain/models"
	drepo "github.com/vijaygopalbalasa/ZKRisk/internal/domain/repository"
)

const (
	// FallbackVolatility is returned whenever too little history exists to
	// compute a figure.
	FallbackVolatility = 0.15

	// Annualized volatility domain.
	MinVolatility = 0.01
	MaxVolatility = 2.0

	// recentFallbackCount caps the Recent() fallback when a time window
	// yields fewer than two samples.
	recentFallbackCount = 24
)

// annualizationFactor assumes hourly-spaced samples: sqrt(24 * 365).
// Actual timestamp deltas are not validated against this assumption.
var annualizationFactor = math.Sqrt(24 * 365)

// Estimator computes realized volatility from buffered price history.
type Estimator struct {
	hist drepo.History
}

// NewEstimator creates an Estimator reading from hist.
func NewEstimator(hist drepo.History) *Estimator {
	return &Estimator{hist: hist}
}

// HistoricalVolatility computes annualized realized volatility over the given
// period, falling back to a bounded recent slice and finally to the constant
// fallback when history is too thin. Result is clamped to
// [MinVolatility, MaxVolatility].
func (e *Estimator) HistoricalVolatility(symbol string, period time.Duration) float64 {
	samples := e.hist.Window(symbol, period)
	if len(samples) < 2 {
		n := e.hist.Len(symbol)
		if n > recentFallbackCount {
			n = recentFallbackCount
		}
		samples = e.hist.Recent(symbol, n)
	}
	if len(samples) < 2 {
		return FallbackVolatility
	}

	returns := SimpleReturns(samples)
	if len(returns) < 2 {
		return FallbackVolatility
	}

	// std dev of returns, then annualize, then clamp
	sigma := stat.StdDev(returns, nil)
	annualized := sigma * annualizationFactor
	return Clamp(annualized, MinVolatility, MaxVolatility)
}

// SimpleReturns computes r_i = (p_i - p_{i-1}) / p_{i-1} for consecutive
// samples. Pairs with a non-positive previous price are skipped.
func SimpleReturns(samples []models.PriceSample) []float64 {
	if len(samples) < 2 {
		return nil
	}
	out := make([]float64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		prev := samples[i-1].Price
		if prev <= 0 {
			continue
		}
		out = append(out, (samples[i].Price-prev)/prev)
	}
	return out
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
