package features

import (
	"math"
	"testing"
	"time"

	"github.com/vijaygopalbalasa/ZKRisk/internal/domain/models"
)

// stubHistory serves canned slices so estimator behavior can be pinned
// without a live collector.
type stubHistory struct {
	windowed []models.PriceSample
	recent   []models.PriceSample
}

func (s *stubHistory) Append(models.PriceSample) {}
func (s *stubHistory) Len(string) int            { return len(s.recent) }

func (s *stubHistory) Recent(_ string, n int) []models.PriceSample {
	if n > len(s.recent) {
		n = len(s.recent)
	}
	return s.recent[len(s.recent)-n:]
}

func (s *stubHistory) Window(string, time.Duration) []models.PriceSample {
	return s.windowed
}

func hourly(prices ...float64) []models.PriceSample {
	base := time.Now().Add(-time.Duration(len(prices)) * time.Hour)
	out := make([]models.PriceSample, len(prices))
	for i, p := range prices {
		out[i] = models.PriceSample{Symbol: "ETH/USD", Price: p, Timestamp: base.Add(time.Duration(i) * time.Hour)}
	}
	return out
}

func TestHistoricalVolatilityInsufficientData(t *testing.T) {
	tests := []struct {
		name string
		hist *stubHistory
	}{
		{"empty", &stubHistory{}},
		{"single sample", &stubHistory{recent: hourly(100)}},
		{"single return pair skipped", &stubHistory{windowed: hourly(0, 100)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEstimator(tt.hist)
			if got := e.HistoricalVolatility("ETH/USD", 24*time.Hour); got != FallbackVolatility {
				t.Fatalf("expected fallback %v, got %v", FallbackVolatility, got)
			}
		})
	}
}

func TestHistoricalVolatilityConstantSeriesHitsFloor(t *testing.T) {
	e := NewEstimator(&stubHistory{windowed: hourly(250, 250, 250, 250, 250)})
	got := e.HistoricalVolatility("ETH/USD", 24*time.Hour)
	if got != MinVolatility {
		t.Fatalf("constant series: expected floor %v, got %v", MinVolatility, got)
	}
}

// The formula order is std -> annualize -> clamp: the scenario's annualized
// figure exceeds the ceiling, so the final value is exactly MaxVolatility.
func TestHistoricalVolatilityScenario(t *testing.T) {
	samples := hourly(100, 101, 99, 102, 98)
	returns := SimpleReturns(samples)

	wantReturns := []float64{0.01, -2.0 / 101.0, 3.0 / 99.0, -4.0 / 102.0}
	if len(returns) != len(wantReturns) {
		t.Fatalf("expected %d returns, got %d", len(wantReturns), len(returns))
	}
	for i, r := range returns {
		if math.Abs(r-wantReturns[i]) > 1e-12 {
			t.Errorf("return %d: expected %v, got %v", i, wantReturns[i], r)
		}
	}

	// sample std dev of the returns, annualized with sqrt(24*365)
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	ss := 0.0
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	sigma := math.Sqrt(ss / float64(len(returns)-1))
	annualized := sigma * math.Sqrt(24*365)
	if annualized <= MaxVolatility {
		t.Fatalf("scenario should exceed the ceiling before clamping, got %v", annualized)
	}

	e := NewEstimator(&stubHistory{windowed: samples})
	if got := e.HistoricalVolatility("ETH/USD", 24*time.Hour); got != MaxVolatility {
		t.Fatalf("expected clamp to %v, got %v", MaxVolatility, got)
	}
}

func TestHistoricalVolatilityWindowFallsBackToRecent(t *testing.T) {
	// window empty, recent has enough points
	e := NewEstimator(&stubHistory{recent: hourly(100, 110, 105, 108)})
	got := e.HistoricalVolatility("ETH/USD", time.Hour)
	if got == FallbackVolatility {
		t.Fatalf("expected computed volatility from recent fallback, got fallback constant")
	}
	if got < MinVolatility || got > MaxVolatility {
		t.Fatalf("volatility out of domain: %v", got)
	}
}

func TestSimpleReturnsSkipsNonPositivePrev(t *testing.T) {
	samples := hourly(100, 0, 102, 104)
	returns := SimpleReturns(samples)
	// pairs (100,0) and (102,104) produce returns; (0,102) is skipped
	if len(returns) != 2 {
		t.Fatalf("expected 2 returns, got %d: %v", len(returns), returns)
	}
}
