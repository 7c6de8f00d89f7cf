package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/vijaygopalbalasa/ZKRisk/internal/domain/models"
	"github.com/vijaygopalbalasa/ZKRisk/internal/service/history"
	"github.com/vijaygopalbalasa/ZKRisk/internal/services/features"
	"github.com/vijaygopalbalasa/ZKRisk/pkg/config"
)

func riskConfig(strategy string) *config.Config {
	cfg := &config.Config{}
	cfg.Risk.Strategy = strategy
	cfg.Risk.MinLambda = 0.3
	cfg.Risk.MaxLambda = 1.8
	cfg.Risk.BaseRate = 0.05
	return cfg
}

func almost(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestLinearLambda(t *testing.T) {
	calc := NewLambdaCalculator(riskConfig("linear"))

	cases := []struct {
		vol  float64
		want float64
	}{
		{0, 1.8},
		{0.15, 1.35},
		{0.25, 1.05},
		{0.5, 0.3},
		{0.9, 0.3},
		{2.0, 0.3},
	}
	for _, tc := range cases {
		if got := calc.Lambda(tc.vol); !almost(got, tc.want) {
			t.Errorf("Lambda(%v) = %v, want %v", tc.vol, got, tc.want)
		}
	}
}

func TestLinearLambdaMonotonic(t *testing.T) {
	calc := NewLambdaCalculator(riskConfig("linear"))
	prev := math.Inf(1)
	for v := 0.0; v <= 1.0; v += 0.01 {
		l := calc.Lambda(v)
		if l > prev {
			t.Fatalf("lambda increased at vol %v: %v > %v", v, l, prev)
		}
		if l < 0.3 || l > 1.8 {
			t.Fatalf("lambda out of bounds at vol %v: %v", v, l)
		}
		prev = l
	}
}

func TestEnhancedLambda(t *testing.T) {
	calc := NewLambdaCalculator(riskConfig("enhanced"))

	// 1 + 0.05 + 2v + 0.5*(min(v/0.3,2)-1), clamped to [1.01, 3.0]
	cases := []struct {
		vol  float64
		want float64
	}{
		{0, 1.01},    // 0.55 clamps up
		{0.15, 1.1},  // 1.05 + 0.3 - 0.25
		{0.3, 1.65},  // 1.05 + 0.6 + 0
		{0.6, 2.75},  // 1.05 + 1.2 + 0.5, stress saturated
		{1.5, 3.0},   // clamps down
	}
	for _, tc := range cases {
		if got := calc.Lambda(tc.vol); !almost(got, tc.want) {
			t.Errorf("Lambda(%v) = %v, want %v", tc.vol, got, tc.want)
		}
	}
}

func TestLambdaNonFiniteInput(t *testing.T) {
	for _, strategy := range []string{"linear", "enhanced"} {
		calc := NewLambdaCalculator(riskConfig(strategy))
		if got := calc.Lambda(math.NaN()); got != DefaultLambda {
			t.Errorf("%s Lambda(NaN) = %v, want %v", strategy, got, DefaultLambda)
		}
		if got := calc.Lambda(math.Inf(1)); got != DefaultLambda {
			t.Errorf("%s Lambda(+Inf) = %v, want %v", strategy, got, DefaultLambda)
		}
	}
}

func TestEnhancedLambdaMonotonicNonDecreasing(t *testing.T) {
	calc := NewLambdaCalculator(riskConfig("enhanced"))
	prev := 0.0
	for v := 0.0; v <= 2.0; v += 0.01 {
		l := calc.Lambda(v)
		if l < prev {
			t.Fatalf("lambda decreased at vol %v: %v < %v", v, l, prev)
		}
		prev = l
	}
}

func TestConfidenceTiers(t *testing.T) {
	cases := []struct {
		points int
		want   string
	}{
		{0, models.ConfidenceLow},
		{20, models.ConfidenceLow},
		{21, models.ConfidenceMedium},
		{100, models.ConfidenceMedium},
		{101, models.ConfidenceHigh},
		{1000, models.ConfidenceHigh},
	}
	for _, tc := range cases {
		if got := Confidence(tc.points); got != tc.want {
			t.Errorf("Confidence(%d) = %q, want %q", tc.points, got, tc.want)
		}
	}
}

type fixedBackend struct {
	vol float64
	err error
}

func (b *fixedBackend) Predict(context.Context, models.FeatureSequence) (float64, error) {
	return b.vol, b.err
}

func newTestPredictor(t *testing.T, backend *fixedBackend, hist *history.Buffer) *Predictor {
	t.Helper()
	est := features.NewEstimator(hist)
	builder := features.NewBuilder(hist, est, 24, 5)
	log := testLogger(t)
	var infer *InferenceAdapter
	if backend == nil {
		infer = NewInferenceAdapter(nil, builder, hist, log)
	} else {
		infer = NewInferenceAdapter(backend, builder, hist, log)
	}
	return NewPredictor(hist, est, infer, NewLambdaCalculator(riskConfig("linear")), newStubMetrics(), log)
}

func fillHistory(hist *history.Buffer, symbol string, n int, base float64) {
	start := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		hist.Append(models.PriceSample{
			Symbol:    symbol,
			Price:     base + float64(i%5),
			Timestamp: start.Add(time.Duration(i) * time.Minute),
		})
	}
}

func TestSummaryNoBackendNoHistory(t *testing.T) {
	p := newTestPredictor(t, nil, history.New(100))

	s := p.Summary(context.Background(), "ETH/USD")
	if s.ModelVolatility != features.FallbackVolatility {
		t.Errorf("volatility = %v, want %v", s.ModelVolatility, features.FallbackVolatility)
	}
	if s.Method != models.MethodHistorical {
		t.Errorf("method = %q, want %q", s.Method, models.MethodHistorical)
	}
	if !s.Meta.Synthetic {
		t.Error("expected synthetic metadata")
	}
	if s.Confidence != models.ConfidenceLow {
		t.Errorf("confidence = %q, want low", s.Confidence)
	}
	// lambda(0.15) under the default linear strategy
	if !almost(s.Lambda, 1.35) {
		t.Errorf("lambda = %v, want 1.35", s.Lambda)
	}
	if s.Lambda1000 != 1350 {
		t.Errorf("lambda1000 = %d, want 1350", s.Lambda1000)
	}
}

func TestSummaryBackendWithRealData(t *testing.T) {
	hist := history.New(200)
	fillHistory(hist, "ETH/USD", 150, 4400)
	p := newTestPredictor(t, &fixedBackend{vol: 0.25}, hist)

	s := p.Summary(context.Background(), "ETH/USD")
	if s.Method != models.MethodLSTM {
		t.Errorf("method = %q, want %q", s.Method, models.MethodLSTM)
	}
	if s.ModelVolatility != 0.25 {
		t.Errorf("volatility = %v, want 0.25", s.ModelVolatility)
	}
	if s.Confidence != models.ConfidenceHigh {
		t.Errorf("confidence = %q, want high", s.Confidence)
	}
	if s.RiskAssessment != models.RiskMedium {
		t.Errorf("risk = %q, want MEDIUM", s.RiskAssessment)
	}
	if s.CurrentPrice == 0 {
		t.Error("expected current price from history")
	}
	if s.DataPoints != 150 {
		t.Errorf("data points = %d, want 150", s.DataPoints)
	}
}

func TestSummaryBackendErrorFallsBack(t *testing.T) {
	hist := history.New(200)
	fillHistory(hist, "ETH/USD", 50, 4400)
	p := newTestPredictor(t, &fixedBackend{err: errors.New("model down")}, hist)

	s := p.Summary(context.Background(), "ETH/USD")
	if s.Method != models.MethodErrorFallback {
		t.Errorf("method = %q, want %q", s.Method, models.MethodErrorFallback)
	}
	if s.ModelVolatility < minModelVolatility || s.ModelVolatility > maxModelVolatility {
		t.Errorf("volatility %v out of clamp range", s.ModelVolatility)
	}
}

func TestSummaryBackendSyntheticTag(t *testing.T) {
	// backend reachable but not enough real history for a sequence
	hist := history.New(100)
	fillHistory(hist, "ETH/USD", 5, 4400)
	p := newTestPredictor(t, &fixedBackend{vol: 0.3}, hist)

	s := p.Summary(context.Background(), "ETH/USD")
	if s.Method != models.MethodFallback {
		t.Errorf("method = %q, want %q", s.Method, models.MethodFallback)
	}
	if !s.Meta.Synthetic {
		t.Error("expected synthetic metadata")
	}
}

func TestModelVolatilityClamps(t *testing.T) {
	hist := history.New(200)
	fillHistory(hist, "ETH/USD", 50, 4400)

	for _, tc := range []struct {
		raw  float64
		want float64
	}{
		{0.001, minModelVolatility},
		{5.0, maxModelVolatility},
	} {
		p := newTestPredictor(t, &fixedBackend{vol: tc.raw}, hist)
		s := p.Summary(context.Background(), "ETH/USD")
		if s.ModelVolatility != tc.want {
			t.Errorf("raw %v: volatility = %v, want %v", tc.raw, s.ModelVolatility, tc.want)
		}
	}
}

func TestCurrentVolatilityEmptyHistory(t *testing.T) {
	p := newTestPredictor(t, nil, history.New(100))

	r := p.CurrentVolatility("ETH/USD")
	if r.Volatility != features.FallbackVolatility {
		t.Errorf("volatility = %v, want %v", r.Volatility, features.FallbackVolatility)
	}
	if r.DataPoints != 0 {
		t.Errorf("data points = %d, want 0", r.DataPoints)
	}
	if !almost(r.Lambda, 1.35) {
		t.Errorf("lambda = %v, want 1.35", r.Lambda)
	}
}

func TestInferWithSeries(t *testing.T) {
	p := newTestPredictor(t, &fixedBackend{vol: 0.2}, history.New(10))

	r := p.Infer(context.Background(), "ETH/USD", []float64{0.1, 0.2, 0.3})
	if r.Volatility != 0.2 {
		t.Errorf("volatility = %v, want 0.2", r.Volatility)
	}
	if r.DataPoints != 3 {
		t.Errorf("data points = %d, want 3", r.DataPoints)
	}
}

func TestInferNoBackendUsesSeriesMean(t *testing.T) {
	p := newTestPredictor(t, nil, history.New(10))

	r := p.Infer(context.Background(), "ETH/USD", []float64{0.1, 0.2, 0.3})
	if !almost(r.Volatility, 0.2) {
		t.Errorf("volatility = %v, want 0.2", r.Volatility)
	}
}

func TestPriceHistoryFromFilter(t *testing.T) {
	hist := history.New(100)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		hist.Append(models.PriceSample{Symbol: "ETH/USD", Price: 100, Timestamp: base.Add(time.Duration(i) * time.Hour)})
	}
	p := newTestPredictor(t, nil, hist)

	all := p.PriceHistory("ETH/USD", 10, time.Time{})
	if len(all) != 10 {
		t.Fatalf("len = %d, want 10", len(all))
	}

	cut := p.PriceHistory("ETH/USD", 10, base.Add(5*time.Hour))
	if len(cut) != 5 {
		t.Fatalf("filtered len = %d, want 5", len(cut))
	}
	for _, s := range cut {
		if s.Timestamp.Before(base.Add(5 * time.Hour)) {
			t.Errorf("sample before cutoff: %v", s.Timestamp)
		}
	}
}

func TestAssessRiskBands(t *testing.T) {
	cases := []struct {
		vol  float64
		want models.RiskLevel
	}{
		{0.05, models.RiskLow},
		{0.10, models.RiskMedium},
		{0.24, models.RiskMedium},
		{0.25, models.RiskHigh},
		{0.49, models.RiskHigh},
		{0.5, models.RiskExtreme},
		{1.5, models.RiskExtreme},
	}
	for _, tc := range cases {
		if got := models.AssessRisk(tc.vol); got != tc.want {
			t.Errorf("AssessRisk(%v) = %q, want %q", tc.vol, got, tc.want)
		}
	}
}
