package usecase

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/vijaygopalbalasa/ZKRisk/internal/domain/models"
	drepo "github.com/vijaygopalbalasa/ZKRisk/internal/domain/repository"
	domsvc "github.com/vijaygopalbalasa/ZKRisk/internal/domain/service"
	"github.com/vijaygopalbalasa/ZKRisk/internal/services/features"
	"github.com/vijaygopalbalasa/ZKRisk/pkg/config"
	"github.com/vijaygopalbalasa/ZKRisk/pkg/logger"
)

// Model output clamps. Tighter than the historical clamps because the
// network was trained on hourly data.
const (
	minModelVolatility = 0.005
	maxModelVolatility = 1.0
)

// historicalWindow bounds the sample window for the current-volatility path.
const historicalWindow = 24 * time.Hour

// Confidence tiers by history depth.
func Confidence(dataPoints int) string {
	switch {
	case dataPoints > 100:
		return models.ConfidenceHigh
	case dataPoints > 20:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// InferenceAdapter wraps an optional remote model backend and always returns
// a usable estimate. Every degraded path is tagged in the metadata so
// consumers can discount it.
type InferenceAdapter struct {
	backend domsvc.InferenceBackend
	builder *features.Builder
	hist    drepo.History
	log     *logger.Logger
}

// NewInferenceAdapter creates an adapter. backend may be nil when no model
// service is configured.
func NewInferenceAdapter(backend domsvc.InferenceBackend, builder *features.Builder, hist drepo.History, log *logger.Logger) *InferenceAdapter {
	return &InferenceAdapter{backend: backend, builder: builder, hist: hist, log: log}
}

// Estimate produces a clamped volatility estimate for the symbol.
func (a *InferenceAdapter) Estimate(ctx context.Context, symbol string) (float64, models.PredictionMeta) {
	seq := a.builder.Build(symbol)
	dataPoints := a.hist.Len(symbol)

	meta := models.PredictionMeta{
		Confidence: Confidence(dataPoints),
		DataPoints: dataPoints,
		Synthetic:  seq.Synthetic,
	}

	if a.backend == nil {
		meta.Method = models.MethodHistorical
		return a.degraded(seq), meta
	}
	if !seq.ValidShape(a.builder.SequenceLength(), a.builder.FeatureCount()) {
		a.log.Error("malformed feature sequence", logger.String("symbol", symbol))
		meta.Method = models.MethodErrorFallback
		return a.degraded(seq), meta
	}

	vol, err := a.backend.Predict(ctx, seq)
	if err != nil {
		a.log.Warn("model backend failed", logger.String("symbol", symbol), logger.Error(err))
		meta.Method = models.MethodErrorFallback
		return a.degraded(seq), meta
	}

	if seq.Synthetic {
		meta.Method = models.MethodFallback
	} else {
		meta.Method = models.MethodLSTM
	}
	return features.Clamp(vol, minModelVolatility, maxModelVolatility), meta
}

// EstimateSequence runs an explicit volatility series through the backend,
// falling back to the series mean when no backend is available or it fails.
func (a *InferenceAdapter) EstimateSequence(ctx context.Context, vols []float64) (float64, string) {
	seq := a.builder.FromVolatilitySequence(vols)
	if a.backend != nil {
		if vol, err := a.backend.Predict(ctx, seq); err == nil {
			return features.Clamp(vol, minModelVolatility, maxModelVolatility), models.MethodLSTM
		}
	}
	mean := features.FallbackVolatility
	if len(vols) > 0 {
		mean = stat.Mean(vols, nil)
	}
	return features.Clamp(mean, minModelVolatility, maxModelVolatility), models.MethodFallback
}

// degraded estimates without the model. A synthetic sequence carries no real
// information, so the fixed fallback is returned; a real sequence yields the
// mean of its broadcast volatility column.
func (a *InferenceAdapter) degraded(seq models.FeatureSequence) float64 {
	if seq.Synthetic {
		return features.FallbackVolatility
	}
	vol := stat.Mean(seq.Column(models.FeatVolatility), nil)
	if vol <= 0 || math.IsNaN(vol) {
		return features.FallbackVolatility
	}
	return features.Clamp(vol, minModelVolatility, maxModelVolatility)
}

// LambdaCalculator maps volatility to the risk lambda coefficient.
type LambdaCalculator struct {
	strategy  string
	minLambda float64
	maxLambda float64
	baseRate  float64
}

// Enhanced-strategy bounds.
const (
	enhancedMinLambda = 1.01
	enhancedMaxLambda = 3.0
)

// DefaultLambda is the neutral coefficient used when no volatility figure is
// computable at all.
const DefaultLambda = 1.0

// NewLambdaCalculator creates a calculator from the risk config.
func NewLambdaCalculator(cfg *config.Config) *LambdaCalculator {
	return &LambdaCalculator{
		strategy:  cfg.Risk.Strategy,
		minLambda: cfg.Risk.MinLambda,
		maxLambda: cfg.Risk.MaxLambda,
		baseRate:  cfg.Risk.BaseRate,
	}
}

// Lambda computes the coefficient for a volatility using the configured
// strategy. Higher volatility always yields a lower or equal linear lambda
// and a higher or equal enhanced lambda.
func (c *LambdaCalculator) Lambda(volatility float64) float64 {
	if math.IsNaN(volatility) || math.IsInf(volatility, 0) {
		return DefaultLambda
	}
	if c.strategy == "enhanced" {
		return c.enhanced(volatility)
	}
	return c.linear(volatility)
}

// linear interpolates from maxLambda at zero volatility down to minLambda at
// a normalized volatility of 0.5 and above.
func (c *LambdaCalculator) linear(volatility float64) float64 {
	norm := math.Min(volatility/0.5, 1.0)
	lambda := c.maxLambda - norm*(c.maxLambda-c.minLambda)
	return features.Clamp(lambda, c.minLambda, c.maxLambda)
}

// enhanced grows with volatility: a funding base rate plus a linear
// volatility premium plus a stress adjustment that saturates at 2x.
func (c *LambdaCalculator) enhanced(volatility float64) float64 {
	stress := math.Min(volatility/0.3, 2.0) - 1.0
	lambda := 1.0 + c.baseRate + 2.0*volatility + 0.5*stress
	return features.Clamp(lambda, enhancedMinLambda, enhancedMaxLambda)
}

// Predictor composes history, inference, and lambda calculation into the
// pipeline's read-side operations.
type Predictor struct {
	hist    drepo.History
	est     *features.Estimator
	infer   *InferenceAdapter
	lambdas *LambdaCalculator
	metrics drepo.Metrics
	log     *logger.Logger
}

// NewPredictor creates a Predictor.
func NewPredictor(hist drepo.History, est *features.Estimator, infer *InferenceAdapter, lambdas *LambdaCalculator, metrics drepo.Metrics, log *logger.Logger) *Predictor {
	return &Predictor{hist: hist, est: est, infer: infer, lambdas: lambdas, metrics: metrics, log: log}
}

// Summary runs the full pipeline for a symbol: model estimate, historical
// estimate, lambda, and risk banding.
func (p *Predictor) Summary(ctx context.Context, symbol string) *models.PredictionSummary {
	start := time.Now()
	defer func() {
		p.metrics.RecordLatency("summary", time.Since(start).Seconds())
	}()

	modelVol, meta := p.infer.Estimate(ctx, symbol)
	histVol := p.est.HistoricalVolatility(symbol, historicalWindow)
	lambda := p.lambdas.Lambda(modelVol)

	var currentPrice float64
	var lastUpdate time.Time
	if recent := p.hist.Recent(symbol, 1); len(recent) == 1 {
		currentPrice = recent[0].Price
		lastUpdate = recent[0].Timestamp
	}

	p.metrics.RecordVolatility(symbol, meta.Method, modelVol)
	p.metrics.RecordLambda(symbol, lambda)
	p.log.Debug("summary computed",
		logger.String("symbol", symbol),
		logger.Float64("volatility", modelVol),
		logger.Float64("lambda", lambda),
		logger.String("method", meta.Method))

	return &models.PredictionSummary{
		Symbol:               symbol,
		CurrentPrice:         currentPrice,
		ModelVolatility:      modelVol,
		HistoricalVolatility: histVol,
		Lambda:               lambda,
		Lambda1000:           models.Lambda1000(lambda),
		Confidence:           meta.Confidence,
		Method:               meta.Method,
		DataPoints:           meta.DataPoints,
		RiskAssessment:       models.AssessRisk(modelVol),
		LastUpdate:           lastUpdate,
		Meta:                 meta,
	}
}

// CurrentVolatility reports the historical volatility and its lambda without
// touching the model backend.
func (p *Predictor) CurrentVolatility(symbol string) *models.VolatilityReport {
	vol := p.est.HistoricalVolatility(symbol, historicalWindow)
	lambda := p.lambdas.Lambda(vol)

	p.metrics.RecordVolatility(symbol, models.MethodHistorical, vol)
	p.metrics.RecordLambda(symbol, lambda)

	return &models.VolatilityReport{
		Symbol:     symbol,
		Volatility: vol,
		Lambda:     lambda,
		Lambda1000: models.Lambda1000(lambda),
		Method:     models.MethodHistorical,
		DataPoints: p.hist.Len(symbol),
	}
}

// Infer runs an explicit volatility series through the model and maps the
// result to a lambda.
func (p *Predictor) Infer(ctx context.Context, symbol string, vols []float64) *models.VolatilityReport {
	vol, method := p.infer.EstimateSequence(ctx, vols)
	lambda := p.lambdas.Lambda(vol)

	p.metrics.RecordVolatility(symbol, method, vol)
	p.metrics.RecordLambda(symbol, lambda)

	return &models.VolatilityReport{
		Symbol:     symbol,
		Volatility: vol,
		Lambda:     lambda,
		Lambda1000: models.Lambda1000(lambda),
		Method:     method,
		DataPoints: len(vols),
	}
}

// HistoryDepth reports how many samples are buffered for a symbol.
func (p *Predictor) HistoryDepth(symbol string) int {
	return p.hist.Len(symbol)
}

// PriceHistory returns up to count recent samples, optionally filtered to
// those at or after from.
func (p *Predictor) PriceHistory(symbol string, count int, from time.Time) []models.PriceSample {
	samples := p.hist.Recent(symbol, count)
	if from.IsZero() {
		return samples
	}
	filtered := samples[:0]
	for _, s := range samples {
		if !s.Timestamp.Before(from) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
