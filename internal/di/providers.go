package di

import (
	"time"

	"github.com/vijaygopalbalasa/ZKRisk/internal/domain/repository"
	domsvc "github.com/vijaygopalbalasa/ZKRisk/internal/domain/service"
	"github.com/vijaygopalbalasa/ZKRisk/internal/handler/api"
	icache "github.com/vijaygopalbalasa/ZKRisk/internal/service/cache"
	"github.com/vijaygopalbalasa/ZKRisk/internal/service/history"
	"github.com/vijaygopalbalasa/ZKRisk/internal/service/pyth"
	"github.com/vijaygopalbalasa/ZKRisk/internal/services/analytics"
	"github.com/vijaygopalbalasa/ZKRisk/internal/services/features"
	"github.com/vijaygopalbalasa/ZKRisk/internal/usecase"
	"github.com/vijaygopalbalasa/ZKRisk/pkg/config"
	"github.com/vijaygopalbalasa/ZKRisk/pkg/logger"
	"github.com/vijaygopalbalasa/ZKRisk/pkg/metrics"
	"github.com/vijaygopalbalasa/ZKRisk/pkg/server"
)

// streamPingInterval keeps the Hermes socket alive through idle periods.
const streamPingInterval = 15 * time.Second

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideHistory creates the bounded price history buffer.
func ProvideHistory(cfg *config.Config) *history.Buffer {
	return history.New(cfg.History.MaxSamples)
}

// ProvideHistoryRepo exposes the buffer through the domain interface.
func ProvideHistoryRepo(hist *history.Buffer) repository.History {
	return hist
}

// ProvidePriceFeed creates the Hermes HTTP feed.
func ProvidePriceFeed(cfg *config.Config) repository.PriceFeed {
	return pyth.New(cfg.Pyth.Endpoint, cfg.Pyth.Feeds, cfg.Pyth.RequestTimeout)
}

// ProvidePriceStream creates the Hermes WebSocket stream, or nil when stream
// mode is disabled.
func ProvidePriceStream(cfg *config.Config) repository.PriceStream {
	if !cfg.Pyth.Stream || cfg.Pyth.WSEndpoint == "" {
		return nil
	}
	return pyth.NewStream(cfg.Pyth.WSEndpoint, cfg.Pyth.Feeds, cfg.Pyth.ErrorBackoff, streamPingInterval)
}

// ProvideBackend creates the model-service client, or nil when no service is
// configured so the pipeline runs on historical estimates only.
func ProvideBackend(cfg *config.Config) domsvc.InferenceBackend {
	if cfg.Model.ServiceURL == "" {
		return nil
	}
	return analytics.NewLSTMBackend(cfg.Model.ServiceURL, cfg.Model.Timeout)
}

// ProvideEstimator creates the historical volatility estimator.
func ProvideEstimator(hist repository.History) *features.Estimator {
	return features.NewEstimator(hist)
}

// ProvideBuilder creates the feature sequence builder.
func ProvideBuilder(cfg *config.Config, hist repository.History, est *features.Estimator) *features.Builder {
	return features.NewBuilder(hist, est, cfg.Model.SequenceLength, cfg.Model.FeatureCount)
}

// ProvideInferenceAdapter creates the adapter with degraded fallbacks.
func ProvideInferenceAdapter(backend domsvc.InferenceBackend, builder *features.Builder, hist repository.History, log *logger.Logger) *usecase.InferenceAdapter {
	return usecase.NewInferenceAdapter(backend, builder, hist, log)
}

// ProvideLambdaCalculator creates the lambda strategy from config.
func ProvideLambdaCalculator(cfg *config.Config) *usecase.LambdaCalculator {
	return usecase.NewLambdaCalculator(cfg)
}

// ProvidePredictor creates the read-side pipeline.
func ProvidePredictor(hist repository.History, est *features.Estimator, infer *usecase.InferenceAdapter, lambdas *usecase.LambdaCalculator, m repository.Metrics, log *logger.Logger) *usecase.Predictor {
	return usecase.NewPredictor(hist, est, infer, lambdas, m, log)
}

// ProvideCollector creates the price collection loop.
func ProvideCollector(cfg *config.Config, feed repository.PriceFeed, stream repository.PriceStream, hist repository.History, m repository.Metrics, log *logger.Logger) *usecase.PriceCollector {
	return usecase.NewPriceCollector(cfg, feed, stream, hist, m, log)
}

// ProvideCache creates the response cache from config.
func ProvideCache(cfg *config.Config) icache.BytesCache {
	return icache.New(cfg)
}

// ProvideHandler creates the HTTP API handler.
func ProvideHandler(cfg *config.Config, log *logger.Logger, pred *usecase.Predictor, collector *usecase.PriceCollector, c icache.BytesCache) *api.OracleHandler {
	return api.NewOracleHandler(cfg, log, pred, collector, c)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, log *logger.Logger, collector *usecase.PriceCollector, handler *api.OracleHandler) *server.App {
	return server.New(cfg, log, collector, handler)
}
