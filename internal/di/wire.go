//go:build wireinject
// +build wireinject

package di

import (
	"github.com/vijaygopalbalasa/ZKRisk/pkg/config"
	"github.com/vijaygopalbalasa/ZKRisk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Storage and feeds
		ProvideHistory,
		ProvideHistoryRepo,
		ProvidePriceFeed,
		ProvidePriceStream,
		ProvideCache,

		// Estimation pipeline
		ProvideBackend,
		ProvideEstimator,
		ProvideBuilder,
		ProvideInferenceAdapter,
		ProvideLambdaCalculator,
		ProvidePredictor,

		// Collection and HTTP surface
		ProvideCollector,
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
