package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vijaygopalbalasa/ZKRisk/internal/domain/models"
)

// ErrSymbolNotFound is returned by a feed when it has no price for a symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// PriceFeed returns the latest raw price update for a symbol. Implementations
// must honor ctx deadlines; a single stalled symbol must not block a cycle.
type PriceFeed interface {
	LatestPrice(ctx context.Context, symbol string) (*models.PriceUpdate, error)
}

// PriceStream is the streaming variant of PriceFeed.
type PriceStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PriceUpdate, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// History is the bounded per-symbol price buffer. The collector is the only
// writer; estimation calls read copied snapshots.
type History interface {
	Append(sample models.PriceSample)
	Recent(symbol string, n int) []models.PriceSample
	Window(symbol string, d time.Duration) []models.PriceSample
	Len(symbol string) int
}

type Metrics interface {
	RecordSampleCollected(symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordVolatility(symbol, method string, v float64)
	RecordLambda(symbol string, l float64)
	RecordLatency(op string, seconds float64)
}
