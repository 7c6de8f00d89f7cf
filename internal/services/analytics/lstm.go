package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/vijaygopalbalasa/ZKRisk/internal/domain/models"
	domsvc "github.com/vijaygopalbalasa/ZKRisk/internal/domain/service"
)

// LSTMBackend calls a remote model service that runs the exported LSTM
// network over a fixed-shape feature sequence.
type LSTMBackend struct {
	base *HTTPServiceBase
}

// NewLSTMBackend creates a backend against the model service URL.
func NewLSTMBackend(serviceURL string, timeout time.Duration) *LSTMBackend {
	return &LSTMBackend{base: NewHTTPServiceBase(serviceURL, timeout)}
}

type predictReq struct {
	Sequence [][]float32 `json:"sequence"`
}

type predictResp struct {
	Volatility float64 `json:"volatility"`
	Model      string  `json:"model"`
}

// Predict runs the sequence through the model service and returns the raw
// volatility estimate. The returned value is not clamped here.
func (b *LSTMBackend) Predict(ctx context.Context, seq models.FeatureSequence) (float64, error) {
	var pr predictResp
	if err := b.base.PostJSONWithRetry(ctx, "/predict", predictReq{Sequence: seq.Rows}, &pr, 2); err != nil {
		return 0, fmt.Errorf("lstm predict: %w", err)
	}
	if pr.Volatility <= 0 {
		return 0, fmt.Errorf("lstm predict: non-positive volatility %v", pr.Volatility)
	}
	return pr.Volatility, nil
}

var _ domsvc.InferenceBackend = (*LSTMBackend)(nil)
