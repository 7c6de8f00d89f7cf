package service

import (
	"context"

	"github.com/vijaygopalbalasa/ZKRisk/internal/domain/models"
)

// InferenceBackend runs the volatility model on a fixed-shape feature
// sequence and returns a single scalar prediction. Backends are not trusted
// to respect output bounds; callers clamp.
type InferenceBackend interface {
	Predict(ctx context.Context, seq models.FeatureSequence) (float64, error)
}
