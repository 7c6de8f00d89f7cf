package models

import "time"

// Prediction method tags. Degraded tags flag estimates that downstream
// consumers should discount.
const (
	MethodLSTM          = "lstm_with_real_data"
	MethodHistorical    = "historical_calculation"
	MethodFallback      = "fallback"
	MethodErrorFallback = "error_fallback"
)

// Confidence tiers derived from history depth.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// RiskLevel buckets a volatility figure into fixed bands.
type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskExtreme RiskLevel = "EXTREME"
)

// AssessRisk maps volatility to a risk level.
func AssessRisk(volatility float64) RiskLevel {
	switch {
	case volatility < 0.10:
		return RiskLow
	case volatility < 0.25:
		return RiskMedium
	case volatility < 0.5:
		return RiskHigh
	default:
		return RiskExtreme
	}
}

// PredictionMeta describes how a volatility estimate was produced.
type PredictionMeta struct {
	Method     string `json:"method"`
	Confidence string `json:"confidence"`
	DataPoints int    `json:"data_points"`
	Synthetic  bool   `json:"synthetic,omitempty"`
}

// VolatilityReport pairs a volatility figure with its lambda.
type VolatilityReport struct {
	Symbol     string  `json:"symbol"`
	Volatility float64 `json:"volatility"`
	Lambda     float64 `json:"lambda"`
	Lambda1000 int64   `json:"lambda1000"`
	Method     string  `json:"method,omitempty"`
	DataPoints int     `json:"price_history_length"`
}

// PredictionSummary is the composed pipeline output for one symbol.
type PredictionSummary struct {
	Symbol               string         `json:"symbol"`
	CurrentPrice         float64        `json:"current_price"`
	ModelVolatility      float64        `json:"lstm_volatility"`
	HistoricalVolatility float64        `json:"historical_volatility"`
	Lambda               float64        `json:"lambda_coefficient"`
	Lambda1000           int64          `json:"lambda1000"`
	Confidence           string         `json:"confidence"`
	Method               string         `json:"prediction_method"`
	DataPoints           int            `json:"data_points"`
	RiskAssessment       RiskLevel      `json:"risk_assessment"`
	LastUpdate           time.Time      `json:"last_update"`
	Meta                 PredictionMeta `json:"metadata"`
}

// Lambda1000 scales a lambda for integer-only consumers.
func Lambda1000(lambda float64) int64 { return int64(lambda * 1000) }
