package models

// Requests for oracle HTTP endpoints. Defined in domain for consistency and reuse.

type InferRequest struct {
	Symbol string `query:"symbol" json:"symbol" default:"ETH/USD"`
	// Volatility accepts an explicit input sequence (POST body); when empty
	// the pipeline builds features from collected price history.
	Volatility []float64 `json:"volatility"`
	// VolatilityCSV mirrors Volatility for GET requests ("0.1,0.15,0.2").
	VolatilityCSV string `query:"volatility" json:"-"`
}

type VolatilityRequest struct {
	Symbol string `query:"symbol" json:"symbol" default:"ETH/USD"`
}

type PriceFeedRequest struct {
	Symbol string `query:"symbol" json:"symbol" default:"ETH/USD"`
	Count  int    `query:"count" json:"count" default:"24" validate:"gte=1,lte=1000"`
}

type SummaryRequest struct {
	Symbol string `query:"symbol" json:"symbol" default:"ETH/USD"`
}
