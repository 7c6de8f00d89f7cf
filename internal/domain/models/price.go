package models

import "time"

// PriceSample is a single observation from the price feed. Immutable once
// created; evicted FIFO from the history buffer when capacity is exceeded.
type PriceSample struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// PriceUpdate is the raw feed payload before exponent decoding.
// price = RawPrice * 10^Expo, confidence = RawConf * 10^Expo.
type PriceUpdate struct {
	Symbol      string
	RawPrice    float64
	RawConf     float64
	Expo        int32
	PublishTime time.Time
}

// Decode applies the feed exponent convention and returns a PriceSample.
func (u *PriceUpdate) Decode() PriceSample {
	scale := pow10(u.Expo)
	return PriceSample{
		Symbol:     u.Symbol,
		Price:      u.RawPrice * scale,
		Confidence: u.RawConf * scale,
		Timestamp:  u.PublishTime,
	}
}

func pow10(e int32) float64 {
	scale := 1.0
	for i := int32(0); i < e; i++ {
		scale *= 10
	}
	for i := int32(0); i > e; i-- {
		scale /= 10
	}
	return scale
}
