package history

import (
	"sync"
	"time"

	"github.com/vijaygopalbalasa/ZKRisk/internal/domain/models"
)

// DefaultCapacity bounds per-symbol history when no capacity is configured.
const DefaultCapacity = 1000

// ring holds per-symbol samples in a fixed circular buffer.
type ring struct {
	samples []models.PriceSample
	head    int // next write position
	count   int // valid entries, up to capacity
}

// Buffer is a bounded, per-symbol FIFO of price samples. The collector is the
// only writer; readers always receive chronological copies so a buffer
// mutating mid-computation cannot produce torn reads.
type Buffer struct {
	mu       sync.RWMutex
	capacity int
	bySymbol map[string]*ring
}

// New creates a Buffer keeping at most capacity samples per symbol.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		bySymbol: make(map[string]*ring),
	}
}

// Append stores a sample, evicting the oldest entry once full. O(1).
func (b *Buffer) Append(s models.PriceSample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.bySymbol[s.Symbol]
	if !ok {
		r = &ring{samples: make([]models.PriceSample, b.capacity)}
		b.bySymbol[s.Symbol] = r
	}
	r.samples[r.head] = s
	r.head = (r.head + 1) % b.capacity
	if r.count < b.capacity {
		r.count++
	}
}

// Recent returns a chronological copy of the last n samples, or fewer if
// unavailable.
func (b *Buffer) Recent(symbol string, n int) []models.PriceSample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	r, ok := b.bySymbol[symbol]
	if !ok || n <= 0 {
		return nil
	}
	if n > r.count {
		n = r.count
	}
	out := make([]models.PriceSample, n)
	start := r.head - n
	if start < 0 {
		start += b.capacity
	}
	for i := 0; i < n; i++ {
		out[i] = r.samples[(start+i)%b.capacity]
	}
	return out
}

// Window returns all samples with timestamp >= now - d in chronological
// order. Callers falling short of two results should fall back to Recent.
func (b *Buffer) Window(symbol string, d time.Duration) []models.PriceSample {
	cutoff := time.Now().Add(-d)

	all := b.Recent(symbol, b.capacity)
	// samples are chronological, so find the first one inside the window
	idx := len(all)
	for i, s := range all {
		if !s.Timestamp.Before(cutoff) {
			idx = i
			break
		}
	}
	return all[idx:]
}

// Len reports the number of stored samples for a symbol.
func (b *Buffer) Len(symbol string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if r, ok := b.bySymbol[symbol]; ok {
		return r.count
	}
	return 0
}
