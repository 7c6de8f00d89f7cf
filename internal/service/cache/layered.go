package cache

import (
	"context"
	"time"
)

// Layered reads through a fast L1 into a shared L2. Writes go to both; an L2
// write failure is returned but does not invalidate the L1 entry.
type Layered struct {
	l1 *Memory
	l2 BytesCache
}

// NewLayered creates a layered cache over l2.
func NewLayered(l1 *Memory, l2 BytesCache) *Layered {
	return &Layered{l1: l1, l2: l2}
}

func (c *Layered) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, err := c.l1.GetBytes(ctx, key); err == nil && ok {
		return b, true, nil
	}
	b, ok, err := c.l2.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	// warm L1 with a short TTL so L2 stays authoritative
	_ = c.l1.SetBytes(ctx, key, b, memoryL1TTL)
	return b, true, nil
}

func (c *Layered) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	l1TTL := ttl
	if l1TTL <= 0 || l1TTL > memoryL1TTL {
		l1TTL = memoryL1TTL
	}
	if err := c.l1.SetBytes(ctx, key, value, l1TTL); err != nil {
		return err
	}
	return c.l2.SetBytes(ctx, key, value, ttl)
}
