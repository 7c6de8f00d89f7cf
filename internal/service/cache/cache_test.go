package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	if err := c.SetBytes(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	b, ok, err := c.GetBytes(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("GetBytes: ok=%v err=%v", ok, err)
	}
	if string(b) != "v" {
		t.Errorf("value = %q, want v", b)
	}

	if _, ok, _ := c.GetBytes(ctx, "missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	if err := c.SetBytes(ctx, "k", []byte("v"), 5*time.Millisecond); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, ok, _ := c.GetBytes(ctx, "k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestMemoryCopiesValue(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	v := []byte("abc")
	_ = c.SetBytes(ctx, "k", v, time.Minute)
	v[0] = 'z'

	b, _, _ := c.GetBytes(ctx, "k")
	if string(b) != "abc" {
		t.Errorf("cached value mutated: %q", b)
	}
}

type flakyL2 struct {
	m     map[string][]byte
	calls int
}

func (f *flakyL2) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	f.calls++
	b, ok := f.m[key]
	return b, ok, nil
}

func (f *flakyL2) SetBytes(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.m[key] = value
	return nil
}

func TestLayeredWarmsL1(t *testing.T) {
	ctx := context.Background()
	l2 := &flakyL2{m: map[string][]byte{"k": []byte("v")}}
	c := NewLayered(NewMemory(), l2)

	for i := 0; i < 3; i++ {
		b, ok, err := c.GetBytes(ctx, "k")
		if err != nil || !ok || string(b) != "v" {
			t.Fatalf("get %d: b=%q ok=%v err=%v", i, b, ok, err)
		}
	}
	// only the first read should reach L2
	if l2.calls != 1 {
		t.Errorf("L2 calls = %d, want 1", l2.calls)
	}
}

func TestLayeredWritesBoth(t *testing.T) {
	ctx := context.Background()
	l2 := &flakyL2{m: map[string][]byte{}}
	c := NewLayered(NewMemory(), l2)

	if err := c.SetBytes(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	if string(l2.m["k"]) != "v" {
		t.Errorf("L2 value = %q, want v", l2.m["k"])
	}
}
