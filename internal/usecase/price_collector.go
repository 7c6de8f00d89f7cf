package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	drepo "github.com/vijaygopalbalasa/ZKRisk/internal/domain/repository"
	"github.com/vijaygopalbalasa/ZKRisk/pkg/config"
	"github.com/vijaygopalbalasa/ZKRisk/pkg/logger"
)

// ErrAlreadyRunning is returned by Start when the collector is running.
var ErrAlreadyRunning = errors.New("collector already running")

// PriceCollector polls the price feed on a fixed interval and appends decoded
// samples to the history buffer. With stream mode enabled it consumes the
// WebSocket feed instead of polling.
//
// A failing symbol is logged and skipped; it never aborts the cycle for the
// other symbols. A panicking cycle is recovered and followed by an error
// backoff before the next attempt.
type PriceCollector struct {
	feed    drepo.PriceFeed
	stream  drepo.PriceStream
	hist    drepo.History
	metrics drepo.Metrics
	log     *logger.Logger

	symbols        []string
	useStream      bool
	pollInterval   time.Duration
	errorBackoff   time.Duration
	requestTimeout time.Duration
	stopTimeout    time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPriceCollector creates a collector. stream may be nil when stream mode
// is disabled.
func NewPriceCollector(cfg *config.Config, feed drepo.PriceFeed, stream drepo.PriceStream, hist drepo.History, metrics drepo.Metrics, log *logger.Logger) *PriceCollector {
	return &PriceCollector{
		feed:           feed,
		stream:         stream,
		hist:           hist,
		metrics:        metrics,
		log:            log,
		symbols:        cfg.Pyth.Symbols,
		useStream:      cfg.Pyth.Stream && stream != nil,
		pollInterval:   cfg.Pyth.PollInterval,
		errorBackoff:   cfg.Pyth.ErrorBackoff,
		requestTimeout: cfg.Pyth.RequestTimeout,
		stopTimeout:    cfg.Pyth.StopTimeout,
	}
}

// Start launches the collection loop. It is an error to Start a running
// collector; a stopped collector may be started again.
func (c *PriceCollector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)

	if c.useStream {
		if err := c.stream.Connect(runCtx); err != nil {
			cancel()
			return fmt.Errorf("start collector: %w", err)
		}
		if err := c.stream.Subscribe(runCtx); err != nil {
			cancel()
			_ = c.stream.Close()
			return fmt.Errorf("start collector: %w", err)
		}
	}

	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true

	if c.useStream {
		go c.consumeStream(runCtx)
	} else {
		go c.pollLoop(runCtx)
	}

	c.log.Info("collector started",
		logger.Strings("symbols", c.symbols),
		logger.Bool("stream", c.useStream),
		logger.Duration("poll_interval", c.pollInterval))
	return nil
}

// Stop requests shutdown and waits for the loop to exit. A loop that does
// not exit within the stop timeout is reported, not fatal.
func (c *PriceCollector) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	c.cancel()
	c.running = false

	select {
	case <-c.done:
		c.log.Info("collector stopped")
		return nil
	case <-time.After(c.stopTimeout):
		return fmt.Errorf("collector loop did not exit within %s", c.stopTimeout)
	}
}

// IsRunning reports whether the loop is active.
func (c *PriceCollector) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *PriceCollector) pollLoop(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	// first cycle immediately so the buffer is not empty for a full interval
	c.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runCycle(ctx)
		}
	}
}

// runCycle executes one collection cycle with panic isolation. A recovered
// panic is followed by the error backoff so a persistently broken cycle does
// not spin.
func (c *PriceCollector) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.metrics.RecordError("cycle_panic")
			c.log.Error("collection cycle panicked", logger.Any("panic", r))
			select {
			case <-ctx.Done():
			case <-time.After(c.errorBackoff):
			}
		}
	}()
	c.collectCycle(ctx)
}

func (c *PriceCollector) collectCycle(ctx context.Context) {
	for _, symbol := range c.symbols {
		if ctx.Err() != nil {
			return
		}
		if err := c.collectOne(ctx, symbol); err != nil {
			c.metrics.RecordError("feed")
			c.log.Warn("price fetch failed", logger.String("symbol", symbol), logger.Error(err))
		}
	}
}

func (c *PriceCollector) collectOne(ctx context.Context, symbol string) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	start := time.Now()
	update, err := c.feed.LatestPrice(reqCtx, symbol)
	c.metrics.RecordLatency("collect", time.Since(start).Seconds())
	if err != nil {
		return err
	}

	sample := update.Decode()
	c.hist.Append(sample)
	c.metrics.RecordSampleCollected(symbol)
	c.metrics.RecordLastPrice(symbol, sample.Price)
	c.log.Debug("sample collected",
		logger.String("symbol", symbol),
		logger.Float64("price", sample.Price),
		logger.Int("history_len", c.hist.Len(symbol)))
	return nil
}

func (c *PriceCollector) consumeStream(ctx context.Context) {
	defer close(c.done)
	defer c.stream.Close()

	updates, errs := c.stream.Read(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errs:
			if err == nil {
				continue
			}
			c.metrics.RecordError("stream")
			c.log.Warn("stream error, reconnecting", logger.Error(err))
			// the dead read goroutine closed both channels; nil them so the
			// select blocks instead of spinning on the closed channels until
			// a fresh Read replaces them
			updates, errs = nil, nil
			if !c.reconnectStream(ctx) {
				return
			}
			updates, errs = c.stream.Read(ctx)
		case u := <-updates:
			if u == nil {
				continue
			}
			sample := u.Decode()
			c.hist.Append(sample)
			c.metrics.RecordSampleCollected(sample.Symbol)
			c.metrics.RecordLastPrice(sample.Symbol, sample.Price)
		}
	}
}

// reconnectStream retries Reconnect on the error backoff until it succeeds.
// It reports false when ctx was cancelled before the stream came back.
func (c *PriceCollector) reconnectStream(ctx context.Context) bool {
	for {
		err := c.stream.Reconnect(ctx)
		if err == nil {
			return true
		}
		c.metrics.RecordError("stream_reconnect")
		c.log.Error("stream reconnect failed", logger.Error(err))
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.errorBackoff):
		}
	}
}
