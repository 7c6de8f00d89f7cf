package pyth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vijaygopalbalasa/ZKRisk/internal/domain/models"
	drepo "github.com/vijaygopalbalasa/ZKRisk/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Stream implements a PriceStream backed by the Hermes WebSocket endpoint.
type Stream struct {
	websocketURL   string
	feeds          map[string]string // symbol -> feed id
	symbolByFeed   map[string]string // feed id -> symbol
	reconnectDelay time.Duration
	pingInterval   time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// NewStream creates a new Hermes PriceStream.
func NewStream(websocketURL string, feeds map[string]string, reconnectDelay, pingInterval time.Duration) drepo.PriceStream {
	byFeed := make(map[string]string, len(feeds))
	for symbol, id := range feeds {
		byFeed[id] = symbol
	}
	return &Stream{
		websocketURL:   websocketURL,
		feeds:          feeds,
		symbolByFeed:   byFeed,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("pyth connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	log.Printf("pyth: connected")
	return nil
}

// current returns the live connection, or nil when disconnected.
func (s *Stream) current() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	return s.conn
}

// Subscribe subscribes to all configured feed ids in one frame.
func (s *Stream) Subscribe(ctx context.Context) error {
	conn := s.current()
	if conn == nil {
		return fmt.Errorf("pyth not connected")
	}
	ids := make([]string, 0, len(s.feeds))
	for _, id := range s.feeds {
		ids = append(ids, id)
	}
	msg := map[string]interface{}{"type": "subscribe", "ids": ids}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	log.Printf("pyth: subscribed %d feeds", len(ids))
	return nil
}

type wsFeed struct {
	ID    string      `json:"id"`
	Price hermesPrice `json:"price"`
}

type wsMessage struct {
	Type      string `json:"type"`
	PriceFeed wsFeed `json:"price_feed"`
}

// Read streams decoded price updates and errors. Both channels are closed
// when the connection dies; the caller reconnects and calls Read again for
// fresh channels. The ping loop is scoped to this connection and stops when
// the read loop exits.
func (s *Stream) Read(ctx context.Context) (<-chan *models.PriceUpdate, <-chan error) {
	conn := s.current()
	updates := make(chan *models.PriceUpdate, 1024)
	errs := make(chan error, 1)
	readDone := make(chan struct{})

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-readDone:
				return
			case <-ticker.C:
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(readDone)
		defer close(updates)
		defer close(errs)
		if conn == nil {
			errs <- fmt.Errorf("pyth conn nil")
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			default:
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("pyth read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-update frames
					continue
				}
				if m.Type != "price_update" {
					continue
				}
				symbol, ok := s.symbolByFeed[m.PriceFeed.ID]
				if !ok {
					continue
				}
				update, err := decodeUpdate(symbol, m.PriceFeed.Price)
				if err != nil {
					continue
				}
				select {
				case updates <- update:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return updates, errs
}

// Reconnect closes and reconnects.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.reconnectDelay):
	}
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.connected = false
	s.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
