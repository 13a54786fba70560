package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSFeedConfig configures WSSpotFeed behavior.
type WSFeedConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSFeedConfig returns default feed configuration.
func DefaultWSFeedConfig() WSFeedConfig {
	return WSFeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// spotTick is one price update pushed by the exchange stream.
type spotTick struct {
	Pair  string `json:"pair"`
	Price int64  `json:"price"` // 8-decimal fixed point
}

// WSSpotFeed subscribes to an exchange's spot-price stream and caches
// the latest tick per pair. It implements SpotSource, so it can replace
// the HTTP router as the fallback source: GetSpotPrice serves from the
// cache and fails only for pairs that have never ticked.
type WSSpotFeed struct {
	endpoint string
	config   WSFeedConfig
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// latest maps pair to the most recent tick price
	latest   map[string]int64
	latestMu sync.RWMutex

	// pairs subscribed, kept for resubscription after reconnect
	pairs   map[string]bool
	pairsMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWSSpotFeed connects to the exchange stream and starts the read and
// ping loops. Pass nil config for defaults.
func NewWSSpotFeed(ctx context.Context, endpoint string, config *WSFeedConfig, logger *log.Logger) (*WSSpotFeed, error) {
	cfg := DefaultWSFeedConfig()
	if config != nil {
		cfg = *config
	}

	f := &WSSpotFeed{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		latest:   make(map[string]int64),
		pairs:    make(map[string]bool),
		done:     make(chan struct{}),
	}

	if err := f.connect(ctx); err != nil {
		return nil, err
	}

	f.wg.Add(1)
	go f.readLoop()

	f.wg.Add(1)
	go f.pingLoop()

	return f, nil
}

// connect establishes the WebSocket connection.
func (f *WSSpotFeed) connect(ctx context.Context) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	f.conn = conn
	return nil
}

// Subscribe requests tick delivery for a pair. Idempotent.
func (f *WSSpotFeed) Subscribe(pair string) error {
	if f.closed.Load() {
		return fmt.Errorf("feed closed")
	}

	f.pairsMu.Lock()
	f.pairs[pair] = true
	f.pairsMu.Unlock()

	return f.writeSubscribe(pair)
}

func (f *WSSpotFeed) writeSubscribe(pair string) error {
	req := map[string]string{"op": "subscribe", "pair": pair}

	f.connMu.Lock()
	defer f.connMu.Unlock()

	if f.conn == nil {
		return fmt.Errorf("not connected")
	}
	f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
	if err := f.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// GetSpotPrice serves the latest cached tick for pair. Returns an error
// for pairs that have never ticked, which the resolver treats as source
// unavailability.
func (f *WSSpotFeed) GetSpotPrice(_ context.Context, pair string) (int64, error) {
	f.latestMu.RLock()
	defer f.latestMu.RUnlock()

	price, ok := f.latest[pair]
	if !ok {
		return 0, fmt.Errorf("no tick received for %s", pair)
	}
	return price, nil
}

// readLoop consumes ticks and reconnects on failure.
func (f *WSSpotFeed) readLoop() {
	defer f.wg.Done()

	for {
		select {
		case <-f.done:
			return
		default:
		}

		f.connMu.Lock()
		conn := f.conn
		f.connMu.Unlock()

		if conn == nil {
			f.reconnect()
			continue
		}

		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if f.closed.Load() {
				return
			}
			f.logf("read error: %v, reconnecting", err)
			f.reconnect()
			continue
		}

		var tick spotTick
		if err := json.Unmarshal(data, &tick); err != nil {
			f.logf("malformed tick: %v", err)
			continue
		}
		if tick.Pair == "" {
			continue
		}

		f.latestMu.Lock()
		f.latest[tick.Pair] = tick.Price
		f.latestMu.Unlock()
	}
}

// reconnect re-dials with backoff and resubscribes active pairs.
func (f *WSSpotFeed) reconnect() {
	delay := f.config.ReconnectDelay

	for {
		select {
		case <-f.done:
			return
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := f.connect(ctx)
		cancel()
		if err == nil {
			f.pairsMu.Lock()
			pairs := make([]string, 0, len(f.pairs))
			for p := range f.pairs {
				pairs = append(pairs, p)
			}
			f.pairsMu.Unlock()

			for _, p := range pairs {
				if err := f.writeSubscribe(p); err != nil {
					f.logf("resubscribe %s: %v", p, err)
				}
			}
			return
		}

		f.logf("reconnect failed: %v", err)
		delay *= 2
		if delay > f.config.MaxReconnectDelay {
			delay = f.config.MaxReconnectDelay
		}
	}
}

// pingLoop keeps the connection alive.
func (f *WSSpotFeed) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.connMu.Lock()
			if f.conn != nil {
				f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
				if err := f.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.logf("ping failed: %v", err)
				}
			}
			f.connMu.Unlock()
		}
	}
}

// Close shuts the feed down.
func (f *WSSpotFeed) Close() error {
	if f.closed.Swap(true) {
		return nil // Already closed
	}

	close(f.done)

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		f.conn.Close()
	}
	f.connMu.Unlock()

	f.wg.Wait()
	return nil
}

func (f *WSSpotFeed) logf(format string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Printf(format, args...)
	}
}

// Compile-time interface check.
var _ SpotSource = (*WSSpotFeed)(nil)
