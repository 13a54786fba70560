package oracle

import (
	"context"
	"log"
	"sync"
	"time"

	"ticketd/internal/domain"
	"ticketd/internal/observability"
)

// PrimarySource is the primary oracle feed: latest reading plus the unix
// timestamp of its last update. May fail or return a stale timestamp.
type PrimarySource interface {
	GetValue(ctx context.Context, pair string) (price int64, timestamp int64, err error)
}

// SpotSource is the exchange price router used as fallback. No
// timestamp; readings are assumed fresh at call time.
type SpotSource interface {
	GetSpotPrice(ctx context.Context, pair string) (int64, error)
}

// Result is one resolved reading. Transient, never persisted.
type Result struct {
	Price       int64 // 8-decimal fixed point
	Timestamp   int64 // unix seconds
	FromPrimary bool  // provenance: primary oracle vs. exchange fallback
}

// Request names the sources and freshness window for one resolution.
// Endpoints come from the pricing configuration, so they can change
// between calls.
type Request struct {
	Pair           string
	OracleEndpoint string
	DexEndpoint    string
	MaxAgeSeconds  int64
}

// Resolver fetches a market reference with staleness detection and
// exchange fallback. Source clients are constructed per endpoint and
// cached, so repeated resolutions against an unchanged configuration
// reuse connections.
type Resolver struct {
	mu      sync.Mutex
	primary map[string]PrimarySource // keyed by endpoint
	spot    map[string]SpotSource    // keyed by endpoint

	newPrimary func(endpoint string) PrimarySource
	newSpot    func(endpoint string) SpotSource
	now        func() time.Time
	logger     *log.Logger
}

// ResolverOption configures Resolver.
type ResolverOption func(*Resolver)

// WithPrimaryFactory overrides primary source construction (tests, or
// non-HTTP feeds such as a WebSocket cache).
func WithPrimaryFactory(f func(endpoint string) PrimarySource) ResolverOption {
	return func(r *Resolver) {
		r.newPrimary = f
	}
}

// WithSpotFactory overrides spot source construction.
func WithSpotFactory(f func(endpoint string) SpotSource) ResolverOption {
	return func(r *Resolver) {
		r.newSpot = f
	}
}

// WithClock sets a custom clock for staleness checks.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithLogger sets the logger for fallback diagnostics.
func WithLogger(l *log.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = l
	}
}

// NewResolver creates a Resolver with HTTP-backed sources.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		primary:    make(map[string]PrimarySource),
		spot:       make(map[string]SpotSource),
		newPrimary: func(endpoint string) PrimarySource { return NewHTTPClient(endpoint) },
		newSpot:    func(endpoint string) SpotSource { return NewDexClient(endpoint) },
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve tries the primary oracle first, falling back to the exchange
// router when the primary fails or its reading is older than
// MaxAgeSeconds. A timestamp in the future is tolerated, not stale.
// Returns nil when both sources are unavailable; that is absence, not an
// error, and callers apply the neutral multiplier.
func (r *Resolver) Resolve(ctx context.Context, req Request) *Result {
	price, timestamp, err := r.primarySource(req.OracleEndpoint).GetValue(ctx, req.Pair)
	if err == nil {
		now := r.now().Unix()
		if now <= timestamp || now-timestamp <= req.MaxAgeSeconds {
			observability.RecordOracleResolution("primary")
			return &Result{Price: price, Timestamp: timestamp, FromPrimary: true}
		}
		r.logf("oracle reading for %s stale (age %ds > %ds), trying exchange fallback",
			req.Pair, now-timestamp, req.MaxAgeSeconds)
	} else {
		r.logf("primary oracle for %s unavailable: %v", req.Pair, err)
	}

	spot, err := r.spotSource(req.DexEndpoint).GetSpotPrice(ctx, req.Pair)
	if err != nil {
		r.logf("exchange fallback for %s unavailable: %v", req.Pair, err)
		observability.RecordOracleResolution("none")
		return nil
	}
	observability.RecordOracleResolution("fallback")
	return &Result{Price: spot, Timestamp: r.now().Unix(), FromPrimary: false}
}

func (r *Resolver) primarySource(endpoint string) PrimarySource {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.primary[endpoint]
	if !ok {
		src = r.newPrimary(endpoint)
		r.primary[endpoint] = src
	}
	return src
}

func (r *Resolver) spotSource(endpoint string) SpotSource {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.spot[endpoint]
	if !ok {
		src = r.newSpot(endpoint)
		r.spot[endpoint] = src
	}
	return src
}

func (r *Resolver) logf(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}

// Multiplier converts a raw 8-decimal reading into a Precision-scaled
// multiplier against the configured reference: a reading of 1.10 over a
// 1.00 reference yields 11000. A zero reference means there is no basis
// for a ratio; the neutral multiplier is returned, not an error.
func Multiplier(rawPrice, referencePrice int64) int64 {
	if referencePrice == 0 {
		return domain.Precision
	}
	return domain.MulDiv(rawPrice, domain.Precision, referencePrice)
}
