// Package coordinator decides which preference source is authoritative for
// a session and keeps the local substrates synchronized with it.
package coordinator

import (
	"context"
	"sync"

	"github.com/PavelPerna/prefsync/pkg/prefs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Strategy names the backing store that is authoritative for a Coordinator
// for its lifetime.
type Strategy int

const (
	// StrategyUnknown means Initialize has not completed.
	StrategyUnknown Strategy = iota

	// StrategyServer reads and writes through the identity service, with
	// the local store as a write-through cache.
	StrategyServer

	// StrategyLocal uses only the local store.
	StrategyLocal
)

func (s Strategy) String() string {
	switch s {
	case StrategyServer:
		return "server"
	case StrategyLocal:
		return "local"
	}
	return "unknown"
}

// Detector reports whether the current context is authenticated; see
// identity.Probe.
type Detector interface {
	Detect(ctx context.Context) bool
}

// Coordinator is the public preference API.  Construct one per process,
// call Initialize once, then Get/Set.  Expected degraded conditions
// (offline, session expiry, malformed server payloads) never surface as
// errors; every failure falls back to the next lower-trust source.
type Coordinator struct {
	probe    Detector
	remote   prefs.Source
	local    prefs.Source
	strategy Strategy
	setMu    sync.Mutex
	slog     zerolog.Logger
}

// New creates an uninitialized Coordinator.  remote may be nil, which
// forces the local strategy.
func New(probe Detector, remote, local prefs.Source) *Coordinator {
	return &Coordinator{
		probe:  probe,
		remote: remote,
		local:  local,
		slog:   log.With().Str("module", "coordinator").Logger(),
	}
}

// Initialize runs the session probe and fixes the strategy for this
// Coordinator's lifetime.  Callers must not invoke Get or Set before
// Initialize returns; auth state is not re-evaluated mid-session.
func (c *Coordinator) Initialize(ctx context.Context) Strategy {
	if c.remote != nil && c.probe != nil && c.probe.Detect(ctx) {
		c.strategy = StrategyServer
	} else {
		c.strategy = StrategyLocal
	}
	c.slog.Debug().Stringer("strategy", c.strategy).Msg("Preference strategy resolved")
	return c.strategy
}

// Strategy returns the resolved strategy, or StrategyUnknown before
// Initialize.
func (c *Coordinator) Strategy() Strategy {
	return c.strategy
}

// GetAll returns the full preference map, merged onto the defaults so every
// known key is present.  Under the server strategy a successful remote read
// is written through to the local cache; any remote failure silently falls
// back to the local record.
func (c *Coordinator) GetAll(ctx context.Context) prefs.Map {
	if c.strategy == StrategyServer {
		m, idx := prefs.Chain{c.remote, c.local}.Read(ctx)
		if idx == 0 {
			if _, err := c.local.Write(ctx, m); err != nil {
				c.slog.Warn().Err(err).Msg("Failed to cache remote preferences locally")
			}
		} else {
			c.slog.Debug().Int("source", idx).Msg("Remote read failed, served from fallback")
		}
		return m
	}

	m, _ := prefs.Chain{c.local}.Read(ctx)
	return m
}

// Get returns the value for key, or the default value when the key is
// unknown and unset.
func (c *Coordinator) Get(ctx context.Context, key string) any {
	return c.GetAll(ctx)[key]
}

// Set stores a single preference.  The local write happens first and
// unconditionally so the change is visible immediately; under the server
// strategy the remote write follows, and its failure is logged without
// rolling back local state.  A later read reconciles.  Set calls are
// serialized per Coordinator to avoid losing concurrent single-key updates.
func (c *Coordinator) Set(ctx context.Context, key string, value any) error {
	c.setMu.Lock()
	defer c.setMu.Unlock()

	m := c.GetAll(ctx).Clone()
	m[key] = value
	m = prefs.Sanitize(m)

	if _, err := c.local.Write(ctx, m); err != nil {
		return err
	}
	if c.strategy == StrategyServer {
		if _, err := c.remote.Write(ctx, m); err != nil {
			c.slog.Warn().Err(err).Str("key", key).
				Msg("Remote preference write failed, local state is provisional")
		}
	}
	return nil
}
