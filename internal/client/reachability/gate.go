package reachability

import (
	"sync"

	"github.com/rs/zerolog"
)

// DefaultFailureThreshold is the consecutive failure count that flips
// the gate offline when none is configured
const DefaultFailureThreshold = 3

// State describes the gate's current view of server reachability
type State string

const (
	// StateOptimistic is the starting state before any request has
	// resolved. The server is assumed reachable.
	StateOptimistic State = "optimistic"

	// StateOnline means the most recent request succeeded
	StateOnline State = "online"

	// StateOffline means consecutive failures crossed the threshold
	StateOffline State = "offline"
)

// Config holds configuration for the reachability gate
type Config struct {
	// FailureThreshold is the number of consecutive failures before
	// the gate reports offline; defaults to DefaultFailureThreshold
	FailureThreshold int

	Logger zerolog.Logger
}

// Gate tracks server reachability from observed request outcomes. A
// single success flips it online immediately; only a run of consecutive
// failures flips it offline.
type Gate struct {
	mu        sync.Mutex
	state     State
	threshold int
	failures  int
	onOnline  []func()
	log       zerolog.Logger
}

// New creates a gate in the optimistic state
func New(cfg *Config) *Gate {
	threshold := DefaultFailureThreshold
	var log zerolog.Logger
	if cfg != nil {
		if cfg.FailureThreshold > 0 {
			threshold = cfg.FailureThreshold
		}
		log = cfg.Logger
	}

	return &Gate{
		state:     StateOptimistic,
		threshold: threshold,
		log:       log,
	}
}

// OnOnline registers a callback fired on every transition into the
// online state. Callbacks run outside the gate's lock.
func (g *Gate) OnOnline(fn func()) {
	if fn == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onOnline = append(g.onOnline, fn)
}

// ReportSuccess records a successful request. The first success after
// any other state fires the online callbacks.
func (g *Gate) ReportSuccess() {
	g.mu.Lock()
	transitioned := g.state != StateOnline
	g.state = StateOnline
	g.failures = 0
	var callbacks []func()
	if transitioned {
		callbacks = append(callbacks, g.onOnline...)
	}
	g.mu.Unlock()

	if transitioned {
		g.log.Info().Msg("server reachable")
	}
	for _, fn := range callbacks {
		fn()
	}
}

// ReportFailure records a failed request. The gate flips offline only
// once consecutive failures reach the threshold.
func (g *Gate) ReportFailure() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.failures++
	if g.state != StateOffline && g.failures >= g.threshold {
		g.state = StateOffline
		g.log.Warn().
			Int("consecutiveFailures", g.failures).
			Msg("server unreachable")
	}
}

// State returns the current state
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// IsReachable reports whether requests should be attempted. The
// optimistic state counts as reachable.
func (g *Gate) IsReachable() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state != StateOffline
}
