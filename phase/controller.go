// Package phase implements the round state machine: the sole owner of
// CoordinatorState and round storage, driving the ordered sequence
// Idle -> Sum -> Update -> Sum2 -> Unmask -> Idle, with Failure and
// Shutdown reachable from any phase. Only the active phase ever
// mutates round storage.
//
// Controller runs as a single task, a single-writer shape: one
// goroutine calls Run, and every mutation of CoordinatorState or round
// storage happens on that goroutine. Readers (the message pipeline,
// event bus subscribers) never block it.
package phase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/pet"
	"github.com/luxfi/pet/aggregation"
	"github.com/luxfi/pet/events"
	"github.com/luxfi/pet/metrics"
	"github.com/luxfi/pet/petcrypto"
	"github.com/luxfi/pet/requests"
	"github.com/luxfi/pet/store"
)

// DefaultReadyRetryDelay bounds the Failure phase's storage-readiness
// poll: how long it waits between IsReady checks while storage is down.
const DefaultReadyRetryDelay = time.Second

// Config bundles everything a Controller needs. Storage, Models, Bus
// and Queue are required. Log defaults to no logging; Metrics defaults
// to a private, unscraped registry.
type Config struct {
	InitialState pet.CoordinatorState

	Storage store.CoordinatorStorage
	Models  store.ModelStorage
	Bus     *events.Bus
	Queue   *requests.Queue

	Metrics *metrics.Metrics
	Log     log.Logger

	// ReadyRetryDelay overrides DefaultReadyRetryDelay.
	ReadyRetryDelay time.Duration
}

// Controller owns CoordinatorState and round storage between phases.
// A mutex guards state and encSK only so read-only
// accessors (CoordinatorKeyPair, Phase, State) are safe to call
// concurrently from the pipeline and health endpoints; the phase
// handlers themselves run serially on the Run goroutine.
type Controller struct {
	log     log.Logger
	bus     *events.Bus
	queue   *requests.Queue
	storage store.CoordinatorStorage
	models  store.ModelStorage
	metrics *metrics.Metrics

	readyRetryDelay time.Duration

	mu    sync.RWMutex
	state pet.CoordinatorState
	kind  pet.PhaseKind
	encSK petcrypto.EncryptionSecretKey

	// agg and the per-phase acceptance counters are touched only from
	// the Run goroutine; they need no lock.
	agg            *aggregation.Aggregation
	updateAccepted int
	sum2Accepted   int
}

// New constructs a Controller in PhaseIdle. cfg.InitialState must
// already be Valid (see CoordinatorState.Valid).
func New(cfg Config) (*Controller, error) {
	if err := cfg.InitialState.Valid(); err != nil {
		return nil, fmt.Errorf("phase: invalid initial state: %w", err)
	}
	if cfg.Storage == nil || cfg.Models == nil || cfg.Bus == nil || cfg.Queue == nil {
		return nil, errors.New("phase: Storage, Models, Bus and Queue are required")
	}

	cfgMetrics := cfg.Metrics
	if cfgMetrics == nil {
		cfgMetrics = metrics.NewMetrics(prometheus.NewRegistry())
	}

	delay := cfg.ReadyRetryDelay
	if delay <= 0 {
		delay = DefaultReadyRetryDelay
	}

	return &Controller{
		log:             cfg.Log,
		bus:             cfg.Bus,
		queue:           cfg.Queue,
		storage:         cfg.Storage,
		models:          cfg.Models,
		metrics:         cfgMetrics,
		readyRetryDelay: delay,
		state:           cfg.InitialState.Clone(),
		kind:            pet.PhaseIdle,
	}, nil
}

// CoordinatorKeyPair implements pipeline.KeySource: the decrypt stage
// reads the coordinator's current round encryption key pair through
// this method.
func (c *Controller) CoordinatorKeyPair() (pet.EncryptionPublicKey, petcrypto.EncryptionSecretKey) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Params.CoordinatorPK, c.encSK
}

// Phase returns the phase the controller is currently in.
func (c *Controller) Phase() pet.PhaseKind {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kind
}

// State returns a snapshot of the current coordinator state, safe for
// a concurrent reader (e.g. a health/debug endpoint) to retain.
func (c *Controller) State() pet.CoordinatorState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Clone()
}

func (c *Controller) roundID() pet.RoundID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.RoundID
}

func (c *Controller) setPhase(kind pet.PhaseKind) {
	c.mu.Lock()
	c.kind = kind
	roundID := c.state.RoundID
	c.mu.Unlock()

	c.bus.Phase.Publish(uint64(roundID), events.PhaseEvent{Phase: kind.String()})
	c.logInfo("phase transition", "phase", kind.String(), "round", uint64(roundID))
}

// logInfo and logWarn are nil-safe wrappers around c.log: Config.Log
// is optional, and every call site would otherwise need its own guard.
func (c *Controller) logInfo(msg string, kv ...any) {
	if c.log != nil {
		c.log.Info(msg, kv...)
	}
}

func (c *Controller) logWarn(msg string, kv ...any) {
	if c.log != nil {
		c.log.Warn(msg, kv...)
	}
}

// Run drives the state machine until ctx is cancelled or the
// controller reaches Shutdown. It returns ctx.Err() on cancellation
// and nil on a clean Shutdown.
func (c *Controller) Run(ctx context.Context) error {
	c.setPhase(pet.PhaseIdle)

	for {
		kind := c.Phase()
		if kind == pet.PhaseShutdown {
			c.logInfo("coordinator shut down")
			return nil
		}

		start := time.Now()
		next, err := c.dispatch(ctx, kind)
		c.metrics.ObservePhaseDuration(kind, time.Since(start).Seconds())

		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, pet.ErrRequestChannelClosed):
			c.logInfo("request channel closed, shutting down", "phase", kind.String())
			next = pet.PhaseShutdown
		case err != nil:
			c.logWarn("phase failed", "phase", kind.String(), "err", err)
			if kind != pet.PhaseFailure {
				c.metrics.RoundsFailed.Inc()
				next = pet.PhaseFailure
			}
		}

		c.setPhase(next)
	}
}

// dispatch runs the named phase's handler, which processes requests
// for as long as the phase is active and returns the phase to enter
// next.
func (c *Controller) dispatch(ctx context.Context, kind pet.PhaseKind) (pet.PhaseKind, error) {
	switch kind {
	case pet.PhaseIdle:
		return c.runIdle(ctx)
	case pet.PhaseSum:
		return c.runSum(ctx)
	case pet.PhaseUpdate:
		return c.runUpdate(ctx)
	case pet.PhaseSum2:
		return c.runSum2(ctx)
	case pet.PhaseUnmask:
		return c.runUnmask(ctx)
	case pet.PhaseFailure:
		return c.runFailure(ctx)
	default:
		return pet.PhaseFailure, fmt.Errorf("phase: no handler for phase %v", kind)
	}
}
