// Package coordinator wires the message pipeline, the phase state
// machine and round-history bookkeeping into one running PET
// coordinator service, wiring a consensus-style core together with
// networking and storage behind a single entry point.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/pet"
	"github.com/luxfi/pet/events"
	"github.com/luxfi/pet/metrics"
	"github.com/luxfi/pet/petcrypto"
	"github.com/luxfi/pet/phase"
	"github.com/luxfi/pet/pipeline"
	"github.com/luxfi/pet/requests"
	"github.com/luxfi/pet/store"
	"github.com/luxfi/pet/wire"
)

// DefaultMultipartExpiryInterval is how often Serve sweeps the
// multipart reassembler for grace-window expiries.
const DefaultMultipartExpiryInterval = 10 * time.Second

// Config bundles everything a Coordinator needs to run.
type Config struct {
	// InitialState seeds a brand-new deployment. It is ignored if
	// Storage already holds a persisted CoordinatorState, in which
	// case the coordinator resumes round numbering from that snapshot
	// instead of restarting at round zero.
	InitialState pet.CoordinatorState

	Storage store.CoordinatorStorage
	Models  store.ModelStorage

	Metrics *metrics.Metrics
	Log     log.Logger

	// Workers sizes the shared decrypt/parse worker pool; <= 0 uses
	// runtime.NumCPU (see pipeline.NewWorkerPool).
	Workers int
	// HistorySize bounds the round-history ledger; <= 0 uses
	// DefaultHistorySize.
	HistorySize int
	// MultipartGrace bounds how long an incomplete multipart message
	// is kept; <= 0 uses pipeline.DefaultGraceWindow.
	MultipartGrace time.Duration
}

// Coordinator wires the message pipeline, the phase state machine and
// the round-history ledger into one running coordinator.
type Coordinator struct {
	log         log.Logger
	bus         *events.Bus
	queue       *requests.Queue
	pool        *pipeline.WorkerPool
	reassembler *pipeline.MultipartReassembler
	dispatcher  *pipeline.Dispatcher
	controller  *phase.Controller
	storage     store.CoordinatorStorage
	history     *Ledger
}

// New constructs a Coordinator. It performs crash recovery itself:
// if cfg.Storage already holds a persisted CoordinatorState, that
// state (not cfg.InitialState) seeds the controller. Since Run always
// enters at PhaseIdle, and Idle's first act is to bump RoundID and
// start a fresh round, a coordinator restarted after a crash resumes
// at the round after the one it crashed in rather than replaying it.
func New(ctx context.Context, cfg Config) (*Coordinator, error) {
	if cfg.Storage == nil || cfg.Models == nil {
		return nil, errors.New("coordinator: Storage and Models are required")
	}

	initial := cfg.InitialState
	recovered, ok, err := cfg.Storage.CoordinatorState(ctx)
	if err != nil {
		return nil, fmt.Errorf("coordinator: read persisted state: %w", err)
	}
	if ok {
		initial = recovered
	}

	if initial.MasterSecretKey == ([32]byte{}) {
		secret, err := petcrypto.GenerateMasterSecret()
		if err != nil {
			return nil, err
		}
		initial.MasterSecretKey = secret
	}

	bus := events.NewBus()
	queue := requests.NewQueue()

	controller, err := phase.New(phase.Config{
		InitialState: initial,
		Storage:      cfg.Storage,
		Models:       cfg.Models,
		Bus:          bus,
		Queue:        queue,
		Metrics:      cfg.Metrics,
		Log:          cfg.Log,
	})
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		log:         cfg.Log,
		bus:         bus,
		queue:       queue,
		pool:        pipeline.NewWorkerPool(cfg.Workers),
		reassembler: pipeline.NewMultipartReassembler(cfg.MultipartGrace),
		dispatcher:  pipeline.NewDispatcher(queue),
		controller:  controller,
		storage:     cfg.Storage,
		history:     NewLedger(cfg.HistorySize),
	}, nil
}

// HandleMessage runs one sealed wire envelope through decryption,
// parsing, multipart reassembly, eligibility validation and dispatch
// to the phase controller, returning the outcome the controller
// assigned it. A multipart chunk that does not yet complete its set
// returns nil without reaching the controller at all.
func (c *Coordinator) HandleMessage(ctx context.Context, sealed []byte) error {
	plaintext, err := pipeline.Decrypt(ctx, c.pool, c.controller, sealed)
	if err != nil {
		return err
	}

	coordinatorPK := c.controller.State().Params.CoordinatorPK
	msg, err := pipeline.Parse(ctx, c.pool, coordinatorPK, plaintext)
	if err != nil {
		return err
	}

	if msg.Tag == wire.TagChunk {
		chunk, ok := msg.Payload.(wire.ChunkPayload)
		if !ok {
			return pet.ErrParse
		}
		assembled, ready := c.reassembler.Add(msg.ParticipantPK, chunk, time.Now())
		if !ready {
			return nil
		}
		msg, err = pipeline.Parse(ctx, c.pool, coordinatorPK, assembled)
		if err != nil {
			return err
		}
	}

	state := c.controller.State()
	if err := pipeline.ValidateTask(c.controller.Phase(), msg, state.Params.Seed, state.Params); err != nil {
		return err
	}

	return c.dispatcher.Dispatch(ctx, msg)
}

// Serve runs the coordinator until ctx is cancelled or the controller
// reaches Shutdown: it starts the worker pool, drives the phase state
// machine, records finished rounds to the history ledger,
// periodically expires stale multipart reassembly state, and drops
// all of it when a new round's parameters are published.
func (c *Coordinator) Serve(ctx context.Context) error {
	c.pool.Start(ctx)
	defer c.pool.Stop()

	done := make(chan error, 1)
	go func() { done <- c.controller.Run(ctx) }()

	go c.recordHistory(ctx)
	go c.expireMultipart(ctx)

	return <-done
}

func (c *Coordinator) recordHistory(ctx context.Context) {
	for {
		select {
		case evt := <-c.bus.Result.Next():
			c.history.Record(HistoryEntry{
				RoundID:   pet.RoundID(evt.RoundID),
				ModelID:   evt.Value.ModelID,
				MaskVotes: evt.Value.MaskVotes,
			})
		case <-ctx.Done():
			return
		}
	}
}

func (c *Coordinator) expireMultipart(ctx context.Context) {
	ticker := time.NewTicker(DefaultMultipartExpiryInterval)
	defer ticker.Stop()
	newRound := c.bus.Params.Next()
	for {
		select {
		case now := <-ticker.C:
			c.reassembler.Expire(now)
		case <-newRound:
			c.reassembler.Reset()
			newRound = c.bus.Params.Next()
		case <-ctx.Done():
			return
		}
	}
}

// History returns the most recently finished rounds, oldest first.
func (c *Coordinator) History() []HistoryEntry {
	return c.history.Recent()
}

// Bus exposes the event bus for fetcher-facing services (an API
// layer outside this module's scope) to subscribe to.
func (c *Coordinator) Bus() *events.Bus {
	return c.bus
}
