package mpf

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Engine is the single-threaded cooperative component described in §4.3
// (C3): it owns every Context's matrix and topology object list, applies
// batched task messages on its own goroutine, and steps the factory ring
// at a fixed tick between batches. Generalizes a map of two-leg bridges
// into the N-termination Factory ring.
type Engine struct {
	factory *Factory
	tick    time.Duration
	logger  zerolog.Logger
	batches chan Batch
	done    chan struct{}
}

// NewEngine creates a media engine that ticks the factory ring every
// `tick` and accepts batches on an internally buffered channel.
func NewEngine(tick time.Duration, logger zerolog.Logger) *Engine {
	return &Engine{
		factory: NewFactory(),
		tick:    tick,
		logger:  gwlogComponent(logger),
		batches: make(chan Batch, 256),
		done:    make(chan struct{}),
	}
}

func gwlogComponent(l zerolog.Logger) zerolog.Logger {
	return l.With().Str("component", "media-engine").Logger()
}

// NewContext allocates a context bound to this engine's factory ring and
// attaches owner as the Callback that receives its task responses.
func (e *Engine) NewContext(id string, capacity int, owner Callback) *Context {
	c := e.factory.NewContext(id, capacity, e.logger)
	c.SetOwner(owner)
	return c
}

// Send enqueues a batch for processing on the engine's own goroutine
// (§5: "Nothing in C7 blocks"). It never blocks the caller once the
// channel has room; callers are expected to flush modestly-sized batches
// per signaling message, matching §4.1's "aggregating media-engine
// task-message buffer".
func (e *Engine) Send(b Batch) {
	if b.Empty() {
		return
	}
	e.batches <- b
}

// Run drives the engine loop until ctx is canceled: it alternates between
// draining pending batches and ticking the factory, using an errgroup so
// the ticker and the batch drain share one supervised lifetime under a
// single context.
func (e *Engine) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(e.tick)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case b := <-e.batches:
				e.processBatch(b)
			case <-ticker.C:
				e.factory.Process()
			}
		}
	})
	err := g.Wait()
	close(e.done)
	return err
}

func (e *Engine) processBatch(b Batch) {
	for _, t := range b.Tasks {
		e.applyTask(t)
	}
}

func (e *Engine) applyTask(t Task) {
	resp := Response{Kind: t.Kind, CommandID: t.CommandID, Context: t.Context, Termination: t.Termination, Other: t.Other}

	if t.Context == nil {
		e.logger.Warn().Str("kind", t.Kind.String()).Err(errNilContext).Msg("dropping task with no context")
		return
	}

	switch t.Kind {
	case AddTermination:
		resp.Err = t.Context.AddTermination(t.Termination)
	case ModifyTermination:
		resp.Descriptor = t.Descriptor
	case SubtractTermination:
		resp.Err = t.Context.SubtractTermination(t.Termination)
	case AddAssociation:
		t.Context.AddAssociation(t.Termination, t.Other)
	case RemoveAssociation:
		t.Context.RemoveAssociation(t.Termination, t.Other)
	case ResetAssociations:
		t.Context.ResetAssociations()
	case ApplyTopology:
		t.Context.ApplyTopology()
	case DestroyTopology:
		t.Context.DestroyTopology()
	}

	e.deliver(t, resp)
}

func (e *Engine) deliver(t Task, resp Response) {
	owner := t.Context.Owner()
	if owner == nil {
		e.logger.Warn().Str("kind", t.Kind.String()).Msg("task response has no owner to deliver to")
		return
	}
	owner.OnEngineResponse(resp)
}

var errNilContext = errors.New("mpf: task carries a nil context")
