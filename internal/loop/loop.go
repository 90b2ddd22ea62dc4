package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrMaxSteps is returned by Run when a program exceeds the step
// quota configured with WithMaxSteps.
var ErrMaxSteps = errors.New("loop: max steps exceeded")

// Program is the four-function contract a caller supplies to Run.
//
// Update must be pure and total: no I/O, no blocking, no mutation of
// anything but the returned model. Perform is the only place I/O
// happens; it may suspend arbitrarily long (timed waits included) but
// must always resolve to some event. Silent failure to resolve is a
// contract violation.
type Program[Arg, Model, Cmd, Evt, Out any] interface {
	Init(arg Arg) (Model, []Cmd)
	Update(evt Evt, model Model) (Model, []Cmd)
	Perform(ctx context.Context, cmd Cmd) Evt
	Output(model Model) Out
}

// Option configures a Run.
type Option func(*runConfig)

type runConfig struct {
	maxSteps int
	tokenGen RunTokenGenerator
	logger   *slog.Logger
}

// WithMaxSteps caps the number of events a run may drain.
//
// The default is unlimited: interactive programs that keep scheduling
// commands are legal and run forever by design. The cap is an opt-in
// guard for programs that are supposed to quiesce, so a buggy Update
// that keeps emitting commands fails with ErrMaxSteps instead of
// spinning.
func WithMaxSteps(n int) Option {
	return func(c *runConfig) {
		c.maxSteps = n
	}
}

// WithRunToken overrides the run token generator.
// Tests use a FixedGenerator for deterministic log output.
func WithRunToken(gen RunTokenGenerator) Option {
	return func(c *runConfig) {
		c.tokenGen = gen
	}
}

// WithLogger overrides the logger (default: slog.Default).
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// Run drives program from Init to quiescence and returns the
// projected output.
//
// The algorithm, repeated until both queues are empty:
//
//  1. Event queue non-empty: pop the head event, fold it through
//     Update, append the returned commands to the tail of the command
//     queue. Strictly one event at a time, FIFO, synchronously.
//  2. Command queue non-empty: fire the ENTIRE queue concurrently,
//     join all, and make the results (completion order) the new event
//     queue.
//  3. Both empty: return Output(model).
//
// The loop is tail-iterative: run length is unbounded by design and
// stack depth stays constant per cycle.
//
// Cancellation is cooperative and coarse: ctx is checked between
// steps and aborts the run with ctx.Err(), but commands already
// dispatched are never abandoned mid-flight — the fire phase joins
// them all before the cancellation check can run.
func Run[Arg, Model, Cmd, Evt, Out any](
	ctx context.Context,
	program Program[Arg, Model, Cmd, Evt, Out],
	arg Arg,
	opts ...Option,
) (Out, error) {
	cfg := runConfig{
		tokenGen: UUIDv7Generator{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var zero Out
	token := cfg.tokenGen.Generate()
	log := cfg.logger.With("run", token)
	clock := NewClock()

	model, cmds := program.Init(arg)
	var events []Evt

	log.Debug("run starting", "initial_commands", len(cmds))

	for len(events) > 0 || len(cmds) > 0 {
		if err := ctx.Err(); err != nil {
			log.Info("run aborted", "step", clock.Current(), "error", err)
			return zero, err
		}

		if len(events) > 0 {
			step := clock.Next()
			if cfg.maxSteps > 0 && step > int64(cfg.maxSteps) {
				log.Error("step quota exceeded", "limit", cfg.maxSteps)
				return zero, fmt.Errorf("%w (limit %d)", ErrMaxSteps, cfg.maxSteps)
			}

			evt := events[0]
			// Nil out the slot so the drained event's pointers are
			// collectable while the rest of the batch waits.
			var zeroEvt Evt
			events[0] = zeroEvt
			events = events[1:]

			var emitted []Cmd
			model, emitted = program.Update(evt, model)
			cmds = append(cmds, emitted...)

			log.Debug("event drained",
				"step", step,
				"queued_events", len(events),
				"queued_commands", len(cmds),
			)
			continue
		}

		fired := cmds
		cmds = nil
		log.Debug("firing commands", "count", len(fired))
		events = Dispatch(ctx, fired, program.Perform)
	}

	log.Debug("run quiescent", "steps", clock.Current())
	return program.Output(model), nil
}
