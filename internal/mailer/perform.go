package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/drip/internal/loop"
)

// Source loads the notifications due as of a date.
type Source interface {
	FindDue(ctx context.Context, asOf time.Time) ([]DueItem, error)
}

// Transport delivers one email and returns the item IDs it confirms
// as delivered. Retry and backoff policy belong to the transport, not
// to the workflow.
type Transport interface {
	Send(ctx context.Context, email Email) ([]ItemID, error)
}

// Marker records items as completed in the store.
type Marker interface {
	MarkCompleted(ctx context.Context, ids []ItemID) error
}

// Timer is the clock capability used for delayed re-triggering.
type Timer interface {
	Now() time.Time
	Sleep(ctx context.Context, until time.Time) error
}

// SystemTimer is the wall-clock Timer used in production.
type SystemTimer struct{}

func (SystemTimer) Now() time.Time {
	return time.Now()
}

// Sleep blocks until the wall clock reaches until, or ctx is done.
func (SystemTimer) Sleep(ctx context.Context, until time.Time) error {
	d := time.Until(until)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Program is the email workflow wired to its collaborators. It
// implements loop.Program[time.Time, Model, Command, Event, Report].
type Program struct {
	Campaign  Campaign
	Source    Source
	Transport Transport
	Marker    Marker
	Timer     Timer
	Log       *slog.Logger
}

func (p *Program) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}

// Perform executes one command against the collaborators and resolves
// to exactly one event. Failures are encoded inside the event, never
// by not returning: the loop's contract is that every fired command
// produces a drainable outcome.
func (p *Program) Perform(ctx context.Context, cmd Command) Event {
	switch c := cmd.(type) {
	case FindDueItems:
		items, err := p.Source.FindDue(ctx, c.AsOf)
		if err != nil {
			p.logger().Error("find due items failed", "as_of", c.AsOf, "error", err)
			return DueItemsLoaded{Err: err}
		}
		p.logger().Debug("due items loaded", "count", len(items))
		return DueItemsLoaded{Items: items}

	case TriggerSendNow:
		return TimeToSend{Now: p.Timer.Now()}

	case ScheduleSend:
		// A delayed tick is an ordinary suspending command; the loop
		// has no notion of wall-clock time. An interrupted sleep still
		// resolves — the loop's own cancellation check aborts the run
		// at the next step.
		if err := p.Timer.Sleep(ctx, c.At); err != nil {
			p.logger().Debug("scheduled send interrupted", "at", c.At, "error", err)
		}
		return TimeToSend{Now: c.At}

	case SendEmail:
		ids, err := p.Transport.Send(ctx, c.Email)
		if err != nil {
			p.logger().Error("send failed", "to", c.Email.To, "error", err)
			return EmailBatchSent{Err: fmt.Errorf("to %s: %w", c.Email.To, err)}
		}
		p.logger().Debug("email sent", "to", c.Email.To, "covers", len(ids))
		return EmailBatchSent{IDs: ids}

	case MarkCompleted:
		if err := p.Marker.MarkCompleted(ctx, c.IDs); err != nil {
			p.logger().Error("mark completed failed", "ids", c.IDs, "error", err)
			return BatchMarked{Err: err}
		}
		p.logger().Debug("items marked", "count", len(c.IDs))
		return BatchMarked{}

	default:
		return BatchMarked{Err: fmt.Errorf("unhandled command %T", cmd)}
	}
}

// Run executes one full workflow run as of asOf and returns the
// report. The report's Err carries a failed outcome; the returned
// error is reserved for runtime-level aborts (cancellation, step
// quota).
func (p *Program) Run(ctx context.Context, asOf time.Time, opts ...loop.Option) (Report, error) {
	return loop.Run[time.Time, Model, Command, Event, Report](ctx, p, asOf, opts...)
}
