package mailer

import (
	"fmt"
	"time"

	"github.com/roach88/drip/internal/loop"
)

// Init produces the starting model and the single initial command:
// load everything due as of asOf.
func (p *Program) Init(asOf time.Time) (Model, []Command) {
	state := State{
		Now:    asOf,
		ToMark: make(map[ItemID]struct{}),
	}
	return loop.Ok(state), []Command{FindDueItems{AsOf: asOf}}
}

// Update folds one event into the model.
//
// Pure and total: all I/O lives in Perform. Once the model has
// failed, Update is a pass-through — events from commands still in
// flight are drained and discarded, never re-dispatched.
func (p *Program) Update(evt Event, m Model) (Model, []Command) {
	var cmds []Command
	next := loop.Bind(m, func(s State) loop.Outcome[State] {
		s, emitted, err := transition(p.Campaign, evt, s)
		if err != nil {
			return loop.Fail[State](err)
		}
		cmds = emitted
		return loop.Ok(s)
	})
	return next, cmds
}

// Output projects the final model into the run report.
func (p *Program) Output(m Model) Report {
	s, ok := m.Value()
	if !ok {
		return Report{Err: m.Err()}
	}
	return Report{
		Recipients:  s.Recipients,
		EmailsSent:  s.EmailsSent,
		BatchesSent: s.BatchesSent,
	}
}

// transition is the workflow's decision table. It never blocks and
// never touches a collaborator; it only rewrites state and emits
// commands.
func transition(c Campaign, evt Event, s State) (State, []Command, error) {
	switch e := evt.(type) {
	case DueItemsLoaded:
		if e.Err != nil {
			return s, nil, fmt.Errorf("load due items: %w", e.Err)
		}
		s.Pending = PlanBatches(c, e.Items)
		for _, batch := range s.Pending {
			s.Recipients += len(batch)
		}
		return s, []Command{TriggerSendNow{}}, nil

	case TimeToSend:
		s.Now = e.Now
		if len(s.Pending) == 0 {
			return s, nil, nil
		}

		batch := s.Pending[0]
		s.Pending = s.Pending[1:]
		s.BatchesSent++

		s.ToMark = make(map[ItemID]struct{})
		cmds := make([]Command, 0, len(batch))
		for _, email := range batch {
			for _, id := range email.Covers {
				s.ToMark[id] = struct{}{}
			}
			cmds = append(cmds, SendEmail{Email: email})
		}
		return s, cmds, nil

	case EmailBatchSent:
		if e.Err != nil {
			return s, nil, fmt.Errorf("send email: %w", e.Err)
		}
		for _, id := range e.IDs {
			delete(s.ToMark, id)
		}
		s.EmailsSent++
		s.MarksInFlight++
		return s, []Command{MarkCompleted{IDs: e.IDs}}, nil

	case BatchMarked:
		if e.Err != nil {
			return s, nil, fmt.Errorf("mark completed: %w", e.Err)
		}
		if s.MarksInFlight > 0 {
			s.MarksInFlight--
		}
		// Only the batch's last acknowledgement schedules the next
		// tick; otherwise every mark of a multi-email batch would
		// queue its own send and break the rate limit.
		if s.MarksInFlight == 0 && len(s.ToMark) == 0 && len(s.Pending) > 0 {
			return s, []Command{ScheduleSend{At: s.Now.Add(c.interval())}}, nil
		}
		return s, nil, nil

	default:
		return s, nil, fmt.Errorf("unhandled event %T", evt)
	}
}
