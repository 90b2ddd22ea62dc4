package mailer

import (
	"time"

	"github.com/roach88/drip/internal/loop"
)

// ItemID identifies a due notification in the store.
type ItemID int64

// DueItem is one pending notification: who to tell and what to say.
type DueItem struct {
	ID        ItemID
	Recipient string
	Content   string
}

// Email is one assembled message plus the set of due items it covers.
// Confirming delivery of the email confirms completion of every item
// in Covers.
type Email struct {
	From    string
	To      string
	Subject string
	Body    string
	Covers  []ItemID
}

// Campaign configures a run: sender identity, subject line, and the
// send-rate limit.
type Campaign struct {
	Name      string
	From      string
	Subject   string
	SendLimit int           // max emails per batch; DefaultSendLimit when zero
	Interval  time.Duration // delay between batches; DefaultInterval when zero
}

// Campaign defaults.
const (
	DefaultSendLimit = 25
	DefaultInterval  = time.Second
)

func (c Campaign) sendLimit() int {
	if c.SendLimit > 0 {
		return c.SendLimit
	}
	return DefaultSendLimit
}

func (c Campaign) interval() time.Duration {
	if c.Interval > 0 {
		return c.Interval
	}
	return DefaultInterval
}

// State is the workflow model threaded through the run, wrapped in a
// loop.Outcome so a single failure short-circuits all later
// transitions.
type State struct {
	// Now is the workflow's view of time, advanced only by
	// TimeToSend events.
	Now time.Time

	// Pending holds the batches not yet sent, head first.
	Pending [][]Email

	// ToMark is the set of item IDs from the in-flight batch whose
	// completion has not yet been requested.
	ToMark map[ItemID]struct{}

	// MarksInFlight counts MarkCompleted commands awaiting their
	// acknowledgement. The next batch is scheduled only when the
	// current one is fully sent AND fully marked.
	MarksInFlight int

	// Counters for the final report.
	Recipients  int
	EmailsSent  int
	BatchesSent int
}

// Model is the loop-facing model type.
type Model = loop.Outcome[State]

// Report is the projection of the final model returned to the caller.
type Report struct {
	Recipients  int   `json:"recipients"`
	EmailsSent  int   `json:"emails_sent"`
	BatchesSent int   `json:"batches_sent"`
	Err         error `json:"-"`
}

// Failed reports whether the run ended in a failed model.
func (r Report) Failed() bool {
	return r.Err != nil
}

// Event is the outcome of a previously issued command.
// The set is sealed: only the four variants below exist.
type Event interface{ isEvent() }

// DueItemsLoaded reports the result of FindDueItems.
type DueItemsLoaded struct {
	Items []DueItem
	Err   error
}

// TimeToSend reports that a batch may be sent now. Emitted by both
// TriggerSendNow (immediately) and ScheduleSend (after its delay).
type TimeToSend struct {
	Now time.Time
}

// EmailBatchSent reports the result of one SendEmail: the item IDs
// the transport confirmed, or the failure.
type EmailBatchSent struct {
	IDs []ItemID
	Err error
}

// BatchMarked reports the result of one MarkCompleted.
type BatchMarked struct {
	Err error
}

func (DueItemsLoaded) isEvent() {}
func (TimeToSend) isEvent()     {}
func (EmailBatchSent) isEvent() {}
func (BatchMarked) isEvent()    {}

// Command describes a side effect to perform. Commands are pure data;
// perform.go maps them onto the collaborators. The set is sealed.
type Command interface{ isCommand() }

// FindDueItems loads the notifications due as of AsOf.
type FindDueItems struct {
	AsOf time.Time
}

// TriggerSendNow resolves immediately to a TimeToSend tick.
type TriggerSendNow struct{}

// ScheduleSend suspends until At, then resolves to a TimeToSend tick.
// This is the workflow's only rate-limiting mechanism: one batch per
// tick, one tick per interval.
type ScheduleSend struct {
	At time.Time
}

// SendEmail delivers one email.
type SendEmail struct {
	Email Email
}

// MarkCompleted records the given items as done in the store.
type MarkCompleted struct {
	IDs []ItemID
}

func (FindDueItems) isCommand()   {}
func (TriggerSendNow) isCommand() {}
func (ScheduleSend) isCommand()   {}
func (SendEmail) isCommand()      {}
func (MarkCompleted) isCommand()  {}
