package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/roach88/drip/internal/loop"
	"github.com/roach88/drip/internal/mailer"
	"github.com/roach88/drip/internal/testutil"
)

// start is the fixed virtual instant every scenario begins at.
// Transcript timestamps are offsets from it.
var start = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

// runToken is the fixed token used for every scenario run.
const runToken = "scenario-run"

// Result is the outcome of one scenario run.
type Result struct {
	Report mailer.Report

	// Transcript is the deterministic record of every collaborator
	// call plus the final report, one line each.
	Transcript string

	// Waits are the virtual sleeps the run requested, in order.
	Waits []time.Duration
}

// Run executes a scenario against the real workflow: the genuine
// update function and runtime drive fake collaborators, so a passing
// scenario certifies the production decision logic, not a
// reimplementation of it.
//
// Sends within one tick are dispatched concurrently, so the recorder
// orders same-instant entries by kind and text to keep the transcript
// stable across runs.
func Run(s *Scenario) (*Result, error) {
	interval, err := s.Campaign.interval()
	if err != nil {
		return nil, err
	}

	items := make([]mailer.DueItem, len(s.Items))
	for i, item := range s.Items {
		items[i] = mailer.DueItem{
			ID:        mailer.ItemID(i + 1),
			Recipient: item.Recipient,
			Content:   item.Content,
		}
	}

	timer := testutil.NewVirtualTimer(start)
	rec := &recorder{timer: timer}

	failSends := make(map[string]bool, len(s.Failures.SendTo))
	for _, to := range s.Failures.SendTo {
		failSends[to] = true
	}

	program := &mailer.Program{
		Campaign: mailer.Campaign{
			Name:      s.Name,
			From:      s.Campaign.From,
			Subject:   s.Campaign.Subject,
			SendLimit: s.Campaign.SendLimit,
			Interval:  interval,
		},
		Source:    &scriptedSource{rec: rec, items: items, fail: s.Failures.Load},
		Transport: &scriptedTransport{rec: rec, fail: failSends},
		Marker:    &scriptedMarker{rec: rec, fail: s.Failures.Mark},
		Timer:     timer,
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	report, err := program.Run(context.Background(), start,
		loop.WithRunToken(loop.NewFixedGenerator(runToken)),
		loop.WithLogger(program.Log),
	)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	return &Result{
		Report:     report,
		Transcript: rec.transcript(report),
		Waits:      timer.Waits(),
	}, nil
}

// Verify checks the result against the scenario's expect clause and
// returns one message per mismatch. An empty slice means the scenario
// passed.
func Verify(s *Scenario, r *Result) []string {
	var problems []string

	if r.Report.Recipients != s.Expect.Recipients {
		problems = append(problems, fmt.Sprintf(
			"recipients: want %d, got %d", s.Expect.Recipients, r.Report.Recipients))
	}
	if r.Report.EmailsSent != s.Expect.EmailsSent {
		problems = append(problems, fmt.Sprintf(
			"emails_sent: want %d, got %d", s.Expect.EmailsSent, r.Report.EmailsSent))
	}
	if r.Report.BatchesSent != s.Expect.BatchesSent {
		problems = append(problems, fmt.Sprintf(
			"batches_sent: want %d, got %d", s.Expect.BatchesSent, r.Report.BatchesSent))
	}
	if r.Report.Failed() != s.Expect.Failed {
		problems = append(problems, fmt.Sprintf(
			"failed: want %v, got %v (err: %v)", s.Expect.Failed, r.Report.Failed(), r.Report.Err))
	}
	if s.Expect.ErrContains != "" {
		if r.Report.Err == nil || !strings.Contains(r.Report.Err.Error(), s.Expect.ErrContains) {
			problems = append(problems, fmt.Sprintf(
				"err: want substring %q, got %v", s.Expect.ErrContains, r.Report.Err))
		}
	}

	return problems
}

// entry kinds, in the order they occur within one tick: items load
// before sends, sends before marks.
const (
	kindLoad = iota
	kindSend
	kindMark
)

type entry struct {
	at   time.Duration
	kind int
	text string
}

// recorder collects collaborator calls with their virtual timestamps.
type recorder struct {
	mu      sync.Mutex
	timer   *testutil.VirtualTimer
	entries []entry
}

func (r *recorder) add(kind int, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry{
		at:   r.timer.Now().Sub(start),
		kind: kind,
		text: fmt.Sprintf(format, args...),
	})
}

// transcript renders the entries sorted by (time, kind, text) and
// appends the final report line.
func (r *recorder) transcript(report mailer.Report) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := make([]entry, len(r.entries))
	copy(sorted, r.entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.at != b.at {
			return a.at < b.at
		}
		if a.kind != b.kind {
			return a.kind < b.kind
		}
		return a.text < b.text
	})

	var b strings.Builder
	for _, e := range sorted {
		fmt.Fprintf(&b, "t=%s %s\n", e.at, e.text)
	}
	if report.Failed() {
		fmt.Fprintf(&b, "report failed err=%q\n", report.Err)
	} else {
		fmt.Fprintf(&b, "report recipients=%d emails_sent=%d batches_sent=%d\n",
			report.Recipients, report.EmailsSent, report.BatchesSent)
	}
	return b.String()
}

type scriptedSource struct {
	rec   *recorder
	items []mailer.DueItem
	fail  string
}

func (s *scriptedSource) FindDue(ctx context.Context, asOf time.Time) ([]mailer.DueItem, error) {
	if s.fail != "" {
		s.rec.add(kindLoad, "load error=%q", s.fail)
		return nil, errors.New(s.fail)
	}
	s.rec.add(kindLoad, "load items=%d", len(s.items))
	return s.items, nil
}

type scriptedTransport struct {
	rec  *recorder
	fail map[string]bool
}

func (t *scriptedTransport) Send(ctx context.Context, email mailer.Email) ([]mailer.ItemID, error) {
	if t.fail[email.To] {
		t.rec.add(kindSend, "send to=%s error=%q", email.To, "injected send failure")
		return nil, errors.New("injected send failure")
	}
	t.rec.add(kindSend, "send to=%s covers=%v", email.To, email.Covers)
	return email.Covers, nil
}

type scriptedMarker struct {
	rec  *recorder
	fail string
}

func (m *scriptedMarker) MarkCompleted(ctx context.Context, ids []mailer.ItemID) error {
	if m.fail != "" {
		m.rec.add(kindMark, "mark ids=%v error=%q", ids, m.fail)
		return errors.New(m.fail)
	}
	m.rec.add(kindMark, "mark ids=%v", ids)
	return nil
}
