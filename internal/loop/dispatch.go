package loop

import "context"

// Dispatch fires every command concurrently against perform and
// returns the full set of resulting events once all have resolved.
//
// This is a join-all barrier: no partial results are returned, one
// command's failure never cancels its siblings, and every command
// produces exactly one event (Perform encodes failure inside the
// event rather than by not returning). Events are collected in
// completion order, which is deliberately unspecified; the drain
// phase applies them one at a time and the domain must not depend on
// the order within one fired batch.
//
// The context is handed to every perform call unchanged. Dispatch
// itself never cancels a command: once fired, a command runs to
// completion and any timeout belongs inside its own implementation.
func Dispatch[Cmd, Evt any](ctx context.Context, cmds []Cmd, perform func(context.Context, Cmd) Evt) []Evt {
	switch len(cmds) {
	case 0:
		return nil
	case 1:
		// No goroutine for the common single-command case.
		return []Evt{perform(ctx, cmds[0])}
	}

	results := make(chan Evt, len(cmds))
	for _, cmd := range cmds {
		cmd := cmd
		go func() {
			results <- perform(ctx, cmd)
		}()
	}

	events := make([]Evt, 0, len(cmds))
	for range cmds {
		events = append(events, <-results)
	}
	return events
}
