// Package loop implements a generic effect-orchestration runtime.
//
// A program is four functions over caller-defined types:
//
//	Init(arg)          -> (model, commands)
//	Update(event, m)   -> (model, commands)   pure, never blocks
//	Perform(ctx, cmd)  -> event               async, always resolves
//	Output(model)      -> out                 pure projection
//
// Run alternates between two phases until both queues are empty:
//
//   - Drain: events are applied one at a time, FIFO, synchronously.
//     This is the only place the model is mutated, so domain code
//     never needs synchronization.
//   - Fire: the entire command queue is dispatched concurrently and
//     joined. The resulting events (completion order) become the new
//     event queue.
//
// The runtime has no clock. A delayed effect is an ordinary command
// whose Perform sleeps before resolving, which is how rate-limited
// rescheduling ("send the next batch in a second") is expressed.
//
// CRITICAL: Run owns the model exclusively for the duration of a run.
// Perform implementations only return events; they must never touch
// the model.
package loop
