// Package mailer is the rate-limited batch email workflow driven by
// the loop runtime.
//
// One run: load the due notifications, group them by recipient into
// one email each, chunk the emails into batches of at most the
// campaign's send limit, then send one batch per interval. Sending a
// batch fans out one SendEmail command per email; each confirmed send
// marks its source items completed; once every mark for the batch is
// acknowledged the next batch is scheduled via a delayed command.
//
// All decisions live in the pure transition table (update.go); all
// I/O lives behind the four collaborator interfaces (perform.go). Any
// collaborator failure fails the model, after which the remaining
// in-flight results are drained and ignored.
package mailer
