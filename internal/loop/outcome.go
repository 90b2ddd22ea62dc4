package loop

// Outcome wraps a model in a success/failure result.
//
// Domain programs thread their state through Outcome so that a single
// failed transition short-circuits every later pure transition while
// effects already in flight still resolve and drain normally.
type Outcome[M any] struct {
	value M
	err   error
}

// Ok returns a successful outcome carrying m.
func Ok[M any](m M) Outcome[M] {
	return Outcome[M]{value: m}
}

// Fail returns a failed outcome carrying err.
// A nil err is treated as success to keep the invariant
// "failed iff Err() != nil".
func Fail[M any](err error) Outcome[M] {
	return Outcome[M]{err: err}
}

// Err returns the failure, or nil if the outcome is successful.
func (o Outcome[M]) Err() error {
	return o.err
}

// Failed reports whether the outcome carries an error.
func (o Outcome[M]) Failed() bool {
	return o.err != nil
}

// Value returns the wrapped model and whether it is valid.
// The model is the zero value when the outcome has failed.
func (o Outcome[M]) Value() (M, bool) {
	return o.value, o.err == nil
}

// MustValue returns the wrapped model, panicking on a failed outcome.
// Intended for tests and for Output projections that have already
// checked Failed().
func (o Outcome[M]) MustValue() M {
	if o.err != nil {
		panic("loop: MustValue on failed outcome: " + o.err.Error())
	}
	return o.value
}

// Bind applies fn to the wrapped model if the outcome is successful,
// and passes a failed outcome through untouched. This is the
// combinator that turns a domain Update into a no-op once the model
// has failed.
func Bind[M any](o Outcome[M], fn func(M) Outcome[M]) Outcome[M] {
	if o.err != nil {
		return o
	}
	return fn(o.value)
}
