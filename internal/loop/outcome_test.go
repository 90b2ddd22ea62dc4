package loop

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeOk(t *testing.T) {
	o := Ok(42)
	assert.False(t, o.Failed())
	assert.NoError(t, o.Err())

	v, ok := o.Value()
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 42, o.MustValue())
}

func TestOutcomeFail(t *testing.T) {
	boom := errors.New("boom")
	o := Fail[int](boom)
	assert.True(t, o.Failed())
	assert.ErrorIs(t, o.Err(), boom)

	_, ok := o.Value()
	assert.False(t, ok)
	assert.Panics(t, func() { o.MustValue() })
}

func TestOutcomeFailWithNilIsOk(t *testing.T) {
	o := Fail[int](nil)
	assert.False(t, o.Failed())
}

func TestBindAppliesOnOk(t *testing.T) {
	o := Bind(Ok(2), func(n int) Outcome[int] { return Ok(n * 3) })
	assert.Equal(t, 6, o.MustValue())
}

func TestBindShortCircuitsOnFail(t *testing.T) {
	boom := errors.New("boom")
	called := false
	o := Bind(Fail[int](boom), func(n int) Outcome[int] {
		called = true
		return Ok(n)
	})
	assert.True(t, o.Failed())
	assert.ErrorIs(t, o.Err(), boom)
	assert.False(t, called, "bind on a failed outcome must be a pass-through")
}

func TestBindPropagatesNewFailure(t *testing.T) {
	boom := errors.New("boom")
	o := Bind(Ok(1), func(n int) Outcome[int] { return Fail[int](boom) })
	assert.ErrorIs(t, o.Err(), boom)

	// And a later bind stays short-circuited.
	o = Bind(o, func(n int) Outcome[int] { return Ok(99) })
	assert.ErrorIs(t, o.Err(), boom)
}
