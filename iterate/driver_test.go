package iterate_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowgate/reactorcore/iterate"
)

func TestDriverSynchronousLoop(t *testing.T) {
	calls := 0
	var drv *iterate.Driver
	succeeded := false
	drv = iterate.New(func() (iterate.Step, error) {
		calls++
		if calls >= 3 {
			return iterate.StepSucceeded, nil
		}
		// Synchronously resolve the "async" step right away: this must
		// loop without recursing (P6), not just return once.
		drv.Succeeded()
		return iterate.StepScheduled, nil
	}, func() { succeeded = true }, func(error) { t.Fatal("unexpected failure") })

	drv.Iterate()
	require.True(t, succeeded)
	require.Equal(t, 3, calls)
}

func TestDriverAsyncResume(t *testing.T) {
	var pending func()
	calls := 0
	var drv *iterate.Driver
	done := make(chan struct{})
	drv = iterate.New(func() (iterate.Step, error) {
		calls++
		if calls >= 2 {
			return iterate.StepSucceeded, nil
		}
		pending = drv.Succeeded
		return iterate.StepScheduled, nil
	}, func() { close(done) }, func(error) { t.Fatal("unexpected failure") })

	drv.Iterate()
	require.NotNil(t, pending)
	pending()
	<-done
	require.Equal(t, 2, calls)
}

func TestDriverIdleRequiresExplicitIterate(t *testing.T) {
	calls := 0
	drv := iterate.New(func() (iterate.Step, error) {
		calls++
		return iterate.StepIdle, nil
	}, nil, nil)

	drv.Iterate()
	require.Equal(t, 1, calls)
	drv.Iterate()
	require.Equal(t, 2, calls)
}

func TestDriverPanicBecomesFailure(t *testing.T) {
	var failCause error
	drv := iterate.New(func() (iterate.Step, error) {
		panic("boom")
	}, func() { t.Fatal("unexpected success") }, func(cause error) { failCause = cause })

	drv.Iterate()
	require.Error(t, failCause)
}

func TestDriverFailurePropagates(t *testing.T) {
	wantErr := errors.New("kaboom")
	var got error
	drv := iterate.New(func() (iterate.Step, error) {
		return iterate.StepScheduled, wantErr
	}, func() { t.Fatal("unexpected success") }, func(cause error) { got = cause })

	drv.Iterate()
	require.Equal(t, wantErr, got)
}

func TestDriverCloseCancelsPending(t *testing.T) {
	var closedWith error
	drv := iterate.New(func() (iterate.Step, error) {
		return iterate.StepScheduled, nil
	}, func() { t.Fatal("unexpected success") }, func(cause error) { closedWith = cause })

	drv.Iterate() // moves to PENDING, waiting on an async op that never completes
	drv.Close(errors.New("shutdown"))
	require.Error(t, closedWith)

	// A Driver closed twice, or succeeded after close, must not panic or
	// invoke callbacks again.
	drv.Close(errors.New("ignored"))
	drv.Succeeded()
}
