package endpoint_test

import (
	"bytes"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowgate/reactorcore/api"
	"github.com/flowgate/reactorcore/endpoint"
)

// fakeChannel is a deterministic, in-memory api.Channel double: reads
// drain a preloaded buffer, writes accumulate into one, and both can be
// told to report "nothing available" without an error, matching the
// non-blocking Channel contract endpoint.Endpoint relies on.
type fakeChannel struct {
	mu      sync.Mutex
	toRead  []byte
	written bytes.Buffer
	open    bool
	closeFn func()
	// stallWrites makes Write accept nothing, like a full send buffer.
	stallWrites bool
}

func newFakeChannel() *fakeChannel { return &fakeChannel{open: true} }

func (f *fakeChannel) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.toRead) == 0 {
		return 0, nil
	}
	n := copy(p, f.toRead)
	f.toRead = f.toRead[n:]
	return n, nil
}

func (f *fakeChannel) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stallWrites {
		return 0, nil
	}
	return f.written.Write(p)
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	f.open = false
	f.mu.Unlock()
	if f.closeFn != nil {
		f.closeFn()
	}
	return nil
}

func (f *fakeChannel) IsOpen() bool          { f.mu.Lock(); defer f.mu.Unlock(); return f.open }
func (f *fakeChannel) LocalAddr() net.Addr   { return nil }
func (f *fakeChannel) RemoteAddr() net.Addr  { return nil }
func (f *fakeChannel) FD() uintptr           { return 0 }

func (f *fakeChannel) feed(data []byte) {
	f.mu.Lock()
	f.toRead = append(f.toRead, data...)
	f.mu.Unlock()
}

func (f *fakeChannel) writtenBytes() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.written.Bytes()...)
}

func TestFillInterestedRejectsOverlap(t *testing.T) {
	ch := newFakeChannel()
	ep := endpoint.New("e1", ch, 0)

	require.NoError(t, ep.FillInterested(api.NopCallback))

	var secondErr error
	err := ep.FillInterested(api.CallbackFunc{OnFailed: func(cause error) { secondErr = cause }})
	require.ErrorIs(t, err, api.ErrUsage)
	require.ErrorIs(t, secondErr, api.ErrUsage)
}

func TestWriteRejectsOverlap(t *testing.T) {
	ch := newFakeChannel()
	ch.stallWrites = true // keep the first write pending
	ep := endpoint.New("e1", ch, 0)

	require.NoError(t, ep.Write(api.NopCallback, []byte("a")))

	var secondErr error
	err := ep.Write(api.CallbackFunc{OnFailed: func(cause error) { secondErr = cause }}, []byte("b"))
	require.ErrorIs(t, err, api.ErrUsage)
	require.ErrorIs(t, secondErr, api.ErrUsage)
}

func TestFillDeliversBytesAndClearsInterest(t *testing.T) {
	ch := newFakeChannel()
	ep := endpoint.New("e1", ch, 0)
	ch.feed([]byte("hello"))

	done := make(chan struct{})
	require.NoError(t, ep.FillInterested(api.CallbackFunc{OnSucceeded: func() { close(done) }}))
	require.True(t, ep.NeedsReadReady())

	ep.Dispatch(true, false)
	<-done
	require.False(t, ep.NeedsReadReady())

	buf := make([]byte, 16)
	n, err := ep.Fill(buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf[:n]))
}

func TestWriteCompletesAndClearsInterest(t *testing.T) {
	ch := newFakeChannel()
	ep := endpoint.New("e1", ch, 0)

	done := make(chan struct{})
	require.NoError(t, ep.Write(api.CallbackFunc{OnSucceeded: func() { close(done) }}, []byte("payload")))
	<-done
	require.False(t, ep.NeedsWriteReady())
	require.Equal(t, "payload", string(ch.writtenBytes()))
}

func TestCloseFailsPendingCallbacks(t *testing.T) {
	ch := newFakeChannel()
	ep := endpoint.New("e1", ch, 0)

	var readCause, writeCause error
	require.NoError(t, ep.FillInterested(api.CallbackFunc{OnFailed: func(c error) { readCause = c }}))
	// A stalled channel keeps the write pending until Close.
	ch.stallWrites = true
	require.NoError(t, ep.Write(api.CallbackFunc{OnFailed: func(c error) { writeCause = c }}, []byte("x")))

	require.NoError(t, ep.Close())
	require.ErrorIs(t, readCause, api.ErrClosed)
	require.ErrorIs(t, writeCause, api.ErrClosed)
	require.False(t, ep.IsOpen())
	require.False(t, ch.open)
}

func TestTimeoutExpiredDoesNotClose(t *testing.T) {
	ch := newFakeChannel()
	ep := endpoint.New("e1", ch, time.Millisecond)

	var cause error
	require.NoError(t, ep.FillInterested(api.CallbackFunc{OnFailed: func(c error) { cause = c }}))
	ep.TimeoutExpired()

	require.ErrorIs(t, cause, api.ErrTimeout)
	require.True(t, ep.IsOpen())
}

func TestUpgradeClearsReadInterest(t *testing.T) {
	ch := newFakeChannel()
	ep := endpoint.New("e1", ch, 0)

	var firstFailed error
	require.NoError(t, ep.FillInterested(api.CallbackFunc{OnFailed: func(c error) { firstFailed = c }}))

	old := ep.Upgrade("next-connection")
	require.Nil(t, old)
	require.False(t, ep.NeedsReadReady())
	require.Nil(t, firstFailed) // Upgrade clears interest silently, it does not fail it
	require.Equal(t, "next-connection", ep.Connection())
}

func TestDeadlineZeroWhenNoIdleTimeout(t *testing.T) {
	ch := newFakeChannel()
	ep := endpoint.New("e1", ch, 0)
	require.True(t, ep.Deadline().IsZero())
}

func TestInterestListenerFiresOnStateChanges(t *testing.T) {
	ch := newFakeChannel()
	ep := endpoint.New("e1", ch, 0)

	var n int
	var mu sync.Mutex
	ep.SetInterestListener(func() {
		mu.Lock()
		n++
		mu.Unlock()
	})

	require.NoError(t, ep.FillInterested(api.NopCallback))
	ep.Dispatch(true, false)

	mu.Lock()
	got := n
	mu.Unlock()
	require.GreaterOrEqual(t, got, 2) // at least: interest set, interest cleared on fire
}
