package connection_test

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowgate/reactorcore/connection"
	"github.com/flowgate/reactorcore/endpoint"
)

type nopChannel struct{}

func (nopChannel) Read(p []byte) (int, error)  { return 0, nil }
func (nopChannel) Write(p []byte) (int, error) { return len(p), nil }
func (nopChannel) Close() error                { return nil }
func (nopChannel) IsOpen() bool                { return true }
func (nopChannel) LocalAddr() net.Addr         { return nil }
func (nopChannel) RemoteAddr() net.Addr        { return nil }
func (nopChannel) FD() uintptr                 { return 0 }

type recordingConn struct {
	name   string
	events *[]string
}

func (c *recordingConn) OnOpen()              { *c.events = append(*c.events, c.name+":open") }
func (c *recordingConn) OnFillable()          { *c.events = append(*c.events, c.name+":fillable") }
func (c *recordingConn) OnClose(cause error)  { *c.events = append(*c.events, c.name+":close") }

func TestOpenFiresListenerBeforeOnOpen(t *testing.T) {
	ep := endpoint.New("e1", nopChannel{}, 0)
	var events []string

	// fireOpened runs synchronously on the calling goroutine (spec §5:
	// listeners "must not block"), so no synchronization is needed here
	// beyond the call to Open itself returning.
	connection.DefaultListeners().OnOpened(func(e *endpoint.Endpoint, c connection.Connection) {
		events = append(events, "listener:opened")
	})

	conn := &recordingConn{name: "a", events: &events}
	connection.Open(ep, conn)

	require.Equal(t, []string{"listener:opened", "a:open"}, events)
	require.Equal(t, ep.Connection(), conn)
}

func TestCloseRunsOnCloseBeforeListener(t *testing.T) {
	ep := endpoint.New("e2", nopChannel{}, 0)
	var events []string

	connection.DefaultListeners().OnClosed(func(e *endpoint.Endpoint, c connection.Connection, cause error) {
		events = append(events, "listener:closed")
	})

	conn := &recordingConn{name: "b", events: &events}
	cause := errors.New("peer reset")
	connection.Close(ep, conn, cause)

	require.Equal(t, []string{"b:close", "listener:closed"}, events)
}

func TestUpgradeClosesOldBeforeOpeningNext(t *testing.T) {
	ep := endpoint.New("e3", nopChannel{}, 0)
	var events []string

	old := &recordingConn{name: "old", events: &events}
	connection.Open(ep, old)

	next := &recordingConn{name: "next", events: &events}
	connection.Upgrade(ep, next)

	require.Equal(t, []string{"old:open", "old:close", "next:open"}, events)
	require.Equal(t, ep.Connection(), next)
}

func TestListenerPanicIsRecovered(t *testing.T) {
	ep := endpoint.New("e4", nopChannel{}, 0)
	var events []string

	connection.DefaultListeners().OnOpened(func(e *endpoint.Endpoint, c connection.Connection) {
		panic("listener exploded")
	})

	conn := &recordingConn{name: "c", events: &events}
	require.NotPanics(t, func() {
		connection.Open(ep, conn)
	})
	require.Contains(t, events, "c:open")
}
