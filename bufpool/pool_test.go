package bufpool_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowgate/reactorcore/bufpool"
)

func TestGetPutReusesSizeClass(t *testing.T) {
	p := bufpool.New(-1, 8)

	b1 := p.Get(128)
	require.Len(t, b1, 128)
	p.Put(b1)

	b2 := p.Get(100)
	require.GreaterOrEqual(t, cap(b2), 100)
	require.Equal(t, int64(1), p.Snapshot().Hits)
	require.Equal(t, int64(1), p.Snapshot().Misses)
}

func TestOutstandingTracksChurn(t *testing.T) {
	p := bufpool.New(0, 4)
	require.Equal(t, int64(0), p.Outstanding())

	b := p.Get(1024)
	require.Equal(t, int64(1), p.Outstanding())

	p.Put(b)
	require.Equal(t, int64(0), p.Outstanding())
}

func TestOversizeGetBypassesClasses(t *testing.T) {
	p := bufpool.New(0, 4)
	b := p.Get(1 << 20)
	require.Len(t, b, 1<<20)
	p.Put(b) // dropped silently; outstanding still decremented
	require.Equal(t, int64(0), p.Outstanding())
}

func TestReleaserIntegratesWithPut(t *testing.T) {
	p := bufpool.New(0, 4)
	buf := p.Get(64)
	release := p.Releaser()
	release(buf)
	require.Equal(t, int64(0), p.Outstanding())
}
