package content_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowgate/reactorcore/bufpool"
	"github.com/flowgate/reactorcore/content"
)

// TestChunkRetainReleaseBalancesPool exercises P4 ("every Retain is
// matched by exactly one Release") against a real bufpool.Pool: a
// Chunk held by two extra retainers must not return its buffer to the
// pool until all three references (the original plus both retains)
// have been released.
func TestChunkRetainReleaseBalancesPool(t *testing.T) {
	pool := bufpool.New(0, 8)
	buf := pool.Get(64)
	require.EqualValues(t, 1, pool.Outstanding())

	c := content.Of(buf, false, pool.Releaser())
	c.Retain()
	c.Retain()

	c.Release()
	require.EqualValues(t, 1, pool.Outstanding(), "two outstanding references remain")

	c.Release()
	require.EqualValues(t, 1, pool.Outstanding(), "one outstanding reference remains")

	c.Release()
	require.EqualValues(t, 0, pool.Outstanding(), "last release must return the buffer to the pool")
}

// TestChunkSliceHoldsParentReference exercises Slice's zero-copy
// reference counting: a Slice keeps the parent Chunk (and its pooled
// buffer) alive until the Slice itself is released too.
func TestChunkSliceHoldsParentReference(t *testing.T) {
	pool := bufpool.New(0, 8)
	buf := pool.Get(64)

	c := content.Of(buf, false, pool.Releaser())
	slice := c.Slice(0, 32)

	c.Release()
	require.EqualValues(t, 1, pool.Outstanding(), "slice still references the buffer")

	slice.Release()
	require.EqualValues(t, 0, pool.Outstanding(), "buffer returns to the pool once the slice releases too")
}
