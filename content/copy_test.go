package content_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/flowgate/reactorcore/api"
	"github.com/flowgate/reactorcore/content"
)

// sliceProducer yields chunks off a fixed list, one per TryRead call,
// with data always immediately available so Copy completes
// synchronously within the driving goroutine (no Demand round trip).
type sliceProducer struct {
	chunks []*content.Chunk
	pos    int
}

func (p *sliceProducer) TryRead() (*content.Chunk, error) {
	if p.pos >= len(p.chunks) {
		return content.EndOfStream(), nil
	}
	c := p.chunks[p.pos]
	p.pos++
	return c, nil
}

// collectWriter records every write it receives, completing
// synchronously.
type collectWriter struct {
	got []byte
}

func (w *collectWriter) Write(cb api.Callback, view []byte) error {
	w.got = append(w.got, view...)
	cb.Succeeded()
	return nil
}

func TestCopyStreamsUntilTerminal(t *testing.T) {
	prod := &sliceProducer{chunks: []*content.Chunk{
		content.Of([]byte("hello "), false, nil),
		content.Of([]byte("world"), false, nil),
	}}
	src := content.NewSource(prod)
	w := &collectWriter{}
	dst := content.NewSink(w)

	done := make(chan error, 1)
	content.Copy(src, dst, api.CallbackFunc{
		OnSucceeded: func() { done <- nil },
		OnFailed:    func(cause error) { done <- cause },
	})

	select {
	case err := <-done:
		require.NoError(t, err)
	default:
		t.Fatal("copy did not complete synchronously with a fully-eager producer")
	}
	if diff := cmp.Diff([]byte("hello world"), w.got); diff != "" {
		t.Fatalf("copied bytes mismatch (-want +got):\n%s", diff)
	}
}

// starvedProducer returns no data until armed is set, exercising the
// Source.Demand/Notify round trip Copy relies on when the underlying
// transport has nothing ready yet.
type starvedProducer struct {
	armed bool
	chunk *content.Chunk
}

func (p *starvedProducer) TryRead() (*content.Chunk, error) {
	if !p.armed {
		return nil, nil
	}
	return p.chunk, nil
}

func TestCopyResumesOnNotify(t *testing.T) {
	prod := &starvedProducer{chunk: content.Of([]byte("later"), true, nil)}
	src := content.NewSource(prod)
	w := &collectWriter{}
	dst := content.NewSink(w)

	done := make(chan error, 1)
	content.Copy(src, dst, api.CallbackFunc{
		OnSucceeded: func() { done <- nil },
		OnFailed:    func(cause error) { done <- cause },
	})

	select {
	case <-done:
		t.Fatal("copy should not complete before the producer has data")
	default:
	}

	prod.armed = true
	src.Notify()

	require.NoError(t, <-done)
	require.Equal(t, "later", string(w.got))
}

type failingProducer struct{ cause error }

func (p *failingProducer) TryRead() (*content.Chunk, error) {
	return content.Failure(p.cause, true), nil
}

func TestCopyPropagatesFatalFailure(t *testing.T) {
	wantErr := errors.New("broken pipe")
	src := content.NewSource(&failingProducer{cause: wantErr})
	dst := content.NewSink(&collectWriter{})

	var got error
	content.Copy(src, dst, api.CallbackFunc{
		OnSucceeded: func() { t.Fatal("unexpected success") },
		OnFailed:    func(cause error) { got = cause },
	})
	require.Equal(t, wantErr, got)
}
