package comm

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func seqChunk(n uint64) (c Chunk) {
	binary.LittleEndian.PutUint64(c[:], n)
	return
}

func TestRxBufferNoLossNoDup(t *testing.T) {
	buf := NewRxBuffer(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	const count = 5000

	errCh := make(chan error, 1)
	go func() {
		for n := uint64(0); n < count; n++ {
			if err := buf.Put(ctx, seqChunk(n)); err != nil {
				errCh <- err
				return
			}
		}
		errCh <- nil
	}()
	for n := uint64(0); n < count; n++ {
		chunk, err := buf.Take(ctx)
		require.NoError(t, err)
		require.Equal(t, n, binary.LittleEndian.Uint64(chunk[:]))
	}
	require.NoError(t, <-errCh)
	require.False(t, buf.Pending())
	require.Zero(t, buf.Overruns())
}

func TestRxBufferTryPut(t *testing.T) {
	buf := NewRxBuffer(nil)
	require.True(t, buf.TryPut(seqChunk(1)))
	require.True(t, buf.Pending())
	require.False(t, buf.TryPut(seqChunk(2)))
	require.False(t, buf.TryPut(seqChunk(3)))
	require.Equal(t, uint64(2), buf.Overruns())

	chunk, err := buf.Take(context.Background())
	require.NoError(t, err)
	require.Equal(t, seqChunk(1), chunk)
	require.True(t, buf.TryPut(seqChunk(4)))
	chunk, err = buf.Take(context.Background())
	require.NoError(t, err)
	require.Equal(t, seqChunk(4), chunk)
}

func TestRxBufferCancel(t *testing.T) {
	buf := NewRxBuffer(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := buf.Take(ctx)
	require.Equal(t, context.Canceled, err)

	require.NoError(t, buf.Put(context.Background(), seqChunk(1)))
	require.Equal(t, context.Canceled, buf.Put(ctx, seqChunk(2)))
	chunk, err := buf.Take(context.Background())
	require.NoError(t, err)
	require.Equal(t, seqChunk(1), chunk)
}

func TestRxBufferTakeWaits(t *testing.T) {
	buf := NewRxBuffer(nil)
	resCh := make(chan Chunk, 1)
	go func() {
		chunk, _ := buf.Take(context.Background())
		resCh <- chunk
	}()
	select {
	case <-resCh:
		t.Fatal("take returned without a chunk")
	case <-time.After(20 * time.Millisecond):
	}
	require.True(t, buf.TryPut(seqChunk(9)))
	select {
	case chunk := <-resCh:
		require.Equal(t, seqChunk(9), chunk)
	case <-time.After(5 * time.Second):
		t.Fatal("take not woken")
	}
}

func TestRxBufferCloseDrains(t *testing.T) {
	buf := NewRxBuffer(nil)
	require.NoError(t, buf.Put(context.Background(), seqChunk(1)))
	buf.Close()

	chunk, err := buf.Take(context.Background())
	require.NoError(t, err)
	require.Equal(t, seqChunk(1), chunk)
	_, err = buf.Take(context.Background())
	require.Equal(t, ErrBufferClosed, err)

	waiting := NewRxBuffer(nil)
	errCh := make(chan error, 1)
	go func() {
		_, err := waiting.Take(context.Background())
		errCh <- err
	}()
	waiting.Close()
	select {
	case err := <-errCh:
		require.Equal(t, ErrBufferClosed, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Take did not return after Close")
	}
}
