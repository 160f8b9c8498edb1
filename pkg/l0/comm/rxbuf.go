package comm

import (
	"context"
	"sync/atomic"
)

// ChunkSize is the size of a receive cycle.
const ChunkSize = 8

// Chunk is the bytes of one receive cycle.
type Chunk [ChunkSize]byte

type rxSlot struct {
	chunk  Chunk
	full   bool
	closed bool
}

// RxBuffer is a single-slot mailbox between the receive path and the
// parser. Wake-ups are signalled after leaving the critical section.
type RxBuffer struct {
	overruns uint64 // first for 64-bit atomic alignment
	slot     *Exclusive[rxSlot]
	filledCh chan struct{}
	takenCh  chan struct{}
}

// NewRxBuffer creates a RxBuffer guarded by cs.
func NewRxBuffer(cs CriticalSection) *RxBuffer {
	return &RxBuffer{
		slot:     NewExclusive(cs, rxSlot{}),
		filledCh: make(chan struct{}, 1),
		takenCh:  make(chan struct{}, 1),
	}
}

// Put stores a chunk, waiting for the parser to take the previous one.
func (b *RxBuffer) Put(ctx context.Context, chunk Chunk) error {
	for !b.store(chunk) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.takenCh:
		}
	}
	return nil
}

// TryPut stores a chunk without waiting, for interrupt context. A chunk
// arriving while the slot is still full is dropped and counted.
func (b *RxBuffer) TryPut(chunk Chunk) bool {
	if b.store(chunk) {
		return true
	}
	atomic.AddUint64(&b.overruns, 1)
	return false
}

// Take returns a copy of the stored chunk, waiting for one. After Close
// the pending chunk is still returned, then ErrBufferClosed.
func (b *RxBuffer) Take(ctx context.Context) (Chunk, error) {
	for {
		var chunk Chunk
		var closed bool
		taken := With(b.slot, func(s *rxSlot) bool {
			if !s.full {
				closed = s.closed
				return false
			}
			chunk, s.full = s.chunk, false
			return true
		})
		if closed {
			return chunk, ErrBufferClosed
		}
		if taken {
			notify(b.takenCh)
			return chunk, nil
		}
		select {
		case <-ctx.Done():
			return chunk, ctx.Err()
		case <-b.filledCh:
		}
	}
}

// Close marks the end of input, the writer must not Put afterwards.
func (b *RxBuffer) Close() {
	b.slot.Do(func(s *rxSlot) { s.closed = true })
	notify(b.filledCh)
}

// Pending reports whether a chunk waits in the slot.
func (b *RxBuffer) Pending() bool {
	return With(b.slot, func(s *rxSlot) bool { return s.full })
}

// Overruns is the number of chunks dropped by TryPut.
func (b *RxBuffer) Overruns() uint64 {
	return atomic.LoadUint64(&b.overruns)
}

func (b *RxBuffer) store(chunk Chunk) bool {
	stored := With(b.slot, func(s *rxSlot) bool {
		if s.full {
			return false
		}
		s.chunk, s.full = chunk, true
		return true
	})
	if stored {
		notify(b.filledCh)
	}
	return stored
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
