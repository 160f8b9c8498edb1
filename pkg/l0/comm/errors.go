package comm

import (
	"errors"
)

var (
	// ErrChunkSize indicates a chunk not of the configured size.
	ErrChunkSize = errors.New("invalid chunk size")
	// ErrTerminatorNotFound indicates a chunk without the terminator.
	ErrTerminatorNotFound = errors.New("terminator not found")
	// ErrMessageTooLong indicates a partial message exceeding the limit
	// without a sentinel; the partial is dropped.
	ErrMessageTooLong = errors.New("message too long")
	// ErrBufferClosed indicates the receive path ended and the slot is empty.
	ErrBufferClosed = errors.New("receive buffer closed")
)

// IsRecoverable tells whether a Feed error only discards the chunk.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrChunkSize) ||
		errors.Is(err, ErrTerminatorNotFound) ||
		errors.Is(err, ErrMessageTooLong)
}

// AppendPrefix returns prefix followed by data in a new slice.
func AppendPrefix(prefix string, data []byte) []byte {
	out := make([]byte, 0, len(prefix)+len(data))
	return append(append(out, prefix...), data...)
}
