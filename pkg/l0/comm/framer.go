package comm

import (
	"bytes"
	"fmt"
	"strconv"
)

// FramerConfig describes where a chunk carries its payload and terminator.
// There is no default sentinel, it must be chosen by the caller.
type FramerConfig struct {
	ChunkSize        int
	PayloadOffset    int
	TerminatorOffset int
	Terminator       []byte
	Sentinel         byte
	// MaxLen bounds a message including the sentinel, 0 for unlimited.
	MaxLen int
}

// NewFramerConfig returns the layout of the serial protocol: 8-byte
// chunks, payload at 5, "\r\n" at 6..7.
func NewFramerConfig(sentinel byte) FramerConfig {
	return FramerConfig{
		ChunkSize:        ChunkSize,
		PayloadOffset:    5,
		TerminatorOffset: 6,
		Terminator:       []byte("\r\n"),
		Sentinel:         sentinel,
	}
}

// Validate checks offsets lie within a chunk and do not overlap.
func (c FramerConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("invalid chunk size %d", c.ChunkSize)
	}
	if len(c.Terminator) == 0 {
		return fmt.Errorf("empty terminator")
	}
	if c.TerminatorOffset < 0 || c.TerminatorOffset+len(c.Terminator) > c.ChunkSize {
		return fmt.Errorf("terminator at %d exceeds chunk size %d", c.TerminatorOffset, c.ChunkSize)
	}
	if c.PayloadOffset < 0 || c.PayloadOffset >= c.ChunkSize {
		return fmt.Errorf("payload offset %d exceeds chunk size %d", c.PayloadOffset, c.ChunkSize)
	}
	if c.PayloadOffset >= c.TerminatorOffset && c.PayloadOffset < c.TerminatorOffset+len(c.Terminator) {
		return fmt.Errorf("payload offset %d overlaps terminator", c.PayloadOffset)
	}
	if c.MaxLen < 0 {
		return fmt.Errorf("invalid max length %d", c.MaxLen)
	}
	return nil
}

// FrameState is the state of a Framer.
type FrameState int

// Framer states.
const (
	StateIdle FrameState = iota
	StateAccumulating
)

func (s FrameState) String() string {
	if s == StateAccumulating {
		return "accumulating"
	}
	return "idle"
}

// Message is a completed message. Data includes the sentinel.
type Message struct {
	Seq  uint32
	Data []byte
}

func (m *Message) String() string {
	return fmt.Sprintf("#%d %s", m.Seq, strconv.Quote(string(m.Data)))
}

// Framer assembles messages from fixed-size chunks.
// It is owned by a single goroutine.
type Framer struct {
	config     FramerConfig
	partial    []byte
	terminated bool
	seq        uint32
}

// NewFramer creates a Framer. The config must pass Validate.
func NewFramer(config FramerConfig) *Framer {
	return &Framer{config: config}
}

// Config returns the framer layout.
func (f *Framer) Config() FramerConfig {
	return f.config
}

// Feed consumes one chunk. It returns the completed message when the
// payload byte is the sentinel; the partial message is cleared exactly
// then. A rejected chunk leaves the partial message unchanged.
func (f *Framer) Feed(chunk []byte) (*Message, error) {
	cfg := &f.config
	f.terminated = false
	if len(chunk) != cfg.ChunkSize {
		return nil, ErrChunkSize
	}
	term := chunk[cfg.TerminatorOffset : cfg.TerminatorOffset+len(cfg.Terminator)]
	if !bytes.Equal(term, cfg.Terminator) {
		return nil, ErrTerminatorNotFound
	}
	f.terminated = true
	ch := chunk[cfg.PayloadOffset]
	f.partial = append(f.partial, ch)
	if ch == cfg.Sentinel {
		f.seq++
		msg := &Message{Seq: f.seq, Data: f.partial}
		f.partial = nil
		return msg, nil
	}
	if cfg.MaxLen > 0 && len(f.partial) >= cfg.MaxLen {
		f.partial = nil
		return nil, ErrMessageTooLong
	}
	return nil, nil
}

// State returns the current state.
func (f *Framer) State() FrameState {
	if len(f.partial) > 0 {
		return StateAccumulating
	}
	return StateIdle
}

// Partial returns a copy of the partial message.
func (f *Framer) Partial() []byte {
	return append([]byte(nil), f.partial...)
}

// Terminated reports whether the last fed chunk carried the terminator.
func (f *Framer) Terminated() bool {
	return f.terminated
}
