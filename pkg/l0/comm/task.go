package comm

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
)

// MessageHandler is called with each completed message.
type MessageHandler interface {
	HandleMessage(context.Context, *Message)
}

// HandleMessageFunc is func type of MessageHandler.
type HandleMessageFunc func(context.Context, *Message)

// HandleMessage implements MessageHandler.
func (f HandleMessageFunc) HandleMessage(ctx context.Context, msg *Message) {
	f(ctx, msg)
}

// Stats are the parser counters.
type Stats struct {
	Chunks        uint64
	Messages      uint64
	BadSize       uint64
	NoTerminator  uint64
	TooLong       uint64
	Overruns      uint64
	PartialLength int
}

// ParserTask takes chunks from a RxBuffer and frames messages.
// Framing errors discard the chunk and never stop the task.
type ParserTask struct {
	chunks, messages, badSize, noTerm, tooLong uint64

	Buffer  *RxBuffer
	Handler MessageHandler

	framer *Framer
	lock   sync.Mutex
}

// NewParserTask creates a ParserTask.
func NewParserTask(buf *RxBuffer, config FramerConfig, handler MessageHandler) (*ParserTask, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ParserTask{Buffer: buf, Handler: handler, framer: NewFramer(config)}, nil
}

// Run implements Runnable. It returns nil once the buffer is closed and
// drained.
func (p *ParserTask) Run(ctx context.Context) error {
	for {
		chunk, err := p.Buffer.Take(ctx)
		if err == ErrBufferClosed {
			return nil
		}
		if err != nil {
			return err
		}
		if msg, _ := p.Feed(chunk[:]); msg != nil && p.Handler != nil {
			p.Handler.HandleMessage(ctx, msg)
		}
	}
}

// Feed frames one chunk and accounts for the result.
func (p *ParserTask) Feed(chunk []byte) (*Message, error) {
	p.lock.Lock()
	msg, err := p.framer.Feed(chunk)
	p.lock.Unlock()

	atomic.AddUint64(&p.chunks, 1)
	switch err {
	case nil:
	case ErrChunkSize:
		atomic.AddUint64(&p.badSize, 1)
	case ErrTerminatorNotFound:
		atomic.AddUint64(&p.noTerm, 1)
	case ErrMessageTooLong:
		atomic.AddUint64(&p.tooLong, 1)
	}
	if err != nil {
		glog.Warningf("chunk %q discarded: %v", chunk, err)
		return nil, err
	}
	if msg != nil {
		atomic.AddUint64(&p.messages, 1)
		glog.V(1).Infof("message %s", msg)
	}
	return msg, nil
}

// Partial returns a copy of the message being assembled.
func (p *ParserTask) Partial() []byte {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.framer.Partial()
}

// Config returns the framer layout.
func (p *ParserTask) Config() FramerConfig {
	return p.framer.Config()
}

// Stats returns a snapshot of the counters.
func (p *ParserTask) Stats() Stats {
	s := Stats{
		Chunks:       atomic.LoadUint64(&p.chunks),
		Messages:     atomic.LoadUint64(&p.messages),
		BadSize:      atomic.LoadUint64(&p.badSize),
		NoTerminator: atomic.LoadUint64(&p.noTerm),
		TooLong:      atomic.LoadUint64(&p.tooLong),
	}
	if p.Buffer != nil {
		s.Overruns = p.Buffer.Overruns()
	}
	p.lock.Lock()
	s.PartialLength = len(p.framer.partial)
	p.lock.Unlock()
	return s
}
