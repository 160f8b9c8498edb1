package comm

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/xmem.go/pkg/framework"
)

// Link runs the receive path of a transport: Receiver, RxBuffer and
// ParserTask. Completed messages are delivered on MessageChan and to an
// optional Echo writer.
type Link struct {
	Receiver *Receiver
	Parser   *ParserTask
	// Echo gets every message back, prefixed with EchoPrefix.
	Echo       io.Writer
	EchoPrefix string

	msgCh    chan *Message
	echoLock sync.Mutex
}

// DefaultEchoPrefix prefixes echoed messages.
const DefaultEchoPrefix = "Echo: "

// NewLink creates a Link reading from r.
func NewLink(r io.Reader, config FramerConfig) (*Link, error) {
	buf := NewRxBuffer(nil)
	l := &Link{
		Receiver:   NewReceiver(r, buf),
		EchoPrefix: DefaultEchoPrefix,
		msgCh:      make(chan *Message, 1),
	}
	parser, err := NewParserTask(buf, config, l)
	if err != nil {
		return nil, err
	}
	l.Parser = parser
	return l, nil
}

// MessageChan retrieves the message delivery chan.
func (l *Link) MessageChan() <-chan *Message {
	return l.msgCh
}

// HandleMessage implements MessageHandler.
func (l *Link) HandleMessage(ctx context.Context, msg *Message) {
	if l.Echo != nil {
		l.echo(msg)
	}
	select {
	case l.msgCh <- msg:
	case <-ctx.Done():
	}
}

func (l *Link) echo(msg *Message) {
	out := append(AppendPrefix(l.EchoPrefix, msg.Data), '\r', '\n')
	l.echoLock.Lock()
	defer l.echoLock.Unlock()
	if _, err := l.Echo.Write(out); err != nil {
		glog.Errorf("echo %s error: %v", msg, err)
	}
}

// Greet writes a line to the echo writer.
func (l *Link) Greet(line string) error {
	if l.Echo == nil {
		return nil
	}
	l.echoLock.Lock()
	defer l.echoLock.Unlock()
	_, err := io.WriteString(l.Echo, line+"\r\n")
	return err
}

// Run implements Runnable. It returns when the transport ends, after the
// parser handled the last chunk; transport read errors are returned.
func (l *Link) Run(ctx context.Context) error {
	receiver := fx.RunnableFunc(func(ctx context.Context) error {
		defer l.Receiver.Buffer.Close()
		return l.Receiver.Run(ctx)
	})
	return fx.NewRunnerWith(ctx).
		Go(fx.NamedRun("receiver", receiver), fx.NamedRun("parser", l.Parser)).
		Wait()
}

// LoopMessage carries a link message through a Loop.
type LoopMessage struct {
	*Message
}

// MessagePoster forwards link messages into a Loop.
type MessagePoster struct {
	Link *Link
	// Wrap converts a link message into a loop message,
	// LoopMessage if nil.
	Wrap func(*Message) fx.Message
}

// AddToLoop implements LoopAdder.
func (p *MessagePoster) AddToLoop(l *fx.Loop) {
	l.AddRunnable(p)
}

// Run implements Runnable.
func (p *MessagePoster) Run(ctx context.Context) error {
	loop := fx.LoopCtlFrom(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-p.Link.MessageChan():
			if p.Wrap != nil {
				loop.PostMessage(p.Wrap(msg))
			} else {
				loop.PostMessage(&LoopMessage{Message: msg})
			}
			loop.TriggerNext()
		}
	}
}
