// Package comm forwards L0 messages to L1 consumers.
package comm

import (
	"context"

	"github.com/golang/glog"

	fx "github.com/robotalks/xmem.go/pkg/framework"
	l0 "github.com/robotalks/xmem.go/pkg/l0/comm"
)

// Uplink sends completed messages somewhere.
type Uplink interface {
	Send(context.Context, *l0.Message) error
}

// SendFunc is func form of Uplink.
type SendFunc func(context.Context, *l0.Message) error

// Send implements Uplink.
func (f SendFunc) Send(ctx context.Context, msg *l0.Message) error {
	return f(ctx, msg)
}

// UplinkMux sends messages to multiple Uplinks.
type UplinkMux struct {
	Uplinks []Uplink
}

// Add adds more uplinks.
func (m *UplinkMux) Add(uplinks ...Uplink) *UplinkMux {
	m.Uplinks = append(m.Uplinks, uplinks...)
	return m
}

// Send implements Uplink. Every uplink is tried.
func (m *UplinkMux) Send(ctx context.Context, msg *l0.Message) error {
	var errs fx.AggregatedError
	for _, u := range m.Uplinks {
		errs.Add(u.Send(ctx, msg))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (m *UplinkMux) AddToLoop(l *fx.Loop) {
	for _, u := range m.Uplinks {
		if adder, ok := u.(fx.LoopAdder); ok {
			l.Add(adder)
		}
	}
	l.AddController(fx.PrLvUplink, &Forwarder{Uplink: m})
}

// Forwarder is a loop controller sending link messages to an Uplink.
type Forwarder struct {
	Uplink Uplink
}

// Control implements Controller.
func (f *Forwarder) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		if msg, ok := mctx.CurrentMessage().(*l0.LoopMessage); ok {
			mctx.MessageTaken()
			if err := f.Uplink.Send(cc.Context(), msg.Message); err != nil {
				glog.Errorf("uplink %s error: %v", msg.Message, err)
			}
		}
	}))
	return nil
}
