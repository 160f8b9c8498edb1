package comm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/xmem.go/pkg/framework"
	l0 "github.com/robotalks/xmem.go/pkg/l0/comm"
)

func TestUplinkMuxAggregates(t *testing.T) {
	var sent []string
	record := func(name string, err error) Uplink {
		return SendFunc(func(_ context.Context, msg *l0.Message) error {
			sent = append(sent, name+":"+string(msg.Data))
			return err
		})
	}
	failure := errors.New("broker down")
	var mux UplinkMux
	mux.Add(record("a", nil), record("b", failure), record("c", nil))

	err := mux.Send(context.Background(), &l0.Message{Seq: 1, Data: []byte("!e")})
	require.Error(t, err)
	aggr, ok := err.(*fx.AggregatedError)
	require.True(t, ok)
	require.Equal(t, []error{failure}, aggr.Errors)
	require.Equal(t, []string{"a:!e", "b:!e", "c:!e"}, sent)

	require.NoError(t, (&UplinkMux{}).Send(context.Background(), &l0.Message{}))
}

func TestForwarderInLoop(t *testing.T) {
	gotCh := make(chan *l0.Message, 1)
	mux := (&UplinkMux{}).Add(SendFunc(func(_ context.Context, msg *l0.Message) error {
		gotCh <- msg
		return nil
	}))
	loop := fx.NewLoop().Add(mux)
	loop.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)
	loop.PostMessage(&l0.LoopMessage{Message: &l0.Message{Seq: 2, Data: []byte("ok")}})
	deadline := time.After(5 * time.Second)
	for {
		loop.TriggerNext()
		select {
		case msg := <-gotCh:
			require.Equal(t, uint32(2), msg.Seq)
			return
		case <-deadline:
			t.Fatal("message not forwarded")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
