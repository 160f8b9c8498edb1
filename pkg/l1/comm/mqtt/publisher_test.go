package mqtt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/xmem.go/pkg/framework"
	l0 "github.com/robotalks/xmem.go/pkg/l0/comm"
	"github.com/robotalks/xmem.go/pkg/l1/comm"
	"github.com/robotalks/xmem.go/pkg/l1/msgs"
)

func newTestPublisher() (*Publisher, *fakeClient) {
	client := &fakeClient{}
	q := &Queue{Client: client, TopicPrefix: "lab/"}
	return NewPublisherWith(q, Meta{Device: "giga1", Board: "giga-r1", Sentinel: "0x00", Console: "USART1 tx=PA9 rx=PB7 115200 baud"}), client
}

func TestPublisherSend(t *testing.T) {
	p, client := newTestPublisher()
	var _ comm.Uplink = p

	require.NoError(t, p.Send(context.Background(), &l0.Message{Seq: 7, Data: []byte("Hello!")}))
	pubs := client.Published()
	require.Len(t, pubs, 1)
	require.Equal(t, "lab/giga1/msg", pubs[0].topic)

	env, err := msgs.Decode(pubs[0].payload)
	require.NoError(t, err)
	require.Equal(t, "giga1", env.Device)
	require.Equal(t, uint32(7), env.Seq)
	require.Equal(t, []byte("Hello!"), env.Data)
}

func TestPublisherMetaOnConnect(t *testing.T) {
	p, client := newTestPublisher()
	p.Queue.OnConnectHandler(client)

	pubs := client.Published()
	require.Len(t, pubs, 1)
	require.Equal(t, "lab/giga1/meta", pubs[0].topic)
	require.True(t, pubs[0].retain)
	var meta Meta
	require.NoError(t, json.Unmarshal(pubs[0].payload, &meta))
	require.Equal(t, p.Meta, meta)
}

func TestPublisherRunClearsMeta(t *testing.T) {
	p, client := newTestPublisher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Run(ctx))

	pubs := client.Published()
	require.Len(t, pubs, 1)
	require.Equal(t, "lab/giga1/meta", pubs[0].topic)
	require.Empty(t, pubs[0].payload)
	require.True(t, pubs[0].retain)
}

func TestPublisherInLoop(t *testing.T) {
	p, client := newTestPublisher()
	mux := &comm.UplinkMux{}
	mux.Add(p)

	l := fx.NewLoop()
	l.Interval = time.Hour
	l.Add(mux)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	l.PostMessage(&l0.LoopMessage{Message: &l0.Message{Seq: 1, Data: []byte("Worlde")}})
	l.TriggerNext()
	deadline := time.Now().Add(5 * time.Second)
	for len(client.Published()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	require.Equal(t, context.Canceled, <-done)

	pubs := client.Published()
	require.NotEmpty(t, pubs)
	require.Equal(t, "lab/giga1/msg", pubs[0].topic)
	env, err := msgs.Decode(pubs[0].payload)
	require.NoError(t, err)
	require.Equal(t, []byte("Worlde"), env.Data)
}

func TestWatchMessages(t *testing.T) {
	p, client := newTestPublisher()
	var got []*msgs.Envelope
	WatchMessages(p.Queue, "", func(env *msgs.Envelope) { got = append(got, env) })
	require.Equal(t, []string{"lab/+/msg"}, client.subs)

	require.NoError(t, p.Send(context.Background(), &l0.Message{Seq: 2, Data: []byte("abc")}))
	pub := client.Published()[0]
	p.Queue.dispatch(client, &fakeMessage{topic: pub.topic, payload: pub.payload})
	p.Queue.dispatch(client, &fakeMessage{topic: "lab/x/msg", payload: nil})
	require.Len(t, got, 1)
	require.Equal(t, uint32(2), got[0].Seq)
}
