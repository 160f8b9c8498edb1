package mqtt

import (
	"context"
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	fx "github.com/robotalks/xmem.go/pkg/framework"
	l0 "github.com/robotalks/xmem.go/pkg/l0/comm"
	"github.com/robotalks/xmem.go/pkg/l1/msgs"
)

// Topic suffixes under the device name.
const (
	TopicMsg  = "msg"
	TopicMeta = "meta"
)

// DefaultPublishTimeout bounds the wait for a publish acknowledgement.
const DefaultPublishTimeout = 5 * time.Second

// Meta is published retained on <device>/meta while connected.
type Meta struct {
	Device   string `json:"device"`
	Board    string `json:"board,omitempty"`
	Version  string `json:"version,omitempty"`
	Memory   string `json:"memory,omitempty"`
	Sentinel string `json:"sentinel,omitempty"`
	Console  string `json:"console,omitempty"`
}

// Publisher uplinks completed messages as encoded envelopes to
// <device>/msg.
type Publisher struct {
	Queue   *Queue
	Meta    Meta
	QoS     byte
	Timeout time.Duration

	metaJSON []byte
}

// NewPublisher creates a Publisher connecting to brokerURL.
func NewPublisher(brokerURL string, meta Meta) (*Publisher, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+meta.Device+"/"+TopicMeta, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("xmem:" + meta.Device)
	}
	return NewPublisherWith(NewQueue(opts, topicPrefix), meta), nil
}

// NewPublisherWith creates a Publisher over an existing Queue.
func NewPublisherWith(q *Queue, meta Meta) *Publisher {
	metaJSON, err := json.Marshal(&meta)
	if err != nil {
		panic(err)
	}
	p := &Publisher{
		Queue:    q,
		Meta:     meta,
		Timeout:  DefaultPublishTimeout,
		metaJSON: metaJSON,
	}
	q.OnConnect = func(*Queue) { p.publishMeta() }
	return p
}

// MsgTopic is the topic messages are published on.
func (p *Publisher) MsgTopic() string {
	return p.Meta.Device + "/" + TopicMsg
}

// MetaTopic is the retained meta topic.
func (p *Publisher) MetaTopic() string {
	return p.Meta.Device + "/" + TopicMeta
}

// Send implements comm.Uplink.
func (p *Publisher) Send(ctx context.Context, msg *l0.Message) error {
	payload, err := msgs.NewEnvelope(p.Meta.Device, msg, time.Now()).Encode()
	if err != nil {
		return err
	}
	glog.V(2).Infof("PUB %q %s", p.MsgTopic(), msg)
	return p.wait(ctx, p.Queue.PubWith(p.MsgTopic(), payload, p.QoS, false))
}

// AddToLoop implements LoopAdder.
func (p *Publisher) AddToLoop(l *fx.Loop) {
	l.AddRunnable(fx.NamedRun("mqtt", p))
}

// Run implements Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.wait(ctx, p.Queue.Connect()); err != nil {
		return err
	}
	<-ctx.Done()
	p.Queue.PubWith(p.MetaTopic(), nil, 1, true).WaitTimeout(p.timeout())
	return p.Queue.Close()
}

func (p *Publisher) publishMeta() {
	token := p.Queue.PubWith(p.MetaTopic(), p.metaJSON, 1, true)
	if token.WaitTimeout(p.timeout()) && token.Error() != nil {
		glog.Warningf("publish meta: %v", token.Error())
	}
}

func (p *Publisher) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultPublishTimeout
	}
	return p.Timeout
}

func (p *Publisher) wait(ctx context.Context, token paho.Token) error {
	deadline := time.Now().Add(p.timeout())
	for !token.WaitTimeout(10 * time.Millisecond) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
	}
	return token.Error()
}

// WatchMessages subscribes to messages of device, or all devices when
// device is empty, and decodes envelopes for fn. Undecodable payloads
// are logged and dropped.
func WatchMessages(q *Queue, device string, fn func(*msgs.Envelope)) *Subscription {
	if device == "" {
		device = "+"
	}
	return q.Sub(device+"/"+TopicMsg, func(topic string, payload []byte) {
		env, err := msgs.Decode(payload)
		if err != nil {
			glog.Warningf("%s: %v", topic, err)
			return
		}
		fn(env)
	})
}
