package msgs

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/xmem.go/pkg/l0/comm"
)

// Envelope field names.
const (
	FieldDevice = "device"
	FieldSeq    = "seq"
	FieldData   = "data"
	FieldText   = "text"
	FieldTime   = "time"
)

var (
	// ErrMissingField indicates an envelope without a required field.
	ErrMissingField = errors.New("missing field")
)

// Envelope is a message as seen by uplink subscribers.
type Envelope struct {
	Device string
	Seq    uint32
	Data   []byte
	Time   time.Time
}

// NewEnvelope wraps a completed message.
func NewEnvelope(device string, msg *comm.Message, at time.Time) *Envelope {
	return &Envelope{Device: device, Seq: msg.Seq, Data: msg.Data, Time: at}
}

// Struct converts the envelope into a protobuf Struct.
func (e *Envelope) Struct() *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldDevice: stringValue(e.Device),
			FieldSeq:    {Kind: &structpb.Value_NumberValue{NumberValue: float64(e.Seq)}},
			FieldData:   stringValue(base64.StdEncoding.EncodeToString(e.Data)),
			FieldText:   stringValue(strconv.Quote(string(e.Data))),
			FieldTime:   stringValue(e.Time.UTC().Format(time.RFC3339Nano)),
		},
	}
}

// Encode serializes the envelope.
func (e *Envelope) Encode() ([]byte, error) {
	return proto.Marshal(e.Struct())
}

// JSON renders the envelope for display.
func (e *Envelope) JSON() (string, error) {
	m := jsonpb.Marshaler{OrigName: true}
	return m.MarshalToString(e.Struct())
}

func (e *Envelope) String() string {
	return fmt.Sprintf("%s #%d %s", e.Device, e.Seq, strconv.Quote(string(e.Data)))
}

// Decode parses an encoded envelope.
func Decode(payload []byte) (*Envelope, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(payload, &s); err != nil {
		return nil, err
	}
	return FromStruct(&s)
}

// FromStruct extracts the envelope from a Struct.
func FromStruct(s *structpb.Struct) (*Envelope, error) {
	var e Envelope
	device, err := stringField(s, FieldDevice)
	if err != nil {
		return nil, err
	}
	e.Device = device
	seq, ok := s.Fields[FieldSeq].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, FieldSeq)
	}
	e.Seq = uint32(seq.NumberValue)
	data, err := stringField(s, FieldData)
	if err != nil {
		return nil, err
	}
	if e.Data, err = base64.StdEncoding.DecodeString(data); err != nil {
		return nil, fmt.Errorf("invalid data: %v", err)
	}
	if ts, err := stringField(s, FieldTime); err == nil {
		if e.Time, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("invalid time: %v", err)
		}
	}
	return &e, nil
}

func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func stringField(s *structpb.Struct, name string) (string, error) {
	v, ok := s.Fields[name].GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	return v.StringValue, nil
}
