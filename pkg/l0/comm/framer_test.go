package comm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type framerTestStep struct {
	in      []byte
	msg     *Message
	err     error
	partial string
}

type framerTestSequenceBuilder struct {
	steps []framerTestStep
}

func framerTestSequences() *framerTestSequenceBuilder {
	return &framerTestSequenceBuilder{}
}

func (b *framerTestSequenceBuilder) feed(in string) *framerTestSequenceBuilder {
	b.steps = append(b.steps, framerTestStep{in: []byte(in)})
	return b
}

func (b *framerTestSequenceBuilder) partial(s string) *framerTestSequenceBuilder {
	b.steps[len(b.steps)-1].partial = s
	return b
}

func (b *framerTestSequenceBuilder) message(seq uint32, data string) *framerTestSequenceBuilder {
	b.steps[len(b.steps)-1].msg = &Message{Seq: seq, Data: []byte(data)}
	return b
}

func (b *framerTestSequenceBuilder) fails(err error) *framerTestSequenceBuilder {
	b.steps[len(b.steps)-1].err = err
	return b
}

func (b *framerTestSequenceBuilder) build() []framerTestStep {
	return b.steps
}

func TestFramer(t *testing.T) {
	testCases := []struct {
		name     string
		sentinel byte
		maxLen   int
		steps    []framerTestStep
	}{
		{
			name:     "hello world",
			sentinel: 'e',
			steps: framerTestSequences().
				feed("Hello!\r\n").partial("!").
				feed("Worlde\r\n").message(1, "!e").partial("").
				build(),
		},
		{
			name:     "hello world without sentinel",
			sentinel: 'z',
			steps: framerTestSequences().
				feed("Hello!\r\n").partial("!").
				feed("Worlde\r\n").partial("!e").
				feed("Hello!\r\n").partial("!e!").
				build(),
		},
		{
			name:     "nul sentinel",
			sentinel: 0,
			steps: framerTestSequences().
				feed("ABCDEH\r\n").partial("H").
				feed("ABCDEi\r\n").partial("Hi").
				feed("ABCDE\x00\r\n").message(1, "Hi\x00").partial("").
				feed("ABCDE\x00\r\n").message(2, "\x00").partial("").
				build(),
		},
		{
			name:     "bad terminator keeps state",
			sentinel: 'e',
			steps: framerTestSequences().
				feed("Hello!\r\n").partial("!").
				feed("Hello!\n\r").fails(ErrTerminatorNotFound).partial("!").
				feed("Helloe\r ").fails(ErrTerminatorNotFound).partial("!").
				feed("Worlde\r\n").message(1, "!e").
				build(),
		},
		{
			name:     "bad size keeps state",
			sentinel: 'e',
			steps: framerTestSequences().
				feed("Hello!\r\n").partial("!").
				feed("Hell!\r\n").fails(ErrChunkSize).partial("!").
				feed("Helloo!\r\n").fails(ErrChunkSize).partial("!").
				feed("").fails(ErrChunkSize).partial("!").
				feed("Worlde\r\n").message(1, "!e").
				build(),
		},
		{
			name:     "too long",
			sentinel: 'e',
			maxLen:   3,
			steps: framerTestSequences().
				feed("xxxxxa\r\n").partial("a").
				feed("xxxxxb\r\n").partial("ab").
				feed("xxxxxc\r\n").fails(ErrMessageTooLong).partial("").
				feed("xxxxxa\r\n").partial("a").
				feed("xxxxxb\r\n").partial("ab").
				feed("xxxxxe\r\n").message(1, "abe").
				build(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewFramerConfig(tc.sentinel)
			cfg.MaxLen = tc.maxLen
			require.NoError(t, cfg.Validate())
			framer := NewFramer(cfg)
			for n, s := range tc.steps {
				msg, err := framer.Feed(s.in)
				require.Equalf(t, s.err, err, "step[%d] error mismatch", n)
				require.Equalf(t, s.msg, msg, "step[%d] message mismatch", n)
				require.Equalf(t, s.partial, string(framer.Partial()), "step[%d] partial mismatch", n)
			}
		})
	}
}

func TestFramerState(t *testing.T) {
	framer := NewFramer(NewFramerConfig('e'))
	require.Equal(t, StateIdle, framer.State())
	require.False(t, framer.Terminated())

	_, err := framer.Feed([]byte("Hello!\n\r"))
	require.Equal(t, ErrTerminatorNotFound, err)
	require.Equal(t, StateIdle, framer.State())
	require.False(t, framer.Terminated())

	_, err = framer.Feed([]byte("Hello!\r\n"))
	require.NoError(t, err)
	require.Equal(t, StateAccumulating, framer.State())
	require.True(t, framer.Terminated())

	_, err = framer.Feed([]byte("Hello"))
	require.Equal(t, ErrChunkSize, err)
	require.False(t, framer.Terminated())
	require.Equal(t, StateAccumulating, framer.State())
	require.Equal(t, "!", string(framer.Partial()))

	msg, err := framer.Feed([]byte("Worlde\r\n"))
	require.NoError(t, err)
	require.Equal(t, "!e", string(msg.Data))
	require.True(t, framer.Terminated())
	require.Equal(t, StateIdle, framer.State())
}

func TestFramerMessageOwnership(t *testing.T) {
	framer := NewFramer(NewFramerConfig('e'))
	_, err := framer.Feed([]byte("xxxxxAe\n"))
	require.Equal(t, ErrTerminatorNotFound, err)
	_, err = framer.Feed([]byte("xxxxxA\r\n"))
	require.NoError(t, err)
	msg, err := framer.Feed([]byte("xxxxxe\r\n"))
	require.NoError(t, err)
	_, err = framer.Feed([]byte("xxxxxB\r\n"))
	require.NoError(t, err)
	require.Equal(t, "Ae", string(msg.Data))
	require.Equal(t, "B", string(framer.Partial()))
}

func TestFramerConfigValidate(t *testing.T) {
	testCases := []struct {
		name  string
		apply func(*FramerConfig)
		valid bool
	}{
		{"default", func(*FramerConfig) {}, true},
		{"payload first", func(c *FramerConfig) { c.PayloadOffset = 0 }, true},
		{"terminator first", func(c *FramerConfig) { c.TerminatorOffset, c.PayloadOffset = 0, 7 }, true},
		{"zero chunk", func(c *FramerConfig) { c.ChunkSize = 0 }, false},
		{"no terminator", func(c *FramerConfig) { c.Terminator = nil }, false},
		{"terminator outside", func(c *FramerConfig) { c.TerminatorOffset = 7 }, false},
		{"payload outside", func(c *FramerConfig) { c.PayloadOffset = 8 }, false},
		{"payload overlaps", func(c *FramerConfig) { c.PayloadOffset = 7 }, false},
		{"negative max", func(c *FramerConfig) { c.MaxLen = -1 }, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewFramerConfig('e')
			tc.apply(&cfg)
			if tc.valid {
				require.NoError(t, cfg.Validate())
			} else {
				require.Error(t, cfg.Validate())
			}
		})
	}
}

func TestMessageString(t *testing.T) {
	require.Equal(t, `#3 "!e\x00"`, (&Message{Seq: 3, Data: []byte("!e\x00")}).String())
}

func TestAppendPrefix(t *testing.T) {
	data := []byte("Tx data")
	out := AppendPrefix("Echo: ", data)
	require.Equal(t, "Echo: Tx data", string(out))
	out[6] = 'X'
	require.Equal(t, "Tx data", string(data))
	require.True(t, IsRecoverable(ErrMessageTooLong))
	require.False(t, IsRecoverable(errors.New("other")))
}
