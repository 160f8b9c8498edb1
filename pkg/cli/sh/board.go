package sh

import (
	"errors"
	"sync"

	"github.com/robotalks/xmem.go/pkg/board"
	"github.com/robotalks/xmem.go/pkg/hw"
	"github.com/robotalks/xmem.go/pkg/l0/comm"
	"github.com/robotalks/xmem.go/pkg/l0/mem"
)

var (
	// ErrNotBooted indicates the SDRAM window is not usable yet.
	ErrNotBooted = errors.New("not booted")
)

// Board is a simulated board driven from the shell.
type Board struct {
	Profile *board.Profile
	Sim     *hw.Sim
	Arena   mem.StaticArena
	Parser  *comm.ParserTask

	seq      *mem.Sequence
	report   *mem.Report
	messages []*comm.Message
	lock     sync.Mutex
}

// NewBoard creates a simulated board in reset state.
func NewBoard(profile *board.Profile, fc comm.FramerConfig, probeSize int) (*Board, error) {
	parser, err := comm.NewParserTask(nil, fc, nil)
	if err != nil {
		return nil, err
	}
	b := &Board{Profile: profile, Sim: board.NewSim(), Parser: parser}
	b.seq = profile.Sequence(b.Sim, &b.Arena, probeSize)
	return b, nil
}

// Boot runs the boot sequence. A board boots once.
func (b *Board) Boot() (*mem.Report, error) {
	report, err := b.seq.Run()
	if err != nil {
		return nil, err
	}
	b.lock.Lock()
	b.report = report
	b.lock.Unlock()
	return report, nil
}

// Report is the result of Boot, nil before.
func (b *Board) Report() *mem.Report {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.report
}

// Region reads back the programmed window region.
func (b *Board) Region() (mem.RegionDescriptor, bool) {
	return b.seq.MPU.ReadRegion(b.Profile.RegionNumber)
}

// Peek reads a word.
func (b *Board) Peek(addr uint32) uint32 {
	return b.Sim.Load32(addr)
}

// Poke writes a word.
func (b *Board) Poke(addr, val uint32) {
	b.Sim.Store32(addr, val)
}

// Verify runs the write/read-back probe over the booted window.
func (b *Board) Verify(probeSize int) error {
	report := b.Report()
	if report == nil {
		return ErrNotBooted
	}
	return mem.Verify(b.Sim, report.Base, probeSize)
}

// Feed frames one raw chunk.
func (b *Board) Feed(chunk []byte) (*comm.Message, error) {
	msg, err := b.Parser.Feed(chunk)
	if msg != nil {
		b.lock.Lock()
		b.messages = append(b.messages, msg)
		b.lock.Unlock()
	}
	return msg, err
}

// Send encodes each byte of text into a chunk and feeds it.
func (b *Board) Send(text []byte) (msgs []*comm.Message) {
	fc := b.Parser.Config()
	for _, c := range text {
		if msg, _ := b.Feed(EncodeChunk(fc, c)); msg != nil {
			msgs = append(msgs, msg)
		}
	}
	return
}

// Messages returns all completed messages.
func (b *Board) Messages() []*comm.Message {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]*comm.Message(nil), b.messages...)
}

// EncodeChunk builds the chunk carrying payload byte c, the way the
// modem reports one received byte.
func EncodeChunk(fc comm.FramerConfig, c byte) []byte {
	chunk := make([]byte, fc.ChunkSize)
	for n := range chunk {
		chunk[n] = '.'
	}
	chunk[fc.PayloadOffset] = c
	copy(chunk[fc.TerminatorOffset:], fc.Terminator)
	return chunk
}
