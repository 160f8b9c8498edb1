package hw

import (
	"fmt"
	"sync"
)

// OpKind identifies a traced operation.
type OpKind int

// Traced operations.
const (
	OpLoad OpKind = iota
	OpStore
	OpDMB
	OpDSB
	OpISB
	OpDelay
)

var opNames = [...]string{"LD", "ST", "DMB", "DSB", "ISB", "DELAY"}

func (k OpKind) String() string {
	if int(k) < len(opNames) {
		return opNames[k]
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// Op is one traced operation. Val is the value loaded/stored or the
// delay in milliseconds.
type Op struct {
	Kind OpKind
	Addr uint32
	Val  uint32
}

func (o Op) String() string {
	switch o.Kind {
	case OpLoad, OpStore:
		return fmt.Sprintf("%s %#.8x %#.8x", o.Kind, o.Addr, o.Val)
	case OpDelay:
		return fmt.Sprintf("%s %dms", o.Kind, o.Val)
	}
	return o.Kind.String()
}

// LoadHook computes the value returned by a load from the stored value.
type LoadHook func(stored uint32) uint32

// StoreHook observes a store after it is applied.
type StoreHook func(sim *Sim, val uint32)

// Sim is a simulated address space implementing Bus, Barrier and Delayer.
// Unwritten words read as zero.
type Sim struct {
	// Trace enables recording of operations.
	Trace bool

	words      map[uint32]uint32
	ops        []Op
	loadHooks  map[uint32]LoadHook
	storeHooks map[uint32]StoreHook
	lock       sync.Mutex
}

// NewSim creates a Sim with tracing enabled.
func NewSim() *Sim {
	return &Sim{
		Trace:      true,
		words:      make(map[uint32]uint32),
		loadHooks:  make(map[uint32]LoadHook),
		storeHooks: make(map[uint32]StoreHook),
	}
}

// OnLoad installs a hook for loads from addr.
func (s *Sim) OnLoad(addr uint32, hook LoadHook) {
	s.lock.Lock()
	s.loadHooks[addr&^3] = hook
	s.lock.Unlock()
}

// OnStore installs a hook for stores to addr.
func (s *Sim) OnStore(addr uint32, hook StoreHook) {
	s.lock.Lock()
	s.storeHooks[addr&^3] = hook
	s.lock.Unlock()
}

// Load32 implements Bus.
func (s *Sim) Load32(addr uint32) uint32 {
	addr &^= 3
	s.lock.Lock()
	val := s.words[addr]
	if hook := s.loadHooks[addr]; hook != nil {
		val = hook(val)
	}
	s.record(Op{Kind: OpLoad, Addr: addr, Val: val})
	s.lock.Unlock()
	return val
}

// Store32 implements Bus.
func (s *Sim) Store32(addr uint32, val uint32) {
	addr &^= 3
	s.lock.Lock()
	s.words[addr] = val
	s.record(Op{Kind: OpStore, Addr: addr, Val: val})
	hook := s.storeHooks[addr]
	s.lock.Unlock()
	if hook != nil {
		hook(s, val)
	}
}

// Poke writes a word without tracing or hooks.
func (s *Sim) Poke(addr uint32, val uint32) {
	s.lock.Lock()
	s.words[addr&^3] = val
	s.lock.Unlock()
}

// Peek reads a word without tracing or hooks.
func (s *Sim) Peek(addr uint32) uint32 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.words[addr&^3]
}

// DMB implements Barrier.
func (s *Sim) DMB() { s.recordLocked(Op{Kind: OpDMB}) }

// DSB implements Barrier.
func (s *Sim) DSB() { s.recordLocked(Op{Kind: OpDSB}) }

// ISB implements Barrier.
func (s *Sim) ISB() { s.recordLocked(Op{Kind: OpISB}) }

// DelayMs implements Delayer. No time passes in simulation.
func (s *Sim) DelayMs(ms uint32) { s.recordLocked(Op{Kind: OpDelay, Val: ms}) }

// Ops returns a copy of the trace.
func (s *Sim) Ops() []Op {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Op(nil), s.ops...)
}

// Stores returns the traced stores to addr, in order.
func (s *Sim) Stores(addr uint32) (vals []uint32) {
	for _, op := range s.Ops() {
		if op.Kind == OpStore && op.Addr == addr&^3 {
			vals = append(vals, op.Val)
		}
	}
	return
}

// ResetTrace drops recorded operations.
func (s *Sim) ResetTrace() {
	s.lock.Lock()
	s.ops = nil
	s.lock.Unlock()
}

func (s *Sim) recordLocked(op Op) {
	s.lock.Lock()
	s.record(op)
	s.lock.Unlock()
}

func (s *Sim) record(op Op) {
	if s.Trace {
		s.ops = append(s.ops, op)
	}
}
