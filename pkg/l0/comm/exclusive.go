package comm

import "sync"

// CriticalSection suppresses preemption of the current context.
// Enter returns the state Exit restores, e.g. the interrupt mask.
type CriticalSection interface {
	Enter() uint32
	Exit(state uint32)
}

// MutexSection is a CriticalSection for hosted targets.
type MutexSection struct {
	lock sync.Mutex
}

// Enter implements CriticalSection.
func (s *MutexSection) Enter() uint32 {
	s.lock.Lock()
	return 0
}

// Exit implements CriticalSection.
func (s *MutexSection) Exit(uint32) {
	s.lock.Unlock()
}

// Exclusive guards a value with a CriticalSection. The value is only
// reachable inside Do or With, which never leak the pointer and always
// leave the section, even on panic.
type Exclusive[T any] struct {
	cs  CriticalSection
	val T
}

// NewExclusive creates an Exclusive, using a MutexSection if cs is nil.
func NewExclusive[T any](cs CriticalSection, val T) *Exclusive[T] {
	if cs == nil {
		cs = &MutexSection{}
	}
	return &Exclusive[T]{cs: cs, val: val}
}

// Do runs fn with exclusive access. fn must not block.
func (e *Exclusive[T]) Do(fn func(*T)) {
	state := e.cs.Enter()
	defer e.cs.Exit(state)
	fn(&e.val)
}

// With runs fn with exclusive access and returns its result.
func With[T, R any](e *Exclusive[T], fn func(*T) R) R {
	state := e.cs.Enter()
	defer e.cs.Exit(state)
	return fn(&e.val)
}
