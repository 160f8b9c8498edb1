package mem

import (
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
)

// Allocator is the process-wide heap which takes over an arena.
type Allocator interface {
	Init(base uintptr, size int) error
}

// AllocatorFunc adapts a func to Allocator.
type AllocatorFunc func(base uintptr, size int) error

// Init implements Allocator.
func (f AllocatorFunc) Init(base uintptr, size int) error {
	return f(base, size)
}

// Registrar hands a single arena to an Allocator.
type Registrar struct {
	alloc      Allocator
	limit      int
	registered int32
}

// NewRegistrar creates a Registrar. A positive limit bounds the arena size.
func NewRegistrar(alloc Allocator, limit int) *Registrar {
	return &Registrar{alloc: alloc, limit: limit}
}

// Registered reports whether an arena was handed over.
func (r *Registrar) Registered() bool {
	return atomic.LoadInt32(&r.registered) != 0
}

// Register installs [base, base+size) as the heap. It succeeds at most once.
func (r *Registrar) Register(base uintptr, size int) error {
	if size <= 0 || base == 0 || (r.limit > 0 && size > r.limit) {
		return stageErr(StageHeap, ErrInvalidArena, "%#x+%#x", base, size)
	}
	if !atomic.CompareAndSwapInt32(&r.registered, 0, 1) {
		return stageErr(StageHeap, ErrArenaRegistered, "%#x+%#x", base, size)
	}
	if err := r.alloc.Init(base, size); err != nil {
		return stageErr(StageHeap, err, "allocator init")
	}
	glog.Infof("heap arena %#x+%#x", base, size)
	return nil
}

// RegisterSession consumes the session and registers its window.
func (r *Registrar) RegisterSession(s *Session) error {
	if r.Registered() {
		return stageErr(StageHeap, ErrArenaRegistered, "")
	}
	base, size, err := s.Release()
	if err != nil {
		return stageErr(StageHeap, err, "")
	}
	return r.Register(base, size)
}

// StaticArena is an Allocator which only records the arena, used where
// the runtime owns the real heap.
type StaticArena struct {
	base uintptr
	size int
	lock sync.Mutex
}

// Init implements Allocator.
func (a *StaticArena) Init(base uintptr, size int) error {
	a.lock.Lock()
	a.base, a.size = base, size
	a.lock.Unlock()
	return nil
}

// Bounds returns the recorded arena.
func (a *StaticArena) Bounds() (uintptr, int) {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.base, a.size
}
