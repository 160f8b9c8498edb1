//go:build tamago && arm

package hw

import (
	"sync/atomic"
	"unsafe"
)

// MMIO implements Bus and Barrier on the physical address space of an
// ARMv7 target running a TamaGo unikernel.
type MMIO struct{}

// Load32 implements Bus.
func (MMIO) Load32(addr uint32) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(uintptr(addr))))
}

// Store32 implements Bus.
func (MMIO) Store32(addr uint32, val uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(uintptr(addr))), val)
}

// DMB implements Barrier.
func (MMIO) DMB() { dmb() }

// DSB implements Barrier.
func (MMIO) DSB() { dsb() }

// ISB implements Barrier.
func (MMIO) ISB() { isb() }

// defined in barrier_arm.s
func dmb()
func dsb()
func isb()
