package hw

import "time"

// Bus provides 32-bit access to a memory-mapped address space.
type Bus interface {
	Load32(addr uint32) uint32
	Store32(addr uint32, val uint32)
}

// Barrier issues memory ordering instructions.
type Barrier interface {
	// DMB waits for outstanding explicit memory transfers to complete.
	DMB()
	// DSB waits for all memory accesses and maintenance to complete.
	DSB()
	// ISB flushes the pipeline so later instructions observe new state.
	ISB()
}

// Reg is a 32-bit register at a fixed address.
type Reg struct {
	Bus  Bus
	Addr uint32
}

// RegAt creates a Reg.
func RegAt(bus Bus, addr uint32) Reg {
	return Reg{Bus: bus, Addr: addr}
}

// Get reads the register.
func (r Reg) Get() uint32 {
	return r.Bus.Load32(r.Addr)
}

// Set writes the register.
func (r Reg) Set(val uint32) {
	r.Bus.Store32(r.Addr, val)
}

// Modify performs a read-modify-write.
func (r Reg) Modify(fn func(uint32) uint32) {
	r.Set(fn(r.Get()))
}

// SetBits sets the bits in mask.
func (r Reg) SetBits(mask uint32) {
	r.Modify(func(v uint32) uint32 { return v | mask })
}

// ClearBits clears the bits in mask.
func (r Reg) ClearBits(mask uint32) {
	r.Modify(func(v uint32) uint32 { return v &^ mask })
}

// IsSet checks a single bit.
func (r Reg) IsSet(pos uint) bool {
	return r.Get()&(1<<pos) != 0
}

// GetN extracts the field at pos.
func (r Reg) GetN(pos uint, mask uint32) uint32 {
	return Field(r.Get(), pos, mask)
}

// Field extracts (v >> pos) & mask.
func Field(v uint32, pos uint, mask uint32) uint32 {
	return (v >> pos) & mask
}

// SetField replaces the field at pos in v.
func SetField(v uint32, pos uint, mask uint32, val uint32) uint32 {
	return (v &^ (mask << pos)) | ((val & mask) << pos)
}

// Delayer is a blocking millisecond delay.
type Delayer interface {
	DelayMs(ms uint32)
}

// DelayFunc is the func form of Delayer.
type DelayFunc func(ms uint32)

// DelayMs implements Delayer.
func (f DelayFunc) DelayMs(ms uint32) {
	f(ms)
}

// SleepDelay implements Delayer with time.Sleep.
var SleepDelay = DelayFunc(func(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
})
