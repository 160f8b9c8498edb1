// Package board describes the boards the firmware runs on.
package board

import (
	"fmt"

	"github.com/robotalks/xmem.go/pkg/hw"
	"github.com/robotalks/xmem.go/pkg/l0/mem"
)

// USART is a serial port and its pins.
type USART struct {
	Name string
	TX   mem.Pin
	RX   mem.Pin
	Baud int
}

func (u USART) String() string {
	return fmt.Sprintf("%s tx=%s rx=%s %d baud", u.Name, u.TX, u.RX, u.Baud)
}

// Profile is the resolved resources of a board.
type Profile struct {
	Name string
	// KernelHz is the memory controller kernel clock (HCLK3).
	KernelHz     uint32
	FMCBase      uint32
	Bank         mem.Bank
	Chip         mem.Chip
	RegionNumber uint8
	Pins         mem.PinSet
	Console      USART
}

// GigaR1 is the Arduino GIGA R1 WiFi, also matching the Portenta H7 FMC
// wiring.
var GigaR1 = Profile{
	Name:         "giga-r1",
	KernelHz:     200000000,
	FMCBase:      mem.FMCBase,
	Bank:         mem.Bank1,
	Chip:         mem.AS4C4M16SA6,
	RegionNumber: 0,
	Pins: mem.PinSet{
		"A0": "PF0", "A1": "PF1", "A2": "PF2", "A3": "PF3",
		"A4": "PF4", "A5": "PF5", "A6": "PF12", "A7": "PF13",
		"A8": "PF14", "A9": "PF15", "A10": "PG0", "A11": "PG1",
		"BA0": "PG4", "BA1": "PG5",
		"D0": "PD14", "D1": "PD15", "D2": "PD0", "D3": "PD1",
		"D4": "PE7", "D5": "PE8", "D6": "PE9", "D7": "PE10",
		"D8": "PE11", "D9": "PE12", "D10": "PE13", "D11": "PE14",
		"D12": "PE15", "D13": "PD8", "D14": "PD9", "D15": "PD10",
		"NBL0": "PE0", "NBL1": "PE1",
		"SDCKE0": "PH2", "SDNE0": "PH3",
		"SDCLK": "PG8", "SDNCAS": "PG15", "SDNRAS": "PF11", "SDNWE": "PH5",
	},
	Console: USART{Name: "USART1", TX: "PA9", RX: "PB7", Baud: 115200},
}

var profiles = map[string]*Profile{
	GigaR1.Name: &GigaR1,
}

// Lookup finds a profile by name.
func Lookup(name string) (*Profile, bool) {
	p, ok := profiles[name]
	return p, ok
}

// Resources binds the controller resources to a bus.
func (p *Profile) Resources(bus hw.Bus) mem.ControllerResources {
	return mem.ControllerResources{
		Bus:     bus,
		RegBase: p.FMCBase,
		Bank:    p.Bank,
		Pins:    p.Pins,
		Clock:   mem.ClockConfig{KernelHz: p.KernelHz},
	}
}

// Region is the protected region covering the SDRAM window.
func (p *Profile) Region() mem.RegionDescriptor {
	return mem.WindowRegion(p.RegionNumber, p.Bank, p.Chip)
}

// Target is the hardware a boot sequence runs on.
type Target interface {
	hw.Bus
	hw.Barrier
	hw.Delayer
}

// Sequence assembles the boot sequence of the board.
func (p *Profile) Sequence(target Target, alloc mem.Allocator, probeSize int) *mem.Sequence {
	return &mem.Sequence{
		MPU:        mem.NewProtectionUnit(target, target),
		Controller: mem.NewController(p.Resources(target), p.Chip),
		Registrar:  mem.NewRegistrar(alloc, int(p.Chip.Size())),
		Region:     p.Region(),
		Delay:      target,
		ProbeSize:  probeSize,
	}
}

// NewSim creates a simulated target with the reset state of the board's
// system control block.
func NewSim() *hw.Sim {
	sim := hw.NewSim()
	sim.Poke(mem.MPUTypeAddr, 16<<8)
	return sim
}
