package mem

import (
	"github.com/robotalks/xmem.go/pkg/hw"
)

const testKernelHz = 200000000

func fullPins(chip Chip, bank Bank) PinSet {
	pins := make(PinSet)
	for _, sig := range chip.RequiredSignals(bank) {
		pins[sig] = Pin("P" + sig)
	}
	return pins
}

func newTestMPU() (*hw.Sim, *ProtectionUnit) {
	sim := hw.NewSim()
	sim.Poke(MPUTypeAddr, 16<<8)
	sim.Poke(SHCSRAddr, shcsrMemFaultEna)
	return sim, NewProtectionUnit(sim, sim)
}

func newTestController(sim *hw.Sim, bank Bank) *Controller {
	return NewController(ControllerResources{
		Bus:     sim,
		RegBase: FMCBase,
		Bank:    bank,
		Pins:    fullPins(AS4C4M16SA6, bank),
		Clock:   ClockConfig{KernelHz: testKernelHz},
	}, AS4C4M16SA6)
}

func storesAndBarriers(ops []hw.Op) (out []hw.Op) {
	for _, op := range ops {
		if op.Kind != hw.OpLoad {
			out = append(out, op)
		}
	}
	return
}
