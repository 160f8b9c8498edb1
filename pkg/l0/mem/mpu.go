package mem

import (
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/xmem.go/pkg/hw"
)

// ARMv7-M system control and MPU registers.
const (
	SHCSRAddr   uint32 = 0xE000ED24
	MPUTypeAddr uint32 = 0xE000ED90
	MPUCtrlAddr uint32 = 0xE000ED94
	MPURNRAddr  uint32 = 0xE000ED98
	MPURBARAddr uint32 = 0xE000ED9C
	MPURASRAddr uint32 = 0xE000EDA0
)

const (
	shcsrMemFaultEna uint32 = 1 << 16

	ctrlEnable     uint32 = 1 << 0
	ctrlPrivDefEna uint32 = 1 << 2

	typeDRegionPos         = 8
	typeDRegionMask uint32 = 0xff
)

// ProtectionUnit owns the MPU registers.
type ProtectionUnit struct {
	SHCSR hw.Reg
	TYPE  hw.Reg
	CTRL  hw.Reg
	RNR   hw.Reg
	RBAR  hw.Reg
	RASR  hw.Reg

	barrier hw.Barrier
	busy    int32
}

// RegionReady proves a region was programmed by ConfigureRegion.
type RegionReady struct {
	desc RegionDescriptor
}

// Region returns the programmed descriptor.
func (r *RegionReady) Region() RegionDescriptor {
	return r.desc
}

// NewProtectionUnit binds the MPU at its architectural addresses.
func NewProtectionUnit(bus hw.Bus, barrier hw.Barrier) *ProtectionUnit {
	return &ProtectionUnit{
		SHCSR:   hw.RegAt(bus, SHCSRAddr),
		TYPE:    hw.RegAt(bus, MPUTypeAddr),
		CTRL:    hw.RegAt(bus, MPUCtrlAddr),
		RNR:     hw.RegAt(bus, MPURNRAddr),
		RBAR:    hw.RegAt(bus, MPURBARAddr),
		RASR:    hw.RegAt(bus, MPURASRAddr),
		barrier: barrier,
	}
}

// Regions returns the number of regions the unit supports, 0 if unknown.
func (p *ProtectionUnit) Regions() int {
	return int(p.TYPE.GetN(typeDRegionPos, typeDRegionMask))
}

// ConfigureRegion programs one region and re-enables the unit with the
// privileged default memory map as background.
//
// The descriptor is validated before any register access: an invalid
// encoding must never reach the hardware. The unit is left enabled and
// all writes are visible to subsequent instructions when this returns.
func (p *ProtectionUnit) ConfigureRegion(desc RegionDescriptor) (*RegionReady, error) {
	if !atomic.CompareAndSwapInt32(&p.busy, 0, 1) {
		return nil, stageErr(StageRegion, ErrBusy, "")
	}
	defer atomic.StoreInt32(&p.busy, 0)

	attr, err := desc.Attributes()
	if err != nil {
		return nil, stageErr(StageRegion, err, "size %#x", desc.Size)
	}
	if err := desc.Validate(); err != nil {
		return nil, stageErr(StageRegion, err, "base %#.8x size %#x", desc.Base, desc.Size)
	}
	if n := p.Regions(); n > 0 && int(desc.Number) >= n {
		return nil, stageErr(StageRegion, ErrInvalidRegion, "region %d of %d", desc.Number, n)
	}

	// outstanding transfers must complete before reconfiguration
	p.barrier.DMB()
	// the transient region state must not raise a MemManage fault
	p.SHCSR.ClearBits(shcsrMemFaultEna)
	p.CTRL.Set(0)

	p.RNR.Set(uint32(desc.Number))
	p.RBAR.Set(desc.Base)
	p.RASR.Set(attr)

	p.CTRL.SetBits(ctrlPrivDefEna | ctrlEnable)
	p.SHCSR.SetBits(shcsrMemFaultEna)
	p.barrier.DSB()
	p.barrier.ISB()

	glog.Infof("MPU %s attr=%#.8x", desc, attr)
	return &RegionReady{desc: desc}, nil
}

// ReadRegion reads back and decodes a programmed region.
func (p *ProtectionUnit) ReadRegion(number uint8) (RegionDescriptor, bool) {
	p.RNR.Set(uint32(number))
	rbar, rasr := p.RBAR.Get(), p.RASR.Get()
	return decodeRegion(number, rbar, rasr), rasr&rasrEnable != 0
}

// Enabled reports whether the unit is enabled.
func (p *ProtectionUnit) Enabled() bool {
	return p.CTRL.Get()&ctrlEnable != 0
}
