package mem

import (
	"github.com/golang/glog"

	"github.com/robotalks/xmem.go/pkg/hw"
)

// WindowRegion describes the cacheable write-back region covering the
// device window of a bank.
func WindowRegion(number uint8, bank Bank, chip Chip) RegionDescriptor {
	return RegionDescriptor{
		Number:      number,
		Base:        bank.Base(),
		Size:        chip.Size(),
		Access:      ReadWrite,
		Cacheable:   true,
		WritePolicy: WriteBack,
	}
}

// Report summarizes a completed boot sequence.
type Report struct {
	Region    RegionDescriptor
	Base      uint32
	Size      uint64
	Verified  bool
	ProbeSize int
}

// Sequence is the boot chain from region setup to heap handoff.
type Sequence struct {
	MPU        *ProtectionUnit
	Controller *Controller
	Registrar  *Registrar
	Region     RegionDescriptor
	Delay      hw.Delayer
	// ProbeSize enables Verify when positive.
	ProbeSize int
}

// Run executes every stage in order and stops at the first failure.
// Failures are *ConfigError and must halt the caller.
func (s *Sequence) Run() (*Report, error) {
	ready, err := s.MPU.ConfigureRegion(s.Region)
	if err != nil {
		return nil, err
	}
	session, err := s.Controller.BringUp(ready, s.Delay)
	if err != nil {
		return nil, err
	}
	report := &Report{Region: s.Region, Base: session.Base(), Size: session.Size()}
	if s.ProbeSize > 0 {
		if err := Verify(s.Controller.res.Bus, session.Base(), s.ProbeSize); err != nil {
			return nil, err
		}
		report.Verified, report.ProbeSize = true, s.ProbeSize
	}
	if err := s.Registrar.RegisterSession(session); err != nil {
		return nil, err
	}
	glog.Infof("boot sequence complete: %#.8x+%#x", report.Base, report.Size)
	return report, nil
}
