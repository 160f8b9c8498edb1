package mem

import (
	"github.com/golang/glog"

	"github.com/robotalks/xmem.go/pkg/hw"
)

// MinProbeSize is the smallest verify probe, four words.
const MinProbeSize = 16

// Verify writes the word sequence 1, 2, 3, ... over the first probeSize
// bytes at base and reads it back.
func Verify(bus hw.Bus, base uint32, probeSize int) error {
	if probeSize < MinProbeSize {
		probeSize = MinProbeSize
	}
	words := uint32(probeSize / 4)
	for i := uint32(0); i < words; i++ {
		bus.Store32(base+i*4, i+1)
	}
	for i := uint32(0); i < words; i++ {
		addr := base + i*4
		if val := bus.Load32(addr); val != i+1 {
			return stageErr(StageVerify, ErrMemoryVerifyFailed,
				"%#.8x: read %#x want %#x", addr, val, i+1)
		}
	}
	glog.Infof("SDRAM verified %d words at %#.8x", words, base)
	return nil
}
