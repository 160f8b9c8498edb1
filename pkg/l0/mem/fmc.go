package mem

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/xmem.go/pkg/hw"
)

// Bank selects an SDRAM bank of the memory controller.
type Bank int

// SDRAM banks.
const (
	Bank1 Bank = iota
	Bank2
)

// Bank windows in the address space.
const (
	Bank1Base   uint32 = 0xC0000000
	Bank2Base   uint32 = 0xD0000000
	BankMaxSize uint64 = 256 << 20
)

// Base returns the start of the bank window.
func (b Bank) Base() uint32 {
	if b == Bank2 {
		return Bank2Base
	}
	return Bank1Base
}

func (b Bank) index() int {
	return int(b)
}

func (b Bank) target() uint32 {
	if b == Bank2 {
		return sdcmrCTB2
	}
	return sdcmrCTB1
}

func (b Bank) String() string {
	return fmt.Sprintf("bank%d", int(b)+1)
}

// FMCBase is the controller register block on STM32H7.
const FMCBase uint32 = 0x52004000

// Register offsets from the controller base.
const (
	bcr1Off  uint32 = 0x000
	sdcr1Off uint32 = 0x140
	sdcr2Off uint32 = 0x144
	sdtr1Off uint32 = 0x148
	sdtr2Off uint32 = 0x14C
	sdcmrOff uint32 = 0x150
	sdrtrOff uint32 = 0x154
	sdsrOff  uint32 = 0x158
)

const (
	bcr1FMCEN uint32 = 1 << 31

	sdcrNCPos     = 0
	sdcrNRPos     = 2
	sdcrMWIDPos   = 4
	sdcrNB4       = 1 << 6
	sdcrCASPos    = 7
	sdcrSDCLKPos  = 10
	sdcrRBURST    = 1 << 12
	sdcrRPIPEPos  = 13
	sdcrSharedMsk = 3<<sdcrSDCLKPos | sdcrRBURST | 3<<sdcrRPIPEPos

	sdtrTMRDPos = 0
	sdtrTXSRPos = 4
	sdtrTRASPos = 8
	sdtrTRCPos  = 12
	sdtrTWRPos  = 16
	sdtrTRPPos  = 20
	sdtrTRCDPos = 24
	sdtrShared  = 0xf<<sdtrTRCPos | 0xf<<sdtrTRPPos

	sdcmrCTB2    uint32 = 1 << 3
	sdcmrCTB1    uint32 = 1 << 4
	sdcmrNRFSPos        = 5
	sdcmrMRDPos         = 9

	sdrtrCountPos         = 1
	sdrtrCountMask uint32 = 0x1fff

	sdsrBusyPos = 5
)

// Command is an SDRAM command mode.
type Command uint32

// SDRAM commands.
const (
	CmdNormal Command = iota
	CmdClockEnable
	CmdPrechargeAll
	CmdAutoRefresh
	CmdLoadMode
	CmdSelfRefresh
	CmdPowerDown
)

var cmdNames = [...]string{"NORMAL", "CLK_EN", "PALL", "AUTOREFRESH", "LOAD_MODE", "SELF_REFRESH", "POWER_DOWN"}

func (c Command) String() string {
	if int(c) < len(cmdNames) {
		return cmdNames[c]
	}
	return fmt.Sprintf("CMD%d", uint32(c))
}

// BusyPollLimit bounds the polls of the busy flag before each command.
var BusyPollLimit = 100000

// Pin is an opaque handle of a configured alternate function pin.
type Pin string

// PinSet maps controller signals to pins.
type PinSet map[string]Pin

// Missing returns the signals not present in the set, sorted.
func (p PinSet) Missing(signals []string) (missing []string) {
	for _, sig := range signals {
		if _, ok := p[sig]; !ok {
			missing = append(missing, sig)
		}
	}
	sort.Strings(missing)
	return
}

// ClockConfig describes the controller kernel clock.
type ClockConfig struct {
	KernelHz uint32
}

// ControllerResources are the hardware resources a Controller owns.
type ControllerResources struct {
	Bus     hw.Bus
	RegBase uint32
	Bank    Bank
	Pins    PinSet
	Clock   ClockConfig
}

// Controller drives the SDRAM side of the flexible memory controller.
type Controller struct {
	BCR1  hw.Reg
	SDCR1 hw.Reg
	SDCR2 hw.Reg
	SDTR1 hw.Reg
	SDTR2 hw.Reg
	SDCMR hw.Reg
	SDRTR hw.Reg
	SDSR  hw.Reg

	res         ControllerResources
	chip        Chip
	initialized int32
}

// Session is an initialized SDRAM window. Its memory may be handed to
// the heap exactly once through Release.
type Session struct {
	base     uint32
	size     uint64
	consumed int32
}

// NewController binds the controller registers.
func NewController(res ControllerResources, chip Chip) *Controller {
	reg := func(off uint32) hw.Reg { return hw.RegAt(res.Bus, res.RegBase+off) }
	return &Controller{
		BCR1:  reg(bcr1Off),
		SDCR1: reg(sdcr1Off),
		SDCR2: reg(sdcr2Off),
		SDTR1: reg(sdtr1Off),
		SDTR2: reg(sdtr2Off),
		SDCMR: reg(sdcmrOff),
		SDRTR: reg(sdrtrOff),
		SDSR:  reg(sdsrOff),
		res:   res,
		chip:  chip,
	}
}

// Chip returns the device profile.
func (c *Controller) Chip() Chip {
	return c.chip
}

// Window returns the address range the device occupies.
func (c *Controller) Window() (uint32, uint64) {
	return c.res.Bank.Base(), c.chip.Size()
}

// SDClockDivider picks the smallest kernel clock divider (2 or 3) which
// keeps the SD clock within the chip limit.
func (c *Controller) SDClockDivider() (uint32, error) {
	for div := uint32(2); div <= 3; div++ {
		if c.res.Clock.KernelHz/div <= c.chip.MaxSDClockHz {
			return div, nil
		}
	}
	return 0, ErrClockTooFast
}

// BringUp runs the JEDEC power-up sequence and returns the session of
// the initialized window. The region proven by ready must cover the
// window as cacheable write-back memory.
func (c *Controller) BringUp(ready *RegionReady, delay hw.Delayer) (*Session, error) {
	if ready == nil {
		return nil, stageErr(StageController, ErrRegionNotReady, "")
	}
	base, size := c.Window()
	region := ready.Region()
	if !region.Covers(base, size) || !region.Cacheable ||
		region.WritePolicy != WriteBack || region.Access != ReadWrite {
		return nil, stageErr(StageController, ErrRegionMismatch, "%s vs window %#.8x+%#x", region, base, size)
	}
	if missing := c.res.Pins.Missing(c.chip.RequiredSignals(c.res.Bank)); len(missing) > 0 {
		return nil, stageErr(StageController, ErrMissingPin, "%v", missing)
	}
	div, err := c.SDClockDivider()
	if err != nil {
		return nil, stageErr(StageController, err, "kernel %dHz max %dHz", c.res.Clock.KernelHz, c.chip.MaxSDClockHz)
	}
	if !atomic.CompareAndSwapInt32(&c.initialized, 0, 1) {
		return nil, stageErr(StageController, ErrAlreadyInitialized, "%s", c.res.Bank)
	}
	sdHz := c.res.Clock.KernelHz / div
	glog.Infof("FMC %s %s SDCLK=%dHz", c.res.Bank, c.chip, sdHz)

	c.BCR1.SetBits(bcr1FMCEN)
	c.programControl(div)
	c.programTiming()

	if err := c.command(CmdClockEnable, 1, 0); err != nil {
		return nil, err
	}
	delay.DelayMs((c.chip.StartupDelayNs + 999999) / 1000000)
	if err := c.command(CmdPrechargeAll, 1, 0); err != nil {
		return nil, err
	}
	if err := c.command(CmdAutoRefresh, uint32(c.chip.AutoRefreshCommands), 0); err != nil {
		return nil, err
	}
	if err := c.command(CmdLoadMode, 1, c.chip.ModeRegister); err != nil {
		return nil, err
	}
	count := c.chip.RefreshCount(sdHz)
	c.SDRTR.Modify(func(v uint32) uint32 {
		return hw.SetField(v, sdrtrCountPos, sdrtrCountMask, count)
	})
	glog.V(1).Infof("FMC refresh count %d", count)
	return &Session{base: base, size: size}, nil
}

func (c *Controller) programControl(div uint32) {
	chip := c.chip
	shared := div<<sdcrSDCLKPos | uint32(chip.ReadPipeDelay)<<sdcrRPIPEPos
	if chip.ReadBurst {
		shared |= sdcrRBURST
	}
	widthEnc := uint32(0)
	switch chip.DataWidth {
	case 16:
		widthEnc = 1
	case 32:
		widthEnc = 2
	}
	ctl := uint32(chip.ColumnBits-8)<<sdcrNCPos |
		uint32(chip.RowBits-11)<<sdcrNRPos |
		widthEnc<<sdcrMWIDPos |
		uint32(chip.CASLatency)<<sdcrCASPos
	if chip.InternalBanks == 4 {
		ctl |= sdcrNB4
	}
	if c.res.Bank == Bank1 {
		c.SDCR1.Set(ctl | shared)
		return
	}
	// clock, burst and pipe settings only exist in SDCR1
	c.SDCR1.Modify(func(v uint32) uint32 { return v&^sdcrSharedMsk | shared })
	c.SDCR2.Set(ctl)
}

func (c *Controller) programTiming() {
	chip := c.chip
	field := func(cycles uint8, pos uint) uint32 {
		if cycles == 0 {
			return 0
		}
		return uint32(cycles-1) & 0xf << pos
	}
	tr := field(chip.ModeRegisterToActive, sdtrTMRDPos) |
		field(chip.ExitSelfRefresh, sdtrTXSRPos) |
		field(chip.ActiveToPrecharge, sdtrTRASPos) |
		field(chip.RowCycle, sdtrTRCPos) |
		field(chip.WriteRecovery, sdtrTWRPos) |
		field(chip.RowPrecharge, sdtrTRPPos) |
		field(chip.RowToColumn, sdtrTRCDPos)
	if c.res.Bank == Bank1 {
		c.SDTR1.Set(tr)
		return
	}
	// TRC and TRP only exist in SDTR1
	c.SDTR1.Modify(func(v uint32) uint32 { return v&^sdtrShared | tr&sdtrShared })
	c.SDTR2.Set(tr)
}

func (c *Controller) waitReady() error {
	for i := 0; i < BusyPollLimit; i++ {
		if !c.SDSR.IsSet(sdsrBusyPos) {
			return nil
		}
	}
	return stageErr(StageController, ErrControllerTimeout, "after %d polls", BusyPollLimit)
}

func (c *Controller) command(cmd Command, refresh uint32, mode uint32) error {
	if err := c.waitReady(); err != nil {
		return err
	}
	if refresh == 0 {
		refresh = 1
	}
	val := uint32(cmd) | c.res.Bank.target() |
		(refresh-1)&0xf<<sdcmrNRFSPos | mode&0x3fff<<sdcmrMRDPos
	glog.V(2).Infof("FMC %s %s SDCMR=%#.8x", c.res.Bank, cmd, val)
	c.SDCMR.Set(val)
	return nil
}

// Base is the start address of the window.
func (s *Session) Base() uint32 {
	return s.base
}

// Size is the window size in bytes.
func (s *Session) Size() uint64 {
	return s.size
}

// Consumed reports whether the memory was released.
func (s *Session) Consumed() bool {
	return atomic.LoadInt32(&s.consumed) != 0
}

// Release hands out the window. Only the first call succeeds.
func (s *Session) Release() (uintptr, int, error) {
	if !atomic.CompareAndSwapInt32(&s.consumed, 0, 1) {
		return 0, 0, ErrSessionConsumed
	}
	return uintptr(s.base), int(s.size), nil
}
