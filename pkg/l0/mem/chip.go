package mem

import "fmt"

// Chip is the geometry and timing profile of an SDRAM device. Timings
// are in SD clock cycles unless noted.
type Chip struct {
	Name string

	ColumnBits    uint8
	RowBits       uint8
	DataWidth     uint8 // bits
	InternalBanks uint8
	CASLatency    uint8
	ReadBurst     bool
	ReadPipeDelay uint8
	ModeRegister  uint32

	StartupDelayNs      uint32
	MaxSDClockHz        uint32
	RefreshPeriodNs     uint32 // per row
	AutoRefreshCommands uint8

	ModeRegisterToActive uint8 // tMRD
	ExitSelfRefresh      uint8 // tXSR
	ActiveToPrecharge    uint8 // tRAS
	RowCycle             uint8 // tRC
	WriteRecovery        uint8 // tWR
	RowPrecharge         uint8 // tRP
	RowToColumn          uint8 // tRCD
}

// SDRAM mode register fields.
const (
	ModeBurstLength1      uint32 = 0x0000
	ModeBurstSequential   uint32 = 0x0000
	ModeCASLatency2       uint32 = 0x0020
	ModeCASLatency3       uint32 = 0x0030
	ModeOperatingStandard uint32 = 0x0000
	ModeWriteBurstSingle  uint32 = 0x0200
)

// AS4C4M16SA6 is the Alliance AS4C4M16SA-6 64Mbit SDRAM.
var AS4C4M16SA6 = Chip{
	Name:          "as4c4m16sa-6",
	ColumnBits:    8,
	RowBits:       12,
	DataWidth:     16,
	InternalBanks: 4,
	CASLatency:    3,
	ReadBurst:     true,
	ModeRegister: ModeBurstLength1 | ModeBurstSequential | ModeCASLatency3 |
		ModeOperatingStandard | ModeWriteBurstSingle,

	StartupDelayNs:      100000,
	MaxSDClockHz:        166000000,
	RefreshPeriodNs:     15625, // 64ms / 4096 rows
	AutoRefreshCommands: 8,

	ModeRegisterToActive: 2,
	ExitSelfRefresh:      11,
	ActiveToPrecharge:    7,
	RowCycle:             10,
	WriteRecovery:        2,
	RowPrecharge:         3,
	RowToColumn:          3,
}

// Size is the device capacity in bytes.
func (c Chip) Size() uint64 {
	return uint64(c.InternalBanks) << (c.RowBits + c.ColumnBits) * uint64(c.DataWidth/8)
}

// AddressLines is the number of multiplexed address lines.
func (c Chip) AddressLines() int {
	if c.RowBits > c.ColumnBits {
		return int(c.RowBits)
	}
	return int(c.ColumnBits)
}

// RequiredSignals lists the controller signals the device needs on bank.
func (c Chip) RequiredSignals(bank Bank) []string {
	var sig []string
	for i := 0; i < c.AddressLines(); i++ {
		sig = append(sig, fmt.Sprintf("A%d", i))
	}
	for i := 0; 1<<i < int(c.InternalBanks); i++ {
		sig = append(sig, fmt.Sprintf("BA%d", i))
	}
	for i := 0; i < int(c.DataWidth); i++ {
		sig = append(sig, fmt.Sprintf("D%d", i))
	}
	for i := 0; i < int(c.DataWidth/8); i++ {
		sig = append(sig, fmt.Sprintf("NBL%d", i))
	}
	n := bank.index()
	return append(sig,
		fmt.Sprintf("SDCKE%d", n),
		fmt.Sprintf("SDNE%d", n),
		"SDCLK", "SDNCAS", "SDNRAS", "SDNWE")
}

// RefreshCount computes the refresh timer count for an SD clock.
func (c Chip) RefreshCount(sdClockHz uint32) uint32 {
	cycles := uint64(c.RefreshPeriodNs) * uint64(sdClockHz) / 1000000000
	if cycles <= 20 {
		return 0
	}
	return uint32(cycles - 20)
}

func (c Chip) String() string {
	return fmt.Sprintf("%s %dMiB %dx%dx%d/%dbit CL%d", c.Name, c.Size()>>20,
		c.InternalBanks, 1<<c.RowBits, 1<<c.ColumnBits, c.DataWidth, c.CASLatency)
}
