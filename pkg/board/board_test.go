package board

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/xmem.go/pkg/l0/mem"
)

func TestGigaR1Pins(t *testing.T) {
	p, ok := Lookup("giga-r1")
	require.True(t, ok)
	require.Empty(t, p.Pins.Missing(p.Chip.RequiredSignals(p.Bank)))
	require.Len(t, p.Pins, len(p.Chip.RequiredSignals(p.Bank)))
	_, ok = Lookup("portenta")
	require.False(t, ok)
}

func TestGigaR1Boot(t *testing.T) {
	sim := NewSim()
	var arena mem.StaticArena
	report, err := GigaR1.Sequence(sim, &arena, 64).Run()
	require.NoError(t, err)
	require.True(t, report.Verified)
	require.Equal(t, uint32(0xC0000000), report.Base)
	require.Equal(t, uint64(8<<20), report.Size)

	region, enabled := mem.NewProtectionUnit(sim, sim).ReadRegion(0)
	require.True(t, enabled)
	require.Equal(t, GigaR1.Region(), region)

	base, size := arena.Bounds()
	require.Equal(t, uintptr(0xC0000000), base)
	require.Equal(t, 8<<20, size)
}

func TestGigaR1Console(t *testing.T) {
	require.Equal(t, "USART1 tx=PA9 rx=PB7 115200 baud", GigaR1.Console.String())
}
