package mem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/xmem.go/pkg/hw"
)

func TestConfigureRegionSequence(t *testing.T) {
	sim, mpu := newTestMPU()
	desc := WindowRegion(1, Bank1, AS4C4M16SA6)
	ready, err := mpu.ConfigureRegion(desc)
	require.NoError(t, err)
	require.Equal(t, desc, ready.Region())
	require.Equal(t, []hw.Op{
		{Kind: hw.OpDMB},
		{Kind: hw.OpStore, Addr: SHCSRAddr, Val: 0},
		{Kind: hw.OpStore, Addr: MPUCtrlAddr, Val: 0},
		{Kind: hw.OpStore, Addr: MPURNRAddr, Val: 1},
		{Kind: hw.OpStore, Addr: MPURBARAddr, Val: 0xC0000000},
		{Kind: hw.OpStore, Addr: MPURASRAddr, Val: 0x0303002d},
		{Kind: hw.OpStore, Addr: MPUCtrlAddr, Val: 0x5},
		{Kind: hw.OpStore, Addr: SHCSRAddr, Val: shcsrMemFaultEna},
		{Kind: hw.OpDSB},
		{Kind: hw.OpISB},
	}, storesAndBarriers(sim.Ops()))
	require.True(t, mpu.Enabled())
}

func TestConfigureRegionRejectsBeforeAnyWrite(t *testing.T) {
	testCases := []struct {
		name string
		desc RegionDescriptor
		err  error
	}{
		{"not power of two", RegionDescriptor{Base: 0xC0000000, Size: 48}, ErrInvalidSize},
		{"too small", RegionDescriptor{Base: 0xC0000000, Size: 16}, ErrInvalidSize},
		{"too large", RegionDescriptor{Base: 0, Size: 1 << 32}, ErrUnsupportedSize},
		{"misaligned", RegionDescriptor{Base: 0xC0000020, Size: 1 << 20}, ErrMisalignedBase},
		{"region number", RegionDescriptor{Number: 16, Base: 0xC0000000, Size: 1 << 20}, ErrInvalidRegion},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sim, mpu := newTestMPU()
			ready, err := mpu.ConfigureRegion(tc.desc)
			require.Nil(t, ready)
			require.True(t, errors.Is(err, tc.err), "%v", err)
			stage, ok := StageOf(err)
			require.True(t, ok)
			require.Equal(t, StageRegion, stage)
			require.Empty(t, storesAndBarriers(sim.Ops()))
			require.Equal(t, shcsrMemFaultEna, sim.Peek(SHCSRAddr))
		})
	}
}

func TestConfigureRegionReadBack(t *testing.T) {
	testCases := []RegionDescriptor{
		{Number: 0, Base: 0x24000000, Size: 512 << 10, Access: ReadWrite, Cacheable: true, WritePolicy: WriteBack},
		{Number: 1, Base: 0xC0000000, Size: 8 << 20, Access: ReadOnly, Cacheable: true, WritePolicy: WriteThrough},
		{Number: 2, Base: 0x08000000, Size: 2 << 20, Access: NoAccess, Cacheable: false, WritePolicy: WriteThrough},
		{Number: 7, Base: 0, Size: 1 << 31, Access: ReadWrite, Cacheable: false, WritePolicy: WriteBack},
		{Number: 15, Base: 0x30000000, Size: 32, Access: ReadOnly, Cacheable: false, WritePolicy: WriteBack},
	}
	for _, desc := range testCases {
		t.Run(desc.String(), func(t *testing.T) {
			sim, mpu := newTestMPU()
			_, err := mpu.ConfigureRegion(desc)
			require.NoError(t, err)
			attr, _ := desc.Attributes()
			require.Equal(t, attr, sim.Peek(MPURASRAddr))
			got, enabled := mpu.ReadRegion(desc.Number)
			require.True(t, enabled)
			require.Equal(t, desc, got)
		})
	}
}

func TestConfigureRegionBusy(t *testing.T) {
	sim, mpu := newTestMPU()
	mpu.busy = 1
	_, err := mpu.ConfigureRegion(WindowRegion(1, Bank1, AS4C4M16SA6))
	require.True(t, errors.Is(err, ErrBusy))
	require.Empty(t, storesAndBarriers(sim.Ops()))
	mpu.busy = 0
	_, err = mpu.ConfigureRegion(WindowRegion(1, Bank1, AS4C4M16SA6))
	require.NoError(t, err)
}

func TestConfigErrorMessage(t *testing.T) {
	err := stageErr(StageVerify, ErrMemoryVerifyFailed, "at %#x", 0x10)
	require.Equal(t, "memory verify: memory verify failed (at 0x10)", err.Error())
	require.Equal(t, "region config: protection unit busy", stageErr(StageRegion, ErrBusy, "").Error())
	_, ok := StageOf(errors.New("other"))
	require.False(t, ok)
}
