package mem

import "fmt"

// AccessPolicy is the access permission of a region.
type AccessPolicy uint8

// Access policies.
const (
	NoAccess AccessPolicy = iota
	ReadOnly
	ReadWrite
)

// AP field encodings (privileged/unprivileged).
const (
	apNoAccess  uint32 = 0x0 // no access
	apReadWrite uint32 = 0x3 // full access
	apReadOnly  uint32 = 0x6 // read-only
)

func (a AccessPolicy) bits() uint32 {
	switch a {
	case ReadOnly:
		return apReadOnly
	case ReadWrite:
		return apReadWrite
	}
	return apNoAccess
}

func accessFromBits(ap uint32) AccessPolicy {
	switch ap {
	case apReadWrite:
		return ReadWrite
	case apReadOnly, 0x7, 0x5:
		return ReadOnly
	}
	return NoAccess
}

func (a AccessPolicy) String() string {
	switch a {
	case ReadOnly:
		return "ro"
	case ReadWrite:
		return "rw"
	}
	return "na"
}

// WritePolicy is the cache write policy of a region.
type WritePolicy uint8

// Write policies.
const (
	WriteBack WritePolicy = iota
	WriteThrough
)

func (w WritePolicy) String() string {
	if w == WriteThrough {
		return "write-through"
	}
	return "write-back"
}

// MinRegionSize is the smallest protected region.
const MinRegionSize = 32

// RASR fields.
const (
	rasrEnable   uint32 = 1 << 0
	rasrSizePos         = 1
	rasrSizeMask uint32 = 0x1f
	rasrB        uint32 = 1 << 16
	rasrC        uint32 = 1 << 17
	rasrAPPos           = 24
	rasrAPMask   uint32 = 0x7
)

// RegionDescriptor describes one protected memory region.
type RegionDescriptor struct {
	Number      uint8
	Base        uint32
	Size        uint64
	Access      AccessPolicy
	Cacheable   bool
	WritePolicy WritePolicy
}

// EncodeSize computes the SIZE field for a region of size bytes, which
// is log2(size)-1. Only 2^5..2^31 are encodable.
func EncodeSize(size uint64) (uint32, error) {
	if size < MinRegionSize || size&(size-1) != 0 {
		return 0, ErrInvalidSize
	}
	for n := uint32(5); n <= 31; n++ {
		if size == uint64(1)<<n {
			return n - 1, nil
		}
	}
	return 0, ErrUnsupportedSize
}

// DecodeSize is the inverse of EncodeSize.
func DecodeSize(enc uint32) uint64 {
	return uint64(1) << ((enc & rasrSizeMask) + 1)
}

// Validate checks the descriptor is encodable.
func (d RegionDescriptor) Validate() error {
	if _, err := EncodeSize(d.Size); err != nil {
		return err
	}
	if uint64(d.Base)&(d.Size-1) != 0 {
		return ErrMisalignedBase
	}
	return nil
}

// Attributes composes the RASR value for the descriptor.
func (d RegionDescriptor) Attributes() (uint32, error) {
	enc, err := EncodeSize(d.Size)
	if err != nil {
		return 0, err
	}
	attr := d.Access.bits()<<rasrAPPos | enc<<rasrSizePos | rasrEnable
	if d.Cacheable {
		attr |= rasrC
	}
	if d.WritePolicy == WriteBack {
		attr |= rasrB
	}
	return attr, nil
}

// End is the first address past the region.
func (d RegionDescriptor) End() uint64 {
	return uint64(d.Base) + d.Size
}

// Covers checks [base, base+size) lies within the region.
func (d RegionDescriptor) Covers(base uint32, size uint64) bool {
	return base >= d.Base && uint64(base)+size <= d.End()
}

func (d RegionDescriptor) String() string {
	cache := "uncached"
	if d.Cacheable {
		cache = "cached"
	}
	return fmt.Sprintf("region %d %#.8x+%#x %s %s %s", d.Number, d.Base, d.Size, d.Access, cache, d.WritePolicy)
}

func decodeRegion(number uint8, rbar, rasr uint32) RegionDescriptor {
	return RegionDescriptor{
		Number:      number,
		Base:        rbar &^ 0x1f,
		Size:        DecodeSize((rasr >> rasrSizePos) & rasrSizeMask),
		Access:      accessFromBits((rasr >> rasrAPPos) & rasrAPMask),
		Cacheable:   rasr&rasrC != 0,
		WritePolicy: writePolicyFromBits(rasr),
	}
}

func writePolicyFromBits(rasr uint32) WritePolicy {
	if rasr&rasrB != 0 {
		return WriteBack
	}
	return WriteThrough
}
