package device

import "strings"

// ChipSpec hard-codes everything the device model needs to know about one
// supported chip: its outer rectangle (in bisection units), per-unit-area
// capacity, SLR count/boundaries, and whether it exposes HBM.
type ChipSpec struct {
	Name       string
	Width      int // outer rectangle width, in bisection units
	Height     int // outer rectangle height, in bisection units
	UnitCap    Resources
	SLRCount   int
	HasHBM     bool
	HBMSLRRow  int // row index (0-based from the bottom) of the HBM-capable SLR
	HBMChanLow int // number of channels on the left half
	HBMChanHi  int // number of channels on the right half
}

// SLRBoundaryRows returns the bisection-grid Y coordinates at which SLR
// boundaries fall, given the chip is split into SLRCount equal horizontal
// bands across Height.
func (c ChipSpec) SLRBoundaryRows() []int {
	bounds := make([]int, 0, c.SLRCount-1)
	for i := 1; i < c.SLRCount; i++ {
		bounds = append(bounds, (c.Height*i)/c.SLRCount)
	}
	return bounds
}

// SLRIndexOf returns which SLR band a Y coordinate in [0,Height) falls in.
func (c ChipSpec) SLRIndexOf(y int) int {
	if c.SLRCount <= 1 {
		return 0
	}
	band := c.Height / c.SLRCount
	if band == 0 {
		return 0
	}
	idx := y / band
	if idx >= c.SLRCount {
		idx = c.SLRCount - 1
	}
	return idx
}

// catalogue is the hard-coded set of supported chips, keyed by part-number
// prefix (the front-end's part_num always begins with one of these).
var catalogue = map[string]ChipSpec{
	"xcu250-": {
		Name: "U250", Width: 8, Height: 8,
		UnitCap:  Resources{LUT: 53130, FF: 106400, BRAM: 72, DSP: 288, URAM: 16},
		SLRCount: 4, HasHBM: false,
	},
	"xcu280-": {
		Name: "U280", Width: 8, Height: 8,
		UnitCap:  Resources{LUT: 44600, FF: 89300, BRAM: 78, DSP: 270, URAM: 32},
		SLRCount: 3, HasHBM: true, HBMSLRRow: 0, HBMChanLow: 16, HBMChanHi: 16,
	},
	"xcu200-": {
		Name: "U200", Width: 8, Height: 8,
		UnitCap:  Resources{LUT: 42000, FF: 84000, BRAM: 69, DSP: 216, URAM: 0},
		SLRCount: 3, HasHBM: false,
	},
	"xcu50-": {
		Name: "U50", Width: 4, Height: 8,
		UnitCap:  Resources{LUT: 34600, FF: 69300, BRAM: 40, DSP: 120, URAM: 16},
		SLRCount: 2, HasHBM: true, HBMSLRRow: 0, HBMChanLow: 16, HBMChanHi: 16,
	},
}

// Lookup resolves a part_num to its ChipSpec by matching prefix. No
// catalogue prefix is a prefix of another, so at most one entry matches.
// Returns ErrUnsupportedDevice if no prefix matches.
func Lookup(partNum string) (ChipSpec, error) {
	for prefix, spec := range catalogue {
		if strings.HasPrefix(partNum, prefix) {
			return spec, nil
		}
	}
	return ChipSpec{}, ErrUnsupportedDevice
}

// IsSupported reports whether partNum resolves to a known chip, without
// surfacing the ErrUnsupportedDevice sentinel.
func IsSupported(partNum string) bool {
	_, err := Lookup(partNum)
	return err == nil
}
