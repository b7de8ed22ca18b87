package device_test

import (
	"testing"

	"github.com/sfu-hiaccel/fprbridge/device"
	"github.com/stretchr/testify/require"
)

func TestLookup_SupportedPrefixes(t *testing.T) {
	cases := []string{
		"xcu250-figd2104-2L-e",
		"xcu280-fsvh2892-2L-e",
		"xcu200-fsgd2104-2-e",
		"xcu50-fsvh2104-2-e",
	}
	for _, partNum := range cases {
		spec, err := device.Lookup(partNum)
		require.NoErrorf(t, err, "expected %s to be supported", partNum)
		require.NotEmpty(t, spec.Name)
	}
}

func TestLookup_Unsupported(t *testing.T) {
	_, err := device.Lookup("xc-nonexistent")
	require.ErrorIs(t, err, device.ErrUnsupportedDevice)
	require.False(t, device.IsSupported("xc-nonexistent"))
}
