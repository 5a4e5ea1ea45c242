package recon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romtools/inestool/cartdb"
	"github.com/romtools/inestool/ines"
)

// An all-zero header against a populated database entry: three discrepancies
// in reporting order, and the merged header encodes the database values.
func TestDiffAndMergeZeroHeader(t *testing.T) {
	observed, err := ines.ParseHeader([]byte{
		0x4E, 0x45, 0x53, 0x1A,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	})
	require.NoError(t, err)

	canonical := cartdb.Profile{
		PrgUnits:  2,
		ChrUnits:  1,
		Mirroring: ines.MirrorVertical,
	}

	diffs := Diff(observed, canonical)
	require.Equal(t, []Discrepancy{
		{Field: "PRG ROM", Expected: "32 KiB", Observed: "0 KiB"},
		{Field: "CHR ROM", Expected: "8 KiB", Observed: "CHR RAM"},
		{Field: "Mirroring", Expected: "Vertical", Observed: "Horizontal"},
	}, diffs)

	merged := Merge(observed, canonical)
	assert.Empty(t, Diff(merged, canonical))

	raw, err := merged.Bytes()
	require.NoError(t, err)
	assert.Equal(t, byte(0x02), raw[4])
	assert.Equal(t, byte(0x01), raw[5])
	assert.Equal(t, byte(0x01), raw[6]&0x01, "mirroring bit should be set")
}

func TestDiffOrder(t *testing.T) {
	observed := &ines.Header{
		PrgUnits:  1,
		ChrUnits:  1,
		Mapper:    1,
		Mirroring: ines.MirrorVertical,
	}
	canonical := cartdb.Profile{
		PrgUnits:  2,
		ChrUnits:  2,
		Mapper:    4,
		Mirroring: ines.MirrorFourScreen,
		Battery:   true,
	}

	diffs := Diff(observed, canonical)
	require.Len(t, diffs, 5)

	labels := []string{}
	for _, d := range diffs {
		labels = append(labels, d.Field)
	}
	assert.Equal(t, []string{"PRG ROM", "CHR ROM", "Mapper", "Mirroring", "Has NVRAM"}, labels)
}

func TestDiffEqualHeaders(t *testing.T) {
	observed := &ines.Header{
		PrgUnits:  8,
		ChrUnits:  16,
		Mapper:    4,
		Mirroring: ines.MirrorHorizontal,
		Battery:   true,

		// Fields the database does not track must not affect the diff.
		TvSystem:    ines.TvPAL,
		Trainer:     true,
		PrgRamUnits: 2,
	}
	canonical := cartdb.Profile{
		PrgUnits:  8,
		ChrUnits:  16,
		Mapper:    4,
		Mirroring: ines.MirrorHorizontal,
		Battery:   true,
	}

	assert.Empty(t, Diff(observed, canonical))
}

// With no observed header every compared field is a discrepancy, observed as
// "none".
func TestDiffNoHeader(t *testing.T) {
	canonical := cartdb.Profile{
		PrgUnits:  2,
		ChrUnits:  1,
		Mapper:    3,
		Mirroring: ines.MirrorVertical,
	}

	diffs := Diff(nil, canonical)
	require.Len(t, diffs, 5)
	for _, d := range diffs {
		assert.Equal(t, "none", d.Observed)
	}
	assert.Equal(t, "32 KiB", diffs[0].Expected)
	assert.Equal(t, "false", diffs[4].Expected)
}

// Merging with no observed header synthesizes defaults for the untracked
// fields.
func TestMergeNoHeader(t *testing.T) {
	canonical := cartdb.Profile{
		PrgUnits:  2,
		ChrUnits:  1,
		Mapper:    3,
		Mirroring: ines.MirrorVertical,
		Battery:   true,
	}

	merged := Merge(nil, canonical)
	assert.Equal(t, &ines.Header{
		PrgUnits:  2,
		ChrUnits:  1,
		Mapper:    3,
		Mirroring: ines.MirrorVertical,
		Battery:   true,
		TvSystem:  ines.TvNTSC,
	}, merged)

	assert.Empty(t, Diff(merged, canonical))
}

// Uncompared fields pass through a merge untouched.
func TestMergePreservesUntrackedFields(t *testing.T) {
	observed := &ines.Header{
		PrgUnits:     1,
		TvSystem:     ines.TvPAL,
		Trainer:      true,
		PrgRamUnits:  4,
		PlayChoice10: true,
	}
	canonical := cartdb.Profile{PrgUnits: 2, ChrUnits: 1}

	merged := Merge(observed, canonical)
	assert.Equal(t, uint(2), merged.PrgUnits)
	assert.Equal(t, ines.TvPAL, merged.TvSystem)
	assert.True(t, merged.Trainer)
	assert.True(t, merged.PlayChoice10)
	assert.Equal(t, uint(4), merged.PrgRamUnits)

	// The observed header itself is left alone.
	assert.Equal(t, uint(1), observed.PrgUnits)
}

// Merging twice against the same profile changes nothing further.
func TestMergeIdempotent(t *testing.T) {
	observed := &ines.Header{PrgUnits: 1, Mirroring: ines.MirrorVertical}
	canonical := cartdb.Profile{PrgUnits: 4, ChrUnits: 2, Mapper: 7}

	once := Merge(observed, canonical)
	twice := Merge(once, canonical)
	assert.Equal(t, once, twice)
	assert.Empty(t, Diff(twice, canonical))
}
