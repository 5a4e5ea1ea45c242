package cartdb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romtools/inestool/ines"
)

const testDatabase = `<?xml version="1.0" encoding="UTF-8"?>
<database version="1.0" conformance="strict">
	<game>
		<cartridge system="NES-NTSC" crc="AABBCCDD" sha1="0000000000000000000000000000000000000000" dump="ok">
			<board type="NES-SNROM" mapper="1">
				<prg size="128k"/>
				<wram size="8k" battery="1"/>
				<pad h="0" v="1"/>
			</board>
		</cartridge>
		<cartridge system="NES-PAL" crc="00000001" sha1="0000000000000000000000000000000000000000" dump="ok">
			<board type="NES-NROM-256" mapper="0">
				<prg size="32k"/>
				<chr size="8k"/>
				<pad h="1" v="0"/>
			</board>
		</cartridge>
		<cartridge system="Famicom" crc="00000002" sha1="0000000000000000000000000000000000000000" dump="ok">
			<board type="KONAMI-VRC-4" mapper="21">
				<prg size="256k"/>
				<chr size="256k"/>
				<wram size="2k"/>
			</board>
		</cartridge>
		<cartridge system="NES-NTSC" crc="00000003" sha1="0000000000000000000000000000000000000000" dump="ok">
			<board type="NES-TR1ROM" mapper="4">
				<prg size="64k"/>
				<chr size="64k"/>
			</board>
		</cartridge>
	</game>
	<arcade system="VS-Unisystem" crc="00000004" sha1="0000000000000000000000000000000000000000" dump="ok">
		<board type="NES-NROM-256" mapper="99">
			<prg size="32k"/>
			<chr size="8k"/>
		</board>
	</arcade>
</database>`

func TestParse(t *testing.T) {
	db, err := Parse(strings.NewReader(testDatabase))
	require.NoError(t, err)
	require.Len(t, db, 5)

	// Battery-backed SNROM, vertical solder pad means horizontal mirroring.
	p, ok := db.Lookup(ines.Crc32(0xAABBCCDD))
	require.True(t, ok)
	assert.Equal(t, Profile{
		PrgUnits:    8,
		ChrUnits:    0,
		PrgRamUnits: 1,
		Mapper:      1,
		Mirroring:   ines.MirrorHorizontal,
		Battery:     true,
	}, p)

	// Horizontal pad means vertical mirroring.
	p, ok = db.Lookup(ines.Crc32(1))
	require.True(t, ok)
	assert.Equal(t, uint(2), p.PrgUnits)
	assert.Equal(t, uint(1), p.ChrUnits)
	assert.Equal(t, ines.MirrorVertical, p.Mirroring)
	assert.False(t, p.Battery)

	// No pad element: mapper-controlled, encoded as horizontal.  The 2 KiB
	// work RAM rounds up to one 8 KiB unit.
	p, ok = db.Lookup(ines.Crc32(2))
	require.True(t, ok)
	assert.Equal(t, ines.MirrorHorizontal, p.Mirroring)
	assert.Equal(t, uint(1), p.PrgRamUnits)
	assert.Equal(t, uint(21), p.Mapper)

	// Four-screen board type.
	p, ok = db.Lookup(ines.Crc32(3))
	require.True(t, ok)
	assert.Equal(t, ines.MirrorFourScreen, p.Mirroring)

	// Arcade entry.
	p, ok = db.Lookup(ines.Crc32(4))
	require.True(t, ok)
	assert.True(t, p.VsUnisystem)
	assert.False(t, p.PlayChoice10)
}

// The battery attribute may sit on board elements the loader has no other
// interest in.
func TestParseBatteryOnOtherElements(t *testing.T) {
	doc := `<database><game>
		<cartridge system="NES-NTSC" crc="00000020">
			<board mapper="5"><prg size="128k"/><vram size="8k" battery="1"/></board>
		</cartridge>
		<cartridge system="NES-NTSC" crc="00000021">
			<board mapper="5"><prg size="128k"/><sound type="MMC5" battery="1"/></board>
		</cartridge>
	</game></database>`

	db, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	for _, crc := range []ines.Crc32{0x20, 0x21} {
		p, ok := db.Lookup(crc)
		require.True(t, ok)
		assert.True(t, p.Battery, "crc %s", crc.HexString())
	}
}

func TestParseDuplicateKeepsFirst(t *testing.T) {
	doc := `<database><game>
		<cartridge system="NES-NTSC" crc="00000010">
			<board mapper="0"><prg size="32k"/><chr size="8k"/></board>
		</cartridge>
		<cartridge system="NES-NTSC" crc="00000010">
			<board mapper="7"><prg size="128k"/></board>
		</cartridge>
	</game></database>`

	db, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, db, 1)

	p, ok := db.Lookup(ines.Crc32(0x10))
	require.True(t, ok)
	assert.Equal(t, uint(0), p.Mapper)
	assert.Equal(t, uint(2), p.PrgUnits)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "truncated document",
			doc:  `<database><game><cartridge crc="00000001">`,
		}, {
			name: "bad crc",
			doc:  `<database><cartridge crc="xyz"><board/></cartridge></database>`,
		}, {
			name: "no board",
			doc:  `<database><cartridge crc="00000001"></cartridge></database>`,
		}, {
			name: "bad size",
			doc:  `<database><cartridge crc="00000001"><board><prg size="32"/></board></cartridge></database>`,
		}, {
			name: "both pads set",
			doc:  `<database><cartridge crc="00000001"><board><prg size="32k"/><pad h="1" v="1"/></board></cartridge></database>`,
		}, {
			name: "neither pad set",
			doc:  `<database><cartridge crc="00000001"><board><prg size="32k"/><pad h="0" v="0"/></board></cartridge></database>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/does-not-exist.xml")
	assert.ErrorIs(t, err, ErrUnreadable)
}
