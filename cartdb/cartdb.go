// Package cartdb loads the Nestopia cartridge database and exposes it as an
// immutable mapping from payload checksum to the trusted header state for
// that cartridge.
package cartdb

import (
	"github.com/romtools/inestool/ines"
)

// Profile is the canonical header state for one ROM identity.  The database
// does not track the TV system, trainer presence or reserved bits, so a
// Profile carries fewer fields than an ines.Header.
type Profile struct {
	PrgUnits    uint
	ChrUnits    uint
	PrgRamUnits uint

	Mapper    uint
	Mirroring ines.MirrorType
	Battery   bool

	PlayChoice10 bool
	VsUnisystem  bool
}

// DB maps payload checksums to canonical profiles.  It is built once by Load
// and never mutated afterwards, which makes concurrent lookups safe without
// locking.
type DB map[ines.Crc32]Profile

// Lookup returns the canonical profile for a checksum.  A miss is a normal
// outcome; plenty of ROMs are in no database at all.
func (db DB) Lookup(crc ines.Crc32) (Profile, bool) {
	p, ok := db[crc]
	return p, ok
}
