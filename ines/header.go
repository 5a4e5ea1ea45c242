package ines

import (
	"bytes"
	"errors"
	"fmt"
)

const (
	// HeaderSize is the fixed size of an iNES header.
	HeaderSize = 16

	// TrainerSize is the fixed size of the optional trainer block
	// between the header and the PRG data.
	TrainerSize = 512

	// Storage units used by the single-byte size fields.
	PrgUnit    = 16 * 1024
	ChrUnit    = 8 * 1024
	PrgRamUnit = 8 * 1024
)

// Magic is the iNES header signature, "NES" followed by an MS-DOS EOF.
var Magic = []byte{0x4E, 0x45, 0x53, 0x1A}

var unifMagic = []byte("UNIF")

var (
	// ErrNoHeader means the data does not start with the iNES magic.
	// The whole input is then payload; callers decide whether that is
	// an error.
	ErrNoHeader = errors.New("no iNES header present")

	// ErrMalformedHeader means the magic matched but reserved bytes were
	// nonzero.  Headers with undefined extension bytes set are treated as
	// untrustworthy rather than silently accepted.
	ErrMalformedHeader = errors.New("malformed iNES header")

	// ErrUnsupportedFormat covers UNIF and NES 2.0 images.
	ErrUnsupportedFormat = errors.New("unsupported ROM format")
)

// FieldOutOfRangeError is returned by Header.Bytes when a field value does
// not fit its single-byte encoding.
type FieldOutOfRangeError struct {
	Field string
	Value uint
	Max   uint
}

func (e *FieldOutOfRangeError) Error() string {
	return fmt.Sprintf("%s value %d cannot be represented in an iNES header (max %d)", e.Field, e.Value, e.Max)
}

type MirrorType uint8

const (
	MirrorHorizontal MirrorType = iota
	MirrorVertical
	MirrorFourScreen // hard-wired four-screen VRAM
)

func (mt MirrorType) String() string {
	switch mt {
	case MirrorHorizontal:
		return "Horizontal"
	case MirrorVertical:
		return "Vertical"
	case MirrorFourScreen:
		return "Four screen"
	default:
		return fmt.Sprintf("Unknown (%d)", uint8(mt))
	}
}

type TvSystem uint8

const (
	TvNTSC TvSystem = iota
	TvPAL
)

func (tv TvSystem) String() string {
	switch tv {
	case TvNTSC:
		return "NTSC"
	case TvPAL:
		return "PAL"
	default:
		return fmt.Sprintf("Unknown (%d)", uint8(tv))
	}
}

// Header holds the decoded iNES header fields.  Sizes are stored in their
// native header units, not bytes.
type Header struct {
	PrgUnits    uint // PRG ROM, 16 KiB units
	ChrUnits    uint // CHR ROM, 8 KiB units.  Zero means CHR RAM.
	PrgRamUnits uint // PRG RAM, 8 KiB units.  Zero means unspecified.

	Mapper    uint
	Mirroring MirrorType
	TvSystem  TvSystem

	Battery bool // battery-backed PRG RAM
	Trainer bool // 512 byte trainer between header and PRG

	PlayChoice10 bool
	VsUnisystem  bool
}

// HasMagic reports whether raw starts with the iNES signature.
func HasMagic(raw []byte) bool {
	return len(raw) >= len(Magic) && bytes.Equal(raw[:len(Magic)], Magic)
}

// ParseHeader decodes the first 16 bytes of raw.  It returns ErrNoHeader if
// the magic is absent (the input is a bare payload), ErrUnsupportedFormat for
// UNIF and NES 2.0 images, and ErrMalformedHeader if any reserved bit is set.
// Only the first 16 bytes are inspected.
func ParseHeader(raw []byte) (*Header, error) {
	if len(raw) >= len(unifMagic) && bytes.Equal(raw[:len(unifMagic)], unifMagic) {
		return nil, fmt.Errorf("%w: UNIF", ErrUnsupportedFormat)
	}

	if len(raw) < HeaderSize || !HasMagic(raw) {
		return nil, ErrNoHeader
	}

	if raw[7]&0x0C == 0x08 {
		return nil, fmt.Errorf("%w: NES 2.0", ErrUnsupportedFormat)
	}

	if raw[9]&0xFE != 0 {
		return nil, fmt.Errorf("%w: reserved bits set in byte 9 (0x%02X)", ErrMalformedHeader, raw[9])
	}
	for i := 10; i < HeaderSize; i++ {
		if raw[i] != 0 {
			return nil, fmt.Errorf("%w: reserved byte %d is 0x%02X", ErrMalformedHeader, i, raw[i])
		}
	}

	header := &Header{
		PrgUnits:    uint(raw[4]),
		ChrUnits:    uint(raw[5]),
		PrgRamUnits: uint(raw[8]),
	}

	flagSix := raw[6]
	if flagSix&0x01 == 0x01 {
		header.Mirroring = MirrorVertical
	}
	header.Battery = flagSix&0x02 == 0x02
	header.Trainer = flagSix&0x04 == 0x04

	// Hard-wired four-screen overrides the horizontal/vertical bit.
	if flagSix&0x08 == 0x08 {
		header.Mirroring = MirrorFourScreen
	}

	flagSeven := raw[7]
	header.VsUnisystem = flagSeven&0x01 == 0x01
	header.PlayChoice10 = flagSeven&0x02 == 0x02

	header.Mapper = uint(flagSix>>4) | uint(flagSeven&0xF0)

	header.TvSystem = TvSystem(raw[9] & 0x01)

	return header, nil
}

// Bytes encodes the header back into its 16 byte form.  Reserved bytes are
// always written as zero.  Values that came from ParseHeader or from the
// cartridge database always fit; anything else may fail with
// FieldOutOfRangeError.
func (h *Header) Bytes() ([]byte, error) {
	for _, check := range []struct {
		field string
		value uint
	}{
		{"PRG ROM size", h.PrgUnits},
		{"CHR ROM size", h.ChrUnits},
		{"PRG RAM size", h.PrgRamUnits},
		{"mapper", h.Mapper},
	} {
		if check.value > 0xFF {
			return nil, &FieldOutOfRangeError{Field: check.field, Value: check.value, Max: 0xFF}
		}
	}

	data := make([]byte, 0, HeaderSize)
	data = append(data, Magic...)
	data = append(data, uint8(h.PrgUnits), uint8(h.ChrUnits))

	flagSix := uint8(h.Mapper&0x0F) << 4
	if h.Mirroring == MirrorVertical {
		flagSix |= 0x01
	}
	if h.Battery {
		flagSix |= 0x02
	}
	if h.Trainer {
		flagSix |= 0x04
	}
	if h.Mirroring == MirrorFourScreen {
		flagSix |= 0x08
	}
	data = append(data, flagSix)

	flagSeven := uint8(h.Mapper & 0xF0)
	if h.VsUnisystem {
		flagSeven |= 0x01
	}
	if h.PlayChoice10 {
		flagSeven |= 0x02
	}
	data = append(data, flagSeven)

	data = append(data, uint8(h.PrgRamUnits))
	data = append(data, uint8(h.TvSystem)&0x01)

	for len(data) < HeaderSize {
		data = append(data, 0x00)
	}

	return data, nil
}

func (h Header) Debug() string {
	return fmt.Sprintf(`Header:
	PrgUnits: %d
	ChrUnits: %d
	PrgRamUnits: %d
	Mapper: %d
	Mirroring: %s
	TvSystem: %s
	Battery: %t
	Trainer: %t
	PlayChoice10: %t
	VsUnisystem: %t`,
		h.PrgUnits,
		h.ChrUnits,
		h.PrgRamUnits,
		h.Mapper,
		h.Mirroring,
		h.TvSystem,
		h.Battery,
		h.Trainer,
		h.PlayChoice10,
		h.VsUnisystem,
	)
}
