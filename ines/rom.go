package ines

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// Crc32 is the content identity of a ROM: an IEEE CRC-32 over the payload
// bytes only, excluding the header and the trainer.  This matches the keying
// convention of the Nestopia cartridge database.
type Crc32 uint32

func (crc Crc32) HexString() string {
	return fmt.Sprintf("%08X", uint32(crc))
}

// Checksum computes the content identity of a payload.
func Checksum(payload []byte) Crc32 {
	return Crc32(crc32.ChecksumIEEE(payload))
}

// Rom holds one cartridge image read fully into memory.
type Rom struct {
	// Header is nil when the file carries no iNES header.
	Header *Header

	Trainer []byte
	Payload []byte

	Crc Crc32
}

// LoadRom decodes an in-memory cartridge image.  A file without the iNES
// magic is accepted as a bare payload with a nil Header.  Malformed and
// unsupported headers are errors.
func LoadRom(data []byte) (*Rom, error) {
	h, err := ParseHeader(data)
	if errors.Is(err, ErrNoHeader) {
		return &Rom{Payload: data, Crc: Checksum(data)}, nil
	} else if err != nil {
		return nil, err
	}

	rom := &Rom{Header: h}

	offset := HeaderSize
	if h.Trainer {
		if len(data) < HeaderSize+TrainerSize {
			return nil, fmt.Errorf("%w: trainer flag set on a %d byte file", ErrMalformedHeader, len(data))
		}
		rom.Trainer = data[HeaderSize : HeaderSize+TrainerSize]
		offset += TrainerSize
	}

	rom.Payload = data[offset:]
	rom.Crc = Checksum(rom.Payload)

	return rom, nil
}

// ReadRom reads a complete cartridge image from r.
func ReadRom(r io.Reader) (*Rom, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading ROM: %w", err)
	}

	return LoadRom(data)
}
