package ines

import "errors"

// ErrTrainerWithoutHeader is returned when a header claiming a trainer would
// be added to a file that never had a header.  The boundary between trainer
// and payload would be a guess, which would also invalidate the checksum the
// correction was based on.
var ErrTrainerWithoutHeader = errors.New("cannot add a header with a trainer to a headerless ROM")

// PatchHeader applies a corrected header to an original cartridge image.  If
// the image already starts with the iNES magic its first 16 bytes are
// replaced, otherwise a new 16 byte header is prepended.  All other bytes are
// copied unchanged; the payload is never truncated or padded.  The original
// slice is not modified.
func PatchHeader(original []byte, corrected *Header) ([]byte, error) {
	raw, err := corrected.Bytes()
	if err != nil {
		return nil, err
	}

	if len(original) >= HeaderSize && HasMagic(original) {
		patched := make([]byte, len(original))
		copy(patched, original)
		copy(patched, raw)
		return patched, nil
	}

	if corrected.Trainer {
		return nil, ErrTrainerWithoutHeader
	}

	patched := make([]byte, 0, HeaderSize+len(original))
	patched = append(patched, raw...)
	patched = append(patched, original...)
	return patched, nil
}
