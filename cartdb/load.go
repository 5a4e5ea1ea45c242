package cartdb

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/romtools/inestool/ines"
)

var (
	// ErrUnreadable means the database file could not be opened or read.
	ErrUnreadable = errors.New("database unreadable")

	// ErrMalformed means the database file was read but could not be
	// understood.
	ErrMalformed = errors.New("database malformed")
)

var logger = log.New(os.Stderr, "[cartdb] ", log.LstdFlags)

// Boards that are hard-wired for four-screen VRAM.  The database encodes
// mirroring as solder pads, which cannot express four-screen, so these are
// matched by board type instead.
var fourScreenBoards = map[string]bool{
	// Gauntlet
	"NES-DRROM":     true,
	"NES-TR1ROM":    true,
	"TENGEN-800004": true,
	// Rad Racer II
	"NES-TVROM": true,
	// Napoleon Senki
	"IREM-74*161/161/21/138": true,
	// May not exist, but are in Nestopia's source
	"HVC-DRROM": true,
	"HVC-TVROM": true,
}

type xmlChip struct {
	Size    string `xml:"size,attr"`
	Battery string `xml:"battery,attr"`
}

type xmlPad struct {
	H int `xml:"h,attr"`
	V int `xml:"v,attr"`
}

type xmlBoard struct {
	Type   string    `xml:"type,attr"`
	Mapper uint      `xml:"mapper,attr"`
	Prg    []xmlChip `xml:"prg"`
	Chr    []xmlChip `xml:"chr"`
	Wram   []xmlChip `xml:"wram"`
	Chips  []xmlChip `xml:"chip"`
	Pad    *xmlPad   `xml:"pad"`

	// Everything else on the board (vram, sound, cic, ...).  The battery
	// attribute can show up on any of them.
	Other []xmlChip `xml:",any"`
}

type xmlEntry struct {
	Crc    string     `xml:"crc,attr"`
	System string     `xml:"system,attr"`
	Boards []xmlBoard `xml:"board"`
}

// Load reads a Nestopia NstDatabase.xml file into an immutable DB.
func Load(path string) (DB, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse builds a DB from database XML.  Entries live in <cartridge> and
// <arcade> elements; anything else in the document is skipped.  When
// multiple entries share a checksum the first one wins, and conflicting
// duplicates are logged.
func Parse(r io.Reader) (DB, error) {
	db := DB{}

	decoder := xml.NewDecoder(r)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || (start.Name.Local != "cartridge" && start.Name.Local != "arcade") {
			continue
		}

		entry := xmlEntry{}
		if err := decoder.DecodeElement(&entry, &start); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		crc, profile, err := parseEntry(entry)
		if err != nil {
			return nil, err
		}

		if existing, ok := db[crc]; ok {
			if existing != profile {
				logger.Printf("multiple different entries for CRC %s, ignoring entries after the first", crc.HexString())
			}
			continue
		}
		db[crc] = profile
	}

	return db, nil
}

func parseEntry(entry xmlEntry) (ines.Crc32, Profile, error) {
	raw, err := strconv.ParseUint(entry.Crc, 16, 32)
	if err != nil {
		return 0, Profile{}, fmt.Errorf("%w: bad crc attribute %q", ErrMalformed, entry.Crc)
	}
	crc := ines.Crc32(raw)

	if len(entry.Boards) != 1 {
		return 0, Profile{}, fmt.Errorf("%w: entry %s has %d board elements", ErrMalformed, crc.HexString(), len(entry.Boards))
	}
	board := entry.Boards[0]

	prg, err := sumSizes(board.Prg, ines.PrgUnit)
	if err != nil {
		return 0, Profile{}, fmt.Errorf("%w: entry %s: %v", ErrMalformed, crc.HexString(), err)
	}
	chr, err := sumSizes(board.Chr, ines.ChrUnit)
	if err != nil {
		return 0, Profile{}, fmt.Errorf("%w: entry %s: %v", ErrMalformed, crc.HexString(), err)
	}
	// Some carts have PRG RAM smaller than the 8 KiB header granularity
	// (Crisis Force has 2 KiB); round up rather than writing zero.
	wram, err := sumSizes(board.Wram, ines.PrgRamUnit)
	if err != nil {
		return 0, Profile{}, fmt.Errorf("%w: entry %s: %v", ErrMalformed, crc.HexString(), err)
	}

	mirroring, err := boardMirroring(board)
	if err != nil {
		return 0, Profile{}, fmt.Errorf("%w: entry %s: %v", ErrMalformed, crc.HexString(), err)
	}

	profile := Profile{
		PrgUnits:     prg,
		ChrUnits:     chr,
		PrgRamUnits:  wram,
		Mapper:       board.Mapper,
		Mirroring:    mirroring,
		Battery:      hasBattery(board),
		PlayChoice10: strings.EqualFold(entry.System, "playchoice-10"),
		VsUnisystem:  strings.EqualFold(entry.System, "vs-unisystem"),
	}

	return crc, profile, nil
}

// parseSize parses the database's "NNNk" size notation into bytes.
func parseSize(value string) (uint, error) {
	digits, ok := strings.CutSuffix(value, "k")
	if !ok {
		return 0, fmt.Errorf("can't parse size %q", value)
	}
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("can't parse size %q", value)
	}
	return uint(n) * 1024, nil
}

// sumSizes totals the chip sizes and converts to header units, rounding up.
func sumSizes(chips []xmlChip, unit uint) (uint, error) {
	var total uint
	for _, chip := range chips {
		size, err := parseSize(chip.Size)
		if err != nil {
			return 0, err
		}
		total += size
	}
	return (total + unit - 1) / unit, nil
}

// hasBattery reports whether any element on the board is battery-backed.
func hasBattery(board xmlBoard) bool {
	for _, chips := range [][]xmlChip{board.Prg, board.Chr, board.Wram, board.Chips, board.Other} {
		for _, chip := range chips {
			if chip.Battery == "1" {
				return true
			}
		}
	}
	return false
}

// boardMirroring derives the mirroring from the solder pad element.  The
// horizontal pad selects vertical mirroring and vice versa.  A board with no
// pad element leaves mirroring to the mapper; the header can only encode that
// as horizontal.
func boardMirroring(board xmlBoard) (ines.MirrorType, error) {
	if fourScreenBoards[board.Type] {
		if board.Pad != nil && (board.Pad.H != 0 || board.Pad.V != 0) {
			return 0, fmt.Errorf("solder pads set on four-screen board %s", board.Type)
		}
		return ines.MirrorFourScreen, nil
	}

	pad := board.Pad
	switch {
	case pad == nil:
		return ines.MirrorHorizontal, nil
	case pad.H != 0 && pad.V != 0:
		return 0, fmt.Errorf("both H and V solder pads set")
	case pad.H != 0:
		return ines.MirrorVertical, nil
	case pad.V != 0:
		return ines.MirrorHorizontal, nil
	default:
		return 0, fmt.Errorf("neither H nor V solder pad set")
	}
}
