// Package recon compares an observed iNES header against the canonical
// database profile for the same checksum and produces corrected headers.
package recon

import (
	"fmt"

	"github.com/romtools/inestool/cartdb"
	"github.com/romtools/inestool/ines"
)

// Discrepancy is one field-level difference between the database and an
// observed header.  Values are pre-rendered for reporting.
type Discrepancy struct {
	Field    string
	Expected string
	Observed string
}

func (d Discrepancy) String() string {
	return fmt.Sprintf("%s: expected %s, read %s", d.Field, d.Expected, d.Observed)
}

// observedNone is reported as the observed value when no header is present.
const observedNone = "none"

// FormatKib renders a byte count in KiB, the way sizes are reported
// everywhere in this tool.
func FormatKib(bytes uint) string {
	if bytes%1024 != 0 {
		return fmt.Sprintf("%.2f KiB", float64(bytes)/1024.0)
	}
	return fmt.Sprintf("%d KiB", bytes/1024)
}

// FormatChrRom renders a CHR ROM size, where zero means the board uses CHR
// RAM instead of ROM.
func FormatChrRom(units uint) string {
	if units == 0 {
		return "CHR RAM"
	}
	return FormatKib(units * ines.ChrUnit)
}

// comparedField is one header field the database tracks reliably enough to
// reconcile.  The order of the compared list is the order discrepancies are
// reported in, which callers depend on.
type comparedField struct {
	label     string
	canonical func(cartdb.Profile) string
	observed  func(*ines.Header) string
	equal     func(*ines.Header, cartdb.Profile) bool
}

var compared = []comparedField{
	{
		label:     "PRG ROM",
		canonical: func(p cartdb.Profile) string { return FormatKib(p.PrgUnits * ines.PrgUnit) },
		observed:  func(h *ines.Header) string { return FormatKib(h.PrgUnits * ines.PrgUnit) },
		equal:     func(h *ines.Header, p cartdb.Profile) bool { return h.PrgUnits == p.PrgUnits },
	},
	{
		label:     "CHR ROM",
		canonical: func(p cartdb.Profile) string { return FormatChrRom(p.ChrUnits) },
		observed:  func(h *ines.Header) string { return FormatChrRom(h.ChrUnits) },
		equal:     func(h *ines.Header, p cartdb.Profile) bool { return h.ChrUnits == p.ChrUnits },
	},
	{
		label:     "Mapper",
		canonical: func(p cartdb.Profile) string { return fmt.Sprintf("%d", p.Mapper) },
		observed:  func(h *ines.Header) string { return fmt.Sprintf("%d", h.Mapper) },
		equal:     func(h *ines.Header, p cartdb.Profile) bool { return h.Mapper == p.Mapper },
	},
	{
		label:     "Mirroring",
		canonical: func(p cartdb.Profile) string { return p.Mirroring.String() },
		observed:  func(h *ines.Header) string { return h.Mirroring.String() },
		equal:     func(h *ines.Header, p cartdb.Profile) bool { return h.Mirroring == p.Mirroring },
	},
	{
		label:     "Has NVRAM",
		canonical: func(p cartdb.Profile) string { return fmt.Sprintf("%t", p.Battery) },
		observed:  func(h *ines.Header) string { return fmt.Sprintf("%t", h.Battery) },
		equal:     func(h *ines.Header, p cartdb.Profile) bool { return h.Battery == p.Battery },
	},
}

// Diff lists the differences between an observed header and the canonical
// profile, in reporting order: PRG ROM, CHR ROM, mapper, mirroring, battery.
// Fields the database does not track (TV system, trainer, arcade flags,
// PRG RAM) are never compared.  A nil observed header means the file had no
// header at all, and every compared field is reported against "none".  An
// empty result means the header already matches and nothing needs writing.
func Diff(observed *ines.Header, canonical cartdb.Profile) []Discrepancy {
	var diffs []Discrepancy
	for _, field := range compared {
		if observed == nil {
			diffs = append(diffs, Discrepancy{
				Field:    field.label,
				Expected: field.canonical(canonical),
				Observed: observedNone,
			})
			continue
		}
		if !field.equal(observed, canonical) {
			diffs = append(diffs, Discrepancy{
				Field:    field.label,
				Expected: field.canonical(canonical),
				Observed: field.observed(observed),
			})
		}
	}
	return diffs
}

// Merge produces the corrected header: every compared field takes the
// canonical value, everything else is preserved from the observed header.
// With no observed header a fresh record is synthesized with defaults for
// the untracked fields: NTSC, no battery, no trainer, no arcade flags.
func Merge(observed *ines.Header, canonical cartdb.Profile) *ines.Header {
	merged := ines.Header{}
	if observed != nil {
		merged = *observed
	}

	merged.PrgUnits = canonical.PrgUnits
	merged.ChrUnits = canonical.ChrUnits
	merged.Mapper = canonical.Mapper
	merged.Mirroring = canonical.Mirroring
	merged.Battery = canonical.Battery

	return &merged
}
