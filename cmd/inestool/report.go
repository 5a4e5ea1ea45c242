package main

import (
	"fmt"

	"github.com/romtools/inestool/ines"
	"github.com/romtools/inestool/recon"
	"github.com/romtools/inestool/romfile"
)

// printRomInfo writes the read-mode report for one file: the checksum line,
// then an aligned field table when a header is present.
func printRomInfo(f *romfile.File) {
	head := fmt.Sprintf("%s (%s):", f.Name(), f.Rom.Crc.HexString())

	h := f.Rom.Header
	if h == nil {
		fmt.Println(head, "no header")
		return
	}
	fmt.Println(head)

	rows := []struct {
		label, value string
	}{
		{"PRG ROM", recon.FormatKib(h.PrgUnits * ines.PrgUnit)},
		{"PRG RAM", recon.FormatKib(h.PrgRamUnits * ines.PrgRamUnit)},
		{"CHR ROM", recon.FormatChrRom(h.ChrUnits)},
		{"Mapper", fmt.Sprintf("%d", h.Mapper)},
		{"Mirroring", h.Mirroring.String()},
		{"TV System", h.TvSystem.String()},
		{"Has NVRAM", fmt.Sprintf("%t", h.Battery)},
		{"Has Trainer", fmt.Sprintf("%t", h.Trainer)},
		{"Is PlayChoice-10", fmt.Sprintf("%t", h.PlayChoice10)},
		{"Is VS. UniSystem", fmt.Sprintf("%t", h.VsUnisystem)},
	}

	width := 0
	for _, row := range rows {
		if len(row.label) > width {
			width = len(row.label)
		}
	}
	for _, row := range rows {
		fmt.Printf("\t%-*s: %s\n", width, row.label, row.value)
	}
}
