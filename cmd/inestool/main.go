package main

import (
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/mitchellh/go-wordwrap"
	"github.com/schollz/progressbar/v3"

	"github.com/romtools/inestool/cartdb"
	"github.com/romtools/inestool/ines"
	"github.com/romtools/inestool/recon"
	"github.com/romtools/inestool/romfile"
)

type MainArgs struct {
	Read  *CmdRead  `arg:"subcommand:read" help:"Read and report iNES headers"`
	Write *CmdWrite `arg:"subcommand:write" help:"Add or correct iNES headers from a database"`
}

func (MainArgs) Description() string {
	return "inestool reads iNES ROM headers and corrects them against a cartridge database keyed by payload CRC-32."
}

func (MainArgs) Epilogue() string {
	return wordwrap.WrapString("The write command needs a Nestopia cartridge database. "+
		"Download NstDatabase.xml from https://github.com/0ldsk00l/nestopia/raw/master/NstDatabase.xml "+
		"or from http://bootgod.dyndns.org:7777/xml.php and point --db (or INESTOOL_DB) at it.", 78)
}

type CmdRead struct {
	Verbose bool     `arg:"-v,--verbose" help:"also dump the raw decoded header state"`
	Roms    []string `arg:"positional,required" help:"ROM files, or zip archives containing ROMs"`
}

type CmdWrite struct {
	Db       string   `arg:"-d,--db,env:INESTOOL_DB" default:"NstDatabase.xml" help:"path to the Nestopia cartridge database"`
	DryRun   bool     `arg:"-n,--dry-run" help:"don't actually change ROMs, just report changes"`
	Progress bool     `arg:"--progress" help:"show a progress bar over the batch"`
	Roms     []string `arg:"positional,required" help:"ROM files, or zip archives containing ROMs"`
}

func main() {
	args := &MainArgs{}
	p := arg.MustParse(args)

	var err error
	switch {
	case args.Read != nil:
		err = runRead(args.Read)
	case args.Write != nil:
		err = runWrite(args.Write)
	default:
		p.Fail("missing subcommand")
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runRead(args *CmdRead) error {
	return romfile.Visit(args.Roms, func(f *romfile.File) error {
		printRomInfo(f)
		if args.Verbose && f.Rom.Header != nil {
			fmt.Println(f.Rom.Header.Debug())
		}
		return nil
	})
}

func runWrite(args *CmdWrite) error {
	db, err := cartdb.Load(args.Db)
	if err != nil {
		return fmt.Errorf("loading database %s: %w", args.Db, err)
	}

	var bar *progressbar.ProgressBar
	if args.Progress {
		bar = progressbar.Default(int64(len(args.Roms)), "correcting headers")
	}

	// One path at a time so the progress bar tracks the batch.  Per-file
	// failures are already logged by Visit; they only affect the exit code.
	failures := 0
	for _, path := range args.Roms {
		err := romfile.Visit([]string{path}, func(f *romfile.File) error {
			return writeOne(db, f, args.DryRun)
		})
		if err != nil {
			failures++
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d files could not be processed", failures, len(args.Roms))
	}
	return nil
}

func writeOne(db cartdb.DB, f *romfile.File, dryRun bool) error {
	rom := f.Rom
	line := func(msg string) {
		fmt.Printf("%s (%s): %s\n", f.Name(), rom.Crc.HexString(), msg)
	}

	profile, found := db.Lookup(rom.Crc)
	switch {
	case rom.Header == nil && !found:
		line("no header, not in database, cannot add header")
		return nil
	case !found:
		line("not in database, skipping")
		return nil
	case rom.Header == nil:
		line("no header, will add header")
		printDiscrepancies(recon.Diff(nil, profile))
	default:
		diffs := recon.Diff(rom.Header, profile)
		if len(diffs) == 0 {
			line("header matches database")
			return nil
		}
		line("header differs from database, will update header")
		printDiscrepancies(diffs)
	}

	if dryRun {
		return nil
	}

	corrected := recon.Merge(rom.Header, profile)
	patched, err := ines.PatchHeader(f.Data, corrected)
	if err != nil {
		return err
	}

	return f.Update(patched)
}

func printDiscrepancies(diffs []recon.Discrepancy) {
	for _, d := range diffs {
		fmt.Printf("\t%s\n", d)
	}
}
