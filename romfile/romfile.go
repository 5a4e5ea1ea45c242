// Package romfile locates cartridge images on disk, either as plain files or
// inside zip archives, and writes corrected images back.
package romfile

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/romtools/inestool/ines"
)

var fs = afero.NewOsFs()

var logger = log.New(os.Stderr, "[inestool] ", log.LstdFlags)

// maxArchiveMember caps how much of an archive member is read into memory.
// No iNES image is anywhere near 4 MiB.
const maxArchiveMember = 4 << 20

// ErrArchiveUpdate is returned when an update targets a file inside an
// archive.  Writing into compressed containers is not supported.
var ErrArchiveUpdate = errors.New("cannot update file of this type")

// File is one cartridge image found during a scan.
type File struct {
	// Path of the file on disk.  For archive members this is the archive.
	Path string

	// Member is the entry name within the archive, empty for plain files.
	Member string

	// Data is the complete original file contents.
	Data []byte

	// Rom is the decoded image.
	Rom *ines.Rom
}

// Name identifies the file in reports, including the member name for
// archive entries.
func (f *File) Name() string {
	if f.Member == "" {
		return f.Path
	}
	return filepath.Join(f.Path, f.Member)
}

// Update replaces the file's contents on disk.  The new contents are written
// to a temporary file in the same directory and renamed into place, so a
// failed write never leaves a half-written ROM behind.  Files inside
// archives cannot be updated.
func (f *File) Update(data []byte) error {
	if f.Member != "" {
		return ErrArchiveUpdate
	}

	info, err := fs.Stat(f.Path)
	if err != nil {
		return err
	}

	tmp, err := afero.TempFile(fs, filepath.Dir(f.Path), ".inestool-")
	if err != nil {
		return err
	}

	if _, err = tmp.Write(data); err != nil {
		err = multierror.Append(err, tmp.Close())
		return multierror.Append(err, fs.Remove(tmp.Name()))
	}
	if err = tmp.Close(); err != nil {
		return multierror.Append(err, fs.Remove(tmp.Name()))
	}

	// The temp file comes back with default permissions; the corrected ROM
	// keeps the original's mode.
	if err = fs.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return multierror.Append(err, fs.Remove(tmp.Name()))
	}

	if err = fs.Rename(tmp.Name(), f.Path); err != nil {
		return multierror.Append(err, fs.Remove(tmp.Name()))
	}
	return nil
}

// Visitor is called once for every readable cartridge image in a batch.
// Returning an error marks that file as failed without stopping the batch.
type Visitor func(f *File) error

// Visit walks the given paths, treating .zip files as read-only containers
// of images and everything else as a single image.  Every per-file failure,
// whether from reading, decoding or the visitor itself, is logged and
// collected; the batch always continues to the next file.  The combined
// error is returned once the whole batch has been visited.
func Visit(paths []string, visit Visitor) error {
	var result *multierror.Error

	for _, path := range paths {
		var err error
		if strings.EqualFold(filepath.Ext(path), ".zip") {
			err = visitArchive(path, visit)
		} else {
			err = visitFile(path, visit)
		}
		if err != nil {
			logger.Print(err)
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

func visitFile(path string, visit Visitor) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("%s: file unreadable: %w", path, err)
	}

	return visitData(&File{Path: path, Data: data}, visit)
}

func visitArchive(path string, visit Visitor) error {
	names, err := ListEntries(path)
	if err != nil {
		return fmt.Errorf("%s: file unreadable: %w", path, err)
	}

	var result *multierror.Error
	for _, name := range names {
		data, err := ReadEntry(path, name)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", filepath.Join(path, name), err))
			continue
		}
		if data == nil {
			// Skipped oversized member, already logged.
			continue
		}

		if err := visitData(&File{Path: path, Member: name, Data: data}, visit); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

func visitData(f *File, visit Visitor) error {
	rom, err := ines.LoadRom(f.Data)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Name(), err)
	}
	f.Rom = rom

	if err := visit(f); err != nil {
		return fmt.Errorf("%s: %w", f.Name(), err)
	}
	return nil
}
