package romfile

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
)

// ListEntries returns the names of the regular files inside a zip archive,
// in archive order.
func ListEntries(archive string) ([]string, error) {
	reader, closer, err := openZip(archive)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var names []string
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		names = append(names, entry.Name)
	}
	return names, nil
}

// ReadEntry reads one archive member into memory.  Members larger than the
// in-memory cap are skipped with a warning and returned as nil.
func ReadEntry(archive, name string) ([]byte, error) {
	reader, closer, err := openZip(archive)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	for _, entry := range reader.File {
		if entry.Name != name {
			continue
		}

		if entry.UncompressedSize64 > maxArchiveMember {
			logger.Printf("skipping %s in %s: too big (%d bytes)", name, archive, entry.UncompressedSize64)
			return nil, nil
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, err
		}

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, multierror.Append(err, rc.Close()).ErrorOrNil()
		}
		return data, rc.Close()
	}

	return nil, fmt.Errorf("no entry %q in %s", name, archive)
}

func openZip(archive string) (*zip.Reader, io.Closer, error) {
	file, err := fs.Open(archive)
	if err != nil {
		return nil, nil, err
	}

	info, err := file.Stat()
	if err != nil {
		err = multierror.Append(err, file.Close())
		return nil, nil, err
	}

	reader, err := zip.NewReader(file, info.Size())
	if err != nil {
		err = multierror.Append(err, file.Close())
		return nil, nil, err
	}

	return reader, file, nil
}
