// Package container materializes compressed or archived log sources into
// a plain, seekable file so the rest of the pipeline never has to special
// case how a source arrived on disk.
package container

import (
	"archive/tar"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Container is the materialized form of one log source: a seekable file
// positioned at offset 0, the best-known original modification time, and
// the decompressed size in bytes.
type Container struct {
	File    *os.File
	ModTime time.Time
	Size    int64

	tempPath string
}

// Close releases the underlying file. If the container was backed by a
// temporary decompressed copy, the temp file is removed too.
func (c *Container) Close() error {
	err := c.File.Close()
	if c.tempPath != "" {
		if rmErr := os.Remove(c.tempPath); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}

// Open materializes path into a Container. Plain files are wrapped
// directly; compressed files are streamed into a temp file and fsynced
// before being handed back seeked to 0. The format is chosen by file
// extension alone. A .tar path is wrapped as a plain file; OpenTar reads
// tar members. ModTime is the gzip header's MTIME when one is set, and
// otherwise the source file's own mtime.
func Open(path string) (*Container, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return openCompressed(path, func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		})
	case ".bz2":
		return openCompressed(path, func(r io.Reader) (io.Reader, error) {
			return bzip2.NewReader(r), nil
		})
	case ".xz":
		return openCompressed(path, func(r io.Reader) (io.Reader, error) {
			return xz.NewReader(r)
		})
	case ".lz4":
		return openCompressed(path, func(r io.Reader) (io.Reader, error) {
			return lz4.NewReader(r), nil
		})
	default:
		return openPlain(path)
	}
}

func openPlain(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("container: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("container: stat %s: %w", path, err)
	}
	return &Container{File: f, ModTime: info.ModTime(), Size: info.Size()}, nil
}

func openCompressed(path string, newReader func(io.Reader) (io.Reader, error)) (*Container, error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("container: open %s: %w", path, err)
	}
	defer src.Close()

	srcInfo, err := src.Stat()
	if err != nil {
		return nil, fmt.Errorf("container: stat %s: %w", path, err)
	}

	dr, err := newReader(src)
	if err != nil {
		return nil, fmt.Errorf("container: decompress %s: %w", path, err)
	}

	tmp, err := os.CreateTemp("", "s4-container-*")
	if err != nil {
		return nil, fmt.Errorf("container: create temp for %s: %w", path, err)
	}

	n, err := io.Copy(tmp, dr)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("container: decompress %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("container: sync temp for %s: %w", path, err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("container: seek temp for %s: %w", path, err)
	}

	modTime := srcInfo.ModTime()
	if gz, ok := dr.(*gzip.Reader); ok && !gz.ModTime.IsZero() {
		modTime = gz.ModTime
	}

	return &Container{
		File:     tmp,
		ModTime:  modTime,
		Size:     n,
		tempPath: tmp.Name(),
	}, nil
}

// OpenTar opens a tar archive and yields one Container per regular file
// member, in archive order. A member whose header carries a zero time
// (rare, but tar headers aren't required to set one) falls back to the
// archive file's own mtime rather than wall-clock time, so re-running
// against the same archive reproduces the same Container.ModTime.
func OpenTar(path string, yield func(name string, c *Container) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("container: open %s: %w", path, err)
	}
	defer f.Close()

	fInfo, err := f.Stat()
	if err != nil {
		return fmt.Errorf("container: stat %s: %w", path, err)
	}

	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("container: read tar %s: %w", path, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		tmp, err := os.CreateTemp("", "s4-container-*")
		if err != nil {
			return fmt.Errorf("container: create temp for %s: %w", hdr.Name, err)
		}
		n, err := io.Copy(tmp, tr)
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("container: extract %s: %w", hdr.Name, err)
		}
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("container: sync temp for %s: %w", hdr.Name, err)
		}
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("container: seek temp for %s: %w", hdr.Name, err)
		}

		// An unset header mtime is stored as 0 and reads back as the Unix
		// epoch, not as Go's zero time.
		modTime := hdr.ModTime
		if modTime.IsZero() || modTime.Unix() == 0 {
			modTime = fInfo.ModTime()
		}

		c := &Container{File: tmp, ModTime: modTime, Size: n, tempPath: tmp.Name()}
		if err := yield(hdr.Name, c); err != nil {
			c.Close()
			return err
		}
	}
}
