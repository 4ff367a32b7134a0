package container

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

func TestOpenPlainFileWrapsDirectly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entries.bin")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if c.Size != 5 {
		t.Errorf("Size = %d, want 5", c.Size)
	}
	got, err := io.ReadAll(c.File)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("content = %q, want %q", got, "hello")
	}
}

func TestOpenGzipDecompressesToTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entries.bin.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	gw := gzip.NewWriter(f)
	if _, err := gw.Write([]byte("decompressed content")); err != nil {
		t.Fatalf("gzip Write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip Close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if c.Size != int64(len("decompressed content")) {
		t.Errorf("Size = %d, want %d", c.Size, len("decompressed content"))
	}
	got, err := io.ReadAll(c.File)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "decompressed content" {
		t.Errorf("content = %q, want %q", got, "decompressed content")
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("original file should remain untouched: %v", err)
	}
}

func TestCloseRemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entries.bin.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	gw := gzip.NewWriter(f)
	gw.Write([]byte("x"))
	gw.Close()
	f.Close()

	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	tempPath := c.tempPath
	if tempPath == "" {
		t.Fatal("expected a temp path for a decompressed container")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Errorf("expected temp file to be removed, stat err = %v", err)
	}
}

func TestOpenTarFallsBackToArchiveMtimeForZeroHeaderTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entries.tar")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tw := tar.NewWriter(f)
	body := []byte("member content")
	if err := tw.WriteHeader(&tar.Header{
		Name: "a.log",
		Size: int64(len(body)),
		Mode: 0o644,
		// ModTime left as the zero value on purpose.
	}); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if _, err := tw.Write(body); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar Close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	archiveMtime := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(path, archiveMtime, archiveMtime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	var got *Container
	err = OpenTar(path, func(name string, c *Container) error {
		got = c
		return nil
	})
	if err != nil {
		t.Fatalf("OpenTar: %v", err)
	}
	defer got.Close()

	if !got.ModTime.Equal(archiveMtime) {
		t.Errorf("ModTime = %v, want archive mtime %v", got.ModTime, archiveMtime)
	}
}
