package sink

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestFileFactoryNamesAndContent(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFileFactory(dir, CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	s, err := f.Open("db.tbl", 3, 2, "sql")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte("hello\n")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "db.tbl.03.sql")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello\n" {
		t.Errorf("content = %q", data)
	}
	if got := f.BytesWritten.Load(); got != 6 {
		t.Errorf("bytes written = %d", got)
	}
}

func TestFileFactorySchema(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFileFactory(dir, CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.WriteSchema("t", "t", "( x INT )"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "t-schema.sql"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "CREATE TABLE t ( x INT );\n" {
		t.Errorf("schema = %q", data)
	}
}

func TestGzipRoundTrip(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFileFactory(dir, CompressionGzip)
	if err != nil {
		t.Fatal(err)
	}
	s, err := f.Open("t", 1, 1, "csv")
	if err != nil {
		t.Fatal(err)
	}
	payload := bytes.Repeat([]byte("1,2,3\n"), 1000)
	if _, err := s.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	file, err := os.Open(filepath.Join(dir, "t.1.csv.gz"))
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	zr, err := gzip.NewReader(file)
	if err != nil {
		t.Fatal(err)
	}
	restored, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(restored, payload) {
		t.Error("gzip round trip lost data")
	}
}

func TestZstdRoundTrip(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFileFactory(dir, CompressionZstd)
	if err != nil {
		t.Fatal(err)
	}
	s, err := f.Open("t", 1, 1, "sql")
	if err != nil {
		t.Fatal(err)
	}
	payload := bytes.Repeat([]byte("INSERT INTO t VALUES (1);\n"), 500)
	if _, err := s.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "t.1.sql.zst"))
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	restored, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(restored, payload) {
		t.Error("zstd round trip lost data")
	}
}

func TestParseCompression(t *testing.T) {
	if _, err := ParseCompression("gzip"); err != nil {
		t.Error(err)
	}
	if _, err := ParseCompression(""); err != nil {
		t.Error(err)
	}
	if _, err := ParseCompression("lz4"); err == nil {
		t.Error("unsupported compression must fail")
	}
}
