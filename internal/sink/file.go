package sink

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
)

// Compression selects the optional framing of file sinks.
type Compression string

const (
	// CompressionNone writes plain files.
	CompressionNone Compression = ""
	// CompressionGzip wraps files in gzip framing with a .gz suffix.
	CompressionGzip Compression = "gzip"
	// CompressionZstd wraps files in zstd framing with a .zst suffix.
	CompressionZstd Compression = "zstd"
)

// ParseCompression validates a --compress flag value.
func ParseCompression(name string) (Compression, error) {
	switch Compression(name) {
	case CompressionNone, CompressionGzip, CompressionZstd:
		return Compression(name), nil
	}
	return CompressionNone, fmt.Errorf("unsupported compression %q", name)
}

// FileFactory writes each (table, segment) pair into its own file under
// the output directory.
type FileFactory struct {
	Dir      string
	Compress Compression

	// BytesWritten counts raw (pre-compression) bytes for progress
	// reporting; it is updated atomically by every sink.
	BytesWritten atomic.Uint64
}

// NewFileFactory creates the output directory and the factory.
func NewFileFactory(dir string, compress Compression) (*FileFactory, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileFactory{Dir: dir, Compress: compress}, nil
}

func (f *FileFactory) WriteSchema(uniqueName, tableName, content string) error {
	path := filepath.Join(f.Dir, uniqueName+"-schema.sql")
	data := fmt.Sprintf("CREATE TABLE %s %s;\n", tableName, content)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("failed to write schema file %s: %w", path, err)
	}
	return nil
}

func (f *FileFactory) Open(uniqueName string, segment, digits int, ext string) (Sink, error) {
	name := fmt.Sprintf("%s.%0*d.%s", uniqueName, digits, segment, ext)
	switch f.Compress {
	case CompressionGzip:
		name += ".gz"
	case CompressionZstd:
		name += ".zst"
	}
	path := filepath.Join(f.Dir, name)
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	fs := &fileSink{file: file, path: path, counter: &f.BytesWritten}
	switch f.Compress {
	case CompressionGzip:
		fs.compressor = gzip.NewWriter(file)
		fs.out = fs.compressor
	case CompressionZstd:
		zw, err := zstd.NewWriter(file)
		if err != nil {
			file.Close()
			return nil, err
		}
		fs.compressor = zw
		fs.out = zw
	default:
		fs.buffered = bufio.NewWriterSize(file, 1<<16)
		fs.out = fs.buffered
	}
	return fs, nil
}

func (f *FileFactory) Close() error { return nil }

type fileSink struct {
	file       *os.File
	path       string
	out        io.Writer
	buffered   *bufio.Writer
	compressor io.WriteCloser
	counter    *atomic.Uint64
}

func (s *fileSink) Write(p []byte) (int, error) {
	n, err := s.out.Write(p)
	s.counter.Add(uint64(n))
	if err != nil {
		return n, fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return n, nil
}

func (s *fileSink) EndStatement() error { return nil }

func (s *fileSink) Close() error {
	if s.buffered != nil {
		if err := s.buffered.Flush(); err != nil {
			return fmt.Errorf("failed to flush %s: %w", s.path, err)
		}
	}
	if s.compressor != nil {
		if err := s.compressor.Close(); err != nil {
			return fmt.Errorf("failed to finish %s: %w", s.path, err)
		}
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", s.path, err)
	}
	return nil
}
