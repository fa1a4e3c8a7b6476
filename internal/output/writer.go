package output

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Writer is a destination for rendered output.
type Writer interface {
	Write(data []byte) error
}

// NewWriter returns a FileWriter for path, or a StreamWriter on w when path
// is empty or "-".
func NewWriter(path string, w io.Writer, logger *slog.Logger) Writer {
	if path == "" || path == "-" {
		return NewStreamWriter(w)
	}

	return NewFileWriter(path, WithLogger(logger))
}

// StreamWriter writes to an io.Writer, typically the command's stdout.
type StreamWriter struct {
	out io.Writer
}

// NewStreamWriter wraps w. A nil w means os.Stdout.
func NewStreamWriter(w io.Writer) *StreamWriter {
	if w == nil {
		w = os.Stdout
	}

	return &StreamWriter{out: w}
}

func (sw *StreamWriter) Write(data []byte) error {
	if _, err := sw.out.Write(data); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	return nil
}

// FileWriter writes output to a file, creating parent directories.
type FileWriter struct {
	path   string
	perm   os.FileMode
	logger *slog.Logger
}

// FileWriterOption configures a FileWriter.
type FileWriterOption func(*FileWriter)

// WithPermissions overrides the default mode 0644.
func WithPermissions(perm os.FileMode) FileWriterOption {
	return func(fw *FileWriter) { fw.perm = perm }
}

// WithLogger sets the logger used for overwrite warnings.
func WithLogger(logger *slog.Logger) FileWriterOption {
	return func(fw *FileWriter) {
		if logger != nil {
			fw.logger = logger
		}
	}
}

// NewFileWriter returns a writer for path.
func NewFileWriter(path string, opts ...FileWriterOption) *FileWriter {
	fw := &FileWriter{path: path, perm: 0o644, logger: slog.Default()}
	for _, opt := range opts {
		opt(fw)
	}

	return fw
}

func (fw *FileWriter) Write(data []byte) error {
	dir := filepath.Dir(fw.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	if _, err := os.Stat(fw.path); err == nil {
		fw.logger.Debug("overwriting existing file", slog.String("path", fw.path))
	}

	if err := os.WriteFile(fw.path, data, fw.perm); err != nil {
		return fmt.Errorf("writing file %s: %w", fw.path, err)
	}

	return nil
}

// Path returns the destination path.
func (fw *FileWriter) Path() string {
	return fw.path
}
