package services

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	contextutils "parallelsplit/internal/utils"
)

const (
	outputDirPerm  = 0o755
	outputFilePerm = 0o644
)

// monolingualWriter writes one field per line to a buffered output file
type monolingualWriter struct {
	path string
	file *os.File
	w    *bufio.Writer
}

// createMonolingualWriter creates the parent directories of path and opens it
// for writing, truncating any previous content.
func createMonolingualWriter(path string) (*monolingualWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, outputDirPerm); err != nil {
			return nil, outputError(err, "failed to create directory "+dir)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputFilePerm)
	if err != nil {
		return nil, outputError(err, "failed to open output")
	}
	return &monolingualWriter{path: path, file: file, w: bufio.NewWriter(file)}, nil
}

// WriteLine appends text and a newline
func (m *monolingualWriter) WriteLine(text string) error {
	if _, err := m.w.WriteString(text); err != nil {
		return contextutils.WrapWithCode(contextutils.ErrIO, err, "failed to write "+m.path)
	}
	if err := m.w.WriteByte('\n'); err != nil {
		return contextutils.WrapWithCode(contextutils.ErrIO, err, "failed to write "+m.path)
	}
	return nil
}

// Close flushes buffered lines and closes the file. The file is closed even
// when the flush fails.
func (m *monolingualWriter) Close() error {
	flushErr := m.w.Flush()
	closeErr := m.file.Close()
	if flushErr != nil {
		return contextutils.WrapWithCode(contextutils.ErrIO, flushErr, "failed to flush "+m.path)
	}
	if closeErr != nil {
		return contextutils.WrapWithCode(contextutils.ErrIO, closeErr, "failed to close "+m.path)
	}
	return nil
}

// closeWriter closes w and keeps the first error seen by the caller
func closeWriter(w *monolingualWriter, errPtr *error) {
	if err := w.Close(); err != nil && *errPtr == nil {
		*errPtr = err
	}
}

// outputError classifies a failure to prepare an output file
func outputError(err error, details string) error {
	if errors.Is(err, fs.ErrPermission) {
		return contextutils.WrapWithCode(contextutils.ErrPermissionDenied, err, details)
	}
	return contextutils.WrapWithCode(contextutils.ErrIO, err, details)
}
