// File: internal/export/writer.go
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Stdout is the destination name that writes the artifact to standard output.
const Stdout = "-"

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// openDestination returns stdout for "-", otherwise creates outputDir (if
// needed) and the artifact file inside it.
func openDestination(outputDir, fileName string, stdout io.Writer) (io.WriteCloser, string, error) {
	if outputDir == Stdout {
		return &nopWriteCloser{stdout}, Stdout, nil
	}
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	path := filepath.Join(outputDir, fileName)
	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	return f, path, nil
}

// WriteArtifact writes a to outputDir under its generated file name, or to
// stdout when outputDir is "-". It returns where the bytes went.
func WriteArtifact(a *Artifact, outputDir string, stdout io.Writer) (string, error) {
	w, dest, err := openDestination(outputDir, a.FileName, stdout)
	if err != nil {
		return "", err
	}
	if _, err := w.Write(a.Bytes); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", dest, err)
	}
	return dest, nil
}
