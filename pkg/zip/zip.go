// Package zip builds in-memory zip archives for slide downloads.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
)

type Entry struct {
	Filename string
	Data     []byte
}

// Archive writes the entries into one zip archive and returns its bytes.
func Archive(entries []Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, entry := range entries {
		w, err := zw.Create(entry.Filename)
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", entry.Filename, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", entry.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}
