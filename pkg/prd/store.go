package prd

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
)

// ErrStaleDocument is returned by WriteFile when the document on disk changed
// after the caller read it.
var ErrStaleDocument = errors.New("prd document changed since it was read")

// ReadFile loads a compiled document under a shared file lock. A missing or
// empty file yields a nil document and no error.
func ReadFile(path string) (*Document, error) {
	data, err := lockedfile.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid prd document %s", path)
	}
	return doc, nil
}

// GeneratedAt returns the generatedAt of doc, or "" for a nil document.
func GeneratedAt(doc *Document) string {
	if doc == nil {
		return ""
	}
	return doc.GeneratedAt
}

// WriteFile replaces path with doc as one locked read-modify-write.
// expectedGeneratedAt is the generatedAt of the file as the caller last read
// it ("" when it did not exist); if the file now carries a different value
// nothing is written and ErrStaleDocument is returned.
func WriteFile(path string, doc *Document, expectedGeneratedAt string) error {
	data, err := doc.Marshal()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create output directory")
		}
	}

	return lockedfile.Transform(path, func(current []byte) ([]byte, error) {
		onDisk := ""
		if len(bytes.TrimSpace(current)) > 0 {
			existing, err := Parse(current)
			if err != nil {
				return nil, errors.Wrapf(err, "refusing to overwrite %s", path)
			}
			onDisk = existing.GeneratedAt
		}
		if onDisk != expectedGeneratedAt {
			return nil, errors.Wrapf(ErrStaleDocument, "%s: expected generatedAt %q, found %q", path, expectedGeneratedAt, onDisk)
		}
		return data, nil
	})
}
