package prd

import (
	"github.com/aymanbagabas/go-udiff"
)

// Diff returns a unified diff between the JSON renderings of two documents.
// A nil document renders as empty. The result is empty when they match.
func Diff(label string, before, after *Document) (string, error) {
	oldText, err := render(before)
	if err != nil {
		return "", err
	}
	newText, err := render(after)
	if err != nil {
		return "", err
	}
	return udiff.Unified(label, label, oldText, newText), nil
}

func render(doc *Document) (string, error) {
	if doc == nil {
		return "", nil
	}
	data, err := doc.Marshal()
	if err != nil {
		return "", err
	}
	return string(data), nil
}
