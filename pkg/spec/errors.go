package spec

import (
	"fmt"

	"github.com/pkg/errors"
)

// StructuralError reports a document that cannot be compiled at all, such as
// a duplicate story ID or a required block missing under strict mode. It is
// distinct from validation findings, which never abort anything.
type StructuralError struct {
	Line    int
	Message string
}

func (e *StructuralError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("L%d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Structuralf returns a StructuralError at line (0 for document-level).
func Structuralf(line int, format string, args ...any) error {
	return &StructuralError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// IsStructural reports whether err, or any error it wraps, is a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
