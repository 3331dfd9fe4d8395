// Package lint implements the rule-based validation engine for spec
// documents. Rules are independent functions registered in a Registry; each
// emits findings at a base severity, and a single Policy decides the final
// severity for strict and lenient runs.
package lint

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Severity orders findings. Only SeverityError fails the gate.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarn:
		return "WARN"
	case SeverityError:
		return "ERROR"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ParseSeverity accepts INFO, WARN, ERROR and the FAIL alias used by the
// skill gate.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO":
		return SeverityInfo, nil
	case "WARN", "WARNING":
		return SeverityWarn, nil
	case "ERROR", "FAIL":
		return SeverityError, nil
	}
	return 0, errors.Errorf("unknown severity %q", s)
}

// MarshalJSON renders the severity by name
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a severity name
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Finding is one validation outcome. Line is zero for document-level findings.
type Finding struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"`
}

// String formats the finding the way the CLI prints it
func (f Finding) String() string {
	if f.Line > 0 {
		return fmt.Sprintf("%s: L%d: %s", f.Severity, f.Line, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Severity, f.Message)
}

func newFinding(sev Severity, code string, line int, format string, args ...any) Finding {
	return Finding{Severity: sev, Code: code, Line: line, Message: fmt.Sprintf(format, args...)}
}

// Result is the ordered output of one engine run
type Result struct {
	Type     DocType   `json:"type"`
	Strict   bool      `json:"strict"`
	Findings []Finding `json:"findings"`
}

// Failed reports whether any finding is an error. Warnings and infos never
// fail the gate on their own.
func (r Result) Failed() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of findings at the given severity
func (r Result) Count(sev Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == sev {
			n++
		}
	}
	return n
}

// Summary returns the one-line tally printed after a lint run
func (r Result) Summary() string {
	return fmt.Sprintf("%d error(s), %d warning(s) [%s]", r.Count(SeverityError), r.Count(SeverityWarn), r.Type)
}
