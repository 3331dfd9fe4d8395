package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyApply(t *testing.T) {
	warn := Finding{Severity: SeverityWarn, Code: CodeMetricsNoDigits}
	info := Finding{Severity: SeverityInfo, Code: CodeMetricsNoDigits}
	leak := Finding{Severity: SeverityWarn, Code: CodePRDImplLeak}

	t.Run("lenient is identity", func(t *testing.T) {
		p := LenientPolicy()
		assert.Equal(t, SeverityWarn, p.Apply(warn))
		assert.Equal(t, SeverityWarn, p.Apply(leak))
	})

	t.Run("strict escalates listed warnings only", func(t *testing.T) {
		p := StrictPolicy()
		assert.Equal(t, SeverityError, p.Apply(warn))
		assert.Equal(t, SeverityInfo, p.Apply(info))
		assert.Equal(t, SeverityWarn, p.Apply(leak))
	})

	t.Run("nil policy keeps base severity", func(t *testing.T) {
		var p *Policy
		assert.Equal(t, SeverityWarn, p.Apply(warn))
	})

	t.Run("custom mapping", func(t *testing.T) {
		p := NewPolicy().Set(CodePRDImplLeak, SeverityWarn, SeverityInfo)
		assert.Equal(t, SeverityInfo, p.Apply(leak))
	})
}

func TestParseSeverity(t *testing.T) {
	for in, want := range map[string]Severity{
		"info": SeverityInfo, "WARN": SeverityWarn, "warning": SeverityWarn,
		"error": SeverityError, "FAIL": SeverityError,
	} {
		got, err := ParseSeverity(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSeverity("fatal")
	assert.Error(t, err)
}

func TestFindingString(t *testing.T) {
	assert.Equal(t, "ERROR: L3: bad", Finding{Severity: SeverityError, Line: 3, Message: "bad"}.String())
	assert.Equal(t, "WARN: meh", Finding{Severity: SeverityWarn, Message: "meh"}.String())
}
