package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jingkaihe/specforge/pkg/presenter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturePresenter routes presenter output into the returned buffer for the
// duration of the test.
func capturePresenter(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	presenter.SetDefault(presenter.NewWithOptions(&buf, &buf, presenter.ColorNever))
	t.Cleanup(func() {
		presenter.SetDefault(presenter.New())
	})
	return &buf
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSetExitCodeKeepsHighest(t *testing.T) {
	saved := exitCode
	t.Cleanup(func() { exitCode = saved })

	exitCode = exitOK
	setExitCode(exitGateFailed)
	setExitCode(exitFailure)
	setExitCode(exitOK)
	assert.Equal(t, exitGateFailed, exitCode)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"compile", "lint", "evidence", "template", "skill", "schema", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
