// File: cmd/caseforge/main_test.go
package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/caseforge-cli/internal/observability"
)

// resetMocks restores the original function implementations.
func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
	notifyContext = signal.NotifyContext
}

func TestHandlePanic(t *testing.T) {
	defer resetMocks()

	t.Run("WritesPanicLog", func(t *testing.T) {
		var written string
		var exitCode = -1
		osWriteFile = func(name string, data []byte, perm os.FileMode) error {
			assert.Equal(t, panicLogFile, name)
			written = string(data)
			return nil
		}
		osExit = func(code int) { exitCode = code }

		func() {
			defer handlePanic()
			panic("boom")
		}()

		assert.Equal(t, 2, exitCode)
		assert.True(t, strings.HasPrefix(written, "panic: boom"))
		assert.Contains(t, written, "goroutine")
	})

	t.Run("LogWriteFails", func(t *testing.T) {
		var exitCode = -1
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only filesystem") }
		osExit = func(code int) { exitCode = code }

		func() {
			defer handlePanic()
			panic("boom")
		}()
		assert.Equal(t, 2, exitCode)
	})

	t.Run("NoPanic", func(t *testing.T) {
		osExit = func(int) { t.Fatal("osExit must not be called without a panic") }
		func() {
			defer handlePanic()
		}()
	})
}

func TestRunShell(t *testing.T) {
	in := strings.NewReader("\nversion\nversion extra-arg\ngenerate 'unterminated\nexit\nversion\n")
	var out, errOut bytes.Buffer

	require.NoError(t, runShell(context.Background(), in, &out, &errOut))

	// The command after exit never runs.
	assert.Equal(t, 1, strings.Count(out.String(), "caseforge 1.0"), out.String())
	assert.Contains(t, errOut.String(), "unknown command \"extra-arg\"")
	assert.Contains(t, errOut.String(), "Error:")
	assert.Equal(t, 5, strings.Count(out.String(), "caseforge > "))
}

func TestRunShellEOF(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, runShell(context.Background(), strings.NewReader("version"), &out, &errOut))
	assert.Contains(t, out.String(), "caseforge 1.0")
}

func TestShellSurvivesInterruptedCommand(t *testing.T) {
	defer resetMocks()
	t.Cleanup(observability.ResetForTest)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logger:\n  level: error\n  log_file: \"\"\n"), 0o600))
	stories := filepath.Join(dir, "stories.json")
	require.NoError(t, os.WriteFile(stories, []byte(`[{"title": "Login", "description": "check authentication"}]`), 0o600))

	// The first command is interrupted as if Ctrl+C arrived while it ran.
	var calls, stops int
	notifyContext = func(parent context.Context, _ ...os.Signal) (context.Context, context.CancelFunc) {
		calls++
		ctx, cancel := context.WithCancel(parent)
		if calls == 1 {
			cancel()
		}
		return ctx, func() { stops++; cancel() }
	}

	line := "generate " + stories + " -o - --config " + cfgPath + "\n"
	var out, errOut bytes.Buffer
	require.NoError(t, runShell(context.Background(), strings.NewReader(line+line), &out, &errOut))

	assert.Contains(t, errOut.String(), "context canceled")
	assert.Contains(t, out.String(), "Test: Login", "the command after the interrupt must run normally")
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, stops, "every command releases its signal context")
}
