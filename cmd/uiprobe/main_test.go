// File: cmd/uiprobe/main_test.go
package main

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetMocks restores the original function implementations.
func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
}

func TestHandlePanic(t *testing.T) {
	defer resetMocks()

	t.Run("Writes Panic Log", func(t *testing.T) {
		var written string
		var path string
		exitCode := -1
		osWriteFile = func(name string, data []byte, _ os.FileMode) error {
			path, written = name, string(data)
			return nil
		}
		osExit = func(code int) { exitCode = code }

		func() {
			defer handlePanic()
			panic("boom")
		}()

		assert.Equal(t, panicLogFile, path)
		assert.Contains(t, written, "panic: boom")
		assert.Contains(t, written, "goroutine", "stack trace is included")
		assert.Equal(t, 2, exitCode)
	})

	t.Run("Log Write Failure", func(t *testing.T) {
		exitCode := -1
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only fs") }
		osExit = func(code int) { exitCode = code }

		func() {
			defer handlePanic()
			panic("boom")
		}()
		assert.Equal(t, 2, exitCode)
	})

	t.Run("No Panic", func(t *testing.T) {
		called := false
		osExit = func(int) { called = true }
		require.NotPanics(t, func() {
			defer handlePanic()
		})
		assert.False(t, called)
	})
}
