// File: cmd/main_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/uiprobe/internal/observability"
)

// resetForTest isolates a command test: fresh logger, a scratch working
// directory and no log file next to the sources.
func resetForTest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("UIPROBE_LOGGER_LEVEL", "fatal")
	t.Setenv("UIPROBE_LOGGER_LOG_FILE", filepath.Join(dir, "logs", "uiprobe.log"))

	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)
	return dir
}

// executeCommand runs a fresh command tree built on factory.
func executeCommand(t *testing.T, factory componentFactory, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(factory)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

// writeFile creates path under dir with its parents.
func writeFile(t *testing.T, dir, path, content string) {
	t.Helper()
	full := filepath.Join(dir, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}
