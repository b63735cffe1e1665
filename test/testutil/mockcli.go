package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// MockCLI is a shell script standing in for the external CLI. It records
// whatever is written to its stdin and replies with a canned stdout, stderr
// and exit code.
type MockCLI struct {
	// Path is the absolute path of the executable script.
	Path string

	dir string
}

// NewMockCLI writes a fake CLI into a temporary directory. The script is
// removed when the test ends.
func NewMockCLI(t *testing.T, stdout, stderr string, exitCode int) *MockCLI {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("mock CLI requires a POSIX shell")
	}

	dir := t.TempDir()
	m := &MockCLI{Path: filepath.Join(dir, "mock-cli"), dir: dir}

	writeFile(t, filepath.Join(dir, "stdout.txt"), stdout, 0o644)
	writeFile(t, filepath.Join(dir, "stderr.txt"), stderr, 0o644)

	script := fmt.Sprintf(`#!/bin/sh
cat > '%[1]s/prompt.txt'
cat '%[1]s/stdout.txt'
cat '%[1]s/stderr.txt' >&2
exit %[2]d
`, dir, exitCode)
	writeFile(t, m.Path, script, 0o755)
	return m
}

// LastPrompt returns what the most recent invocation read from stdin.
func (m *MockCLI) LastPrompt(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(m.dir, "prompt.txt"))
	if err != nil {
		t.Fatalf("mock cli was not invoked: %v", err)
	}
	return string(raw)
}

// MissingCommand returns a path that does not exist, for spawn failures.
func MissingCommand(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "no-such-cli")
}

func writeFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
