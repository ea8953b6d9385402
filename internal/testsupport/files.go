package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path (and parent directories) with the given contents.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteJSONFile writes a JSON artifact for a test fixture.
func WriteJSONFile(t testing.TB, path, jsonBody string) {
	t.Helper()
	WriteFile(t, path, []byte(jsonBody))
}
