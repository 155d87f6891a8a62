package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTempDir(t *testing.T) {
	dir, cleanup, err := TempDir("folio-test")
	if err != nil {
		t.Fatalf("TempDir failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(dir), "folio-test-") {
		t.Errorf("dir = %q, want folio-test- prefix", dir)
	}
	if err := os.WriteFile(filepath.Join(dir, "doc.pdf"), BuildPDF("", MediaBox(10, 10)), 0o644); err != nil {
		t.Fatal(err)
	}

	cleanup()
	cleanup()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("dir still present after cleanup: %v", err)
	}
}
