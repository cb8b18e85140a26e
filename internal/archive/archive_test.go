package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestFileArchiveStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spam")
	a, err := NewFileArchive(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileArchive: %v", err)
	}

	raw := []byte("From: shop@y.example\r\n\r\nbody")
	ts := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	path, err := a.Store(raw, ts, 7)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	if filepath.Base(path) != "spam_20240301_123045_7.eml" {
		t.Errorf("file name = %q", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != string(raw) {
		t.Error("archived content differs from original message")
	}
}

func TestFileArchiveStoreNormalizesToUTC(t *testing.T) {
	a, err := NewFileArchive(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileArchive: %v", err)
	}

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("", 2*3600))
	path, err := a.Store([]byte("x"), ts, 1)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if filepath.Base(path) != "spam_20240301_100000_1.eml" {
		t.Errorf("file name = %q", filepath.Base(path))
	}
}
