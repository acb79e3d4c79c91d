package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPutGetPersistence(t *testing.T) {
	dir := t.TempDir()

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := c.Put("key1", Entry{URL: "https://example.com/org/foo", Subpath: "key1", Status: StatusAvailable}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	reloaded, err := Load(dir)
	if err != nil {
		t.Fatalf("reload Load() error = %v", err)
	}

	entry, ok := reloaded.Get("key1")
	if !ok {
		t.Fatalf("expected key1 to survive reload")
	}
	if entry.URL != "https://example.com/org/foo" || entry.Status != StatusAvailable {
		t.Errorf("reloaded entry = %+v, want URL/Status preserved", entry)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	dir := t.TempDir()
	c, _ := Load(dir)

	if err := c.Put("key1", Entry{URL: "u", Subpath: "key1", Status: StatusAvailable}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := c.Delete("key1"); err != nil {
		t.Fatalf("first Delete() error = %v", err)
	}
	if err := c.Delete("key1"); err != nil {
		t.Fatalf("second Delete() error = %v, want nil (idempotent)", err)
	}
	if _, ok := c.Get("key1"); ok {
		t.Errorf("expected key1 to be gone after Delete")
	}
}

func TestLoadRecoversFromCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, []byte("{not valid json"), 0o644); err != nil {
		t.Fatalf("failed to seed corrupt catalog file: %v", err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() on corrupt file error = %v, want recovery to empty catalog", err)
	}
	if len(c.All()) != 0 {
		t.Errorf("expected empty catalog after recovering from corrupt file, got %d entries", len(c.All()))
	}
}

func TestLoadMissingFileIsEmptyCatalog(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() on missing file error = %v", err)
	}
	if len(c.All()) != 0 {
		t.Errorf("expected empty catalog for missing file, got %d entries", len(c.All()))
	}
}

func TestResetClearsFileAndMemory(t *testing.T) {
	dir := t.TempDir()
	c, _ := Load(dir)
	if err := c.Put("key1", Entry{URL: "u", Subpath: "key1", Status: StatusAvailable}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if len(c.All()) != 0 {
		t.Errorf("expected no entries after Reset, got %d", len(c.All()))
	}
	if _, err := os.Stat(filepath.Join(dir, fileName)); !os.IsNotExist(err) {
		t.Errorf("expected catalog file to be removed after Reset, stat err = %v", err)
	}
}

func TestWriteAtomicNoPartialFileOnCrash(t *testing.T) {
	dir := t.TempDir()
	c, _ := Load(dir)
	if err := c.Put("key1", Entry{URL: "u", Subpath: "key1", Status: StatusAvailable}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("expected no leftover temp file after successful Put, found %s", e.Name())
		}
	}
}
