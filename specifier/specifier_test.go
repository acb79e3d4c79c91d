package specifier

import "testing"

func TestStorageKeyCanonicalization(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{
			name: "trailing dot git",
			a:    "https://example.com/org/foo",
			b:    "https://example.com/org/foo.git",
		},
		{
			name: "host case",
			a:    "https://Example.com/org/foo",
			b:    "https://example.com/org/foo",
		},
		{
			name: "trailing slash",
			a:    "https://example.com/org/foo/",
			b:    "https://example.com/org/foo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := StorageKeyForURL(tt.a)
			kb := StorageKeyForURL(tt.b)
			if ka != kb {
				t.Errorf("StorageKeyForURL(%q) = %q, StorageKeyForURL(%q) = %q, want equal", tt.a, ka, tt.b, kb)
			}
		})
	}
}

func TestStorageKeyDiffers(t *testing.T) {
	k1 := StorageKeyForURL("https://example.com/org/foo")
	k2 := StorageKeyForURL("https://example.com/org/bar")
	if k1 == k2 {
		t.Errorf("expected different storage keys for different repositories, got %q for both", k1)
	}
}

func TestSpecifierEqual(t *testing.T) {
	a := New("https://example.com/org/foo.git")
	b := New("https://example.com/org/foo")
	if !a.Equal(b) {
		t.Errorf("expected %q and %q to be equal specifiers", a.URL(), b.URL())
	}

	c := New("https://example.com/org/other")
	if a.Equal(c) {
		t.Errorf("expected %q and %q to be different specifiers", a.URL(), c.URL())
	}
}

func TestSpecifierLocalPath(t *testing.T) {
	s := New("/tmp/my-repo")
	if !s.IsLocal() {
		t.Errorf("expected local path specifier to report IsLocal() == true")
	}
}

func TestStorageKeyFilesystemSafe(t *testing.T) {
	key := StorageKeyForURL("https://example.com/org/foo")
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			t.Errorf("storage key %q contains filesystem-unsafe rune %q", key, r)
		}
	}
}
