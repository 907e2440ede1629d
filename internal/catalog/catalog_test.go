package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.json")
	content := `[
		{"id": "b1", "title": "Dune", "genre": "Sci-Fi "},
		{"id": "b2", "title": "Untitled"},
		{"title": "no id", "genre": "horror"}
	]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	tests := []struct {
		itemID    string
		wantGenre string
		wantOK    bool
	}{
		{itemID: "b1", wantGenre: "sci-fi", wantOK: true},
		{itemID: "b2", wantGenre: "", wantOK: false},
		{itemID: "missing", wantGenre: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.itemID, func(t *testing.T) {
			genre, ok := c.Genre(tt.itemID)
			if genre != tt.wantGenre || ok != tt.wantOK {
				t.Errorf("Genre(%q) = %q, %v; want %q, %v", tt.itemID, genre, ok, tt.wantGenre, tt.wantOK)
			}
		})
	}
	if len(c) != 2 {
		t.Errorf("catalog size = %d, want 2", len(c))
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadFile(missing) should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	_ = os.WriteFile(path, []byte(`{"id":"b1"}`), 0o644)
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile(object) should fail")
	}
}
