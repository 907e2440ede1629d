// Package catalog resolves item genres from the out-of-band catalog file.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Catalog looks up the genre of a catalog item
type Catalog interface {
	Genre(itemID string) (string, bool)
}

// Entry is the part of a catalog item the engine reads
type Entry struct {
	ID    string `json:"id"`
	Genre string `json:"genre"`
}

// Static is an in-memory catalog keyed by item id
type Static map[string]string

func (s Static) Genre(itemID string) (string, bool) {
	genre, ok := s[itemID]
	return genre, ok && genre != ""
}

// FromEntries builds a catalog, later entries overriding earlier ones
func FromEntries(entries []Entry) Static {
	s := make(Static, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		s[e.ID] = strings.ToLower(strings.TrimSpace(e.Genre))
	}
	return s
}

// LoadFile reads a JSON array of catalog items. Fields other than id and
// genre are ignored.
func LoadFile(path string) (Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return FromEntries(entries), nil
}
