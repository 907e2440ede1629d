package models

import "time"

// Collection is a user-defined, ordered group of item ids without duplicates
type Collection struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Items     []string  `json:"items"`
	CreatedAt time.Time `json:"created_at"`
}

// Contains reports whether itemID is in the collection
func (c *Collection) Contains(itemID string) bool {
	for _, id := range c.Items {
		if id == itemID {
			return true
		}
	}
	return false
}

// Add appends itemID unless present, reporting whether it changed the collection
func (c *Collection) Add(itemID string) bool {
	if c.Contains(itemID) {
		return false
	}
	c.Items = append(c.Items, itemID)
	return true
}

// Remove drops itemID, reporting whether it was present
func (c *Collection) Remove(itemID string) bool {
	for i, id := range c.Items {
		if id == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Normalize drops duplicate item ids, keeping first occurrences
func (c *Collection) Normalize() {
	seen := make(map[string]bool, len(c.Items))
	items := make([]string, 0, len(c.Items))
	for _, id := range c.Items {
		if seen[id] {
			continue
		}
		seen[id] = true
		items = append(items, id)
	}
	c.Items = items
}
