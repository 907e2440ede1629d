package models

import (
	"encoding/json"
	"time"
)

// ProgressRecord is the resume state and accumulated time for one item
type ProgressRecord struct {
	ItemID           string          `json:"item_id"`
	Kind             ItemKind        `json:"kind"`
	Position         json.RawMessage `json:"position,omitempty"`
	TimeSpentSeconds int64           `json:"time_spent_seconds"`
	StartedAt        time.Time       `json:"started_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// HasStarted reports whether any time was accumulated on the item
func (p ProgressRecord) HasStarted() bool {
	return p.TimeSpentSeconds > 0
}

// ResolveProgress picks between a local and a remote copy of the same item's
// progress. The newer UpdatedAt owns the position, local wins ties, time
// spent never decreases and StartedAt keeps the earliest value.
func ResolveProgress(local, remote ProgressRecord) ProgressRecord {
	out := local
	if remote.UpdatedAt.After(local.UpdatedAt) {
		out = remote
	}
	out.ItemID = local.ItemID
	if out.ItemID == "" {
		out.ItemID = remote.ItemID
	}
	out.TimeSpentSeconds = max(local.TimeSpentSeconds, remote.TimeSpentSeconds)
	switch {
	case local.StartedAt.IsZero():
		out.StartedAt = remote.StartedAt
	case remote.StartedAt.IsZero():
		out.StartedAt = local.StartedAt
	case remote.StartedAt.Before(local.StartedAt):
		out.StartedAt = remote.StartedAt
	default:
		out.StartedAt = local.StartedAt
	}
	return out
}

// LastItem remembers the most recently touched item for "continue reading"
type LastItem struct {
	ItemID    string          `json:"item_id"`
	Kind      ItemKind        `json:"kind"`
	Position  json.RawMessage `json:"position,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
