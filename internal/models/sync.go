package models

import (
	"sort"
	"time"
)

// SyncStatus is the state of the sync coordinator
type SyncStatus int

const (
	Unauthenticated SyncStatus = iota
	Syncing
	Synced
	SyncFailed
)

func (s SyncStatus) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Syncing:
		return "syncing"
	case Synced:
		return "synced"
	case SyncFailed:
		return "sync_failed"
	default:
		return "unknown"
	}
}

// Principal is an authenticated remote user
type Principal struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// UserDocument is the remote per-user copy of favorites and progress
type UserDocument struct {
	Profile     *Principal                `json:"profile,omitempty"`
	Favorites   []string                  `json:"favorites"`
	Progress    map[string]ProgressRecord `json:"progress"`
	LastUpdated time.Time                 `json:"last_updated"`
}

// DocumentUpdate is a partial write. A nil Favorites leaves the remote set
// untouched, Progress entries are upserted per item and a nil Profile leaves
// the stored profile alone.
type DocumentUpdate struct {
	Profile   *Principal
	Favorites []string
	Progress  map[string]ProgressRecord
	UpdatedAt time.Time
}

// UnionFavorites merges favorite sets, never dropping an id present in either
// side. The result is sorted.
func UnionFavorites(sets ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, set := range sets {
		for _, id := range set {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
