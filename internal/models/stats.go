package models

import (
	"sort"
	"time"
)

// DateLayout is the calendar-date format used for LastActiveDate
const DateLayout = "2006-01-02"

// ItemKind distinguishes audiobooks from ebooks
type ItemKind string

const (
	KindAudio ItemKind = "audio"
	KindEbook ItemKind = "ebook"
)

// Valid reports whether k is a known kind
func (k ItemKind) Valid() bool {
	return k == KindAudio || k == KindEbook
}

// EngagementStats holds the counters and streak state for one device profile
type EngagementStats struct {
	BooksStarted       int       `json:"books_started"`
	AudiobooksPlayed   int       `json:"audiobooks_played"`
	EbooksRead         int       `json:"ebooks_read"`
	TotalSessions      int       `json:"total_sessions"`
	CurrentStreak      int       `json:"current_streak"`
	MaxStreak          int       `json:"max_streak"`
	LastActiveDate     string    `json:"last_active_date,omitempty"`
	NightReading       bool      `json:"night_reading"`
	EarlyReading       bool      `json:"early_reading"`
	GenresSeen         []string  `json:"genres_seen"`
	GenresExplored     int       `json:"genres_explored"`
	FavoritesCount     int       `json:"favorites_count"`
	CollectionsCreated int       `json:"collections_created"`
	FirstVisit         time.Time `json:"first_visit"`
}

// NewEngagementStats returns first-use defaults
func NewEngagementStats(now time.Time) EngagementStats {
	return EngagementStats{
		GenresSeen: []string{},
		FirstVisit: now,
	}
}

// CalendarDate formats t as a calendar day in t's own location
func CalendarDate(t time.Time) string {
	return t.Format(DateLayout)
}

// HasGenre reports whether genre was already explored
func (s *EngagementStats) HasGenre(genre string) bool {
	for _, g := range s.GenresSeen {
		if g == genre {
			return true
		}
	}
	return false
}

// AddGenre records genre, returning false when it was already seen or empty
func (s *EngagementStats) AddGenre(genre string) bool {
	if genre == "" || s.HasGenre(genre) {
		return false
	}
	s.GenresSeen = append(s.GenresSeen, genre)
	s.GenresExplored = len(s.GenresSeen)
	return true
}

// Normalize repairs a record loaded from storage so the derived fields and
// streak bounds hold.
func (s *EngagementStats) Normalize() {
	for _, counter := range []*int{
		&s.BooksStarted, &s.AudiobooksPlayed, &s.EbooksRead, &s.TotalSessions,
		&s.CurrentStreak, &s.MaxStreak, &s.FavoritesCount, &s.CollectionsCreated,
	} {
		if *counter < 0 {
			*counter = 0
		}
	}
	if s.MaxStreak < s.CurrentStreak {
		s.MaxStreak = s.CurrentStreak
	}
	if s.LastActiveDate != "" {
		if _, err := time.Parse(DateLayout, s.LastActiveDate); err != nil {
			s.LastActiveDate = ""
		}
	}

	seen := make(map[string]bool, len(s.GenresSeen))
	genres := make([]string, 0, len(s.GenresSeen))
	for _, g := range s.GenresSeen {
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		genres = append(genres, g)
	}
	s.GenresSeen = genres
	s.GenresExplored = len(genres)
}

// MergeStats combines two copies of the same profile's stats without losing
// progress: counters take the larger value, flags are OR-ed and genres unioned.
func MergeStats(a, b EngagementStats) EngagementStats {
	out := a
	out.BooksStarted = max(a.BooksStarted, b.BooksStarted)
	out.AudiobooksPlayed = max(a.AudiobooksPlayed, b.AudiobooksPlayed)
	out.EbooksRead = max(a.EbooksRead, b.EbooksRead)
	out.TotalSessions = max(a.TotalSessions, b.TotalSessions)
	out.MaxStreak = max(a.MaxStreak, b.MaxStreak)
	out.NightReading = a.NightReading || b.NightReading
	out.EarlyReading = a.EarlyReading || b.EarlyReading
	out.FavoritesCount = max(a.FavoritesCount, b.FavoritesCount)
	out.CollectionsCreated = max(a.CollectionsCreated, b.CollectionsCreated)

	// The most recently active copy owns the current streak
	if b.LastActiveDate > a.LastActiveDate {
		out.LastActiveDate = b.LastActiveDate
		out.CurrentStreak = b.CurrentStreak
	}
	if !b.FirstVisit.IsZero() && (a.FirstVisit.IsZero() || b.FirstVisit.Before(a.FirstVisit)) {
		out.FirstVisit = b.FirstVisit
	}

	out.GenresSeen = append(append([]string{}, a.GenresSeen...), b.GenresSeen...)
	out.Normalize()
	return out
}

// SortedGenres returns the explored genres in lexical order
func (s EngagementStats) SortedGenres() []string {
	genres := append([]string(nil), s.GenresSeen...)
	sort.Strings(genres)
	return genres
}
