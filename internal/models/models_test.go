package models

import (
	"reflect"
	"testing"
	"time"
)

func TestEngagementStatsNormalize(t *testing.T) {
	tests := []struct {
		name  string
		stats EngagementStats
		want  EngagementStats
	}{
		{
			name:  "max streak raised to current",
			stats: EngagementStats{CurrentStreak: 4, MaxStreak: 2, GenresSeen: []string{}},
			want:  EngagementStats{CurrentStreak: 4, MaxStreak: 4, GenresSeen: []string{}},
		},
		{
			name:  "duplicate genres collapsed",
			stats: EngagementStats{GenresSeen: []string{"fiction", "", "fiction", "horror"}, GenresExplored: 7},
			want:  EngagementStats{GenresSeen: []string{"fiction", "horror"}, GenresExplored: 2},
		},
		{
			name:  "negative counters clamped",
			stats: EngagementStats{BooksStarted: -3, GenresSeen: []string{}},
			want:  EngagementStats{GenresSeen: []string{}},
		},
		{
			name:  "unparseable date dropped",
			stats: EngagementStats{LastActiveDate: "yesterday", GenresSeen: []string{}},
			want:  EngagementStats{GenresSeen: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.stats
			got.Normalize()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAddGenre(t *testing.T) {
	stats := NewEngagementStats(time.Now())
	if !stats.AddGenre("fiction") {
		t.Error("AddGenre(fiction) = false, want true")
	}
	if stats.AddGenre("fiction") {
		t.Error("AddGenre(fiction) twice = true, want false")
	}
	if stats.AddGenre("") {
		t.Error("AddGenre(\"\") = true, want false")
	}
	if stats.GenresExplored != 1 {
		t.Errorf("GenresExplored = %d, want 1", stats.GenresExplored)
	}
}

func TestMergeStats(t *testing.T) {
	a := EngagementStats{BooksStarted: 3, CurrentStreak: 2, MaxStreak: 5, LastActiveDate: "2024-03-02", GenresSeen: []string{"fiction"}}
	b := EngagementStats{BooksStarted: 1, CurrentStreak: 1, MaxStreak: 1, LastActiveDate: "2024-03-04", NightReading: true, GenresSeen: []string{"horror", "fiction"}}

	got := MergeStats(a, b)
	if got.BooksStarted != 3 || got.MaxStreak != 5 {
		t.Errorf("counters = %d/%d, want 3/5", got.BooksStarted, got.MaxStreak)
	}
	if got.LastActiveDate != "2024-03-04" || got.CurrentStreak != 1 {
		t.Errorf("streak = %s/%d, want 2024-03-04/1", got.LastActiveDate, got.CurrentStreak)
	}
	if !got.NightReading {
		t.Error("NightReading should be carried over")
	}
	if got.GenresExplored != 2 {
		t.Errorf("GenresExplored = %d, want 2", got.GenresExplored)
	}
}

func TestBadgeCatalogOrder(t *testing.T) {
	want := []string{
		"first_book", "bookworm", "avid_reader", "audio_lover", "night_owl", "early_bird",
		"streak_3", "streak_7", "streak_30", "favorites_5", "explorer", "collector",
	}
	var got []string
	for _, b := range BadgeCatalog() {
		got = append(got, b.ID)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BadgeCatalog() ids = %v, want %v", got, want)
	}
}

func TestNewlyEarned(t *testing.T) {
	tests := []struct {
		name   string
		stats  EngagementStats
		earned EarnedBadges
		want   []string
	}{
		{
			name:  "fresh profile earns nothing",
			stats: EngagementStats{},
			want:  nil,
		},
		{
			name:  "first book",
			stats: EngagementStats{BooksStarted: 1},
			want:  []string{"first_book"},
		},
		{
			name:   "already earned is skipped",
			stats:  EngagementStats{BooksStarted: 5},
			earned: EarnedBadges{"first_book"},
			want:   []string{"bookworm"},
		},
		{
			name:  "catalog order",
			stats: EngagementStats{CollectionsCreated: 1, NightReading: true, MaxStreak: 3},
			want:  []string{"night_owl", "streak_3", "collector"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, b := range NewlyEarned(BadgeCatalog(), tt.stats, tt.earned) {
				got = append(got, b.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NewlyEarned() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEarnedBadgesUnion(t *testing.T) {
	got := EarnedBadges{"first_book", "night_owl"}.Union(EarnedBadges{"night_owl", "collector"})
	want := EarnedBadges{"first_book", "night_owl", "collector"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Union() = %v, want %v", got, want)
	}
}

func TestResolveProgress(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	local := ProgressRecord{ItemID: "b1", Position: []byte(`{"page":4}`), TimeSpentSeconds: 30, StartedAt: t1, UpdatedAt: t1}
	remote := ProgressRecord{ItemID: "b1", Position: []byte(`{"page":9}`), TimeSpentSeconds: 20, StartedAt: t1.Add(-time.Hour), UpdatedAt: t2}

	got := ResolveProgress(local, remote)
	if string(got.Position) != `{"page":9}` {
		t.Errorf("Position = %s, want newer remote position", got.Position)
	}
	if got.TimeSpentSeconds != 30 {
		t.Errorf("TimeSpentSeconds = %d, want 30", got.TimeSpentSeconds)
	}
	if !got.StartedAt.Equal(t1.Add(-time.Hour)) {
		t.Errorf("StartedAt = %v, want earliest", got.StartedAt)
	}

	remote.UpdatedAt = t1
	if got := ResolveProgress(local, remote); string(got.Position) != `{"page":4}` {
		t.Errorf("tie Position = %s, want local", got.Position)
	}
}

func TestCollectionAddRemove(t *testing.T) {
	c := Collection{ID: "c1", Name: "Later"}
	if !c.Add("b1") || c.Add("b1") {
		t.Error("Add() should insert once")
	}
	c.Add("b2")
	if c.Remove("missing") {
		t.Error("Remove(missing) = true, want false")
	}
	if !c.Remove("b1") {
		t.Error("Remove(b1) = false, want true")
	}
	if !reflect.DeepEqual(c.Items, []string{"b2"}) {
		t.Errorf("Items = %v, want [b2]", c.Items)
	}
}

func TestUnionFavorites(t *testing.T) {
	got := UnionFavorites([]string{"A", "B"}, []string{"B", "C"})
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UnionFavorites() = %v, want %v", got, want)
	}
	if got := UnionFavorites(); len(got) != 0 {
		t.Errorf("UnionFavorites() empty = %v", got)
	}
}

func TestSyncStatusString(t *testing.T) {
	tests := map[SyncStatus]string{
		Unauthenticated: "unauthenticated",
		Syncing:         "syncing",
		Synced:          "synced",
		SyncFailed:      "sync_failed",
	}
	for status, want := range tests {
		if got := status.String(); got != want {
			t.Errorf("String() = %v, want %v", got, want)
		}
	}
}
