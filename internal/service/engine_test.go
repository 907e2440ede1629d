package service

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagetrail/internal/catalog"
	"pagetrail/internal/models"
	"pagetrail/internal/store"
)

// recordingSink collects badge events in delivery order
type recordingSink struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingSink) BadgeEarned(_ context.Context, badge models.BadgeDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, badge.ID)
}

func (r *recordingSink) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func at(d, hour int) time.Time {
	return time.Date(2024, 3, d, hour, 0, 0, 0, time.UTC)
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *recordingSink, store.Store) {
	t.Helper()
	s := store.NewMemoryStore()
	sink := &recordingSink{}
	e := NewEngine(s, append([]Option{WithSink(sink)}, opts...)...)
	return e, sink, s
}

func TestRecordActivityScenario(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	stats := e.RecordActivity(ctx, "b1", models.KindEbook, "fiction", at(1, 12))
	assert.Equal(t, 1, stats.BooksStarted)
	assert.Equal(t, 1, stats.EbooksRead)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 1, stats.GenresExplored)

	stats = e.RecordActivity(ctx, "b2", models.KindAudio, "horror", at(2, 12))
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, 2, stats.MaxStreak)
	assert.Equal(t, 2, stats.GenresExplored)
	assert.Equal(t, 1, stats.AudiobooksPlayed)

	stats = e.RecordActivity(ctx, "b3", models.KindEbook, "", at(4, 12))
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 2, stats.MaxStreak)
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 2, stats.GenresExplored)
}

func TestRecordActivitySameDayKeepsStreak(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	e.RecordActivity(ctx, "b1", models.KindEbook, "", at(1, 9))
	stats := e.RecordActivity(ctx, "b1", models.KindEbook, "", at(1, 22))
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 2, stats.BooksStarted)
}

func TestRecordActivityTimeOfDayFlags(t *testing.T) {
	tests := []struct {
		name      string
		hour      int
		wantNight bool
		wantEarly bool
	}{
		{name: "midnight", hour: 0, wantNight: true},
		{name: "three am", hour: 3, wantNight: true},
		{name: "four am", hour: 4},
		{name: "five am", hour: 5, wantEarly: true},
		{name: "six am", hour: 6, wantEarly: true},
		{name: "seven am", hour: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _ := newTestEngine(t)
			stats := e.RecordActivity(context.Background(), "b1", models.KindAudio, "", at(1, tt.hour))
			assert.Equal(t, tt.wantNight, stats.NightReading)
			assert.Equal(t, tt.wantEarly, stats.EarlyReading)
		})
	}
}

func TestFirstBookBadgeFiresOnce(t *testing.T) {
	ctx := context.Background()
	e, sink, _ := newTestEngine(t)

	e.RecordActivity(ctx, "b1", models.KindEbook, "fiction", at(1, 12))
	e.RecordActivity(ctx, "b2", models.KindEbook, "fiction", at(1, 13))

	assert.Equal(t, []string{"first_book"}, sink.events())
	assert.Equal(t, models.EarnedBadges{"first_book"}, e.EarnedBadges(ctx))
}

func TestBadgesEmittedInCatalogOrder(t *testing.T) {
	ctx := context.Background()
	e, sink, _ := newTestEngine(t)

	// One night-time activity unlocks first_book and night_owl together
	e.RecordActivity(ctx, "b1", models.KindAudio, "fiction", at(1, 2))
	assert.Equal(t, []string{"first_book", "night_owl"}, sink.events())

	for d := 2; d <= 3; d++ {
		e.RecordActivity(ctx, "b1", models.KindAudio, "horror", at(d, 12))
	}
	e.RecordActivity(ctx, "b1", models.KindAudio, "poetry", at(3, 13))
	assert.Equal(t, []string{"first_book", "night_owl", "streak_3", "explorer"}, sink.events())

	for _, status := range e.AllBadges(ctx) {
		want := status.ID == "first_book" || status.ID == "night_owl" || status.ID == "streak_3" || status.ID == "explorer"
		assert.Equal(t, want, status.Earned, status.ID)
	}
}

func TestOpenItemUsesCatalogGenre(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t, WithCatalog(catalog.Static{"b1": "fantasy"}))

	stats := e.OpenItem(ctx, "b1", models.KindEbook, at(1, 12))
	assert.Equal(t, []string{"fantasy"}, stats.GenresSeen)

	stats = e.OpenItem(ctx, "unknown", models.KindEbook, at(1, 13))
	assert.Equal(t, 1, stats.GenresExplored)

	last := e.LastItem(ctx)
	require.NotNil(t, last)
	assert.Equal(t, "unknown", last.ItemID)
}

func TestCorruptStatsFallBackToDefaults(t *testing.T) {
	ctx := context.Background()
	e, _, s := newTestEngine(t)
	require.NoError(t, s.Set(ctx, store.KeyStats, []byte("garbage")))

	stats := e.RecordActivity(ctx, "b1", models.KindEbook, "", at(1, 12))
	assert.Equal(t, 1, stats.BooksStarted)
	assert.Equal(t, 1, stats.CurrentStreak)
}

func TestRecordProgress(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t, WithTimeUnit(5*time.Second))

	assert.Nil(t, e.Progress(ctx, "b1"))
	assert.False(t, e.HasStarted(ctx, "b1"))

	first := e.RecordProgress(ctx, "b1", models.KindAudio, json.RawMessage(`{"t":10}`), at(1, 12))
	second := e.RecordProgress(ctx, "b1", "", json.RawMessage(`{"t":20}`), at(1, 13))

	assert.Equal(t, int64(5), first.TimeSpentSeconds)
	assert.Equal(t, int64(10), second.TimeSpentSeconds)
	assert.True(t, second.StartedAt.Equal(at(1, 12)), "startedAt must not move")
	assert.True(t, second.UpdatedAt.Equal(at(1, 13)))
	assert.Equal(t, models.KindAudio, second.Kind)
	assert.JSONEq(t, `{"t":20}`, string(second.Position))
	assert.True(t, e.HasStarted(ctx, "b1"))

	e.RecordProgress(ctx, "a2", models.KindEbook, nil, at(1, 14))
	all := e.AllProgress(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "a2", all[0].ItemID)
	assert.Equal(t, "b1", all[1].ItemID)
}

func TestRecordProgressOverwritesPosition(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	e.RecordProgress(ctx, "b1", models.KindEbook, json.RawMessage(`{"page":12}`), at(1, 12))
	record := e.RecordProgress(ctx, "b1", "", nil, at(1, 13))

	assert.Nil(t, record.Position)
	assert.Nil(t, e.Progress(ctx, "b1").Position)
	assert.Equal(t, models.KindEbook, record.Kind, "an empty kind keeps the stored kind")
	assert.Equal(t, int64(2), record.TimeSpentSeconds)
}

func TestRecordProgressIsMonotonic(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	var last int64
	for i := 0; i < 20; i++ {
		record := e.RecordProgress(ctx, "b1", models.KindEbook, nil, at(1, 12).Add(time.Duration(i)*time.Minute))
		assert.GreaterOrEqual(t, record.TimeSpentSeconds, last)
		last = record.TimeSpentSeconds
	}
	assert.Equal(t, int64(20), last)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
		wantOK  bool
	}{
		{seconds: 0},
		{seconds: 59},
		{seconds: 60, want: "1 min", wantOK: true},
		{seconds: 3599, want: "59 min", wantOK: true},
		{seconds: 3600, want: "1h 0m", wantOK: true},
		{seconds: 3661, want: "1h 1m", wantOK: true},
	}

	for _, tt := range tests {
		got, ok := FormatDuration(tt.seconds)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("FormatDuration(%d) = %q, %v; want %q, %v", tt.seconds, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCollections(t *testing.T) {
	ctx := context.Background()
	e, sink, _ := newTestEngine(t)

	c, ok := e.CreateCollection(ctx, "  Summer reads ", at(1, 12))
	require.True(t, ok)
	assert.Equal(t, "Summer reads", c.Name)
	assert.Len(t, c.ID, 26)
	assert.Equal(t, []string{"collector"}, sink.events())
	assert.Equal(t, 1, e.Stats(ctx, at(1, 12)).CollectionsCreated)

	e.AddToCollection(ctx, c.ID, "b1")
	e.AddToCollection(ctx, c.ID, "b1")
	e.AddToCollection(ctx, c.ID, "b2")
	e.RemoveFromCollection(ctx, c.ID, "missing")
	e.AddToCollection(ctx, "no-such-collection", "b3")
	e.RemoveFromCollection(ctx, "no-such-collection", "b1")

	got := e.Collection(ctx, c.ID)
	require.NotNil(t, got)
	assert.Equal(t, []string{"b1", "b2"}, got.Items)

	e.RemoveFromCollection(ctx, c.ID, "b1")
	assert.Equal(t, []string{"b2"}, e.Collection(ctx, c.ID).Items)

	other, ok := e.CreateCollection(ctx, "Later", at(1, 12))
	require.True(t, ok)
	assert.NotEqual(t, c.ID, other.ID)
	assert.Len(t, e.Collections(ctx), 2)

	assert.True(t, e.DeleteCollection(ctx, c.ID, at(1, 13)))
	assert.False(t, e.DeleteCollection(ctx, c.ID, at(1, 13)))
	assert.Nil(t, e.Collection(ctx, c.ID))
	assert.Equal(t, 1, e.Stats(ctx, at(1, 13)).CollectionsCreated)

	assert.True(t, e.DeleteCollection(ctx, other.ID, at(1, 14)))
	assert.True(t, e.EarnedBadges(ctx).Has("collector"), "deleting collections never revokes badges")
	assert.Equal(t, []string{"collector"}, sink.events())
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	e, sink, _ := newTestEngine(t)

	for _, id := range []string{"b5", "b4", "b3", "b2"} {
		assert.True(t, e.ToggleFavorite(ctx, id, at(1, 12)))
	}
	assert.False(t, e.ToggleFavorite(ctx, "b2", at(1, 12)))
	assert.False(t, e.IsFavorite(ctx, "b2"))
	assert.Empty(t, sink.events())

	e.ToggleFavorite(ctx, "b1", at(1, 12))
	e.ToggleFavorite(ctx, "b2", at(1, 12))
	assert.Equal(t, []string{"b1", "b2", "b3", "b4", "b5"}, e.Favorites(ctx))
	assert.Equal(t, []string{"favorites_5"}, sink.events())
	assert.Equal(t, 5, e.Stats(ctx, at(1, 12)).FavoritesCount)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	settings := e.Settings(ctx)
	assert.False(t, settings.NightMode)
	assert.Equal(t, models.FontMedium, settings.FontSize)
	require.NotEmpty(t, settings.DeviceID)
	assert.Equal(t, settings.DeviceID, e.Settings(ctx).DeviceID, "device id must be stable")

	assert.True(t, e.ToggleNightMode(ctx))
	assert.False(t, e.ToggleNightMode(ctx))

	saved := e.SaveSettings(ctx, models.Settings{FontSize: models.FontLarge})
	assert.Equal(t, settings.DeviceID, saved.DeviceID)
	assert.Equal(t, models.FontLarge, e.Settings(ctx).FontSize)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source, _, _ := newTestEngine(t)
	source.RecordActivity(ctx, "b1", models.KindEbook, "fiction", at(1, 12))
	source.RecordProgress(ctx, "b1", models.KindEbook, json.RawMessage(`{"page":3}`), at(1, 12))
	source.ToggleFavorite(ctx, "b1", at(1, 12))
	c, _ := source.CreateCollection(ctx, "Later", at(1, 12))
	source.AddToCollection(ctx, c.ID, "b1")

	var buf bytes.Buffer
	require.NoError(t, source.Export(ctx, &buf))

	target, sink, _ := newTestEngine(t)
	target.ToggleFavorite(ctx, "b9", at(2, 12))
	target.RecordProgress(ctx, "b1", models.KindEbook, nil, at(2, 12))
	target.RecordProgress(ctx, "b1", models.KindEbook, nil, at(2, 13))
	require.NoError(t, target.Import(ctx, &buf))

	assert.Equal(t, []string{"b1", "b9"}, target.Favorites(ctx))
	assert.Equal(t, int64(2), target.Progress(ctx, "b1").TimeSpentSeconds)
	assert.Equal(t, 1, target.Stats(ctx, at(2, 12)).BooksStarted)
	require.NotNil(t, target.Collection(ctx, c.ID))
	assert.Equal(t, []string{"b1"}, target.Collection(ctx, c.ID).Items)
	assert.True(t, target.EarnedBadges(ctx).Has("first_book"))
	assert.Empty(t, sink.events(), "imported badges are not re-announced")
}

func TestImportRejectsGarbage(t *testing.T) {
	e, _, _ := newTestEngine(t)
	assert.Error(t, e.Import(context.Background(), bytes.NewBufferString("not json")))
	assert.Error(t, e.Import(context.Background(), bytes.NewBufferString(`{"favorites":["b1"]}`)))
	assert.Empty(t, e.Favorites(context.Background()))
}
