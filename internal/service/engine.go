package service

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"pagetrail/internal/catalog"
	"pagetrail/internal/models"
	"pagetrail/internal/repository"
	"pagetrail/internal/store"
)

// Engine is the entry point for every engagement operation on one device
// profile. Local operations are serialized by a single mutex; remote calls
// and event delivery happen outside it.
type Engine struct {
	mu sync.Mutex

	stats       *StatsService
	badges      *BadgeService
	progress    *ProgressService
	collections *CollectionService
	favorites   *FavoritesService
	settings    *SettingsService
	backup      *BackupService
	sync        *SyncCoordinator

	catalog catalog.Catalog
	sink    EventSink
	logger  *zap.Logger
}

type engineOptions struct {
	remote   Remote
	sink     EventSink
	catalog  catalog.Catalog
	timeUnit time.Duration
	logger   *zap.Logger
}

// Option configures an Engine
type Option func(*engineOptions)

// WithRemote enables syncing with remote
func WithRemote(remote Remote) Option {
	return func(o *engineOptions) { o.remote = remote }
}

// WithSink sets the receiver of badge events
func WithSink(sink EventSink) Option {
	return func(o *engineOptions) { o.sink = sink }
}

// WithCatalog sets the catalog used by OpenItem
func WithCatalog(c catalog.Catalog) Option {
	return func(o *engineOptions) { o.catalog = c }
}

// WithTimeUnit sets the time credited per RecordProgress call
func WithTimeUnit(unit time.Duration) Option {
	return func(o *engineOptions) { o.timeUnit = unit }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *engineOptions) { o.logger = logger }
}

// NewEngine creates an engine persisting through s
func NewEngine(s store.Store, opts ...Option) *Engine {
	o := engineOptions{timeUnit: DefaultTimeUnit}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.catalog == nil {
		o.catalog = catalog.Static{}
	}

	repos := repository.New(s)
	e := &Engine{
		catalog: o.catalog,
		sink:    o.sink,
		logger:  o.logger,
	}
	e.stats = NewStatsService(repos, o.logger.Named("stats"))
	e.badges = NewBadgeService(repos, e.stats, o.logger.Named("badges"))
	e.progress = NewProgressService(repos, o.timeUnit, o.logger.Named("progress"))
	e.collections = NewCollectionService(repos, o.logger.Named("collections"))
	e.favorites = NewFavoritesService(repos, o.logger.Named("favorites"))
	e.settings = NewSettingsService(repos, o.logger.Named("settings"))
	e.backup = NewBackupService(repos, o.logger.Named("backup"))
	e.sync = NewSyncCoordinator(o.remote, &e.mu, e.favorites, e.progress, o.logger.Named("sync"))
	return e
}

// emit delivers badge events; it must be called without holding e.mu
func (e *Engine) emit(ctx context.Context, badges []models.BadgeDefinition) {
	if e.sink == nil {
		return
	}
	for _, badge := range badges {
		e.sink.BadgeEarned(ctx, badge)
	}
}

// RecordActivity counts an opening of itemID and evaluates badges
func (e *Engine) RecordActivity(ctx context.Context, itemID string, kind models.ItemKind, genre string, now time.Time) models.EngagementStats {
	e.mu.Lock()
	stats, ok := e.stats.RecordActivity(ctx, itemID, kind, genre, now)
	var earned []models.BadgeDefinition
	if ok {
		earned = e.badges.Evaluate(ctx, now)
		stats = e.stats.Get(ctx, now)
	}
	e.mu.Unlock()

	e.emit(ctx, earned)
	return stats
}

// OpenItem records an activity for itemID with its genre taken from the catalog
func (e *Engine) OpenItem(ctx context.Context, itemID string, kind models.ItemKind, now time.Time) models.EngagementStats {
	genre, _ := e.catalog.Genre(itemID)
	return e.RecordActivity(ctx, itemID, kind, genre, now)
}

// Stats returns the current engagement stats
func (e *Engine) Stats(ctx context.Context, now time.Time) models.EngagementStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.Get(ctx, now)
}

// LastItem returns the most recently touched item, or nil
func (e *Engine) LastItem(ctx context.Context) *models.LastItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.LastItem(ctx)
}

// RecordProgress credits time to itemID, stores its position and pushes the
// record to the remote while synced. When the stored record cannot be read
// nothing is written or pushed.
func (e *Engine) RecordProgress(ctx context.Context, itemID string, kind models.ItemKind, position json.RawMessage, now time.Time) models.ProgressRecord {
	e.mu.Lock()
	record, ok := e.progress.RecordProgress(ctx, itemID, kind, position, now)
	e.mu.Unlock()

	if ok {
		e.sync.PushProgress(ctx, record)
	}
	return record
}

// Progress returns the progress for itemID, or nil
func (e *Engine) Progress(ctx context.Context, itemID string) *models.ProgressRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress.Get(ctx, itemID)
}

// HasStarted reports whether any time was spent on itemID
func (e *Engine) HasStarted(ctx context.Context, itemID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress.HasStarted(ctx, itemID)
}

// AllProgress lists every progress record
func (e *Engine) AllProgress(ctx context.Context) []models.ProgressRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress.All(ctx)
}

// ToggleFavorite flips itemID's membership, evaluates badges and pushes the
// new set while synced.
func (e *Engine) ToggleFavorite(ctx context.Context, itemID string, now time.Time) bool {
	e.mu.Lock()
	isFavorite, ok := e.favorites.Toggle(ctx, itemID)
	if !ok {
		e.mu.Unlock()
		return isFavorite
	}
	earned := e.badges.Evaluate(ctx, now)
	favorites := e.favorites.List(ctx)
	e.mu.Unlock()

	e.emit(ctx, earned)
	e.sync.PushFavorites(ctx, favorites)
	return isFavorite
}

// IsFavorite reports whether itemID is a favorite
func (e *Engine) IsFavorite(ctx context.Context, itemID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.favorites.IsFavorite(ctx, itemID)
}

// Favorites returns the favorite ids in sorted order
func (e *Engine) Favorites(ctx context.Context) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.favorites.List(ctx)
}

// AllBadges lists the badge catalog with earned flags
func (e *Engine) AllBadges(ctx context.Context) []models.BadgeStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.badges.AllBadges(ctx)
}

// EarnedBadges returns the earned badge ids in earning order
func (e *Engine) EarnedBadges(ctx context.Context) models.EarnedBadges {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.badges.Earned(ctx)
}

// CreateCollection creates an empty collection and evaluates badges. ok is
// false when the collection list could not be read or saved.
func (e *Engine) CreateCollection(ctx context.Context, name string, now time.Time) (models.Collection, bool) {
	e.mu.Lock()
	collection, ok := e.collections.Create(ctx, name, now)
	var earned []models.BadgeDefinition
	if ok {
		earned = e.badges.Evaluate(ctx, now)
	}
	e.mu.Unlock()

	e.emit(ctx, earned)
	return collection, ok
}

// AddToCollection adds itemID to a collection; unknown ids are ignored
func (e *Engine) AddToCollection(ctx context.Context, collectionID, itemID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.collections.AddItem(ctx, collectionID, itemID)
}

// RemoveFromCollection removes itemID from a collection; unknown ids are ignored
func (e *Engine) RemoveFromCollection(ctx context.Context, collectionID, itemID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.collections.RemoveItem(ctx, collectionID, itemID)
}

// DeleteCollection removes a collection. Earned badges are kept.
func (e *Engine) DeleteCollection(ctx context.Context, collectionID string, now time.Time) bool {
	e.mu.Lock()
	deleted := e.collections.Delete(ctx, collectionID)
	var earned []models.BadgeDefinition
	if deleted {
		earned = e.badges.Evaluate(ctx, now)
	}
	e.mu.Unlock()

	e.emit(ctx, earned)
	return deleted
}

// Collections lists every collection in creation order
func (e *Engine) Collections(ctx context.Context) []models.Collection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.collections.List(ctx)
}

// Collection returns one collection, or nil
func (e *Engine) Collection(ctx context.Context, id string) *models.Collection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.collections.Get(ctx, id)
}

// Settings returns the reader preferences
func (e *Engine) Settings(ctx context.Context) models.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings.Get(ctx)
}

// SaveSettings overwrites the reader preferences
func (e *Engine) SaveSettings(ctx context.Context, settings models.Settings) models.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings.Save(ctx, settings)
}

// ToggleNightMode flips night mode and returns the new value
func (e *Engine) ToggleNightMode(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings.ToggleNightMode(ctx)
}

// SignIn authenticates principal and syncs favorites with the remote. The
// merged favorites may unlock badges.
func (e *Engine) SignIn(ctx context.Context, principal models.Principal, now time.Time) error {
	err := e.sync.SignIn(ctx, principal)
	e.afterSync(ctx, now)
	return err
}

// Resync repeats the sign-in sync
func (e *Engine) Resync(ctx context.Context, now time.Time) error {
	err := e.sync.Resync(ctx)
	e.afterSync(ctx, now)
	return err
}

func (e *Engine) afterSync(ctx context.Context, now time.Time) {
	e.mu.Lock()
	earned := e.badges.Evaluate(ctx, now)
	e.mu.Unlock()
	e.emit(ctx, earned)
}

// SignOut forgets the principal and keeps local data
func (e *Engine) SignOut() {
	e.sync.SignOut()
}

// ResumeProgress resolves itemID's progress against the remote copy
func (e *Engine) ResumeProgress(ctx context.Context, itemID string) (*models.ProgressRecord, error) {
	return e.sync.ResumeProgress(ctx, itemID)
}

// SyncStatus returns the sync coordinator status
func (e *Engine) SyncStatus() models.SyncStatus {
	return e.sync.Status()
}

// SyncError returns the error behind the last failed sync
func (e *Engine) SyncError() error {
	return e.sync.LastError()
}

// OnSyncStatusChange registers an observer for sync status transitions
func (e *Engine) OnSyncStatusChange(fn StatusObserver) {
	e.sync.OnStatusChange(fn)
}

// Export writes a snapshot of the whole profile to w
func (e *Engine) Export(ctx context.Context, w io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backup.Export(ctx, w)
}

// Import merges a snapshot from r into the profile
func (e *Engine) Import(ctx context.Context, r io.Reader) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backup.Import(ctx, r)
}
