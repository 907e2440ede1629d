package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pagetrail/internal/models"
)

var (
	// ErrNotSignedIn is returned by sync operations that need a principal
	ErrNotSignedIn = errors.New("sync: not signed in")
	// ErrLocalUnavailable is returned when local state could not be read, so
	// nothing was merged or written
	ErrLocalUnavailable = errors.New("sync: local store unavailable")
)

// Remote is the per-user document store the coordinator reconciles with.
// FetchUserDocument returns nil, nil when the user has no document yet.
// WriteUserDocument applies a partial update.
type Remote interface {
	FetchUserDocument(ctx context.Context, uid string) (*models.UserDocument, error)
	WriteUserDocument(ctx context.Context, uid string, update models.DocumentUpdate) error
}

// StatusObserver is called after every status transition
type StatusObserver func(old, new models.SyncStatus)

// SyncCoordinator reconciles local favorites and progress with a Remote.
// Local state stays authoritative: remote failures only change the status.
type SyncCoordinator struct {
	remote    Remote
	local     sync.Locker
	favorites *FavoritesService
	progress  *ProgressService
	logger    *zap.Logger

	mu        sync.Mutex
	status    models.SyncStatus
	principal *models.Principal
	session   uint64
	lastErr   error
	observers []StatusObserver
}

// NewSyncCoordinator creates a coordinator. local guards the local store and
// is held only while local state is read or written, never across remote
// calls. remote may be nil, in which case sign-in succeeds without syncing.
func NewSyncCoordinator(remote Remote, local sync.Locker, favorites *FavoritesService, progress *ProgressService, logger *zap.Logger) *SyncCoordinator {
	return &SyncCoordinator{
		remote:    remote,
		local:     local,
		favorites: favorites,
		progress:  progress,
		logger:    logger,
	}
}

// OnStatusChange registers an observer for status transitions
func (c *SyncCoordinator) OnStatusChange(fn StatusObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Status returns the current sync status
func (c *SyncCoordinator) Status() models.SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Principal returns the signed-in user, or nil
func (c *SyncCoordinator) Principal() *models.Principal {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.principal == nil {
		return nil
	}
	p := *c.principal
	return &p
}

// LastError returns the error behind the latest SyncFailed transition
func (c *SyncCoordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *SyncCoordinator) transition(to models.SyncStatus, err error) {
	c.transitionIf(0, to, err)
}

// transitionIf applies the transition only while session is still current.
// A zero session always applies.
func (c *SyncCoordinator) transitionIf(session uint64, to models.SyncStatus, err error) bool {
	c.mu.Lock()
	if session != 0 && session != c.session {
		c.mu.Unlock()
		return false
	}
	from := c.status
	c.status = to
	if to == models.SyncFailed {
		c.lastErr = err
	} else if to == models.Synced || to == models.Unauthenticated {
		c.lastErr = nil
	}
	observers := append([]StatusObserver(nil), c.observers...)
	c.mu.Unlock()

	if from != to {
		for _, fn := range observers {
			fn(from, to)
		}
	}
	return true
}

// SignIn stores principal and performs the first sync. The returned error is
// also available from LastError; local state is unaffected by it.
func (c *SyncCoordinator) SignIn(ctx context.Context, principal models.Principal) error {
	if principal.UID == "" {
		return fmt.Errorf("sign in: principal has no uid")
	}
	c.mu.Lock()
	c.principal = &principal
	c.session++
	session := c.session
	c.mu.Unlock()

	return c.run(ctx, principal, session)
}

// SignOut forgets the principal. Local data is kept.
func (c *SyncCoordinator) SignOut() {
	c.mu.Lock()
	c.principal = nil
	c.session++
	c.mu.Unlock()
	c.transition(models.Unauthenticated, nil)
}

// Resync repeats the sign-in sync for the current principal
func (c *SyncCoordinator) Resync(ctx context.Context) error {
	c.mu.Lock()
	if c.principal == nil {
		c.mu.Unlock()
		return ErrNotSignedIn
	}
	principal, session := *c.principal, c.session
	c.mu.Unlock()
	return c.run(ctx, principal, session)
}

// run performs one sync for session. It stops without touching local state or
// the status once the session ends, e.g. on a sign-out while a remote call is
// in flight.
func (c *SyncCoordinator) run(ctx context.Context, principal models.Principal, session uint64) error {
	if !c.transitionIf(session, models.Syncing, nil) {
		return ErrNotSignedIn
	}

	runID := uuid.NewString()
	logger := c.logger.With(zap.String("sync_id", runID), zap.String("uid", principal.UID))

	if c.remote == nil {
		logger.Info("No remote configured, local state only")
		c.transitionIf(session, models.Synced, nil)
		return nil
	}

	doc, err := c.remote.FetchUserDocument(ctx, principal.UID)
	if err != nil {
		logger.Warn("Failed to fetch user document", zap.Error(err))
		c.transitionIf(session, models.SyncFailed, err)
		return err
	}

	now := time.Now()
	update := models.DocumentUpdate{Profile: &principal, UpdatedAt: now}

	c.local.Lock()
	if !c.current(session) {
		c.local.Unlock()
		logger.Info("Signed out during sync, discarding remote document")
		return ErrNotSignedIn
	}
	ok := true
	if doc == nil {
		// First sync for this user: bootstrap the remote from local state
		var records []models.ProgressRecord
		update.Favorites, ok = c.favorites.load(ctx)
		if ok {
			records, ok = c.progress.list(ctx)
		}
		update.Progress = make(map[string]models.ProgressRecord, len(records))
		for _, record := range records {
			update.Progress[record.ItemID] = record
		}
	} else {
		update.Favorites, ok = c.favorites.Merge(ctx, doc.Favorites)
	}
	c.local.Unlock()

	if !ok {
		logger.Error("Local state unreadable, nothing merged")
		c.transitionIf(session, models.SyncFailed, ErrLocalUnavailable)
		return ErrLocalUnavailable
	}

	if err := c.remote.WriteUserDocument(ctx, principal.UID, update); err != nil {
		logger.Warn("Failed to write user document", zap.Error(err))
		c.transitionIf(session, models.SyncFailed, err)
		return err
	}

	if !c.transitionIf(session, models.Synced, nil) {
		logger.Info("Signed out during sync")
		return ErrNotSignedIn
	}
	logger.Info("Sync completed",
		zap.Bool("bootstrap", doc == nil),
		zap.Int("favorites", len(update.Favorites)),
		zap.Int("progress", len(update.Progress)),
	)
	return nil
}

func (c *SyncCoordinator) current(session uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return session == c.session
}

// syncedPrincipal returns the principal when pushes should go out
func (c *SyncCoordinator) syncedPrincipal() (models.Principal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remote == nil || c.status != models.Synced || c.principal == nil {
		return models.Principal{}, false
	}
	return *c.principal, true
}

func (c *SyncCoordinator) push(ctx context.Context, update models.DocumentUpdate) {
	principal, ok := c.syncedPrincipal()
	if !ok {
		return
	}
	if err := c.remote.WriteUserDocument(ctx, principal.UID, update); err != nil {
		c.logger.Warn("Failed to push update", zap.String("uid", principal.UID), zap.Error(err))
		c.transition(models.SyncFailed, err)
	}
}

// PushProgress sends record to the remote while Synced
func (c *SyncCoordinator) PushProgress(ctx context.Context, record models.ProgressRecord) {
	c.push(ctx, models.DocumentUpdate{
		Progress:  map[string]models.ProgressRecord{record.ItemID: record},
		UpdatedAt: record.UpdatedAt,
	})
}

// PushFavorites sends the full favorites set to the remote while Synced
func (c *SyncCoordinator) PushFavorites(ctx context.Context, favorites []string) {
	if favorites == nil {
		favorites = []string{}
	}
	c.push(ctx, models.DocumentUpdate{Favorites: favorites, UpdatedAt: time.Now()})
}

// ResumeProgress reads the remote copy of itemID and resolves it against the
// local record, newest update winning and local winning ties. The resolved
// record is stored locally. On remote failure the local record is returned
// with the error.
func (c *SyncCoordinator) ResumeProgress(ctx context.Context, itemID string) (*models.ProgressRecord, error) {
	principal := c.Principal()
	if principal == nil || c.remote == nil {
		c.local.Lock()
		defer c.local.Unlock()
		return c.progress.Get(ctx, itemID), ErrNotSignedIn
	}

	doc, err := c.remote.FetchUserDocument(ctx, principal.UID)

	c.local.Lock()
	defer c.local.Unlock()

	local, ok := c.progress.load(ctx, itemID)
	if !ok {
		return nil, ErrLocalUnavailable
	}
	if err != nil {
		c.logger.Warn("Failed to fetch remote progress", zap.String("item_id", itemID), zap.Error(err))
		return local, err
	}

	var remote *models.ProgressRecord
	if doc != nil {
		if record, ok := doc.Progress[itemID]; ok {
			record.ItemID = itemID
			remote = &record
		}
	}

	switch {
	case remote == nil:
		return local, nil
	case local == nil:
		c.progress.Save(ctx, *remote)
		return remote, nil
	default:
		resolved := models.ResolveProgress(*local, *remote)
		c.progress.Save(ctx, resolved)
		return &resolved, nil
	}
}
