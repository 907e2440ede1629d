package service

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"pagetrail/internal/models"
	"pagetrail/internal/repository"
)

// CollectionService manages user-created collections. Unknown collection ids
// are silently ignored.
type CollectionService struct {
	collections *repository.CollectionRepository
	entropy     io.Reader
	logger      *zap.Logger
}

// NewCollectionService creates a new collection service
func NewCollectionService(repos *repository.Repositories, logger *zap.Logger) *CollectionService {
	return &CollectionService{
		collections: repos.Collections,
		entropy:     ulid.Monotonic(rand.Reader, 0),
		logger:      logger,
	}
}

// List returns every collection in creation order
func (s *CollectionService) List(ctx context.Context) []models.Collection {
	collections, _ := s.load(ctx)
	return collections
}

// load reads the stored list. A corrupt record counts as empty; ok is false
// only when the store failed.
func (s *CollectionService) load(ctx context.Context) ([]models.Collection, bool) {
	collections, err := s.collections.List(ctx)
	switch {
	case err == nil:
		return collections, true
	case isCorrupt(err):
		s.logger.Warn("Collections corrupt, starting empty", zap.Error(err))
		return []models.Collection{}, true
	default:
		s.logger.Error("Failed to load collections", zap.Error(err))
		return []models.Collection{}, false
	}
}

// Get returns the collection with id, or nil
func (s *CollectionService) Get(ctx context.Context, id string) *models.Collection {
	for _, c := range s.List(ctx) {
		if c.ID == id {
			return &c
		}
	}
	return nil
}

func (s *CollectionService) save(ctx context.Context, collections []models.Collection) bool {
	if err := s.collections.Save(ctx, collections); err != nil {
		s.logger.Error("Failed to save collections", zap.Error(err))
		return false
	}
	return true
}

// Create appends a new empty collection named name. ok is false when the
// collection was not stored.
func (s *CollectionService) Create(ctx context.Context, name string, now time.Time) (models.Collection, bool) {
	id, err := ulid.New(ulid.Timestamp(now), s.entropy)
	if err != nil {
		// Monotonic entropy overflowed within one millisecond
		id = ulid.MustNew(ulid.Timestamp(now), rand.Reader)
	}

	collection := models.Collection{
		ID:        id.String(),
		Name:      strings.TrimSpace(name),
		Items:     []string{},
		CreatedAt: now,
	}
	collections, ok := s.load(ctx)
	if !ok || !s.save(ctx, append(collections, collection)) {
		return collection, false
	}
	s.logger.Info("Collection created", zap.String("collection_id", collection.ID))
	return collection, true
}

// update applies fn to the collection with id and saves when fn reports a change
func (s *CollectionService) update(ctx context.Context, id string, fn func(c *models.Collection) bool) bool {
	collections, ok := s.load(ctx)
	if !ok {
		return false
	}
	for i := range collections {
		if collections[i].ID != id {
			continue
		}
		if !fn(&collections[i]) {
			return false
		}
		return s.save(ctx, collections)
	}
	s.logger.Debug("Unknown collection", zap.String("collection_id", id))
	return false
}

// AddItem adds itemID to the collection unless already present
func (s *CollectionService) AddItem(ctx context.Context, id, itemID string) bool {
	return s.update(ctx, id, func(c *models.Collection) bool { return c.Add(itemID) })
}

// RemoveItem removes itemID from the collection if present
func (s *CollectionService) RemoveItem(ctx context.Context, id, itemID string) bool {
	return s.update(ctx, id, func(c *models.Collection) bool { return c.Remove(itemID) })
}

// Delete removes the collection with id
func (s *CollectionService) Delete(ctx context.Context, id string) bool {
	collections, ok := s.load(ctx)
	if !ok {
		return false
	}
	for i := range collections {
		if collections[i].ID == id {
			return s.save(ctx, append(collections[:i], collections[i+1:]...))
		}
	}
	return false
}
