package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"pagetrail/internal/models"
)

const (
	fieldFavorites   = "favorites"
	fieldProfile     = "profile"
	fieldLastUpdated = "last_updated"
	progressField    = "progress:"
)

// Connect initializes a Redis client from URL or host:port input.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisRemote keeps one hash per user. HSET only touches the given fields,
// which makes every write a partial update.
type RedisRemote struct {
	client *redis.Client
}

func NewRedisRemote(client *redis.Client) *RedisRemote {
	return &RedisRemote{client: client}
}

func userKey(uid string) string {
	return "pagetrail:user:" + uid
}

func (r *RedisRemote) FetchUserDocument(ctx context.Context, uid string) (*models.UserDocument, error) {
	fields, err := r.client.HGetAll(ctx, userKey(uid)).Result()
	if err != nil {
		return nil, unavailable("fetch", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	doc := &models.UserDocument{Favorites: []string{}, Progress: make(map[string]models.ProgressRecord)}
	for field, value := range fields {
		switch {
		case field == fieldFavorites:
			if err := json.Unmarshal([]byte(value), &doc.Favorites); err != nil {
				return nil, malformed(field, err)
			}
		case field == fieldProfile:
			doc.Profile = &models.Principal{}
			if err := json.Unmarshal([]byte(value), doc.Profile); err != nil {
				return nil, malformed(field, err)
			}
		case field == fieldLastUpdated:
			if doc.LastUpdated, err = time.Parse(time.RFC3339Nano, value); err != nil {
				return nil, malformed(field, err)
			}
		case strings.HasPrefix(field, progressField):
			var record models.ProgressRecord
			if err := json.Unmarshal([]byte(value), &record); err != nil {
				return nil, malformed(field, err)
			}
			record.ItemID = strings.TrimPrefix(field, progressField)
			doc.Progress[record.ItemID] = record
		}
	}
	return doc, nil
}

func (r *RedisRemote) WriteUserDocument(ctx context.Context, uid string, update models.DocumentUpdate) error {
	values := map[string]interface{}{
		fieldLastUpdated: update.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if update.Profile != nil {
		data, err := json.Marshal(update.Profile)
		if err != nil {
			return err
		}
		values[fieldProfile] = string(data)
	}
	if update.Favorites != nil {
		data, err := json.Marshal(update.Favorites)
		if err != nil {
			return err
		}
		values[fieldFavorites] = string(data)
	}
	for itemID, record := range update.Progress {
		record.ItemID = itemID
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		values[progressField+itemID] = string(data)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, userKey(uid), values)
		return nil
	})
	if err != nil {
		return unavailable("write", err)
	}
	return nil
}

func (r *RedisRemote) Close() error {
	return r.client.Close()
}
