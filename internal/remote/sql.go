package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"pagetrail/internal/database"
	"pagetrail/internal/models"
)

// SQLRemote stores user documents across the user_documents, user_favorites
// and user_progress tables.
type SQLRemote struct {
	db *database.DB
}

// NewSQLRemote wraps an already migrated database
func NewSQLRemote(db *database.DB) *SQLRemote {
	return &SQLRemote{db: db}
}

func (r *SQLRemote) FetchUserDocument(ctx context.Context, uid string) (*models.UserDocument, error) {
	doc := &models.UserDocument{
		Profile:   &models.Principal{UID: uid},
		Favorites: []string{},
		Progress:  make(map[string]models.ProgressRecord),
	}

	err := r.db.QueryRowContext(ctx,
		"SELECT display_name, email, photo_url, updated_at FROM user_documents WHERE uid = ?", uid,
	).Scan(&doc.Profile.DisplayName, &doc.Profile.Email, &doc.Profile.PhotoURL, &doc.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("fetch document", err)
	}

	rows, err := r.db.QueryContext(ctx, "SELECT item_id FROM user_favorites WHERE uid = ? ORDER BY item_id", uid)
	if err != nil {
		return nil, unavailable("fetch favorites", err)
	}
	for rows.Next() {
		var itemID string
		if err := rows.Scan(&itemID); err != nil {
			rows.Close()
			return nil, unavailable("scan favorite", err)
		}
		doc.Favorites = append(doc.Favorites, itemID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, unavailable("fetch favorites", err)
	}

	rows, err = r.db.QueryContext(ctx, "SELECT item_id, payload FROM user_progress WHERE uid = ?", uid)
	if err != nil {
		return nil, unavailable("fetch progress", err)
	}
	defer rows.Close()
	for rows.Next() {
		var itemID, payload string
		if err := rows.Scan(&itemID, &payload); err != nil {
			return nil, unavailable("scan progress", err)
		}
		var record models.ProgressRecord
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			return nil, malformed("progress "+itemID, err)
		}
		record.ItemID = itemID
		doc.Progress[itemID] = record
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("fetch progress", err)
	}
	return doc, nil
}

func (r *SQLRemote) WriteUserDocument(ctx context.Context, uid string, update models.DocumentUpdate) error {
	dialect := r.db.Dialect
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if update.Profile != nil {
			query := dialect.Upsert("user_documents", []string{"uid"},
				[]string{"uid", "display_name", "email", "photo_url", "updated_at"},
				[]string{"display_name", "email", "photo_url", "updated_at"})
			p := update.Profile
			if _, err := tx.ExecContext(ctx, query, uid, p.DisplayName, p.Email, p.PhotoURL, update.UpdatedAt.UTC()); err != nil {
				return err
			}
		} else {
			query := dialect.Upsert("user_documents", []string{"uid"},
				[]string{"uid", "updated_at"},
				[]string{"updated_at"})
			if _, err := tx.ExecContext(ctx, query, uid, update.UpdatedAt.UTC()); err != nil {
				return err
			}
		}

		if update.Favorites != nil {
			if _, err := tx.ExecContext(ctx, "DELETE FROM user_favorites WHERE uid = ?", uid); err != nil {
				return err
			}
			for _, itemID := range models.UnionFavorites(update.Favorites) {
				if _, err := tx.ExecContext(ctx, "INSERT INTO user_favorites (uid, item_id) VALUES (?, ?)", uid, itemID); err != nil {
					return err
				}
			}
		}

		if len(update.Progress) > 0 {
			query := dialect.Upsert("user_progress", []string{"uid", "item_id"},
				[]string{"uid", "item_id", "payload", "updated_at"},
				[]string{"payload", "updated_at"})
			for itemID, record := range update.Progress {
				record.ItemID = itemID
				payload, err := json.Marshal(record)
				if err != nil {
					return err
				}
				if _, err := tx.ExecContext(ctx, query, uid, itemID, string(payload), record.UpdatedAt.UTC()); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return unavailable("write", err)
	}
	return nil
}

func (r *SQLRemote) Close() error {
	return r.db.Close()
}
