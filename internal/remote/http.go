package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"pagetrail/internal/config"
	"pagetrail/internal/models"
)

// HTTPRemote talks to a document service exposing GET and PATCH
// /users/{uid}. PATCH bodies carry only the fields being written.
type HTTPRemote struct {
	baseURL string
	client  *http.Client
}

type documentPatch struct {
	Profile   *models.Principal                `json:"profile,omitempty"`
	Favorites []string                         `json:"favorites,omitempty"`
	Progress  map[string]models.ProgressRecord `json:"progress,omitempty"`
	UpdatedAt time.Time                        `json:"updated_at"`
}

// NewHTTPRemote creates an HTTP remote. When an OAuth token URL is configured
// requests carry client-credentials bearer tokens.
func NewHTTPRemote(ctx context.Context, cfg config.RemoteConfig) *HTTPRemote {
	client := &http.Client{}
	if cfg.OAuthTokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			TokenURL:     cfg.OAuthTokenURL,
		}
		client = cc.Client(ctx)
	}
	client.Timeout = cfg.Timeout
	return &HTTPRemote{baseURL: strings.TrimRight(cfg.BaseURL, "/"), client: client}
}

func (r *HTTPRemote) userURL(uid string) string {
	return r.baseURL + "/users/" + url.PathEscape(uid)
}

func (r *HTTPRemote) FetchUserDocument(ctx context.Context, uid string) (*models.UserDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.userURL(uid), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, unavailable("fetch", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, unavailable("fetch", fmt.Errorf("status %d", resp.StatusCode))
	}

	var doc models.UserDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, malformed("document", err)
	}
	if doc.Favorites == nil {
		doc.Favorites = []string{}
	}
	if doc.Progress == nil {
		doc.Progress = make(map[string]models.ProgressRecord)
	}
	for itemID, record := range doc.Progress {
		record.ItemID = itemID
		doc.Progress[itemID] = record
	}
	return &doc, nil
}

func (r *HTTPRemote) WriteUserDocument(ctx context.Context, uid string, update models.DocumentUpdate) error {
	patch := documentPatch{
		Profile:   update.Profile,
		Favorites: update.Favorites,
		Progress:  update.Progress,
		UpdatedAt: update.UpdatedAt.UTC(),
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	// An explicitly empty favorites set must still be sent
	if update.Favorites != nil && len(update.Favorites) == 0 {
		body, err = withEmptyFavorites(body)
		if err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, r.userURL(uid), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return unavailable("write", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return unavailable("write", fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

func withEmptyFavorites(body []byte) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["favorites"] = json.RawMessage("[]")
	return json.Marshal(fields)
}

func (r *HTTPRemote) Close() error {
	r.client.CloseIdleConnections()
	return nil
}
