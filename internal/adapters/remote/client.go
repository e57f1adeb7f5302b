// Package remote is the typed client for the surrounding web
// application's fixed API contracts. Read endpoints go read-through the
// local response cache so report data survives short outages; write
// endpoints are idempotent on the server by record identity, which is
// what makes queue replay safe.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/FawziYas/osce-project/internal/domain/model"
	"github.com/FawziYas/osce-project/pkg/metrics"
)

const defaultTimeout = 15 * time.Second

// Cache is the slice of the local store the client needs for
// read-through caching.
type Cache interface {
	CacheGet(ctx context.Context, key string) ([]byte, error)
	CachePut(ctx context.Context, key string, data []byte, expiresAt time.Time) error
}

// Client calls the remote exam API.
type Client struct {
	baseURL  string
	http     *http.Client
	cache    Cache
	cacheTTL time.Duration
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: defaultTimeout},
		cacheTTL: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SessionPaths fetches the paths (with stations and students) of a
// session.
func (c *Client) SessionPaths(ctx context.Context, sessionID string) ([]model.Path, error) {
	var paths []model.Path
	if err := c.getJSON(ctx, fmt.Sprintf("/sessions/%s/paths", sessionID), &paths); err != nil {
		return nil, err
	}
	return paths, nil
}

// SessionAssignments fetches the examiner assignments of a session.
func (c *Client) SessionAssignments(ctx context.Context, sessionID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	if err := c.getJSON(ctx, fmt.Sprintf("/sessions/%s/assignments", sessionID), &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// Examiners fetches the examiner registry.
func (c *Client) Examiners(ctx context.Context) ([]model.Examiner, error) {
	var examiners []model.Examiner
	if err := c.getJSON(ctx, "/examiners", &examiners); err != nil {
		return nil, err
	}
	return examiners, nil
}

// PostItemScore replays one checklist item mark. Idempotent on the
// server by (stationScoreID, checklistItemID): duplicates never
// double-count.
func (c *Client) PostItemScore(ctx context.Context, stationScoreID, checklistItemID string, score, maxPoints float64) error {
	body, err := json.Marshal(map[string]interface{}{
		"checklist_item_id": checklistItemID,
		"score":             score,
		"max_points":        maxPoints,
	})
	if err != nil {
		return errors.Wrap(err, "marshal item score")
	}
	return c.Call(ctx, http.MethodPost, fmt.Sprintf("/score/%s/item", stationScoreID), body)
}

// SubmitScore finalizes a station score. Submitting twice is a no-op on
// the second call.
func (c *Client) SubmitScore(ctx context.Context, stationScoreID string) error {
	return c.Call(ctx, http.MethodPost, fmt.Sprintf("/score/%s/submit", stationScoreID), nil)
}

// Ping probes connectivity with a cheap request.
func (c *Client) Ping(ctx context.Context) error {
	return c.Call(ctx, http.MethodGet, "/examiners", nil)
}

// Call performs one API request and classifies the outcome: transport
// failures map to ErrOffline, non-success responses to
// ErrRemoteRejected. Generic queue entries replay through here.
func (c *Client) Call(ctx context.Context, method, path string, body []byte) error {
	start := time.Now()
	defer func() {
		metrics.RecordReplayLatency(float64(time.Since(start).Milliseconds()))
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrOffline, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrOffline, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s: status %d", ErrRemoteRejected, method, path, resp.StatusCode)
	}

	// The API wraps outcomes in a {"success": ..., "error": ...}
	// envelope on some endpoints; a 200 with success=false is still a
	// rejection.
	if v := gjson.GetBytes(raw, "success"); v.Exists() && !v.Bool() {
		msg := gjson.GetBytes(raw, "error").String()
		if msg == "" {
			msg = "unspecified error"
		}
		return fmt.Errorf("%w: %s %s: %s", ErrRemoteRejected, method, path, msg)
	}
	return nil
}

// getJSON fetches path read-through the cache and decodes into out.
// Endpoints may return the list bare or under a "data" key.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	if c.cache != nil {
		if cached, err := c.cache.CacheGet(ctx, path); err == nil {
			return decodeBody(cached, out)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrOffline, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %s: status %d", ErrRemoteRejected, path, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrOffline, err)
	}

	if err := decodeBody(raw, out); err != nil {
		return err
	}
	if c.cache != nil {
		// Cache write failure degrades to uncached reads, nothing more.
		_ = c.cache.CachePut(ctx, path, raw, time.Now().Add(c.cacheTTL))
	}
	return nil
}

func decodeBody(raw []byte, out interface{}) error {
	payload := raw
	if v := gjson.GetBytes(raw, "data"); v.Exists() {
		payload = []byte(v.Raw)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
