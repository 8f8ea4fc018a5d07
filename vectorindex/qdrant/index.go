// Package qdrant implements vectorindex.Index against a remote Qdrant
// server using its REST API. The collection is created on first upsert
// with cosine distance, sized to the first vector seen.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/rishtahq/rishta/core"
	"github.com/rishtahq/rishta/vectorindex"
)

const defaultTimeout = 15 * time.Second

// Config holds connection settings for a Qdrant server.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Index is a REST client to a Qdrant collection.
type Index struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
	logger     *slog.Logger

	mu      sync.Mutex
	created bool
}

var _ vectorindex.Index = (*Index)(nil)

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used by the index.
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) {
		idx.logger = logger.With("component", "vectorindex.qdrant")
	}
}

// New creates a Qdrant-backed index.
func New(cfg Config, opts ...Option) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	idx := &Index{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
		logger:     slog.Default().With("component", "vectorindex.qdrant"),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// ensureCollection creates the collection if it does not exist yet.
// Qdrant returns 200 when the collection already exists with the same
// schema, so the call is safe to repeat.
func (idx *Index) ensureCollection(ctx context.Context, dimension int) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.created {
		return nil
	}
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension %d", vectorindex.ErrInvalidVector, dimension)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := idx.putJSON(ctx, fmt.Sprintf("%s/collections/%s", idx.url, idx.collection), body, nil); err != nil {
		return err
	}
	idx.created = true
	idx.logger.Info("collection ready", "collection", idx.collection, "dimension", dimension)
	return nil
}

// Upsert writes entries, replacing existing points with the same identifier.
// Fingerprints are stored as decimal strings; JSON numbers lose precision
// above 2^53.
func (idx *Index) Upsert(ctx context.Context, entries ...vectorindex.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, entry := range entries {
		if len(entry.Vector) == 0 {
			return fmt.Errorf("%w: entry %d has empty vector", vectorindex.ErrInvalidVector, entry.Id)
		}
	}
	if err := idx.ensureCollection(ctx, len(entries[0].Vector)); err != nil {
		return err
	}

	points := make([]map[string]any, len(entries))
	for i, entry := range entries {
		points[i] = map[string]any{
			"id":     uint64(entry.Id),
			"vector": entry.Vector,
			"payload": map[string]any{
				"text":        entry.Text,
				"fingerprint": strconv.FormatUint(uint64(entry.Fingerprint), 10),
			},
		}
	}
	body := map[string]any{"points": points}
	return idx.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", idx.url, idx.collection), body, nil)
}

// Delete removes points by identifier. Missing identifiers are ignored
// by the server.
func (idx *Index) Delete(ctx context.Context, ids ...core.ID) error {
	if len(ids) == 0 {
		return nil
	}
	pointIDs := make([]uint64, len(ids))
	for i, id := range ids {
		pointIDs[i] = uint64(id)
	}
	body := map[string]any{"points": pointIDs}
	return idx.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/delete?wait=true", idx.url, idx.collection), body, nil)
}

// Search queries the collection, restricting to the allow set via a
// has_id filter when one is given.
func (idx *Index) Search(ctx context.Context, vector []float32, k int, allow []core.ID) ([]vectorindex.Match, error) {
	if len(vector) == 0 {
		return nil, vectorindex.ErrInvalidVector
	}
	if k <= 0 {
		return nil, vectorindex.ErrInvalidLimit
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if allow != nil {
		hasID := make([]uint64, len(allow))
		for i, id := range allow {
			hasID[i] = uint64(id)
		}
		req["filter"] = map[string]any{
			"must": []map[string]any{{"has_id": hasID}},
		}
	}

	var resp struct {
		Result []struct {
			ID      uint64         `json:"id"`
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := idx.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", idx.url, idx.collection), req, &resp); err != nil {
		return nil, err
	}

	matches := make([]vectorindex.Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		match := vectorindex.Match{Id: core.ID(r.ID), Score: r.Score}
		if v, ok := r.Payload["text"].(string); ok {
			match.Text = v
		}
		matches = append(matches, match)
	}

	// The server orders by score but leaves equal scores unordered;
	// re-sort so ties break by ascending identifier.
	slices.SortFunc(matches, func(a, b vectorindex.Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.Id < b.Id {
			return -1
		}
		if a.Id > b.Id {
			return 1
		}
		return 0
	})
	return matches, nil
}

// Fingerprint retrieves a single point and decodes its stored fingerprint.
func (idx *Index) Fingerprint(ctx context.Context, id core.ID) (core.Fingerprint, bool, error) {
	var resp struct {
		Result struct {
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/%d", idx.url, idx.collection, id)
	found, err := idx.getJSON(ctx, url, &resp)
	if err != nil {
		return 0, false, err
	}
	if !found {
		return 0, false, nil
	}
	raw, ok := resp.Result.Payload["fingerprint"].(string)
	if !ok {
		return 0, true, nil
	}
	fingerprint, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("malformed fingerprint for point %d: %w", id, err)
	}
	return core.Fingerprint(fingerprint), true, nil
}

// Count returns the exact number of points in the collection.
func (idx *Index) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	body := map[string]any{"exact": true}
	err := idx.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/count", idx.url, idx.collection), body, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Close releases the HTTP client's idle connections.
func (idx *Index) Close() error {
	idx.client.CloseIdleConnections()
	return nil
}

func (idx *Index) putJSON(ctx context.Context, url string, body, out any) error {
	return idx.doJSON(ctx, http.MethodPut, url, body, out)
}

func (idx *Index) postJSON(ctx context.Context, url string, body, out any) error {
	return idx.doJSON(ctx, http.MethodPost, url, body, out)
}

// getJSON returns false without error on a 404 response.
func (idx *Index) getJSON(ctx context.Context, url string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	if idx.apiKey != "" {
		req.Header.Set("api-key", idx.apiKey)
	}
	resp, err := idx.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if resp.StatusCode >= 300 {
		return false, fmt.Errorf("qdrant GET %s failed: %s", url, resp.Status)
	}
	return true, json.NewDecoder(resp.Body).Decode(out)
}

func (idx *Index) doJSON(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if idx.apiKey != "" {
		req.Header.Set("api-key", idx.apiKey)
	}
	resp, err := idx.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
