// Package snapshot reads the aggregated news file written by the
// fetch step and reports precisely why a read failed. Callers need to
// tell a missing snapshot apart from a corrupt one.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"econpipe/internal/models"
)

// Snapshot read errors.
var (
	ErrMissing    = errors.New("snapshot file does not exist")
	ErrMalformed  = errors.New("snapshot is not valid JSON")
	ErrNoArticles = errors.New("snapshot has no articles array")
)

// Load reads and decodes the snapshot at path. It returns the decoded
// snapshot and its size in bytes.
func Load(path string) (*models.Snapshot, int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", ErrMissing, path)
		}

		return nil, 0, fmt.Errorf("reading snapshot %s: %w", path, err)
	}

	// Decode articles into a raw message first so an absent or null
	// field is distinguishable from a present but broken one.
	var probe struct {
		LastUpdated   string          `json:"last_updated"`
		TotalArticles int             `json:"total_articles"`
		TodayArticles int             `json:"today_articles"`
		Articles      json.RawMessage `json:"articles"`
	}

	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrMalformed, path)
	}

	if len(probe.Articles) == 0 || string(probe.Articles) == "null" {
		return nil, 0, fmt.Errorf("%w: %s", ErrNoArticles, path)
	}

	var articles []models.Article
	if err := json.Unmarshal(probe.Articles, &articles); err != nil {
		return nil, 0, fmt.Errorf("%w: articles field in %s", ErrMalformed, path)
	}

	snap := &models.Snapshot{
		LastUpdated:   probe.LastUpdated,
		TotalArticles: probe.TotalArticles,
		TodayArticles: probe.TodayArticles,
		Articles:      articles,
	}

	return snap, int64(len(data)), nil
}
