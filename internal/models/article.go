// Package models defines data structures for the pipeline runner and
// the snapshot archiver.
package models

// Article is a single news item inside a snapshot. Field names follow
// the snapshot file format, which uses snake_case keys.
type Article struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Summary     string `json:"summary"`
	Source      string `json:"source"`
	Category    string `json:"category"`
	PublishedAt string `json:"published_at"`
	Timestamp   string `json:"timestamp"`
}
