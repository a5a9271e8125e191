package models

import "time"

// Summary holds the pipeline health counts printed at the end of a
// run and by the stats command.
type Summary struct {
	GeneratedAt   time.Time     `json:"generated_at"`
	LastUpdated   string        `json:"last_updated,omitempty"`
	Articles      int           `json:"articles"`
	Processed     int           `json:"processed"`
	Reports       int           `json:"reports"`
	ArchiveCount  int           `json:"archive_count"`
	ArchiveBytes  int64         `json:"archive_bytes"`
	TopSources    []SourceCount `json:"top_sources,omitempty"`
	Disk          *DiskUsage    `json:"disk,omitempty"`
	SnapshotError string        `json:"snapshot_error,omitempty"`
}

// SourceCount is the number of snapshot articles from one outlet.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// DiskUsage reports capacity of the volume holding the archive.
type DiskUsage struct {
	Path        string  `json:"path"`
	TotalBytes  uint64  `json:"total_bytes"`
	FreeBytes   uint64  `json:"free_bytes"`
	UsedPercent float64 `json:"used_percent"`
}
