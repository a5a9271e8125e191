package models

// ArchiveEntry is one archived snapshot file on disk.
type ArchiveEntry struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// ArchiveResult describes the snapshot copy written by a run.
type ArchiveResult struct {
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes"`
	Digest string `json:"digest"`
}

// PruneResult describes what retention enforcement removed and kept.
type PruneResult struct {
	Removed []string `json:"removed"`
	Kept    int      `json:"kept"`
}
