package models

// Snapshot is the aggregated news file produced by the fetch step.
type Snapshot struct {
	LastUpdated   string    `json:"last_updated"`
	TotalArticles int       `json:"total_articles"`
	TodayArticles int       `json:"today_articles"`
	Articles      []Article `json:"articles"`
}

// ArticleCount returns the number of articles in the snapshot.
func (s *Snapshot) ArticleCount() int {
	if s == nil {
		return 0
	}

	return len(s.Articles)
}
