package domain

import "time"

// Article is a single news item fetched from the upstream feed.
type Article struct {
	ID          string
	Title       string
	URL         string
	Source      string
	Description string
	Content     string
	PublishedAt time.Time
}

// ScoredArticle pairs an article with its relevance score in [0, 1].
type ScoredArticle struct {
	Article Article
	Score   float64
}
