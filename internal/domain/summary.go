package domain

import "time"

// SourceRef points a summary reader back at one of the input articles.
type SourceRef struct {
	Title       string
	URL         string
	Source      string
	PublishedAt time.Time
	Score       float64
}

// Summary is the generated digest for one run. Sources are ordered by
// descending relevance and ArticleCount always equals len(Sources).
type Summary struct {
	Narrative    string
	KeyPoints    []string
	Sources      []SourceRef
	ArticleCount int
	GeneratedAt  time.Time
	Model        string
	Degraded     bool
}

// NoNewsNotice tells subscribers the queried window was empty, so silence
// is distinguishable from a failed run.
type NoNewsNotice struct {
	Topic       string
	WindowHours int
	GeneratedAt time.Time
}

// DeliveryReceipt confirms the pub/sub backend accepted a message.
type DeliveryReceipt struct {
	Accepted    bool
	MessageID   string
	PublishedAt time.Time
}
