package ports

import (
	"context"
	"time"

	"github.com/frodopackets/DeathStrandsing/internal/domain"
)

// Query bounds a single fetch against the upstream feed.
type Query struct {
	Topic       string
	WindowHours int
	MaxResults  int
}

// NewsSource pulls recent articles for a topic, deduplicated and capped.
type NewsSource interface {
	Fetch(ctx context.Context, q Query) ([]domain.Article, error)
}

// Ranker orders articles by topical relevance and drops the noise.
// Implementations must be deterministic; the clock arrives as a parameter.
type Ranker interface {
	Rank(topic string, now time.Time, articles []domain.Article) []domain.ScoredArticle
}

// Summarizer turns scored articles into a digest.
type Summarizer interface {
	Summarize(ctx context.Context, topic string, articles []domain.ScoredArticle) (domain.Summary, error)
}

// Publisher delivers summaries and no-news notices to subscribers.
type Publisher interface {
	PublishSummary(ctx context.Context, topic string, s domain.Summary) (domain.DeliveryReceipt, error)
	PublishNoNews(ctx context.Context, n domain.NoNewsNotice) (domain.DeliveryReceipt, error)
}

// CompletionRequest asks a model backend for one completion.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// CompletionResponse carries the raw model text.
type CompletionResponse struct {
	Text string
}

// ModelClient is a single LLM inference backend.
type ModelClient interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// RunRecorder archives run outcomes for observability.
type RunRecorder interface {
	SaveRun(ctx context.Context, report domain.RunReport) error
	RecentRuns(ctx context.Context, limit int) ([]domain.RunReport, error)
}

// Scheduler controls when runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
