// Package fulltext decorates a news source with full article text
// extraction. Feed items usually carry a one-line description; the
// enricher follows each link and swaps in the readable page body so
// scoring and summarization see real content.
package fulltext

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/frodopackets/DeathStrandsing/internal/domain"
	"github.com/frodopackets/DeathStrandsing/internal/ports"
)

const (
	workerCount = 4

	// articleTimeout bounds a single page fetch, stageTimeout bounds the
	// whole enrichment pass. Articles left unenriched keep their feed
	// description; enrichment never fails the run.
	articleTimeout = 10 * time.Second
	stageTimeout   = 45 * time.Second
)

// Enricher wraps another news source and fills Article.Content.
type Enricher struct {
	inner   ports.NewsSource
	logger  *slog.Logger
	extract func(ctx context.Context, pageURL string) (string, error)
}

var _ ports.NewsSource = (*Enricher)(nil)

// NewEnricher returns a source that fetches through inner and then
// extracts readable text for each returned article.
func NewEnricher(inner ports.NewsSource, logger *slog.Logger) *Enricher {
	return &Enricher{
		inner:   inner,
		logger:  logger,
		extract: extractReadable,
	}
}

func (e *Enricher) Fetch(ctx context.Context, q ports.Query) ([]domain.Article, error) {
	articles, err := e.inner.Fetch(ctx, q)
	if err != nil || len(articles) == 0 {
		return articles, err
	}

	ctx, cancel := context.WithTimeout(ctx, stageTimeout)
	defer cancel()

	workers := workerCount
	if len(articles) < workers {
		workers = len(articles)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				e.enrichOne(ctx, &articles[idx])
			}
		}()
	}

dispatch:
	for i := range articles {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	return articles, nil
}

func (e *Enricher) enrichOne(ctx context.Context, article *domain.Article) {
	if ctx.Err() != nil || article.URL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, articleTimeout)
	defer cancel()

	text, err := e.extract(ctx, article.URL)
	if err != nil {
		e.debug("content extraction skipped", "url", article.URL, "error", err)
		return
	}
	if text == "" {
		return
	}
	article.Content = text
}

func extractReadable(_ context.Context, pageURL string) (string, error) {
	page, err := readability.FromURL(pageURL, articleTimeout)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(page.TextContent), " "), nil
}

func (e *Enricher) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
