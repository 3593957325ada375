package googlenews

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/frodopackets/DeathStrandsing/internal/domain"
	"github.com/frodopackets/DeathStrandsing/internal/ports"
	"github.com/frodopackets/DeathStrandsing/internal/retry"
)

const defaultBaseURL = "https://news.google.com/rss/search"

// futureSkew tolerates feeds that stamp items slightly ahead of our clock.
const futureSkew = 5 * time.Minute

// scanFactor bounds how many feed items are examined per requested result.
const scanFactor = 5

// Source fetches recent articles from the Google News RSS search endpoint.
type Source struct {
	baseURL string
	client  *http.Client
	parser  *gofeed.Parser
	limiter *rate.Limiter
	policy  retry.Policy
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.NewsSource = (*Source)(nil)

// NewSource wires the feed endpoint and an HTTP client; an empty baseURL and
// a nil client fall back to Google News with a 20s timeout. The limiter keeps
// the agent within 30 requests per minute.
func NewSource(baseURL string, client *http.Client, logger *slog.Logger) *Source {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Source{
		baseURL: baseURL,
		client:  client,
		parser:  gofeed.NewParser(),
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		policy:  retry.Default(),
		logger:  logger,
		now:     time.Now,
	}
}

// Fetch pulls the feed once, then filters to the trailing window, drops
// duplicates keeping the first occurrence, and caps the result.
func (s *Source) Fetch(ctx context.Context, q ports.Query) ([]domain.Article, error) {
	topic := strings.TrimSpace(q.Topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: empty topic", domain.ErrInvalidQuery)
	}

	now := s.now()
	feedURL := s.searchURL(topic, q.WindowHours)

	var feed *gofeed.Feed
	err := s.policy.Do(ctx, s.logger, "fetch news feed", func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		var fetchErr error
		feed, fetchErr = s.fetchFeed(ctx, feedURL)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	articles := s.collect(feed, now, q)
	s.debug("feed fetched", "topic", topic, "items", len(feed.Items), "kept", len(articles))
	return articles, nil
}

func (s *Source) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "news-agent/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, domain.Transient(fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err))
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse feed: %v", domain.ErrSourceUnavailable, err)
	}
	return feed, nil
}

// classifyStatus maps feed endpoint statuses onto the error taxonomy.
// 400/404 mean the query itself is bad; 408/429/5xx are worth retrying.
func classifyStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusBadRequest || code == http.StatusNotFound:
		return fmt.Errorf("%w: feed returned %d", domain.ErrInvalidQuery, code)
	case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500:
		return domain.Transient(fmt.Errorf("%w: feed returned %d", domain.ErrSourceUnavailable, code))
	default:
		return fmt.Errorf("%w: feed returned %d", domain.ErrSourceUnavailable, code)
	}
}

func (s *Source) searchURL(topic string, windowHours int) string {
	values := url.Values{}
	values.Set("q", fmt.Sprintf("%s when:%dh", topic, windowHours))
	values.Set("hl", "en-US")
	values.Set("gl", "US")
	values.Set("ceid", "US:en")
	return s.baseURL + "?" + values.Encode()
}

func (s *Source) collect(feed *gofeed.Feed, now time.Time, q ports.Query) []domain.Article {
	oldest := now.Add(-time.Duration(q.WindowHours) * time.Hour)
	newest := now.Add(futureSkew)

	maxScan := len(feed.Items)
	if q.MaxResults > 0 && q.MaxResults*scanFactor < maxScan {
		maxScan = q.MaxResults * scanFactor
	}

	dedup := newDeduper()
	articles := make([]domain.Article, 0, q.MaxResults)

	for _, item := range feed.Items[:maxScan] {
		if q.MaxResults > 0 && len(articles) >= q.MaxResults {
			break
		}

		published := itemTime(item)
		if published.IsZero() || published.Before(oldest) || published.After(newest) {
			continue
		}

		title, source := splitTitleSource(item.Title)
		article := domain.Article{
			ID:          articleID(item.Link),
			Title:       title,
			URL:         item.Link,
			Source:      source,
			Description: stripMarkup(item.Description),
			PublishedAt: published,
		}
		if article.Title == "" || article.URL == "" {
			continue
		}
		if !dedup.admit(article) {
			continue
		}
		articles = append(articles, article)
	}

	return articles
}

func itemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

// splitTitleSource separates the publisher suffix Google News appends to
// item titles ("Headline - Publisher"). Long suffixes are kept in the title
// since they are more likely part of the headline itself.
func splitTitleSource(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	idx := strings.LastIndex(raw, " - ")
	if idx <= 0 {
		return raw, "Google News"
	}
	suffix := strings.TrimSpace(raw[idx+3:])
	if suffix == "" || len(suffix) > 50 {
		return raw, "Google News"
	}
	return strings.TrimSpace(raw[:idx]), suffix
}

// stripMarkup flattens the HTML fragments Google News puts in descriptions.
func stripMarkup(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func (s *Source) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
