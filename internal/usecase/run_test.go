package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/frodopackets/DeathStrandsing/internal/domain"
	"github.com/frodopackets/DeathStrandsing/internal/ports"
)

var runNow = time.Date(2026, 8, 20, 7, 0, 0, 0, time.UTC)

type stubSource struct {
	order    *[]string
	articles []domain.Article
	err      error
	gotQuery ports.Query
	calls    int
}

func (s *stubSource) Fetch(ctx context.Context, q ports.Query) ([]domain.Article, error) {
	s.calls++
	s.gotQuery = q
	if s.order != nil {
		*s.order = append(*s.order, "fetch")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.articles, s.err
}

type stubRanker struct {
	order    *[]string
	out      []domain.ScoredArticle
	gotTopic string
	gotLen   int
	calls    int
}

func (s *stubRanker) Rank(topic string, _ time.Time, articles []domain.Article) []domain.ScoredArticle {
	s.calls++
	s.gotTopic = topic
	s.gotLen = len(articles)
	if s.order != nil {
		*s.order = append(*s.order, "score")
	}
	return s.out
}

type stubSummarizer struct {
	order   *[]string
	summary domain.Summary
	err     error
	calls   int
}

func (s *stubSummarizer) Summarize(_ context.Context, _ string, _ []domain.ScoredArticle) (domain.Summary, error) {
	s.calls++
	if s.order != nil {
		*s.order = append(*s.order, "summarize")
	}
	return s.summary, s.err
}

type stubPublisher struct {
	order        *[]string
	receipt      domain.DeliveryReceipt
	summaryErr   error
	noNewsErr    error
	summaryCalls int
	noNewsCalls  int
	gotNotice    domain.NoNewsNotice
}

func (s *stubPublisher) PublishSummary(_ context.Context, _ string, _ domain.Summary) (domain.DeliveryReceipt, error) {
	s.summaryCalls++
	if s.order != nil {
		*s.order = append(*s.order, "publish")
	}
	return s.receipt, s.summaryErr
}

func (s *stubPublisher) PublishNoNews(_ context.Context, n domain.NoNewsNotice) (domain.DeliveryReceipt, error) {
	s.noNewsCalls++
	s.gotNotice = n
	if s.order != nil {
		*s.order = append(*s.order, "publish_no_news")
	}
	return s.receipt, s.noNewsErr
}

type stubRecorder struct {
	saved []domain.RunReport
	err   error
}

func (s *stubRecorder) SaveRun(_ context.Context, report domain.RunReport) error {
	s.saved = append(s.saved, report)
	return s.err
}

func (s *stubRecorder) RecentRuns(context.Context, int) ([]domain.RunReport, error) {
	return s.saved, nil
}

type runFixture struct {
	source     *stubSource
	ranker     *stubRanker
	summarizer *stubSummarizer
	publisher  *stubPublisher
	recorder   *stubRecorder
	order      []string
}

func rawArticles(n int) []domain.Article {
	articles := make([]domain.Article, 0, n)
	for i := 0; i < n; i++ {
		articles = append(articles, domain.Article{
			ID:    fmt.Sprintf("id-%d", i),
			Title: fmt.Sprintf("Story %d", i),
			URL:   fmt.Sprintf("https://example.com/%d", i),
		})
	}
	return articles
}

func scoredOf(articles []domain.Article) []domain.ScoredArticle {
	scored := make([]domain.ScoredArticle, 0, len(articles))
	for i, a := range articles {
		scored = append(scored, domain.ScoredArticle{Article: a, Score: 1 - float64(i)*0.1})
	}
	return scored
}

func newTestRunner(f *runFixture) *Runner {
	f.source.order = &f.order
	f.ranker.order = &f.order
	f.summarizer.order = &f.order
	f.publisher.order = &f.order

	deps := RunnerDeps{
		Source:     f.source,
		Ranker:     f.ranker,
		Summarizer: f.summarizer,
		Publisher:  f.publisher,
	}
	if f.recorder != nil {
		deps.Recorder = f.recorder
	}

	r := NewRunner(RunParams{
		Topic:       "generative ai",
		WindowHours: 72,
		MaxArticles: 50,
		Budget:      time.Minute,
	}, deps)
	r.now = func() time.Time { return runNow }
	r.newRunID = func() string { return "run-1" }
	return r
}

func defaultFixture() *runFixture {
	articles := rawArticles(3)
	return &runFixture{
		source:     &stubSource{articles: articles},
		ranker:     &stubRanker{out: scoredOf(articles)},
		summarizer: &stubSummarizer{summary: domain.Summary{Narrative: "n", ArticleCount: 3, Model: "m"}},
		publisher:  &stubPublisher{receipt: domain.DeliveryReceipt{Accepted: true, MessageID: "msg-1"}},
		recorder:   &stubRecorder{},
	}
}

func TestExecuteHappyPath(t *testing.T) {
	f := defaultFixture()
	r := newTestRunner(f)

	report, err := r.Execute(context.Background(), runNow)
	require.NoError(t, err)

	require.Equal(t, "run-1", report.RunID)
	require.Equal(t, "generative ai", report.Topic)
	require.Equal(t, domain.StateDone, report.State)
	require.Equal(t, 3, report.Articles)
	require.Equal(t, 3, report.Scored)
	require.False(t, report.NoNews)
	require.NotNil(t, report.Summary)
	require.NotNil(t, report.Receipt)
	require.Equal(t, "msg-1", report.Receipt.MessageID)
	require.Empty(t, report.Cause)

	require.Equal(t, []string{"fetch", "score", "summarize", "publish"}, f.order)
	require.Equal(t, ports.Query{Topic: "generative ai", WindowHours: 72, MaxResults: 50}, f.source.gotQuery)
	require.Equal(t, "generative ai", f.ranker.gotTopic)
	require.Equal(t, 3, f.ranker.gotLen)

	require.Len(t, f.recorder.saved, 1)
	require.Equal(t, domain.StateDone, f.recorder.saved[0].State)
}

func TestExecuteEmptyFetchShortCircuits(t *testing.T) {
	f := defaultFixture()
	f.source.articles = nil
	r := newTestRunner(f)

	report, err := r.Execute(context.Background(), runNow)
	require.NoError(t, err)

	require.Equal(t, domain.StateDone, report.State)
	require.True(t, report.NoNews)
	require.Zero(t, report.Articles)
	require.NotNil(t, report.Receipt)

	require.Zero(t, f.ranker.calls, "ranker must not run on the no-news path")
	require.Zero(t, f.summarizer.calls, "summarizer must not run on the no-news path")
	require.Zero(t, f.publisher.summaryCalls)
	require.Equal(t, 1, f.publisher.noNewsCalls)
	require.Equal(t, "generative ai", f.publisher.gotNotice.Topic)
	require.Equal(t, 72, f.publisher.gotNotice.WindowHours)
}

func TestExecuteAllBelowFloorShortCircuits(t *testing.T) {
	f := defaultFixture()
	f.ranker.out = nil
	r := newTestRunner(f)

	report, err := r.Execute(context.Background(), runNow)
	require.NoError(t, err)

	require.True(t, report.NoNews)
	require.Equal(t, 3, report.Articles)
	require.Zero(t, report.Scored)
	require.Equal(t, 1, f.ranker.calls)
	require.Zero(t, f.summarizer.calls)
	require.Equal(t, 1, f.publisher.noNewsCalls)
}

func TestExecuteFetchFailure(t *testing.T) {
	f := defaultFixture()
	f.source.articles = nil
	f.source.err = fmt.Errorf("%w: feed returned 503", domain.ErrSourceUnavailable)
	r := newTestRunner(f)

	report, err := r.Execute(context.Background(), runNow)
	require.ErrorIs(t, err, domain.ErrSourceUnavailable)

	require.Equal(t, domain.StateFailed, report.State)
	require.Equal(t, domain.StageFetch, report.FailedStage)
	require.Equal(t, "news_fetch_error", report.Cause)

	require.Zero(t, f.ranker.calls)
	require.Zero(t, f.publisher.summaryCalls)
	require.Zero(t, f.publisher.noNewsCalls)

	require.Len(t, f.recorder.saved, 1)
	require.Equal(t, domain.StateFailed, f.recorder.saved[0].State)
	require.Equal(t, "news_fetch_error", f.recorder.saved[0].Cause)
}

func TestExecuteSummarizeFailure(t *testing.T) {
	f := defaultFixture()
	f.summarizer.err = fmt.Errorf("summarize: %w", domain.ErrSummarizationUnavailable)
	r := newTestRunner(f)

	report, err := r.Execute(context.Background(), runNow)
	require.ErrorIs(t, err, domain.ErrSummarizationUnavailable)

	require.Equal(t, domain.StateFailed, report.State)
	require.Equal(t, domain.StageSummarize, report.FailedStage)
	require.Equal(t, "summarization_error", report.Cause)
	require.Zero(t, f.publisher.summaryCalls, "publish must not run after a failed stage")
}

func TestExecutePublishFailure(t *testing.T) {
	f := defaultFixture()
	f.publisher.summaryErr = fmt.Errorf("%w: topic gone", domain.ErrPublishUnavailable)
	r := newTestRunner(f)

	report, err := r.Execute(context.Background(), runNow)
	require.ErrorIs(t, err, domain.ErrPublishUnavailable)

	require.Equal(t, domain.StateFailed, report.State)
	require.Equal(t, domain.StagePublish, report.FailedStage)
	require.Equal(t, "publishing_error", report.Cause)
}

func TestExecuteNoNewsPublishFailure(t *testing.T) {
	f := defaultFixture()
	f.source.articles = nil
	f.publisher.noNewsErr = fmt.Errorf("%w: topic gone", domain.ErrPublishUnavailable)
	r := newTestRunner(f)

	report, err := r.Execute(context.Background(), runNow)
	require.ErrorIs(t, err, domain.ErrPublishUnavailable)
	require.Equal(t, domain.StateFailed, report.State)
	require.Equal(t, domain.StagePublish, report.FailedStage)
	require.True(t, report.NoNews)
}

func TestExecuteBudgetExpiryBecomesTimeout(t *testing.T) {
	f := defaultFixture()
	r := newTestRunner(f)
	r.params.Budget = time.Nanosecond

	report, err := r.Execute(context.Background(), runNow)
	require.ErrorIs(t, err, domain.ErrTimeout)

	require.Equal(t, domain.StateFailed, report.State)
	require.Equal(t, domain.StageFetch, report.FailedStage)
	require.Equal(t, "timeout_error", report.Cause)
}

func TestExecuteRecorderFailureDoesNotChangeResult(t *testing.T) {
	f := defaultFixture()
	f.recorder.err = errors.New("database offline")
	r := newTestRunner(f)

	report, err := r.Execute(context.Background(), runNow)
	require.NoError(t, err)
	require.Equal(t, domain.StateDone, report.State)
}

func TestExecuteWithoutRecorder(t *testing.T) {
	f := defaultFixture()
	f.recorder = nil
	r := newTestRunner(f)

	report, err := r.Execute(context.Background(), runNow)
	require.NoError(t, err)
	require.Equal(t, domain.StateDone, report.State)
}
