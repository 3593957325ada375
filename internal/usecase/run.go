package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frodopackets/DeathStrandsing/internal/domain"
	"github.com/frodopackets/DeathStrandsing/internal/ports"
)

// recordTimeout bounds the best-effort archive write after a run.
const recordTimeout = 5 * time.Second

// RunnerDeps wires all driven adapters into the run orchestration.
type RunnerDeps struct {
	Source     ports.NewsSource
	Ranker     ports.Ranker
	Summarizer ports.Summarizer
	Publisher  ports.Publisher
	Recorder   ports.RunRecorder
	Logger     *slog.Logger
}

// RunParams fixes what a run fetches and how long it may take.
type RunParams struct {
	Topic       string
	WindowHours int
	MaxArticles int
	Budget      time.Duration
}

// Runner executes the fetch-score-summarize-publish pipeline once per
// trigger and reports exactly one structured outcome per run.
type Runner struct {
	source     ports.NewsSource
	ranker     ports.Ranker
	summarizer ports.Summarizer
	publisher  ports.Publisher
	recorder   ports.RunRecorder
	logger     *slog.Logger
	params     RunParams
	now        func() time.Time
	newRunID   func() string
}

// NewRunner constructs the orchestration component.
func NewRunner(params RunParams, deps RunnerDeps) *Runner {
	return &Runner{
		source:     deps.Source,
		ranker:     deps.Ranker,
		summarizer: deps.Summarizer,
		publisher:  deps.Publisher,
		recorder:   deps.Recorder,
		logger:     deps.Logger,
		params:     params,
		now:        time.Now,
		newRunID:   uuid.NewString,
	}
}

// Execute runs the pipeline once. The returned report always describes
// the outcome, success or not; the error carries the failing cause.
func (r *Runner) Execute(ctx context.Context, trigger time.Time) (domain.RunReport, error) {
	report := domain.RunReport{
		RunID:     r.newRunID(),
		Topic:     r.params.Topic,
		State:     domain.StateFetching,
		StartedAt: r.now().UTC(),
	}

	logger := r.logger
	if logger != nil {
		logger = logger.With("run_id", report.RunID, "topic", report.Topic)
		logger.Info("run started", "trigger", trigger.Format(time.RFC3339), "window_hours", r.params.WindowHours)
	}

	if r.params.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.params.Budget)
		defer cancel()
	}

	var stageAttrs []any
	stageStart := r.now()
	markStage := func(stage domain.Stage) {
		now := r.now()
		stageAttrs = append(stageAttrs, string(stage)+"_ms", now.Sub(stageStart).Milliseconds())
		stageStart = now
	}

	articles, err := r.source.Fetch(ctx, ports.Query{
		Topic:       r.params.Topic,
		WindowHours: r.params.WindowHours,
		MaxResults:  r.params.MaxArticles,
	})
	markStage(domain.StageFetch)
	if err != nil {
		return r.fail(ctx, logger, report, domain.StageFetch, fmt.Errorf("fetch articles: %w", err), stageAttrs)
	}
	report.Articles = len(articles)
	debug(logger, "articles fetched", "count", len(articles))

	if len(articles) == 0 {
		return r.publishNoNews(ctx, logger, report, markStage, stageAttrs)
	}

	report.State = domain.StateScoring
	if err := ctx.Err(); err != nil {
		return r.fail(ctx, logger, report, domain.StageScore, fmt.Errorf("run cancelled: %w", err), stageAttrs)
	}
	scored := r.ranker.Rank(r.params.Topic, r.now(), articles)
	markStage(domain.StageScore)
	report.Scored = len(scored)
	debug(logger, "articles scored", "kept", len(scored), "dropped", len(articles)-len(scored))

	if len(scored) == 0 {
		return r.publishNoNews(ctx, logger, report, markStage, stageAttrs)
	}

	report.State = domain.StateSummarizing
	summary, err := r.summarizer.Summarize(ctx, r.params.Topic, scored)
	markStage(domain.StageSummarize)
	if err != nil {
		return r.fail(ctx, logger, report, domain.StageSummarize, fmt.Errorf("summarize articles: %w", err), stageAttrs)
	}
	report.Summary = &summary
	debug(logger, "summary generated", "model", summary.Model, "degraded", summary.Degraded, "key_points", len(summary.KeyPoints))

	report.State = domain.StatePublishing
	receipt, err := r.publisher.PublishSummary(ctx, r.params.Topic, summary)
	markStage(domain.StagePublish)
	if err != nil {
		return r.fail(ctx, logger, report, domain.StagePublish, fmt.Errorf("publish summary: %w", err), stageAttrs)
	}
	report.Receipt = &receipt

	return r.finish(logger, report, stageAttrs)
}

// publishNoNews is the short-circuit for an empty window. The ranker and
// summarizer are never touched on this path.
func (r *Runner) publishNoNews(ctx context.Context, logger *slog.Logger, report domain.RunReport, markStage func(domain.Stage), stageAttrs []any) (domain.RunReport, error) {
	report.State = domain.StatePublishing
	report.NoNews = true

	receipt, err := r.publisher.PublishNoNews(ctx, domain.NoNewsNotice{
		Topic:       r.params.Topic,
		WindowHours: r.params.WindowHours,
		GeneratedAt: r.now().UTC(),
	})
	markStage(domain.StagePublish)
	if err != nil {
		return r.fail(ctx, logger, report, domain.StagePublish, fmt.Errorf("publish no-news notice: %w", err), stageAttrs)
	}
	report.Receipt = &receipt

	return r.finish(logger, report, stageAttrs)
}

func (r *Runner) fail(ctx context.Context, logger *slog.Logger, report domain.RunReport, stage domain.Stage, err error, stageAttrs []any) (domain.RunReport, error) {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}

	report.State = domain.StateFailed
	report.FailedStage = stage
	report.Cause = domain.CauseName(err)
	report.FinishedAt = r.now().UTC()

	r.logOutcome(logger, report, stageAttrs)
	r.record(logger, report)
	return report, err
}

func (r *Runner) finish(logger *slog.Logger, report domain.RunReport, stageAttrs []any) (domain.RunReport, error) {
	report.State = domain.StateDone
	report.FinishedAt = r.now().UTC()

	r.logOutcome(logger, report, stageAttrs)
	r.record(logger, report)
	return report, nil
}

// logOutcome emits the single per-run outcome event.
func (r *Runner) logOutcome(logger *slog.Logger, report domain.RunReport, stageAttrs []any) {
	if logger == nil {
		return
	}

	attrs := []any{
		"state", string(report.State),
		"articles", report.Articles,
		"scored", report.Scored,
		"no_news", report.NoNews,
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	}
	if report.Receipt != nil {
		attrs = append(attrs, "message_id", report.Receipt.MessageID)
	}
	attrs = append(attrs, stageAttrs...)

	if report.State == domain.StateFailed {
		attrs = append(attrs, "failed_stage", string(report.FailedStage), "cause", report.Cause)
		logger.Error("run finished", attrs...)
		return
	}
	logger.Info("run finished", attrs...)
}

// record archives the report after the outcome event. Failures are
// logged and swallowed; the archive never changes a run result. The
// write runs on a fresh context so an expired run budget cannot block it.
func (r *Runner) record(logger *slog.Logger, report domain.RunReport) {
	if r.recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := r.recorder.SaveRun(ctx, report); err != nil && logger != nil {
		logger.Warn("run archive save failed", "error", err)
	}
}

func debug(logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}
