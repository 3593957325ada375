// Package handler adapts scheduled Lambda events to agent runs.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/frodopackets/DeathStrandsing/internal/app"
	"github.com/frodopackets/DeathStrandsing/internal/config"
	"github.com/frodopackets/DeathStrandsing/internal/domain"
	"github.com/frodopackets/DeathStrandsing/internal/logging"
)

// runExecutor is the slice of the application the handler drives.
type runExecutor interface {
	Execute(ctx context.Context, trigger time.Time) (domain.RunReport, error)
}

// ResponseBody reports one run outcome back to the invoker.
type ResponseBody struct {
	RunID        string `json:"run_id,omitempty"`
	State        string `json:"state,omitempty"`
	Topic        string `json:"topic,omitempty"`
	ArticleCount int    `json:"article_count"`
	NoNews       bool   `json:"no_news"`
	MessageID    string `json:"message_id,omitempty"`
	FailedStage  string `json:"failed_stage,omitempty"`
	ErrorType    string `json:"error_type,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Response is the structured invocation result.
type Response struct {
	StatusCode int          `json:"statusCode"`
	Body       ResponseBody `json:"body"`
}

// Handler executes one agent run per scheduled event. The application is
// built on first invocation and reused while the container stays warm.
type Handler struct {
	once    sync.Once
	build   func(ctx context.Context) (runExecutor, *slog.Logger, error)
	runner  runExecutor
	logger  *slog.Logger
	initErr error
}

// New returns a Handler that assembles the agent from the environment.
func New() *Handler {
	return &Handler{build: buildRunner}
}

func buildRunner(ctx context.Context) (runExecutor, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, logger, err
	}
	return application.Runner(), logger, nil
}

// Handle runs the agent once for a scheduled event. Failures are folded
// into the response body instead of returned, so the schedule does not
// re-trigger a run whose outcome was already published or recorded.
func (h *Handler) Handle(ctx context.Context, event events.CloudWatchEvent) (resp Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			if h.logger != nil {
				h.logger.Error("run panicked", "panic", fmt.Sprint(r))
			}
			resp = errorResponse(domain.RunReport{}, fmt.Errorf("run panicked: %v", r))
			err = nil
		}
	}()

	h.once.Do(func() {
		h.runner, h.logger, h.initErr = h.build(ctx)
	})
	if h.initErr != nil {
		return errorResponse(domain.RunReport{}, h.initErr), nil
	}
	if h.runner == nil {
		return errorResponse(domain.RunReport{}, fmt.Errorf("%w: agent failed to initialize", domain.ErrConfigInvalid)), nil
	}

	trigger := event.Time
	if trigger.IsZero() {
		trigger = time.Now()
	}

	report, runErr := h.runner.Execute(ctx, trigger)
	if runErr != nil {
		return errorResponse(report, runErr), nil
	}
	return Response{StatusCode: http.StatusOK, Body: bodyFor(report)}, nil
}

func bodyFor(report domain.RunReport) ResponseBody {
	body := ResponseBody{
		RunID:        report.RunID,
		State:        string(report.State),
		Topic:        report.Topic,
		ArticleCount: report.Articles,
		NoNews:       report.NoNews,
		FailedStage:  string(report.FailedStage),
	}
	if report.Receipt != nil {
		body.MessageID = report.Receipt.MessageID
	}
	return body
}

func errorResponse(report domain.RunReport, err error) Response {
	body := bodyFor(report)
	body.ErrorType = domain.CauseName(err)
	body.Error = err.Error()
	return Response{StatusCode: http.StatusInternalServerError, Body: body}
}
