package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"github.com/frodopackets/DeathStrandsing/internal/domain"
)

type stubRunner struct {
	report domain.RunReport
	err    error
	panics bool

	calls   int
	trigger time.Time
}

func (s *stubRunner) Execute(_ context.Context, trigger time.Time) (domain.RunReport, error) {
	s.calls++
	s.trigger = trigger
	if s.panics {
		panic("summarizer blew up")
	}
	return s.report, s.err
}

func newTestHandler(runner *stubRunner, buildErr error) (*Handler, *int) {
	buildCalls := 0
	h := &Handler{build: func(context.Context) (runExecutor, *slog.Logger, error) {
		buildCalls++
		if buildErr != nil {
			return nil, nil, buildErr
		}
		return runner, slog.New(slog.NewTextHandler(io.Discard, nil)), nil
	}}
	return h, &buildCalls
}

func doneReport() domain.RunReport {
	return domain.RunReport{
		RunID:    "run-42",
		Topic:    "generative ai",
		State:    domain.StateDone,
		Articles: 7,
		Scored:   5,
		Receipt:  &domain.DeliveryReceipt{Accepted: true, MessageID: "msg-1"},
	}
}

func TestHandleSuccess(t *testing.T) {
	runner := &stubRunner{report: doneReport()}
	h, buildCalls := newTestHandler(runner, nil)

	event := events.CloudWatchEvent{Time: time.Date(2026, 4, 1, 7, 0, 0, 0, time.UTC)}
	resp, err := h.Handle(context.Background(), event)

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "run-42", resp.Body.RunID)
	require.Equal(t, "done", resp.Body.State)
	require.Equal(t, "generative ai", resp.Body.Topic)
	require.Equal(t, 7, resp.Body.ArticleCount)
	require.Equal(t, "msg-1", resp.Body.MessageID)
	require.False(t, resp.Body.NoNews)
	require.Empty(t, resp.Body.ErrorType)
	require.Empty(t, resp.Body.Error)

	require.Equal(t, 1, *buildCalls)
	require.Equal(t, event.Time, runner.trigger)
}

func TestHandleNoNews(t *testing.T) {
	runner := &stubRunner{report: domain.RunReport{
		RunID:   "run-9",
		Topic:   "quantum",
		State:   domain.StateDone,
		NoNews:  true,
		Receipt: &domain.DeliveryReceipt{Accepted: true, MessageID: "msg-2"},
	}}
	h, _ := newTestHandler(runner, nil)

	resp, err := h.Handle(context.Background(), events.CloudWatchEvent{Time: time.Now()})

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, resp.Body.NoNews)
	require.Equal(t, 0, resp.Body.ArticleCount)
	require.Equal(t, "msg-2", resp.Body.MessageID)
}

func TestHandleRunFailureFoldsIntoResponse(t *testing.T) {
	runner := &stubRunner{
		report: domain.RunReport{
			RunID:       "run-13",
			Topic:       "generative ai",
			State:       domain.StateFailed,
			FailedStage: domain.StageSummarize,
			Cause:       "summarization_error",
		},
		err: fmt.Errorf("summarize: %w", domain.ErrSummarizationUnavailable),
	}
	h, _ := newTestHandler(runner, nil)

	resp, err := h.Handle(context.Background(), events.CloudWatchEvent{Time: time.Now()})

	require.NoError(t, err, "run failures must not bubble up as invocation errors")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "run-13", resp.Body.RunID)
	require.Equal(t, "failed", resp.Body.State)
	require.Equal(t, "summarize", resp.Body.FailedStage)
	require.Equal(t, "summarization_error", resp.Body.ErrorType)
	require.Contains(t, resp.Body.Error, "summarization unavailable")
}

func TestHandleConfigErrorBuildsOnce(t *testing.T) {
	buildErr := fmt.Errorf("%w: topic must be 1-200 characters", domain.ErrConfigInvalid)
	runner := &stubRunner{}
	h, buildCalls := newTestHandler(runner, buildErr)

	for i := 0; i < 2; i++ {
		resp, err := h.Handle(context.Background(), events.CloudWatchEvent{Time: time.Now()})
		require.NoError(t, err)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Equal(t, "configuration_error", resp.Body.ErrorType)
		require.Contains(t, resp.Body.Error, "topic must be")
	}

	require.Equal(t, 1, *buildCalls, "failed init must not rebuild on warm invocations")
	require.Equal(t, 0, runner.calls)
}

func TestHandleZeroEventTimeDefaultsToNow(t *testing.T) {
	runner := &stubRunner{report: doneReport()}
	h, _ := newTestHandler(runner, nil)

	_, err := h.Handle(context.Background(), events.CloudWatchEvent{})

	require.NoError(t, err)
	require.False(t, runner.trigger.IsZero())
}

func TestHandleRecoversFromPanic(t *testing.T) {
	runner := &stubRunner{panics: true}
	h, _ := newTestHandler(runner, nil)

	resp, err := h.Handle(context.Background(), events.CloudWatchEvent{Time: time.Now()})

	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "unknown_error", resp.Body.ErrorType)
	require.Contains(t, resp.Body.Error, "summarizer blew up")
}

func TestHandleBuildPanicStaysFailed(t *testing.T) {
	h := &Handler{build: func(context.Context) (runExecutor, *slog.Logger, error) {
		panic("bad wiring")
	}}

	resp, err := h.Handle(context.Background(), events.CloudWatchEvent{Time: time.Now()})
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "unknown_error", resp.Body.ErrorType)

	resp, err = h.Handle(context.Background(), events.CloudWatchEvent{Time: time.Now()})
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "configuration_error", resp.Body.ErrorType)
}

func TestHandleReusesWarmRunner(t *testing.T) {
	runner := &stubRunner{report: doneReport()}
	h, buildCalls := newTestHandler(runner, nil)

	for i := 0; i < 3; i++ {
		resp, err := h.Handle(context.Background(), events.CloudWatchEvent{Time: time.Now()})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	require.Equal(t, 1, *buildCalls)
	require.Equal(t, 3, runner.calls)
}
