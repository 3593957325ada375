// Package summarizer turns ranked articles into a delivery-ready digest
// using an LLM backend, with a fallback model and a degraded path so a
// flaky model never silently kills the run.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frodopackets/DeathStrandsing/internal/config"
	"github.com/frodopackets/DeathStrandsing/internal/domain"
	"github.com/frodopackets/DeathStrandsing/internal/ports"
	"github.com/frodopackets/DeathStrandsing/internal/retry"
)

const completionTemperature = 0.3

// Service implements ports.Summarizer on top of a ports.ModelClient.
type Service struct {
	client    ports.ModelClient
	primary   string
	fallback  string
	verbosity string
	policy    retry.Policy
	logger    *slog.Logger
	now       func() time.Time
}

var _ ports.Summarizer = (*Service)(nil)

// NewService builds a summarizer for the configured models and verbosity.
func NewService(client ports.ModelClient, models config.ModelConfig, verbosity string, logger *slog.Logger) *Service {
	return &Service{
		client:    client,
		primary:   models.Primary,
		fallback:  models.Fallback,
		verbosity: verbosity,
		policy:    retry.Default(),
		logger:    logger,
		now:       time.Now,
	}
}

// Summarize produces a digest for the given articles. A degraded
// title-only summary is still a success; an error means no usable text
// could be produced at all.
func (s *Service) Summarize(ctx context.Context, topic string, articles []domain.ScoredArticle) (domain.Summary, error) {
	if len(articles) == 0 {
		return domain.Summary{}, fmt.Errorf("%w: no articles to summarize", domain.ErrEmptyInput)
	}

	prompt := buildPrompt(topic, articles, s.verbosity)

	text, model, err := s.complete(ctx, prompt)
	if err != nil {
		return domain.Summary{}, err
	}

	parsed, ok := parseStructured(text)
	if !ok {
		s.debug("model output unparsable, re-asking with strict format", "model", model)
		if strictText, strictErr := s.completeOnce(ctx, model, strictPrompt(prompt)); strictErr == nil {
			parsed, ok = parseStructured(strictText)
		}
	}
	if !ok {
		s.debug("falling back to degraded title summary", "topic", topic, "model", model)
		return s.degraded(topic, articles), nil
	}

	return s.assemble(parsed, articles, model, false), nil
}

// complete runs the primary model under the retry policy and falls back
// to the secondary model with a single attempt. It returns the text and
// the model that produced it.
func (s *Service) complete(ctx context.Context, prompt string) (string, string, error) {
	var text string
	err := s.policy.Do(ctx, s.logger, "summarize with "+s.primary, func(ctx context.Context) error {
		resp, err := s.client.Complete(ctx, s.request(s.primary, prompt))
		if err != nil {
			return err
		}
		text = resp.Text
		return nil
	})
	if err == nil {
		return text, s.primary, nil
	}
	if ctx.Err() != nil || s.fallback == "" {
		return "", "", fmt.Errorf("summarize: %w", err)
	}

	if s.logger != nil {
		s.logger.Warn("primary model failed, trying fallback",
			"primary", s.primary, "fallback", s.fallback, "error", err)
	}

	fallbackText, fbErr := s.completeOnce(ctx, s.fallback, prompt)
	if fbErr != nil {
		return "", "", fmt.Errorf("summarize: %w (fallback %s: %w)", err, s.fallback, fbErr)
	}
	return fallbackText, s.fallback, nil
}

func (s *Service) completeOnce(ctx context.Context, model, prompt string) (string, error) {
	resp, err := s.client.Complete(ctx, s.request(model, prompt))
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (s *Service) request(model, prompt string) ports.CompletionRequest {
	return ports.CompletionRequest{
		Model:       model,
		System:      systemPrompt,
		Prompt:      prompt,
		MaxTokens:   maxTokensFor(s.verbosity),
		Temperature: completionTemperature,
	}
}

// degraded builds the minimal title-based summary attributed to the
// primary model.
func (s *Service) degraded(topic string, articles []domain.ScoredArticle) domain.Summary {
	limit := len(articles)
	if limit > promptArticleLimit {
		limit = promptArticleLimit
	}
	titles := make([]string, 0, limit)
	for _, scored := range articles[:limit] {
		titles = append(titles, scored.Article.Title)
	}

	parsed := parsedSummary{
		Narrative: fmt.Sprintf("Recent %s developments include: %s.", topic, strings.Join(titles, "; ")),
		KeyPoints: capPoints(titles),
	}
	return s.assemble(parsed, articles, s.primary, true)
}

func (s *Service) assemble(parsed parsedSummary, articles []domain.ScoredArticle, model string, degraded bool) domain.Summary {
	sources := make([]domain.SourceRef, 0, len(articles))
	for _, scored := range articles {
		sources = append(sources, domain.SourceRef{
			Title:       scored.Article.Title,
			URL:         scored.Article.URL,
			Source:      scored.Article.Source,
			PublishedAt: scored.Article.PublishedAt,
			Score:       scored.Score,
		})
	}

	return domain.Summary{
		Narrative:    parsed.Narrative,
		KeyPoints:    parsed.KeyPoints,
		Sources:      sources,
		ArticleCount: len(sources),
		GeneratedAt:  s.now().UTC(),
		Model:        model,
		Degraded:     degraded,
	}
}

func (s *Service) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
