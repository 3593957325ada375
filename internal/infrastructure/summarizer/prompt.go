package summarizer

import (
	"fmt"
	"strings"

	"github.com/frodopackets/DeathStrandsing/internal/config"
	"github.com/frodopackets/DeathStrandsing/internal/domain"
)

const (
	// promptArticleLimit caps how many articles go into the prompt;
	// excerptLimit caps the body excerpt per article, in runes.
	promptArticleLimit = 10
	excerptLimit       = 2000
	maxKeyPoints       = 8
)

const systemPrompt = "You are an AI news analyst. You write factual, neutral " +
	"summaries of recent news coverage for a technical audience. You never " +
	"invent facts that are not in the provided articles."

func maxTokensFor(verbosity string) int {
	switch verbosity {
	case config.VerbosityShort:
		return 300
	case config.VerbosityLong:
		return 1000
	default:
		return 600
	}
}

func paragraphsFor(verbosity string) string {
	switch verbosity {
	case config.VerbosityShort:
		return "2-3 paragraphs"
	case config.VerbosityLong:
		return "6-8 paragraphs"
	default:
		return "4-5 paragraphs"
	}
}

func buildPrompt(topic string, articles []domain.ScoredArticle, verbosity string) string {
	limit := len(articles)
	if limit > promptArticleLimit {
		limit = promptArticleLimit
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Summarize the following %d recent news articles about %q.\n\n", limit, topic)

	for i, scored := range articles[:limit] {
		a := scored.Article
		fmt.Fprintf(&b, "Article %d:\nTitle: %s\nSource: %s\nPublished: %s\nContent: %s\n\n",
			i+1, a.Title, a.Source, a.PublishedAt.Format("2006-01-02"), truncate(articleBody(a), excerptLimit))
	}

	fmt.Fprintf(&b, "Write a narrative of %s covering the most important developments.\n", paragraphsFor(verbosity))
	b.WriteString("Then list 5-8 key points.\n")
	b.WriteString(`Respond with a JSON object only: {"narrative": "...", "key_points": ["..."]}`)
	return b.String()
}

// strictPrompt re-asks after output the parser could not handle.
func strictPrompt(prompt string) string {
	return "Your previous reply could not be parsed. Respond with ONLY a JSON object " +
		`of the exact form {"narrative": "...", "key_points": ["..."]} and no other text.` +
		"\n\n" + prompt
}

func articleBody(a domain.Article) string {
	if strings.TrimSpace(a.Content) != "" {
		return a.Content
	}
	return a.Description
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
