package relevance

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/frodopackets/DeathStrandsing/internal/domain"
	"github.com/frodopackets/DeathStrandsing/internal/ports"
)

const (
	titleBonusWeight  = 0.3
	recencyHalfLife   = 48 * time.Hour
	shortArticleWords = 8
	neutralScore      = 0.5
)

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "is": true,
	"it": true, "of": true, "on": true, "or": true, "the": true, "to": true,
	"with": true,
}

// Ranker scores articles against a topic and drops anything below the floor.
// It is deterministic: no I/O, no clock reads, no randomness.
type Ranker struct {
	floor float64
}

var _ ports.Ranker = (*Ranker)(nil)

// New builds a ranker with the given relevance floor in [0, 1).
func New(floor float64) *Ranker {
	return &Ranker{floor: floor}
}

// Rank scores every article, drops those below the floor, and returns the
// rest sorted by descending score with more recent articles winning ties.
func (r *Ranker) Rank(topic string, now time.Time, articles []domain.Article) []domain.ScoredArticle {
	keywords := topicKeywords(topic)

	scored := make([]domain.ScoredArticle, 0, len(articles))
	for _, article := range articles {
		score := scoreArticle(keywords, now, article)
		if score < r.floor {
			continue
		}
		scored = append(scored, domain.ScoredArticle{Article: article, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Article.PublishedAt.After(scored[j].Article.PublishedAt)
	})

	return scored
}

func scoreArticle(keywords []string, now time.Time, article domain.Article) float64 {
	body := article.Title + " " + article.Description
	titleWords := wordSet(article.Title)
	bodyWords := wordSet(body)

	score := neutralScore
	if len(keywords) > 0 {
		var matches, titleMatches int
		for _, keyword := range keywords {
			if bodyWords[keyword] {
				matches++
			}
			if titleWords[keyword] {
				titleMatches++
			}
		}
		total := float64(len(keywords))
		score = float64(matches)/total + titleBonusWeight*float64(titleMatches)/total
	}

	score *= recencyFactor(now, article.PublishedAt)

	if len(strings.Fields(body)) < shortArticleWords {
		score *= 0.5
	}

	return clamp01(score)
}

// recencyFactor decays from 1.0 toward 0.5 as the article ages.
func recencyFactor(now, publishedAt time.Time) float64 {
	age := now.Sub(publishedAt)
	if age <= 0 {
		return 1.0
	}
	return 0.5 + 0.5*math.Exp(-age.Hours()/recencyHalfLife.Hours())
}

func topicKeywords(topic string) []string {
	var keywords []string
	for word := range wordSet(topic) {
		if stopwords[word] || len(word) < 2 {
			continue
		}
		keywords = append(keywords, word)
	}
	sort.Strings(keywords)
	return keywords
}

func wordSet(text string) map[string]bool {
	words := map[string]bool{}
	for _, field := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		words[field] = true
	}
	return words
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
