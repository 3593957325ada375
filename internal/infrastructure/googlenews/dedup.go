package googlenews

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/frodopackets/DeathStrandsing/internal/domain"
)

const titleSimilarityThreshold = 0.8

// Tracking parameters stripped during URL normalization. utm_* is handled
// as a prefix.
var trackingParams = map[string]bool{
	"fbclid": true,
	"gclid":  true,
	"mc_cid": true,
	"mc_eid": true,
	"ref":    true,
	"source": true,
}

// deduper drops repeats by normalized URL and near-identical title.
// The first occurrence always wins.
type deduper struct {
	urls      map[string]struct{}
	titleKeys map[string]struct{}
	titleSets []map[string]struct{}
}

func newDeduper() *deduper {
	return &deduper{
		urls:      map[string]struct{}{},
		titleKeys: map[string]struct{}{},
	}
}

func (d *deduper) admit(a domain.Article) bool {
	normalized := normalizeURL(a.URL)
	if _, ok := d.urls[normalized]; ok {
		return false
	}

	key := normalizeTitle(a.Title)
	if _, ok := d.titleKeys[key]; ok {
		return false
	}
	words := titleWordSet(key)
	for _, seen := range d.titleSets {
		if jaccard(words, seen) > titleSimilarityThreshold {
			return false
		}
	}

	d.urls[normalized] = struct{}{}
	d.titleKeys[key] = struct{}{}
	d.titleSets = append(d.titleSets, words)
	return true
}

// normalizeURL lowercases scheme and host, drops fragments, default ports,
// tracking parameters, and trailing slashes so syntactic variants of the
// same link collapse to one identity.
func normalizeURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return strings.ToLower(strings.TrimSpace(raw))
	}

	scheme := strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Host)
	switch scheme {
	case "http":
		host = strings.TrimSuffix(host, ":80")
	case "https":
		host = strings.TrimSuffix(host, ":443")
	}

	path := strings.TrimSuffix(parsed.EscapedPath(), "/")

	query := parsed.Query()
	for param := range query {
		lower := strings.ToLower(param)
		if trackingParams[lower] || strings.HasPrefix(lower, "utm_") {
			query.Del(param)
		}
	}

	normalized := scheme + "://" + host + path
	if encoded := query.Encode(); encoded != "" {
		normalized += "?" + encoded
	}
	return normalized
}

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

func titleWordSet(normalizedTitle string) map[string]struct{} {
	words := map[string]struct{}{}
	for _, word := range strings.Fields(normalizedTitle) {
		words[word] = struct{}{}
	}
	return words
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for word := range a {
		if _, ok := b[word]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// articleID derives a short stable identifier from the normalized URL.
func articleID(link string) string {
	sum := sha256.Sum256([]byte(normalizeURL(link)))
	return hex.EncodeToString(sum[:])[:16]
}
