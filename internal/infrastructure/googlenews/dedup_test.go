package googlenews

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/frodopackets/DeathStrandsing/internal/domain"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips utm params",
			in:   "https://example.com/story?utm_source=rss&utm_medium=feed&id=7",
			want: "https://example.com/story?id=7",
		},
		{
			name: "strips click identifiers",
			in:   "https://example.com/story?fbclid=abc&gclid=def",
			want: "https://example.com/story",
		},
		{
			name: "drops fragments",
			in:   "https://example.com/story#section-2",
			want: "https://example.com/story",
		},
		{
			name: "drops trailing slash",
			in:   "https://example.com/story/",
			want: "https://example.com/story",
		},
		{
			name: "lowercases scheme and host",
			in:   "HTTPS://Example.COM/Story",
			want: "https://example.com/Story",
		},
		{
			name: "drops default https port",
			in:   "https://example.com:443/story",
			want: "https://example.com/story",
		},
		{
			name: "drops default http port",
			in:   "http://example.com:80/story",
			want: "http://example.com/story",
		},
		{
			name: "keeps non-default port",
			in:   "https://example.com:8443/story",
			want: "https://example.com:8443/story",
		},
		{
			name: "non-url input passes through lowercased",
			in:   "Not A URL",
			want: "not a url",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, normalizeURL(tc.in))
		})
	}
}

func TestDeduperFirstSeenWinsByURL(t *testing.T) {
	t.Parallel()

	d := newDeduper()

	first := domain.Article{Title: "Model launch announced", URL: "https://example.com/a?utm_source=rss"}
	variant := domain.Article{Title: "A completely different headline entirely", URL: "https://example.com/a?utm_medium=feed"}

	require.True(t, d.admit(first))
	require.False(t, d.admit(variant), "normalized URL already seen")
}

func TestDeduperDropsNearIdenticalTitles(t *testing.T) {
	t.Parallel()

	d := newDeduper()

	require.True(t, d.admit(domain.Article{
		Title: "OpenAI releases new reasoning model",
		URL:   "https://example.com/a",
	}))
	require.False(t, d.admit(domain.Article{
		Title: "openai   RELEASES new reasoning model",
		URL:   "https://example.com/b",
	}), "case and whitespace variants collapse")
	require.False(t, d.admit(domain.Article{
		Title: "OpenAI releases new reasoning model today",
		URL:   "https://example.com/c",
	}), "word overlap above the similarity threshold")
	require.True(t, d.admit(domain.Article{
		Title: "Chip maker reports record quarterly revenue",
		URL:   "https://example.com/d",
	}))
}

func TestJaccard(t *testing.T) {
	t.Parallel()

	a := titleWordSet("one two three four")
	b := titleWordSet("one two three four")
	c := titleWordSet("five six seven eight")

	require.Equal(t, 1.0, jaccard(a, b))
	require.Equal(t, 0.0, jaccard(a, c))
	require.Equal(t, 0.0, jaccard(nil, a))
}

func TestArticleIDStableAcrossVariants(t *testing.T) {
	t.Parallel()

	a := articleID("https://example.com/story?utm_source=rss")
	b := articleID("https://example.com/story/")
	c := articleID("https://example.com/other")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Len(t, a, 16)
}
