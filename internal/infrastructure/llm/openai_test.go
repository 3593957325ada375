package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/frodopackets/DeathStrandsing/internal/domain"
	"github.com/frodopackets/DeathStrandsing/internal/ports"
)

func completionBody(text string) string {
	quoted, _ := json.Marshal(text)
	return `{"choices":[{"message":{"role":"assistant","content":` + string(quoted) + `}}]}`
}

func TestOpenAICompleteSendsChatRequest(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		io.WriteString(w, completionBody("a tidy summary"))
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "sk-test")
	resp, err := c.Complete(context.Background(), ports.CompletionRequest{
		Model:       "gpt-4o-mini",
		System:      "You summarize news.",
		Prompt:      "Summarize these articles.",
		MaxTokens:   600,
		Temperature: 0.3,
	})
	require.NoError(t, err)
	require.Equal(t, "a tidy summary", resp.Text)

	require.Equal(t, "Bearer sk-test", gotAuth)
	require.Equal(t, "application/json", gotContentType)
	require.Equal(t, "gpt-4o-mini", gotBody.Model)
	require.Equal(t, 600, gotBody.MaxTokens)
	require.InDelta(t, 0.3, gotBody.Temperature, 1e-9)
	require.Len(t, gotBody.Messages, 2)
	require.Equal(t, chatMessage{Role: "system", Content: "You summarize news."}, gotBody.Messages[0])
	require.Equal(t, chatMessage{Role: "user", Content: "Summarize these articles."}, gotBody.Messages[1])
}

func TestOpenAICompleteOmitsEmptySystemMessage(t *testing.T) {
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		io.WriteString(w, completionBody("ok"))
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "sk-test")
	_, err := c.Complete(context.Background(), ports.CompletionRequest{Model: "gpt-4o-mini", Prompt: "hi"})
	require.NoError(t, err)
	require.Len(t, gotBody.Messages, 1)
	require.Equal(t, "user", gotBody.Messages[0].Role)
}

func TestOpenAICompleteClassifiesStatusCodes(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{"throttled", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
		{"bad gateway", http.StatusBadGateway, true},
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, `{"error":{"message":"nope"}}`)
			}))
			defer srv.Close()

			c := NewOpenAIClient(srv.URL, "sk-test")
			_, err := c.Complete(context.Background(), ports.CompletionRequest{Model: "m", Prompt: "p"})
			require.ErrorIs(t, err, domain.ErrSummarizationUnavailable)
			require.Equal(t, tc.wantTransient, domain.IsTransient(err))
			require.ErrorContains(t, err, "nope")
		})
	}
}

func TestOpenAICompleteRejectsEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "sk-test")
	_, err := c.Complete(context.Background(), ports.CompletionRequest{Model: "m", Prompt: "p"})
	require.ErrorIs(t, err, domain.ErrSummarizationUnavailable)
	require.ErrorContains(t, err, "no choices")
}

func TestOpenAICompleteRequiresCredentials(t *testing.T) {
	c := NewOpenAIClient("https://api.openai.com/v1/chat/completions", "")
	_, err := c.Complete(context.Background(), ports.CompletionRequest{Model: "m", Prompt: "p"})
	require.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestOpenAICompleteMarksTransportErrorsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := NewOpenAIClient(srv.URL, "sk-test")
	_, err := c.Complete(context.Background(), ports.CompletionRequest{Model: "m", Prompt: "p"})
	require.ErrorIs(t, err, domain.ErrSummarizationUnavailable)
	require.True(t, domain.IsTransient(err))
}
