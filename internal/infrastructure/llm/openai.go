package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/frodopackets/DeathStrandsing/internal/domain"
	"github.com/frodopackets/DeathStrandsing/internal/ports"
)

// OpenAIClient implements ports.ModelClient against OpenAI-compatible
// chat completion endpoints.
type OpenAIClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

var _ ports.ModelClient = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client for the given endpoint.
func NewOpenAIClient(endpoint, apiKey string) *OpenAIClient {
	return &OpenAIClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete posts a chat completion request and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, req ports.CompletionRequest) (ports.CompletionResponse, error) {
	if c.apiKey == "" || c.endpoint == "" {
		return ports.CompletionResponse{}, fmt.Errorf("%w: openai client misconfigured", domain.ErrConfigInvalid)
	}

	payload := chatRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.System != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: req.System})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(payload)
	if err != nil {
		return ports.CompletionResponse{}, fmt.Errorf("marshal completion payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return ports.CompletionResponse{}, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ports.CompletionResponse{}, domain.Transient(fmt.Errorf("%w: %w", domain.ErrSummarizationUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		statusErr := fmt.Errorf("%w: completion endpoint returned %s: %s",
			domain.ErrSummarizationUnavailable, resp.Status, strings.TrimSpace(string(snippet)))
		if retriableStatus(resp.StatusCode) {
			return ports.CompletionResponse{}, domain.Transient(statusErr)
		}
		return ports.CompletionResponse{}, statusErr
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ports.CompletionResponse{}, fmt.Errorf("decode completion response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return ports.CompletionResponse{}, fmt.Errorf("%w: completion returned no choices", domain.ErrSummarizationUnavailable)
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return ports.CompletionResponse{}, fmt.Errorf("%w: completion returned empty content", domain.ErrSummarizationUnavailable)
	}

	return ports.CompletionResponse{Text: text}, nil
}

func retriableStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout ||
		code >= http.StatusInternalServerError
}
