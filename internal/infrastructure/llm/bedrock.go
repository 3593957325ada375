package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"

	"github.com/frodopackets/DeathStrandsing/internal/domain"
	"github.com/frodopackets/DeathStrandsing/internal/ports"
)

// BedrockAPI is the slice of the Bedrock runtime client the adapter needs.
type BedrockAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClient implements ports.ModelClient on the Bedrock Converse API.
type BedrockClient struct {
	api BedrockAPI
}

var _ ports.ModelClient = (*BedrockClient)(nil)

// NewBedrockClient wraps an already configured Bedrock runtime client.
func NewBedrockClient(api BedrockAPI) *BedrockClient {
	return &BedrockClient{api: api}
}

// Complete sends a single-turn conversation to the requested model.
func (c *BedrockClient) Complete(ctx context.Context, req ports.CompletionRequest) (ports.CompletionResponse, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(req.Model),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: req.Prompt},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(req.MaxTokens)),
			Temperature: aws.Float32(float32(req.Temperature)),
		},
	}
	if req.System != "" {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: req.System},
		}
	}

	out, err := c.api.Converse(ctx, input)
	if err != nil {
		return ports.CompletionResponse{}, classifyBedrockError(err)
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ports.CompletionResponse{}, fmt.Errorf("%w: converse returned no message", domain.ErrSummarizationUnavailable)
	}

	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return ports.CompletionResponse{}, fmt.Errorf("%w: converse returned empty content", domain.ErrSummarizationUnavailable)
	}

	return ports.CompletionResponse{Text: text}, nil
}

// transientBedrockCodes lists service errors worth retrying.
var transientBedrockCodes = map[string]bool{
	"ThrottlingException":         true,
	"ServiceUnavailableException": true,
	"ModelTimeoutException":       true,
	"ModelNotReadyException":      true,
	"InternalServerException":     true,
}

func classifyBedrockError(err error) error {
	wrapped := fmt.Errorf("%w: %w", domain.ErrSummarizationUnavailable, err)

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && transientBedrockCodes[apiErr.ErrorCode()] {
		return domain.Transient(wrapped)
	}
	return wrapped
}
