// Package llm provides model inference backends behind ports.ModelClient.
package llm

import (
	"fmt"

	"github.com/frodopackets/DeathStrandsing/internal/config"
	"github.com/frodopackets/DeathStrandsing/internal/domain"
	"github.com/frodopackets/DeathStrandsing/internal/ports"
)

// NewClient selects the inference backend for the configured provider.
// The bedrock API client is only consulted for the bedrock provider and
// may be nil otherwise.
func NewClient(cfg config.ModelConfig, api BedrockAPI) (ports.ModelClient, error) {
	switch cfg.Provider {
	case config.ProviderBedrock:
		if api == nil {
			return nil, fmt.Errorf("%w: bedrock provider selected without an aws client", domain.ErrConfigInvalid)
		}
		return NewBedrockClient(api), nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAI.Endpoint, cfg.OpenAI.APIKey), nil
	case config.ProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic provider is not wired to a backend yet", domain.ErrConfigInvalid)
	default:
		return nil, fmt.Errorf("%w: unknown model provider %q", domain.ErrConfigInvalid, cfg.Provider)
	}
}
