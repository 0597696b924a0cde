package llm

import (
	"fmt"
	"net/http"

	"slidegen/internal/infra"
)

// FromConfig builds the Client the configuration selects. Config validation
// already guarantees the chosen provider has its credential, so a failure
// here is a programming error, not user input.
func FromConfig(cfg *infra.Config, httpClient *http.Client) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(OpenAIOptions{
			APIKey:       cfg.OpenAIAPIKey,
			Model:        cfg.OpenAIModel,
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
			HTTPClient:   httpClient,
		})
	case "anthropic":
		return NewAnthropicClient(AnthropicOptions{
			APIKey:     cfg.AnthropicAPIKey,
			Model:      cfg.AnthropicModel,
			BaseURL:    cfg.AnthropicBaseURL,
			Version:    cfg.AnthropicVersion,
			HTTPClient: httpClient,
		})
	case "replicate":
		return NewReplicateClient(ReplicateOptions{
			APIToken:   cfg.ReplicateAPIToken,
			Model:      cfg.ReplicateModel,
			BaseURL:    cfg.ReplicateBaseURL,
			HTTPClient: httpClient,
		})
	case "static":
		return NewStaticClient(), nil
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Provider)
	}
}
