package llm

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/raphaelgruber/medilex/internal/config"
	"github.com/raphaelgruber/medilex/internal/models"
)

// Model wraps a langchaingo LLM as a Completer for providers that speak
// chat-completion but not image generation.
type Model struct {
	llm       llms.Model
	modelName string
	limiter   *rate.Limiter
}

// Compile-time check that Model implements Completer.
var _ Completer = (*Model)(nil)

// NewModel creates a langchaingo-backed Completer based on configuration.
func NewModel(ctx context.Context, cfg config.Config, apiKey string) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.Provider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.TextModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(apiKey),
			openai.WithModel(cfg.TextModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(apiKey),
			anthropic.WithModel(cfg.TextModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderBedrock:
		// Credentials come from the standard AWS chain, not the stored key.
		awsCfg, cfgErr := awsconfig.LoadDefaultConfig(ctx)
		if cfgErr != nil {
			return nil, fmt.Errorf("load AWS config: %w", cfgErr)
		}
		client := bedrockruntime.NewFromConfig(awsCfg)
		model, err = bedrock.New(
			bedrock.WithClient(client),
			bedrock.WithModel(cfg.TextModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.TextModel,
		limiter:   rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 2),
	}, nil
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}

// CompleteText generates text from a single prompt. The WebSearch option
// has no equivalent on these providers and is ignored.
func (m *Model) CompleteText(ctx context.Context, prompt string, _ CompleteOptions) (string, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	response, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt)
	if err != nil {
		return "", wrapFatalError(fmt.Errorf("generate: %w", err))
	}
	return response, nil
}

// CompleteImage always fails with ErrNoImage: chat-completion providers
// carry no inline image capability, the caller falls back to a placeholder.
func (m *Model) CompleteImage(context.Context, string) (*ImageData, error) {
	return nil, ErrNoImage
}

// Chat generates the next assistant turn for a seeded conversation.
func (m *Model) Chat(ctx context.Context, system string, turns []Turn, message string) (string, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	messages := make([]llms.MessageContent, 0, len(turns)+2)
	if system != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	for _, t := range turns {
		role := llms.ChatMessageTypeHuman
		if t.Role == models.RoleModel {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, t.Text))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, message))

	response, err := m.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", wrapFatalError(fmt.Errorf("chat: %w", err))
	}
	if len(response.Choices) == 0 {
		return "", nil
	}
	return response.Choices[0].Content, nil
}

// NewCompleter constructs the Completer for the configured provider.
// googleai gets the native REST client (image generation, search grounding),
// everything else goes through langchaingo.
func NewCompleter(ctx context.Context, cfg config.Config, apiKey string, logger *slog.Logger) (Completer, error) {
	if cfg.Provider == config.ProviderGoogleAI {
		return NewGeminiClient(apiKey, logger,
			WithGeminiModels(cfg.TextModel, cfg.ImageModel),
			WithGeminiLimiter(rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 2)),
		)
	}
	return NewModel(ctx, cfg, apiKey)
}
