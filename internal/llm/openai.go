package llm

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider talks to the OpenAI chat completions API or any
// OpenAI-compatible endpoint when BaseURL is set.
type OpenAIProvider struct {
	Model       string
	apiKey      string
	apiKeyEnv   string
	baseURL     string
	temperature float64
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(s Settings) *OpenAIProvider {
	model := s.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIProvider{
		Model:       model,
		apiKey:      s.APIKey,
		apiKeyEnv:   s.APIKeyEnv,
		baseURL:     s.BaseURL,
		temperature: s.Temperature,
	}
}

func (o *OpenAIProvider) Name() string { return "openai" }

// IsConfigured checks if the API key is set.
func (o *OpenAIProvider) IsConfigured() bool {
	return o.apiKey != ""
}

// Generate sends a prompt to OpenAI and returns the response.
func (o *OpenAIProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if o.apiKey == "" {
		return "", missingKeyError("OpenAI", o.apiKeyEnv)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(o.apiKey),
		option.WithMaxRetries(0),
	}
	if o.baseURL != "" {
		opts = append(opts, option.WithBaseURL(o.baseURL))
	}
	client := openai.NewClient(opts...)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(o.temperature),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}
	return resp.Choices[0].Message.Content, nil
}
