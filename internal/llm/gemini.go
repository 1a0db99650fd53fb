package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider generates text with the Gemini API.
type GeminiProvider struct {
	Model       string
	apiKey      string
	apiKeyEnv   string
	baseURL     string
	temperature float32
	structured  bool
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(s Settings) *GeminiProvider {
	model := s.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiProvider{
		Model:       model,
		apiKey:      s.APIKey,
		apiKeyEnv:   s.APIKeyEnv,
		baseURL:     s.BaseURL,
		temperature: float32(s.Temperature),
		structured:  s.Structured,
	}
}

func (g *GeminiProvider) Name() string { return "gemini" }

// IsConfigured checks if the API key is set.
func (g *GeminiProvider) IsConfigured() bool {
	return g.apiKey != ""
}

// Generate sends a prompt to Gemini and returns the response text.
func (g *GeminiProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if g.apiKey == "" {
		return "", missingKeyError("Gemini", g.apiKeyEnv)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      g.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: g.baseURL},
	})
	if err != nil {
		return "", fmt.Errorf("creating gemini client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}
	if g.structured {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = postSchema()
	}

	resp, err := client.Models.GenerateContent(ctx, g.Model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	return text, nil
}

// postSchema describes the structured-output object the parser accepts.
func postSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"post": {
				Type:        genai.TypeString,
				Description: "The post content with emojis and paragraph breaks",
			},
			"confidence_score": {
				Type:        genai.TypeNumber,
				Description: "How well the post reflects the perspective, between 0.7 and 0.95",
			},
			"reasoning": {
				Type:        genai.TypeString,
				Description: "Explanation for the confidence score",
			},
		},
		Required: []string{"post", "confidence_score"},
	}
}
