package classify

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiCaptioner generates captions through the Gemini API. Preferred over
// the local endpoint when an API key is configured.
type GeminiCaptioner struct {
	apiKey string
	model  string
}

func NewGeminiCaptioner(apiKey string) *GeminiCaptioner {
	return &GeminiCaptioner{apiKey: apiKey, model: "gemini-2.0-flash-exp"}
}

func (g *GeminiCaptioner) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("genai client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("generate content: empty response")
	}
	return text, nil
}
