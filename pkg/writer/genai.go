package writer

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

var ErrNoAPIKey = errors.New("language model API key is not set (GEMINI_API_KEY)")

// Generator produces text for a system and user prompt pair.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// GenAI generates text with Google's Gemini API.
type GenAI struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGenAI creates a Gemini-backed generator.
func NewGenAI(ctx context.Context, apiKey, model string, temperature float32) (*GenAI, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAI{client: client, model: model, temperature: temperature}, nil
}

// Generate implements Generator.
func (g *GenAI) Generate(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(user),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			Temperature:       genai.Ptr(g.temperature),
		},
	)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("GenAI returned no text")
	}
	return text, nil
}
