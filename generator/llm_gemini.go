package generator

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured for the gemini provider.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiLLM implements LLMClient with Google's genai SDK.
type GeminiLLM struct {
	Model       string
	Temperature float32
	client      *genai.Client
}

func NewGeminiLLMFromConfig(ctx context.Context, cfg *LLMSettings) (*GeminiLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, newError(ErrConfiguration, errors.New("gemini api key missing"))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiLLM{
		Model:       model,
		Temperature: float32(cfg.temperature()),
		client:      client,
	}, nil
}

func (g *GeminiLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
		Temperature:       genai.Ptr(g.Temperature),
	}
	if prompt.Shape.Structured() {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = geminiSchema(prompt.Shape)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.Model, genai.Text(prompt.User), config)
	if err != nil {
		return "", Classify(fmt.Errorf("gemini: %w", err))
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", newError(ErrSafetyRejection, fmt.Errorf("gemini: prompt blocked (%s)", resp.PromptFeedback.BlockReason))
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", newError(ErrSafetyRejection, errors.New("gemini: candidate stopped for SAFETY"))
	}
	text := resp.Text()
	if text == "" {
		return "", newError(ErrEmptyResponse, errors.New("gemini: empty response"))
	}
	return text, nil
}

func geminiSchema(shape Shape) *genai.Schema {
	if shape == ShapeModules {
		return &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title": {
						Type:        genai.TypeString,
						Description: "Judul yang jelas dan profesional untuk modul/deliverable proyek.",
					},
					"description": {
						Type:        genai.TypeString,
						Description: "Deskripsi rinci tentang modul, mencakup aktivitas, metodologi, dan output yang akan diterima klien. Gunakan pemformatan tebal (**text**) untuk poin penting dan baris baru untuk paragraf.",
					},
				},
				Required: []string{"title", "description"},
			},
		}
	}
	return &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}
}
