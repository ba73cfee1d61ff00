package generator

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
// It also serves OpenAI-compatible gateways through BaseURL.
type OpenAILLM struct {
	Model       string
	Temperature float64
	client      openai.Client
}

func NewOpenAILLMFromConfig(cfg *LLMSettings) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, newError(ErrConfiguration, errors.New("openai api key missing"))
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	// Failures are surfaced to the consultant for a manual retry.
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAILLM{
		Model:       cfg.Model,
		Temperature: cfg.temperature(),
		client:      openai.NewClient(opts...),
	}, nil
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
		Temperature: openai.Float(o.Temperature),
	}
	if prompt.Shape.Structured() {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   prompt.Stage.String(),
					Schema: openAISchema(prompt.Shape),
					Strict: openai.Bool(true),
				},
			},
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", Classify(fmt.Errorf("openai: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", newError(ErrEmptyResponse, errors.New("openai: empty choices"))
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return "", newError(ErrSafetyRejection, fmt.Errorf("openai refusal: %s", choice.Message.Refusal))
	}
	if choice.FinishReason == "content_filter" {
		return "", newError(ErrSafetyRejection, errors.New("openai: content filtered"))
	}
	if choice.Message.Content == "" {
		return "", newError(ErrEmptyResponse, errors.New("openai: empty content"))
	}
	return choice.Message.Content, nil
}

// openAISchema wraps the array under "items" because strict schemas need an
// object root. ParseSection unwraps it.
func openAISchema(shape Shape) map[string]any {
	var item map[string]any
	switch shape {
	case ShapeModules:
		item = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{
					"type":        "string",
					"description": "Judul yang jelas dan profesional untuk modul/deliverable proyek.",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "Deskripsi rinci tentang modul, mencakup aktivitas, metodologi, dan output yang akan diterima klien. Gunakan pemformatan tebal (**text**) untuk poin penting dan baris baru untuk paragraf.",
				},
			},
			"required":             []string{"title", "description"},
			"additionalProperties": false,
		}
	default:
		item = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{"type": "array", "items": item},
		},
		"required":             []string{"items"},
		"additionalProperties": false,
	}
}
