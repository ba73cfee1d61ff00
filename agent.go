package main

import (
	"context"
	"fmt"

	"proposal_assistant/config"
	"proposal_assistant/generator"
	"proposal_assistant/logging"
)

// buildAgent picks live, offline or unconfigured generation from config. The
// credential is read once here.
func buildAgent(ctx context.Context, cfg config.Config, log *logging.Logger, rec generator.Recorder) (*generator.Agent, error) {
	opts := []generator.Option{generator.WithLogger(log)}
	if rec != nil {
		opts = append(opts, generator.WithRecorder(rec))
	}

	switch mode := cfg.ResolveMode(); mode {
	case generator.ModeOffline:
		log.Info("no credential configured, serving example content", "delay", cfg.LLM.OfflineDelay.String())
		return generator.NewOfflineAgent(cfg.LLM.OfflineDelay, opts...), nil
	case generator.ModeUnconfigured:
		log.Warn("live mode without credential, submissions will fail", "api_key_env", cfg.LLM.APIKeyEnv)
		return generator.NewUnconfiguredAgent(opts...), nil
	default:
		llm, err := buildLLM(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("llm configured", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
		return generator.NewAgent(llm, opts...)
	}
}

func buildLLM(ctx context.Context, cfg config.Config) (generator.LLMClient, error) {
	settings := cfg.Settings()
	switch cfg.LLM.Provider {
	case "gemini":
		return generator.NewGeminiLLMFromConfig(ctx, settings)
	case "openai":
		return generator.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// DeepSeek exposes an OpenAI compatible endpoint.
		if settings.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings)
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}
