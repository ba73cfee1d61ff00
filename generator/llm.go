package generator

import "context"

// LLMClient abstracts the external generation service so providers can be
// swapped or faked. Complete returns the raw text of the model's answer; for
// structured prompts that text is JSON matching Prompt.Shape.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings is the provider configuration handed to concrete clients.
type LLMSettings struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
}

// DefaultTemperature is used when settings leave it unset.
const DefaultTemperature = 0.7

func (s *LLMSettings) temperature() float64 {
	if s.Temperature <= 0 {
		return DefaultTemperature
	}
	return s.Temperature
}

// Mode is the capability an Agent was constructed with.
type Mode int

const (
	// ModeLive calls the configured provider.
	ModeLive Mode = iota
	// ModeOffline returns fixed example content without calling out.
	ModeOffline
	// ModeUnconfigured means live generation was requested without a credential.
	ModeUnconfigured
)

func (m Mode) String() string {
	switch m {
	case ModeLive:
		return "live"
	case ModeOffline:
		return "offline"
	default:
		return "unconfigured"
	}
}
