package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultOfflineDelay simulates the latency of a real call.
const DefaultOfflineDelay = 1500 * time.Millisecond

// OfflineLLM answers every prompt with the stage's fixed example content after
// a fixed delay. It never looks at the intake, so results are deterministic.
type OfflineLLM struct {
	Delay time.Duration
}

func (o OfflineLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if o.Delay > 0 {
		t := time.NewTimer(o.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	sec, ok := Fallback(prompt.Stage)
	if !ok {
		return "", fmt.Errorf("no example content for stage %d", int(prompt.Stage))
	}
	switch sec.Shape() {
	case ShapeModules:
		raw, err := json.Marshal(sec.Modules)
		return string(raw), err
	case ShapeList:
		raw, err := json.Marshal(sec.Items)
		return string(raw), err
	default:
		return sec.Text, nil
	}
}
