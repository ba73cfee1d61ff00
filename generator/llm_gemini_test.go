package generator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeGemini(t *testing.T, reply string, seenPath *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seenPath != nil {
			*seenPath = r.URL.Path
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGemini(t *testing.T, baseURL string) *GeminiLLM {
	t.Helper()
	llm, err := NewGeminiLLMFromConfig(t.Context(), &LLMSettings{
		Provider: "gemini",
		APIKey:   "test-key",
		BaseURL:  baseURL,
	})
	require.NoError(t, err)
	return llm
}

func TestNewGeminiLLMFromConfig(t *testing.T) {
	_, err := NewGeminiLLMFromConfig(t.Context(), &LLMSettings{})
	assert.ErrorIs(t, err, ErrConfiguration)

	llm := newTestGemini(t, "")
	assert.Equal(t, DefaultGeminiModel, llm.Model)
	assert.InDelta(t, 0.7, llm.Temperature, 1e-6)
}

func TestGeminiComplete(t *testing.T) {
	body, err := json.Marshal(map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": "**Analisis**"}}},
			"finishReason": "STOP",
		}},
	})
	require.NoError(t, err)
	var path string
	srv := fakeGemini(t, string(body), &path)

	out, err := newTestGemini(t, srv.URL).Complete(t.Context(), Prompt{Stage: StageAnalysis, System: SystemInstruction, User: "halo"})
	require.NoError(t, err)
	assert.Equal(t, "**Analisis**", out)
	assert.True(t, strings.HasSuffix(path, "models/gemini-2.5-flash:generateContent"), path)
}

func TestGeminiCompleteBlocked(t *testing.T) {
	srv := fakeGemini(t, `{"promptFeedback":{"blockReason":"SAFETY"}}`, nil)
	_, err := newTestGemini(t, srv.URL).Complete(t.Context(), Prompt{Stage: StageAnalysis, User: "x"})
	assert.ErrorIs(t, err, ErrSafetyRejection)
}

func TestGeminiCompleteSafetyFinish(t *testing.T) {
	srv := fakeGemini(t, `{"candidates":[{"finishReason":"SAFETY"}]}`, nil)
	_, err := newTestGemini(t, srv.URL).Complete(t.Context(), Prompt{Stage: StageAnalysis, User: "x"})
	assert.ErrorIs(t, err, ErrSafetyRejection)
}

func TestGeminiSchemaShapes(t *testing.T) {
	mods := geminiSchema(ShapeModules)
	require.NotNil(t, mods.Items)
	assert.ElementsMatch(t, []string{"title", "description"}, mods.Items.Required)

	list := geminiSchema(ShapeList)
	require.NotNil(t, list.Items)
	assert.Nil(t, list.Items.Properties)
}
