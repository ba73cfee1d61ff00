package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSectionText(t *testing.T) {
	raw := "\n**Judul**\n\nParagraf.\n"
	sec, err := ParseSection(StageAnalysis, raw)
	require.NoError(t, err)
	assert.Equal(t, raw, sec.Text)
	assert.Equal(t, StageAnalysis, sec.Stage)
}

func TestParseSectionList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "bare array", raw: `["a","b"]`},
		{name: "wrapped", raw: `{"items":["a","b"]}`},
		{name: "fenced", raw: "```json\n[\"a\",\"b\"]\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sec, err := ParseSection(StageRisks, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, sec.Items)
			assert.Equal(t, ShapeList, sec.Shape())
		})
	}
}

func TestParseSectionModules(t *testing.T) {
	sec, err := ParseSection(StageModules, `{"items":[{"title":"T","description":"D"}]}`)
	require.NoError(t, err)
	assert.Equal(t, []ProjectModule{{Title: "T", Description: "D"}}, sec.Modules)
	assert.Equal(t, StageModules, sec.Stage)
}

func TestParseSectionFailures(t *testing.T) {
	tests := []struct {
		name  string
		stage Stage
		raw   string
		kind  error
	}{
		{name: "blank text", stage: StageAnalysis, raw: " \n ", kind: ErrEmptyResponse},
		{name: "blank list", stage: StageSteps, raw: "", kind: ErrEmptyResponse},
		{name: "empty array", stage: StageSteps, raw: "[]", kind: ErrEmptyResponse},
		{name: "not json", stage: StageSteps, raw: "1. langkah", kind: ErrMalformedResult},
		{name: "object without items", stage: StageSteps, raw: `{"steps":["a"]}`, kind: ErrMalformedResult},
		{name: "number item", stage: StageRisks, raw: `["a", 2]`, kind: ErrMalformedResult},
		{name: "module missing description", stage: StageModules, raw: `[{"title":"T"}]`, kind: ErrMalformedResult},
		{name: "module as string", stage: StageModules, raw: `["T"]`, kind: ErrMalformedResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSection(tt.stage, tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestParseSectionOfflinePayloads(t *testing.T) {
	for s := StageAnalysis; s <= StageProposal; s++ {
		raw, err := OfflineLLM{}.Complete(t.Context(), Prompt{Stage: s})
		require.NoError(t, err)
		sec, err := ParseSection(s, raw)
		require.NoError(t, err, s.String())
		want, _ := Fallback(s)
		assert.Equal(t, want, sec, s.String())
	}
}
