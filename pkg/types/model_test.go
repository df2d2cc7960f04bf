// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryParse(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		name    string
		input   string
		want    ModelID
		wantErr bool
	}{
		{"exact", "mn-violet-lotus-12b", "mn-violet-lotus-12b", false},
		{"upper case", "MN-Violet-Lotus-12B", "mn-violet-lotus-12b", false},
		{"surrounding whitespace", "  llama3.1-8b\n", "llama3.1-8b", false},
		{"gemini", "gemini-1.5-flash", "gemini-1.5-flash", false},
		{"unknown", "gpt-2", "", true},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrConfig), "want ErrConfig, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := DefaultRegistry()

	p, err := reg.Lookup("mn-violet-lotus-12b")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p.Provider)
	assert.Equal(t, LMStudioURL, p.BaseURL)
	assert.InDelta(t, 0.6, p.Temperature, 1e-9)
	assert.InDelta(t, 0.95, p.TopP, 1e-9)
	assert.InDelta(t, 0.3, p.FrequencyPenalty, 1e-9)
	assert.InDelta(t, 0.2, p.PresencePenalty, 1e-9)
	assert.Equal(t, 42, p.Seed)

	_, err = reg.Lookup("nope")
	assert.ErrorIs(t, err, ErrConfig)
}

func TestRegistryIsImmutable(t *testing.T) {
	src := map[ModelID]BackendParams{"a": {Model: "a"}}
	reg := NewRegistry(src)
	src["b"] = BackendParams{Model: "b"}

	_, err := reg.Parse("b")
	assert.ErrorIs(t, err, ErrConfig)
	assert.Equal(t, []ModelID{"a"}, reg.IDs())
}

func TestRegistryWithBaseURL(t *testing.T) {
	reg := DefaultRegistry().WithBaseURL(LMStudioURL, "http://127.0.0.1:1234/v1")

	p, err := reg.Lookup("mistral-nemo-12b")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:1234/v1", p.BaseURL)

	p, err = reg.Lookup("llama3.1-8b")
	require.NoError(t, err)
	assert.Equal(t, OllamaURL, p.BaseURL)

	orig, err := DefaultRegistry().Lookup("mistral-nemo-12b")
	require.NoError(t, err)
	assert.Equal(t, LMStudioURL, orig.BaseURL)
}

func TestRegistryIDsSorted(t *testing.T) {
	ids := DefaultRegistry().IDs()
	require.Len(t, ids, 4)
	for i := 1; i < len(ids); i++ {
		assert.Less(t, string(ids[i-1]), string(ids[i]))
	}
}
