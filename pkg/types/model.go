// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ModelID identifies a supported backend model. Values are only obtained
// through Registry.Parse, so a ModelID held by the rest of the program is
// always a registry member.
type ModelID string

// String returns the identifier as used in file names and on the CLI.
func (m ModelID) String() string { return string(m) }

// Provider selects the wire protocol used to reach a model.
type Provider string

const (
	// ProviderOpenAI covers any OpenAI-compatible chat completions endpoint
	// (LM Studio, Ollama's /v1, vLLM, OpenAI itself).
	ProviderOpenAI Provider = "openai"

	// ProviderGemini uses the Google Generative AI SDK.
	ProviderGemini Provider = "gemini"
)

// BackendParams holds the connection and sampling parameters bound to one
// ModelID.
type BackendParams struct {
	// Provider selects the client implementation.
	Provider Provider `json:"provider" yaml:"provider"`

	// Model is the backend-side model name (may differ from the ModelID,
	// e.g. "llama3.1:8b" for ID "llama3.1-8b").
	Model string `json:"model" yaml:"model"`

	// BaseURL is the API root for OpenAI-compatible providers
	// (e.g. "http://localhost:11434/v1").
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey is sent as a bearer token. Local servers accept any value.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// SecretName names the .secrets/ file or environment-derived key that
	// supplies APIKey when it is empty.
	SecretName string `json:"secret_name,omitempty" yaml:"secret_name,omitempty"`

	Temperature      float64 `json:"temperature" yaml:"temperature"`
	TopP             float64 `json:"top_p" yaml:"top_p"`
	FrequencyPenalty float64 `json:"frequency_penalty" yaml:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty" yaml:"presence_penalty"`

	// Seed makes sampling reproducible on servers that honour it. Zero means unset.
	Seed int `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Timeout bounds a single model call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Registry is an immutable lookup table from ModelID to BackendParams.
// The zero value is an empty registry.
type Registry struct {
	entries map[ModelID]BackendParams
}

// NewRegistry copies entries into a new Registry. Keys are lower-cased.
func NewRegistry(entries map[ModelID]BackendParams) Registry {
	m := make(map[ModelID]BackendParams, len(entries))
	for id, p := range entries {
		m[ModelID(strings.ToLower(string(id)))] = p
	}
	return Registry{entries: m}
}

// Parse matches free text against the registry. Matching ignores case and
// surrounding whitespace. Unknown names fail with ErrConfig.
func (r Registry) Parse(name string) (ModelID, error) {
	id := ModelID(strings.ToLower(strings.TrimSpace(name)))
	if id == "" {
		return "", fmt.Errorf("%w: empty model identifier (supported: %s)", ErrConfig, strings.Join(r.names(), ", "))
	}
	if _, ok := r.entries[id]; !ok {
		return "", fmt.Errorf("%w: unsupported model %q (supported: %s)", ErrConfig, name, strings.Join(r.names(), ", "))
	}
	return id, nil
}

// Lookup returns the parameters bound to id.
func (r Registry) Lookup(id ModelID) (BackendParams, error) {
	p, ok := r.entries[id]
	if !ok {
		return BackendParams{}, fmt.Errorf("%w: unsupported model %q", ErrConfig, id)
	}
	return p, nil
}

// IDs returns the registered identifiers in sorted order.
func (r Registry) IDs() []ModelID {
	ids := make([]ModelID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// WithBaseURL returns a copy of the registry in which every OpenAI-compatible
// entry whose base URL equals from is pointed at to. It lets a config file
// move a local server without redefining each model.
func (r Registry) WithBaseURL(from, to string) Registry {
	m := make(map[ModelID]BackendParams, len(r.entries))
	for id, p := range r.entries {
		if p.Provider == ProviderOpenAI && p.BaseURL == from {
			p.BaseURL = to
		}
		m[id] = p
	}
	return Registry{entries: m}
}

func (r Registry) names() []string {
	ids := r.IDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return names
}

const (
	// LMStudioURL is the default LM Studio endpoint on the local network.
	LMStudioURL = "http://192.168.1.5:1234/v1"

	// OllamaURL is the default Ollama OpenAI-compatible endpoint.
	OllamaURL = "http://localhost:11434/v1"

	defaultModelTimeout = 600 * time.Second
)

// DefaultModel is the model offered when the user gives no answer.
const DefaultModel ModelID = "mn-violet-lotus-12b"

// DefaultRegistry returns the built-in model table.
func DefaultRegistry() Registry {
	local := BackendParams{
		Provider:         ProviderOpenAI,
		APIKey:           "not-needed",
		Temperature:      0.6,
		TopP:             0.95,
		FrequencyPenalty: 0.3,
		PresencePenalty:  0.2,
		Seed:             42,
		Timeout:          defaultModelTimeout,
	}

	violet := local
	violet.Model = "mn-violet-lotus-12b"
	violet.BaseURL = LMStudioURL
	violet.SecretName = "lmstudio-api-key"

	nemo := local
	nemo.Model = "mistral-nemo-instruct-2407"
	nemo.BaseURL = LMStudioURL
	nemo.SecretName = "lmstudio-api-key"

	llama := local
	llama.Model = "llama3.1:8b"
	llama.BaseURL = OllamaURL

	return NewRegistry(map[ModelID]BackendParams{
		"mn-violet-lotus-12b": violet,
		"mistral-nemo-12b":    nemo,
		"llama3.1-8b":         llama,
		"gemini-1.5-flash": {
			Provider:    ProviderGemini,
			Model:       "gemini-1.5-flash",
			SecretName:  "gemini-api-key",
			Temperature: 0.6,
			TopP:        0.95,
			Timeout:     defaultModelTimeout,
		},
	})
}
