// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backend is the generate(prompt, max_length, model) capability: a
// uniform client over the model providers in the registry.
package backend

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/novel-engine/pkg/types"
)

// Request is one prompt sent to a model.
type Request struct {
	// System is an optional role instruction sent ahead of the prompt.
	System string

	// Prompt is the user message.
	Prompt string

	// MaxTokens caps the response length. Zero leaves it to the server.
	MaxTokens int
}

// Backend generates text for a prompt. Implementations return the raw
// response unmodified; callers decide what counts as unusable output.
type Backend interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Options carries the process-level settings shared by every provider.
type Options struct {
	// HTTPClient is used by HTTP providers. Nil builds one with the model's timeout.
	HTTPClient *http.Client

	// APIKey overrides BackendParams.APIKey when non-empty.
	APIKey string

	// UserAgent is sent by HTTP providers.
	UserAgent string

	// MaxRetries bounds retries on HTTP 429.
	MaxRetries int

	Logger *zap.Logger
}

// New builds the client for params.Provider.
func New(params types.BackendParams, opts Options) (Backend, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.APIKey != "" {
		params.APIKey = opts.APIKey
	}

	switch params.Provider {
	case types.ProviderOpenAI:
		if params.BaseURL == "" {
			return nil, fmt.Errorf("%w: model %q has no base URL", types.ErrConfig, params.Model)
		}
		client := opts.HTTPClient
		if client == nil {
			client = &http.Client{Timeout: params.Timeout}
		}
		return &OpenAIBackend{
			Params:     params,
			Client:     client,
			UserAgent:  opts.UserAgent,
			MaxRetries: opts.MaxRetries,
			Logger:     opts.Logger,
		}, nil
	case types.ProviderGemini:
		if params.APIKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY not set and no gemini-api-key secret found", types.ErrConfig)
		}
		return &GeminiBackend{Params: params, Logger: opts.Logger}, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", types.ErrConfig, params.Provider)
	}
}
