// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/novel-engine/internal/httputil"
	"github.com/pdiddy/novel-engine/pkg/types"
)

// OpenAIBackend calls an OpenAI-compatible chat completions endpoint. LM
// Studio and Ollama both expose one under /v1.
type OpenAIBackend struct {
	Params     types.BackendParams
	Client     *http.Client
	UserAgent  string
	MaxRetries int
	Logger     *zap.Logger
}

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	MaxTokens        int           `json:"max_tokens,omitempty"`
	Temperature      float64       `json:"temperature"`
	TopP             float64       `json:"top_p,omitempty"`
	FrequencyPenalty float64       `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64       `json:"presence_penalty,omitempty"`
	Seed             *int          `json:"seed,omitempty"`
	Stream           bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Generate sends one chat completion request. Transport failures, non-200
// statuses, and responses without a choice fail with ErrBackend.
func (b *OpenAIBackend) Generate(ctx context.Context, req Request) (string, error) {
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := chatRequest{
		Model:            b.Params.Model,
		Messages:         messages,
		MaxTokens:        req.MaxTokens,
		Temperature:      b.Params.Temperature,
		TopP:             b.Params.TopP,
		FrequencyPenalty: b.Params.FrequencyPenalty,
		PresencePenalty:  b.Params.PresencePenalty,
	}
	if b.Params.Seed != 0 {
		seed := b.Params.Seed
		body.Seed = &seed
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimRight(b.Params.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if b.Params.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.Params.APIKey)
	}
	if b.UserAgent != "" {
		httpReq.Header.Set("User-Agent", b.UserAgent)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	logger.Debug("calling model",
		zap.String("model", b.Params.Model),
		zap.String("url", url),
		zap.Int("max_tokens", req.MaxTokens),
	)

	resp, err := httputil.DoWithRetry(ctx, client, httpReq, b.MaxRetries, logger)
	if err != nil {
		return "", fmt.Errorf("%w: calling %s: %v", types.ErrBackend, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: %s returned %d: %s", types.ErrBackend, url, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", types.ErrBackend, err)
	}
	if len(cResp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s returned no choices", types.ErrBackend, b.Params.Model)
	}

	logger.Debug("model responded",
		zap.String("model", b.Params.Model),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("finish_reason", cResp.Choices[0].FinishReason),
		zap.Int("prompt_tokens", cResp.Usage.PromptTokens),
		zap.Int("completion_tokens", cResp.Usage.CompletionTokens),
	)

	content := cResp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: %s returned empty content", types.ErrBackend, b.Params.Model)
	}
	return content, nil
}
