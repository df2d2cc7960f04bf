// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/pdiddy/novel-engine/pkg/types"
)

// GeminiBackend calls Google Gemini through the generative-ai SDK.
type GeminiBackend struct {
	Params types.BackendParams
	Logger *zap.Logger
}

// Generate sends one GenerateContent call and joins the text parts of the
// first candidate.
func (g *GeminiBackend) Generate(ctx context.Context, req Request) (string, error) {
	if g.Params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Params.Timeout)
		defer cancel()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.Params.APIKey))
	if err != nil {
		return "", fmt.Errorf("%w: creating gemini client: %v", types.ErrBackend, err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.Params.Model)
	model.SetTemperature(float32(g.Params.Temperature))
	if g.Params.TopP > 0 {
		model.SetTopP(float32(g.Params.TopP))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	if g.Logger != nil {
		g.Logger.Debug("calling gemini", zap.String("model", g.Params.Model), zap.Int("max_tokens", req.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("%w: generating content: %v", types.ErrBackend, err)
	}
	return candidateText(resp)
}

// candidateText joins the text parts of the first candidate. A response with
// no text fails with types.ErrBackend.
func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned from Gemini", types.ErrBackend)
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content returned from Gemini", types.ErrBackend)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("%w: Gemini returned no text", types.ErrBackend)
	}
	return b.String(), nil
}
