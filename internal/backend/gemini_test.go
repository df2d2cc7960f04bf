// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/novel-engine/pkg/types"
)

func TestCandidateText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{
			genai.Text("Once upon "),
			genai.Blob{MIMEType: "image/png", Data: []byte{0x89}},
			genai.Text("a time..."),
		}},
	}}}

	text, err := candidateText(resp)
	require.NoError(t, err)
	assert.Equal(t, "Once upon a time...", text)
}

func TestCandidateText_Unusable(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"nil response", nil},
		{"no candidates", &genai.GenerateContentResponse{}},
		{"no content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}},
		{"no parts", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}}},
		{"only non-text parts", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png", Data: []byte{0x89}}}},
		}}}},
		{"blank text", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("  \n")}},
		}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := candidateText(tt.resp)
			assert.ErrorIs(t, err, types.ErrBackend)
		})
	}
}
