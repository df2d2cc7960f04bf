// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"time"
)

// GenerationRequest is one validated call to a backend. It is built only by
// NewGenerationRequest and exposes its fields through accessors, so it cannot
// change after construction.
type GenerationRequest struct {
	desiredLength int
	modelID       ModelID
	promptText    string
}

// NewGenerationRequest validates the user's answers against the registry.
// A non-positive length, an unknown model, or an empty prompt fails with
// ErrConfig.
func NewGenerationRequest(desiredLength int, model string, reg Registry, promptText string) (GenerationRequest, error) {
	if desiredLength <= 0 {
		return GenerationRequest{}, fmt.Errorf("%w: desired length must be positive, got %d", ErrConfig, desiredLength)
	}
	id, err := reg.Parse(model)
	if err != nil {
		return GenerationRequest{}, err
	}
	if strings.TrimSpace(promptText) == "" {
		return GenerationRequest{}, fmt.Errorf("%w: empty prompt", ErrConfig)
	}
	return GenerationRequest{
		desiredLength: desiredLength,
		modelID:       id,
		promptText:    promptText,
	}, nil
}

// DesiredLength is the word budget requested from the model.
func (r GenerationRequest) DesiredLength() int { return r.desiredLength }

// ModelID is the validated model identifier.
func (r GenerationRequest) ModelID() ModelID { return r.modelID }

// PromptText is the fully rendered prompt.
func (r GenerationRequest) PromptText() string { return r.promptText }

// GenerationResult is the raw output of one generation run.
type GenerationResult struct {
	RawText   string    `json:"raw_text" yaml:"raw_text"`
	ModelID   ModelID   `json:"model_id" yaml:"model_id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Path is where RawText was written.
	Path string `json:"path" yaml:"path"`
}

// ExtractedNovel is the part of a raw generation judged to be the novel body.
type ExtractedNovel struct {
	CleanText string `json:"clean_text" yaml:"clean_text"`

	// Offset is the byte offset of CleanText within the raw text.
	Offset int `json:"offset" yaml:"offset"`
}

// PublishedDocument is a rendered PDF.
type PublishedDocument struct {
	PDF   []byte `json:"-" yaml:"-"`
	Pages int    `json:"pages" yaml:"pages"`
	Path  string `json:"path" yaml:"path"`
}

// Character is one profile tracked across chapters by the novel writer.
type Character struct {
	Name            string            `json:"name"`
	Role            string            `json:"role"`
	Description     string            `json:"description"`
	Personality     string            `json:"personality"`
	Relationships   map[string]string `json:"relationships"`
	KeyTraits       []string          `json:"key_traits"`
	FirstAppearance string            `json:"first_appearance"`
	LastAppearance  string            `json:"last_appearance"`
	StoryArc        string            `json:"story_arc"`
}

// CharacterSet is the persisted form of characters.json.
type CharacterSet struct {
	// Characters is keyed by lower-cased name.
	Characters map[string]Character `json:"characters"`

	// Mentions counts name mentions per chapter: chapter → name → count.
	Mentions map[string]map[string]int `json:"mentions"`
}

// ChapterVersion is one write/review round of a chapter.
type ChapterVersion struct {
	Content  string `json:"content"`
	Feedback string `json:"feedback"`
}

// ChapterRecord holds every revision of a chapter and the one kept.
type ChapterRecord struct {
	Outline      string                    `json:"outline"`
	Versions     map[string]ChapterVersion `json:"versions,omitempty"`
	FinalVersion string                    `json:"final_version"`
}

// NovelMetadata describes a novel-writer run.
type NovelMetadata struct {
	Premise     string    `json:"premise"`
	CreatedDate time.Time `json:"created_date"`
	NumChapters int       `json:"num_chapters"`
	Model       ModelID   `json:"model"`
}

// Novel is the persisted form of novel_progress.json and final_novel.json.
type Novel struct {
	Metadata   NovelMetadata            `json:"metadata"`
	Characters CharacterSet             `json:"characters"`
	Chapters   map[string]ChapterRecord `json:"chapters"`
}

// ChapterKey returns the map key used for chapter n ("Chapter_3").
func ChapterKey(n int) string {
	return fmt.Sprintf("Chapter_%d", n)
}
