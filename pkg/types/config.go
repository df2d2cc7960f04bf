package types

import "time"

// HTTPConfig holds shared HTTP settings used by backends that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero falls back to the model's
	// BackendParams.Timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "novel-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call a language model.
type AIConfig struct {
	// Model is the registry identifier (e.g. "mn-violet-lotus-12b").
	Model ModelID `json:"model" yaml:"model"`

	// MaxRetries is the number of retry attempts on HTTP 429 (default 5).
	// Other failures are never retried.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// GenerationConfig holds settings for the generate stage.
type GenerationConfig struct {
	AIConfig   `yaml:",inline"`
	HTTPConfig `yaml:",inline"`

	// OutputDir is the directory raw generations are written to.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// DesiredLength is the word budget for the story.
	DesiredLength int `json:"desired_length" yaml:"desired_length"`
}

// Occurrence selects which marker match bounds the novel body.
type Occurrence string

const (
	OccurrenceFirst Occurrence = "first"
	OccurrenceLast  Occurrence = "last"
)

// ExtractionConfig holds the boundary rule for the extract stage. The rule is
// configuration because each backend formats its preamble differently.
type ExtractionConfig struct {
	// Marker separates preamble from story body (default "===").
	Marker string `json:"marker" yaml:"marker"`

	// Regexp treats Marker as a regular expression instead of a literal.
	Regexp bool `json:"regexp" yaml:"regexp"`

	// Occurrence picks the first or last match (default last).
	Occurrence Occurrence `json:"occurrence" yaml:"occurrence"`

	// Terminator is cut from the end of the body when present
	// (default "TERMINATE"). Empty disables trimming.
	Terminator string `json:"terminator" yaml:"terminator"`

	// OutputDir is the directory extracted text is written to.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// PageLayout holds the publisher's fixed page geometry, in points.
type PageLayout struct {
	PageSize     string  `json:"page_size" yaml:"page_size"`
	MarginLeft   float64 `json:"margin_left" yaml:"margin_left"`
	MarginRight  float64 `json:"margin_right" yaml:"margin_right"`
	MarginTop    float64 `json:"margin_top" yaml:"margin_top"`
	MarginBottom float64 `json:"margin_bottom" yaml:"margin_bottom"`

	// Background and Text are RGB triples.
	Background [3]int `json:"background" yaml:"background"`
	Text       [3]int `json:"text" yaml:"text"`

	BodyFontSize    float64 `json:"body_font_size" yaml:"body_font_size"`
	BodyLeading     float64 `json:"body_leading" yaml:"body_leading"`
	ParagraphSpace  float64 `json:"paragraph_space" yaml:"paragraph_space"`
	FirstLineIndent float64 `json:"first_line_indent" yaml:"first_line_indent"`
	ChapterFontSize float64 `json:"chapter_font_size" yaml:"chapter_font_size"`
	TitleFontSize   float64 `json:"title_font_size" yaml:"title_font_size"`
}

// PublishConfig holds settings for the publish stage.
type PublishConfig struct {
	Layout PageLayout `json:"layout" yaml:"layout"`

	// Title is printed on a title page. Empty skips the title page.
	Title string `json:"title" yaml:"title"`

	// FontDir may hold CrimsonText-*.ttf and Cinzel-*.ttf. Missing fonts
	// fall back to Times.
	FontDir string `json:"font_dir" yaml:"font_dir"`

	// OutputDir is the directory PDFs are written to.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// NovelConfig holds settings for the multi-pass novel writer.
type NovelConfig struct {
	AIConfig `yaml:",inline"`

	// OutputDir holds characters.json, outlines, and progress files.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// NumChapters is the number of chapters to plan (default 15).
	NumChapters int `json:"num_chapters" yaml:"num_chapters"`

	// WordsPerChapter is the minimum chapter length asked of the writer (default 3000).
	WordsPerChapter int `json:"words_per_chapter" yaml:"words_per_chapter"`

	// MaxRevisions bounds the write/review loop per chapter (default 3).
	MaxRevisions int `json:"max_revisions" yaml:"max_revisions"`

	// OutlineOnly stops after outlines are produced.
	OutlineOnly bool `json:"outline_only" yaml:"outline_only"`

	// SimilarityThreshold rejects outlines more similar than this to a
	// previous one (default 0.7).
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Publish    PublishConfig    `json:"publish" yaml:"publish"`
	Novel      NovelConfig      `json:"novel" yaml:"novel"`
}

const inch = 72.0

// DefaultLayout is US Letter with 1.25in side margins, 1in top and bottom
// margins, a warm cream background, and soft-black 12pt text.
func DefaultLayout() PageLayout {
	return PageLayout{
		PageSize:        "Letter",
		MarginLeft:      1.25 * inch,
		MarginRight:     1.25 * inch,
		MarginTop:       1 * inch,
		MarginBottom:    1 * inch,
		Background:      [3]int{248, 247, 244},
		Text:            [3]int{34, 34, 34},
		BodyFontSize:    12,
		BodyLeading:     18,
		ParagraphSpace:  12,
		FirstLineIndent: 24,
		ChapterFontSize: 18,
		TitleFontSize:   24,
	}
}
