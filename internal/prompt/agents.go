// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prompt

import (
	"bytes"
	"fmt"
	"text/template"
)

// Role system messages for the novel writer's agents.
const (
	CharacterManagerSystem = `You are a character consistency manager who:
1. Tracks all characters and their attributes
2. Ensures character names, traits, and behaviors remain consistent
3. Flags any inconsistencies in character portrayal
4. Maintains character relationships and development arcs
5. Provides character information to other agents
Be thorough and specific in maintaining character consistency.`

	EditorSystem = `You are a skilled book editor who:
1. Reviews story premises and provides constructive feedback
2. Ensures plot consistency and character development
3. Maintains the overall narrative structure
4. Provides detailed chapter outlines
Please be constructive and specific in your feedback.`

	WriterSystem = `You are a creative writer who:
1. Transforms outlines into engaging prose
2. Creates vivid descriptions and natural dialogue
3. Maintains consistent character voices
4. Follows the established plot structure while adding creative details
5. Incorporates feedback to improve chapters
Write in a clear, engaging style without excessive description.`

	ReviewerSystem = `You are a literary critic who:
1. Reviews completed chapters for quality and consistency
2. Suggests improvements for pacing and style
3. Identifies potential plot holes or character inconsistencies
4. Ensures each chapter advances the story meaningfully
Provide specific, actionable feedback.`
)

// Terminator ends every agent turn. Extraction strips it from the end of text.
const Terminator = "TERMINATE"

var agentTmpl = template.Must(template.New("agents").Parse(`
{{define "characters"}}Based on this premise: '{{.Premise}}'

Create detailed character profiles in JSON format for each character. The response should be a JSON array where each character is an object with these fields:
- name: string
- role: string
- description: string
- personality: string
- relationships: object mapping character names to relationship descriptions
- key_traits: array of strings
- first_appearance: string (chapter number)
- story_arc: string

Example format:
` + "```json" + `
[
    {
        "name": "John Doe",
        "role": "Protagonist",
        "description": "A tall man with brown hair...",
        "personality": "Brave but reckless...",
        "relationships": {"Jane Smith": "Love interest"},
        "key_traits": ["courageous", "stubborn", "loyal"],
        "first_appearance": "1",
        "story_arc": "Grows from reckless youth to responsible leader"
    }
]
` + "```" + `

Create profiles for all major and significant supporting characters.
End with TERMINATE{{end}}

{{define "outline"}}Based on the following premise: '{{.Premise}}'

{{.CharacterContext}}
{{if .Final}}
This is the final chapter. Ensure a satisfying conclusion.
{{end}}{{if .Feedback}}
Previous outline had these issues:
{{.Feedback}}

Please generate a new outline addressing these issues.
{{end}}
Create a detailed outline for Chapter {{.Chapter}} of {{.Total}}. Include:
1. A unique and descriptive chapter title
2. Key plot points
3. Character appearances and interactions
4. Setting descriptions
5. Major events or revelations

Ensure all character appearances and actions align with their established profiles.
The chapter's content MUST be unique compared to previous chapters.
Respond in a structured format suitable for the writer to develop into prose.

Start with the chapter title in the format 'Title: "Chapter Title"'{{end}}

{{define "outline_review"}}Review this outline for Chapter {{.Chapter}}:

{{.Outline}}

Original Premise:
{{.Premise}}

{{.CharacterContext}}

Evaluate the outline for:
1. Consistency with previous chapters and premise
2. Character development and proper use
3. Plot progression
4. Unique story elements
5. Pacing and structure

Provide specific feedback and suggestions.
End with TERMINATE{{end}}

{{define "chapter"}}Using this outline for Chapter {{.Chapter}} of {{.Total}}, write a complete chapter in engaging prose:

{{.Outline}}

{{.CharacterContext}}
{{if .Feedback}}
Please address this feedback in your revision:
{{.Feedback}}
{{end}}
Focus on:
1. Natural dialogue and character interactions
2. Vivid but concise descriptions
3. Smooth scene transitions
4. Maintaining consistent pacing
5. The chapter MUST contain at least {{.Words}} words
6. The chapter MUST be self-contained and complete, while advancing the overall story

Write the chapter now, ending with the word TERMINATE{{end}}

{{define "chapter_review"}}Review this draft (revision {{.Revision}}) of Chapter {{.Chapter}}:

{{.Draft}}

{{.CharacterContext}}

Provide specific feedback on:
1. Plot progression and pacing
2. Character development
3. Writing style and dialogue
4. Areas for improvement
5. Length: the writer should be aiming for at least {{.Words}} words per chapter

Pay special attention to character consistency issues.
If this is a later revision, be extra thorough in your assessment.
End your review with TERMINATE{{end}}
`))

// ChapterData fills the outline, chapter, and review templates.
type ChapterData struct {
	Premise          string
	CharacterContext string
	Chapter          int
	Total            int
	Final            bool
	Outline          string
	Feedback         string
	Words            int
	Revision         int

	// Draft is the chapter text under review.
	Draft string
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := agentTmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", name, err)
	}
	return buf.String(), nil
}

// Characters asks for JSON character profiles derived from premise.
func Characters(premise string) (string, error) {
	return render("characters", struct{ Premise string }{premise})
}

// Outline asks the editor for one chapter outline.
func Outline(d ChapterData) (string, error) { return render("outline", d) }

// OutlineReview asks editor and character manager to review an outline.
func OutlineReview(d ChapterData) (string, error) { return render("outline_review", d) }

// Chapter asks the writer to turn an outline into prose.
func Chapter(d ChapterData) (string, error) { return render("chapter", d) }

// ChapterReview asks the reviewer to critique a draft.
func ChapterReview(d ChapterData) (string, error) { return render("chapter_review", d) }
