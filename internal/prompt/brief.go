// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt holds the creative-writing brief and the prompt templates
// sent to the models.
package prompt

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"go.yaml.in/yaml/v3"
)

// Brief is the story the generator asks for. It is passed by value into the
// generator; nothing mutates it after load.
type Brief struct {
	Title      string   `json:"title" yaml:"title"`
	Premise    string   `json:"premise" yaml:"premise"`
	Characters []string `json:"characters" yaml:"characters"`
	World      string   `json:"world" yaml:"world"`
	Arc        []string `json:"arc" yaml:"arc"`
}

// DefaultBrief is the built-in story.
func DefaultBrief() Brief {
	return Brief{
		Title: "Unit 985",
		Premise: "A decommissioned maintenance android, designation Unit 985, wakes in a flooded " +
			"archive beneath a coastal city with one intact memory: a child's voice asking it to " +
			"keep a promise. To learn what it promised, it must cross a city that has outlawed " +
			"machines that remember.",
		Characters: []string{
			"Unit 985: a patient, literal-minded maintenance android whose memory core is failing one sector at a time.",
			"Mara Quill: a salvage diver who sells old machine parts and distrusts anything that talks back.",
			"Director Oyelaran: head of the Civic Forgetting Office, sincere in believing that erased machines make a safer city.",
			"Tobin: the grown-up child from 985's memory, now a tired engineer who has forgotten the promise entirely.",
		},
		World: "Saltmarsh, a tide-locked city of canals and sea walls thirty years after the Quiet Act " +
			"ordered every autonomous machine wiped. Rain is constant, power is rationed by district, " +
			"and unregistered memory is contraband traded in the drowned lower quarters.",
		Arc: []string{
			"Awakening: 985 is salvaged by Mara and bargains for its own repair.",
			"Pursuit: the Forgetting Office learns a remembering machine is loose.",
			"Discovery: 985 finds Tobin, who does not recognise it.",
			"Sacrifice: to restore Tobin's memory 985 must give up its own.",
			"Resolution: the promise is kept, and the city has to decide what memory is worth.",
		},
	}
}

// LoadBrief reads a YAML brief file. Empty fields keep the default brief's values.
func LoadBrief(path string) (Brief, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Brief{}, fmt.Errorf("reading brief: %w", err)
	}
	b := DefaultBrief()
	var override Brief
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Brief{}, fmt.Errorf("parsing brief: %w", err)
	}
	if override.Title != "" {
		b.Title = override.Title
	}
	if override.Premise != "" {
		b.Premise = override.Premise
	}
	if len(override.Characters) > 0 {
		b.Characters = override.Characters
	}
	if override.World != "" {
		b.World = override.World
	}
	if len(override.Arc) > 0 {
		b.Arc = override.Arc
	}
	return b, nil
}

// Text flattens the brief into plain prose, used as the premise for the
// novel writer.
func (b Brief) Text() string {
	var s strings.Builder
	fmt.Fprintf(&s, "Title: %s\n\n%s\n", b.Title, b.Premise)
	if len(b.Characters) > 0 {
		s.WriteString("\nCharacters:\n")
		for _, c := range b.Characters {
			fmt.Fprintf(&s, "- %s\n", c)
		}
	}
	if b.World != "" {
		fmt.Fprintf(&s, "\nWorld:\n%s\n", b.World)
	}
	if len(b.Arc) > 0 {
		s.WriteString("\nArc:\n")
		for i, a := range b.Arc {
			fmt.Fprintf(&s, "%d. %s\n", i+1, a)
		}
	}
	return s.String()
}

var storyTmpl = template.Must(template.New("story").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`You are a novelist. Write a complete, self-contained story titled "{{.Brief.Title}}" of approximately {{.Length}} words.

Premise:
{{.Brief.Premise}}

Characters:
{{- range .Brief.Characters}}
- {{.}}
{{- end}}

World:
{{.Brief.World}}

Story arc:
{{- range $i, $a := .Brief.Arc}}
{{inc $i}}. {{$a}}
{{- end}}

Write in vivid but concise prose with natural dialogue. You may plan first, but when you begin the story itself, put a line containing only === immediately before the first line of the story, and write nothing after the story ends.
`))

// Story renders the generation prompt for brief at the given word budget.
func Story(b Brief, length int) (string, error) {
	var buf bytes.Buffer
	if err := storyTmpl.Execute(&buf, struct {
		Brief  Brief
		Length int
	}{b, length}); err != nil {
		return "", fmt.Errorf("rendering story prompt: %w", err)
	}
	return buf.String(), nil
}
