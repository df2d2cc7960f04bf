// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Stage names a pipeline stage recorded in run history.
type Stage string

const (
	StageGenerate Stage = "generate"
	StageExtract  Stage = "extract"
	StagePublish  Stage = "publish"
	StageWrite    Stage = "write"
)

// Run is one successful stage invocation.
type Run struct {
	ID    string `json:"id" yaml:"id"`
	Stage Stage  `json:"stage" yaml:"stage"`

	// Model is empty for stages that do not call a backend.
	Model ModelID `json:"model,omitempty" yaml:"model,omitempty"`

	// Source is the input file, empty for generate.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Path is the primary output file.
	Path      string    `json:"path" yaml:"path"`
	Bytes     int64     `json:"bytes" yaml:"bytes"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
