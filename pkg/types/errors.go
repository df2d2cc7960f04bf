// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data shared by the novel-engine stages: the
// model registry, generation requests and results, stage configuration, and
// the error kinds every failure wraps.
package types

import "errors"

// Error kinds shared by every stage. Failures wrap one of these with
// fmt.Errorf("%w: ...") so callers can classify them with errors.Is.
var (
	// ErrBackend reports a model call that failed or returned unusable output.
	ErrBackend = errors.New("backend error")

	// ErrExtraction reports raw text with no recognizable boundary marker.
	// The text needs manual review.
	ErrExtraction = errors.New("extraction error (manual review required)")

	// ErrRender reports a missing or empty publisher input, or a PDF
	// rendering failure.
	ErrRender = errors.New("render error")

	// ErrConfig reports an unsupported model identifier or an invalid
	// generation parameter.
	ErrConfig = errors.New("config error")
)
