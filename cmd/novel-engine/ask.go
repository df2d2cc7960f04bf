// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/novel-engine/internal/output"
	"github.com/pdiddy/novel-engine/pkg/types"
)

// readAnswer reads one line. A closed input counts as an empty answer.
func readAnswer(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// askLength asks for the story length in words. An empty answer takes def;
// anything that is not an integer fails with types.ErrConfig.
func askLength(in *bufio.Reader, p *output.Printer, def int) (int, error) {
	p.Prompt("Desired length in words [%d]: ", def)
	answer, err := readAnswer(in)
	if err != nil {
		return 0, err
	}
	if answer == "" {
		return def, nil
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		return 0, fmt.Errorf("%w: length must be a whole number of words, got %q", types.ErrConfig, answer)
	}
	return n, nil
}

// askModel lists the registry and reads a model name. An empty answer takes
// def. The answer is validated later by types.NewGenerationRequest.
func askModel(in *bufio.Reader, p *output.Printer, reg types.Registry, def types.ModelID) (string, error) {
	p.Print("Available models:")
	for _, id := range reg.IDs() {
		p.Print("  %s", id)
	}
	p.Prompt("Model [%s]: ", def)

	answer, err := readAnswer(in)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return string(def), nil
	}
	return answer, nil
}
