//go:build mage

package main

import "os"

// Generate asks for a length and a model and saves the raw response to
// novel_output/. LENGTH and MODEL skip the questions.
func Generate() error {
	var args []string
	if v := os.Getenv("LENGTH"); v != "" {
		args = append(args, "--length", v)
	}
	if v := os.Getenv("MODEL"); v != "" {
		args = append(args, "--model", v)
	}
	return runStage("generate", args...)
}

// Write runs the multi-pass chapter writer on PREMISE (a text file), or on
// the built-in brief when PREMISE is unset.
func Write() error {
	var args []string
	if v := os.Getenv("PREMISE"); v != "" {
		args = append(args, "--premise", v)
	}
	if v := os.Getenv("MODEL"); v != "" {
		args = append(args, "--model", v)
	}
	return runStage("write", args...)
}
