//go:build mage

package main

// Publish renders the latest extracted novel to PDF.
func Publish() error {
	return runStage("publish")
}
