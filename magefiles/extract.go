//go:build mage

package main

// Extract cuts the novel out of the latest raw generation.
func Extract() error {
	return runStage("extract")
}
