//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Smoke builds docconv and converts a small Markdown file to HTML with the
// real pandoc, then checks the output exists.
func Smoke() error {
	mg.Deps(Build)

	dir, err := os.MkdirTemp("", "docconv-smoke-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "smoke.md")
	if err := os.WriteFile(in, []byte("# Smoke\n\nHello from docconv.\n"), 0o644); err != nil {
		return err
	}
	if err := sh.RunV(binPath(), "convert", "--from", "markdown", "--to", "html", in); err != nil {
		return fmt.Errorf("smoke conversion: %w", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "smoke.html")); err != nil {
		return fmt.Errorf("smoke output missing: %w", err)
	}
	fmt.Println("Smoke test passed.")
	return nil
}
