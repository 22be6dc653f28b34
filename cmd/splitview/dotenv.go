// ABOUTME: Loads environment variables from .env files at startup using godotenv.
// ABOUTME: Variables already present in the environment are never overwritten.
package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// loadDotEnvAuto loads .env files from common locations without clobbering
// existing environment variables. Search order:
//  1. .env in current directory and its parents
//  2. .env next to the current executable
//
// The first file to set a key wins. Missing files are skipped.
func loadDotEnvAuto() []string {
	seen := map[string]bool{}
	var loaded []string

	addPath := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		if _, err := os.Stat(p); err != nil {
			return
		}
		if err := godotenv.Load(p); err == nil {
			loaded = append(loaded, p)
		}
	}

	if wd, err := os.Getwd(); err == nil {
		dir := wd
		for {
			addPath(filepath.Join(dir, ".env"))
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if exe, err := os.Executable(); err == nil {
		addPath(filepath.Join(filepath.Dir(exe), ".env"))
	}
	return loaded
}
