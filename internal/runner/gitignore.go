package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// GitignoreMatcher excludes paths matched by the workspace's .gitignore
// using go-git's gitignore matcher.
type GitignoreMatcher struct {
	matcher gitignore.Matcher
}

// NewGitignoreMatcher loads .gitignore from the workspace root. A missing
// .gitignore is not an error: the matcher then never ignores anything.
func NewGitignoreMatcher(workspaceRoot string) (*GitignoreMatcher, error) {
	if workspaceRoot == "" {
		panic("workspaceRoot is required")
	}

	path := filepath.Join(workspaceRoot, ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GitignoreMatcher{matcher: nil}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		if pattern := gitignore.ParsePattern(line, nil); pattern != nil {
			patterns = append(patterns, pattern)
		}
	}

	return &GitignoreMatcher{matcher: gitignore.NewMatcher(patterns)}, nil
}

// ShouldIgnore checks if a relative path matches any gitignore patterns.
// Returns false if no .gitignore was loaded.
func (m *GitignoreMatcher) ShouldIgnore(relativePath string) bool {
	if m.matcher == nil {
		return false
	}
	return m.matcher.Match(pathSegments(relativePath), false)
}

// pathSegments splits a path into the segment form go-git's matcher wants,
// dropping empty and "." segments.
func pathSegments(path string) []string {
	if path == "" {
		return []string{}
	}

	parts := strings.Split(filepath.ToSlash(path), "/")
	var segments []string
	for _, part := range parts {
		if part != "" && part != "." {
			segments = append(segments, part)
		}
	}
	return segments
}

// NoOpMatcher never ignores any path. It stands in when gitignore loading
// fails at startup.
type NoOpMatcher struct{}

// ShouldIgnore always returns false for NoOpMatcher.
func (NoOpMatcher) ShouldIgnore(relativePath string) bool {
	return false
}
