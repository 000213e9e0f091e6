package runner

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/markhallen/testwatch/internal/config"
)

// IgnoreMatcher reports paths excluded from test file discovery.
type IgnoreMatcher interface {
	ShouldIgnore(relativePath string) bool
}

// Discoverer finds test files under the project's watch roots, skipping
// anything matched by .gitignore or the project's exclude globs.
type Discoverer struct {
	root    string
	project *config.Project
	ignore  IgnoreMatcher
}

// NewDiscoverer creates a Discoverer rooted at the workspace root.
func NewDiscoverer(workspaceRoot string, project *config.Project, ignore IgnoreMatcher) *Discoverer {
	if workspaceRoot == "" {
		panic("workspaceRoot is required")
	}
	if project == nil {
		panic("project is required")
	}
	if ignore == nil {
		panic("ignore is required")
	}
	return &Discoverer{
		root:    workspaceRoot,
		project: project,
		ignore:  ignore,
	}
}

// TestFiles walks the watch roots and returns the sorted relative paths of
// every *_test.go file that survives the ignore rules.
func (d *Discoverer) TestFiles() ([]string, error) {
	seen := make(map[string]struct{})

	for _, watchRoot := range d.project.WatchRoots {
		base := filepath.Join(d.root, watchRoot)
		err := filepath.WalkDir(base, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			rel, err := filepath.Rel(d.root, path)
			if err != nil {
				return err
			}

			if entry.IsDir() {
				if entry.Name() == ".git" || d.ignore.ShouldIgnore(rel) {
					return filepath.SkipDir
				}
				return nil
			}

			if !strings.HasSuffix(entry.Name(), "_test.go") {
				return nil
			}
			if d.ignore.ShouldIgnore(rel) || d.excluded(rel) {
				return nil
			}

			seen[rel] = struct{}{}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	files := make([]string, 0, len(seen))
	for file := range seen {
		files = append(files, file)
	}
	sort.Strings(files)
	return files, nil
}

// excluded matches the relative path and its base name against the
// project's exclude globs.
func (d *Discoverer) excluded(rel string) bool {
	for _, pattern := range d.project.Exclude {
		if ok, _ := filepath.Match(pattern, filepath.ToSlash(rel)); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(rel)); ok {
			return true
		}
	}
	return false
}
