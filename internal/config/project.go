package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the optional per-repository config file name.
const ProjectFile = ".testwatch.yaml"

// Project holds per-repository settings read from .testwatch.yaml in the
// workspace root. All fields are optional; a missing file yields defaults.
type Project struct {
	// Packages are the package patterns a full run passes to the test
	// command.
	Packages []string `yaml:"packages"`

	// WatchRoots are the directories scanned for test files.
	WatchRoots []string `yaml:"watch_roots"`

	// Exclude holds path glob patterns skipped during test file discovery,
	// in addition to anything matched by .gitignore.
	Exclude []string `yaml:"exclude"`
}

// LoadProject reads .testwatch.yaml from dir. A missing file is not an
// error: defaults are returned.
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, ProjectFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			p := &Project{}
			applyProjectDefaults(p)
			return p, nil
		}
		return nil, fmt.Errorf("read %s: %w", ProjectFile, err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ProjectFile, err)
	}

	applyProjectDefaults(&p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func applyProjectDefaults(p *Project) {
	if len(p.Packages) == 0 {
		p.Packages = []string{"./..."}
	}
	if len(p.WatchRoots) == 0 {
		p.WatchRoots = []string{"."}
	}
}

// Validate checks project settings for correctness.
func (p *Project) Validate() error {
	for _, root := range p.WatchRoots {
		if root == "" {
			return fmt.Errorf("%s: watch_roots entries must not be empty", ProjectFile)
		}
		if filepath.IsAbs(root) {
			return fmt.Errorf("%s: watch_roots entry %q must be relative to the workspace root", ProjectFile, root)
		}
	}
	for _, pattern := range p.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("%s: invalid exclude pattern %q: %w", ProjectFile, pattern, err)
		}
	}
	return nil
}
