package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectFileName is the optional per-project publish configuration file,
// looked up in the directory publish runs from.
const ProjectFileName = ".preview-pkg.yaml"

// ProjectConfig holds publish options a project can pin so CI invocations
// need no flags.
type ProjectConfig struct {
	// Packages are the path patterns to publish.
	Packages []string `yaml:"packages"`

	// Tool selects the packaging tool family (npm, yarn, pnpm, bun).
	Tool string `yaml:"tool"`

	// KeepArtifact leaves packed tarballs on disk after upload.
	KeepArtifact bool `yaml:"keep_artifact"`
}

// LoadProject reads the project file from dir. A missing file yields the
// zero config and no error.
func LoadProject(dir string) (*ProjectConfig, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ProjectFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &ProjectConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", ProjectFileName, err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ProjectFileName, err)
	}
	return &cfg, nil
}
