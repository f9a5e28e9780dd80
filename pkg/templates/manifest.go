package templates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the optional per-directory manifest name
const ManifestFile = "templates.yaml"

// ManifestEntry adjusts how one file in the template directory is loaded
type ManifestEntry struct {
	File     string `yaml:"file"`
	Priority int    `yaml:"priority,omitempty"` // Seed priority
	Disabled bool   `yaml:"disabled,omitempty"`
}

// Manifest is the structure of templates.yaml
type Manifest struct {
	Templates []ManifestEntry `yaml:"templates"`
}

// LoadManifest reads dir/templates.yaml. A missing manifest is not an error
// and yields nil.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest YAML: %w", err)
	}

	for i, e := range m.Templates {
		if strings.TrimSpace(e.File) == "" {
			return nil, fmt.Errorf("manifest entry %d: file cannot be empty", i+1)
		}
		if e.Priority < 0 {
			return nil, fmt.Errorf("manifest entry %d (%s): priority cannot be negative", i+1, e.File)
		}
		if filepath.Base(e.File) != e.File {
			return nil, fmt.Errorf("manifest entry %d (%s): must name a file inside the directory", i+1, e.File)
		}
	}

	return &m, nil
}

// lookup returns the entry for a file name, matched case-insensitively
func (m *Manifest) lookup(name string) (ManifestEntry, bool) {
	if m == nil {
		return ManifestEntry{}, false
	}
	for _, e := range m.Templates {
		if strings.EqualFold(e.File, name) {
			return e, true
		}
	}
	return ManifestEntry{}, false
}

// Marshal renders the manifest as YAML
func (m *Manifest) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}
