package shellcache

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Manifest lists the app shell assets for one release.
type Manifest struct {
	Prefix  string   `yaml:"prefix"`
	Version string   `yaml:"version"`
	URLs    []string `yaml:"urls"`
}

// LoadManifest reads and validates a YAML manifest file.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data)
}

func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse manifest: %w", err)
	}
	m.Prefix = strings.TrimSpace(m.Prefix)
	m.Version = strings.TrimSpace(m.Version)
	if m.Prefix == "" {
		return Manifest{}, fmt.Errorf("manifest prefix must not be empty")
	}
	if m.Version == "" {
		return Manifest{}, fmt.Errorf("manifest version must not be empty")
	}
	return m, nil
}

// CacheName is the versioned name of this release's cache.
func (m Manifest) CacheName() string {
	return m.Prefix + "_" + m.Version
}

// PrecachePaths are the manifest URLs as absolute paths, plus the root.
func (m Manifest) PrecachePaths() []string {
	paths := lo.Map(m.URLs, func(u string, _ int) string {
		return "/" + strings.TrimPrefix(strings.TrimSpace(u), "/")
	})
	return lo.Uniq(append(paths, "/"))
}

// ownsCache reports whether name is a cache written by some release of this app.
func (m Manifest) ownsCache(name string) bool {
	return strings.HasPrefix(name, m.Prefix+"_")
}
