package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/novaengine/nova/internal/core/asset"
)

// AssetRef names one asset a scene loads before its script runs.
type AssetRef struct {
	Path string `yaml:"path"`
	Kind string `yaml:"kind"` // AUDIO or SPRITE
}

// SceneEntry binds a scene name to its script.
type SceneEntry struct {
	Name    string     `yaml:"name"`
	Script  string     `yaml:"script"`
	Preload []AssetRef `yaml:"preload"`
}

// SceneManifest is the scenes.yaml table.
type SceneManifest struct {
	Default string       `yaml:"default"`
	Scenes  []SceneEntry `yaml:"scenes"`

	byName map[string]*SceneEntry
}

// LoadSceneManifest loads and validates scenes.yaml.
func LoadSceneManifest(path string) (*SceneManifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene manifest: %w", err)
	}
	return ParseSceneManifest(raw)
}

func ParseSceneManifest(raw []byte) (*SceneManifest, error) {
	m := &SceneManifest{}
	if err := yaml.Unmarshal(raw, m); err != nil {
		return nil, fmt.Errorf("parse scene manifest: %w", err)
	}
	m.byName = make(map[string]*SceneEntry, len(m.Scenes))
	for i := range m.Scenes {
		e := &m.Scenes[i]
		if e.Name == "" {
			return nil, fmt.Errorf("scene manifest entry %d has no name", i)
		}
		if e.Script == "" {
			return nil, fmt.Errorf("scene %q has no script", e.Name)
		}
		if _, dup := m.byName[e.Name]; dup {
			return nil, fmt.Errorf("scene %q listed twice", e.Name)
		}
		for _, ref := range e.Preload {
			if _, err := asset.ParseKind(ref.Kind); err != nil {
				return nil, fmt.Errorf("scene %q preload %q: %w", e.Name, ref.Path, err)
			}
		}
		m.byName[e.Name] = e
	}
	if m.Default != "" && m.byName[m.Default] == nil {
		return nil, fmt.Errorf("default scene %q is not listed", m.Default)
	}
	return m, nil
}

// Get returns the entry for name, or nil if none.
func (m *SceneManifest) Get(name string) *SceneEntry {
	return m.byName[name]
}

// Count returns the number of scenes listed.
func (m *SceneManifest) Count() int {
	return len(m.Scenes)
}

// DefaultScene is the explicit default, else the first listed scene.
func (m *SceneManifest) DefaultScene() string {
	if m.Default != "" {
		return m.Default
	}
	if len(m.Scenes) > 0 {
		return m.Scenes[0].Name
	}
	return ""
}
