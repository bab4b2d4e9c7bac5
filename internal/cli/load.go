package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/novaengine/nova/internal/config"
	"github.com/novaengine/nova/internal/data"
)

const defaultConfigPath = "config/engine.toml"

// loadConfig reads the config file. A missing file is only an error when
// the path was given explicitly.
func loadConfig(opts *RootOptions) (*config.Config, string, error) {
	path, explicit := opts.ConfigPath, true
	if path == "" {
		path = os.Getenv("NOVA_CONFIG")
	}
	if path == "" {
		path, explicit = defaultConfigPath, false
	}
	cfg, err := config.Load(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return config.Defaults(), "", nil
		}
		return nil, "", err
	}
	return cfg, path, nil
}

func loadManifest(cfg *config.Config) (*data.SceneManifest, error) {
	path := filepath.Join(cfg.Scripts.Dir, cfg.Scripts.Manifest)
	m, err := data.LoadSceneManifest(path)
	if err != nil {
		return nil, err
	}
	if m.Count() == 0 {
		return nil, fmt.Errorf("%s lists no scenes", path)
	}
	return m, nil
}
