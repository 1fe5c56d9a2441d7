package bbrplus

import (
	"os"

	"github.com/pelletier/go-toml"
)

// LoadConfig reads a TOML tuning file and layers it over DefaultConfig, so a
// deployment only has to override the constants it cares about.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return cfg, err
	}
	if err := tree.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if cfg.Rand == nil {
		cfg.Rand = defaultRand
	}
	return cfg, nil
}
