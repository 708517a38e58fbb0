// Package config reads and writes the TOML files under ~/.wuzdash: the
// global config.toml and each profile's profile.toml.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the global ~/.wuzdash/config.toml.
type Config struct {
	DefaultProfile string `toml:"default_profile"`
}

// Load reads config.toml. A missing file is returned as an error so callers
// can fall back to their own default.
func Load(path string) (*Config, error) {
	cfg := new(Config)
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config.toml.
func Save(path string, cfg *Config) error {
	return writeTOML(path, cfg)
}

// writeTOML replaces path with the encoding of v. The file is written next to
// its target and renamed, so readers never see a partial file.
func writeTOML(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(v); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
