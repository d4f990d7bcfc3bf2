package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// DefaultDir returns the configuration directory in the user's home.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultDirName), nil
}

// Load loads the configuration from the directory.
func Load(path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	return LoadFs(afero.NewBasePathFs(afero.NewOsFs(), path), path)
}

// LoadFs loads the configuration from the root of configFs. dir is the OS
// path configFs is rooted at, used for files the line editor opens itself.
func LoadFs(configFs afero.Fs, dir string) (*Configuration, error) {
	configContents, err := afero.ReadFile(configFs, ConfigurationName)
	if err != nil {
		return nil, err
	}
	var out Configuration
	if err := yaml.UnmarshalStrict(configContents, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigurationName, err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigurationName, err)
	}
	out.configFs = configFs
	out.configDir = dir
	return &out, nil
}

// Initialize writes the default configuration into dir, leaving an existing
// configuration untouched, and loads the result.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return InitializeFs(afero.NewBasePathFs(afero.NewOsFs(), dir), dir, logger)
}

// InitializeFs is Initialize on an arbitrary filesystem.
func InitializeFs(configFs afero.Fs, dir string, logger *log.Logger) (*Configuration, error) {
	exists, err := afero.Exists(configFs, ConfigurationName)
	if err != nil {
		return nil, err
	}

	if exists {
		logger.Printf("%s already exists in %s, skipping", ConfigurationName, dir)
	} else {
		logger.Printf("Writing %s to %s", ConfigurationName, dir)
		if err := afero.WriteFile(configFs, ConfigurationName, defaultConfigData, 0600); err != nil {
			return nil, err
		}
	}

	cfg, err := LoadFs(configFs, dir)
	if err != nil {
		return nil, err
	}

	if cfg.EventLog != "" {
		fd, err := cfg.OpenEventLog()
		if err != nil {
			return nil, err
		}
		fd.Close()
	}

	return cfg, nil
}
