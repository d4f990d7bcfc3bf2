package config

import (
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	DefaultDirName    = ".shellgibi"
)

const (
	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

// ErrNotPersistent is returned when asking for files of a configuration
// that wasn't loaded from a directory.
var ErrNotPersistent = errors.New("configuration has no directory")

type Configuration struct {
	configFs  afero.Fs
	configDir string

	Sysname       string            `json:"sysname" validate:"required"`
	Prompt        string            `json:"prompt" validate:"required"`
	DefaultBinDir string            `json:"default_bin_dir" validate:"required,startswith=/"`
	KnownTools    map[string]string `json:"known_tools" validate:"dive,keys,required,excludesall=/,endkeys,required,startswith=/"`

	HistoryFile  string `json:"history_file" validate:"omitempty,excludes=/"`
	HistoryLimit int    `json:"history_limit" validate:"gte=-1"`
	EventLog     string `json:"event_log" validate:"omitempty,excludes=/"`

	Color string `json:"color" validate:"oneof=always auto never"`

	Alarm Alarm `json:"alarm"`
}

type Alarm struct {
	Player          string `json:"player" validate:"required"`
	DurationSeconds int    `json:"duration_seconds" validate:"gt=0"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// Persistent reports whether the configuration is backed by a directory.
func (c *Configuration) Persistent() bool {
	return c.configFs != nil
}

// Dir returns the configuration directory, empty if not persistent.
func (c *Configuration) Dir() string {
	return c.configDir
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// HistoryPath returns the OS path of the line editor history, empty when
// history isn't saved.
func (c *Configuration) HistoryPath() string {
	if !c.Persistent() || c.HistoryFile == "" || c.configDir == "" {
		return ""
	}
	return filepath.Join(c.configDir, c.HistoryFile)
}

// OpenEventLog opens the event log in an append only state.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	if !c.Persistent() || c.EventLog == "" {
		return nil, ErrNotPersistent
	}
	return c.fs().OpenFile(c.EventLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadEventLog opens the event log for reading.
func (c *Configuration) ReadEventLog() (afero.File, error) {
	if !c.Persistent() || c.EventLog == "" {
		return nil, ErrNotPersistent
	}
	return c.fs().OpenFile(c.EventLog, os.O_RDONLY, 0600)
}

// Default returns the built in configuration. It isn't backed by a
// directory so nothing gets written to disk.
func Default() *Configuration {
	return defaultConfig()
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
