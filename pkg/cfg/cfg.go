// Package cfg holds the app wide configuration. Values come from a yaml
// file, WHATSAVE_* env vars and flag overrides, in that order.
package cfg

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/maxcodl/WhatSave/commons"
)

const (
	DefaultAndroidRoot = "/storage/emulated/0"
	configName         = "config"
)

type AppCfg struct {
	// BaseDir is where the messenger folders live, typically the
	// shared storage root on a phone.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
	// SaveRoot is where saved statuses land. Kind specific subdirs
	// are created below it.
	SaveRoot string    `mapstructure:"save_root" yaml:"save_root"`
	DataDir  string    `mapstructure:"data_dir" yaml:"data_dir"`
	Clients  []string  `mapstructure:"clients" yaml:"clients"`
	Workers  int       `mapstructure:"workers" yaml:"workers"`
	Debug    bool      `mapstructure:"debug" yaml:"debug"`
	Update   UpdateCfg `mapstructure:"update" yaml:"update"`
}

type UpdateCfg struct {
	Owner         string `mapstructure:"owner" yaml:"owner"`
	Repo          string `mapstructure:"repo" yaml:"repo"`
	IntervalHours int    `mapstructure:"interval_hours" yaml:"interval_hours"`
}

// Load reads the config file at path, or the default locations when
// path is empty. A missing file is fine, defaults apply.
func Load(path string) (*AppCfg, error) {
	v := viper.New()
	v.SetEnvPrefix("whatsave")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	cfg := &AppCfg{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.sanitize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppCfg) sanitize() error {
	if c.BaseDir == "" {
		if _, err := os.Stat(DefaultAndroidRoot); err == nil {
			c.BaseDir = DefaultAndroidRoot
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return errors.Wrap(err, "resolve home dir")
			}
			c.BaseDir = home
		}
	}
	if c.SaveRoot == "" {
		c.SaveRoot = c.BaseDir
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDir()
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Update.Owner == "" {
		c.Update.Owner = "maxcodl"
	}
	if c.Update.Repo == "" {
		c.Update.Repo = "WhatSave"
	}
	if c.Update.IntervalHours <= 0 {
		c.Update.IntervalHours = 24
	}
	return nil
}

// DefaultDir is where the index db, prefs and config live.
func DefaultDir() string {
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, "whatsave")
	}
	return filepath.Join(".", ".whatsave")
}

func (c *AppCfg) IndexPath() string {
	return filepath.Join(c.DataDir, "media.db")
}

func (c *AppCfg) PrefsPath() string {
	return filepath.Join(c.DataDir, "prefs.db")
}

func (c *AppCfg) DownloadsDir() string {
	return filepath.Join(c.DataDir, "downloads")
}

func (c *AppCfg) PackagesDir() string {
	return filepath.Join(c.DataDir, "packages")
}

// WriteDefault writes a fully populated config file for the user to
// edit. Refuses to clobber an existing one.
func WriteDefault(path string) error {
	cfg := &AppCfg{}
	if err := cfg.sanitize(); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("config %s already exists", path)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	if err := commons.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
