// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package config loads the engine-wide tunables spec.md leaves to the
// embedding host: the query parse timeout (§4.I), the defensive RRULE
// occurrence cap (§9 Open Question (c)), and the tz database search
// path. Grounded on malpanez-tempus/internal/config/config.go's
// viper-defaults-then-file-override shape.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the engine's runtime tunables. Only QueryParseTimeout is
// read elsewhere (by command.Store); OccurrenceCap and TZDatabasePath
// are loaded but not passed on to the schedule expander or the TZ
// resolver.
type Config struct {
	QueryParseTimeout time.Duration `mapstructure:"query_parse_timeout"`
	OccurrenceCap     int           `mapstructure:"occurrence_cap"`
	TZDatabasePath    string        `mapstructure:"tz_database_path"`
}

var defaultConfig = Config{
	QueryParseTimeout: 250 * time.Millisecond,
	OccurrenceCap:     10_000,
	TZDatabasePath:    "",
}

// Load reads redicli/config.yaml from the user config dir (falling
// back to the current directory), overlaying it on defaultConfig.
// A missing config file is not an error: the engine runs on defaults.
func Load() (*Config, error) {
	configDir, err := configDir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	viper.SetDefault("query_parse_timeout", defaultConfig.QueryParseTimeout)
	viper.SetDefault("occurrence_cap", defaultConfig.OccurrenceCap)
	viper.SetDefault("tz_database_path", defaultConfig.TZDatabasePath)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configDir() (string, error) {
	home, err := os.UserConfigDir()
	if err != nil {
		return ".", nil
	}
	return filepath.Join(home, "redicli"), nil
}
