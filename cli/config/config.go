/*
	pic24flash
	Copyright (c) 2023 bassbreaker

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package config loads optional defaults for the command line flags from a
// YAML file, so a user working against a single board does not have to
// repeat --address on every invocation.
package config

import (
	"os"

	"github.com/arduino/go-paths-helper"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the defaults a user can persist instead of repeating flags.
type Config struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baudrate"`
}

// Load reads the configuration file, looking first at $PIC24FLASH_CONFIG,
// then at ~/.config/pic24flash/config.yaml. A missing or malformed file
// yields a zero Config.
func Load() Config {
	candidates := paths.PathList{}
	if env := os.Getenv("PIC24FLASH_CONFIG"); env != "" {
		candidates.Add(paths.New(env))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates.Add(paths.New(home, ".config", "pic24flash", "config.yaml"))
	}

	for _, p := range candidates {
		data, err := p.ReadFile()
		if err != nil {
			continue
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			logrus.WithField("file", p).WithError(err).Warn("Skipping malformed config file")
			continue
		}
		logrus.WithField("file", p).Debug("Loaded configuration defaults")
		return cfg
	}
	return Config{}
}
