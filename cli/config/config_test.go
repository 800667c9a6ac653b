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

package config

import (
	"testing"

	"github.com/arduino/go-paths-helper"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	cfgPath := paths.New(t.TempDir()).Join("config.yaml")
	require.NoError(t, cfgPath.WriteFile([]byte("port: /dev/ttyACM0\nbaudrate: 57600\n")))
	t.Setenv("PIC24FLASH_CONFIG", cfgPath.String())

	cfg := Load()
	require.Equal(t, "/dev/ttyACM0", cfg.Port)
	require.Equal(t, 57600, cfg.BaudRate)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("PIC24FLASH_CONFIG", paths.New(t.TempDir()).Join("nope.yaml").String())
	t.Setenv("HOME", t.TempDir()) // keep any real user config out of the test
	require.Equal(t, Config{}, Load())
}

func TestLoadMalformedFile(t *testing.T) {
	cfgPath := paths.New(t.TempDir()).Join("config.yaml")
	require.NoError(t, cfgPath.WriteFile([]byte(":::not yaml")))
	t.Setenv("PIC24FLASH_CONFIG", cfgPath.String())
	t.Setenv("HOME", t.TempDir())

	require.Equal(t, Config{}, Load())
}
