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

package arguments

import (
	"github.com/bassbreaker/pic24flash/cli/config"
	"github.com/bassbreaker/pic24flash/cli/feedback"
	"github.com/bassbreaker/pic24flash/cli/globals"
	"github.com/spf13/cobra"
)

// Flags contains the port selection flags shared by every command that
// talks to a device. This is useful so all commands that need this
// information are consistent with each other.
type Flags struct {
	Address  string
	BaudRate int
}

// AddToCommand adds the flags used to select the serial port to the specified Command
func (f *Flags) AddToCommand(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Address, "address", "a", "", "Serial port of the device, e.g.: COM10, /dev/ttyUSB0")
	cmd.Flags().IntVarP(&f.BaudRate, "baudrate", "r", 0, "Baud rate of the serial port (default 115200)")
}

// Resolve fills unset flags from the configuration file and validates the
// result. A missing port address is fatal.
func (f *Flags) Resolve() (address string, baudRate int) {
	cfg := config.Load()
	address = f.Address
	if address == "" {
		address = cfg.Port
	}
	if address == "" {
		feedback.Fatal("Please specify a serial port with --address", feedback.ErrBadArgument)
	}
	baudRate = f.BaudRate
	if baudRate == 0 {
		baudRate = cfg.BaudRate
	}
	if baudRate == 0 {
		baudRate = globals.DefaultBaudRate
	}
	return address, baudRate
}
