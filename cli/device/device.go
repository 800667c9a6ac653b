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

package device

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bassbreaker/pic24flash/cli/arguments"
	"github.com/bassbreaker/pic24flash/cli/feedback"
	"github.com/bassbreaker/pic24flash/cli/globals"
	"github.com/bassbreaker/pic24flash/flasher"
	"github.com/spf13/cobra"
)

// NewCommand creates the `device` command group.
func NewCommand() *cobra.Command {
	deviceCmd := &cobra.Command{
		Use:     "device",
		Short:   "Device bootloader operations.",
		Long:    "Query, erase, read and reset a device running the UART bootloader.",
		Example: "  " + os.Args[0] + " device info -a /dev/ttyUSB0",
	}
	deviceCmd.AddCommand(newInfoCommand())
	deviceCmd.AddCommand(newEraseCommand())
	deviceCmd.AddCommand(newReadCommand())
	deviceCmd.AddCommand(newResetCommand())
	return deviceCmd
}

// openSession opens the serial port and populates the device capabilities.
// Any failure is fatal for the command.
func openSession(commonFlags *arguments.Flags) *flasher.Flasher {
	address, baudRate := commonFlags.Resolve()
	f, err := flasher.Open(address, baudRate, globals.DefaultReadTimeout)
	if err != nil {
		feedback.Fatal(fmt.Sprintf("Error opening serial port: %s", err), feedback.ErrGeneric)
	}
	if err := f.QueryVersion(); err != nil {
		f.Close()
		feedback.Fatal(fmt.Sprintf("Error querying bootloader version: %s", err), feedback.ErrGeneric)
	}
	if err := f.QueryMemoryRange(); err != nil {
		f.Close()
		feedback.Fatal(fmt.Sprintf("Error querying memory range: %s", err), feedback.ErrGeneric)
	}
	return f
}

// parseAddress parses a word address given in decimal or 0x-prefixed hex.
func parseAddress(s string) uint32 {
	addr, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		feedback.Fatal(fmt.Sprintf("Invalid address %q: %s", s, err), feedback.ErrBadArgument)
	}
	return uint32(addr)
}
