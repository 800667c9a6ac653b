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

	"github.com/bassbreaker/pic24flash/cli/arguments"
	"github.com/bassbreaker/pic24flash/cli/feedback"
	"github.com/bassbreaker/pic24flash/cli/globals"
	"github.com/bassbreaker/pic24flash/flasher"
	"github.com/spf13/cobra"
)

func newResetCommand() *cobra.Command {
	var commonFlags arguments.Flags

	resetCmd := &cobra.Command{
		Use:     "reset",
		Short:   "Resets the device.",
		Long:    "Resets the device, leaving the bootloader and starting the programmed application.",
		Example: "  " + os.Args[0] + " device reset -a /dev/ttyUSB0",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runReset(&commonFlags)
		},
	}
	commonFlags.AddToCommand(resetCmd)
	return resetCmd
}

func runReset(commonFlags *arguments.Flags) {
	// Reset works from any connected state, no capability queries needed.
	address, baudRate := commonFlags.Resolve()
	f, err := flasher.Open(address, baudRate, globals.DefaultReadTimeout)
	if err != nil {
		feedback.Fatal(fmt.Sprintf("Error opening serial port: %s", err), feedback.ErrGeneric)
	}
	defer f.Close()

	status, err := f.Reset()
	if err != nil {
		feedback.Fatal(fmt.Sprintf("Error during reset: %s", err), feedback.ErrGeneric)
	}
	if !status.OK() {
		feedback.Fatal(fmt.Sprintf("Reset refused by the device: %s", status), feedback.ErrGeneric)
	}
	feedback.Print("Device reset.")
}
