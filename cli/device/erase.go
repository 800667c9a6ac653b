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
	"github.com/bassbreaker/pic24flash/protocol"
	"github.com/spf13/cobra"
)

func newEraseCommand() *cobra.Command {
	var commonFlags arguments.Flags
	var startAddress string
	var numPages uint16

	eraseCmd := &cobra.Command{
		Use:   "erase",
		Short: "Erases the device flash.",
		Long:  "Erases the whole programmable range reported by the bootloader, or a specific page range when --start and --pages are given.",
		Example: "" +
			"  " + os.Args[0] + " device erase -a /dev/ttyUSB0\n" +
			"  " + os.Args[0] + " device erase -a /dev/ttyUSB0 --start 0x1000 --pages 4\n",
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runErase(&commonFlags, startAddress, numPages)
		},
	}
	commonFlags.AddToCommand(eraseCmd)
	eraseCmd.Flags().StringVar(&startAddress, "start", "", "Word address of the first page to erase (default: start of the programmable range)")
	eraseCmd.Flags().Uint16Var(&numPages, "pages", 0, "Number of pages to erase (default: the whole programmable range)")
	return eraseCmd
}

func runErase(commonFlags *arguments.Flags, startAddress string, numPages uint16) {
	f := openSession(commonFlags)
	defer f.Close()

	var status protocol.Status
	var err error
	if startAddress == "" && numPages == 0 {
		status, err = f.EraseFull()
	} else if startAddress == "" || numPages == 0 {
		feedback.Fatal("--start and --pages must be used together", feedback.ErrBadArgument)
	} else {
		status, err = f.Erase(parseAddress(startAddress), numPages)
	}
	if err != nil {
		feedback.Fatal(fmt.Sprintf("Error during erase: %s", err), feedback.ErrGeneric)
	}
	if !status.OK() {
		feedback.Fatal(fmt.Sprintf("Erase refused by the device: %s", status), feedback.ErrGeneric)
	}
	feedback.Print("Erase completed.")
}
