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
	"encoding/hex"
	"fmt"
	"os"

	"github.com/bassbreaker/pic24flash/cli/arguments"
	"github.com/bassbreaker/pic24flash/cli/feedback"
	"github.com/spf13/cobra"
)

func newReadCommand() *cobra.Command {
	var commonFlags arguments.Flags
	var startAddress string
	var numBytes uint16

	readCmd := &cobra.Command{
		Use:     "read",
		Short:   "Reads device memory.",
		Long:    "Reads a range of device memory through the bootloader and prints it as a hex dump.",
		Example: "  " + os.Args[0] + " device read -a /dev/ttyUSB0 --start 0x1000 --length 64",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runRead(&commonFlags, startAddress, numBytes)
		},
	}
	commonFlags.AddToCommand(readCmd)
	readCmd.Flags().StringVar(&startAddress, "start", "", "Word address to read from")
	readCmd.Flags().Uint16Var(&numBytes, "length", 0, "Number of bytes to read, must be a multiple of 4")
	readCmd.MarkFlagRequired("start")
	readCmd.MarkFlagRequired("length")
	return readCmd
}

// ReadResult is the memory dump printed by `device read`.
type ReadResult struct {
	Address string `json:"address"`
	Length  int    `json:"length"`
	Bytes   []byte `json:"data"`
}

func (r *ReadResult) String() string {
	return fmt.Sprintf("Read %d bytes at %s:\n%s", r.Length, r.Address, hex.Dump(r.Bytes))
}

// Data implements the feedback.Result interface.
func (r *ReadResult) Data() interface{} {
	return r
}

func runRead(commonFlags *arguments.Flags, startAddress string, numBytes uint16) {
	f := openSession(commonFlags)
	defer f.Close()

	address := parseAddress(startAddress)
	data, err := f.Read(address, numBytes)
	if err != nil {
		feedback.Fatal(fmt.Sprintf("Error during read: %s", err), feedback.ErrGeneric)
	}
	feedback.PrintResult(&ReadResult{
		Address: fmt.Sprintf("0x%04X", address),
		Length:  len(data),
		Bytes:   data,
	})
}
