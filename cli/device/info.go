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
	"github.com/spf13/cobra"
)

func newInfoCommand() *cobra.Command {
	var commonFlags arguments.Flags

	infoCmd := &cobra.Command{
		Use:     "info",
		Short:   "Shows the bootloader and device capabilities.",
		Long:    "Queries the bootloader version, packet limits and programmable address range of the connected device.",
		Example: "  " + os.Args[0] + " device info -a /dev/ttyUSB0",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runInfo(&commonFlags)
		},
	}
	commonFlags.AddToCommand(infoCmd)
	return infoCmd
}

// InfoResult is the device capability summary printed by `device info`.
type InfoResult struct {
	BootloaderVersion string `json:"bootloader_version"`
	DeviceID          string `json:"device_id"`
	MaxPacketSize     uint16 `json:"max_packet_size"`
	ErasePageSize     uint16 `json:"erase_page_size"`
	MinWriteSize      uint16 `json:"min_write_size"`
	StartAddress      string `json:"start_address"`
	EndAddress        string `json:"end_address"`
}

func (r *InfoResult) String() string {
	return fmt.Sprintf(
		"Bootloader version: %s\n"+
			"Device ID:          %s\n"+
			"Max packet size:    %d bytes\n"+
			"Erase page size:    %d words\n"+
			"Min write size:     %d bytes\n"+
			"Program range:      %s - %s (word addresses)",
		r.BootloaderVersion, r.DeviceID, r.MaxPacketSize, r.ErasePageSize, r.MinWriteSize, r.StartAddress, r.EndAddress)
}

// Data implements the feedback.Result interface.
func (r *InfoResult) Data() interface{} {
	return r
}

func runInfo(commonFlags *arguments.Flags) {
	f := openSession(commonFlags)
	defer f.Close()

	info := f.Info()
	feedback.PrintResult(&InfoResult{
		BootloaderVersion: info.VersionString(),
		DeviceID:          fmt.Sprintf("0x%04X", info.DeviceID),
		MaxPacketSize:     info.MaxPacketSize,
		ErasePageSize:     info.ErasePageSize,
		MinWriteSize:      info.MinWriteSize,
		StartAddress:      fmt.Sprintf("0x%04X", info.StartAddress),
		EndAddress:        fmt.Sprintf("0x%04X", info.EndAddress),
	})
}
