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

package firmware

import (
	"os"

	"github.com/spf13/cobra"
)

// NewCommand creates the `firmware` command group.
func NewCommand() *cobra.Command {
	firmwareCmd := &cobra.Command{
		Use:     "firmware",
		Short:   "Firmware image operations.",
		Long:    "Flash Intel HEX firmware images to the connected device.",
		Example: "  " + os.Args[0] + " firmware flash -a /dev/ttyUSB0 -i blink.hex",
	}
	firmwareCmd.AddCommand(newFlashCommand())
	return firmwareCmd
}
