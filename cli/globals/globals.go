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

package globals

import "time"

var (
	// LogLevel is the minimum level of the messages logged.
	LogLevel string
	// Verbose prints the logs on the standard output when set.
	Verbose bool
)

// DefaultBaudRate matches the UART configuration of the stock bootloader.
const DefaultBaudRate = 115200

// DefaultReadTimeout bounds every response read on the serial port.
const DefaultReadTimeout = time.Second
