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

package protocol

import "fmt"

// MalformedResponseError reports a response frame that did not arrive at
// the expected fixed length. The frame is not interpreted further.
type MalformedResponseError struct {
	What string
	Want int
	Got  int
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed %s: expected %d bytes, got %d", e.What, e.Want, e.Got)
}

// ProtocolError reports a command the device answered with a non-success
// status. The session that produced it remains usable.
type ProtocolError struct {
	Op     string
	Status Status
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: device returned %s", e.Op, e.Status)
}
