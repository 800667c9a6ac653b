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

package flasher

import (
	"fmt"
	"strings"

	"github.com/bassbreaker/pic24flash/protocol"
)

// ValidationError reports an operation precondition violated before any
// bytes were sent. The session state is unchanged.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// AlignmentError reports a firmware image none of whose segments starts at
// the bootloader load address. Planning aborts before any write.
type AlignmentError struct {
	// WantOffset is the byte offset the image was expected to start at.
	WantOffset uint32
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("no image segment starts at the bootloader load address (byte offset 0x%X)", e.WantOffset)
}

// TransportError wraps a failure of the underlying transport, including a
// read timeout surfacing as a short read. Fatal for the current operation.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FailedWrite records one chunk the device refused.
type FailedWrite struct {
	Address uint32 // word units
	Status  protocol.Status
}

// WriteError aggregates the chunks that failed while sweeping an image.
// The remaining chunks were still written.
type WriteError struct {
	Failed []FailedWrite
}

func (e *WriteError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, w := range e.Failed {
		parts[i] = fmt.Sprintf("0x%04X (%s)", w.Address, w.Status)
	}
	return "write refused at " + strings.Join(parts, ", ")
}
