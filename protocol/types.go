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

// Status is the single-byte outcome code carried in the last byte of a
// response header. Values outside the named constants are still valid
// Status values; String renders them as unknown. The device answering with
// a byte we do not recognize is not a framing error.
type Status byte

const (
	StatusSuccess            Status = 0x01
	StatusInvalidCompare     Status = 0xFD
	StatusInvalidAddress     Status = 0xFE
	StatusUnsupportedCommand Status = 0xFF
)

// OK reports whether the status indicates the command succeeded.
func (s Status) OK() bool { return s == StatusSuccess }

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusInvalidCompare:
		return "invalid compare"
	case StatusInvalidAddress:
		return "invalid address"
	case StatusUnsupportedCommand:
		return "unsupported command"
	}
	return fmt.Sprintf("unknown status (0x%02X)", byte(s))
}

// DeviceInfo holds the capabilities reported by the bootloader. The five
// 16-bit fields come from the GetVersion response, the two addresses from
// the GetMemoryRange response. All fields are zero until the corresponding
// query succeeds.
type DeviceInfo struct {
	BootloaderVersion uint16
	MaxPacketSize     uint16
	DeviceID          uint16
	ErasePageSize     uint16
	MinWriteSize      uint16

	// StartAddress and EndAddress bound the programmable range, in word
	// units.
	StartAddress uint32
	EndAddress   uint32
}

// VersionString renders the bootloader version as major.minor.
func (i DeviceInfo) VersionString() string {
	return fmt.Sprintf("%d.%d", i.BootloaderVersion>>8, i.BootloaderVersion&0xFF)
}

// WordsToBytes converts a word-unit address to a byte offset. One word unit
// covers two bytes of target memory.
func WordsToBytes(words uint32) uint32 { return words * 2 }

// BytesToWords converts a byte offset to a word-unit address.
func BytesToWords(offset uint32) uint32 { return offset / 2 }
