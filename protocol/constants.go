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

// Command opcodes understood by the bootloader.
const (
	CmdGetVersion     byte = 0x00
	CmdReadFlash      byte = 0x01
	CmdWriteFlash     byte = 0x02
	CmdEraseFlash     byte = 0x03
	CmdCalcChecksum   byte = 0x08
	CmdReset          byte = 0x09
	CmdSelfVerify     byte = 0x0A
	CmdGetMemoryRange byte = 0x0B
)

// Frame geometry.
const (
	// CommandHeaderSize is the fixed size of every command frame:
	// [opcode:1][field:2][unlock key:4][address:4]. Write commands append
	// their payload after the header.
	CommandHeaderSize = 11

	// ResponseHeaderSize is the fixed size of every response header. The
	// status code sits in the last byte.
	ResponseHeaderSize = 12

	// VersionResponseSize is the fixed size of the GetVersion response.
	VersionResponseSize = 37

	// MemoryRangePayloadSize is the payload that follows the response
	// header of a GetMemoryRange command: two 32-bit word addresses.
	MemoryRangePayloadSize = 8

	// ChecksumPayloadSize is the payload that follows the response header
	// of a CalcChecksum command.
	ChecksumPayloadSize = 2
)

// UnlockKey is the fixed token every memory-mutating command must carry in
// its 4-byte key field. The bootloader rejects erase, read and write frames
// without it, guarding against stray bytes on the line mutating flash.
var UnlockKey = [4]byte{0x55, 0x00, 0xAA, 0x00}

// zeroKey fills the key field of commands that do not mutate memory.
var zeroKey = [4]byte{}
