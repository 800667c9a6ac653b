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

import (
	"encoding/binary"
	"fmt"
)

// appendHeader builds the fixed 11-byte command header shared by every
// command:
//
//	[opcode:1][field:2 LE][key:4][address:4 LE]
//
// The meaning of field is command specific: payload length, page count or a
// fixed constant.
func appendHeader(opcode byte, field uint16, key [4]byte, address uint32) []byte {
	buf := make([]byte, 0, CommandHeaderSize)
	buf = append(buf, opcode)
	buf = binary.LittleEndian.AppendUint16(buf, field)
	buf = append(buf, key[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, address)
	return buf
}

// EncodeVersionRequest builds a GetVersion command frame. Everything after
// the opcode is zero.
func EncodeVersionRequest() []byte {
	return appendHeader(CmdGetVersion, 0, zeroKey, 0)
}

// EncodeMemoryRangeRequest builds a GetMemoryRange command frame. The
// length field announces the 8-byte payload the host expects back.
func EncodeMemoryRangeRequest() []byte {
	return appendHeader(CmdGetMemoryRange, MemoryRangePayloadSize, zeroKey, 0)
}

// EncodeErase builds an EraseFlash command frame erasing numPages pages
// starting at the given word address.
func EncodeErase(address uint32, numPages uint16) []byte {
	return appendHeader(CmdEraseFlash, numPages, UnlockKey, address)
}

// EncodeReset builds a Reset command frame. Everything after the opcode is
// zero.
func EncodeReset() []byte {
	return appendHeader(CmdReset, 0, zeroKey, 0)
}

// EncodeRead builds a ReadFlash command frame requesting numBytes bytes
// starting at the given word address.
func EncodeRead(address uint32, numBytes uint16) []byte {
	return appendHeader(CmdReadFlash, numBytes, UnlockKey, address)
}

// EncodeWrite builds a WriteFlash command frame programming payload at the
// given word address. The caller is responsible for keeping the payload
// within the device packet limits.
func EncodeWrite(address uint32, payload []byte) []byte {
	frame := appendHeader(CmdWriteFlash, uint16(len(payload)), UnlockKey, address)
	return append(frame, payload...)
}

// EncodeChecksum builds a CalcChecksum command frame covering numBytes
// bytes starting at the given word address.
func EncodeChecksum(address uint32, numBytes uint16) []byte {
	return appendHeader(CmdCalcChecksum, numBytes, zeroKey, address)
}

// EncodeSelfVerify builds a SelfVerify command frame. Everything after the
// opcode is zero.
func EncodeSelfVerify() []byte {
	return appendHeader(CmdSelfVerify, 0, zeroKey, 0)
}

// Command is a decoded command frame.
type Command struct {
	Opcode  byte
	Field   uint16
	Key     [4]byte
	Address uint32
	Payload []byte
}

// ParseCommand decodes a command frame back into its parts. Used by tests
// and by mock devices; the flasher itself only encodes.
func ParseCommand(raw []byte) (Command, error) {
	if len(raw) < CommandHeaderSize {
		return Command{}, fmt.Errorf("command frame too short: got %d bytes, header is %d", len(raw), CommandHeaderSize)
	}
	cmd := Command{
		Opcode:  raw[0],
		Field:   binary.LittleEndian.Uint16(raw[1:3]),
		Address: binary.LittleEndian.Uint32(raw[7:11]),
	}
	copy(cmd.Key[:], raw[3:7])
	if len(raw) > CommandHeaderSize {
		cmd.Payload = raw[CommandHeaderSize:]
	}
	return cmd, nil
}
