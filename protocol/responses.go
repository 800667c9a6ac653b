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

import "encoding/binary"

// Offsets of the five capability fields inside the 37-byte GetVersion
// response. The bytes in between carry descriptive text the host skips.
const (
	offBootloaderVersion = 11
	offMaxPacketSize     = 13
	offDeviceID          = 17
	offErasePageSize     = 21
	offMinWriteSize      = 23
)

// ParseStatus extracts the status code from a 12-byte response header. Any
// status byte is accepted; only a header of the wrong length fails.
func ParseStatus(raw []byte) (Status, error) {
	if len(raw) != ResponseHeaderSize {
		return 0, &MalformedResponseError{What: "response header", Want: ResponseHeaderSize, Got: len(raw)}
	}
	return Status(raw[ResponseHeaderSize-1]), nil
}

// ParseVersionResponse decodes a 37-byte GetVersion response into the five
// capability fields of DeviceInfo. StartAddress and EndAddress are left
// zero; they come from GetMemoryRange.
func ParseVersionResponse(raw []byte) (DeviceInfo, error) {
	if len(raw) != VersionResponseSize {
		return DeviceInfo{}, &MalformedResponseError{What: "version response", Want: VersionResponseSize, Got: len(raw)}
	}
	return DeviceInfo{
		BootloaderVersion: binary.LittleEndian.Uint16(raw[offBootloaderVersion:]),
		MaxPacketSize:     binary.LittleEndian.Uint16(raw[offMaxPacketSize:]),
		DeviceID:          binary.LittleEndian.Uint16(raw[offDeviceID:]),
		ErasePageSize:     binary.LittleEndian.Uint16(raw[offErasePageSize:]),
		MinWriteSize:      binary.LittleEndian.Uint16(raw[offMinWriteSize:]),
	}, nil
}

// ParseMemoryRange decodes the 8-byte GetMemoryRange payload into the start
// and end of the programmable range, both in word units.
func ParseMemoryRange(raw []byte) (start, end uint32, err error) {
	if len(raw) != MemoryRangePayloadSize {
		return 0, 0, &MalformedResponseError{What: "memory range payload", Want: MemoryRangePayloadSize, Got: len(raw)}
	}
	return binary.LittleEndian.Uint32(raw[0:4]), binary.LittleEndian.Uint32(raw[4:8]), nil
}

// ParseChecksumResponse decodes the 2-byte CalcChecksum payload.
func ParseChecksumResponse(raw []byte) (uint16, error) {
	if len(raw) != ChecksumPayloadSize {
		return 0, &MalformedResponseError{What: "checksum payload", Want: ChecksumPayloadSize, Got: len(raw)}
	}
	return binary.LittleEndian.Uint16(raw), nil
}
