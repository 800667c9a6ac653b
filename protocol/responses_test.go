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
	"testing"

	"github.com/stretchr/testify/require"
)

func responseHeader(status byte) []byte {
	raw := make([]byte, ResponseHeaderSize)
	raw[ResponseHeaderSize-1] = status
	return raw
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		status   byte
		ok       bool
		rendered string
	}{
		{0x01, true, "success"},
		{0xFD, false, "invalid compare"},
		{0xFE, false, "invalid address"},
		{0xFF, false, "unsupported command"},
		{0x02, false, "unknown status (0x02)"},
	}
	for _, tt := range tests {
		status, err := ParseStatus(responseHeader(tt.status))
		require.NoError(t, err)
		require.Equal(t, tt.ok, status.OK())
		require.Equal(t, tt.rendered, status.String())
	}
}

func TestParseStatusWrongLength(t *testing.T) {
	_, err := ParseStatus(make([]byte, 11))
	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, ResponseHeaderSize, malformed.Want)
	require.Equal(t, 11, malformed.Got)
}

func TestParseVersionResponse(t *testing.T) {
	raw := make([]byte, VersionResponseSize)
	binary.LittleEndian.PutUint16(raw[11:], 0x0102) // version 1.2
	binary.LittleEndian.PutUint16(raw[13:], 0x0100) // max packet 256
	binary.LittleEndian.PutUint16(raw[17:], 0x4204)
	binary.LittleEndian.PutUint16(raw[21:], 0x0800)
	binary.LittleEndian.PutUint16(raw[23:], 8)

	info, err := ParseVersionResponse(raw)
	require.NoError(t, err)
	require.Equal(t, uint16(0x0102), info.BootloaderVersion)
	require.Equal(t, "1.2", info.VersionString())
	require.Equal(t, uint16(256), info.MaxPacketSize)
	require.Equal(t, uint16(0x4204), info.DeviceID)
	require.Equal(t, uint16(0x0800), info.ErasePageSize)
	require.Equal(t, uint16(8), info.MinWriteSize)
	require.Zero(t, info.StartAddress)
	require.Zero(t, info.EndAddress)
}

func TestParseVersionResponseWrongLength(t *testing.T) {
	var malformed *MalformedResponseError
	_, err := ParseVersionResponse(make([]byte, 36))
	require.ErrorAs(t, err, &malformed)
	_, err = ParseVersionResponse(make([]byte, 38))
	require.ErrorAs(t, err, &malformed)
}

func TestParseMemoryRange(t *testing.T) {
	raw := make([]byte, MemoryRangePayloadSize)
	binary.LittleEndian.PutUint32(raw[0:], 0x1000)
	binary.LittleEndian.PutUint32(raw[4:], 0xAC00)

	start, end, err := ParseMemoryRange(raw)
	require.NoError(t, err)
	require.Equal(t, uint32(0x1000), start)
	require.Equal(t, uint32(0xAC00), end)
}

func TestParseChecksumResponse(t *testing.T) {
	sum, err := ParseChecksumResponse([]byte{0x34, 0x12})
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), sum)

	var malformed *MalformedResponseError
	_, err = ParseChecksumResponse([]byte{0x34})
	require.ErrorAs(t, err, &malformed)
}
