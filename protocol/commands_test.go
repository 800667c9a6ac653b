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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeVersionRequest(t *testing.T) {
	frame := EncodeVersionRequest()
	require.Equal(t, []byte{
		0x00,
		0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}, frame)
}

func TestEncodeErase(t *testing.T) {
	frame := EncodeErase(0x1000, 16)
	require.Len(t, frame, CommandHeaderSize)
	require.Equal(t, []byte{
		0x03,
		0x10, 0x00,
		0x55, 0x00, 0xAA, 0x00,
		0x00, 0x10, 0x00, 0x00,
	}, frame)
}

func TestEncodeMemoryRangeRequest(t *testing.T) {
	frame := EncodeMemoryRangeRequest()
	require.Equal(t, byte(CmdGetMemoryRange), frame[0])

	cmd, err := ParseCommand(frame)
	require.NoError(t, err)
	require.Equal(t, uint16(MemoryRangePayloadSize), cmd.Field)
	require.Equal(t, zeroKey, cmd.Key)
	require.Equal(t, uint32(0), cmd.Address)
}

func TestEncodeWriteRoundTrip(t *testing.T) {
	payload := make([]byte, 16)
	for i := range payload {
		payload[i] = byte(i)
	}
	frame := EncodeWrite(0x2000, payload)
	require.Len(t, frame, CommandHeaderSize+len(payload))

	cmd, err := ParseCommand(frame)
	require.NoError(t, err)
	require.Equal(t, byte(CmdWriteFlash), cmd.Opcode)
	require.Equal(t, uint16(16), cmd.Field)
	require.Equal(t, UnlockKey, cmd.Key)
	require.Equal(t, uint32(0x2000), cmd.Address)
	require.Equal(t, payload, cmd.Payload)
}

func TestEncodeRead(t *testing.T) {
	cmd, err := ParseCommand(EncodeRead(0x1800, 64))
	require.NoError(t, err)
	require.Equal(t, byte(CmdReadFlash), cmd.Opcode)
	require.Equal(t, uint16(64), cmd.Field)
	require.Equal(t, UnlockKey, cmd.Key)
	require.Equal(t, uint32(0x1800), cmd.Address)
	require.Nil(t, cmd.Payload)
}

func TestEncodeChecksum(t *testing.T) {
	cmd, err := ParseCommand(EncodeChecksum(0x1000, 256))
	require.NoError(t, err)
	require.Equal(t, byte(CmdCalcChecksum), cmd.Opcode)
	require.Equal(t, uint16(256), cmd.Field)
	require.Equal(t, zeroKey, cmd.Key)
	require.Equal(t, uint32(0x1000), cmd.Address)
}

func TestParseCommandTooShort(t *testing.T) {
	_, err := ParseCommand([]byte{0x02, 0x10})
	require.Error(t, err)
}
