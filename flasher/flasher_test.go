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
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/bassbreaker/pic24flash/protocol"
	"github.com/stretchr/testify/require"
)

// mockDevice scripts bootloader responses behind an io.ReadWriteCloser. Each
// incoming command frame is decoded and queues the matching response; a Read
// on an empty queue returns 0 bytes, like a serial port timing out.
type mockDevice struct {
	info      protocol.DeviceInfo
	statusFor func(cmd protocol.Command) protocol.Status
	mute      bool

	commands []protocol.Command
	pending  bytes.Buffer
	closed   bool
}

func newMockDevice() *mockDevice {
	return &mockDevice{info: testInfo()}
}

func (m *mockDevice) status(cmd protocol.Command) protocol.Status {
	if m.statusFor != nil {
		return m.statusFor(cmd)
	}
	return protocol.StatusSuccess
}

func (m *mockDevice) Write(p []byte) (int, error) {
	cmd, err := protocol.ParseCommand(p)
	if err != nil {
		return 0, err
	}
	m.commands = append(m.commands, cmd)
	if m.mute {
		return len(p), nil
	}

	status := m.status(cmd)
	header := make([]byte, protocol.ResponseHeaderSize)
	header[protocol.ResponseHeaderSize-1] = byte(status)

	switch cmd.Opcode {
	case protocol.CmdGetVersion:
		raw := make([]byte, protocol.VersionResponseSize)
		binary.LittleEndian.PutUint16(raw[11:], m.info.BootloaderVersion)
		binary.LittleEndian.PutUint16(raw[13:], m.info.MaxPacketSize)
		binary.LittleEndian.PutUint16(raw[17:], m.info.DeviceID)
		binary.LittleEndian.PutUint16(raw[21:], m.info.ErasePageSize)
		binary.LittleEndian.PutUint16(raw[23:], m.info.MinWriteSize)
		m.pending.Write(raw)
	case protocol.CmdGetMemoryRange:
		m.pending.Write(header)
		if status.OK() {
			raw := make([]byte, protocol.MemoryRangePayloadSize)
			binary.LittleEndian.PutUint32(raw[0:], m.info.StartAddress)
			binary.LittleEndian.PutUint32(raw[4:], m.info.EndAddress)
			m.pending.Write(raw)
		}
	case protocol.CmdReadFlash:
		m.pending.Write(header)
		if status.OK() {
			data := bytes.Repeat([]byte{0xAB}, int(cmd.Field))
			m.pending.Write(data)
		}
	case protocol.CmdCalcChecksum:
		m.pending.Write(header)
		if status.OK() {
			m.pending.Write([]byte{0x34, 0x12})
		}
	default:
		m.pending.Write(header)
	}
	return len(p), nil
}

func (m *mockDevice) Read(p []byte) (int, error) {
	if m.pending.Len() == 0 {
		return 0, nil
	}
	return m.pending.Read(p)
}

func (m *mockDevice) Close() error {
	m.closed = true
	return nil
}

// queried returns a session with both capability queries completed.
func queried(t *testing.T, dev *mockDevice) *Flasher {
	t.Helper()
	f := New(dev)
	require.NoError(t, f.QueryVersion())
	require.NoError(t, f.QueryMemoryRange())
	return f
}

func TestQuerySequence(t *testing.T) {
	dev := newMockDevice()
	f := queried(t, dev)

	info := f.Info()
	require.Equal(t, "1.2", info.VersionString())
	require.Equal(t, uint16(64), info.MaxPacketSize)
	require.Equal(t, uint16(0x4204), info.DeviceID)
	require.Equal(t, uint16(0x100), info.ErasePageSize)
	require.Equal(t, uint16(4), info.MinWriteSize)
	require.Equal(t, uint32(0x1000), info.StartAddress)
	require.Equal(t, uint32(0x2000), info.EndAddress)

	require.Len(t, dev.commands, 2)
	require.Equal(t, protocol.CmdGetVersion, dev.commands[0].Opcode)
	require.Equal(t, protocol.CmdGetMemoryRange, dev.commands[1].Opcode)
}

func TestOperationsRequireQueries(t *testing.T) {
	var validation *ValidationError

	f := New(newMockDevice())
	_, err := f.Erase(0x1000, 1)
	require.ErrorAs(t, err, &validation)
	_, err = f.Write(0x1000, make([]byte, 4))
	require.ErrorAs(t, err, &validation)
	_, err = f.Read(0x1000, 4)
	require.ErrorAs(t, err, &validation)
	_, err = f.Checksum(0x1000, 4)
	require.ErrorAs(t, err, &validation)
	_, err = f.WriteImage(&fakeImage{start: 0x2000, data: sequentialData(4)})
	require.ErrorAs(t, err, &validation)

	// One query alone is not enough.
	f = New(newMockDevice())
	require.NoError(t, f.QueryVersion())
	_, err = f.Erase(0x1000, 1)
	require.ErrorAs(t, err, &validation)
}

func TestEraseFull(t *testing.T) {
	dev := newMockDevice()
	f := queried(t, dev)

	status, err := f.EraseFull()
	require.NoError(t, err)
	require.True(t, status.OK())

	cmd := dev.commands[len(dev.commands)-1]
	require.Equal(t, protocol.CmdEraseFlash, cmd.Opcode)
	require.Equal(t, uint16(16), cmd.Field) // (0x2000-0x1000)/0x100 pages
	require.Equal(t, uint32(0x1000), cmd.Address)
	require.Equal(t, protocol.UnlockKey, cmd.Key)
}

func TestWriteImage(t *testing.T) {
	dev := newMockDevice()
	f := queried(t, dev)

	var progress []int
	f.SetProgressCallback(func(p int) { progress = append(progress, p) })

	written, err := f.WriteImage(&fakeImage{start: 0x2000, data: sequentialData(120)})
	require.NoError(t, err)
	require.Equal(t, 156, written)
	require.Equal(t, []int{33, 66, 100}, progress)

	writes := dev.commands[2:]
	require.Len(t, writes, 3)
	for i, cmd := range writes {
		require.Equal(t, protocol.CmdWriteFlash, cmd.Opcode)
		require.Equal(t, uint32(0x1000)+uint32(i)*26, cmd.Address)
		require.Equal(t, protocol.UnlockKey, cmd.Key)
		require.Len(t, cmd.Payload, 52)
	}
}

func TestWriteImageCollectsRefusedChunks(t *testing.T) {
	dev := newMockDevice()
	dev.statusFor = func(cmd protocol.Command) protocol.Status {
		if cmd.Opcode == protocol.CmdWriteFlash && cmd.Address == 0x101A {
			return protocol.StatusInvalidAddress
		}
		return protocol.StatusSuccess
	}
	f := queried(t, dev)

	written, err := f.WriteImage(&fakeImage{start: 0x2000, data: sequentialData(120)})
	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	require.Equal(t, []FailedWrite{{Address: 0x101A, Status: protocol.StatusInvalidAddress}}, writeErr.Failed)
	// The sweep keeps going past a refused chunk.
	require.Equal(t, 156, written)
	require.Len(t, dev.commands, 5)
}

func TestWriteImageMisaligned(t *testing.T) {
	dev := newMockDevice()
	f := queried(t, dev)

	_, err := f.WriteImage(&fakeImage{start: 0x2004, data: sequentialData(8)})
	var alignment *AlignmentError
	require.ErrorAs(t, err, &alignment)
	// Planning failed before anything was sent.
	require.Len(t, dev.commands, 2)
}

func TestWriteValidation(t *testing.T) {
	f := queried(t, newMockDevice())
	var validation *ValidationError

	_, err := f.Write(0x1000, make([]byte, 3))
	require.ErrorAs(t, err, &validation)
	_, err = f.Write(0x1000, make([]byte, 56))
	require.ErrorAs(t, err, &validation)

	status, err := f.Write(0x1000, make([]byte, 52))
	require.NoError(t, err)
	require.True(t, status.OK())
}

func TestRead(t *testing.T) {
	f := queried(t, newMockDevice())

	data, err := f.Read(0x1000, 52)
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte{0xAB}, 52), data)

	var validation *ValidationError
	_, err = f.Read(0x1000, 6)
	require.ErrorAs(t, err, &validation)
	_, err = f.Read(0x1000, 80)
	require.ErrorAs(t, err, &validation)
}

func TestReadRefused(t *testing.T) {
	dev := newMockDevice()
	dev.statusFor = func(cmd protocol.Command) protocol.Status {
		if cmd.Opcode == protocol.CmdReadFlash {
			return protocol.StatusInvalidAddress
		}
		return protocol.StatusSuccess
	}
	f := queried(t, dev)

	_, err := f.Read(0x1000, 52)
	var protoErr *protocol.ProtocolError
	require.ErrorAs(t, err, &protoErr)
	require.Equal(t, protocol.StatusInvalidAddress, protoErr.Status)
}

func TestChecksum(t *testing.T) {
	f := queried(t, newMockDevice())

	sum, err := f.Checksum(0x1000, 256)
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), sum)
}

func TestSelfVerify(t *testing.T) {
	dev := newMockDevice()
	dev.statusFor = func(cmd protocol.Command) protocol.Status {
		if cmd.Opcode == protocol.CmdSelfVerify {
			return protocol.StatusInvalidCompare
		}
		return protocol.StatusSuccess
	}
	// Self verify needs no capability queries.
	f := New(dev)

	status, err := f.SelfVerify()
	require.NoError(t, err)
	require.Equal(t, protocol.StatusInvalidCompare, status)
}

func TestResetEndsSession(t *testing.T) {
	dev := newMockDevice()
	f := queried(t, dev)

	status, err := f.Reset()
	require.NoError(t, err)
	require.True(t, status.OK())

	var validation *ValidationError
	require.ErrorAs(t, f.QueryVersion(), &validation)
	_, err = f.Erase(0x1000, 1)
	require.ErrorAs(t, err, &validation)
	_, err = f.Reset()
	require.ErrorAs(t, err, &validation)
}

func TestResetWithoutQueries(t *testing.T) {
	f := New(newMockDevice())
	status, err := f.Reset()
	require.NoError(t, err)
	require.True(t, status.OK())
}

func TestShortReadFailsTransport(t *testing.T) {
	dev := newMockDevice()
	dev.mute = true
	f := New(dev)

	err := f.QueryVersion()
	var transport *TransportError
	require.ErrorAs(t, err, &transport)
}

func TestCloseReleasesPort(t *testing.T) {
	dev := newMockDevice()
	f := New(dev)
	require.NoError(t, f.Close())
	require.True(t, dev.closed)

	var validation *ValidationError
	require.ErrorAs(t, f.QueryVersion(), &validation)
}
