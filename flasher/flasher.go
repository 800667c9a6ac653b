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

// Package flasher drives a bootloader session over a serial transport:
// capability queries, flash erase, chunked image writes, memory read-back
// and device reset. Exactly one command is in flight at a time; every write
// is followed by a blocking read of the exact expected response size.
package flasher

import (
	"fmt"
	"io"
	"time"

	"github.com/bassbreaker/pic24flash/protocol"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

type state int

const (
	stateDisconnected state = iota
	stateConnected
	stateQueried
	stateErased
	stateProgrammed
	stateReset
)

// Flasher is a session with a device running the UART bootloader. It is not
// safe for concurrent use; the protocol itself is strictly sequential.
type Flasher struct {
	port  io.ReadWriteCloser
	info  protocol.DeviceInfo
	state state

	haveVersion bool
	haveRange   bool

	progressCB func(progress int)
}

// Open opens the serial port at the given address and returns a connected
// session. The read timeout bounds every response read; on expiry the
// pending operation fails with a TransportError.
func Open(portAddress string, baudRate int, readTimeout time.Duration) (*Flasher, error) {
	port, err := serial.Open(portAddress, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		logrus.Error(err)
		return nil, err
	}
	logrus.Infof("Opened port %s at %d", portAddress, baudRate)

	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		err = fmt.Errorf("could not set timeout on serial port: %w", err)
		logrus.Error(err)
		return nil, err
	}
	return New(port), nil
}

// New wraps an already open transport in a connected session. Used by tests
// and by callers that bring their own transport.
func New(port io.ReadWriteCloser) *Flasher {
	return &Flasher{port: port, state: stateConnected}
}

// Close releases the transport. Safe to call after a failed operation.
func (f *Flasher) Close() error {
	f.state = stateDisconnected
	return f.port.Close()
}

// SetProgressCallback registers a callback invoked with the write progress
// in percent while an image is being flashed.
func (f *Flasher) SetProgressCallback(cb func(progress int)) {
	f.progressCB = cb
}

// Info returns the device capabilities collected so far. Fields are zero
// until the corresponding query succeeds.
func (f *Flasher) Info() protocol.DeviceInfo {
	return f.info
}

// QueryVersion asks the bootloader for its version and packet capabilities
// and stores them in the session.
func (f *Flasher) QueryVersion() error {
	if err := f.requireConnected("query version"); err != nil {
		return err
	}
	if err := f.sendFrame(protocol.EncodeVersionRequest()); err != nil {
		return err
	}
	raw := make([]byte, protocol.VersionResponseSize)
	if err := f.fillBuffer(raw); err != nil {
		return err
	}
	info, err := protocol.ParseVersionResponse(raw)
	if err != nil {
		logrus.Error(err)
		return err
	}
	f.info.BootloaderVersion = info.BootloaderVersion
	f.info.MaxPacketSize = info.MaxPacketSize
	f.info.DeviceID = info.DeviceID
	f.info.ErasePageSize = info.ErasePageSize
	f.info.MinWriteSize = info.MinWriteSize
	f.haveVersion = true
	f.updateQueried()
	logrus.Debugf("Bootloader %s, device 0x%04X, max packet %d, page size %d, min write %d",
		f.info.VersionString(), f.info.DeviceID, f.info.MaxPacketSize, f.info.ErasePageSize, f.info.MinWriteSize)
	return nil
}

// QueryMemoryRange asks the bootloader for the programmable address range
// and stores it in the session.
func (f *Flasher) QueryMemoryRange() error {
	if err := f.requireConnected("query memory range"); err != nil {
		return err
	}
	if err := f.sendFrame(protocol.EncodeMemoryRangeRequest()); err != nil {
		return err
	}
	status, err := f.readStatus("query memory range")
	if err != nil {
		return err
	}
	if !status.OK() {
		err := &protocol.ProtocolError{Op: "query memory range", Status: status}
		logrus.Error(err)
		return err
	}
	raw := make([]byte, protocol.MemoryRangePayloadSize)
	if err := f.fillBuffer(raw); err != nil {
		return err
	}
	start, end, err := protocol.ParseMemoryRange(raw)
	if err != nil {
		logrus.Error(err)
		return err
	}
	f.info.StartAddress = start
	f.info.EndAddress = end
	f.haveRange = true
	f.updateQueried()
	logrus.Debugf("Program range 0x%04X - 0x%04X (word addresses)", start, end)
	return nil
}

// Erase erases numPages flash pages starting at the given word address and
// returns the device status. A non-success status is a result, not a fatal
// error; the session remains usable and nothing is retried.
func (f *Flasher) Erase(address uint32, numPages uint16) (protocol.Status, error) {
	if err := f.requireQueried("erase"); err != nil {
		return 0, err
	}
	logrus.Infof("Erasing %d pages starting at 0x%04X", numPages, address)
	if err := f.sendFrame(protocol.EncodeErase(address, numPages)); err != nil {
		return 0, err
	}
	status, err := f.readStatus("erase")
	if err != nil {
		return 0, err
	}
	if status.OK() && f.state == stateQueried {
		f.state = stateErased
	}
	return status, nil
}

// EraseFull erases the whole programmable range reported by the device.
func (f *Flasher) EraseFull() (protocol.Status, error) {
	if err := f.requireQueried("erase"); err != nil {
		return 0, err
	}
	if f.info.ErasePageSize == 0 {
		return 0, &ValidationError{Op: "erase", Reason: "device reports an erase page size of zero"}
	}
	numPages := uint16((f.info.EndAddress - f.info.StartAddress) / uint32(f.info.ErasePageSize))
	return f.Erase(f.info.StartAddress, numPages)
}

// Write programs a single payload at the given word address and returns the
// device status. The payload must respect the device packet limits.
func (f *Flasher) Write(address uint32, payload []byte) (protocol.Status, error) {
	if err := f.requireQueried("write"); err != nil {
		return 0, err
	}
	if err := f.validateWrite(payload); err != nil {
		return 0, err
	}
	return f.writeChunk(Chunk{Address: address, Data: payload})
}

// WriteImage plans the image into bounded aligned chunks and writes them in
// ascending address order. Chunks the device refuses are recorded and the
// sweep continues; the aggregate failure comes back as a WriteError. The
// return value is the number of bytes written, including chunks the device
// refused. Transport failures abort immediately.
func (f *Flasher) WriteImage(image ImageSource) (int, error) {
	if f.state != stateQueried && f.state != stateErased {
		return 0, &ValidationError{Op: "write image", Reason: "device capabilities not queried"}
	}
	plan, err := BuildPlan(f.info, image)
	if err != nil {
		logrus.Error(err)
		return 0, err
	}
	if len(plan) == 0 {
		return 0, &ValidationError{Op: "write image", Reason: "image contains no data inside the device range"}
	}

	logrus.Infof("Writing %d chunks of %d bytes", len(plan), len(plan[0].Data))
	written := 0
	var failed []FailedWrite
	for i, chunk := range plan {
		if err := f.validateWrite(chunk.Data); err != nil {
			return written, err
		}
		status, err := f.writeChunk(chunk)
		if err != nil {
			return written, err
		}
		if !status.OK() {
			logrus.Errorf("Write at 0x%04X refused: %s", chunk.Address, status)
			failed = append(failed, FailedWrite{Address: chunk.Address, Status: status})
		}
		written += len(chunk.Data)
		f.reportProgress((i + 1) * 100 / len(plan))
	}
	if len(failed) > 0 {
		return written, &WriteError{Failed: failed}
	}
	f.state = stateProgrammed
	return written, nil
}

// Read reads numBytes bytes of device memory starting at the given word
// address. The length must be a multiple of 4 and fit the device packet
// budget.
func (f *Flasher) Read(address uint32, numBytes uint16) ([]byte, error) {
	if err := f.requireQueried("read"); err != nil {
		return nil, err
	}
	if numBytes%4 != 0 {
		return nil, &ValidationError{Op: "read", Reason: fmt.Sprintf("length %d is not a multiple of 4", numBytes)}
	}
	if int(numBytes)-protocol.CommandHeaderSize > int(f.info.MaxPacketSize) {
		return nil, &ValidationError{Op: "read", Reason: fmt.Sprintf("length %d exceeds the device packet limit %d", numBytes, f.info.MaxPacketSize)}
	}
	if err := f.sendFrame(protocol.EncodeRead(address, numBytes)); err != nil {
		return nil, err
	}
	status, err := f.readStatus("read")
	if err != nil {
		return nil, err
	}
	if !status.OK() {
		return nil, &protocol.ProtocolError{Op: "read", Status: status}
	}
	data := make([]byte, numBytes)
	if err := f.fillBuffer(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Checksum asks the device for the checksum of numBytes bytes starting at
// the given word address.
func (f *Flasher) Checksum(address uint32, numBytes uint16) (uint16, error) {
	if err := f.requireQueried("checksum"); err != nil {
		return 0, err
	}
	if err := f.sendFrame(protocol.EncodeChecksum(address, numBytes)); err != nil {
		return 0, err
	}
	status, err := f.readStatus("checksum")
	if err != nil {
		return 0, err
	}
	if !status.OK() {
		return 0, &protocol.ProtocolError{Op: "checksum", Status: status}
	}
	raw := make([]byte, protocol.ChecksumPayloadSize)
	if err := f.fillBuffer(raw); err != nil {
		return 0, err
	}
	return protocol.ParseChecksumResponse(raw)
}

// SelfVerify asks the bootloader to verify the programmed application and
// returns the device status.
func (f *Flasher) SelfVerify() (protocol.Status, error) {
	if err := f.requireConnected("self verify"); err != nil {
		return 0, err
	}
	if err := f.sendFrame(protocol.EncodeSelfVerify()); err != nil {
		return 0, err
	}
	return f.readStatus("self verify")
}

// Reset resets the device. Allowed from any connected state; afterwards the
// session only accepts Close.
func (f *Flasher) Reset() (protocol.Status, error) {
	if err := f.requireConnected("reset"); err != nil {
		return 0, err
	}
	logrus.Info("Resetting device")
	if err := f.sendFrame(protocol.EncodeReset()); err != nil {
		return 0, err
	}
	status, err := f.readStatus("reset")
	if err != nil {
		return 0, err
	}
	f.state = stateReset
	return status, nil
}

func (f *Flasher) requireConnected(op string) error {
	if f.state == stateDisconnected || f.state == stateReset {
		return &ValidationError{Op: op, Reason: "no live device session"}
	}
	return nil
}

func (f *Flasher) requireQueried(op string) error {
	if err := f.requireConnected(op); err != nil {
		return err
	}
	if f.state < stateQueried {
		return &ValidationError{Op: op, Reason: "device capabilities not queried"}
	}
	return nil
}

func (f *Flasher) updateQueried() {
	if f.haveVersion && f.haveRange && f.state == stateConnected {
		f.state = stateQueried
	}
}

func (f *Flasher) validateWrite(payload []byte) error {
	if f.info.MinWriteSize == 0 || len(payload)%int(f.info.MinWriteSize) != 0 {
		return &ValidationError{Op: "write", Reason: fmt.Sprintf("payload length %d is not a multiple of the minimum write size %d", len(payload), f.info.MinWriteSize)}
	}
	if len(payload)+protocol.CommandHeaderSize > int(f.info.MaxPacketSize) {
		return &ValidationError{Op: "write", Reason: fmt.Sprintf("payload length %d exceeds the device packet limit %d", len(payload), f.info.MaxPacketSize)}
	}
	return nil
}

func (f *Flasher) writeChunk(chunk Chunk) (protocol.Status, error) {
	if err := f.sendFrame(protocol.EncodeWrite(chunk.Address, chunk.Data)); err != nil {
		return 0, err
	}
	return f.readStatus("write")
}

// sendFrame sends a complete command frame over the transport.
func (f *Flasher) sendFrame(frame []byte) error {
	logrus.Debugf("Sending frame: opcode 0x%02X, %d bytes", frame[0], len(frame))
	for len(frame) > 0 {
		sent, err := f.port.Write(frame)
		if err != nil {
			err := &TransportError{Op: "write", Err: err}
			logrus.Error(err)
			return err
		}
		frame = frame[sent:]
	}
	return nil
}

// fillBuffer blocks until the buffer is full. A zero-length read means the
// port timed out or went away; the operation fails rather than guessing at
// a partial frame.
func (f *Flasher) fillBuffer(buffer []byte) error {
	read := 0
	for read < len(buffer) {
		n, err := f.port.Read(buffer[read:])
		if err != nil {
			err := &TransportError{Op: "read", Err: err}
			logrus.Error(err)
			return err
		}
		if n == 0 {
			err := &TransportError{Op: "read", Err: fmt.Errorf("short read: got %d of %d bytes", read, len(buffer))}
			logrus.Error(err)
			return err
		}
		read += n
	}
	return nil
}

// readStatus reads a 12-byte response header and extracts the status code.
func (f *Flasher) readStatus(op string) (protocol.Status, error) {
	raw := make([]byte, protocol.ResponseHeaderSize)
	if err := f.fillBuffer(raw); err != nil {
		return 0, err
	}
	status, err := protocol.ParseStatus(raw)
	if err != nil {
		logrus.Error(err)
		return 0, err
	}
	logrus.Debugf("%s: device status %s", op, status)
	return status, nil
}

func (f *Flasher) reportProgress(progress int) {
	if f.progressCB != nil {
		f.progressCB(progress)
	}
}

// FlashResult is the summary of a completed flash operation, printable by
// the feedback system.
type FlashResult struct {
	BootloaderVersion string `json:"bootloader_version"`
	DeviceID          string `json:"device_id"`
	BytesWritten      int    `json:"bytes_written"`
}

func (r *FlashResult) String() string {
	return fmt.Sprintf("Wrote %d bytes (bootloader %s, device %s)", r.BytesWritten, r.BootloaderVersion, r.DeviceID)
}

// Data implements the feedback.Result interface.
func (r *FlashResult) Data() interface{} {
	return r
}
