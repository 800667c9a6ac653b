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

	"github.com/bassbreaker/pic24flash/hexfile"
	"github.com/bassbreaker/pic24flash/protocol"
)

// ImageSource provides byte-addressed access to a firmware image.
// *hexfile.Image satisfies it.
type ImageSource interface {
	// Segments returns the byte ranges present in the image, sorted
	// ascending.
	Segments() []hexfile.Segment
	// Bytes returns length bytes starting at the given byte offset,
	// reading 0xFF for offsets not covered by the image.
	Bytes(start, length uint32) []byte
}

// Chunk is one write-sized slice of the image. Address is in device word
// units, Data in bytes.
type Chunk struct {
	Address uint32
	Data    []byte
}

// MaxDataPacket returns the write payload budget in bytes: the packet size
// left after the command header, rounded down to a multiple of the minimum
// write granularity.
func MaxDataPacket(info protocol.DeviceInfo) int {
	if info.MinWriteSize == 0 {
		return 0
	}
	return (int(info.MaxPacketSize) - protocol.CommandHeaderSize) / int(info.MinWriteSize) * int(info.MinWriteSize)
}

// BuildPlan maps the image onto an ordered, gap-free sequence of full-sized
// write chunks. The image must contain a segment starting exactly at the
// device load address (StartAddress in word units, so twice that as a byte
// offset); otherwise the image targets a different device and planning
// fails with an AlignmentError before anything touches the transport.
//
// The covered word range is rounded up to a whole number of chunks; the
// trailing bytes read back as 0xFF from the image source, so the final
// chunk is full-sized and never strays past valid flash pages.
//
// BuildPlan is pure and deterministic: the same inputs always produce the
// same plan.
func BuildPlan(info protocol.DeviceInfo, image ImageSource) ([]Chunk, error) {
	loadOffset := protocol.WordsToBytes(info.StartAddress)

	lastWord := uint32(0)
	found := false
	for _, seg := range image.Segments() {
		if seg.Start == loadOffset {
			lastWord = protocol.BytesToWords(seg.End)
			found = true
			break
		}
	}
	if !found {
		return nil, &AlignmentError{WantOffset: loadOffset}
	}

	maxData := MaxDataPacket(info)
	if maxData <= 0 {
		return nil, &ValidationError{Op: "plan", Reason: fmt.Sprintf("packet size %d leaves no room for data", info.MaxPacketSize)}
	}
	chunkWords := uint32(maxData) / 2

	if rem := (lastWord - info.StartAddress) % chunkWords; rem != 0 {
		lastWord += chunkWords - rem
	}

	plan := make([]Chunk, 0, (lastWord-info.StartAddress)/chunkWords)
	for addr := info.StartAddress; addr < lastWord; addr += chunkWords {
		plan = append(plan, Chunk{
			Address: addr,
			Data:    image.Bytes(protocol.WordsToBytes(addr), uint32(maxData)),
		})
	}
	return plan, nil
}
