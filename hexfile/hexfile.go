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

// Package hexfile parses Intel HEX firmware images (I8HEX and I32HEX) into
// a byte-addressed image. Addresses in this package are always byte
// offsets; the word-unit arithmetic of the device lives in the flasher.
package hexfile

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/arduino/go-paths-helper"
	"golang.org/x/exp/slices"
)

// Intel HEX record types.
const (
	recData              = 0x00
	recEOF               = 0x01
	recExtSegmentAddress = 0x02
	recStartSegment      = 0x03
	recExtLinearAddress  = 0x04
	recStartLinear       = 0x05
)

// Segment is a contiguous byte range present in the image. Start is
// inclusive, End exclusive.
type Segment struct {
	Start uint32
	End   uint32
}

// Len returns the segment length in bytes.
func (s Segment) Len() uint32 { return s.End - s.Start }

type block struct {
	start uint32
	data  []byte
}

func (b block) end() uint32 { return b.start + uint32(len(b.data)) }

// Image is a parsed firmware image.
type Image struct {
	blocks []block
}

// Parse reads an Intel HEX stream and returns the image it describes.
// Record checksums are verified; overlapping data records are rejected.
func Parse(r io.Reader) (*Image, error) {
	img := &Image{}
	base := uint32(0)
	sawEOF := false

	scanner := bufio.NewScanner(r)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if sawEOF {
			return nil, fmt.Errorf("line %d: data after end-of-file record", lineNum)
		}
		rec, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		switch rec.typ {
		case recData:
			img.blocks = append(img.blocks, block{start: base + uint32(rec.address), data: rec.data})
		case recEOF:
			sawEOF = true
		case recExtSegmentAddress:
			if len(rec.data) != 2 {
				return nil, fmt.Errorf("line %d: extended segment address record with %d data bytes", lineNum, len(rec.data))
			}
			base = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) << 4
		case recExtLinearAddress:
			if len(rec.data) != 2 {
				return nil, fmt.Errorf("line %d: extended linear address record with %d data bytes", lineNum, len(rec.data))
			}
			base = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) << 16
		case recStartSegment, recStartLinear:
			// Entry point records are irrelevant for flashing.
		default:
			return nil, fmt.Errorf("line %d: unknown record type 0x%02X", lineNum, rec.typ)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !sawEOF {
		return nil, fmt.Errorf("missing end-of-file record")
	}

	if err := img.normalize(); err != nil {
		return nil, err
	}
	return img, nil
}

// ParseFile parses the Intel HEX file at the given path.
func ParseFile(path *paths.Path) (*Image, error) {
	file, err := path.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

type record struct {
	typ     byte
	address uint16
	data    []byte
}

func parseRecord(line string) (record, error) {
	if line[0] != ':' {
		return record{}, fmt.Errorf("missing record mark")
	}
	raw, err := hex.DecodeString(line[1:])
	if err != nil {
		return record{}, fmt.Errorf("invalid hex digits: %w", err)
	}
	// count + address + type + checksum
	if len(raw) < 5 {
		return record{}, fmt.Errorf("record too short: %d bytes", len(raw))
	}
	count := int(raw[0])
	if len(raw) != 5+count {
		return record{}, fmt.Errorf("record length mismatch: count says %d data bytes, record has %d", count, len(raw)-5)
	}
	sum := byte(0)
	for _, b := range raw {
		sum += b
	}
	if sum != 0 {
		return record{}, fmt.Errorf("checksum mismatch")
	}
	return record{
		typ:     raw[3],
		address: uint16(raw[1])<<8 | uint16(raw[2]),
		data:    raw[4 : 4+count],
	}, nil
}

// normalize sorts the blocks by address and merges the contiguous ones, so
// Segments reports each loadable range exactly once.
func (img *Image) normalize() error {
	if len(img.blocks) == 0 {
		return nil
	}
	slices.SortFunc(img.blocks, func(a, b block) bool { return a.start < b.start })

	merged := img.blocks[:1]
	for _, b := range img.blocks[1:] {
		last := &merged[len(merged)-1]
		switch {
		case b.start < last.end():
			return fmt.Errorf("overlapping data at byte offset 0x%X", b.start)
		case b.start == last.end():
			last.data = append(last.data, b.data...)
		default:
			merged = append(merged, b)
		}
	}
	img.blocks = merged
	return nil
}

// Segments returns the byte ranges present in the image, sorted ascending.
func (img *Image) Segments() []Segment {
	segs := make([]Segment, len(img.blocks))
	for i, b := range img.blocks {
		segs[i] = Segment{Start: b.start, End: b.end()}
	}
	return segs
}

// Bytes returns length bytes starting at the given byte offset. Offsets not
// covered by any data record read as 0xFF, the erased flash value, so
// callers can over-read past the end of a segment to pad a write.
func (img *Image) Bytes(start, length uint32) []byte {
	out := make([]byte, length)
	for i := range out {
		out[i] = 0xFF
	}
	end := start + length
	for _, b := range img.blocks {
		if b.end() <= start || b.start >= end {
			continue
		}
		from := b.start
		if from < start {
			from = start
		}
		to := b.end()
		if to > end {
			to = end
		}
		copy(out[from-start:to-start], b.data[from-b.start:to-b.start])
	}
	return out
}
