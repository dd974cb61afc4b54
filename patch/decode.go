// Copyright (c) 2024 Symbol Not Found LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// github.com:SymbolNotFound/deltastream/patch/decode.go

package patch

import (
	"encoding/binary"
	"fmt"
)

// InstructionRef describes where one instruction's data lives within a
// patch body byte range, without copying INSERT payload bytes. It is what
// a lazy applier (C6) records while scanning instructions.
type InstructionRef struct {
	Tag    byte
	Offset uint64 // Copy: source offset
	Length uint32 // byte count to emit
	// DataOffset is the byte offset within the patch body where an INSERT's
	// literal payload begins. Unused for Copy.
	DataOffset int64
}

// ScanInstructions walks the complete instruction byte stream (everything
// in a patch after the 33-byte header) and invokes fn once per instruction
// with a reference to its position, never materializing INSERT payload
// bytes into memory. body must contain the entire instruction stream; use
// this for the lazy applier's random-access body reader.
func ScanInstructions(body []byte, fn func(InstructionRef) error) error {
	pos := int64(0)
	n := int64(len(body))
	for pos < n {
		tag := body[pos]
		switch tag {
		case TagCopy:
			if pos+1+8+4 > n {
				return fmt.Errorf("%w: truncated COPY instruction at %d", ErrFormat, pos)
			}
			offset := binary.LittleEndian.Uint64(body[pos+1 : pos+9])
			length := binary.LittleEndian.Uint32(body[pos+9 : pos+13])
			if length == 0 {
				return fmt.Errorf("%w: COPY with zero length at %d", ErrFormat, pos)
			}
			if err := fn(InstructionRef{Tag: TagCopy, Offset: offset, Length: length}); err != nil {
				return err
			}
			pos += 1 + 8 + 4
		case TagInsert:
			if pos+1+4 > n {
				return fmt.Errorf("%w: truncated INSERT instruction at %d", ErrFormat, pos)
			}
			length := binary.LittleEndian.Uint32(body[pos+1 : pos+5])
			if length == 0 {
				return fmt.Errorf("%w: INSERT with zero length at %d", ErrFormat, pos)
			}
			dataOffset := pos + 5
			if dataOffset+int64(length) > n {
				return fmt.Errorf("%w: INSERT length overruns patch body at %d", ErrFormat, pos)
			}
			if err := fn(InstructionRef{Tag: TagInsert, Length: length, DataOffset: dataOffset}); err != nil {
				return err
			}
			pos = dataOffset + int64(length)
		default:
			return fmt.Errorf("%w: unknown instruction tag 0x%02x at %d", ErrFormat, tag, pos)
		}
	}
	return nil
}

// DecodeInstructions fully decodes a complete instruction byte stream into
// a slice, copying INSERT payload bytes. This is the eager, in-memory
// decoding path; large patches should prefer ScanInstructions.
func DecodeInstructions(body []byte) ([]Instruction, error) {
	var out []Instruction
	err := ScanInstructions(body, func(ref InstructionRef) error {
		switch ref.Tag {
		case TagCopy:
			out = append(out, Copy(ref.Offset, ref.Length))
		case TagInsert:
			data := make([]byte, ref.Length)
			copy(data, body[ref.DataOffset:ref.DataOffset+int64(ref.Length)])
			out = append(out, Insert(data))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
