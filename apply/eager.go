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
// github.com:SymbolNotFound/deltastream/apply/eager.go

package apply

import "github.com/SymbolNotFound/deltastream/patch"

// Eager walks a fully pre-parsed instruction list against an in-memory
// source and materializes the entire target up front, then drains it in
// caller-chosen chunk sizes. Peak memory is O(target_size); prefer Lazy for
// multi-gigabyte targets.
type Eager struct {
	output []byte
	pos    uint64
}

// NewEager builds the complete target buffer, validating every COPY's
// bounds against the header's source size and the total emitted length
// against the header's target size.
func NewEager(header patch.Header, instructions []patch.Instruction, source Source) (*Eager, error) {
	out := make([]byte, 0, header.TargetSize)
	for i, ins := range instructions {
		switch ins.Tag {
		case patch.TagCopy:
			if ins.Offset+uint64(ins.Length) > header.SourceSize {
				return nil, &patch.CopyOutOfBoundsError{
					InstructionIndex: i,
					Offset:           ins.Offset,
					Length:           ins.Length,
					SourceSize:       header.SourceSize,
				}
			}
			data, ok := source.ReadAt(ins.Offset, uint64(ins.Length))
			if !ok {
				return nil, &patch.CopyOutOfBoundsError{
					InstructionIndex: i,
					Offset:           ins.Offset,
					Length:           ins.Length,
					SourceSize:       header.SourceSize,
				}
			}
			out = append(out, data...)
		case patch.TagInsert:
			out = append(out, ins.Data...)
		}
	}
	if uint64(len(out)) != header.TargetSize {
		return nil, patch.ErrTargetSizeMismatch
	}
	return &Eager{output: out}, nil
}

// HasMore reports whether any output bytes remain undrained.
func (e *Eager) HasMore() bool {
	return e.pos < uint64(len(e.output))
}

// Next drains up to maxLen bytes starting from the current position. It
// returns nil once HasMore is false.
func (e *Eager) Next(maxLen int) []byte {
	if maxLen <= 0 || !e.HasMore() {
		return nil
	}
	end := e.pos + uint64(maxLen)
	if end > uint64(len(e.output)) {
		end = uint64(len(e.output))
	}
	chunk := e.output[e.pos:end]
	e.pos = end
	return chunk
}

// Remaining reports how many undrained output bytes remain.
func (e *Eager) Remaining() uint64 {
	return uint64(len(e.output)) - e.pos
}
