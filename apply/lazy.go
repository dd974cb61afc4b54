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
// github.com:SymbolNotFound/deltastream/apply/lazy.go

package apply

import "github.com/SymbolNotFound/deltastream/patch"

// Lazy scans an instruction stream's positions without copying INSERT
// payload bytes into memory, and emits target bytes in bounded chunks by
// reading source and patch body on demand. Its only mutable state across
// calls is (current instruction index, offset within that instruction), per
// spec §4.6. This is the preferred variant for large files.
type Lazy struct {
	header patch.Header
	body   []byte
	source Source

	refs         []patch.InstructionRef
	totalLength  uint64
	idx          int
	offsetWithin uint64
	emitted      uint64
}

// NewLazy scans the instruction stream (without materializing INSERT data)
// and prepares an applier ready to emit target bytes on demand.
func NewLazy(header patch.Header, body []byte, source Source) (*Lazy, error) {
	var refs []patch.InstructionRef
	var total uint64
	err := patch.ScanInstructions(body, func(ref patch.InstructionRef) error {
		refs = append(refs, ref)
		total += uint64(ref.Length)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Lazy{
		header:      header,
		body:        body,
		source:      source,
		refs:        refs,
		totalLength: total,
	}, nil
}

// HasMore reports whether any instruction remains to be (fully) drained.
func (l *Lazy) HasMore() bool {
	return l.idx < len(l.refs)
}

// Next drains up to maxLen bytes, crossing instruction boundaries as
// needed, and advances the cursor. It returns a TargetSizeMismatch error if
// the last instruction is consumed and the total emitted length does not
// equal the header's target size, and a CopyOutOfBoundsError if a COPY's
// range is not satisfiable by source.
func (l *Lazy) Next(maxLen int) ([]byte, error) {
	if maxLen <= 0 || !l.HasMore() {
		return nil, nil
	}

	var out []byte
	remaining := maxLen
	for remaining > 0 && l.idx < len(l.refs) {
		ref := l.refs[l.idx]
		avail := uint64(ref.Length) - l.offsetWithin
		take := uint64(remaining)
		if take > avail {
			take = avail
		}

		switch ref.Tag {
		case patch.TagCopy:
			if ref.Offset+uint64(ref.Length) > l.header.SourceSize {
				return out, &patch.CopyOutOfBoundsError{
					InstructionIndex: l.idx,
					Offset:           ref.Offset,
					Length:           ref.Length,
					SourceSize:       l.header.SourceSize,
				}
			}
			data, ok := l.source.ReadAt(ref.Offset+l.offsetWithin, take)
			if !ok {
				return out, &patch.CopyOutOfBoundsError{
					InstructionIndex: l.idx,
					Offset:           ref.Offset,
					Length:           ref.Length,
					SourceSize:       l.header.SourceSize,
				}
			}
			out = append(out, data...)
		case patch.TagInsert:
			start := ref.DataOffset + int64(l.offsetWithin)
			out = append(out, l.body[start:start+int64(take)]...)
		}

		l.offsetWithin += take
		remaining -= int(take)
		l.emitted += take

		if l.offsetWithin >= uint64(ref.Length) {
			l.idx++
			l.offsetWithin = 0
		}
	}

	if !l.HasMore() && l.emitted != l.header.TargetSize {
		return out, patch.ErrTargetSizeMismatch
	}
	return out, nil
}

// RemainingOutputSize reports how many target bytes have not yet been
// emitted by Next.
func (l *Lazy) RemainingOutputSize() uint64 {
	return l.totalLength - l.emitted
}

// ExpectedTargetSize is the header's declared target length.
func (l *Lazy) ExpectedTargetSize() uint64 {
	return l.header.TargetSize
}
