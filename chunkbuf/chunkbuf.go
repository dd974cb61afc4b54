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
// github.com:SymbolNotFound/deltastream/chunkbuf/chunkbuf.go

// Package chunkbuf provides an append-only list of byte chunks supporting
// cross-chunk random reads, for holding source bytes in memory without a
// single contiguous allocation (useful on hosts with fragmented heaps).
package chunkbuf

// Buffer is an ordered sequence of byte chunks. The zero value is an empty,
// ready-to-use buffer.
type Buffer struct {
	chunks []([]byte)
	size   uint64
}

// Push appends a chunk. The buffer retains the given slice without copying;
// callers must not mutate it afterwards.
func (b *Buffer) Push(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	b.chunks = append(b.chunks, chunk)
	b.size += uint64(len(chunk))
}

// TotalSize returns the number of bytes held across all chunks.
func (b *Buffer) TotalSize() uint64 {
	return b.size
}

// ReadAt returns the length bytes starting at offset, spanning chunk
// boundaries as needed. It returns (nil, false) if offset+length exceeds
// TotalSize().
func (b *Buffer) ReadAt(offset, length uint64) ([]byte, bool) {
	if length == 0 {
		if offset > b.size {
			return nil, false
		}
		return []byte{}, true
	}
	if offset+length > b.size {
		return nil, false
	}

	out := make([]byte, 0, length)
	var pos uint64
	remaining := length
	start := offset

	for _, chunk := range b.chunks {
		chunkLen := uint64(len(chunk))
		if pos+chunkLen <= start {
			pos += chunkLen
			continue
		}

		var chunkStart uint64
		if start > pos {
			chunkStart = start - pos
		}
		available := chunkLen - chunkStart
		take := remaining
		if take > available {
			take = available
		}

		out = append(out, chunk[chunkStart:chunkStart+take]...)
		remaining -= take
		pos += chunkLen
		if remaining == 0 {
			break
		}
	}

	return out, true
}

// Clear discards all chunks, resetting the buffer to empty.
func (b *Buffer) Clear() {
	b.chunks = nil
	b.size = 0
}
