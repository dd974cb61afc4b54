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
// github.com:SymbolNotFound/deltastream/blockindex/blockindex.go

// Package blockindex builds and queries the weak-hash -> block-entry map
// used by the streaming matcher to find reusable regions of a source inside
// a target. It accepts source bytes in arbitrary-sized chunks, aligns them
// to the configured block size, and is frozen (read-only) once Finalize is
// called.
package blockindex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/SymbolNotFound/deltastream/contenthash"
	"github.com/SymbolNotFound/deltastream/rollinghash"
)

// Entry describes one aligned block of length BlockSize starting at
// SourceOffset within the source stream.
type Entry struct {
	SourceOffset uint64
	StrongHash   uint64
}

// orderedEntry pairs an Entry with the weak hash it was filed under,
// recorded in insertion (source) order so a serialized index can be
// reloaded with Lookup/VerifiedLookup behaving identically, including the
// earliest-inserted-wins tie-break within a weak-hash bucket.
type orderedEntry struct {
	Weak  uint32
	Entry Entry
}

// Index maps a weak hash to the ordered sequence of blocks that produced it.
// The zero value is not usable; create one with New.
type Index struct {
	blockSize int
	entries   map[uint32][]Entry
	order     []orderedEntry
	tail      []byte
	indexed   uint64
	finalized bool
}

// New creates an empty index for blocks of the given size. blockSize must
// be at least 1.
func New(blockSize int) *Index {
	if blockSize < 1 {
		panic("blockindex: blockSize must be >= 1")
	}
	return &Index{
		blockSize: blockSize,
		entries:   make(map[uint32][]Entry),
	}
}

// BlockSize reports the configured block size.
func (ix *Index) BlockSize() int {
	return ix.blockSize
}

// AddChunk accepts arbitrary-length input, concatenating it with any tail
// retained from previous calls. For every aligned, complete block formed it
// computes the weak and strong hashes and appends an entry in source order.
// Bytes shorter than a full block are retained for the next call.
//
// AddChunk must not be called after Finalize.
func (ix *Index) AddChunk(chunk []byte) {
	if ix.finalized {
		panic("blockindex: AddChunk called after Finalize")
	}
	if len(chunk) == 0 {
		return
	}

	data := chunk
	if len(ix.tail) > 0 {
		data = make([]byte, 0, len(ix.tail)+len(chunk))
		data = append(data, ix.tail...)
		data = append(data, chunk...)
	}

	n := len(data)
	consumed := 0
	for consumed+ix.blockSize <= n {
		block := data[consumed : consumed+ix.blockSize]
		ix.addBlock(block)
		consumed += ix.blockSize
	}

	remaining := n - consumed
	if remaining > 0 {
		tail := make([]byte, remaining)
		copy(tail, data[consumed:])
		ix.tail = tail
	} else {
		ix.tail = nil
	}
}

func (ix *Index) addBlock(block []byte) {
	rh := rollinghash.New(ix.blockSize)
	rh.Seed(block)
	weak := rh.Digest()
	strong := contenthash.Sum(block)

	entry := Entry{
		SourceOffset: ix.indexed,
		StrongHash:   strong,
	}
	ix.entries[weak] = append(ix.entries[weak], entry)
	ix.order = append(ix.order, orderedEntry{Weak: weak, Entry: entry})
	ix.indexed += uint64(ix.blockSize)
}

// Finalize discards any retained tail bytes and freezes the index against
// further mutation. It returns the total number of indexed bytes, always a
// multiple of BlockSize(). Calling AddChunk afterwards is a programming
// error (it panics).
func (ix *Index) Finalize() uint64 {
	ix.tail = nil
	ix.finalized = true
	return ix.indexed
}

// Lookup returns the entries recorded under weak hash h, in insertion
// (source) order. The returned slice must not be mutated by the caller.
func (ix *Index) Lookup(h uint32) []Entry {
	return ix.entries[h]
}

// VerifiedLookup returns the source offset of the first entry under weak
// hash h whose stored strong hash equals the FNV-1a digest of blockBytes,
// and true. If no entry matches, it returns (0, false).
func (ix *Index) VerifiedLookup(h uint32, blockBytes []byte) (uint64, bool) {
	strong := contenthash.Sum(blockBytes)
	for _, e := range ix.entries[h] {
		if e.StrongHash == strong {
			return e.SourceOffset, true
		}
	}
	return 0, false
}

// IndexedSize returns the number of bytes indexed so far (a multiple of
// BlockSize()), usable before Finalize for progress reporting.
func (ix *Index) IndexedSize() uint64 {
	return ix.indexed
}

// cacheMagic identifies an on-disk serialized index; cacheVersion guards
// against a future format change being misread as the current one.
var cacheMagic = [4]byte{'B', 'I', 'D', 'X'}

const cacheVersion = 1

const cacheHeaderSize = 4 + 1 + 4 + 8 + 4
const cacheEntrySize = 4 + 8 + 8

// ErrFormat reports that serialized index bytes are not in the expected
// format (wrong magic, unsupported version, or truncated).
var ErrFormat = errors.New("blockindex: invalid serialized index")

// WriteTo serializes a finalized index, in insertion order, so that
// ReadIndex can reconstruct it with identical Lookup/VerifiedLookup
// behavior. Calling it before Finalize is a programming error (it panics),
// since an in-progress index's tail bytes are not represented.
func (ix *Index) WriteTo(w io.Writer) (int64, error) {
	if !ix.finalized {
		panic("blockindex: WriteTo called before Finalize")
	}

	header := make([]byte, cacheHeaderSize)
	copy(header[0:4], cacheMagic[:])
	header[4] = cacheVersion
	binary.LittleEndian.PutUint32(header[5:9], uint32(ix.blockSize))
	binary.LittleEndian.PutUint64(header[9:17], ix.indexed)
	binary.LittleEndian.PutUint32(header[17:21], uint32(len(ix.order)))

	written, err := w.Write(header)
	n := int64(written)
	if err != nil {
		return n, err
	}

	buf := make([]byte, cacheEntrySize)
	for _, oe := range ix.order {
		binary.LittleEndian.PutUint32(buf[0:4], oe.Weak)
		binary.LittleEndian.PutUint64(buf[4:12], oe.Entry.SourceOffset)
		binary.LittleEndian.PutUint64(buf[12:20], oe.Entry.StrongHash)
		written, err := w.Write(buf)
		n += int64(written)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// ReadIndex deserializes an index previously written by WriteTo. The result
// is already finalized.
func ReadIndex(r io.Reader) (*Index, error) {
	header := make([]byte, cacheHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if string(header[0:4]) != string(cacheMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrFormat)
	}
	if header[4] != cacheVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, header[4])
	}
	blockSize := binary.LittleEndian.Uint32(header[5:9])
	indexed := binary.LittleEndian.Uint64(header[9:17])
	count := binary.LittleEndian.Uint32(header[17:21])

	ix := New(int(blockSize))
	buf := make([]byte, cacheEntrySize)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("%w: truncated entry %d: %v", ErrFormat, i, err)
		}
		entry := orderedEntry{
			Weak: binary.LittleEndian.Uint32(buf[0:4]),
			Entry: Entry{
				SourceOffset: binary.LittleEndian.Uint64(buf[4:12]),
				StrongHash:   binary.LittleEndian.Uint64(buf[12:20]),
			},
		}
		ix.entries[entry.Weak] = append(ix.entries[entry.Weak], entry.Entry)
		ix.order = append(ix.order, entry)
	}
	ix.indexed = indexed
	ix.finalized = true
	return ix, nil
}
