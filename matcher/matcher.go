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
// github.com:SymbolNotFound/deltastream/matcher/matcher.go

// Package matcher implements the streaming, greedy, byte-aligned matcher
// that scans a target byte stream against a frozen block index and emits a
// COPY/INSERT instruction stream (spec component C4).
//
// A Matcher never looks back: once bytes fall behind its scan position they
// are never revisited, and two emitted COPYs never target overlapping
// target ranges, by construction of the scan.
package matcher

import (
	"github.com/SymbolNotFound/deltastream/blockindex"
	"github.com/SymbolNotFound/deltastream/patch"
	"github.com/SymbolNotFound/deltastream/rollinghash"
)

// SourceAccessor gives the matcher random byte access to the source being
// indexed, for the cheaper-when-available verification path of a weak-hash
// hit (direct byte comparison instead of recomputing the strong hash).
type SourceAccessor interface {
	ReadAt(offset, length uint64) ([]byte, bool)
}

// Matcher scans target bytes delivered in arbitrary-sized chunks and
// accumulates the COPY/INSERT instructions needed to reconstruct the
// target from the indexed source. The zero value is not usable; create one
// with New.
type Matcher struct {
	index     *blockindex.Index
	blockSize int
	source    SourceAccessor // nil: verify via strong hash instead of byte compare

	buffer  []byte
	pending []byte

	instructions   []patch.Instruction
	bytesProcessed uint64
}

// New creates a matcher over a frozen index. source may be nil, in which
// case weak-hash hits are verified by recomputing the strong hash (the
// index already stores one per entry); when source is non-nil, hits are
// verified with a direct byte comparison against the candidate's source
// block, which is cheaper when source bytes are already resident.
func New(index *blockindex.Index, source SourceAccessor) *Matcher {
	return &Matcher{
		index:     index,
		blockSize: index.BlockSize(),
		source:    source,
	}
}

// AddTargetChunk feeds the next slice of target bytes, in target order. It
// may append zero or more instructions to the matcher's internal list.
func (m *Matcher) AddTargetChunk(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	m.buffer = append(m.buffer, chunk...)
	m.scan()
}

// scan runs the greedy forward pass described in spec §4.4 over the
// currently buffered bytes, leaving at most blockSize-1 plus any bytes that
// could not yet be decided, retained in m.buffer for the next call.
func (m *Matcher) scan() {
	B := m.blockSize
	if len(m.buffer) < B {
		return
	}

	hash := rollinghash.New(B)
	hash.Seed(m.buffer[0:B])

	p := 0
	for p+B <= len(m.buffer) {
		block := m.buffer[p : p+B]
		weak := hash.Digest()

		if offset, ok := m.verify(weak, block); ok {
			m.flushPending()
			m.instructions = append(m.instructions, patch.Copy(offset, uint32(B)))
			m.bytesProcessed += uint64(B)
			p += B

			if p+B <= len(m.buffer) {
				hash.Seed(m.buffer[p : p+B])
			} else {
				break
			}
			continue
		}

		// No verified match at this position: move one byte into the
		// pending INSERT accumulator and roll the hash forward.
		m.pending = append(m.pending, m.buffer[p])
		m.bytesProcessed++
		p++
		if p+B <= len(m.buffer) {
			hash.Roll(m.buffer[p-1], m.buffer[p+B-1])
		}
	}

	m.buffer = append(m.buffer[:0:0], m.buffer[p:]...)
}

// verify checks the candidates at weak hash h against block, returning the
// chosen source offset and true on a verified match. Candidates are tried
// in insertion (source) order and the first verified one wins, per the
// spec's earliest-inserted tie-break.
func (m *Matcher) verify(h uint32, block []byte) (uint64, bool) {
	if m.source != nil {
		for _, e := range m.index.Lookup(h) {
			candidate, ok := m.source.ReadAt(e.SourceOffset, uint64(m.blockSize))
			if !ok {
				continue
			}
			if bytesEqual(candidate, block) {
				return e.SourceOffset, true
			}
		}
		return 0, false
	}
	return m.index.VerifiedLookup(h, block)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (m *Matcher) flushPending() {
	if len(m.pending) == 0 {
		return
	}
	m.instructions = append(m.instructions, patch.Insert(m.pending))
	m.pending = nil
}

// Finalize flushes any remaining buffered and pending bytes as one final
// INSERT and returns the complete instruction list. The matcher must not be
// reused afterwards.
func (m *Matcher) Finalize() []patch.Instruction {
	if len(m.buffer) > 0 {
		m.pending = append(m.pending, m.buffer...)
		m.bytesProcessed += uint64(len(m.buffer))
		m.buffer = nil
	}
	m.flushPending()
	return m.instructions
}

// InstructionCount reports how many instructions have been emitted so far
// (excluding a not-yet-flushed pending INSERT), useful for CLI progress
// reporting.
func (m *Matcher) InstructionCount() int {
	return len(m.instructions)
}

// Instructions returns the instructions flushed so far. A pending INSERT
// run that has not yet been resolved by a match or a call to Finalize is
// not included. Callers must not mutate the returned slice.
func (m *Matcher) Instructions() []patch.Instruction {
	return m.instructions
}

// BytesProcessed reports how many target bytes have been consumed so far,
// whether or not they have produced a flushed instruction yet.
func (m *Matcher) BytesProcessed() uint64 {
	return m.bytesProcessed
}
