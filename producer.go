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
// github.com:SymbolNotFound/deltastream/producer.go

package deltastream

import (
	"github.com/SymbolNotFound/deltastream/blockindex"
	"github.com/SymbolNotFound/deltastream/contenthash"
	"github.com/SymbolNotFound/deltastream/matcher"
	"github.com/SymbolNotFound/deltastream/patch"
)

// Producer builds a PTCH patch from a source and a target, each fed in
// arbitrary chunk sizes, without holding either whole in memory: the source
// becomes a blockindex.Index (a weak-hash map entry plus an insertion-order
// record per indexed block) and verification
// of a candidate match uses the index's own strong hash rather than a
// byte-for-byte source comparison, keeping peak memory independent of
// source size.
type Producer struct {
	blockSize int

	index           *blockindex.Index
	sourceHash      contenthash.Digest
	sourceHashFixed uint64
	sourceHashSet   bool
	sourceSize      uint64
	sourceFinalized bool

	targetSize uint64
	targetHash contenthash.Digest

	m *matcher.Matcher

	output        []byte
	drainPos      int
	headerWritten bool
	finalized     bool
}

// New creates a producer that will index the source in blocks of blockSize
// bytes. blockSize <= 0 selects patch.DefaultBlockSize.
func New(blockSize int) *Producer {
	if blockSize <= 0 {
		blockSize = patch.DefaultBlockSize
	}
	return &Producer{
		blockSize: blockSize,
		index:     blockindex.New(blockSize),
	}
}

// AddSourceChunk indexes the next slice of source bytes, in source order.
// Calls after FinalizeSource are ignored.
func (p *Producer) AddSourceChunk(data []byte) {
	if p.sourceFinalized {
		return
	}
	p.index.AddChunk(data)
	p.sourceHash.Write(data)
	p.sourceSize += uint64(len(data))
}

// FinalizeSource freezes the source index. No further source chunks are
// accepted. Must be called before SetTargetSize or AddTargetChunk.
func (p *Producer) FinalizeSource() {
	if p.sourceFinalized {
		return
	}
	p.index.Finalize()
	p.sourceFinalized = true
	p.m = matcher.New(p.index, nil)
}

// LoadCachedSource installs an already-built, finalized source index
// together with the exact size and content hash it was built from, in
// place of a AddSourceChunk/FinalizeSource sequence. It exists so a caller
// that persists blockindex.Index between runs (keyed by the source's
// identity) can skip re-reading and re-indexing an unchanged source
// entirely. It must be called instead of, not in addition to,
// AddSourceChunk, and only once, before FinalizeSource would otherwise be
// called.
func (p *Producer) LoadCachedSource(idx *blockindex.Index, sourceSize, sourceHash uint64) error {
	if p.sourceFinalized {
		return &StateError{Op: "LoadCachedSource", Reason: "source already finalized"}
	}
	if idx.BlockSize() != p.blockSize {
		return &StateError{Op: "LoadCachedSource", Reason: "cached index block size does not match producer block size"}
	}
	p.index = idx
	p.sourceSize = sourceSize
	p.sourceHashFixed = sourceHash
	p.sourceHashSet = true
	p.sourceFinalized = true
	p.m = matcher.New(p.index, nil)
	return nil
}

// Index exposes the frozen source block index, so a caller can persist it
// (e.g. to skip re-indexing an unchanged source on a future run via
// LoadCachedSource). Only meaningful after FinalizeSource.
func (p *Producer) Index() *blockindex.Index {
	return p.index
}

// SourceHash returns the source's content hash, so a caller persisting the
// index alongside it (via Index) can validate a cache hit without
// re-reading the source. Only meaningful after FinalizeSource.
func (p *Producer) SourceHash() uint64 {
	return p.currentSourceHash()
}

func (p *Producer) currentSourceHash() uint64 {
	if p.sourceHashSet {
		return p.sourceHashFixed
	}
	return p.sourceHash.Sum64()
}

// SetTargetSize records the total target length for the patch header. It
// must be called before the first AddTargetChunk.
func (p *Producer) SetTargetSize(n uint64) error {
	if p.m == nil {
		return &StateError{Op: "SetTargetSize", Reason: "call FinalizeSource first"}
	}
	p.targetSize = n
	return nil
}

// AddTargetChunk feeds the next slice of target bytes, in target order, and
// may append newly decided COPY/INSERT instructions to the patch output.
func (p *Producer) AddTargetChunk(data []byte) error {
	if p.m == nil {
		return &StateError{Op: "AddTargetChunk", Reason: "call FinalizeSource first"}
	}
	p.targetHash.Write(data)
	before := p.m.InstructionCount()
	p.m.AddTargetChunk(data)
	p.emitSince(before)
	return nil
}

// FinalizeTarget flushes the trailing INSERT (if any) and completes the
// patch. Calling it more than once is a no-op.
func (p *Producer) FinalizeTarget() error {
	if p.m == nil {
		return &StateError{Op: "FinalizeTarget", Reason: "call FinalizeSource first"}
	}
	if p.finalized {
		return nil
	}
	before := p.m.InstructionCount()
	p.m.Finalize()
	p.emitSince(before)
	p.finalized = true
	return nil
}

// emitSince appends the header (once, lazily) and any instructions the
// matcher produced since fromIndex to the output buffer.
func (p *Producer) emitSince(fromIndex int) {
	p.ensureHeader()
	for _, ins := range p.m.Instructions()[fromIndex:] {
		p.output = ins.Encode(p.output)
	}
}

func (p *Producer) ensureHeader() {
	if p.headerWritten {
		return
	}
	header := patch.Header{
		ChunkSize:  uint32(p.blockSize),
		SourceSize: p.sourceSize,
		SourceHash: p.currentSourceHash(),
		TargetSize: p.targetSize,
	}
	p.output = append(p.output, header.Encode()...)
	p.headerWritten = true
}

// InstructionCount reports how many COPY/INSERT instructions have been
// decided so far, useful for CLI progress reporting.
func (p *Producer) InstructionCount() int {
	if p.m == nil {
		return 0
	}
	return p.m.InstructionCount()
}

// HasOutput reports whether any serialized patch bytes are waiting to be
// drained by FlushOutput.
func (p *Producer) HasOutput() bool {
	return p.drainPos < len(p.output)
}

// FlushOutput drains up to maxLen serialized patch bytes. Once every
// buffered byte has been drained, the buffer is released, so serialized
// output is held only until the caller drains it.
func (p *Producer) FlushOutput(maxLen int) []byte {
	if maxLen <= 0 || p.drainPos >= len(p.output) {
		return nil
	}
	end := p.drainPos + maxLen
	if end > len(p.output) {
		end = len(p.output)
	}
	chunk := p.output[p.drainPos:end]
	p.drainPos = end
	if p.drainPos == len(p.output) {
		p.output = nil
		p.drainPos = 0
	}
	return chunk
}

// FilesIdentical reports whether source and target have equal size and
// content hash. It is only accurate once all target data has been
// processed; calling it before FinalizeTarget is a StateError.
func (p *Producer) FilesIdentical() (bool, error) {
	if !p.finalized {
		return false, &StateError{Op: "FilesIdentical", Reason: "call FinalizeTarget first"}
	}
	return p.sourceSize == p.targetSize && p.currentSourceHash() == p.targetHash.Sum64(), nil
}

// Reset returns the producer to its initial state, as if just created with
// the same block size.
func (p *Producer) Reset() {
	*p = *New(p.blockSize)
}
