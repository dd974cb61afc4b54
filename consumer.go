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
// github.com:SymbolNotFound/deltastream/consumer.go

package deltastream

import (
	"github.com/SymbolNotFound/deltastream/apply"
	"github.com/SymbolNotFound/deltastream/chunkbuf"
	"github.com/SymbolNotFound/deltastream/contenthash"
	"github.com/SymbolNotFound/deltastream/patch"
)

// RandomSourceReader is the interface a host supplies when it wants the
// consumer to read source bytes on demand (e.g. from an already-open file)
// instead of accumulating them through AddSourceChunk. Size and ContentHash
// let ValidateSource check the source against the patch header without the
// consumer having to re-derive them from a full scan.
type RandomSourceReader interface {
	apply.Source
	Size() uint64
	ContentHash() uint64
}

type sourceMode int

const (
	sourceModeNone sourceMode = iota
	sourceModeChunks
	sourceModeReader
)

// Consumer reconstructs a target byte sequence from a source and a patch,
// both of which may be supplied in arbitrary-sized chunks (spec component
// C6, via the apply package). Exactly one source-supply model may be used
// per instance: either AddSourceChunk, or a single SetRandomSourceReader.
type Consumer struct {
	mode      sourceMode
	chunks    chunkbuf.Buffer
	chunkHash contenthash.Digest
	reader    RandomSourceReader

	patchBuf      []byte
	patchFinal    bool
	header        patch.Header
	headerParsed  bool
	sourceChecked bool

	applier *apply.Lazy
}

// NewConsumer creates an empty consumer ready to receive source and patch
// bytes in any order (subject to FinalizePatch happening before Prepare).
func NewConsumer() *Consumer {
	return &Consumer{}
}

// AddSourceChunk accumulates the next slice of source bytes, in source
// order. It is an error to call this after SetRandomSourceReader has been
// used on the same instance.
func (c *Consumer) AddSourceChunk(data []byte) error {
	if c.mode == sourceModeReader {
		return &StateError{Op: "AddSourceChunk", Reason: "a random source reader is already set"}
	}
	c.mode = sourceModeChunks
	c.chunks.Push(data)
	c.chunkHash.Write(data)
	return nil
}

// SetRandomSourceReader installs a host-supplied random-access source. It
// is an error to call this after any AddSourceChunk call, or more than once.
func (c *Consumer) SetRandomSourceReader(r RandomSourceReader) error {
	if c.mode == sourceModeChunks {
		return &StateError{Op: "SetRandomSourceReader", Reason: "source chunks were already added"}
	}
	if c.mode == sourceModeReader {
		return &StateError{Op: "SetRandomSourceReader", Reason: "a random source reader is already set"}
	}
	c.mode = sourceModeReader
	c.reader = r
	return nil
}

// AddPatchChunk accumulates the next slice of serialized patch bytes, in
// patch order. Calls after FinalizePatch are ignored.
func (c *Consumer) AddPatchChunk(data []byte) {
	if c.patchFinal {
		return
	}
	c.patchBuf = append(c.patchBuf, data...)
}

// SetPatch installs the complete serialized patch in one call, equivalent
// to a single AddPatchChunk followed by FinalizePatch.
func (c *Consumer) SetPatch(data []byte) {
	c.patchBuf = append(c.patchBuf[:0], data...)
	c.patchFinal = true
}

// FinalizePatch marks the patch byte stream complete. No further
// AddPatchChunk calls are accepted.
func (c *Consumer) FinalizePatch() {
	c.patchFinal = true
}

func (c *Consumer) sourceSize() uint64 {
	if c.mode == sourceModeReader {
		return c.reader.Size()
	}
	return c.chunks.TotalSize()
}

// sourceHash returns the content hash of whatever source has been supplied
// so far. For chunk-mode sources this is an incremental FNV-1a digest
// updated as each chunk arrives in AddSourceChunk, so it never requires
// materializing the whole source into one contiguous slice (the chunked
// source is kept as separate chunks in chunkbuf.Buffer, whose memory grows
// with the source's total size).
func (c *Consumer) sourceHash() uint64 {
	if c.mode == sourceModeReader {
		return c.reader.ContentHash()
	}
	return c.chunkHash.Sum64()
}

func (c *Consumer) ensureHeader() error {
	if c.headerParsed {
		return nil
	}
	if !c.patchFinal {
		return &StateError{Op: "ValidateSource", Reason: "call FinalizePatch (or SetPatch) first"}
	}
	header, err := patch.DecodeHeader(c.patchBuf)
	if err != nil {
		return err
	}
	c.header = header
	c.headerParsed = true
	return nil
}

// ValidateSource checks the size and content hash of whatever source has
// been supplied so far against the patch header, returning a
// *patch.SourceMismatchError on mismatch. It requires FinalizePatch (or
// SetPatch) to have been called, since the header is what it validates
// against.
func (c *Consumer) ValidateSource() error {
	if c.mode == sourceModeNone {
		return &StateError{Op: "ValidateSource", Reason: "no source supplied"}
	}
	if err := c.ensureHeader(); err != nil {
		return err
	}
	if err := c.header.ValidateSource(c.sourceSize(), c.sourceHash()); err != nil {
		return err
	}
	c.sourceChecked = true
	return nil
}

// Prepare validates the source (if not already done) and readies the
// applier to emit output via NextOutputChunk. It must be called before any
// of HasMoreOutput, NextOutputChunk, ExpectedTargetSize, or
// RemainingOutputSize.
func (c *Consumer) Prepare() error {
	if !c.sourceChecked {
		if err := c.ValidateSource(); err != nil {
			return err
		}
	}

	var src apply.Source
	switch c.mode {
	case sourceModeChunks:
		src = &c.chunks
	case sourceModeReader:
		src = c.reader
	default:
		return &StateError{Op: "Prepare", Reason: "no source supplied"}
	}

	body := c.patchBuf[patch.HeaderSize:]
	applier, err := apply.NewLazy(c.header, body, src)
	if err != nil {
		return err
	}
	c.applier = applier
	return nil
}

// HasMoreOutput reports whether any reconstructed target bytes remain to
// be drained by NextOutputChunk. Calling it before Prepare is a StateError.
func (c *Consumer) HasMoreOutput() (bool, error) {
	if c.applier == nil {
		return false, &StateError{Op: "HasMoreOutput", Reason: "call Prepare first"}
	}
	return c.applier.HasMore(), nil
}

// NextOutputChunk drains up to maxLen reconstructed target bytes, in
// target order. Calling it before Prepare is a StateError.
func (c *Consumer) NextOutputChunk(maxLen int) ([]byte, error) {
	if c.applier == nil {
		return nil, &StateError{Op: "NextOutputChunk", Reason: "call Prepare first"}
	}
	return c.applier.Next(maxLen)
}

// ExpectedTargetSize is the patch header's declared target length. Calling
// it before Prepare is a StateError.
func (c *Consumer) ExpectedTargetSize() (uint64, error) {
	if c.applier == nil {
		return 0, &StateError{Op: "ExpectedTargetSize", Reason: "call Prepare first"}
	}
	return c.applier.ExpectedTargetSize(), nil
}

// RemainingOutputSize reports how many target bytes have not yet been
// emitted by NextOutputChunk. Calling it before Prepare is a StateError.
func (c *Consumer) RemainingOutputSize() (uint64, error) {
	if c.applier == nil {
		return 0, &StateError{Op: "RemainingOutputSize", Reason: "call Prepare first"}
	}
	return c.applier.RemainingOutputSize(), nil
}

// Reset returns the consumer to its initial, empty state.
func (c *Consumer) Reset() {
	*c = *NewConsumer()
}
