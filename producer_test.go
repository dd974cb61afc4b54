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
// github.com:SymbolNotFound/deltastream/producer_test.go

package deltastream

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SymbolNotFound/deltastream/patch"
)

func TestProducerLoadCachedSourceMatchesFreshIndexing(t *testing.T) {
	source := []byte("the quick brown fox jumps over the lazy dog, again and again")
	target := []byte("the quick brown cat jumps over the lazy dog, again and again and again")

	fresh := New(8)
	fresh.AddSourceChunk(source)
	fresh.FinalizeSource()

	cached := New(8)
	require.NoError(t, cached.LoadCachedSource(fresh.Index(), uint64(len(source)), fresh.SourceHash()))

	require.NoError(t, cached.SetTargetSize(uint64(len(target))))
	require.NoError(t, cached.AddTargetChunk(target))
	require.NoError(t, cached.FinalizeTarget())

	require.NoError(t, fresh.SetTargetSize(uint64(len(target))))
	require.NoError(t, fresh.AddTargetChunk(target))
	require.NoError(t, fresh.FinalizeTarget())

	var cachedOut, freshOut []byte
	for cached.HasOutput() {
		cachedOut = append(cachedOut, cached.FlushOutput(7)...)
	}
	for fresh.HasOutput() {
		freshOut = append(freshOut, fresh.FlushOutput(7)...)
	}
	require.Equal(t, freshOut, cachedOut)
}

func TestProducerLoadCachedSourceAfterFinalizeIsStateError(t *testing.T) {
	p := New(8)
	p.AddSourceChunk([]byte("data"))
	p.FinalizeSource()

	err := p.LoadCachedSource(p.Index(), 4, p.SourceHash())
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestProducerLoadCachedSourceBlockSizeMismatchIsStateError(t *testing.T) {
	other := New(4)
	other.AddSourceChunk([]byte("aaaabbbb"))
	other.FinalizeSource()

	p := New(8)
	err := p.LoadCachedSource(other.Index(), 8, other.SourceHash())
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}

func buildPatch(t *testing.T, blockSize int, source, target []byte, sourceChunk, targetChunk int) []byte {
	t.Helper()
	p := New(blockSize)

	for i := 0; i < len(source); i += sourceChunk {
		end := i + sourceChunk
		if end > len(source) {
			end = len(source)
		}
		p.AddSourceChunk(source[i:end])
	}
	p.FinalizeSource()

	require.NoError(t, p.SetTargetSize(uint64(len(target))))
	for i := 0; i < len(target); i += targetChunk {
		end := i + targetChunk
		if end > len(target) {
			end = len(target)
		}
		require.NoError(t, p.AddTargetChunk(target[i:end]))
	}
	require.NoError(t, p.FinalizeTarget())

	var out []byte
	for p.HasOutput() {
		out = append(out, p.FlushOutput(7)...)
	}
	return out
}

func TestProducerRoundTripViaConsumer(t *testing.T) {
	source := []byte("the quick brown fox jumps over the lazy dog, again and again")
	target := []byte("the quick brown cat jumps over the lazy dog, again and again and again")

	patchBytes := buildPatch(t, 8, source, target, 11, 9)

	c := NewConsumer()
	for _, b := range source {
		require.NoError(t, c.AddSourceChunk([]byte{b}))
	}
	c.SetPatch(patchBytes)
	require.NoError(t, c.ValidateSource())
	require.NoError(t, c.Prepare())

	var out []byte
	for {
		more, err := c.HasMoreOutput()
		require.NoError(t, err)
		if !more {
			break
		}
		chunk, err := c.NextOutputChunk(5)
		require.NoError(t, err)
		out = append(out, chunk...)
	}
	require.Equal(t, target, out)
}

func TestProducerIdenticalFiles(t *testing.T) {
	data := []byte("identical payload, repeated for extra block coverage, repeated again")
	p := New(16)
	p.AddSourceChunk(data)
	p.FinalizeSource()
	require.NoError(t, p.SetTargetSize(uint64(len(data))))
	require.NoError(t, p.AddTargetChunk(data))
	require.NoError(t, p.FinalizeTarget())

	identical, err := p.FilesIdentical()
	require.NoError(t, err)
	require.True(t, identical)
}

func TestProducerDifferentSizeNotIdentical(t *testing.T) {
	p := New(8)
	p.AddSourceChunk([]byte("short"))
	p.FinalizeSource()
	require.NoError(t, p.SetTargetSize(10))
	require.NoError(t, p.AddTargetChunk([]byte("longer data")))
	require.NoError(t, p.FinalizeTarget())

	identical, err := p.FilesIdentical()
	require.NoError(t, err)
	require.False(t, identical)
}

func TestProducerFilesIdenticalBeforeFinalizeIsStateError(t *testing.T) {
	p := New(8)
	p.AddSourceChunk([]byte("data"))
	p.FinalizeSource()

	_, err := p.FilesIdentical()
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestProducerSetTargetSizeBeforeFinalizeSourceIsStateError(t *testing.T) {
	p := New(8)
	err := p.SetTargetSize(10)
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestProducerEmitsValidHeader(t *testing.T) {
	source := []byte("0123456789abcdef")
	target := []byte("0123456789abcdeg")

	patchBytes := buildPatch(t, 4, source, target, len(source), len(target))
	header, err := patch.DecodeHeader(patchBytes)
	require.NoError(t, err)
	require.EqualValues(t, len(source), header.SourceSize)
	require.EqualValues(t, len(target), header.TargetSize)
	require.EqualValues(t, 4, header.ChunkSize)
}

func TestProducerReset(t *testing.T) {
	p := New(8)
	p.AddSourceChunk([]byte("data"))
	p.FinalizeSource()
	require.NoError(t, p.SetTargetSize(4))
	require.NoError(t, p.AddTargetChunk([]byte("data")))
	require.NoError(t, p.FinalizeTarget())
	require.True(t, p.HasOutput())

	p.Reset()
	require.False(t, p.HasOutput())
	err := p.SetTargetSize(4)
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}
