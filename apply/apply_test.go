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
// github.com:SymbolNotFound/deltastream/apply/apply_test.go

package apply

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SymbolNotFound/deltastream/contenthash"
	"github.com/SymbolNotFound/deltastream/patch"
)

type memSource []byte

func (s memSource) ReadAt(offset, length uint64) ([]byte, bool) {
	if offset+length > uint64(len(s)) {
		return nil, false
	}
	return s[offset : offset+length], true
}

func headerFor(source, target []byte) patch.Header {
	return patch.Header{
		ChunkSize:  4096,
		SourceSize: uint64(len(source)),
		SourceHash: contenthash.Sum(source),
		TargetSize: uint64(len(target)),
	}
}

func drainEager(t *testing.T, e *Eager, chunkSize int) []byte {
	t.Helper()
	var out []byte
	for e.HasMore() {
		out = append(out, e.Next(chunkSize)...)
	}
	return out
}

func drainLazy(t *testing.T, l *Lazy, chunkSize int) []byte {
	t.Helper()
	var out []byte
	for l.HasMore() {
		chunk, err := l.Next(chunkSize)
		require.NoError(t, err)
		out = append(out, chunk...)
	}
	return out
}

func TestEagerRoundTrip(t *testing.T) {
	source := []byte("aaaabbbbccccdddd")
	target := []byte("xxxxbbbbyyyycccc")
	instructions := []patch.Instruction{
		patch.Insert([]byte("xxxx")),
		patch.Copy(4, 4),
		patch.Insert([]byte("yyyy")),
		patch.Copy(8, 4),
	}

	e, err := NewEager(headerFor(source, target), instructions, memSource(source))
	require.NoError(t, err)

	out := drainEager(t, e, 3)
	require.Equal(t, target, out)
}

func TestLazyRoundTrip(t *testing.T) {
	source := []byte("aaaabbbbccccdddd")
	target := []byte("xxxxbbbbyyyycccc")
	var body []byte
	body = patch.Insert([]byte("xxxx")).Encode(body)
	body = patch.Copy(4, 4).Encode(body)
	body = patch.Insert([]byte("yyyy")).Encode(body)
	body = patch.Copy(8, 4).Encode(body)

	l, err := NewLazy(headerFor(source, target), body, memSource(source))
	require.NoError(t, err)
	require.EqualValues(t, len(target), l.ExpectedTargetSize())
	require.EqualValues(t, len(target), l.RemainingOutputSize())

	out := drainLazy(t, l, 3)
	require.Equal(t, target, out)
	require.Zero(t, l.RemainingOutputSize())
}

func TestLazyChunkBoundariesCrossInstructions(t *testing.T) {
	source := []byte("aaaabbbb")
	target := []byte("aaaabbbb")
	var body []byte
	body = patch.Copy(0, 4).Encode(body)
	body = patch.Copy(4, 4).Encode(body)

	l, err := NewLazy(headerFor(source, target), body, memSource(source))
	require.NoError(t, err)

	// A single large drain should cross both instructions in one call.
	out, err := l.Next(100)
	require.NoError(t, err)
	require.Equal(t, target, out)
	require.False(t, l.HasMore())
}

func TestEagerDetectsCopyOutOfBounds(t *testing.T) {
	source := []byte("aaaa")
	instructions := []patch.Instruction{patch.Copy(0, 8)}
	header := patch.Header{SourceSize: uint64(len(source)), TargetSize: 8}

	_, err := NewEager(header, instructions, memSource(source))
	var boundsErr *patch.CopyOutOfBoundsError
	require.ErrorAs(t, err, &boundsErr)
}

func TestLazyDetectsCopyOutOfBounds(t *testing.T) {
	source := []byte("aaaa")
	var body []byte
	body = patch.Copy(0, 8).Encode(body)
	header := patch.Header{SourceSize: uint64(len(source)), TargetSize: 8}

	l, err := NewLazy(header, body, memSource(source))
	require.NoError(t, err)

	_, err = l.Next(100)
	var boundsErr *patch.CopyOutOfBoundsError
	require.ErrorAs(t, err, &boundsErr)
}

func TestEagerDetectsTargetSizeMismatch(t *testing.T) {
	source := []byte("aaaabbbb")
	instructions := []patch.Instruction{patch.Copy(0, 4)}
	header := patch.Header{SourceSize: uint64(len(source)), TargetSize: 100}

	_, err := NewEager(header, instructions, memSource(source))
	require.ErrorIs(t, err, patch.ErrTargetSizeMismatch)
}

func TestLazyDetectsTargetSizeMismatch(t *testing.T) {
	source := []byte("aaaabbbb")
	var body []byte
	body = patch.Copy(0, 4).Encode(body)
	header := patch.Header{SourceSize: uint64(len(source)), TargetSize: 100}

	l, err := NewLazy(header, body, memSource(source))
	require.NoError(t, err)

	_, err = l.Next(100)
	require.ErrorIs(t, err, patch.ErrTargetSizeMismatch)
}

func TestEagerEmptyTarget(t *testing.T) {
	source := []byte("aaaa")
	header := patch.Header{SourceSize: uint64(len(source)), TargetSize: 0}

	e, err := NewEager(header, nil, memSource(source))
	require.NoError(t, err)
	require.False(t, e.HasMore())
}

func TestLazyEmptyTarget(t *testing.T) {
	source := []byte("aaaa")
	header := patch.Header{SourceSize: uint64(len(source)), TargetSize: 0}

	l, err := NewLazy(header, nil, memSource(source))
	require.NoError(t, err)
	require.False(t, l.HasMore())
}
