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
// github.com:SymbolNotFound/deltastream/consumer_test.go

package deltastream

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SymbolNotFound/deltastream/contenthash"
	"github.com/SymbolNotFound/deltastream/patch"
)

type memReader []byte

func (r memReader) ReadAt(offset, length uint64) ([]byte, bool) {
	if offset+length > uint64(len(r)) {
		return nil, false
	}
	return r[offset : offset+length], true
}

func (r memReader) Size() uint64 {
	return uint64(len(r))
}

func (r memReader) ContentHash() uint64 {
	return contenthash.Sum(r)
}

func simplePatch(source, target []byte) []byte {
	header := patch.Header{
		ChunkSize:  4,
		SourceSize: uint64(len(source)),
		SourceHash: contenthash.Sum(source),
		TargetSize: uint64(len(target)),
	}
	out := header.Encode()
	out = patch.Insert(target).Encode(out)
	return out
}

func TestConsumerRoundTripWithRandomSourceReader(t *testing.T) {
	source := []byte("0123456789")
	target := []byte("hello world")

	c := NewConsumer()
	require.NoError(t, c.SetRandomSourceReader(memReader(source)))
	c.SetPatch(simplePatch(source, target))
	require.NoError(t, c.ValidateSource())
	require.NoError(t, c.Prepare())

	var out []byte
	for c.applier.HasMore() {
		chunk, err := c.NextOutputChunk(4)
		require.NoError(t, err)
		out = append(out, chunk...)
	}
	require.Equal(t, target, out)
}

func TestConsumerMixingSourceModelsIsStateError(t *testing.T) {
	c := NewConsumer()
	require.NoError(t, c.AddSourceChunk([]byte("abc")))
	err := c.SetRandomSourceReader(memReader([]byte("abc")))
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestConsumerMixingSourceModelsOtherOrderIsStateError(t *testing.T) {
	c := NewConsumer()
	require.NoError(t, c.SetRandomSourceReader(memReader([]byte("abc"))))
	err := c.AddSourceChunk([]byte("abc"))
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestConsumerValidateSourceDetectsSizeMismatch(t *testing.T) {
	source := []byte("0123456789")
	target := []byte("hello")

	c := NewConsumer()
	require.NoError(t, c.AddSourceChunk([]byte("012345")))
	c.SetPatch(simplePatch(source, target))

	err := c.ValidateSource()
	var mismatch *patch.SourceMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, patch.SizeMismatch, mismatch.Kind)
}

func TestConsumerValidateSourceDetectsHashMismatch(t *testing.T) {
	source := []byte("0123456789")
	target := []byte("hello")
	wrongSource := []byte("9876543210")

	c := NewConsumer()
	require.NoError(t, c.AddSourceChunk(wrongSource))
	c.SetPatch(simplePatch(source, target))

	err := c.ValidateSource()
	var mismatch *patch.SourceMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, patch.HashMismatch, mismatch.Kind)
}

func TestConsumerNextOutputChunkBeforePrepareIsStateError(t *testing.T) {
	c := NewConsumer()
	_, err := c.NextOutputChunk(10)
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestConsumerHasMoreOutputBeforePrepareIsStateError(t *testing.T) {
	c := NewConsumer()
	_, err := c.HasMoreOutput()
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestConsumerValidateSourceBeforeFinalizePatchIsStateError(t *testing.T) {
	c := NewConsumer()
	require.NoError(t, c.AddSourceChunk([]byte("abc")))
	c.AddPatchChunk([]byte("not final yet"))

	err := c.ValidateSource()
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestConsumerValidateSourceWithNoSourceIsStateError(t *testing.T) {
	c := NewConsumer()
	c.SetPatch(simplePatch([]byte("abc"), []byte("xyz")))
	err := c.ValidateSource()
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestConsumerDetectsCopyOutOfBounds(t *testing.T) {
	source := []byte("abcd")
	header := patch.Header{
		ChunkSize:  4,
		SourceSize: uint64(len(source)),
		SourceHash: contenthash.Sum(source),
		TargetSize: 8,
	}
	body := header.Encode()
	body = patch.Copy(0, 8).Encode(body)

	c := NewConsumer()
	require.NoError(t, c.AddSourceChunk(source))
	c.SetPatch(body)
	require.NoError(t, c.ValidateSource())
	require.NoError(t, c.Prepare())

	_, err := c.NextOutputChunk(100)
	var boundsErr *patch.CopyOutOfBoundsError
	require.ErrorAs(t, err, &boundsErr)
}

func TestConsumerExpectedAndRemainingOutputSize(t *testing.T) {
	source := []byte("0123456789")
	target := []byte("hello world")

	c := NewConsumer()
	require.NoError(t, c.AddSourceChunk(source))
	c.SetPatch(simplePatch(source, target))
	require.NoError(t, c.ValidateSource())
	require.NoError(t, c.Prepare())

	expected, err := c.ExpectedTargetSize()
	require.NoError(t, err)
	require.EqualValues(t, len(target), expected)

	remaining, err := c.RemainingOutputSize()
	require.NoError(t, err)
	require.EqualValues(t, len(target), remaining)

	_, err = c.NextOutputChunk(len(target))
	require.NoError(t, err)

	remaining, err = c.RemainingOutputSize()
	require.NoError(t, err)
	require.Zero(t, remaining)
}

func TestConsumerReset(t *testing.T) {
	source := []byte("0123456789")
	target := []byte("hello")

	c := NewConsumer()
	require.NoError(t, c.AddSourceChunk(source))
	c.SetPatch(simplePatch(source, target))
	require.NoError(t, c.ValidateSource())
	require.NoError(t, c.Prepare())

	c.Reset()
	_, err := c.NextOutputChunk(10)
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}
