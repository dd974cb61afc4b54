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
// github.com:SymbolNotFound/deltastream/patch/patch_test.go

package patch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{ChunkSize: 4096, SourceSize: 12345, SourceHash: 0xDEADBEEF, TargetSize: 67890}
	encoded := h.Encode()
	require.Len(t, encoded, HeaderSize)
	require.Equal(t, "PTCH", string(encoded[0:4]))
	require.Equal(t, byte(Version), encoded[4])

	decoded, err := DecodeHeader(encoded)
	require.NoError(t, err)
	if diff := cmp.Diff(h, decoded); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeHeaderRejectsBadMagic(t *testing.T) {
	data := append([]byte("BADM"), make([]byte, HeaderSize-4)...)
	_, err := DecodeHeader(data)
	require.ErrorIs(t, err, ErrFormat)
}

func TestDecodeHeaderRejectsBadVersion(t *testing.T) {
	data := make([]byte, HeaderSize)
	copy(data[0:4], Magic[:])
	data[4] = 0x99
	_, err := DecodeHeader(data)
	require.ErrorIs(t, err, ErrFormat)
}

func TestDecodeHeaderRejectsTooSmall(t *testing.T) {
	_, err := DecodeHeader(make([]byte, 10))
	require.ErrorIs(t, err, ErrFormat)
}

func TestValidateSourceSuccess(t *testing.T) {
	h := Header{ChunkSize: 4096, SourceSize: 100, SourceHash: 0xABCD, TargetSize: 200}
	require.NoError(t, h.ValidateSource(100, 0xABCD))
}

func TestValidateSourceSizeMismatch(t *testing.T) {
	h := Header{SourceSize: 100, SourceHash: 0xABCD}
	err := h.ValidateSource(50, 0xABCD)
	var mismatch *SourceMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, SizeMismatch, mismatch.Kind)
	require.EqualValues(t, 100, mismatch.Expected)
	require.EqualValues(t, 50, mismatch.Actual)
}

func TestValidateSourceHashMismatch(t *testing.T) {
	h := Header{SourceSize: 100, SourceHash: 0xABCD}
	err := h.ValidateSource(100, 0x1234)
	var mismatch *SourceMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, HashMismatch, mismatch.Kind)
}

func TestInstructionEncodeCopy(t *testing.T) {
	ins := Copy(42, 8)
	encoded := ins.Encode(nil)
	require.Equal(t, byte(TagCopy), encoded[0])

	decoded, err := DecodeInstructions(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	require.Equal(t, ins, decoded[0])
}

func TestInstructionEncodeInsert(t *testing.T) {
	ins := Insert([]byte("hello"))
	encoded := ins.Encode(nil)
	require.Equal(t, byte(TagInsert), encoded[0])

	decoded, err := DecodeInstructions(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	require.Equal(t, ins.Data, decoded[0].Data)
}

func TestCopyPanicsOnZeroLength(t *testing.T) {
	require.Panics(t, func() { Copy(0, 0) })
}

func TestInsertPanicsOnEmptyData(t *testing.T) {
	require.Panics(t, func() { Insert(nil) })
}

func TestDecodeInstructionsRejectsUnknownTag(t *testing.T) {
	_, err := DecodeInstructions([]byte{0xFF, 0x00})
	require.ErrorIs(t, err, ErrFormat)
}

func TestDecodeInstructionsRejectsTruncatedCopy(t *testing.T) {
	_, err := DecodeInstructions([]byte{TagCopy, 0x00, 0x00})
	require.ErrorIs(t, err, ErrFormat)
}

func TestDecodeInstructionsRejectsInsertOverrun(t *testing.T) {
	body := []byte{TagInsert, 10, 0, 0, 0, 'h', 'i'} // declares 10 bytes, has 2
	_, err := DecodeInstructions(body)
	require.ErrorIs(t, err, ErrFormat)
}

func TestStatsOf(t *testing.T) {
	instructions := []Instruction{
		Copy(0, 4),
		Insert([]byte("NEWW")),
		Copy(8, 4),
	}
	stats := StatsOf(instructions)
	require.Equal(t, 2, stats.CopyCount)
	require.EqualValues(t, 8, stats.CopyBytes)
	require.Equal(t, 1, stats.InsertCount)
	require.EqualValues(t, 4, stats.InsertBytes)
	require.Equal(t, 3, stats.InstructionCount)
}

func TestScanInstructionsMultiple(t *testing.T) {
	var body []byte
	body = Copy(0, 4).Encode(body)
	body = Insert([]byte("NEWW")).Encode(body)
	body = Copy(8, 4).Encode(body)

	var refs []InstructionRef
	err := ScanInstructions(body, func(ref InstructionRef) error {
		refs = append(refs, ref)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, refs, 3)
	require.Equal(t, byte(TagCopy), refs[0].Tag)
	require.Equal(t, byte(TagInsert), refs[1].Tag)
	require.Equal(t, byte(TagCopy), refs[2].Tag)
	require.EqualValues(t, 4, refs[1].Length)
}
