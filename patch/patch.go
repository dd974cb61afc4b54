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
// github.com:SymbolNotFound/deltastream/patch/patch.go

// Package patch defines the PTCH binary container: a 33-byte header
// followed by a stream of COPY/INSERT instructions, and the errors raised
// when a patch is malformed or inconsistent with the data it targets.
//
//	Header (little-endian, 33 bytes)
//	  magic        4 bytes  "PTCH"
//	  version      1 byte   0x01
//	  chunk_size   4 bytes  block size the patch was built with
//	  source_size  8 bytes  length of the source the patch applies to
//	  source_hash  8 bytes  FNV-1a over the whole source
//	  target_size  8 bytes  expected length of the reconstructed target
//
//	Instructions (concatenated after the header, no terminator)
//	  COPY:   0x01 + offset(u64 LE) + length(u32 LE)
//	  INSERT: 0x02 + length(u32 LE) + length literal bytes
package patch

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic identifies the PTCH format.
var Magic = [4]byte{'P', 'T', 'C', 'H'}

// Version is the only format version this package emits or accepts.
const Version = 0x01

// HeaderSize is the fixed on-wire size of a patch header.
const HeaderSize = 4 + 1 + 4 + 8 + 8 + 8

// Instruction tags.
const (
	TagCopy   = 0x01
	TagInsert = 0x02
)

// DefaultBlockSize is used when a caller does not specify one explicitly.
const DefaultBlockSize = 4096

// Header carries the fields every conforming PTCH v1 patch begins with.
type Header struct {
	ChunkSize  uint32
	SourceSize uint64
	SourceHash uint64
	TargetSize uint64
}

// Encode serializes the header to its fixed 33-byte wire form.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], Magic[:])
	buf[4] = Version
	binary.LittleEndian.PutUint32(buf[5:9], h.ChunkSize)
	binary.LittleEndian.PutUint64(buf[9:17], h.SourceSize)
	binary.LittleEndian.PutUint64(buf[17:25], h.SourceHash)
	binary.LittleEndian.PutUint64(buf[25:33], h.TargetSize)
	return buf
}

// DecodeHeader parses a header from exactly HeaderSize (or more) bytes. It
// only inspects the first HeaderSize bytes.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, got %d", ErrFormat, HeaderSize, len(data))
	}
	if string(data[0:4]) != string(Magic[:]) {
		return Header{}, fmt.Errorf("%w: bad magic bytes", ErrFormat)
	}
	if data[4] != Version {
		return Header{}, fmt.Errorf("%w: unsupported version %d", ErrFormat, data[4])
	}
	return Header{
		ChunkSize:  binary.LittleEndian.Uint32(data[5:9]),
		SourceSize: binary.LittleEndian.Uint64(data[9:17]),
		SourceHash: binary.LittleEndian.Uint64(data[17:25]),
		TargetSize: binary.LittleEndian.Uint64(data[25:33]),
	}, nil
}

// ValidateSource checks a source's measured size and content hash against
// this header's requirements.
func (h Header) ValidateSource(size, hash uint64) error {
	if size != h.SourceSize {
		return &SourceMismatchError{Kind: SizeMismatch, Expected: h.SourceSize, Actual: size}
	}
	if hash != h.SourceHash {
		return &SourceMismatchError{Kind: HashMismatch, Expected: h.SourceHash, Actual: hash}
	}
	return nil
}

// Instruction is either a Copy or an Insert. Exactly one of the two payload
// fields is meaningful, selected by Tag.
type Instruction struct {
	Tag    byte
	Offset uint64 // Copy only
	Length uint32 // Copy: byte count; Insert: len(Data)
	Data   []byte // Insert only
}

// Copy constructs a COPY instruction.
func Copy(offset uint64, length uint32) Instruction {
	if length == 0 {
		panic("patch: COPY length must be > 0")
	}
	return Instruction{Tag: TagCopy, Offset: offset, Length: length}
}

// Insert constructs an INSERT instruction. data is not copied; callers must
// not mutate it afterwards.
func Insert(data []byte) Instruction {
	if len(data) == 0 {
		panic("patch: INSERT data must not be empty")
	}
	return Instruction{Tag: TagInsert, Length: uint32(len(data)), Data: data}
}

// Encode appends the wire encoding of the instruction to dst and returns
// the extended slice.
func (ins Instruction) Encode(dst []byte) []byte {
	switch ins.Tag {
	case TagCopy:
		dst = append(dst, TagCopy)
		var off [8]byte
		binary.LittleEndian.PutUint64(off[:], ins.Offset)
		dst = append(dst, off[:]...)
		var ln [4]byte
		binary.LittleEndian.PutUint32(ln[:], ins.Length)
		dst = append(dst, ln[:]...)
	case TagInsert:
		dst = append(dst, TagInsert)
		var ln [4]byte
		binary.LittleEndian.PutUint32(ln[:], uint32(len(ins.Data)))
		dst = append(dst, ln[:]...)
		dst = append(dst, ins.Data...)
	default:
		panic("patch: unknown instruction tag")
	}
	return dst
}

// Stats summarizes the instruction content of a patch.
type Stats struct {
	CopyCount        int
	CopyBytes        uint64
	InsertCount      int
	InsertBytes      uint64
	InstructionCount int
}

// StatsOf computes Stats over a slice of instructions.
func StatsOf(instructions []Instruction) Stats {
	var s Stats
	for _, ins := range instructions {
		switch ins.Tag {
		case TagCopy:
			s.CopyCount++
			s.CopyBytes += uint64(ins.Length)
		case TagInsert:
			s.InsertCount++
			s.InsertBytes += uint64(ins.Length)
		}
	}
	s.InstructionCount = len(instructions)
	return s
}

// Error kinds, per the spec's error taxonomy.

// ErrFormat marks a framing/encoding defect: bad magic, unsupported
// version, truncated header or instruction body, unknown tag, or an INSERT
// whose declared length overruns the available data.
var ErrFormat = errors.New("patch: format error")

// ErrTargetSizeMismatch indicates the applier's total emitted length did
// not equal the header's TargetSize.
var ErrTargetSizeMismatch = errors.New("patch: target size mismatch")

// MismatchKind distinguishes the two ways source validation can fail.
type MismatchKind int

const (
	SizeMismatch MismatchKind = iota
	HashMismatch
)

// SourceMismatchError reports that the source presented at apply time does
// not match the source the patch was built against.
type SourceMismatchError struct {
	Kind     MismatchKind
	Expected uint64
	Actual   uint64
}

func (e *SourceMismatchError) Error() string {
	switch e.Kind {
	case SizeMismatch:
		return fmt.Sprintf("patch: source size mismatch: expected %d bytes, got %d", e.Expected, e.Actual)
	case HashMismatch:
		return fmt.Sprintf("patch: source hash mismatch: expected %016x, got %016x", e.Expected, e.Actual)
	default:
		return "patch: source mismatch"
	}
}

// CopyOutOfBoundsError reports a COPY instruction whose referenced range
// extends past the end of the source.
type CopyOutOfBoundsError struct {
	InstructionIndex int
	Offset           uint64
	Length           uint32
	SourceSize       uint64
}

func (e *CopyOutOfBoundsError) Error() string {
	return fmt.Sprintf(
		"patch: COPY instruction %d out of bounds: offset=%d length=%d source_size=%d",
		e.InstructionIndex, e.Offset, e.Length, e.SourceSize,
	)
}
