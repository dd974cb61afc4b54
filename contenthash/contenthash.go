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
// github.com:SymbolNotFound/deltastream/contenthash/contenthash.go

// Package contenthash computes the 64-bit FNV-1a digest used both as the
// patch's source-integrity check and, optionally, as the strong hash stored
// in a block index entry. It is not a cryptographic primitive: a mismatch
// reliably signals "wrong source file", not tampering.
package contenthash

// FNV-1a 64-bit constants.
const (
	Offset uint64 = 0xcbf29ce484222325
	Prime  uint64 = 0x100000001b3
)

// Sum returns the FNV-1a 64-bit digest of data in a single call.
func Sum(data []byte) uint64 {
	var d Digest
	d.Write(data)
	return d.Sum64()
}

// Digest is an incremental FNV-1a 64-bit hasher. The zero value is ready to
// use and starts from the FNV offset basis. Feeding data in one call or many
// smaller calls produces the same final digest (P2).
type Digest struct {
	hash    uint64
	started bool
}

// Write folds data into the running hash. It never returns an error.
func (d *Digest) Write(data []byte) (int, error) {
	if !d.started {
		d.hash = Offset
		d.started = true
	}
	h := d.hash
	for _, b := range data {
		h ^= uint64(b)
		h *= Prime
	}
	d.hash = h
	return len(data), nil
}

// Sum64 returns the digest of all bytes written so far without resetting
// the hasher's state.
func (d *Digest) Sum64() uint64 {
	if !d.started {
		return Offset
	}
	return d.hash
}

// Reset returns the hasher to its initial state.
func (d *Digest) Reset() {
	d.hash = 0
	d.started = false
}
