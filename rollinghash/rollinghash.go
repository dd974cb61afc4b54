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
// github.com:SymbolNotFound/deltastream/rollinghash/rollinghash.go

// Package rollinghash implements the Adler-style rolling weak hash used to
// find candidate block matches between a source and a target byte stream.
//
// The hash is seeded over a full window of W bytes and then advanced one
// byte at a time in O(1), removing the oldest byte and admitting a new one.
// Seeding directly over a window always agrees with seeding once and rolling
// forward byte-by-byte (see the identity tested in rollinghash_test.go).
package rollinghash

// Modulus for the two running sums, matching the classic Adler-32 construction.
const Modulus = 65521

// Hash is a window-sized rolling hash. The zero value is not usable; create
// one with New.
type Hash struct {
	window int
	a, b   uint32
}

// New creates a rolling hash for a window of the given size. window must be
// at least 1.
func New(window int) *Hash {
	if window < 1 {
		panic("rollinghash: window must be >= 1")
	}
	return &Hash{window: window}
}

// Window reports the configured window size.
func (h *Hash) Window() int {
	return h.window
}

// Seed resets the hash state and computes it from scratch over a full
// window of bytes. len(window) must equal h.Window().
func (h *Hash) Seed(window []byte) {
	if len(window) != h.window {
		panic("rollinghash: Seed requires exactly Window() bytes")
	}
	var a, b uint32
	n := uint32(h.window)
	for i, d := range window {
		a = (a + uint32(d)) % Modulus
		b = (b + (n-uint32(i))*uint32(d)) % Modulus
	}
	h.a, h.b = a, b
}

// Roll advances the window by one byte: old leaves the window (from its
// front) and newByte enters (at its back). The result is identical to
// calling Seed on the shifted window.
func (h *Hash) Roll(old, newByte byte) {
	n := uint32(h.window)
	// a' = a - old + new  (mod M, keeping the intermediate non-negative)
	h.a = (h.a + Modulus - uint32(old) + uint32(newByte)) % Modulus
	// b' = b - W*old + a'  (mod M)
	h.b = (h.b + Modulus - (n*uint32(old))%Modulus + h.a) % Modulus
}

// Digest returns the current 32-bit weak hash value.
func (h *Hash) Digest() uint32 {
	return (h.b << 16) | h.a
}
