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
// github.com:SymbolNotFound/deltastream/internal/fixture/parallel.go

package fixture

// Parallel generates n independent byte slices of the given size
// concurrently, one goroutine per slice, each drawing from its own Source
// seeded from seedBase and its own index so the result is reproducible
// regardless of goroutine scheduling order. This keeps multi-megabyte
// property-test fixtures (P3/P4) fast without contending on one generator,
// mirroring the teacher's channel-based fan-out for concurrent draws but
// with one generator per goroutine instead of one shared across all of
// them, since a Source has mutable, non-reentrant state.
func Parallel(n int, seedBase uint64, size int) [][]byte {
	type result struct {
		index int
		bytes []byte
	}

	results := make(chan result, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			results <- result{i, NewSeeded(seedBase, uint64(i)).Bytes(size)}
		}(i)
	}

	out := make([][]byte, n)
	for i := 0; i < n; i++ {
		r := <-results
		out[r.index] = r.bytes
	}
	return out
}
