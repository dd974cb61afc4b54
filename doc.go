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
// github.com:SymbolNotFound/deltastream/doc.go

// Package deltastream computes and applies streaming binary deltas between
// a source and a target byte sequence. Producing a patch needs O(block size)
// scratch memory plus an O(source size / block size) index, and holds
// neither file whole. Applying a patch emits the target in caller-sized
// chunks without materializing it; the Consumer does hold the complete
// patch and, when the source is fed through AddSourceChunk, every source
// byte (kept as separate chunks).
//
// Producer builds a patch from a source and a target, both fed in arbitrary
// chunk sizes. Consumer reconstructs a target from a source and a patch,
// likewise chunked. Neither type is safe for concurrent use: each instance
// is a single cooperative state machine, matching the concurrency model of
// its building blocks in rollinghash, contenthash, blockindex, matcher,
// patch, and apply.
package deltastream
