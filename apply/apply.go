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
// github.com:SymbolNotFound/deltastream/apply/apply.go

// Package apply reconstructs a target byte sequence from a patch header, its
// instruction stream, and a source (spec component C6). Two variants share
// the same contract but different memory profiles: Eager parses the whole
// instruction list and source up front and produces the target as one
// buffer; Lazy scans instruction positions without copying INSERT payloads
// and reads source/patch bytes on demand, for bounded memory on large files.
package apply

// Source gives an applier random-access byte reads into the content a patch
// was built against. chunkbuf.Buffer and any in-memory slice wrapper satisfy
// this trivially; a file-backed implementation is free to seek.
type Source interface {
	ReadAt(offset, length uint64) ([]byte, bool)
}
