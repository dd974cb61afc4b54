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
// github.com:SymbolNotFound/deltastream/internal/cachekey/cachekey.go

// Package cachekey names on-disk cache files for frozen block indexes.
// Building a blockindex.Index over a multi-gigabyte source is the dominant
// cost of repeated deltadiff invocations against the same source; a cache
// entry named by a hash of the source's identity lets a second run against
// an unchanged source skip re-indexing entirely.
package cachekey

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/SymbolNotFound/deltastream/blockindex"
	"github.com/SymbolNotFound/deltastream/sha1"
)

// ForSource computes the cache key for a source file of the given path,
// size, modification time (as a Unix nanosecond timestamp), and block size.
// Any change to these invalidates the cache, since a different block size
// or a modified source produces a different block index.
func ForSource(path string, size int64, modTimeUnixNano int64, blockSize int) string {
	h := sha1.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d\x00%d", path, size, modTimeUnixNano, blockSize)
	return sha1.HexString(h.Hash())
}

// FileName returns the cache file name for a key, suffixed so cache
// directories are self-describing when listed.
func FileName(key string) string {
	return key + ".bidx"
}

// Load reads the cached, finalized block index and source content hash for
// key from cacheDir, if present. A missing cache file is not an error: it
// returns (nil, 0, false, nil), the signal to re-index the source from
// scratch.
func Load(cacheDir, key string) (*blockindex.Index, uint64, bool, error) {
	path := filepath.Join(cacheDir, FileName(key))
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, false, nil
		}
		return nil, 0, false, err
	}
	defer f.Close()

	var hashBuf [8]byte
	if _, err := io.ReadFull(f, hashBuf[:]); err != nil {
		return nil, 0, false, fmt.Errorf("cachekey: reading %s: %w", path, err)
	}
	sourceHash := binary.LittleEndian.Uint64(hashBuf[:])

	idx, err := blockindex.ReadIndex(f)
	if err != nil {
		return nil, 0, false, fmt.Errorf("cachekey: reading %s: %w", path, err)
	}
	return idx, sourceHash, true, nil
}

// Save writes idx and the source content hash it was built from to
// cacheDir under key's file name, creating cacheDir if necessary. A cache
// file is a disposable performance optimization rather than a record that
// must survive a crash, so Save does not write atomically: after a torn
// write, Load reports a read error for that key, which deltadiff treats
// like a miss (it re-indexes the source and overwrites the file).
func Save(cacheDir, key string, idx *blockindex.Index, sourceHash uint64) error {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(cacheDir, FileName(key))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var hashBuf [8]byte
	binary.LittleEndian.PutUint64(hashBuf[:], sourceHash)
	if _, err := f.Write(hashBuf[:]); err != nil {
		return err
	}
	if _, err := idx.WriteTo(f); err != nil {
		return err
	}
	return nil
}
