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
// github.com:SymbolNotFound/deltastream/cmd/deltadedup/main.go

// Command deltadedup walks a directory tree and reports files with
// identical content, keyed by the engine's own content hash (C2) rather
// than a cryptographic digest. It does not rewrite or merge files in terms
// of each other; it only reports which paths are byte-identical.
//
// Example usage:
//
//	deltadedup --in-path . --out-file duplicates.jsonl
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/SymbolNotFound/deltastream/contenthash"
	"github.com/SymbolNotFound/deltastream/internal/config"
)

// Signature records a duplicate file's content hash and path.
type Signature struct {
	Content  string `json:"content_hash"`
	Filepath string `json:"file_path"`
}

func main() {
	inPath := flag.String("in-path", ".", "directory to scan for duplicate content")
	outFile := flag.String("out-file", "duplicates.jsonl", "path to write the duplicate report to")
	configPath := flag.String("config", "", "path to a .deltastream.jsonc config file")

	flag.Parse()

	cfg, err := config.Load(*inPath, *configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	fmt.Println("inspecting files under " + *inPath)

	idx := newContentIndex()
	walkErr := filepath.WalkDir(*inPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if isIgnored(entry.Name(), cfg.DedupIgnore) {
			return nil
		}
		return idx.addFile(path)
	})
	if walkErr != nil {
		log.Fatal(walkErr)
	}

	if err := idx.writeReport(*outFile); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("found %d duplicate(s), report written to %s\n", len(idx.duplicates), *outFile)
}

func isIgnored(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// contentIndex tracks the first path seen for each content hash. For every
// subsequent path sharing that hash it appends two signatures to
// duplicates: one for the first-seen path and one for the new path.
type contentIndex struct {
	firstSeen  map[uint64]string
	duplicates []Signature
}

func newContentIndex() *contentIndex {
	return &contentIndex{firstSeen: make(map[uint64]string)}
}

func (idx *contentIndex) addFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var digest contenthash.Digest
	buf := make([]byte, 64*1024)
	r := bufio.NewReader(f)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			digest.Write(buf[:n])
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("reading %s: %w", path, rerr)
		}
	}
	sum := digest.Sum64()

	if original, exists := idx.firstSeen[sum]; exists {
		idx.duplicates = append(idx.duplicates,
			Signature{Content: hashHex(sum), Filepath: original},
			Signature{Content: hashHex(sum), Filepath: path},
		)
		return nil
	}
	idx.firstSeen[sum] = path
	return nil
}

func hashHex(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

func (idx *contentIndex) writeReport(outPath string) error {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	for _, sig := range idx.duplicates {
		line, err := json.Marshal(sig)
		if err != nil {
			return err
		}
		w.Write(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return atomic.WriteFile(outPath, &buf)
}
