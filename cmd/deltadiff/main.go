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
// github.com:SymbolNotFound/deltastream/cmd/deltadiff/main.go

// Command deltadiff computes a PTCH patch that transforms a source file into
// a target file. Building the source's block index is the dominant cost of
// repeated invocations against the same source, so the index is cached
// under the config's cache_dir (see internal/cachekey), keyed by the
// source's path, size, modification time, and block size; a subsequent run
// against an unchanged source skips re-indexing entirely.
//
// Usage:
//
//	deltadiff [--block-size N] [--config path] [--no-cache] <source> <target> -o <patch>
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/SymbolNotFound/deltastream"
	"github.com/SymbolNotFound/deltastream/internal/cachekey"
	"github.com/SymbolNotFound/deltastream/internal/config"
)

const readChunkSize = 64 * 1024

func main() {
	blockSize := flag.Int("block-size", 0, "source block size in bytes (default from config, else 4096)")
	outPath := flag.StringP("out", "o", "", "path to write the patch to (required)")
	configPath := flag.String("config", "", "path to a .deltastream.jsonc config file")
	progress := flag.Bool("progress", false, "print instruction-count progress to stderr")
	noCache := flag.Bool("no-cache", false, "ignore and do not update the source block-index cache")

	flag.Parse()

	if flag.NArg() != 2 || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: deltadiff [--block-size N] [--config path] <source> <target> -o <patch>")
		os.Exit(2)
	}

	cfg, err := config.Load(".", *configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *blockSize <= 0 {
		*blockSize = int(cfg.BlockSize)
	}

	sourcePath, targetPath := flag.Arg(0), flag.Arg(1)

	if err := run(sourcePath, targetPath, *outPath, *blockSize, *progress, cfg.CacheDir, *noCache); err != nil {
		log.Fatal(err)
	}
}

// run indexes sourcePath (reusing a cached block index keyed by the
// source's path, size, modification time, and blockSize when one is
// available and cacheDir is enabled), diffs it against targetPath, and
// writes the resulting patch to outPath.
func run(sourcePath, targetPath, outPath string, blockSize int, progress bool, cacheDir string, noCache bool) error {
	p, err := sourceProducer(sourcePath, blockSize, cacheDir, noCache, progress)
	if err != nil {
		return err
	}

	size, err := fileSize(targetPath)
	if err != nil {
		return fmt.Errorf("stat target: %w", err)
	}
	if err := p.SetTargetSize(size); err != nil {
		return err
	}

	if err := feedFile(targetPath, func(chunk []byte) {
		if err := p.AddTargetChunk(chunk); err != nil {
			log.Fatal(err)
		}
		if progress {
			fmt.Fprintf(os.Stderr, "\rinstructions so far: %d", p.InstructionCount())
		}
	}); err != nil {
		return fmt.Errorf("reading target: %w", err)
	}
	if err := p.FinalizeTarget(); err != nil {
		return err
	}

	identical, err := p.FilesIdentical()
	if err != nil {
		return err
	}
	if identical {
		fmt.Println("source and target are identical")
	}

	var buf bytes.Buffer
	for p.HasOutput() {
		buf.Write(p.FlushOutput(readChunkSize))
	}

	return atomic.WriteFile(outPath, &buf)
}

// sourceProducer returns a Producer whose source index is either loaded
// from cacheDir (a hit against the source's path, size, modification time,
// and blockSize) or built fresh by reading sourcePath, in which case the
// freshly-built index is saved back to cacheDir for next time. A cache
// read or write failure is logged to stderr and otherwise ignored: the
// cache is a performance optimization, never a correctness requirement.
func sourceProducer(sourcePath string, blockSize int, cacheDir string, noCache, progress bool) (*deltastream.Producer, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	key := cachekey.ForSource(sourcePath, info.Size(), info.ModTime().UnixNano(), blockSize)

	if !noCache {
		idx, sourceHash, found, err := cachekey.Load(cacheDir, key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: reading source index cache: %v\n", err)
		} else if found {
			p := deltastream.New(blockSize)
			if err := p.LoadCachedSource(idx, uint64(info.Size()), sourceHash); err != nil {
				fmt.Fprintf(os.Stderr, "warning: cached source index unusable, re-indexing: %v\n", err)
			} else {
				if progress {
					fmt.Fprintln(os.Stderr, "source index loaded from cache")
				}
				return p, nil
			}
		}
	}

	p := deltastream.New(blockSize)
	if err := feedFile(sourcePath, p.AddSourceChunk); err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	p.FinalizeSource()

	if !noCache {
		if err := cachekey.Save(cacheDir, key, p.Index(), p.SourceHash()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: writing source index cache: %v\n", err)
		}
	}
	return p, nil
}

func feedFile(path string, consume func([]byte)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, readChunkSize)
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			consume(chunk)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func fileSize(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}
