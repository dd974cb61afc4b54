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
// github.com:SymbolNotFound/deltastream/cmd/deltapatch/main.go

// Command deltapatch reconstructs a target file from a source file and a
// PTCH patch.
//
// Usage:
//
//	deltapatch <source> <patch> -o <target>
package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/SymbolNotFound/deltastream"
)

const readChunkSize = 64 * 1024

func main() {
	outPath := flag.StringP("out", "o", "", "path to write the reconstructed target to (required)")
	flag.Parse()

	if flag.NArg() != 2 || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: deltapatch <source> <patch> -o <target>")
		os.Exit(2)
	}

	sourcePath, patchPath := flag.Arg(0), flag.Arg(1)
	if err := run(sourcePath, patchPath, *outPath); err != nil {
		log.Fatal(err)
	}
}

func run(sourcePath, patchPath, outPath string) error {
	c := deltastream.NewConsumer()

	if err := feedFile(sourcePath, func(chunk []byte) error {
		return c.AddSourceChunk(chunk)
	}); err != nil {
		return fmt.Errorf("reading source: %w", err)
	}

	patchBytes, err := os.ReadFile(patchPath)
	if err != nil {
		return fmt.Errorf("reading patch: %w", err)
	}
	c.SetPatch(patchBytes)

	if err := c.ValidateSource(); err != nil {
		return err
	}
	if err := c.Prepare(); err != nil {
		return err
	}

	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		for {
			more, err := c.HasMoreOutput()
			if err != nil {
				pw.CloseWithError(err)
				return
			}
			if !more {
				return
			}
			chunk, err := c.NextOutputChunk(readChunkSize)
			if err != nil {
				pw.CloseWithError(err)
				return
			}
			if _, err := pw.Write(chunk); err != nil {
				return
			}
		}
	}()

	return atomic.WriteFile(outPath, pr)
}

func feedFile(path string, consume func([]byte) error) error {
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
			if cerr := consume(chunk); cerr != nil {
				return cerr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
