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
// github.com:SymbolNotFound/deltastream/cmd/deltabatch/main.go

// Command deltabatch runs several diff or apply jobs described by a YAML
// manifest in one invocation.
//
// Manifest format:
//
//	jobs:
//	  - mode: diff          # or "apply"
//	    source: a.bin
//	    target: b.bin
//	    patch: a-to-b.ptch
//	    block_size: 4096     # optional, diff mode only
//
// Usage:
//
//	deltabatch <manifest.yaml>
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/SymbolNotFound/deltastream"
)

const readChunkSize = 64 * 1024

// Job describes one diff-or-apply step in a batch manifest.
type Job struct {
	Mode      string `yaml:"mode"`
	Source    string `yaml:"source"`
	Target    string `yaml:"target"`
	Patch     string `yaml:"patch"`
	BlockSize int    `yaml:"block_size,omitempty"`
}

// Manifest is the top-level document a batch file must contain.
type Manifest struct {
	Jobs []Job `yaml:"jobs"`
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: deltabatch <manifest.yaml>")
		os.Exit(2)
	}

	manifest, err := loadManifest(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}

	for i, job := range manifest.Jobs {
		if err := runJob(job); err != nil {
			log.Fatalf("job %d (%s %s -> %s): %v", i, job.Mode, job.Source, job.Patch, err)
		}
		fmt.Printf("job %d: %s complete\n", i, job.Mode)
	}
}

func loadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}

func runJob(job Job) error {
	switch job.Mode {
	case "diff":
		return runDiff(job)
	case "apply":
		return runApply(job)
	default:
		return fmt.Errorf("unknown mode %q (want \"diff\" or \"apply\")", job.Mode)
	}
}

func runDiff(job Job) error {
	blockSize := job.BlockSize
	p := deltastream.New(blockSize)

	if err := feedFile(job.Source, p.AddSourceChunk); err != nil {
		return fmt.Errorf("reading source: %w", err)
	}
	p.FinalizeSource()

	info, err := os.Stat(job.Target)
	if err != nil {
		return fmt.Errorf("stat target: %w", err)
	}
	if err := p.SetTargetSize(uint64(info.Size())); err != nil {
		return err
	}

	var applyErr error
	if err := feedFile(job.Target, func(chunk []byte) {
		if applyErr != nil {
			return
		}
		applyErr = p.AddTargetChunk(chunk)
	}); err != nil {
		return fmt.Errorf("reading target: %w", err)
	}
	if applyErr != nil {
		return applyErr
	}
	if err := p.FinalizeTarget(); err != nil {
		return err
	}

	var buf bytes.Buffer
	for p.HasOutput() {
		buf.Write(p.FlushOutput(readChunkSize))
	}
	return atomic.WriteFile(job.Patch, &buf)
}

func runApply(job Job) error {
	c := deltastream.NewConsumer()

	var sourceErr error
	if err := feedFile(job.Source, func(chunk []byte) {
		if sourceErr != nil {
			return
		}
		sourceErr = c.AddSourceChunk(chunk)
	}); err != nil {
		return fmt.Errorf("reading source: %w", err)
	}
	if sourceErr != nil {
		return sourceErr
	}

	patchBytes, err := os.ReadFile(job.Patch)
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

	var buf bytes.Buffer
	for {
		more, err := c.HasMoreOutput()
		if err != nil {
			return err
		}
		if !more {
			break
		}
		chunk, err := c.NextOutputChunk(readChunkSize)
		if err != nil {
			return err
		}
		buf.Write(chunk)
	}
	return atomic.WriteFile(job.Target, &buf)
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
