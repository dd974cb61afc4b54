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
// github.com:SymbolNotFound/deltastream/cmd/deltainspect/main.go

// Command deltainspect is an interactive REPL for stepping through a PTCH
// patch's instruction stream without reconstructing the target it encodes.
//
// Commands:
//
//	next             Show the next instruction and advance
//	prev             Show the previous instruction and step back
//	goto N           Jump to instruction N (0-indexed)
//	stats            Summarize COPY/INSERT counts and byte totals
//	header           Show the patch header fields
//	help             Show this help
//	exit / quit / q  Exit
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/SymbolNotFound/deltastream/patch"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: deltainspect <patch-file>")
		os.Exit(2)
	}

	insp, err := open(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	insp.run()
}

// inspector holds a fully-loaded patch body so REPL commands can jump
// around its instruction table freely; it never decodes INSERT payload
// bytes into an Instruction slice, reusing patch.ScanInstructions (the same
// scan the lazy applier uses) to keep references lightweight.
type inspector struct {
	path   string
	header patch.Header
	body   []byte
	refs   []patch.InstructionRef
	cursor int
	liner  *liner.State
}

func open(path string) (*inspector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	header, err := patch.DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	body := data[patch.HeaderSize:]

	var refs []patch.InstructionRef
	if err := patch.ScanInstructions(body, func(ref patch.InstructionRef) error {
		refs = append(refs, ref)
		return nil
	}); err != nil {
		return nil, err
	}

	return &inspector{path: path, header: header, body: body, refs: refs}, nil
}

func (insp *inspector) run() {
	insp.liner = liner.NewLiner()
	defer insp.liner.Close()
	insp.liner.SetCtrlCAborts(true)

	fmt.Printf("deltainspect - %s (%d instructions)\n", filepath.Base(insp.path), len(insp.refs))
	fmt.Println("Type 'help' for available commands.")

	for {
		line, err := insp.liner.Prompt("deltainspect> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				return
			}
			fmt.Fprintf(os.Stderr, "error reading input: %v\n", err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		insp.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			return
		case "help", "?":
			insp.printHelp()
		case "next", "n":
			insp.next()
		case "prev", "p":
			insp.prev()
		case "goto", "g":
			insp.goTo(args)
		case "stats":
			insp.stats()
		case "header", "info":
			insp.printHeader()
		default:
			fmt.Printf("unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (insp *inspector) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  next             Show the next instruction and advance")
	fmt.Println("  prev             Show the previous instruction and step back")
	fmt.Println("  goto N           Jump to instruction N (0-indexed)")
	fmt.Println("  stats            Summarize COPY/INSERT counts and byte totals")
	fmt.Println("  header           Show the patch header fields")
	fmt.Println("  help             Show this help")
	fmt.Println("  exit / quit / q  Exit")
}

func (insp *inspector) printHeader() {
	fmt.Printf("chunk_size:  %d\n", insp.header.ChunkSize)
	fmt.Printf("source_size: %d\n", insp.header.SourceSize)
	fmt.Printf("source_hash: %016x\n", insp.header.SourceHash)
	fmt.Printf("target_size: %d\n", insp.header.TargetSize)
	fmt.Printf("instructions: %d\n", len(insp.refs))
}

func (insp *inspector) next() {
	if insp.cursor >= len(insp.refs) {
		fmt.Println("(end of instruction stream)")
		return
	}
	insp.printRef(insp.cursor)
	insp.cursor++
}

func (insp *inspector) prev() {
	if insp.cursor == 0 {
		fmt.Println("(already at the start)")
		return
	}
	insp.cursor--
	insp.printRef(insp.cursor)
}

func (insp *inspector) goTo(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: goto N")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 || n >= len(insp.refs) {
		fmt.Printf("instruction index must be between 0 and %d\n", len(insp.refs)-1)
		return
	}
	insp.cursor = n
	insp.printRef(insp.cursor)
}

func (insp *inspector) printRef(i int) {
	ref := insp.refs[i]
	switch ref.Tag {
	case patch.TagCopy:
		fmt.Printf("[%d] COPY  offset=%d length=%d\n", i, ref.Offset, ref.Length)
	case patch.TagInsert:
		preview := insp.body[ref.DataOffset:]
		if uint32(len(preview)) > ref.Length {
			preview = preview[:ref.Length]
		}
		fmt.Printf("[%d] INSERT length=%d preview=%q\n", i, ref.Length, previewString(preview))
	}
}

func previewString(data []byte) string {
	const maxPreview = 32
	if len(data) > maxPreview {
		return string(data[:maxPreview]) + "..."
	}
	return string(data)
}

func (insp *inspector) stats() {
	instructions := make([]patch.Instruction, len(insp.refs))
	for i, ref := range insp.refs {
		instructions[i] = patch.Instruction{Tag: ref.Tag, Offset: ref.Offset, Length: ref.Length}
	}
	s := patch.StatsOf(instructions)
	fmt.Printf("instructions: %d\n", s.InstructionCount)
	fmt.Printf("COPY:   count=%d bytes=%d\n", s.CopyCount, s.CopyBytes)
	fmt.Printf("INSERT: count=%d bytes=%d\n", s.InsertCount, s.InsertBytes)
}
