// Package maincmd is the thin CLI driver for cmd/yarel: it parses flags,
// reads a source file, and runs it through the yarel package's Compile/Run
// pipeline, logging with the standard library's log package the way the
// teacher's (mna-nenuphar) internal/maincmd logs around its own pipeline
// calls. The CLI/REPL surface itself is out of scope (spec.md §1); this
// wrapper exists only so the runtime is invokable from a shell, not as an
// interesting part of the implementation. Built directly on the standard
// library's flag package rather than the teacher's github.com/mna/mainer,
// since mainer's multi-command flag-struct reflection machinery exists to
// serve nenuphar's richer parse/resolve/tokenize CLI surface, and a
// single-command "run a file" wrapper has no use for it (see DESIGN.md).
package maincmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	yarel "github.com/yarel-lang/yarel"
)

const binName = "yarel"

// Cmd holds the parsed command-line state for a single invocation.
type Cmd struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Main parses args (excluding the program name) and runs the named script
// file, returning a process exit code.
func (c *Cmd) Main(args []string) int {
	stdout := c.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := c.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := log.New(stderr, binName+": ", 0)

	fs := flag.NewFlagSet(binName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s <script.yal>\n", binName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	path := fs.Arg(0)
	src, err := os.ReadFile(path)
	if err != nil {
		logger.Println(err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rt, err := yarel.New(ctx)
	if err != nil {
		logger.Println(err)
		return 1
	}
	rt.Thread().Stdout = stdout
	rt.Thread().Stderr = stderr

	if _, err := rt.Run(path, string(src)); err != nil {
		logger.Println(err)
		return 1
	}
	return 0
}
