// Command umjunsik compiles Umjunsik programs to IR and can run them on the
// reference VM.
//
//	umjunsik [flags] FILE.umm
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sanity-io/litter"
	"github.com/tebeka/atexit"

	"umjunsik/pkg/compiler"
	"umjunsik/pkg/ir"
	"umjunsik/pkg/utils"
	"umjunsik/pkg/vm"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type options struct {
	outPath    string
	save       bool
	run        bool
	showTokens bool
	showAST    bool
	maxSteps   int
}

func main() {
	var opts options
	flag.StringVar(&opts.outPath, "o", "", "write IR to this file (default: stdout)")
	flag.BoolVar(&opts.save, "save", false, "write IR next to the source file with an .ir extension")
	flag.BoolVar(&opts.run, "run", false, "execute the program on the reference VM; its return value becomes the exit code")
	flag.BoolVar(&opts.showTokens, "tokens", false, "print the token table and exit")
	flag.BoolVar(&opts.showAST, "ast", false, "dump the parsed program and exit")
	interactive := flag.Bool("i", false, "start an interactive session")
	verbose := flag.Bool("v", false, "log compiler stages")
	quiet := flag.Bool("q", false, "log errors only")
	flag.IntVar(&opts.maxSteps, "max-steps", vm.DefaultConfig.MaxSteps, "instruction limit for -run (0 = unlimited)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] FILE.umm\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	setupLogging(*verbose, *quiet)

	stdout := bufio.NewWriter(os.Stdout)
	atexit.Register(func() { _ = stdout.Flush() })

	if *interactive {
		atexit.Exit(repl(stdout, opts.maxSteps))
	}

	if flag.NArg() != 1 {
		flag.Usage()
		atexit.Exit(exitUsage)
	}

	atexit.Exit(compileFile(flag.Arg(0), opts, os.Stdin, stdout))
}

func setupLogging(verbose, quiet bool) {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// compileFile runs the requested pipeline on path and returns the process
// exit code.
func compileFile(path string, opts options, stdin io.Reader, stdout io.Writer) int {
	fullPath, _, err := utils.GetPathInfo(path)
	if err != nil {
		slog.Error("invalid path", "path", path, "err", err)
		return exitFailure
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		slog.Error("failed to read source", "path", fullPath, "err", err)
		return exitFailure
	}
	src := string(data)
	slog.Debug("compiling", "path", fullPath, "bytes", len(data))

	if opts.showTokens || opts.showAST {
		return dumpFrontEnd(src, opts, stdout)
	}

	code, err := compiler.Compile(src)
	if err != nil {
		reportError(fullPath, err)
		return exitFailure
	}

	if opts.outPath == "" && opts.save {
		opts.outPath = utils.DefaultOutputPath(fullPath, ".ir")
	}
	if opts.outPath != "" {
		if err := os.WriteFile(opts.outPath, []byte(code), 0o644); err != nil {
			slog.Error("failed to write IR", "path", opts.outPath, "err", err)
			return exitFailure
		}
		slog.Info("wrote IR", "path", opts.outPath, "bytes", len(code))
	} else if !opts.run {
		fmt.Fprint(stdout, code)
	}

	if !opts.run {
		return exitOK
	}
	ret, err := runIR(code, stdin, stdout, opts.maxSteps)
	if err != nil {
		slog.Error("run failed", "path", fullPath, "err", err)
		return exitFailure
	}
	slog.Debug("program returned", "value", ret)
	return int(ret)
}

func dumpFrontEnd(src string, opts options, stdout io.Writer) int {
	tokens, err := compiler.Lex(src)
	if err != nil {
		reportError("", err)
		return exitFailure
	}
	if opts.showTokens {
		fmt.Fprintln(stdout, renderTokens(tokens))
	}
	if !opts.showAST {
		return exitOK
	}

	prog, err := compiler.Parse(tokens, src)
	if err != nil {
		reportError("", err)
		return exitFailure
	}
	dumper := litter.Options{StripPackageNames: true, HideZeroValues: true}
	fmt.Fprintln(stdout, dumper.Sdump(prog))
	return exitOK
}

// renderTokens lays tokens out as a table, one row per token.
func renderTokens(tokens []compiler.Token) string {
	t := table.NewWriter()
	t.SetTitle("Tokens (" + strconv.Itoa(len(tokens)) + ")")
	t.AppendHeader(table.Row{"#", "Type", "Lexeme", "Line", "Col", "Count"})
	for i, tok := range tokens {
		t.AppendRow(table.Row{i, tok.Type, strconv.Quote(tok.Lexeme), tok.Line, tok.Col, tok.Count})
	}
	return t.Render()
}

// runIR executes IR text on the reference VM.
func runIR(code string, stdin io.Reader, stdout io.Writer, maxSteps int) (int64, error) {
	fn, err := ir.Parse(code)
	if err != nil {
		return 0, err
	}
	machine := vm.NewWithConfig(fn, vm.NewStreamConsole(stdin, stdout), vm.Config{MaxSteps: maxSteps})
	ret, err := machine.Run()
	if errors.Is(err, vm.ErrStepLimit) {
		return 0, fmt.Errorf("%w after %d instructions", err, machine.Steps)
	}
	return ret, err
}

func reportError(path string, err error) {
	stage := "compile"
	var (
		lexErr   *compiler.LexError
		parseErr *compiler.ParseError
		cgErr    *compiler.CodegenError
	)
	switch {
	case errors.As(err, &lexErr):
		stage = "lex"
	case errors.As(err, &parseErr):
		stage = "parse"
	case errors.As(err, &cgErr):
		stage = "codegen"
	}
	if path != "" {
		fmt.Fprintf(os.Stderr, "%s: ", path)
	}
	fmt.Fprintf(os.Stderr, "%s error: %v\n", stage, err)
}
