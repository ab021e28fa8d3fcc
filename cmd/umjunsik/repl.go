package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"umjunsik/pkg/compiler"
)

const (
	historyFile = ".umjunsik_history"
	prompt      = "umm> "
	banner      = "Umjunsik REPL\nEach line is appended to the program. Type :help for commands, Ctrl+D exits."
	helpText    = `:run          compile and run the program
:ir           print the program's IR
:list         list the program with line numbers
:input TEXT   set the text the program reads as input
:undo         drop the last line
:reset        clear the program
:quit         exit`
)

// session holds the program being built line by line. Line 1 is always the
// start keyword, so the first entered line is source line 2.
type session struct {
	lines    []string
	stdin    string
	maxSteps int
}

func (s *session) source(extra ...string) string {
	all := append([]string{"어떻게"}, s.lines...)
	all = append(all, extra...)
	return strings.Join(all, "\n") + "\n이 사람이름이냐ㅋㅋ\n"
}

// handle processes one line of input and reports whether the session should
// end.
func (s *session) handle(line string, out io.Writer) bool {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, ":") {
		cmd, arg, _ := strings.Cut(trimmed, " ")
		switch cmd {
		case ":quit", ":q":
			return true
		case ":help":
			fmt.Fprintln(out, helpText)
		case ":list":
			for i, l := range s.lines {
				fmt.Fprintf(out, "%4d  %s\n", i+2, l)
			}
		case ":reset":
			s.lines = nil
		case ":undo":
			if len(s.lines) > 0 {
				s.lines = s.lines[:len(s.lines)-1]
			}
		case ":input":
			s.stdin = strings.ReplaceAll(arg, `\n`, "\n")
		case ":ir":
			code, err := compiler.Compile(s.source())
			if err != nil {
				fmt.Fprintln(out, "error:", err)
				break
			}
			fmt.Fprint(out, code)
		case ":run":
			code, err := compiler.Compile(s.source())
			if err != nil {
				fmt.Fprintln(out, "error:", err)
				break
			}
			ret, err := runIR(code, strings.NewReader(s.stdin), out, s.maxSteps)
			if err != nil {
				fmt.Fprintln(out, "\nerror:", err)
				break
			}
			fmt.Fprintf(out, "\n=> %d\n", ret)
		default:
			fmt.Fprintf(out, "unknown command %s. Type :help for commands.\n", cmd)
		}
		return false
	}

	// Reject lines that do not lex or parse; goto targets are only checked
	// when the whole program is compiled.
	src := s.source(line)
	tokens, err := compiler.Lex(src)
	if err == nil {
		_, err = compiler.Parse(tokens, src)
	}
	if err != nil {
		fmt.Fprintln(out, "error:", err)
		return false
	}
	s.lines = append(s.lines, line)
	return false
}

func repl(out interface {
	io.Writer
	Flush() error
}, maxSteps int) int {
	fmt.Fprintln(out, banner)
	_ = out.Flush()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	s := &session{maxSteps: maxSteps}
	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return exitOK
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitFailure
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		done := s.handle(line, out)
		_ = out.Flush()
		if done {
			return exitOK
		}
	}
}
