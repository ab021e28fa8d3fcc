package compiler

import (
	"fmt"
	"log/slog"
	"time"

	"umjunsik/pkg/ir"
)

// Compile runs the whole pipeline on src and returns the IR text. The
// generated IR is read back with ir.Parse before it is returned, so callers
// never see a function with a dangling label or a block without a
// terminator.
func Compile(src string) (string, error) {
	start := time.Now()

	tokens, err := Lex(src)
	if err != nil {
		return "", err
	}
	slog.Debug("lexed", "tokens", len(tokens))

	prog, err := Parse(tokens, src)
	if err != nil {
		return "", err
	}
	slog.Debug("parsed", "statements", len(prog.Stmts), "max_line", prog.MaxLine())

	slots := NewSlotTable()
	text, err := Generate(prog, slots)
	if err != nil {
		return "", err
	}
	slog.Debug("generated", "slots", slots.Len(), "bytes", len(text))

	fn, err := ir.Parse(text)
	if err != nil {
		return "", fmt.Errorf("generated IR is invalid: %w", err)
	}
	slog.Debug("validated", "blocks", len(fn.Blocks), "elapsed", time.Since(start))

	return text, nil
}
