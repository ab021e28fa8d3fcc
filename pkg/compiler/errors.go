package compiler

import "fmt"

// LexError reports a rune that belongs to no recognised character class, or a
// syllable word that is not a keyword.
type LexError struct {
	Line int
	Col  int
	Char rune
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Col, e.Msg)
}

// ParseError reports a grammar violation at a specific token.
type ParseError struct {
	Tok     Token
	Pos     int // index of Tok in the token slice
	Msg     string
	Snippet string // trimmed source line, empty when the source is unavailable
}

func (e *ParseError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("line %d: %s", e.Tok.Line, e.Msg)
	}
	return fmt.Sprintf("line %d: %s\n  |> %s", e.Tok.Line, e.Msg, e.Snippet)
}

// CodegenError reports an inconsistency found while lowering a Program.
type CodegenError struct {
	Line int // source line of the statement being lowered, 0 if unknown
	Msg  string
}

func (e *CodegenError) Error() string {
	if e.Line == 0 {
		return "codegen: " + e.Msg
	}
	return fmt.Sprintf("codegen: line %d: %s", e.Line, e.Msg)
}
