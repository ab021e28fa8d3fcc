package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Program markers
	PROGRAM_START // 어떻게
	PROGRAM_END   // 이 사람이름이냐ㅋㅋ

	// Count-carrying syllable runs
	ASSIGN // 엄 with adjacent 어s, Count = number of adjacent 어
	VAR    // run of 어, Count = run length

	// Keywords
	GOTO    // 준
	CONSOLE // 식
	COND    // 동탄
	RETURN  // 화이팅

	// Punctuation
	DOT      // . increment
	COMMA    // , decrement
	SPACE    // term separator
	TILDE    // ~ line separator
	QUESTION // ?
	BANG     // !
	KEK      // ㅋ

	NEWLINE
)

// tokenNames is indexed by TokenType.
var tokenNames = [...]string{
	EOF:           "EOF",
	PROGRAM_START: "PROGRAM_START",
	PROGRAM_END:   "PROGRAM_END",
	ASSIGN:        "ASSIGN",
	VAR:           "VAR",
	GOTO:          "GOTO",
	CONSOLE:       "CONSOLE",
	COND:          "COND",
	RETURN:        "RETURN",
	DOT:           "DOT",
	COMMA:         "COMMA",
	SPACE:         "SPACE",
	TILDE:         "TILDE",
	QUESTION:      "QUESTION",
	BANG:          "BANG",
	KEK:           "KEK",
	NEWLINE:       "NEWLINE",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// startsTerm reports whether a token of this type can begin an additive term.
func (tt TokenType) startsTerm() bool {
	return tt == DOT || tt == COMMA || tt == VAR
}

// endsStatement reports whether a token of this type closes a statement or a
// conditional body without being part of it.
func (tt TokenType) endsStatement() bool {
	return tt == NEWLINE || tt == TILDE || tt == EOF || tt == PROGRAM_END
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line
	Col    int    // 1-based column, counted in runes
	Count  int    // 어 count for ASSIGN and VAR, zero otherwise
}

func (t Token) String() string {
	if t.Type == ASSIGN || t.Type == VAR {
		return fmt.Sprintf("%-13s %-14q  count %d  line %d:%d", t.Type, t.Lexeme, t.Count, t.Line, t.Col)
	}
	return fmt.Sprintf("%-13s %-14q  line %d:%d", t.Type, t.Lexeme, t.Line, t.Col)
}
