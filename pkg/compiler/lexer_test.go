package compiler

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// tok builds an expected token; Col is checked separately.
func tok(tt TokenType, lexeme string, line, count int) Token {
	return Token{Type: tt, Lexeme: lexeme, Line: line, Count: count}
}

func stripCols(tokens []Token) []Token {
	out := make([]Token, len(tokens))
	for i, t := range tokens {
		t.Col = 0
		out[i] = t
	}
	return out
}

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:     "Empty",
			input:    "",
			expected: []Token{tok(EOF, "", 1, 0)},
		},
		{
			name:  "Program Start",
			input: "어떻게",
			expected: []Token{
				tok(PROGRAM_START, "어떻게", 1, 0),
				tok(EOF, "", 1, 0),
			},
		},
		{
			name:  "Bare Assign",
			input: "엄..",
			expected: []Token{
				tok(ASSIGN, "엄", 1, 0),
				tok(DOT, ".", 1, 0),
				tok(DOT, ".", 1, 0),
				tok(EOF, "", 1, 0),
			},
		},
		{
			name:  "Assign Counts Leading And Trailing",
			input: "어어엄 엄어 어엄어",
			expected: []Token{
				tok(ASSIGN, "어어엄", 1, 2),
				tok(SPACE, " ", 1, 0),
				tok(ASSIGN, "엄어", 1, 1),
				tok(SPACE, " ", 1, 0),
				tok(ASSIGN, "어엄어", 1, 2),
				tok(EOF, "", 1, 0),
			},
		},
		{
			name:  "Variable Runs",
			input: "어 어어어.",
			expected: []Token{
				tok(VAR, "어", 1, 1),
				tok(SPACE, " ", 1, 0),
				tok(VAR, "어어어", 1, 3),
				tok(DOT, ".", 1, 0),
				tok(EOF, "", 1, 0),
			},
		},
		{
			name:  "Keywords",
			input: "준 식 동탄 화이팅",
			expected: []Token{
				tok(GOTO, "준", 1, 0),
				tok(SPACE, " ", 1, 0),
				tok(CONSOLE, "식", 1, 0),
				tok(SPACE, " ", 1, 0),
				tok(COND, "동탄", 1, 0),
				tok(SPACE, " ", 1, 0),
				tok(RETURN, "화이팅", 1, 0),
				tok(EOF, "", 1, 0),
			},
		},
		{
			name:  "Punctuation",
			input: ".,~?!ㅋ\t \n",
			expected: []Token{
				tok(DOT, ".", 1, 0),
				tok(COMMA, ",", 1, 0),
				tok(TILDE, "~", 1, 0),
				tok(QUESTION, "?", 1, 0),
				tok(BANG, "!", 1, 0),
				tok(KEK, "ㅋ", 1, 0),
				tok(SPACE, "\t", 1, 0),
				tok(SPACE, " ", 1, 0),
				tok(NEWLINE, "\n", 1, 0),
				tok(EOF, "", 2, 0),
			},
		},
		{
			name:  "Carriage Returns Skipped",
			input: "식ㅋ\r\n식ㅋ",
			expected: []Token{
				tok(CONSOLE, "식", 1, 0),
				tok(KEK, "ㅋ", 1, 0),
				tok(NEWLINE, "\n", 1, 0),
				tok(CONSOLE, "식", 2, 0),
				tok(KEK, "ㅋ", 2, 0),
				tok(EOF, "", 2, 0),
			},
		},
		{
			name:  "Program End",
			input: "어떻게\n이 사람이름이냐ㅋㅋ",
			expected: []Token{
				tok(PROGRAM_START, "어떻게", 1, 0),
				tok(NEWLINE, "\n", 1, 0),
				tok(PROGRAM_END, "이 사람이름이냐ㅋㅋ", 2, 0),
				tok(EOF, "", 2, 0),
			},
		},
		{
			name:  "Program End Without Space",
			input: "이사람이름이냐",
			expected: []Token{
				tok(PROGRAM_END, "이사람이름이냐", 1, 0),
				tok(EOF, "", 1, 0),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex(%q) failed: %v", tt.input, err)
			}
			if !reflect.DeepEqual(stripCols(got), tt.expected) {
				t.Errorf("Lex(%q)\n got: %v\nwant: %v", tt.input, stripCols(got), tt.expected)
			}
		})
	}
}

func TestLexColumns(t *testing.T) {
	tokens, err := Lex("어떻게\n 엄어.")
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}

	want := []struct {
		tt        TokenType
		line, col int
	}{
		{PROGRAM_START, 1, 1},
		{NEWLINE, 1, 4},
		{SPACE, 2, 1},
		{ASSIGN, 2, 2},
		{DOT, 2, 4},
		{EOF, 2, 5},
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(tokens), len(want), tokens)
	}
	for i, w := range want {
		got := tokens[i]
		if got.Type != w.tt || got.Line != w.line || got.Col != w.col {
			t.Errorf("token %d = %s at %d:%d, want %s at %d:%d", i, got.Type, got.Line, got.Col, w.tt, w.line, w.col)
		}
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		line    int
		col     int
		wantMsg string
	}{
		{"Latin Letter", "어떻게\nabc", 2, 1, "unexpected character 'a'"},
		{"Digit", "엄1", 1, 2, "unexpected character '1'"},
		{"Unknown Word", "동", 1, 1, "unknown keyword \"동\""},
		{"Incomplete Start", "어떻", 1, 1, "unknown keyword \"어떻\""},
		{"Incomplete Return", "화이", 1, 1, "unknown keyword \"화이\""},
		{"Lone 이", "이 사람", 1, 1, "unknown keyword \"이\""},
		{"Wrong Phrase", "이 사람이다", 1, 1, "unknown keyword \"이\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			if err == nil {
				t.Fatalf("expected error, got tokens %v", tokens)
			}
			if tokens != nil {
				t.Errorf("expected no tokens on error, got %v", tokens)
			}
			var lexErr *LexError
			if !errors.As(err, &lexErr) {
				t.Fatalf("expected *LexError, got %T", err)
			}
			if lexErr.Line != tt.line || lexErr.Col != tt.col {
				t.Errorf("error at %d:%d, want %d:%d", lexErr.Line, lexErr.Col, tt.line, tt.col)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestTokenTypeString(t *testing.T) {
	if got := ASSIGN.String(); got != "ASSIGN" {
		t.Errorf("ASSIGN.String() = %q", got)
	}
	if got := TokenType(99).String(); got != "TokenType(99)" {
		t.Errorf("TokenType(99).String() = %q", got)
	}
}
