package compiler

import (
	"fmt"
	"strings"
)

// endPhrase must appear in the syllables following "이 " for the program end
// marker to be recognised.
const endPhrase = "사람이름이냐"

// punctuation maps single-rune tokens to their TokenType.
var punctuation = map[rune]TokenType{
	'.':  DOT,
	',':  COMMA,
	' ':  SPACE,
	'\t': SPACE,
	'~':  TILDE,
	'?':  QUESTION,
	'!':  BANG,
	'ㅋ':  KEK,
	'\n': NEWLINE,
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
	col  int // current 1-based column
}

// mark is a restorable snapshot of the scanning position.
type mark struct {
	pos, line, col int
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, col: 1}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

// peekAt returns the rune at the given offset from the current position.
func (l *Lexer) peekAt(offset int) rune {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) save() mark {
	return mark{pos: l.pos, line: l.line, col: l.col}
}

func (l *Lexer) restore(m mark) {
	l.pos, l.line, l.col = m.pos, m.line, m.col
}

// countRun consumes consecutive copies of r and returns how many there were.
func (l *Lexer) countRun(r rune) int {
	n := 0
	for l.pos < len(l.src) && l.peek() == r {
		l.advance()
		n++
	}
	return n
}

// readWord consumes a run of Hangul syllables and jamo.
func (l *Lexer) readWord() {
	for l.pos < len(l.src) && isHangul(l.peek()) {
		l.advance()
	}
}

func (l *Lexer) token(tt TokenType, start, line, col, count int) Token {
	return Token{Type: tt, Lexeme: string(l.src[start:l.pos]), Line: line, Col: col, Count: count}
}

// isHangul reports whether r is a Hangul syllable (가-힣) or compatibility
// jamo (ㄱ-ㅣ).
func isHangul(r rune) bool {
	return (r >= '가' && r <= '힣') || (r >= 'ㄱ' && r <= 'ㅣ')
}

// scanEo handles words that start with 어: the program start keyword, a
// variable reference run, or an assignment written with leading 어s.
func (l *Lexer) scanEo(line, col int) (Token, error) {
	start := l.pos
	if l.peekAt(1) == '떻' {
		if l.peekAt(2) == '게' {
			l.advance()
			l.advance()
			l.advance()
			return l.token(PROGRAM_START, start, line, col, 0), nil
		}
		return l.scanWord(line, col)
	}

	n := l.countRun('어')
	if l.peek() == '엄' {
		l.advance()
		n += l.countRun('어')
		return l.token(ASSIGN, start, line, col, n), nil
	}
	return l.token(VAR, start, line, col, n), nil
}

// scanEnd recognises the program end marker. When 이 is followed by a space,
// the space and the next syllable run are consumed speculatively and the scan
// rolls back to just after 이 unless the run contains the end phrase.
func (l *Lexer) scanEnd(line, col int) (Token, error) {
	start := l.pos
	l.advance() // 이

	if l.peek() == ' ' {
		m := l.save()
		l.advance()
		runStart := l.pos
		l.readWord()
		if strings.Contains(string(l.src[runStart:l.pos]), endPhrase) {
			return l.token(PROGRAM_END, start, line, col, 0), nil
		}
		l.restore(m)
		return l.keyword(start, line, col)
	}

	l.readWord()
	return l.keyword(start, line, col)
}

// scanWord reads a generic syllable run and resolves it as a keyword.
func (l *Lexer) scanWord(line, col int) (Token, error) {
	start := l.pos
	l.readWord()
	return l.keyword(start, line, col)
}

// keyword resolves src[start:pos] after a fixed-prefix match has failed. The
// only multi-syllable word accepted here is one containing the end phrase.
func (l *Lexer) keyword(start, line, col int) (Token, error) {
	word := string(l.src[start:l.pos])
	if strings.Contains(word, endPhrase) {
		return l.token(PROGRAM_END, start, line, col, 0), nil
	}
	return Token{}, &LexError{
		Line: line,
		Col:  col,
		Char: l.src[start],
		Msg:  fmt.Sprintf("unknown keyword %q", word),
	}
}

// nextToken returns the next Token.
func (l *Lexer) nextToken() (Token, error) {
	for l.pos < len(l.src) && l.peek() == '\r' {
		l.advance()
	}

	line, col := l.line, l.col
	if l.pos >= len(l.src) {
		return Token{Type: EOF, Line: line, Col: col}, nil
	}

	ch := l.peek()
	if tt, ok := punctuation[ch]; ok {
		l.advance()
		return Token{Type: tt, Lexeme: string(ch), Line: line, Col: col}, nil
	}

	start := l.pos
	switch ch {
	case '어':
		return l.scanEo(line, col)
	case '엄':
		l.advance()
		n := l.countRun('어')
		return l.token(ASSIGN, start, line, col, n), nil
	case '준':
		l.advance()
		return l.token(GOTO, start, line, col, 0), nil
	case '식':
		l.advance()
		return l.token(CONSOLE, start, line, col, 0), nil
	case '동':
		if l.peekAt(1) == '탄' {
			l.advance()
			l.advance()
			return l.token(COND, start, line, col, 0), nil
		}
		return l.scanWord(line, col)
	case '화':
		if l.peekAt(1) == '이' && l.peekAt(2) == '팅' {
			l.advance()
			l.advance()
			l.advance()
			return l.token(RETURN, start, line, col, 0), nil
		}
		return l.scanWord(line, col)
	case '이':
		return l.scanEnd(line, col)
	}

	return Token{}, &LexError{
		Line: line,
		Col:  col,
		Char: ch,
		Msg:  fmt.Sprintf("unexpected character %q", ch),
	}
}

// Lex tokenises src and returns all tokens including the final EOF token.
// It returns a *LexError on the first rune outside the language's character
// classes or the first unknown syllable word.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}
