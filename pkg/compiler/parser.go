package compiler

import (
	"fmt"
	"strings"
)

// Parser consumes the flat token slice produced by the Lexer and builds a
// Program.
//
// Grammar:
//
//	program     = PROGRAM_START { NEWLINE | TILDE | statement } [ PROGRAM_END ] EOF
//	statement   = assign | console | conditional | goto | return
//	assign      = ASSIGN ( CONSOLE QUESTION | <end> | expression )
//	console     = CONSOLE ( KEK | expression ( KEK | BANG ) )
//	conditional = COND expression QUESTION { statement }
//	goto        = GOTO expression            (constant, > 0)
//	return      = RETURN BANG expression
//	expression  = term { SPACE* term }       (adjacent terms multiply)
//	term        = { DOT | COMMA | VAR }      (at most one VAR, no SPACE inside)
//
// SPACE tokens separate terms inside an expression and are ignored
// everywhere else.
type Parser struct {
	tokens      []Token
	pos         int
	sourceLines []string
}

func NewParser(tokens []Token, rawSource string) *Parser {
	p := &Parser{tokens: tokens}
	if rawSource != "" {
		p.sourceLines = strings.Split(rawSource, "\n")
	}
	return p
}

// fmtError builds a *ParseError carrying the token and the source line where
// it appears.
func (p *Parser) fmtError(tok Token, format string, args ...any) error {
	lineIdx := tok.Line - 1 // Lines are 1-based

	snippet := ""
	if lineIdx >= 0 && lineIdx < len(p.sourceLines) {
		snippet = strings.TrimSpace(p.sourceLines[lineIdx])
	}

	return &ParseError{
		Tok:     tok,
		Pos:     p.pos,
		Msg:     fmt.Sprintf(format, args...),
		Snippet: snippet,
	}
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect skips spaces, then consumes the current token if it matches tt.
func (p *Parser) expect(tt TokenType) (Token, error) {
	p.skipSpaces()
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.fmtError(tok, "expected %s, got %s (%q)", tt, tok.Type, tok.Lexeme)
	}
	p.advance()
	return tok, nil
}

func (p *Parser) skipSpaces() {
	for p.peek().Type == SPACE {
		p.advance()
	}
}

// skipBlank skips the newlines and spaces between statements.
func (p *Parser) skipBlank() {
	for p.peek().Type == NEWLINE || p.peek().Type == SPACE {
		p.advance()
	}
}

// Parse builds the Program for the whole token stream.
func (p *Parser) Parse() (*Program, error) {
	if _, err := p.expect(PROGRAM_START); err != nil {
		return nil, err
	}

	prog := &Program{}
	for {
		p.skipBlank()
		tok := p.peek()
		switch tok.Type {
		case PROGRAM_END:
			p.advance()
			return prog, nil
		case EOF:
			return prog, nil
		case TILDE:
			p.advance()
		default:
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			prog.Stmts = append(prog.Stmts, NumberedStmt{Stmt: stmt, Line: tok.Line})
		}
	}
}

// parseStatement dispatches on the statement's leading token.
func (p *Parser) parseStatement() (Stmt, error) {
	p.skipSpaces()
	tok := p.peek()
	switch tok.Type {
	case ASSIGN:
		return p.parseAssign()
	case CONSOLE:
		return p.parseConsole()
	case COND:
		return p.parseConditional()
	case GOTO:
		return p.parseGoto()
	case RETURN:
		return p.parseReturn()
	}
	return nil, p.fmtError(tok, "unexpected %s (%q) at start of statement", tok.Type, tok.Lexeme)
}

// parseAssign handles 엄 forms: input (엄식?), zero-init (bare 엄) and
// assignment of an expression.
func (p *Parser) parseAssign() (Stmt, error) {
	slot := p.advance().Count
	p.skipSpaces()

	next := p.peek()
	if next.Type == CONSOLE {
		p.advance()
		if p.peek().Type != QUESTION {
			return nil, p.fmtError(p.peek(), "expected QUESTION after %q for input, got %s", next.Lexeme, p.peek().Type)
		}
		p.advance()
		return &Input{Slot: slot}, nil
	}

	if next.Type.endsStatement() {
		return &Assign{Slot: slot, Value: &Literal{Value: 0}}, nil
	}

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Assign{Slot: slot, Value: value}, nil
}

// parseConsole handles the 식 print family.
func (p *Parser) parseConsole() (Stmt, error) {
	p.advance() // 식
	p.skipSpaces()

	switch tok := p.peek(); tok.Type {
	case KEK:
		p.advance()
		return &PrintNewline{}, nil
	case QUESTION:
		return nil, p.fmtError(tok, "input is only allowed on the right of an assignment")
	}

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	p.skipSpaces()
	switch tok := p.peek(); tok.Type {
	case KEK:
		p.advance()
		return &PrintChar{Value: value}, nil
	case BANG:
		p.advance()
		return &PrintNum{Value: value}, nil
	default:
		return nil, p.fmtError(tok, "expected KEK or BANG after console expression, got %s (%q)", tok.Type, tok.Lexeme)
	}
}

// parseConditional handles 동탄 cond ? body. The body runs up to, but does not
// consume, the next NEWLINE, TILDE, EOF or PROGRAM_END.
func (p *Parser) parseConditional() (Stmt, error) {
	p.advance() // 동탄

	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(QUESTION); err != nil {
		return nil, err
	}

	stmt := &Conditional{Cond: cond}
	for {
		p.skipSpaces()
		if p.peek().Type.endsStatement() {
			return stmt, nil
		}
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmt.Body = append(stmt.Body, s)
	}
}

// parseGoto handles 준 expr. The target is folded to a line number here.
func (p *Parser) parseGoto() (Stmt, error) {
	tok := p.advance() // 준

	target, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	line, ok := evalConst(target)
	if !ok {
		return nil, p.fmtError(tok, "goto target %s must be a constant expression", target)
	}
	if line <= 0 {
		return nil, p.fmtError(tok, "goto target must be a positive line number, got %d", line)
	}
	return &Goto{Line: int(line)}, nil
}

// parseReturn handles 화이팅! expr.
func (p *Parser) parseReturn() (Stmt, error) {
	p.advance() // 화이팅
	if _, err := p.expect(BANG); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Return{Value: value}, nil
}

// parseExpression multiplies adjacent terms, left to right.
func (p *Parser) parseExpression() (Expr, error) {
	p.skipSpaces()
	expr, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpaces()
		if !p.peek().Type.startsTerm() {
			return expr, nil
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: OpMul, Left: expr, Right: right}
	}
}

// parseTerm counts a run of DOT/COMMA and at most one VAR, in any order.
// A second VAR or a SPACE ends the term.
func (p *Parser) parseTerm() (Expr, error) {
	var net int64
	var punct bool
	var ref *VarRef

loop:
	for {
		tok := p.peek()
		switch tok.Type {
		case DOT:
			net++
			punct = true
		case COMMA:
			net--
			punct = true
		case VAR:
			if ref != nil {
				break loop
			}
			ref = &VarRef{Slot: tok.Count - 1}
		default:
			break loop
		}
		p.advance()
	}

	switch {
	case ref != nil && punct:
		return &BinaryExpr{Op: OpAdd, Left: ref, Right: &Literal{Value: net}}, nil
	case ref != nil:
		return ref, nil
	case punct:
		return &Literal{Value: net}, nil
	}
	tok := p.peek()
	return nil, p.fmtError(tok, "expected expression, got %s (%q)", tok.Type, tok.Lexeme)
}

// Parse is a convenience wrapper around NewParser + Parse.
func Parse(tokens []Token, rawSource string) (*Program, error) {
	return NewParser(tokens, rawSource).Parse()
}
