package compiler

import (
	"fmt"
	"strings"
)

//  Expression nodes

// Expr is implemented by every node that produces a value.
// genExpr returns the temporary holding the result.
type Expr interface {
	exprNode()
	String() string
}

// Literal is a net increment count folded at parse time.
//
//	엄...,
//	  ^^^^  Literal{Value: 2}
type Literal struct {
	Value int64
}

func (*Literal) exprNode()        {}
func (l *Literal) String() string { return fmt.Sprintf("%d", l.Value) }

// VarRef reads a variable slot. Slots are 0-based: 어 is slot 0, 어어 is slot 1.
type VarRef struct {
	Slot int
}

func (*VarRef) exprNode()        {}
func (v *VarRef) String() string { return fmt.Sprintf("v%d", v.Slot) }

// BinaryOp selects the arithmetic of a BinaryExpr.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

// mnemonic is the IR instruction implementing op.
func (op BinaryOp) mnemonic() string {
	switch op {
	case OpSub:
		return "sub.i64"
	case OpMul:
		return "mul.i64"
	}
	return "add.i64"
}

// BinaryExpr represents Left Op Right.
//
//	어.. 어
//	^^^  ^
//	|    Right
//	Left = (v0 + 2), Op = OpMul
type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

//  Statement nodes

// Stmt is implemented by every statement node.
type Stmt interface {
	stmtNode()
	String() string
}

// Assign stores Value into Slot.
//
//	어엄..
//	^^  ^^  Assign{Slot: 1, Value: 2}
type Assign struct {
	Slot  int
	Value Expr
}

func (*Assign) stmtNode() {}
func (a *Assign) String() string {
	return fmt.Sprintf("Assign(v%d, %s)", a.Slot, a.Value)
}

// Input reads one decimal integer from standard input into Slot (엄식?).
type Input struct {
	Slot int
}

func (*Input) stmtNode()        {}
func (i *Input) String() string { return fmt.Sprintf("Input(v%d)", i.Slot) }

// PrintNum prints Value as a decimal number (식...!).
type PrintNum struct {
	Value Expr
}

func (*PrintNum) stmtNode()        {}
func (p *PrintNum) String() string { return fmt.Sprintf("PrintNum(%s)", p.Value) }

// PrintChar writes Value as a single byte (식...ㅋ).
type PrintChar struct {
	Value Expr
}

func (*PrintChar) stmtNode()        {}
func (p *PrintChar) String() string { return fmt.Sprintf("PrintChar(%s)", p.Value) }

// PrintNewline writes a newline byte (식ㅋ).
type PrintNewline struct{}

func (*PrintNewline) stmtNode()      {}
func (*PrintNewline) String() string { return "PrintNewline" }

// Conditional runs Body when Cond evaluates to zero.
//
//	동탄어?식..!
//	    ^  ^^^^^  Conditional{Cond: v0, Body: [PrintNum(2)]}
type Conditional struct {
	Cond Expr
	Body []Stmt
}

func (*Conditional) stmtNode() {}
func (c *Conditional) String() string {
	parts := make([]string, len(c.Body))
	for i, s := range c.Body {
		parts[i] = s.String()
	}
	return fmt.Sprintf("If(%s == 0, [%s])", c.Cond, strings.Join(parts, ", "))
}

// Goto transfers control to the block of source line Line.
type Goto struct {
	Line int
}

func (*Goto) stmtNode()        {}
func (g *Goto) String() string { return fmt.Sprintf("Goto(line %d)", g.Line) }

// Return ends the program with Value as its exit value (화이팅!...).
type Return struct {
	Value Expr
}

func (*Return) stmtNode()        {}
func (r *Return) String() string { return fmt.Sprintf("Return(%s)", r.Value) }

// NumberedStmt pairs a top-level statement with the source line of its first
// token.
type NumberedStmt struct {
	Stmt Stmt
	Line int
}

// Program is the parsed form of one source file, in textual order.
type Program struct {
	Stmts []NumberedStmt
}

// MaxLine returns the largest statement line, or 0 for an empty program.
func (p *Program) MaxLine() int {
	last := 0
	for _, s := range p.Stmts {
		if s.Line > last {
			last = s.Line
		}
	}
	return last
}

func (p *Program) String() string {
	var sb strings.Builder
	for _, s := range p.Stmts {
		fmt.Fprintf(&sb, "%4d  %s\n", s.Line, s.Stmt)
	}
	return sb.String()
}
