// Package ir reads and validates the textual basic-block IR emitted by the
// Umjunsik compiler.
//
// A function is a header line, a list of labelled blocks and a closing brace:
//
//	fn @main() -> i64 {
//	  entry:
//	    %var_ptr_0 = alloc.ptr.stack i64
//	    store.i64 %var_ptr_0, 0
//	    jmp line_1
//
//	  line_1:
//	    %t0 = load.i64 %var_ptr_0
//	    ret.i64 %t0
//	}
package ir

import (
	"fmt"
	"strconv"
	"strings"
)

type Opcode int

const (
	OpAdd Opcode = iota
	OpSub
	OpMul
	OpEq
	OpLoad
	OpStore
	OpAlloc
	OpPrint
	OpWriteByte
	OpReadByte
	OpBr
	OpJmp
	OpRet
)

var opcodeNames = [...]string{
	OpAdd:       "add.i64",
	OpSub:       "sub.i64",
	OpMul:       "mul.i64",
	OpEq:        "eq.i64",
	OpLoad:      "load.i64",
	OpStore:     "store.i64",
	OpAlloc:     "alloc.ptr.stack",
	OpPrint:     "print",
	OpWriteByte: "writebyte",
	OpReadByte:  "readbyte",
	OpBr:        "br",
	OpJmp:       "jmp",
	OpRet:       "ret.i64",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// IsTerminator reports whether op ends a block.
func (op Opcode) IsTerminator() bool {
	return op == OpBr || op == OpJmp || op == OpRet
}

// Operand is either a named value (%t3, %var_ptr_0) or an integer immediate.
type Operand struct {
	Name  string
	Value int64
}

func (o Operand) IsImm() bool { return o.Name == "" }

func (o Operand) String() string {
	if o.IsImm() {
		return strconv.FormatInt(o.Value, 10)
	}
	return o.Name
}

// Instr is one instruction. Dest is empty for instructions that produce no
// value. Targets holds the block labels of br (then, else) and jmp.
type Instr struct {
	Op      Opcode
	Dest    string
	Args    []Operand
	Targets []string
	Line    int
}

func (in Instr) String() string {
	var sb strings.Builder
	if in.Dest != "" {
		sb.WriteString(in.Dest)
		sb.WriteString(" = ")
	}
	sb.WriteString(in.Op.String())
	if in.Op == OpAlloc {
		sb.WriteString(" i64")
	}
	parts := make([]string, 0, len(in.Args)+len(in.Targets))
	for _, a := range in.Args {
		parts = append(parts, a.String())
	}
	parts = append(parts, in.Targets...)
	if len(parts) > 0 {
		sb.WriteByte(' ')
		sb.WriteString(strings.Join(parts, ", "))
	}
	return sb.String()
}

type Block struct {
	Label  string
	Instrs []Instr
}

// Terminator returns the block's final instruction.
func (b *Block) Terminator() Instr {
	return b.Instrs[len(b.Instrs)-1]
}

// Function is a parsed and validated IR function.
type Function struct {
	Name   string
	Blocks []*Block
	index  map[string]int
}

// Block returns the block labelled label.
func (f *Function) Block(label string) (*Block, bool) {
	i, ok := f.index[label]
	if !ok {
		return nil, false
	}
	return f.Blocks[i], true
}

// BlockIndex returns the position of the block labelled label in Blocks.
func (f *Function) BlockIndex(label string) (int, bool) {
	i, ok := f.index[label]
	return i, ok
}

// Labels returns the block labels in source order.
func (f *Function) Labels() []string {
	labels := make([]string, len(f.Blocks))
	for i, b := range f.Blocks {
		labels[i] = b.Label
	}
	return labels
}

// String renders f back to IR text in the compiler's layout.
func (f *Function) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fn @%s() -> i64 {\n", f.Name)
	for i, b := range f.Blocks {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "  %s:\n", b.Label)
		for _, in := range b.Instrs {
			fmt.Fprintf(&sb, "    %s\n", in)
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

// Error reports malformed or invalid IR text.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("ir: line %d: %s", e.Line, e.Msg)
	}
	return "ir: " + e.Msg
}

func errorf(line int, format string, args ...any) error {
	return &Error{Line: line, Msg: fmt.Sprintf(format, args...)}
}
