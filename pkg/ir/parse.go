package ir

import (
	"strconv"
	"strings"
	"unicode"
)

// shape describes the operands an instruction takes.
type shape struct {
	op      Opcode
	dest    bool // defines a value
	values  int  // value operands
	targets int  // label operands, after the values
}

var shapes = map[string]shape{
	"add.i64":         {op: OpAdd, dest: true, values: 2},
	"sub.i64":         {op: OpSub, dest: true, values: 2},
	"mul.i64":         {op: OpMul, dest: true, values: 2},
	"eq.i64":          {op: OpEq, dest: true, values: 2},
	"load.i64":        {op: OpLoad, dest: true, values: 1},
	"store.i64":       {op: OpStore, values: 2},
	"alloc.ptr.stack": {op: OpAlloc, dest: true},
	"print":           {op: OpPrint, values: 1},
	"writebyte":       {op: OpWriteByte, values: 1},
	"readbyte":        {op: OpReadByte, dest: true},
	"br":              {op: OpBr, values: 1, targets: 2},
	"jmp":             {op: OpJmp, targets: 1},
	"ret.i64":         {op: OpRet, values: 1},
}

type lineKind int

const (
	lineBlank lineKind = iota
	lineHeader
	lineFooter
	lineLabel
	lineInstr
)

type parsedLine struct {
	lineNo   int
	kind     lineKind
	name     string // function name or label
	dest     string
	mnemonic string
	operands []string
}

// Reader turns IR text into a validated Function in two passes: the first
// collects block labels, the second decodes instructions and resolves jump
// targets against them.
type Reader struct {
	labels map[string]int // label -> line it was defined on
}

func NewReader() *Reader {
	return &Reader{labels: make(map[string]int)}
}

// Parse reads and validates one IR function.
func Parse(text string) (*Function, error) {
	return NewReader().Parse(text)
}

func (r *Reader) Parse(text string) (*Function, error) {
	lines := strings.Split(text, "\n")
	parsed := make([]parsedLine, 0, len(lines))
	for i, raw := range lines {
		p, err := parseLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, p)
	}

	if err := r.pass1(parsed); err != nil {
		return nil, err
	}
	return r.pass2(parsed)
}

func (r *Reader) pass1(lines []parsedLine) error {
	for _, p := range lines {
		if p.kind != lineLabel {
			continue
		}
		if prev, exists := r.labels[p.name]; exists {
			return errorf(p.lineNo, "duplicate label '%s' (first defined on line %d)", p.name, prev)
		}
		r.labels[p.name] = p.lineNo
	}
	return nil
}

func (r *Reader) pass2(lines []parsedLine) (*Function, error) {
	fn := &Function{index: make(map[string]int)}
	var cur *Block
	started, closed := false, false
	defined := make(map[string]bool)
	cells := make(map[string]bool)

	for _, p := range lines {
		if p.kind == lineBlank {
			continue
		}
		if closed {
			return nil, errorf(p.lineNo, "text after end of function")
		}

		switch p.kind {
		case lineHeader:
			if started {
				return nil, errorf(p.lineNo, "nested function header")
			}
			started = true
			fn.Name = p.name
			continue
		case lineFooter:
			if !started {
				return nil, errorf(p.lineNo, "'}' before function header")
			}
			if cur == nil {
				return nil, errorf(p.lineNo, "function has no blocks")
			}
			if !terminated(cur) {
				return nil, errorf(p.lineNo, "block '%s' has no terminator", cur.Label)
			}
			closed = true
			continue
		}

		if !started {
			return nil, errorf(p.lineNo, "expected function header")
		}

		if p.kind == lineLabel {
			if cur != nil && !terminated(cur) {
				return nil, errorf(p.lineNo, "block '%s' has no terminator before label '%s'", cur.Label, p.name)
			}
			cur = &Block{Label: p.name}
			fn.index[p.name] = len(fn.Blocks)
			fn.Blocks = append(fn.Blocks, cur)
			continue
		}

		if cur == nil {
			return nil, errorf(p.lineNo, "instruction outside a block: %s", p.mnemonic)
		}
		if terminated(cur) {
			return nil, errorf(p.lineNo, "instruction after terminator in block '%s'", cur.Label)
		}

		in, err := r.decode(p)
		if err != nil {
			return nil, err
		}

		for i, a := range in.Args {
			if a.IsImm() {
				if needsCell(in.Op, i) {
					return nil, errorf(p.lineNo, "%s expects a stack cell, got %d", in.Op, a.Value)
				}
				continue
			}
			if !defined[a.Name] {
				return nil, errorf(p.lineNo, "value '%s' used before definition", a.Name)
			}
			if needsCell(in.Op, i) && !cells[a.Name] {
				return nil, errorf(p.lineNo, "%s expects a stack cell, got '%s'", in.Op, a.Name)
			}
		}
		if in.Dest != "" {
			if defined[in.Dest] {
				return nil, errorf(p.lineNo, "value '%s' redefined", in.Dest)
			}
			defined[in.Dest] = true
			if in.Op == OpAlloc {
				cells[in.Dest] = true
			}
		}

		cur.Instrs = append(cur.Instrs, in)
	}

	if !started {
		return nil, errorf(0, "empty input")
	}
	if !closed {
		return nil, errorf(len(lines), "missing closing '}'")
	}
	return fn, nil
}

// decode checks p against its instruction shape and resolves label operands.
func (r *Reader) decode(p parsedLine) (Instr, error) {
	sh, ok := shapes[p.mnemonic]
	if !ok {
		return Instr{}, errorf(p.lineNo, "unknown instruction: %s", p.mnemonic)
	}
	if sh.dest && p.dest == "" {
		return Instr{}, errorf(p.lineNo, "%s must assign its result", p.mnemonic)
	}
	if !sh.dest && p.dest != "" {
		return Instr{}, errorf(p.lineNo, "%s produces no value", p.mnemonic)
	}

	ops := p.operands
	if sh.op == OpAlloc {
		if len(ops) != 1 || ops[0] != "i64" {
			return Instr{}, errorf(p.lineNo, "alloc.ptr.stack expects type i64")
		}
		ops = nil
	}
	if len(ops) != sh.values+sh.targets {
		return Instr{}, errorf(p.lineNo, "%s expects %d operands, got %d", p.mnemonic, sh.values+sh.targets, len(ops))
	}

	in := Instr{Op: sh.op, Dest: p.dest, Line: p.lineNo}
	for _, tok := range ops[:sh.values] {
		a, err := parseOperand(tok, p.lineNo)
		if err != nil {
			return Instr{}, err
		}
		in.Args = append(in.Args, a)
	}
	for _, tok := range ops[sh.values:] {
		if !isIdentifier(tok) {
			return Instr{}, errorf(p.lineNo, "invalid label '%s'", tok)
		}
		if _, ok := r.labels[tok]; !ok {
			return Instr{}, errorf(p.lineNo, "undefined label '%s'", tok)
		}
		in.Targets = append(in.Targets, tok)
	}
	return in, nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	if rest, ok := strings.CutPrefix(line, "fn "); ok {
		rest = strings.TrimSpace(rest)
		name, sig, ok := strings.Cut(rest, "(")
		if !ok || !strings.HasPrefix(name, "@") || !isIdentifier(name[1:]) {
			return p, errorf(lineNo, "invalid function header")
		}
		if strings.Join(strings.Fields(sig), " ") != ") -> i64 {" {
			return p, errorf(lineNo, "function must be declared as fn @%s() -> i64 {", name[1:])
		}
		p.kind = lineHeader
		p.name = name[1:]
		return p, nil
	}

	if line == "}" {
		p.kind = lineFooter
		return p, nil
	}

	if label, ok := strings.CutSuffix(line, ":"); ok {
		label = strings.TrimSpace(label)
		if !isIdentifier(label) {
			return p, errorf(lineNo, "invalid label '%s'", label)
		}
		p.kind = lineLabel
		p.name = label
		return p, nil
	}

	p.kind = lineInstr
	if dest, rest, ok := strings.Cut(line, "="); ok {
		dest = strings.TrimSpace(dest)
		if !isValueName(dest) {
			return p, errorf(lineNo, "invalid destination '%s'", dest)
		}
		p.dest = dest
		line = strings.TrimSpace(rest)
	}

	mnemonic, rest, _ := strings.Cut(line, " ")
	p.mnemonic = strings.ToLower(mnemonic)
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return p, nil
	}
	for _, op := range strings.Split(rest, ",") {
		op = strings.TrimSpace(op)
		if op == "" {
			return p, errorf(lineNo, "empty operand in %s", p.mnemonic)
		}
		p.operands = append(p.operands, op)
	}
	return p, nil
}

func parseOperand(tok string, lineNo int) (Operand, error) {
	if isValueName(tok) {
		return Operand{Name: tok}, nil
	}
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return Operand{}, errorf(lineNo, "invalid operand '%s'", tok)
	}
	return Operand{Value: v}, nil
}

// needsCell reports whether argument i of op must name a stack cell.
func needsCell(op Opcode, i int) bool {
	return (op == OpLoad || op == OpStore) && i == 0
}

func terminated(b *Block) bool {
	return len(b.Instrs) > 0 && b.Terminator().Op.IsTerminator()
}

func stripComments(line string) string {
	if cut := strings.Index(line, ";"); cut >= 0 {
		return line[:cut]
	}
	return line
}

func isValueName(s string) bool {
	name, ok := strings.CutPrefix(s, "%")
	return ok && isIdentifier(name)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}
