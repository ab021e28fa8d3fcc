package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// CodeGen walks a Program and emits IR text. One CodeGen serves exactly one
// Generate call; its counters never outlive it.
type CodeGen struct {
	slots     *SlotTable
	out       strings.Builder
	nextTemp  int
	nextBlock int
	maxLine   int
	curLine   int // source line being lowered
}

func newCodeGen(slots *SlotTable) *CodeGen {
	return &CodeGen{slots: slots}
}

func (cg *CodeGen) newTemp() string {
	t := fmt.Sprintf("%%t%d", cg.nextTemp)
	cg.nextTemp++
	return t
}

// newBlock returns the next id for a group of synthesized blocks.
func (cg *CodeGen) newBlock() int {
	k := cg.nextBlock
	cg.nextBlock++
	return k
}

func (cg *CodeGen) raw(s string) {
	cg.out.WriteString(s)
	cg.out.WriteByte('\n')
}

// inst writes one indented instruction.
func (cg *CodeGen) inst(format string, args ...any) {
	fmt.Fprintf(&cg.out, "    "+format+"\n", args...)
}

// label opens a new block.
func (cg *CodeGen) label(name string) {
	fmt.Fprintf(&cg.out, "\n  %s:\n", name)
}

func (cg *CodeGen) errorf(format string, args ...any) error {
	return &CodegenError{Line: cg.curLine, Msg: fmt.Sprintf(format, args...)}
}

func lineLabel(n int) string {
	return fmt.Sprintf("line_%d", n)
}

// cell returns the storage cell of slot.
func (cg *CodeGen) cell(slot int) (string, error) {
	ptr, ok := cg.slots.Lookup(slot)
	if !ok {
		return "", cg.errorf("no storage allocated for slot %d", slot)
	}
	return ptr, nil
}

// genExpr lowers e into fresh temporaries and returns the one holding the
// result.
func (cg *CodeGen) genExpr(e Expr) (string, error) {
	switch n := e.(type) {
	case *Literal:
		t := cg.newTemp()
		cg.inst("%s = add.i64 %d, 0", t, n.Value)
		return t, nil

	case *VarRef:
		ptr, err := cg.cell(n.Slot)
		if err != nil {
			return "", err
		}
		t := cg.newTemp()
		cg.inst("%s = load.i64 %s", t, ptr)
		return t, nil

	case *BinaryExpr:
		left, err := cg.genExpr(n.Left)
		if err != nil {
			return "", err
		}
		right, err := cg.genExpr(n.Right)
		if err != nil {
			return "", err
		}
		t := cg.newTemp()
		cg.inst("%s = %s %s, %s", t, n.Op.mnemonic(), left, right)
		return t, nil
	}
	return "", cg.errorf("unsupported expression %T", e)
}

// genStmt lowers s into the current block. It reports whether control can
// still fall out of the statement, i.e. whether the block still needs a
// terminator.
func (cg *CodeGen) genStmt(s Stmt) (bool, error) {
	switch n := s.(type) {
	case *Assign:
		v, err := cg.genExpr(n.Value)
		if err != nil {
			return false, err
		}
		ptr, err := cg.cell(n.Slot)
		if err != nil {
			return false, err
		}
		cg.inst("store.i64 %s, %s", ptr, v)
		return true, nil

	case *Input:
		if err := cg.genInput(n.Slot); err != nil {
			return false, err
		}
		return true, nil

	case *PrintNum:
		v, err := cg.genExpr(n.Value)
		if err != nil {
			return false, err
		}
		cg.inst("print %s", v)
		return true, nil

	case *PrintChar:
		v, err := cg.genExpr(n.Value)
		if err != nil {
			return false, err
		}
		cg.inst("writebyte %s", v)
		return true, nil

	case *PrintNewline:
		t := cg.newTemp()
		cg.inst("%s = add.i64 10, 0", t)
		cg.inst("writebyte %s", t)
		return true, nil

	case *Conditional:
		c, err := cg.genExpr(n.Cond)
		if err != nil {
			return false, err
		}
		k := cg.newBlock()
		then := fmt.Sprintf("then_%d", k)
		cont := fmt.Sprintf("cont_%d", k)

		// The body runs when the condition is zero.
		z := cg.newTemp()
		cg.inst("%s = eq.i64 %s, 0", z, c)
		cg.inst("br %s, %s, %s", z, then, cont)

		cg.label(then)
		open, err := cg.genBody(n.Body)
		if err != nil {
			return false, err
		}
		if open {
			cg.inst("jmp %s", cont)
		}
		cg.label(cont)
		return true, nil

	case *Goto:
		if n.Line < 1 || n.Line > cg.maxLine {
			return false, cg.errorf("goto target line %d is outside 1..%d", n.Line, cg.maxLine)
		}
		cg.inst("jmp %s", lineLabel(n.Line))
		return false, nil

	case *Return:
		v, err := cg.genExpr(n.Value)
		if err != nil {
			return false, err
		}
		cg.inst("ret.i64 %s", v)
		return false, nil
	}
	return false, cg.errorf("unsupported statement %T", s)
}

// genBody lowers stmts into the current block in order. A statement that
// follows a terminator opens a dead_<k> block so the terminator stays last.
func (cg *CodeGen) genBody(stmts []Stmt) (bool, error) {
	open := true
	for _, s := range stmts {
		if !open {
			cg.label(fmt.Sprintf("dead_%d", cg.newBlock()))
		}
		var err error
		open, err = cg.genStmt(s)
		if err != nil {
			return false, err
		}
	}
	return open, nil
}

// prologue allocates a zeroed cell for every used slot, plus the input
// automaton's scratch cells when the program reads input.
func (cg *CodeGen) prologue(usage programUsage) {
	slots := make([]int, 0, len(usage.slots))
	for slot := range usage.slots {
		slots = append(slots, slot)
	}
	sort.Ints(slots)

	var cells []string
	for _, slot := range slots {
		cells = append(cells, cg.slots.Allocate(slot))
	}
	if usage.hasInput {
		cells = append(cells, inputAccCell, inputByteCell)
	}
	for _, ptr := range cells {
		cg.inst("%s = alloc.ptr.stack i64", ptr)
		cg.inst("store.i64 %s, 0", ptr)
	}
}

// Generate lowers prog into one IR function with a block per source line.
// slots receives the slot-to-cell mapping; a nil table is replaced by a
// fresh one.
func Generate(prog *Program, slots *SlotTable) (string, error) {
	if slots == nil {
		slots = NewSlotTable()
	}
	cg := newCodeGen(slots)
	cg.maxLine = prog.MaxLine()

	byLine := make(map[int][]Stmt)
	for _, ns := range prog.Stmts {
		byLine[ns.Line] = append(byLine[ns.Line], ns.Stmt)
	}

	cg.raw("fn @main() -> i64 {")
	cg.raw("  entry:")
	cg.prologue(scanProgram(prog))

	if len(prog.Stmts) == 0 {
		cg.inst("ret.i64 0")
		cg.raw("}")
		return cg.out.String(), nil
	}
	cg.inst("jmp %s", lineLabel(prog.Stmts[0].Line))

	for n := 1; n <= cg.maxLine; n++ {
		cg.curLine = n
		cg.label(lineLabel(n))
		open, err := cg.genBody(byLine[n])
		if err != nil {
			return "", err
		}
		if !open {
			continue
		}
		if n < cg.maxLine {
			cg.inst("jmp %s", lineLabel(n+1))
		} else {
			cg.inst("ret.i64 0")
		}
	}

	cg.raw("}")
	return cg.out.String(), nil
}
