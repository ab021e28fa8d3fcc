// Package vm is a reference interpreter for validated IR functions. It runs
// one instruction per Step, with stack cells modelled as slots in a flat
// memory and pointers as indexes into it.
package vm

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"umjunsik/pkg/ir"
)

// ErrStepLimit is returned by Run when a program executes more instructions
// than Config.MaxSteps allows.
var ErrStepLimit = errors.New("vm: step limit exceeded")

// RuntimeError reports a failure while executing an instruction.
type RuntimeError struct {
	Block string
	Line  int // IR text line of the failing instruction
	Msg   string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("vm: %s (block %s, IR line %d)", e.Msg, e.Block, e.Line)
}

type Config struct {
	// MaxSteps bounds the number of executed instructions. Zero means no
	// limit.
	MaxSteps int
}

var DefaultConfig = Config{MaxSteps: 50_000_000}

type VM struct {
	fn      *ir.Function
	console Console
	cfg     Config

	values  map[string]int64
	memory  []int64
	targets [][][]int // block -> instruction -> resolved target blocks

	block int
	pc    int

	Steps     int
	Halted    bool
	ExitValue int64
}

// New prepares fn for execution with DefaultConfig.
func New(fn *ir.Function, console Console) *VM {
	return NewWithConfig(fn, console, DefaultConfig)
}

func NewWithConfig(fn *ir.Function, console Console, cfg Config) *VM {
	if console == nil {
		console = NewStreamConsole(nil, nil)
	}
	v := &VM{
		fn:      fn,
		console: console,
		cfg:     cfg,
		values:  make(map[string]int64),
		targets: make([][][]int, len(fn.Blocks)),
	}
	for bi, b := range fn.Blocks {
		v.targets[bi] = make([][]int, len(b.Instrs))
		for ii, in := range b.Instrs {
			for _, label := range in.Targets {
				idx, _ := fn.BlockIndex(label)
				v.targets[bi][ii] = append(v.targets[bi][ii], idx)
			}
		}
	}
	if len(fn.Blocks) == 0 {
		v.Halted = true
	}
	return v
}

func (v *VM) fail(in ir.Instr, format string, args ...any) error {
	v.Halted = true
	return &RuntimeError{
		Block: v.fn.Blocks[v.block].Label,
		Line:  in.Line,
		Msg:   fmt.Sprintf(format, args...),
	}
}

func (v *VM) value(in ir.Instr, o ir.Operand) (int64, error) {
	if o.IsImm() {
		return o.Value, nil
	}
	val, ok := v.values[o.Name]
	if !ok {
		return 0, v.fail(in, "value %s is undefined", o.Name)
	}
	return val, nil
}

// cell resolves a pointer operand to its memory index.
func (v *VM) cell(in ir.Instr, o ir.Operand) (int, error) {
	ptr, err := v.value(in, o)
	if err != nil {
		return 0, err
	}
	if ptr < 0 || ptr >= int64(len(v.memory)) {
		return 0, v.fail(in, "invalid pointer %d in %s", ptr, o.Name)
	}
	return int(ptr), nil
}

func (v *VM) jump(block int) {
	v.block = block
	v.pc = 0
}

// Step executes a single instruction.
func (v *VM) Step() error {
	if v.Halted {
		return nil
	}

	b := v.fn.Blocks[v.block]
	if v.pc >= len(b.Instrs) {
		in := ir.Instr{}
		if len(b.Instrs) > 0 {
			in = b.Terminator()
		}
		return v.fail(in, "fell off the end of block %s", b.Label)
	}
	in := b.Instrs[v.pc]
	targets := v.targets[v.block][v.pc]
	v.pc++
	v.Steps++

	switch in.Op {
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpEq:
		a, err := v.value(in, in.Args[0])
		if err != nil {
			return err
		}
		c, err := v.value(in, in.Args[1])
		if err != nil {
			return err
		}
		var res int64
		switch in.Op {
		case ir.OpAdd:
			res = a + c
		case ir.OpSub:
			res = a - c
		case ir.OpMul:
			res = a * c
		case ir.OpEq:
			if a == c {
				res = 1
			}
		}
		v.values[in.Dest] = res

	case ir.OpAlloc:
		v.values[in.Dest] = int64(len(v.memory))
		v.memory = append(v.memory, 0)

	case ir.OpLoad:
		addr, err := v.cell(in, in.Args[0])
		if err != nil {
			return err
		}
		v.values[in.Dest] = v.memory[addr]

	case ir.OpStore:
		addr, err := v.cell(in, in.Args[0])
		if err != nil {
			return err
		}
		val, err := v.value(in, in.Args[1])
		if err != nil {
			return err
		}
		v.memory[addr] = val

	case ir.OpPrint:
		val, err := v.value(in, in.Args[0])
		if err != nil {
			return err
		}
		for _, c := range []byte(strconv.FormatInt(val, 10)) {
			if err := v.console.WriteByte(c); err != nil {
				return v.fail(in, "write failed: %v", err)
			}
		}

	case ir.OpWriteByte:
		val, err := v.value(in, in.Args[0])
		if err != nil {
			return err
		}
		if err := v.console.WriteByte(byte(val)); err != nil {
			return v.fail(in, "write failed: %v", err)
		}

	case ir.OpReadByte:
		c, err := v.console.ReadByte()
		switch {
		case errors.Is(err, io.EOF):
			v.values[in.Dest] = -1
		case err != nil:
			return v.fail(in, "read failed: %v", err)
		default:
			v.values[in.Dest] = int64(c)
		}

	case ir.OpBr:
		cond, err := v.value(in, in.Args[0])
		if err != nil {
			return err
		}
		if cond != 0 {
			v.jump(targets[0])
		} else {
			v.jump(targets[1])
		}

	case ir.OpJmp:
		v.jump(targets[0])

	case ir.OpRet:
		val, err := v.value(in, in.Args[0])
		if err != nil {
			return err
		}
		v.ExitValue = val
		v.Halted = true

	default:
		return v.fail(in, "unknown opcode %s", in.Op)
	}
	return nil
}

// Run steps until the function returns and reports its return value.
func (v *VM) Run() (int64, error) {
	for !v.Halted {
		if v.cfg.MaxSteps > 0 && v.Steps >= v.cfg.MaxSteps {
			return 0, ErrStepLimit
		}
		if err := v.Step(); err != nil {
			return 0, err
		}
	}
	return v.ExitValue, nil
}
