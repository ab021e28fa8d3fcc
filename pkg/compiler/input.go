package compiler

import "fmt"

// Scratch cells used by the input automaton. They are allocated in the entry
// block only when the program reads input, and are not variable slots.
const (
	inputAccCell  = "%input_acc"
	inputByteCell = "%input_byte"
)

// genInput lowers 엄식? into a small automaton that skips spaces and
// newlines, then accumulates decimal digits until the first non-digit:
//
//	input_skip_k  -> read a byte, loop while it is ' ' or '\n'
//	input_start_k -> enter the digit loop
//	input_loop_k  -> branch on whether the byte is '0'..'9'
//	input_digit_k -> acc = acc*10 + (byte-'0'), read the next byte
//	input_done_k  -> store acc into the slot
//
// The bytes consumed are not pushed back; the byte that ends the number is
// lost.
func (cg *CodeGen) genInput(slot int) error {
	ptr, err := cg.cell(slot)
	if err != nil {
		return err
	}

	k := cg.newBlock()
	skip := fmt.Sprintf("input_skip_%d", k)
	start := fmt.Sprintf("input_start_%d", k)
	loop := fmt.Sprintf("input_loop_%d", k)
	digit := fmt.Sprintf("input_digit_%d", k)
	done := fmt.Sprintf("input_done_%d", k)

	cg.inst("store.i64 %s, 0", inputAccCell)
	cg.inst("jmp %s", skip)

	cg.label(skip)
	b := cg.newTemp()
	cg.inst("%s = readbyte", b)
	cg.inst("store.i64 %s, %s", inputByteCell, b)
	ws := cg.anyEqual(b, ' ', '\n')
	cg.inst("br %s, %s, %s", ws, skip, start)

	cg.label(start)
	cg.inst("jmp %s", loop)

	cg.label(loop)
	cur := cg.newTemp()
	cg.inst("%s = load.i64 %s", cur, inputByteCell)
	isDigit := cg.anyEqual(cur, '0', '1', '2', '3', '4', '5', '6', '7', '8', '9')
	cg.inst("br %s, %s, %s", isDigit, digit, done)

	cg.label(digit)
	acc := cg.newTemp()
	cg.inst("%s = load.i64 %s", acc, inputAccCell)
	scaled := cg.newTemp()
	cg.inst("%s = mul.i64 %s, 10", scaled, acc)
	db := cg.newTemp()
	cg.inst("%s = load.i64 %s", db, inputByteCell)
	val := cg.newTemp()
	cg.inst("%s = sub.i64 %s, 48", val, db)
	sum := cg.newTemp()
	cg.inst("%s = add.i64 %s, %s", sum, scaled, val)
	cg.inst("store.i64 %s, %s", inputAccCell, sum)
	next := cg.newTemp()
	cg.inst("%s = readbyte", next)
	cg.inst("store.i64 %s, %s", inputByteCell, next)
	cg.inst("jmp %s", loop)

	cg.label(done)
	result := cg.newTemp()
	cg.inst("%s = load.i64 %s", result, inputAccCell)
	cg.inst("store.i64 %s, %s", ptr, result)
	return nil
}

// anyEqual emits eq.i64 of v against each byte and ORs the results. The
// comparisons are mutually exclusive, so add.i64 serves as the OR and the
// result is always 0 or 1.
func (cg *CodeGen) anyEqual(v string, bytes ...byte) string {
	var acc string
	for _, c := range bytes {
		eq := cg.newTemp()
		cg.inst("%s = eq.i64 %s, %d", eq, v, c)
		if acc == "" {
			acc = eq
			continue
		}
		or := cg.newTemp()
		cg.inst("%s = add.i64 %s, %s", or, acc, eq)
		acc = or
	}
	return acc
}
