package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// SlotTable maps variable slots to the stack cells allocated for them in the
// entry block. Only slots used somewhere in the program get a cell.
type SlotTable struct {
	cells map[int]string
}

func NewSlotTable() *SlotTable {
	return &SlotTable{cells: make(map[int]string)}
}

// cellName is the IR name of the storage cell for slot.
func cellName(slot int) string {
	return fmt.Sprintf("%%var_ptr_%d", slot)
}

// Allocate records a cell for slot and returns its name.
func (s *SlotTable) Allocate(slot int) string {
	name := cellName(slot)
	s.cells[slot] = name
	return name
}

// Lookup returns the cell for slot.
func (s *SlotTable) Lookup(slot int) (string, bool) {
	name, ok := s.cells[slot]
	return name, ok
}

// Slots returns the allocated slots in ascending order.
func (s *SlotTable) Slots() []int {
	slots := make([]int, 0, len(s.cells))
	for slot := range s.cells {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	return slots
}

func (s *SlotTable) Len() int {
	return len(s.cells)
}

func (s *SlotTable) String() string {
	var sb strings.Builder
	sb.WriteString("Slots:\n")
	for _, slot := range s.Slots() {
		fmt.Fprintf(&sb, "  v%-4d -> %s\n", slot, s.cells[slot])
	}
	return sb.String()
}
