package compiler

// evalConst folds an expression that does not read any variable. It reports
// false as soon as a VarRef is reachable from e.
func evalConst(e Expr) (int64, bool) {
	switch n := e.(type) {
	case *Literal:
		return n.Value, true
	case *VarRef:
		return 0, false
	case *BinaryExpr:
		left, ok := evalConst(n.Left)
		if !ok {
			return 0, false
		}
		right, ok := evalConst(n.Right)
		if !ok {
			return 0, false
		}
		switch n.Op {
		case OpAdd:
			return left + right, true
		case OpSub:
			return left - right, true
		case OpMul:
			return left * right, true
		}
	}
	return 0, false
}

// programUsage is the result of the pre-pass over a whole Program.
type programUsage struct {
	slots    map[int]bool // every slot assigned, read or input
	hasInput bool
}

// scanProgram walks every statement, including conditional bodies, and
// records which slots are used and whether any Input appears.
func scanProgram(prog *Program) programUsage {
	u := programUsage{slots: make(map[int]bool)}
	for _, ns := range prog.Stmts {
		u.scanStmt(ns.Stmt)
	}
	return u
}

func (u *programUsage) scanStmt(s Stmt) {
	switch n := s.(type) {
	case *Assign:
		u.slots[n.Slot] = true
		u.scanExpr(n.Value)
	case *Input:
		u.slots[n.Slot] = true
		u.hasInput = true
	case *PrintNum:
		u.scanExpr(n.Value)
	case *PrintChar:
		u.scanExpr(n.Value)
	case *Conditional:
		u.scanExpr(n.Cond)
		for _, child := range n.Body {
			u.scanStmt(child)
		}
	case *Return:
		u.scanExpr(n.Value)
	}
}

func (u *programUsage) scanExpr(e Expr) {
	switch n := e.(type) {
	case *VarRef:
		u.slots[n.Slot] = true
	case *BinaryExpr:
		u.scanExpr(n.Left)
		u.scanExpr(n.Right)
	}
}
