// Package micro runs programs from a flat instruction arena.
// Loops are stored as index ranges into the arena, so execution needs no
// host recursion regardless of nesting depth.
package micro

import "fmt"

// Op is an arena opcode
type Op byte

// Opcodes
const (
	OpMove   Op = iota // Arg: pointer delta
	OpModify           // Arg: cell delta
	OpWrite            // emit current cell
	OpRead             // read into current cell
	OpLoop             // End: index one past the loop body
)

var opNames = [...]string{
	OpMove:   "move",
	OpModify: "add",
	OpWrite:  "out",
	OpRead:   "in",
	OpLoop:   "loop",
}

// String returns the mnemonic for op
func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op.%02X", byte(op))
}

// Instr is one arena slot
type Instr struct {
	Op  Op
	Arg int
	// End is only meaningful for OpLoop. The body of the loop at index i
	// is Code[i+1 : End].
	End int
}

func (in Instr) String() string {
	switch in.Op {
	case OpMove, OpModify:
		return fmt.Sprintf("%s %+d", in.Op, in.Arg)
	case OpLoop:
		return fmt.Sprintf("%s ->%04X", in.Op, in.End)
	default:
		return in.Op.String()
	}
}
