// Package types defines the instruction tree shared by the parser and the
// evaluators. A program is a Sequence of Tokens; the set of Token kinds is
// closed and every consumer switches over it exhaustively.
package types

import (
	"fmt"
	"strings"
)

// Token is one node of the instruction tree.
type Token interface {
	// String renders the token back to canonical source
	String() string
	// Equal checks structural equality with another token
	Equal(other Token) bool

	token()
}

// Sequence is an ordered list of tokens; a program or a loop body.
type Sequence []Token

// MovePointer moves the data pointer by Delta cells.
// Consecutive > and < are merged into a single node by the parser.
type MovePointer struct {
	Delta int
}

// ModifyCell adds Delta to the current cell, wrapping modulo 256.
// Delta is kept in -255..255 and is never zero.
type ModifyCell struct {
	Delta int
}

// WriteByte emits the current cell.
type WriteByte struct{}

// ReadByte reads one byte into the current cell. EOF leaves the cell alone.
type ReadByte struct{}

// Loop repeats Body while the current cell is nonzero.
type Loop struct {
	Body Sequence
}

func (MovePointer) token() {}
func (ModifyCell) token()  {}
func (WriteByte) token()   {}
func (ReadByte) token()    {}
func (Loop) token()        {}

// IncrementDataPointer returns the node for n consecutive '>'.
func IncrementDataPointer(n int) MovePointer { return MovePointer{Delta: n} }

// DecrementDataPointer returns the node for n consecutive '<'.
func DecrementDataPointer(n int) MovePointer { return MovePointer{Delta: -n} }

// IncrementByte returns the node for n consecutive '+'.
func IncrementByte(n int) ModifyCell { return ModifyCell{Delta: n} }

// DecrementByte returns the node for n consecutive '-'.
func DecrementByte(n int) ModifyCell { return ModifyCell{Delta: -n} }

func (m MovePointer) String() string {
	if m.Delta < 0 {
		return strings.Repeat("<", -m.Delta)
	}
	return strings.Repeat(">", m.Delta)
}

func (m MovePointer) Equal(other Token) bool {
	if o, ok := other.(MovePointer); ok {
		return m == o
	}
	return false
}

func (c ModifyCell) String() string {
	if c.Delta < 0 {
		return strings.Repeat("-", -c.Delta)
	}
	return strings.Repeat("+", c.Delta)
}

func (c ModifyCell) Equal(other Token) bool {
	if o, ok := other.(ModifyCell); ok {
		return c == o
	}
	return false
}

func (WriteByte) String() string { return "." }

func (WriteByte) Equal(other Token) bool {
	_, ok := other.(WriteByte)
	return ok
}

func (ReadByte) String() string { return "," }

func (ReadByte) Equal(other Token) bool {
	_, ok := other.(ReadByte)
	return ok
}

func (l Loop) String() string { return "[" + l.Body.String() + "]" }

func (l Loop) Equal(other Token) bool {
	if o, ok := other.(Loop); ok {
		return l.Body.Equal(o.Body)
	}
	return false
}

// String renders the sequence back to canonical source.
func (s Sequence) String() string {
	var sb strings.Builder
	for _, t := range s {
		sb.WriteString(t.String())
	}
	return sb.String()
}

// Equal reports whether both sequences have the same structure.
// A nil and an empty sequence are equal.
func (s Sequence) Equal(other Sequence) bool {
	if len(s) != len(other) {
		return false
	}
	for i, t := range s {
		if !t.Equal(other[i]) {
			return false
		}
	}
	return true
}

// Count returns the number of tokens in the tree, loop nodes included.
func (s Sequence) Count() int {
	n := 0
	for _, t := range s {
		n++
		if l, ok := t.(Loop); ok {
			n += l.Body.Count()
		}
	}
	return n
}

// Depth returns the deepest loop nesting in the tree.
func (s Sequence) Depth() int {
	depth := 0
	for _, t := range s {
		if l, ok := t.(Loop); ok {
			if d := l.Body.Depth() + 1; d > depth {
				depth = d
			}
		}
	}
	return depth
}

// Stats is a snapshot of evaluator instrumentation.
type Stats struct {
	// InstructionCount counts pointer/cell deltas by magnitude and I/O ops as one
	InstructionCount uint64
	// UsedMemory is the current tape length in cells
	UsedMemory int
}

func (s Stats) String() string {
	return fmt.Sprintf("instructions=%d memory=%d", s.InstructionCount, s.UsedMemory)
}
