package micro

import (
	"errors"
	"fmt"
	"strings"

	"github.com/psilLang/brainfuck/pkg/types"
)

// ErrMalformedProgram is returned for arenas whose loop ranges do not nest
var ErrMalformedProgram = errors.New("malformed program")

// Program is a flattened instruction tree
type Program struct {
	Code []Instr
}

// Len returns the number of arena slots
func (p *Program) Len() int {
	return len(p.Code)
}

type compileFrame struct {
	seq  types.Sequence
	next int
	loop int // arena index of the OpLoop, -1 for the top level
}

// Compile flattens seq into a single arena
func Compile(seq types.Sequence) *Program {
	p := &Program{Code: make([]Instr, 0, len(seq))}
	stack := []compileFrame{{seq: seq, loop: -1}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.seq) {
			if top.loop >= 0 {
				p.Code[top.loop].End = len(p.Code)
			}
			stack = stack[:len(stack)-1]
			continue
		}

		t := top.seq[top.next]
		top.next++

		switch tok := t.(type) {
		case types.MovePointer:
			p.Code = append(p.Code, Instr{Op: OpMove, Arg: tok.Delta})
		case types.ModifyCell:
			p.Code = append(p.Code, Instr{Op: OpModify, Arg: tok.Delta})
		case types.WriteByte:
			p.Code = append(p.Code, Instr{Op: OpWrite})
		case types.ReadByte:
			p.Code = append(p.Code, Instr{Op: OpRead})
		case types.Loop:
			p.Code = append(p.Code, Instr{Op: OpLoop})
			stack = append(stack, compileFrame{seq: tok.Body, loop: len(p.Code) - 1})
		default:
			panic(fmt.Sprintf("micro: unknown token %T", t))
		}
	}

	return p
}

// Validate checks that every loop range lies inside its parent
func (p *Program) Validate() error {
	var ends []int
	for pc, in := range p.Code {
		for len(ends) > 0 && pc == ends[len(ends)-1] {
			ends = ends[:len(ends)-1]
		}
		switch in.Op {
		case OpMove, OpModify, OpWrite, OpRead:
		case OpLoop:
			limit := len(p.Code)
			if len(ends) > 0 {
				limit = ends[len(ends)-1]
			}
			if in.End <= pc || in.End > limit {
				return fmt.Errorf("%w: loop at %04X ends at %04X", ErrMalformedProgram, pc, in.End)
			}
			if in.End > pc+1 {
				ends = append(ends, in.End)
			}
		default:
			return fmt.Errorf("%w: unknown opcode %s at %04X", ErrMalformedProgram, in.Op, pc)
		}
	}
	return nil
}

// Disassemble renders the arena one instruction per line, indented by
// loop depth
func Disassemble(p *Program) string {
	var sb strings.Builder
	var ends []int

	for pc, in := range p.Code {
		for len(ends) > 0 && pc >= ends[len(ends)-1] {
			ends = ends[:len(ends)-1]
		}
		fmt.Fprintf(&sb, "%04X: %s%s\n", pc, strings.Repeat("  ", len(ends)), in)
		if in.Op == OpLoop && in.End > pc+1 {
			ends = append(ends, in.End)
		}
	}

	return sb.String()
}
