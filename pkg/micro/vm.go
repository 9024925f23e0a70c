package micro

import (
	"fmt"
	"io"

	"github.com/psilLang/brainfuck/pkg/interpreter"
	"github.com/psilLang/brainfuck/pkg/types"
)

// VM executes arena programs against an interpreter's tape and streams.
// Results, errors and statistics match Interpreter.Interpret on the same
// tree.
type VM struct {
	interp *interpreter.Interpreter

	// loops holds the arena indices of the loops being executed
	loops []int

	// Steps counts dispatched arena instructions
	Steps uint64

	// Trace receives one line per dispatched instruction when set
	Trace io.Writer
}

// NewVM creates a VM bound to interp
func NewVM(interp *interpreter.Interpreter) *VM {
	return &VM{
		interp: interp,
		loops:  make([]int, 0, 16),
	}
}

// Interpreter returns the bound interpreter
func (vm *VM) Interpreter() *interpreter.Interpreter {
	return vm.interp
}

// Run executes p from the start
func (vm *VM) Run(p *Program) error {
	if err := p.Validate(); err != nil {
		return err
	}

	code := p.Code
	pc := 0
	vm.loops = vm.loops[:0]

	for {
		// close or repeat finished loop bodies
		for len(vm.loops) > 0 {
			loop := vm.loops[len(vm.loops)-1]
			if pc != code[loop].End {
				break
			}
			if vm.interp.Cell() != 0 {
				pc = loop + 1
				break
			}
			vm.loops = vm.loops[:len(vm.loops)-1]
		}

		if pc >= len(code) {
			return nil
		}

		in := code[pc]
		vm.Steps++
		if vm.Trace != nil {
			fmt.Fprintf(vm.Trace, "%04X: %-12s ptr=%d cell=%d\n", pc, in, vm.interp.Pointer(), vm.interp.Cell())
		}

		switch in.Op {
		case OpMove:
			if err := vm.interp.MovePointer(in.Arg); err != nil {
				return err
			}
		case OpModify:
			vm.interp.ModifyCell(in.Arg)
		case OpWrite:
			if err := vm.interp.WriteCell(); err != nil {
				return err
			}
		case OpRead:
			vm.interp.ReadCell()
		case OpLoop:
			if vm.interp.Cell() == 0 {
				pc = in.End
				continue
			}
			if in.End == pc+1 {
				return types.ErrEmptyLoop
			}
			vm.loops = append(vm.loops, pc)
		}
		pc++
	}
}
