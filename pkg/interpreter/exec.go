package interpreter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/psilLang/brainfuck/pkg/types"
)

// Interpret executes a program against the current state. Errors abort
// execution immediately; output already written and cells already changed
// are kept.
func (i *Interpreter) Interpret(seq types.Sequence) error {
	debug := i.logger.Enabled(context.Background(), slog.LevelDebug)
	if debug {
		i.logger.Debug("interpret",
			"tokens", seq.Count(),
			"depth", seq.Depth(),
			"pointer", i.pointer,
		)
	}

	err := i.Run(seq)

	if debug {
		stats := i.Stats()
		i.logger.Debug("interpret done",
			"instructions", stats.InstructionCount,
			"memory", stats.UsedMemory,
			"pointer", i.pointer,
			"error", err,
		)
	}
	return err
}

// Run executes every token of seq in order
func (i *Interpreter) Run(seq types.Sequence) error {
	for _, t := range seq {
		if err := i.Execute(t); err != nil {
			return err
		}
	}
	return nil
}

// Execute executes a single token
func (i *Interpreter) Execute(t types.Token) error {
	switch tok := t.(type) {
	case types.MovePointer:
		return i.MovePointer(tok.Delta)

	case types.ModifyCell:
		i.ModifyCell(tok.Delta)

	case types.WriteByte:
		return i.WriteCell()

	case types.ReadByte:
		i.ReadCell()

	case types.Loop:
		for i.Cell() != 0 {
			// only checked once the loop is entered
			if len(tok.Body) == 0 {
				return types.ErrEmptyLoop
			}
			if err := i.Run(tok.Body); err != nil {
				return err
			}
		}

	default:
		panic(fmt.Sprintf("interpreter: unknown token %T", t))
	}

	return nil
}
