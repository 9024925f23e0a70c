// Package interpreter provides the execution engine.
// It owns the tape, the data pointer, the instruction counter and the
// input/output streams.
package interpreter

import (
	"io"
	"log/slog"

	"github.com/psilLang/brainfuck/pkg/types"
)

const (
	// initialCapacity is preallocated for the tape; its length still starts at 1
	initialCapacity = 64

	// MaxTapeLength is the largest tape in cells, with or without a MemoryLimit
	MaxTapeLength = 1 << 30
)

// Interpreter is the execution engine
type Interpreter struct {
	// memory is the tape; it only grows until Reset
	memory []byte

	// pointer indexes the current cell
	pointer int

	// instructions counts executed instruction-equivalents
	instructions uint64

	// MemoryLimit caps the tape length in cells (0 = MaxTapeLength)
	MemoryLimit int

	input  io.Reader
	output io.Writer
	logger *slog.Logger

	buf [1]byte
}

// Option configures an Interpreter
type Option func(*Interpreter)

// WithLogger sets the logger used for debug tracing
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithMemoryLimit caps the tape at cells cells (0 = MaxTapeLength)
func WithMemoryLimit(cells int) Option {
	return func(i *Interpreter) {
		i.MemoryLimit = cells
	}
}

// New creates an Interpreter reading from input and writing to output.
// A nil input behaves as an empty stream, a nil output discards.
func New(input io.Reader, output io.Writer, opts ...Option) *Interpreter {
	interp := &Interpreter{
		memory: make([]byte, 1, initialCapacity),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	interp.SetInput(input)
	interp.SetOutput(output)

	for _, opt := range opts {
		opt(interp)
	}

	return interp
}

// SetInput replaces the input stream
func (i *Interpreter) SetInput(input io.Reader) {
	if input == nil {
		input = eofReader{}
	}
	i.input = input
}

// SetOutput replaces the output stream
func (i *Interpreter) SetOutput(output io.Writer) {
	if output == nil {
		output = io.Discard
	}
	i.output = output
}

// Reset restores a single zero cell, the pointer and the counters.
// Streams are kept.
func (i *Interpreter) Reset() {
	i.memory = make([]byte, 1, initialCapacity)
	i.pointer = 0
	i.instructions = 0
}

// Stats returns a snapshot of the execution statistics
func (i *Interpreter) Stats() types.Stats {
	return types.Stats{
		InstructionCount: i.instructions,
		UsedMemory:       len(i.memory),
	}
}

// Pointer returns the data pointer
func (i *Interpreter) Pointer() int {
	return i.pointer
}

// Cell returns the current cell
func (i *Interpreter) Cell() byte {
	return i.memory[i.pointer]
}

// Memory returns a copy of the tape
func (i *Interpreter) Memory() []byte {
	out := make([]byte, len(i.memory))
	copy(out, i.memory)
	return out
}

// ceiling returns the highest addressable cell index
func (i *Interpreter) ceiling() int {
	if i.MemoryLimit > 0 && i.MemoryLimit < MaxTapeLength {
		return i.MemoryLimit - 1
	}
	return MaxTapeLength - 1
}

// MovePointer moves the data pointer by delta, growing the tape with zero
// cells as needed. The pointer is left unchanged on error.
func (i *Interpreter) MovePointer(delta int) error {
	var magnitude uint64
	if delta < 0 {
		if delta < -i.pointer {
			return types.ErrDataPointerOutsideMemory
		}
		magnitude = uint64(-delta)
	} else {
		if delta > i.ceiling()-i.pointer {
			return types.ErrDataPointerOutsideMemory
		}
		magnitude = uint64(delta)
	}

	i.pointer += delta
	if i.pointer >= len(i.memory) {
		i.memory = append(i.memory, make([]byte, i.pointer+1-len(i.memory))...)
	}
	i.instructions += magnitude
	return nil
}

// ModifyCell adds delta to the current cell modulo 256
func (i *Interpreter) ModifyCell(delta int) {
	i.memory[i.pointer] = byte(int(i.memory[i.pointer]) + delta)
	if delta < 0 {
		i.instructions += uint64(-delta)
	} else {
		i.instructions += uint64(delta)
	}
}

// WriteCell writes the current cell and flushes the output
func (i *Interpreter) WriteCell() error {
	i.buf[0] = i.memory[i.pointer]
	if _, err := i.output.Write(i.buf[:]); err != nil {
		return &types.WriteError{Err: err}
	}
	if f, ok := i.output.(flusher); ok {
		if err := f.Flush(); err != nil {
			return &types.WriteError{Err: err}
		}
	}
	i.instructions++
	return nil
}

// ReadCell reads one byte into the current cell.
// On EOF or a read failure the cell is left unchanged.
func (i *Interpreter) ReadCell() {
	i.instructions++
	if b, ok := readOne(i.input, i.buf[:]); ok {
		i.memory[i.pointer] = b
	}
}
