package types

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// ParseError is implemented by every error Parse can return.
type ParseError interface {
	error
	parseError()
}

// RuntimeError is implemented by every error an evaluator can return.
type RuntimeError interface {
	error
	runtimeError()
}

type parseSentinel string

func (e parseSentinel) Error() string { return string(e) }
func (parseSentinel) parseError()     {}

type runtimeSentinel string

func (e runtimeSentinel) Error() string { return string(e) }
func (runtimeSentinel) runtimeError()   {}

// Parse errors
const (
	ErrDataPointerIncrementOverflow = parseSentinel("data pointer increment overflow")
	ErrDataPointerDecrementOverflow = parseSentinel("data pointer decrement overflow")
)

// Runtime errors
const (
	ErrDataPointerOutsideMemory = runtimeSentinel("data pointer outside available memory")
	ErrEmptyLoop                = runtimeSentinel("interpreter stuck in an empty loop")
)

// UnmatchedSymbolError reports a ']' with no open loop, or a '[' that was
// never closed. Pos is the position of the offending bracket; for '[' it is
// the innermost unclosed one.
type UnmatchedSymbolError struct {
	Symbol byte
	Pos    lexer.Position
}

func (e *UnmatchedSymbolError) Error() string {
	return fmt.Sprintf("unmatched `%c`", e.Symbol)
}

// ErrorAt includes the source position.
func (e *UnmatchedSymbolError) ErrorAt() string {
	return fmt.Sprintf("%d:%d: unmatched `%c`", e.Pos.Line, e.Pos.Column, e.Symbol)
}

func (*UnmatchedSymbolError) parseError() {}

// WriteError wraps a failure of the output stream.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return "output error: " + e.Err.Error() }
func (e *WriteError) Unwrap() error { return e.Err }
func (*WriteError) runtimeError()   {}

// IsParseError reports whether err, or anything it wraps, came from the parser.
func IsParseError(err error) bool {
	var pe ParseError
	return errors.As(err, &pe)
}

// IsRuntimeError reports whether err, or anything it wraps, came from an evaluator.
func IsRuntimeError(err error) bool {
	var re RuntimeError
	return errors.As(err, &re)
}
