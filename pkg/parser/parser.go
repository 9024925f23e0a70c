// Package parser turns source text into an instruction tree.
// Tokenizing is done with the Participle lexer; bracket matching and
// run-length merging are done with an explicit stack of frames.
package parser

import (
	"fmt"
	"math"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/psilLang/brainfuck/pkg/types"
)

// Lexer definition. Anything that is not one of the eight operators is a
// comment, so lexing never fails.
var bfLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Op", Pattern: `[<>+\-.,\[\]]`},
	{Name: "Comment", Pattern: `[^<>+\-.,\[\]]+`},
})

var opType = bfLexer.Symbols()["Op"]

// frame is a loop body under construction
type frame struct {
	seq  types.Sequence
	open lexer.Position
}

// Parse parses source into an instruction sequence
func Parse(source string) (types.Sequence, error) {
	return ParseNamed("", source)
}

// ParseNamed is Parse with a filename recorded in error positions
func ParseNamed(filename, source string) (types.Sequence, error) {
	lex, err := bfLexer.LexString(filename, source)
	if err != nil {
		return nil, fmt.Errorf("lexing %s: %w", filename, err)
	}

	stack := []frame{{seq: types.Sequence{}}}

	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, fmt.Errorf("lexing %s: %w", filename, err)
		}
		if tok.EOF() {
			break
		}
		if tok.Type != opType {
			continue
		}

		top := &stack[len(stack)-1]

		switch tok.Value[0] {
		case '>':
			top.seq, err = movePointer(top.seq, 1)
		case '<':
			top.seq, err = movePointer(top.seq, -1)
		case '+':
			top.seq = modifyCell(top.seq, 1)
		case '-':
			top.seq = modifyCell(top.seq, -1)
		case '.':
			top.seq = append(top.seq, types.WriteByte{})
		case ',':
			top.seq = append(top.seq, types.ReadByte{})
		case '[':
			stack = append(stack, frame{seq: types.Sequence{}, open: tok.Pos})
		case ']':
			if len(stack) == 1 {
				return nil, &types.UnmatchedSymbolError{Symbol: ']', Pos: tok.Pos}
			}
			body := top.seq
			stack = stack[:len(stack)-1]
			parent := &stack[len(stack)-1]
			parent.seq = append(parent.seq, types.Loop{Body: body})
		}
		if err != nil {
			return nil, err
		}
	}

	if len(stack) > 1 {
		return nil, &types.UnmatchedSymbolError{Symbol: '[', Pos: stack[len(stack)-1].open}
	}

	return stack[0].seq, nil
}

// movePointer merges a unit pointer step into the tail of seq
func movePointer(seq types.Sequence, step int) (types.Sequence, error) {
	if n := len(seq); n > 0 {
		if m, ok := seq[n-1].(types.MovePointer); ok {
			switch {
			case step > 0 && m.Delta == math.MaxInt:
				return seq, types.ErrDataPointerIncrementOverflow
			case step < 0 && m.Delta == -math.MaxInt:
				return seq, types.ErrDataPointerDecrementOverflow
			}
			m.Delta += step
			if m.Delta == 0 {
				return seq[:n-1], nil
			}
			seq[n-1] = m
			return seq, nil
		}
	}
	return append(seq, types.MovePointer{Delta: step}), nil
}

// modifyCell merges a unit cell step into the tail of seq, folding mod 256
func modifyCell(seq types.Sequence, step int) types.Sequence {
	if n := len(seq); n > 0 {
		if c, ok := seq[n-1].(types.ModifyCell); ok {
			c.Delta = (c.Delta + step) % 256
			if c.Delta == 0 {
				return seq[:n-1]
			}
			seq[n-1] = c
			return seq
		}
	}
	return append(seq, types.ModifyCell{Delta: step})
}
