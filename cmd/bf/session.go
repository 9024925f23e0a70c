package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/psilLang/brainfuck/pkg/config"
	"github.com/psilLang/brainfuck/pkg/interpreter"
	"github.com/psilLang/brainfuck/pkg/micro"
	"github.com/psilLang/brainfuck/pkg/parser"
	"github.com/psilLang/brainfuck/pkg/types"
)

// session is one interpreter plus everything the shell needs around it
type session struct {
	cfg    config.Config
	interp *interpreter.Interpreter
	vm     *micro.VM
	cache  *parser.Cache
	logger *slog.Logger

	// out receives program output, msg receives shell messages
	out io.Writer
	msg io.Writer
}

func newSession(cfg config.Config, in io.Reader, out, msg io.Writer, logger *slog.Logger) (*session, error) {
	cache, err := parser.NewCache(cfg.REPL.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating parse cache: %w", err)
	}

	interp := interpreter.New(in, out,
		interpreter.WithLogger(logger),
		interpreter.WithMemoryLimit(cfg.MemoryLimit),
	)

	vm := micro.NewVM(interp)
	if cfg.Log.Level == "debug" {
		vm.Trace = msg
	}

	return &session{
		cfg:    cfg,
		interp: interp,
		vm:     vm,
		cache:  cache,
		logger: logger,
		out:    out,
		msg:    msg,
	}, nil
}

// execute runs seq on the configured engine
func (s *session) execute(seq types.Sequence) error {
	if s.cfg.Engine == config.EngineFlat {
		return s.vm.Run(micro.Compile(seq))
	}
	return s.interp.Interpret(seq)
}

func (s *session) runFile(filename string, dump bool) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}

	return s.runSource(filename, string(data), dump)
}

func (s *session) runSource(filename, source string, dump bool) error {
	seq, err := parser.ParseNamed(filename, source)
	if err != nil {
		return fmt.Errorf("parse error in %s: %w", filename, describe(err))
	}
	s.logger.Debug("parsed", "file", filename, "tokens", len(seq), "bytes", len(source))

	if dump {
		fmt.Fprint(s.out, micro.Disassemble(micro.Compile(seq)))
		return nil
	}

	if err := s.execute(seq); err != nil {
		return fmt.Errorf("runtime error in %s: %w", filename, err)
	}

	if s.cfg.Stats {
		fmt.Fprintln(s.msg, formatStats(s.interp.Stats()))
	}
	return nil
}

// positioned prints a bracket error with its line and column
type positioned struct {
	*types.UnmatchedSymbolError
}

func (p positioned) Error() string { return p.ErrorAt() }
func (p positioned) Unwrap() error { return p.UnmatchedSymbolError }

// describe adds the source position to bracket errors
func describe(err error) error {
	if u, ok := err.(*types.UnmatchedSymbolError); ok {
		return positioned{u}
	}
	return err
}

func formatStats(stats types.Stats) string {
	return fmt.Sprintf("%s instructions, %s memory (%s cells)",
		humanize.Comma(int64(stats.InstructionCount)),
		humanize.IBytes(uint64(stats.UsedMemory)),
		humanize.Comma(int64(stats.UsedMemory)),
	)
}

// formatMemory renders the cells around the pointer, marking the current one
func formatMemory(memory []byte, pointer, radius int) string {
	start := pointer - radius
	if start < 0 {
		start = 0
	}
	end := pointer + radius + 1
	if end > len(memory) {
		end = len(memory)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%04d:", start)
	for i := start; i < end; i++ {
		if i == pointer {
			fmt.Fprintf(&sb, " [%03d]", memory[i])
		} else {
			fmt.Fprintf(&sb, " %03d", memory[i])
		}
	}
	return sb.String()
}
