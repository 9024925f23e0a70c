package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/psilLang/brainfuck/pkg/config"
	"github.com/psilLang/brainfuck/pkg/logs"
	"github.com/psilLang/brainfuck/pkg/micro"
)

// lineReader is satisfied by *liner.State and pipeReader
type lineReader interface {
	Prompt(prompt string) (string, error)
}

// pipeReader reads shell lines from the same buffer the program's ','
// reads from, so piped input is split between them in order
type pipeReader struct {
	r *bufio.Reader
}

func (p pipeReader) Prompt(string) (string, error) {
	line, err := p.r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// runREPL reads programs from a terminal through liner, or from piped
// when stdin is not a terminal
func runREPL(s *session, piped *bufio.Reader) int {
	if !s.cfg.REPL.Quiet {
		printBanner(s.msg)
	}

	if piped != nil {
		return loopREPL(s, pipeReader{piped}, nil)
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := historyPath(s.cfg.REPL.History)
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer saveHistory(ln, histPath)
	}

	// a runaway loop can only be stopped by leaving the process
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		saveHistory(ln, histPath)
		ln.Close()
		os.Exit(130)
	}()

	return loopREPL(s, ln, ln.AppendHistory)
}

func loopREPL(s *session, lines lineReader, remember func(string)) int {
	for {
		code, ok := readProgram(lines, s.cfg.REPL.Prompt, s.cfg.REPL.Continue)
		if !ok {
			fmt.Fprintln(s.msg)
			return 0
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		if remember != nil {
			remember(strings.ReplaceAll(code, "\n", " "))
		}

		if handled, quit := handleCommand(s, code); quit {
			return 0
		} else if handled {
			continue
		}

		executeREPL(s, code)
	}
}

func saveHistory(ln *liner.State, path string) {
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
}

// readProgram reads lines until every '[' is closed
func readProgram(ln lineReader, prompt, cont string) (string, bool) {
	var b strings.Builder
	depth := 0

	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := ln.Prompt(p)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return b.String(), true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		depth += bracketDepth(line)
		if depth <= 0 {
			return b.String(), true
		}
	}
}

// bracketDepth returns opened minus closed loops on line
func bracketDepth(line string) int {
	return strings.Count(line, "[") - strings.Count(line, "]")
}

// handleCommand runs shell commands. quit reports a request to leave.
func handleCommand(s *session, line string) (handled, quit bool) {
	trimmed := strings.TrimSpace(line)
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return true, false
	}

	switch strings.ToLower(fields[0]) {
	case ":help", ":h", ":?":
		printHelp(s.msg)

	case ":quit", ":q", ":exit", "exit", "quit":
		fmt.Fprintln(s.msg, "Goodbye!")
		return true, true

	case ":reset", ":r", "reset":
		s.interp.Reset()
		fmt.Fprintln(s.msg, "state reset")

	case ":stats", ":s":
		fmt.Fprintln(s.msg, formatStats(s.interp.Stats()))
		hits, misses := s.cache.HitRate()
		fmt.Fprintf(s.msg, "parse cache: %d entries, %d hits, %d misses\n", s.cache.Len(), hits, misses)

	case ":memory", ":m":
		fmt.Fprintf(s.msg, "pointer %d\n", s.interp.Pointer())
		fmt.Fprintln(s.msg, formatMemory(s.interp.Memory(), s.interp.Pointer(), 8))

	case ":dump", ":d":
		source := strings.TrimSpace(strings.TrimPrefix(trimmed, fields[0]))
		seq, err := s.cache.Parse(source)
		if err != nil {
			fmt.Fprintf(s.msg, "Parse error: %v\n", describe(err))
			break
		}
		fmt.Fprint(s.msg, micro.Disassemble(micro.Compile(seq)))

	case ":load", ":l":
		if len(fields) < 2 {
			fmt.Fprintln(s.msg, "Usage: :load <filename>")
			break
		}
		if err := s.runFile(fields[1], false); err != nil {
			fmt.Fprintf(s.msg, "Error: %v\n", err)
		}

	case ":save":
		if len(fields) < 2 {
			fmt.Fprintln(s.msg, "Usage: :save <filename>")
			break
		}
		if err := s.cfg.Write(fields[1]); err != nil {
			fmt.Fprintf(s.msg, "Error: %v\n", err)
			break
		}
		fmt.Fprintf(s.msg, "settings written to %s\n", fields[1])

	case ":log":
		if len(fields) < 2 {
			fmt.Fprintf(s.msg, "Log level: %s\n", s.cfg.Log.Level)
			break
		}
		level, err := logs.ParseLevel(fields[1])
		if err != nil {
			fmt.Fprintf(s.msg, "Error: %v\n", err)
			break
		}
		logs.Level.Set(level)
		s.cfg.Log.Level = strings.ToLower(fields[1])
		fmt.Fprintf(s.msg, "Log level set to %s\n", s.cfg.Log.Level)

	case ":engine", ":e":
		if len(fields) < 2 {
			fmt.Fprintf(s.msg, "Engine: %s\n", s.cfg.Engine)
			break
		}
		switch engine := strings.ToLower(fields[1]); engine {
		case config.EngineTree, config.EngineFlat:
			s.cfg.Engine = engine
			fmt.Fprintf(s.msg, "Engine set to %s\n", engine)
		default:
			fmt.Fprintf(s.msg, "Unknown engine %q (tree or flat)\n", fields[1])
		}

	default:
		return false, false
	}

	return true, false
}

func executeREPL(s *session, source string) {
	seq, err := s.cache.Parse(source)
	if err != nil {
		fmt.Fprintf(s.msg, "Parse error: %v\n", describe(err))
		return
	}

	if err := s.execute(seq); err != nil {
		fmt.Fprintf(s.msg, "Error: %v\n", err)
		return
	}

	if s.cfg.Stats {
		fmt.Fprintf(s.msg, "  => %s\n", formatStats(s.interp.Stats()))
	}
}

// historyPath places relative history files in the home directory
func historyPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, name)
}

func printBanner(w io.Writer) {
	fmt.Fprint(w, `
Tape language interpreter. Type :help for commands, :quit to exit.
State (tape, pointer, statistics) persists between lines until :reset.
`)
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `
Commands:
  :help, :h, :?       Show this help
  :quit, :q, exit     Exit
  :reset, :r, reset   Reset tape, pointer and statistics
  :stats, :s          Show execution statistics
  :memory, :m         Show the cells around the data pointer
  :dump <code>        Show the flat disassembly of code
  :load <file>        Load and execute a file
  :engine [tree|flat] Show or select the execution engine
  :log [level]        Show or change the log level
  :save <file>        Write the current settings as YAML

Language:
  >  <    Move the data pointer right / left
  +  -    Increment / decrement the current cell (wraps at 256)
  .  ,    Write / read one byte
  [  ]    Loop while the current cell is nonzero
  Everything else is a comment.
`)
}
