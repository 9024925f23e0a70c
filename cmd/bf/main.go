// bf - interpreter for the eight-instruction tape language
// Runs source files, or an interactive shell when no file is given.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/psilLang/brainfuck/pkg/config"
	"github.com/psilLang/brainfuck/pkg/logs"
	"golang.org/x/term"
)

var (
	flagConfig   = flag.String("config", "", "Load settings from a YAML file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging and flat engine tracing (same as -log-level debug)")
	flagQuiet    = flag.Bool("quiet", false, "Quiet mode (no banner)")
	flagMemory   = flag.Int("memory", config.DefaultMemoryLimit, "Tape limit in cells (0 = largest supported tape)")
	flagEngine   = flag.String("engine", config.EngineTree, "Execution engine: tree or flat")
	flagDump     = flag.Bool("dump", false, "Print the flat disassembly of each file instead of running it")
	flagStats    = flag.Bool("stats", false, "Print execution statistics after each run")
	flagLogLevel = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	flagLogFile  = flag.String("log-file", "", "Also write JSON logs to this file")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	logger, closer, err := logs.New(logs.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer closer.Close()

	stdin := bufio.NewReader(os.Stdin)
	s, err := newSession(cfg, stdin, os.Stdout, os.Stderr, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	args := flag.Args()
	if len(args) == 0 {
		// a piped shell shares stdin with the programs it runs
		var piped *bufio.Reader
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			piped = stdin
		}
		code := runREPL(s, piped)
		closer.Close()
		os.Exit(code)
	}

	for _, filename := range args {
		if err := s.runFile(filename, *flagDump); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			closer.Close()
			os.Exit(1)
		}
	}
}

// loadConfig reads -config, then applies the flags that were set explicitly
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *flagConfig != "" {
		var err error
		if cfg, err = config.Load(*flagConfig); err != nil {
			return cfg, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "memory":
			cfg.MemoryLimit = *flagMemory
		case "engine":
			cfg.Engine = *flagEngine
		case "stats":
			cfg.Stats = *flagStats
		case "quiet":
			cfg.REPL.Quiet = *flagQuiet
		case "log-level":
			cfg.Log.Level = *flagLogLevel
		case "log-file":
			cfg.Log.File = *flagLogFile
		}
	})
	if *flagDebug {
		cfg.Log.Level = "debug"
	}

	return cfg, cfg.Validate()
}
