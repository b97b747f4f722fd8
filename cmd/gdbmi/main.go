// Package main is the command-line driver for the gdbmi debugger engine.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dshills/gdbmi/internal/config"
	"github.com/dshills/gdbmi/internal/gdb"
	"github.com/dshills/gdbmi/internal/log"
	"github.com/dshills/gdbmi/internal/script"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

type options struct {
	configPath string
	gdbPath    string
	scriptPath string
	logLevel   string
	timeout    time.Duration
	showOutput bool
	target     string
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Flags override file and environment.
	if opts.gdbPath != "" {
		cfg.GDBPath = opts.gdbPath
	}
	if opts.scriptPath != "" {
		cfg.Script = opts.scriptPath
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.timeout > 0 {
		cfg.CommandTimeout = config.Duration(opts.timeout)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger := log.New(log.ParseLevel(cfg.LogLevel), os.Stderr)

	session := gdb.NewSession(gdb.Config{
		GDBPath:        cfg.GDBPath,
		CommandTimeout: cfg.CommandTimeout.Std(),
		ShutdownGrace:  cfg.ShutdownGrace.Std(),
		Logger:         logger,
	})

	var hooks *script.Hooks
	if cfg.Script != "" {
		hooks, err = script.Load(cfg.Script)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer hooks.Close()
	}

	if opts.showOutput {
		cancelOut := session.OnOutput(func(line string) {
			fmt.Println(line)
		})
		defer cancelOut()
	}

	cancelState := session.OnStateChanged(func(st gdb.State) {
		switch st.Status {
		case gdb.StatusStopped:
			fmt.Printf("stopped at %s:%d in %s\n", st.File, st.Line, st.Function)
		default:
			fmt.Printf("%s\n", st.Status)
		}
		if hooks == nil {
			return
		}
		var hookErr error
		switch st.Status {
		case gdb.StatusStopped:
			hookErr = hooks.OnStop(st.File, st.Line, st.Function)
		case gdb.StatusRunning:
			hookErr = hooks.OnRunning()
		case gdb.StatusExited:
			hookErr = hooks.OnExit()
		}
		if hookErr != nil {
			logger.Warn("script hook: %v", hookErr)
		}
	})
	defer cancelState()

	if err := session.Start(opts.target); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer session.Shutdown()

	// Graceful shutdown on interrupt.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		session.Shutdown()
		os.Exit(0)
	}()

	return repl(session)
}

// repl reads commands from stdin until quit or end of input. Unknown verbs
// pass through to the backend verbatim.
func repl(session *gdb.Session) int {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Print("(gdbmi) ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("(gdbmi) ")
			continue
		}
		if line == "quit" || line == "exit" {
			return 0
		}

		if err := execute(session, line); err != nil {
			if errors.Is(err, gdb.ErrNotConnected) {
				fmt.Fprintf(os.Stderr, "Error: backend is gone: %v\n", err)
				return 1
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		fmt.Print("(gdbmi) ")
	}
	return 0
}

// execute maps one command line onto the typed query surface.
func execute(session *gdb.Session, line string) error {
	ctx := context.Background()
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch verb {
	case "break":
		return cmdBreak(ctx, session, rest)
	case "delete":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("usage: delete NUMBER")
		}
		return session.DeleteBreakpoint(ctx, n)
	case "watch":
		return cmdWatch(ctx, session, rest)
	case "run":
		return session.Run()
	case "interrupt":
		return session.Pause()
	case "next":
		return session.StepOver()
	case "step":
		return session.StepInto()
	case "finish":
		return session.StepOut()
	case "continue":
		return session.Continue()
	case "print":
		value, err := session.Evaluate(ctx, rest)
		if err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", rest, value)
		return nil
	case "stack":
		return cmdStack(ctx, session)
	case "vars":
		return cmdVars(ctx, session)
	case "regs":
		return cmdRegs(ctx, session, rest)
	case "mem":
		return cmdMem(ctx, session, rest)
	default:
		// Raw passthrough, MI verbs and console commands alike.
		return session.Send(line)
	}
}

// cmdBreak parses "file:line [condition...]".
func cmdBreak(ctx context.Context, session *gdb.Session, args string) error {
	loc, cond, _ := strings.Cut(args, " ")
	file, lineStr, ok := strings.Cut(loc, ":")
	if !ok {
		return fmt.Errorf("usage: break FILE:LINE [CONDITION]")
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil {
		return fmt.Errorf("bad line number %q", lineStr)
	}

	bp, err := session.SetBreakpoint(ctx, file, line, strings.TrimSpace(cond))
	if err != nil {
		return err
	}
	fmt.Printf("breakpoint %d at %s:%d\n", bp.Number, bp.File, bp.Line)
	return nil
}

// cmdWatch parses "[-r|-a] expression".
func cmdWatch(ctx context.Context, session *gdb.Session, args string) error {
	kind := gdb.WatchWrite
	if flag, rest, ok := strings.Cut(args, " "); ok {
		switch flag {
		case "-r":
			kind, args = gdb.WatchRead, rest
		case "-a":
			kind, args = gdb.WatchAccess, rest
		}
	}
	if args == "" {
		return fmt.Errorf("usage: watch [-r|-a] EXPRESSION")
	}

	wp, err := session.SetWatchpoint(ctx, args, kind)
	if err != nil {
		return err
	}
	fmt.Printf("watchpoint %d (%s) on %s\n", wp.Number, wp.Kind, wp.Expression)
	return nil
}

func cmdStack(ctx context.Context, session *gdb.Session) error {
	frames, err := session.CallStack(ctx)
	if err != nil {
		return err
	}
	for _, f := range frames {
		fmt.Printf("#%d  %s in %s at %s:%d\n", f.Level, f.Address, f.Function, f.File, f.Line)
	}
	return nil
}

func cmdVars(ctx context.Context, session *gdb.Session) error {
	vars, err := session.StackVariables(ctx)
	if err != nil {
		return err
	}
	for _, v := range vars {
		if v.Type != "" {
			fmt.Printf("%s %s = %s\n", v.Type, v.Name, v.Value)
		} else {
			fmt.Printf("%s = %s\n", v.Name, v.Value)
		}
	}
	return nil
}

func cmdRegs(ctx context.Context, session *gdb.Session, args string) error {
	names, err := session.Registers(ctx)
	if err != nil {
		return err
	}
	values, err := session.RegisterValues(ctx, gdb.ParseValueFormat(args))
	if err != nil {
		return err
	}

	byNumber := make(map[int]string, len(values))
	for _, r := range values {
		byNumber[r.Number] = r.Value
	}
	for _, r := range names {
		if v, ok := byNumber[r.Number]; ok {
			fmt.Printf("%-10s %s\n", r.Name, v)
		}
	}
	return nil
}

// cmdMem parses "ADDR SIZE" with addr in any base strconv accepts.
func cmdMem(ctx context.Context, session *gdb.Session, args string) error {
	addrStr, sizeStr, ok := strings.Cut(args, " ")
	if !ok {
		return fmt.Errorf("usage: mem ADDRESS SIZE")
	}
	addr, err := strconv.ParseUint(addrStr, 0, 64)
	if err != nil {
		return fmt.Errorf("bad address %q", addrStr)
	}
	size, err := strconv.Atoi(strings.TrimSpace(sizeStr))
	if err != nil || size <= 0 {
		return fmt.Errorf("bad size %q", sizeStr)
	}

	data, err := session.ReadMemory(ctx, addr, size)
	if err != nil {
		return err
	}
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Printf("0x%08x: % x\n", addr+uint64(i), data[i:end])
	}
	return nil
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.gdbPath, "gdb", "", "Path to the gdb binary")
	flag.StringVar(&opts.scriptPath, "script", "", "Lua script with event hooks")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.DurationVar(&opts.timeout, "timeout", 0, "Per-command reply timeout (e.g. 5s)")
	flag.BoolVar(&opts.showOutput, "raw", false, "Print raw backend output lines")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "gdbmi - machine-interface debugger engine\n\n")
		fmt.Fprintf(os.Stderr, "Usage: gdbmi [options] [target]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  gdbmi ./a.out               Debug a local executable\n")
		fmt.Fprintf(os.Stderr, "  gdbmi -gdb /opt/gdb ./a.out Use a specific backend\n")
		fmt.Fprintf(os.Stderr, "  gdbmi -script hooks.lua ./a.out\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("gdbmi %s (%s)\n", version, commit)
		os.Exit(0)
	}

	if args := flag.Args(); len(args) > 0 {
		opts.target = args[0]
	}
	return opts
}
