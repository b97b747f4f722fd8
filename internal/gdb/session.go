package gdb

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/gdbmi/internal/log"
	"github.com/dshills/gdbmi/internal/mi"
	"github.com/dshills/gdbmi/internal/process"
)

// Config configures a Session.
type Config struct {
	// GDBPath is the backend binary. Defaults to "gdb".
	GDBPath string

	// CommandTimeout bounds SendSync waits when the caller's context has
	// no deadline of its own. Defaults to 5s.
	CommandTimeout time.Duration

	// ShutdownGrace is how long Shutdown waits for the backend to exit
	// after SIGTERM before killing it. Defaults to 5s.
	ShutdownGrace time.Duration

	// Logger receives engine diagnostics. Defaults to a discarding logger.
	Logger *log.Logger
}

func (c Config) withDefaults() Config {
	if c.GDBPath == "" {
		c.GDBPath = "gdb"
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = 5 * time.Second
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = log.Discard()
	}
	return c
}

// Session drives one GDB backend process: it owns the subprocess, runs the
// single output pump, correlates tokenized replies to waiting callers, and
// maintains the debuggee state machine. Safe for concurrent use; any number
// of goroutines may issue commands against one Session.
type Session struct {
	cfg    Config
	logger *log.Logger

	procMu sync.RWMutex
	proc   *process.Process

	// writeMu serializes all writes to the backend's input stream, so
	// commands from concurrent callers arrive whole and in write order.
	writeMu sync.Mutex

	// token is the monotonic correlation counter. Never reused within a
	// session's lifetime, including across backend restarts.
	token atomic.Int64

	pendingMu sync.Mutex
	pending   map[int64]*pendingCommand

	machine *machine

	subMu     sync.RWMutex
	subSeq    int
	stateSubs map[int]func(State)
	outSubs   map[int]func(string)
}

// pendingCommand is the rendezvous slot for one tokenized command. The
// reply (or error) is stored first, then done is closed, so delivery never
// blocks the pump even when the issuing caller is not yet waiting.
type pendingCommand struct {
	done      chan struct{}
	closeOnce sync.Once
	record    mi.Record
	err       error
}

func (p *pendingCommand) close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

// NewSession creates a session. The backend is not spawned until Start.
func NewSession(cfg Config) *Session {
	s := &Session{
		cfg:       cfg.withDefaults(),
		pending:   make(map[int64]*pendingCommand),
		stateSubs: make(map[int]func(State)),
		outSubs:   make(map[int]func(string)),
	}
	s.logger = s.cfg.Logger.WithComponent("session")
	s.machine = newMachine(s.broadcastState)
	return s
}

// State returns a snapshot of the debuggee state.
func (s *Session) State() State {
	return s.machine.current()
}

// OnStateChanged registers fn to receive a snapshot after every debuggee
// state transition. fn runs synchronously on the transitioning goroutine
// (the output pump for notification-driven transitions); handlers needing
// thread affinity must re-dispatch themselves. The returned func cancels
// the subscription.
func (s *Session) OnStateChanged(fn func(State)) (cancel func()) {
	s.subMu.Lock()
	id := s.subSeq
	s.subSeq++
	s.stateSubs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.stateSubs, id)
		s.subMu.Unlock()
	}
}

// OnOutput registers fn to receive every backend output line that is not a
// correlated reply or prompt, verbatim. Same delivery rules as
// OnStateChanged.
func (s *Session) OnOutput(fn func(string)) (cancel func()) {
	s.subMu.Lock()
	id := s.subSeq
	s.subSeq++
	s.outSubs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.outSubs, id)
		s.subMu.Unlock()
	}
}

func (s *Session) broadcastState(st State) {
	s.subMu.RLock()
	subs := make([]func(State), 0, len(s.stateSubs))
	for _, fn := range s.stateSubs {
		subs = append(subs, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(st)
	}
}

func (s *Session) broadcastOutput(line string) {
	s.subMu.RLock()
	subs := make([]func(string), 0, len(s.outSubs))
	for _, fn := range s.outSubs {
		subs = append(subs, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(line)
	}
}

// Start spawns the backend with its machine-interface flag and an optional
// target executable, wires the pipes, and starts the output pump. The
// session transitions to connected.
func (s *Session) Start(target string) error {
	s.procMu.Lock()
	if s.proc != nil && s.proc.IsRunning() {
		s.procMu.Unlock()
		return fmt.Errorf("session already started: %w", ErrProcess)
	}

	proc := process.New(s.cfg.GDBPath, target)
	if err := proc.Start(); err != nil {
		s.procMu.Unlock()
		return fmt.Errorf("spawn backend: %v: %w", err, ErrProcess)
	}
	s.proc = proc
	s.procMu.Unlock()

	s.logger.Info("backend started: pid=%d id=%s", proc.PID(), proc.ID)

	go s.pump(proc.Stdout)
	go s.drainStderr(proc.Stderr)

	s.machine.transition(StatusConnected)
	return nil
}

// Shutdown stops the backend: a best-effort -gdb-exit, then terminate with
// a grace window, then kill. Safe to call from any state, including when
// already disconnected; it never fails. The session always ends
// disconnected.
func (s *Session) Shutdown() {
	s.procMu.Lock()
	proc := s.proc
	s.proc = nil
	s.procMu.Unlock()

	if proc != nil {
		if proc.IsRunning() {
			s.writeMu.Lock()
			_, _ = io.WriteString(proc.Stdin, "-gdb-exit\n")
			s.writeMu.Unlock()
		}
		proc.Shutdown(s.cfg.ShutdownGrace)
		s.logger.Info("backend stopped: id=%s", proc.ID)
	}

	s.failPending(ErrNotConnected)
	s.machine.transition(StatusDisconnected)
}

// process returns the live backend, or nil.
func (s *Session) process() *process.Process {
	s.procMu.RLock()
	defer s.procMu.RUnlock()
	return s.proc
}

// Send writes a fire-and-forget command (no token, no reply correlation).
// The command may be a dash-prefixed MI verb or a raw console command.
func (s *Session) Send(command string) error {
	return s.writeLine(command)
}

// SendSync writes a tokenized command and blocks until the matching reply
// arrives or the context deadline elapses. When ctx carries no deadline the
// session's CommandTimeout applies. The pending token is reclaimed on every
// exit path; a reply arriving after a timeout is discarded by the pump.
func (s *Session) SendSync(ctx context.Context, command string) (mi.Record, error) {
	proc := s.process()
	if proc == nil || !proc.IsRunning() {
		return mi.Record{}, fmt.Errorf("send %q: %w", command, ErrNotConnected)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CommandTimeout)
		defer cancel()
	}

	token := s.token.Add(1)
	pc := &pendingCommand{done: make(chan struct{})}

	s.pendingMu.Lock()
	s.pending[token] = pc
	s.pendingMu.Unlock()

	if err := s.writeLine(fmt.Sprintf("%d%s", token, command)); err != nil {
		s.deregister(token)
		return mi.Record{}, err
	}

	select {
	case <-ctx.Done():
		s.deregister(token)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return mi.Record{}, fmt.Errorf("send %q: %w", command, ErrTimeout)
		}
		return mi.Record{}, ctx.Err()
	case <-pc.done:
		if pc.err != nil {
			return mi.Record{}, fmt.Errorf("send %q: %w", command, pc.err)
		}
		return pc.record, nil
	}
}

// writeLine appends a newline and writes atomically under the write lock.
func (s *Session) writeLine(command string) error {
	proc := s.process()
	if proc == nil || !proc.IsRunning() {
		return fmt.Errorf("write %q: %w", command, ErrNotConnected)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := io.WriteString(proc.Stdin, command+"\n"); err != nil {
		return fmt.Errorf("write %q: %v: %w", command, err, ErrCommand)
	}
	return nil
}

func (s *Session) deregister(token int64) {
	s.pendingMu.Lock()
	delete(s.pending, token)
	s.pendingMu.Unlock()
}

// failPending delivers err to every outstanding request and clears the map.
func (s *Session) failPending(err error) {
	s.pendingMu.Lock()
	pending := s.pending
	s.pending = make(map[int64]*pendingCommand)
	s.pendingMu.Unlock()

	for _, pc := range pending {
		pc.err = err
		pc.close()
	}
}

// pump is the single background worker reading backend output for the
// lifetime of the process. It exits on end-of-stream or read error; the
// session is then effectively disconnected, detected lazily by subsequent
// write failures.
func (s *Session) pump(stdout io.Reader) {
	logger := s.cfg.Logger.WithComponent("pump")

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		s.dispatch(scanner.Text(), logger)
	}

	if err := scanner.Err(); err != nil {
		logger.Warn("read loop ended: %v", err)
	} else {
		logger.Debug("read loop ended: end of stream")
	}
	s.failPending(ErrNotConnected)
}

// dispatch classifies one line and routes it.
func (s *Session) dispatch(line string, logger *log.Logger) {
	rec := mi.Parse(line)

	switch rec.Kind {
	case mi.KindPrompt:
		// Ready marker, nothing to route.

	case mi.KindResult:
		if rec.Class != mi.ClassResult {
			// Tokenized asynchronous record. The token identifies the
			// command that caused it, but it is a notification, not the
			// command's reply.
			s.broadcastOutput(line)
			s.machine.apply(rec.Payload)
			return
		}
		s.deliver(rec, logger)

	case mi.KindNotify:
		s.broadcastOutput(line)
		s.machine.apply(rec.Payload)

	default:
		// Console, log and raw lines go to observers verbatim.
		s.broadcastOutput(line)
	}
}

// deliver hands a tokenized reply to its waiting request, if any. Stale or
// unsolicited tokens are discarded.
func (s *Session) deliver(rec mi.Record, logger *log.Logger) {
	s.pendingMu.Lock()
	pc, ok := s.pending[rec.Token]
	if ok {
		delete(s.pending, rec.Token)
	}
	s.pendingMu.Unlock()

	if !ok {
		logger.Debug("discarding reply for unknown token %d", rec.Token)
		return
	}

	pc.record = rec
	pc.close()
}

// drainStderr forwards backend diagnostics to raw-output observers so they
// are not lost.
func (s *Session) drainStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		s.broadcastOutput(scanner.Text())
	}
}
