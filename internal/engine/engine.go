package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrStopped is returned for commands submitted after the loop has exited.
var ErrStopped = errors.New("engine stopped")

// Engine serializes every access to the session through one goroutine.
// HTTP handlers and the websocket hub never touch the session directly.
type Engine struct {
	session *Session
	queue   chan request
	stopped chan struct{}
	once    sync.Once

	mu          sync.RWMutex
	subscribers []func(Result)

	// OnTurn runs on the engine goroutine after every successful turn
	// advance, with exclusive access to the session. Populated during setup.
	OnTurn func(s *Session)
}

type request struct {
	fn    func() (Result, error)
	reply chan response
	quiet bool // reads are not published
}

type response struct {
	res Result
	err error
}

// New creates an engine around a session. Call Run to start it.
func New(s *Session) *Engine {
	return &Engine{
		session: s,
		queue:   make(chan request),
		stopped: make(chan struct{}),
	}
}

// Run processes commands until ctx is done. Blocks.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("command engine started", "turn", e.session.Turn)
	defer e.once.Do(func() { close(e.stopped) })

	for {
		select {
		case <-ctx.Done():
			slog.Info("command engine stopped", "turn", e.session.Turn)
			return
		case req := <-e.queue:
			res, err := req.fn()
			if !req.quiet && res.Command != "" {
				e.publish(res)
				if res.Command == CmdTurn && res.OK && e.OnTurn != nil {
					e.OnTurn(e.session)
				}
			}
			req.reply <- response{res: res, err: err}
		}
	}
}

// Do runs a command against the session on the engine goroutine and
// publishes its result to subscribers.
func (e *Engine) Do(ctx context.Context, fn func(*Session) (Result, error)) (Result, error) {
	return e.submit(ctx, request{fn: func() (Result, error) { return fn(e.session) }})
}

// View runs a read-only function against the session. Nothing is published.
func (e *Engine) View(ctx context.Context, fn func(*Session)) error {
	_, err := e.submit(ctx, request{quiet: true, fn: func() (Result, error) {
		fn(e.session)
		return Result{}, nil
	}})
	return err
}

// Replace swaps in a new or loaded session.
func (e *Engine) Replace(ctx context.Context, s *Session, cmd string) (Result, error) {
	return e.submit(ctx, request{fn: func() (Result, error) {
		e.session = s
		slog.Info("session replaced", "command", cmd, "turn", s.Turn, "difficulty", s.Difficulty)
		res := s.result(cmd, "")
		res.OK = true
		return res, nil
	}})
}

func (e *Engine) submit(ctx context.Context, req request) (Result, error) {
	req.reply = make(chan response, 1)
	select {
	case e.queue <- req:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-e.stopped:
		return Result{}, ErrStopped
	}
	select {
	case resp := <-req.reply:
		return resp.res, resp.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Subscribe registers fn to receive every command result. Subscribers run
// on the engine goroutine and must not block.
func (e *Engine) Subscribe(fn func(Result)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, fn)
}

func (e *Engine) publish(res Result) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, fn := range e.subscribers {
		fn(res)
	}
}

// Session returns the current session. Only safe once Run has returned.
func (e *Engine) Session() *Session {
	return e.session
}
