package newsreader

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// RequestFunc resolves the URL of the next fetch. It is called once per
// triggered fetch, on the caller's goroutine, so it sees the preferences as
// they are at trigger time.
type RequestFunc func() (string, error)

// Connectivity reports whether the network is usable.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// CycleRunner runs one fetch cycle. *Loader implements it.
type CycleRunner interface {
	Run(ctx context.Context, url string) Result
}

// Task is the future of one fetch cycle.
type Task struct {
	done   chan struct{}
	result Result
}

// Done is closed once the cycle has finished and its result was handed to
// the session's deliver function (or suppressed).
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task is done or ctx ends.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Session is one screen's worth of state: it owns at most one in-flight
// fetch and hands every result to a single deliver function.
//
// deliver runs on the task goroutine and must not call Close.
type Session struct {
	runner       CycleRunner
	request      RequestFunc
	deliver      func(Result)
	connectivity Connectivity
	logger       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex // guards current and closed
	current *Task
	closed  bool

	deliverMu sync.Mutex
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithConnectivity makes Reload check c before every fetch.
func WithConnectivity(c Connectivity) SessionOption {
	return func(s *Session) {
		s.connectivity = c
	}
}

// WithSessionLogger sets the logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates a session. deliver may be nil when results are only
// consumed through Task.Wait.
func NewSession(runner CycleRunner, request RequestFunc, deliver func(Result), opts ...SessionOption) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		runner:  runner,
		request: request,
		deliver: deliver,
		logger:  slog.Default(),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reload triggers a fetch. While one is in flight the same task is
// returned and nothing new starts. When the connectivity check fails no
// fetch starts and ErrOffline is returned.
func (s *Session) Reload() (*Task, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.current != nil {
		task := s.current
		s.mu.Unlock()
		return task, nil
	}
	s.mu.Unlock()

	if s.connectivity != nil && !s.connectivity.Online(s.ctx) {
		s.logger.Info("reload skipped, no network connection")
		return nil, ErrOffline
	}

	url, reqErr := s.request()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	// Another Reload may have started a task while the lock was released.
	if s.current != nil {
		return s.current, nil
	}

	task := &Task{done: make(chan struct{})}
	s.current = task
	go s.run(task, url, reqErr)

	return task, nil
}

func (s *Session) run(task *Task, url string, reqErr error) {
	var res Result
	if reqErr != nil {
		id := uuid.New()
		res = Result{CycleID: id, Err: &LoadError{CycleID: id, Reason: ReasonOf(reqErr), Err: reqErr}}
	} else {
		res = s.runner.Run(s.ctx, url)
	}
	task.result = res

	s.mu.Lock()
	if s.current == task {
		s.current = nil
	}
	s.mu.Unlock()

	s.deliverMu.Lock()
	switch {
	case s.isClosed():
		s.logger.Debug("result dropped, session closed", slog.String("cycle_id", res.CycleID.String()))
	case s.deliver != nil:
		s.deliver(res)
	}
	s.deliverMu.Unlock()

	close(task.done)
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close cancels the in-flight fetch, if any. Once Close returns no further
// result is delivered. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()

	// Wait out a delivery that started before closed was set.
	s.deliverMu.Lock()
	s.deliverMu.Unlock()
}
