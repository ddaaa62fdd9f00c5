package react

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jinzhu/copier"

	"github.com/vantle/sibyl/pkg/logger"
)

// Streamer drives one turn-stream request against the backend and hands every
// decoded event to onEvent until the stream ends or onEvent returns false.
type Streamer interface {
	StreamTurn(ctx context.Context, req *TurnRequest, onEvent func(*Event) bool) error
}

// Options bound one turn's run on the server side. Budgets are forwarded to
// the backend; nothing is enforced locally beyond Timeout.
type Options struct {
	MaxToolCalls  int
	MaxSQLSeconds int
	DebugTokens   bool

	// Timeout bounds the whole turn client-side. Zero means unbounded.
	Timeout time.Duration
}

// Session owns the turn state for one logical conversation with the agent.
//
// At most one network stream is active per session: Start and
// ContinueWithResponse always abort the in-flight stream before opening a new
// one. Event application is serialized under the session mutex, so the
// reducer never sees overlapping mutations.
type Session struct {
	mu         sync.Mutex
	streamer   Streamer
	state      *TurnState
	controller *AbortController
	generation int
	done       chan struct{}

	subs    map[int]chan TurnState
	nextSub int
}

// NewSession creates a session over the given streamer.
func NewSession(streamer Streamer) *Session {
	return &Session{
		streamer: streamer,
		state:    NewTurnState(""),
		subs:     map[int]chan TurnState{},
	}
}

// Start begins a fresh turn for question. Any in-flight stream is aborted
// first and all previous turn state is discarded.
func (s *Session) Start(ctx context.Context, question string, opts Options) error {
	if question == "" {
		return fmt.Errorf("question must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.abortLocked()
	s.state = NewTurnState(question)
	s.state.Status = StatusRunning
	if opts.MaxToolCalls > 0 {
		s.state.RemainingToolCalls = opts.MaxToolCalls
	}

	req := &TurnRequest{
		Question:            question,
		MaxToolCalls:        opts.MaxToolCalls,
		MaxSQLSeconds:       opts.MaxSQLSeconds,
		DebugStreamXMLToken: opts.DebugTokens,
	}
	s.launchLocked(ctx, req, opts.Timeout)
	s.notifyLocked()
	return nil
}

// ContinueWithResponse resumes a turn paused on needs_user_input, sending the
// user's answer together with the stored continuation token. The clarifying
// question is cleared before the new stream produces anything.
func (s *Session) ContinueWithResponse(ctx context.Context, userResponse string, opts Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Status != StatusNeedsUserInput {
		return fmt.Errorf("turn is %s, not waiting for user input", s.state.Status)
	}
	if s.state.SessionState == "" {
		return fmt.Errorf("no session state token to continue with")
	}

	s.abortLocked()
	req := &TurnRequest{
		Question:            s.state.Question,
		SessionState:        s.state.SessionState,
		UserResponse:        userResponse,
		MaxToolCalls:        opts.MaxToolCalls,
		MaxSQLSeconds:       opts.MaxSQLSeconds,
		DebugStreamXMLToken: opts.DebugTokens,
	}
	s.state.QuestionToUser = ""
	s.state.Status = StatusRunning
	s.launchLocked(ctx, req, opts.Timeout)
	s.notifyLocked()
	return nil
}

// Cancel aborts the in-flight stream, if any. A cancelled turn lands back in
// idle with no error: caller-initiated aborts are not failures.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.controller == nil {
		return
	}
	s.abortLocked()
	if !s.state.Status.Terminal() {
		s.state.Status = StatusIdle
		s.state.Err = ""
		s.notifyLocked()
	}
}

// Clear resets the session to a blank idle state.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abortLocked()
	s.state = NewTurnState("")
	s.notifyLocked()
}

// Wait blocks until the current stream stops consuming (terminal event,
// clarification pause, failure, or cancellation) and returns the status.
func (s *Session) Wait(ctx context.Context) (Status, error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return s.Status(), ctx.Err()
		}
	}
	return s.Status(), nil
}

// Status returns the current turn status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Status
}

// Snapshot returns a deep copy of the turn state, safe to read while the
// stream keeps mutating the live state.
func (s *Session) Snapshot() TurnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers a snapshot channel notified after every applied event.
// Slow subscribers miss intermediate snapshots instead of blocking the
// stream. The returned func unsubscribes.
func (s *Session) Subscribe() (<-chan TurnState, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan TurnState, 16)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

// abortLocked invalidates the current operation token. Callbacks of the old
// stream are fenced off by the generation counter even before its goroutine
// notices the abort.
func (s *Session) abortLocked() {
	if s.controller != nil {
		s.controller.Abort()
		s.controller = nil
	}
	s.generation++
}

func (s *Session) launchLocked(ctx context.Context, req *TurnRequest, timeout time.Duration) {
	s.controller = NewAbortController(ctx, fmt.Sprintf("turn-%d", s.generation), timeout)
	s.done = make(chan struct{})
	go s.consume(s.generation, s.controller, req, s.done)
}

// consume drives one stream to completion. gen fences every state touch: if
// the session has moved on to a newer turn, events and errors from this
// stream are dropped on the floor.
func (s *Session) consume(gen int, controller *AbortController, req *TurnRequest, done chan struct{}) {
	defer close(done)
	defer controller.CleanUp()

	err := s.streamer.StreamTurn(controller.Context(), req, func(ev *Event) bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.generation {
			return false
		}
		s.state.Apply(ev)
		s.notifyLocked()
		return true
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}

	if err != nil {
		// An abort is a silent stop, not a failure.
		if controller.IsAborted() || errors.Is(err, context.Canceled) {
			if !s.state.Status.Terminal() {
				s.state.Status = StatusIdle
				s.state.Err = ""
			}
			return
		}
		s.state.Status = StatusError
		s.state.Err = err.Error()
		s.state.SessionState = ""
		s.notifyLocked()
		return
	}

	// The producer is expected to close with a terminal event; a stream
	// that just ends mid-run is a failure, not a completion.
	if s.state.Status == StatusRunning {
		s.state.Status = StatusError
		s.state.Err = "stream ended without a terminal event"
		s.state.SessionState = ""
		s.notifyLocked()
	}
}

func (s *Session) snapshotLocked() TurnState {
	var snap TurnState
	if err := copier.CopyWithOption(&snap, s.state, copier.Option{DeepCopy: true}); err != nil {
		logger.Error("[react] snapshot copy failed: %v", err)
		snap = *s.state
	}
	snap.Metadata.Replace(s.state.Metadata.Items())
	snap.drafts = nil
	return snap
}

func (s *Session) notifyLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}
