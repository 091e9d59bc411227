// Package usecase coordinates the live call sessions: lifecycle, the
// one-turn-at-a-time exclusion discipline, the utterance pipeline, and
// paced audio egress.
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mindline/internal/domain"
	"mindline/internal/ports"
	"mindline/internal/vad"
)

// Decider resolves one finalized utterance into a turn output, mutating the
// session. Implemented by the dialogue engine.
type Decider interface {
	Evaluate(ctx context.Context, s *domain.Session, text string) domain.TurnOutput
}

// Deps are the collaborators the registry wires into every session.
type Deps struct {
	Transcriber ports.Transcriber
	Translator  ports.Translator
	Synthesizer ports.Synthesizer
	Responder   ports.Responder
	Decider     Decider
	Clips       ports.ClipStore
	Thresholds  vad.Thresholds
	// CloseMargin is the extra wait after a terminal reply drains before the
	// stream closes. Zero means the default of two seconds.
	CloseMargin time.Duration
	Log         *zap.Logger
}

// CallSession binds one live connection to its session state. All per-call
// resources hang off this record so teardown can release them atomically.
type CallSession struct {
	connID  string
	session *domain.Session
	seg     *vad.Segmenter

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sink     ports.MediaSink
	turnBusy bool
	closed   bool

	turnWG    sync.WaitGroup
	closeOnce sync.Once
}

// Registry owns every live session, keyed by connection id.
type Registry struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*CallSession
}

func NewRegistry(deps Deps) *Registry {
	if deps.CloseMargin <= 0 {
		deps.CloseMargin = 2 * time.Second
	}
	return &Registry{deps: deps, sessions: make(map[string]*CallSession)}
}

// StartStream creates the session for a connection, or refreshes the stream
// binding when start repeats on a connection that is already live. A refresh
// keeps the accumulated topics, mood and crisis state.
func (r *Registry) StartStream(connID, streamID, callerPhone string, sink ports.MediaSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cs, ok := r.sessions[connID]; ok {
		cs.mu.Lock()
		cs.session.StreamID = streamID
		if callerPhone != "" {
			cs.session.CallerPhone = callerPhone
		}
		cs.sink = sink
		cs.mu.Unlock()
		r.deps.Log.Info("stream refreshed",
			zap.String("session", cs.session.ID),
			zap.String("stream", streamID))
		return
	}

	s := domain.NewSession(uuid.NewString())
	s.StreamID = streamID
	s.CallerPhone = callerPhone
	s.Language = domain.CanonicalLanguage

	ctx, cancel := context.WithCancel(context.Background())
	cs := &CallSession{
		connID:  connID,
		session: s,
		seg:     vad.NewSegmenter(r.deps.Thresholds),
		sink:    sink,
		ctx:     ctx,
		cancel:  cancel,
	}
	r.sessions[connID] = cs
	r.deps.Log.Info("session started",
		zap.String("session", s.ID),
		zap.String("stream", streamID),
		zap.String("caller", callerPhone))
}

// HandleMedia feeds one inbound frame. When the segmenter reaches a boundary
// and no turn is in flight, the segment's pipeline starts in its own
// goroutine; otherwise frames keep accumulating for the next turn.
func (r *Registry) HandleMedia(connID string, frame []byte) error {
	cs := r.lookup(connID)
	if cs == nil {
		return fmt.Errorf("%w: media for connection %s", domain.ErrLateEvent, connID)
	}

	cs.mu.Lock()
	if cs.closed {
		cs.mu.Unlock()
		return fmt.Errorf("%w: media for closed connection %s", domain.ErrLateEvent, connID)
	}
	now := time.Now()
	flush := cs.seg.Push(frame, now)
	if !flush || cs.turnBusy {
		cs.mu.Unlock()
		return nil
	}
	atMax := cs.seg.AtMaxSpeech(now)
	frames := cs.seg.TakeBuffer()
	cs.turnBusy = true
	cs.turnWG.Add(1)
	cs.mu.Unlock()

	go r.runTurn(cs.ctx, cs, frames, atMax, false)
	return nil
}

// StopStream tears down a connection's session. Safe to call repeatedly and
// for connections that were never started.
func (r *Registry) StopStream(connID string) {
	if cs := r.lookup(connID); cs != nil {
		r.teardown(cs)
	}
}

// Active reports how many sessions are live.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Shutdown tears down every live session.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	live := make([]*CallSession, 0, len(r.sessions))
	for _, cs := range r.sessions {
		live = append(live, cs)
	}
	r.mu.Unlock()

	for _, cs := range live {
		r.teardown(cs)
	}
}

func (r *Registry) lookup(connID string) *CallSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[connID]
}

// teardown releases everything a session holds, exactly once: a pending
// segment buffer flushes unconditionally through one final turn, in-flight
// playback is cancelled, and remote conversational memory is dropped. The
// history wipe and the closing log wait for any in-flight turn to finish,
// since the turn mutates the session until then.
func (r *Registry) teardown(cs *CallSession) {
	cs.closeOnce.Do(func() {
		r.mu.Lock()
		delete(r.sessions, cs.connID)
		r.mu.Unlock()

		cs.mu.Lock()
		cs.closed = true
		var frames [][]byte
		if !cs.turnBusy && cs.seg.Pending() {
			frames = cs.seg.TakeBuffer()
			cs.turnBusy = true
			cs.turnWG.Add(1)
		}
		cs.mu.Unlock()

		if len(frames) > 0 {
			ctx, cancel := context.WithTimeout(context.Background(), finalTurnTimeout)
			r.runTurn(ctx, cs, frames, true, true)
			cancel()
		}

		cs.cancel()
		go func() {
			cs.turnWG.Wait()
			r.deps.Responder.ClearHistory(cs.session.ID)
			r.deps.Log.Info("session closed",
				zap.String("session", cs.session.ID),
				zap.Int("interactions", cs.session.Interactions),
				zap.String("mood", cs.session.Mood))
		}()
	})
}
