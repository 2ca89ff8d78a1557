// Package session tracks the lifecycle of the single WhatsApp session owned
// by the gateway process.
//
// State transitions are driven exclusively by lifecycle signals from the
// underlying client; everything else only reads IsReady. Handlers run in
// signal-arrival order (the client delivers them sequentially), so state
// transitions are strictly ordered even though the relay notifications they
// trigger are fire-and-forget.
package session

import (
	"log/slog"
	"sync"
	"time"
)

// State is the lifecycle position of the session.
type State int

const (
	Uninitialized State = iota // process started, client not yet initialized
	AwaitingAuth               // QR code shown, waiting for a device to pair
	Authenticated              // credentials accepted, connection still settling
	Ready                      // fully connected; the readiness gate is open
	Disconnected               // logged out or connection lost
	AuthFailed                 // authentication rejected; terminal for this attempt
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case AwaitingAuth:
		return "awaiting_auth"
	case Authenticated:
		return "authenticated"
	case Ready:
		return "ready"
	case Disconnected:
		return "disconnected"
	case AuthFailed:
		return "auth_failed"
	}
	return "unknown"
}

// Notifier receives lifecycle notifications. Emissions must never block the
// caller; relay.Relay satisfies this.
type Notifier interface {
	Emit(event string, payload any)
}

// Recorder persists lifecycle events for observability. Implementations must
// be non-blocking best-effort; observability.EventLogger satisfies this.
type Recorder interface {
	Lifecycle(sessionID, event, detail string)
}

// Session is the state machine for one authenticated connection.
type Session struct {
	mu     sync.Mutex
	id     string
	state  State
	logger *slog.Logger
	notify Notifier
	record Recorder
	now    func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithNotifier sets the relay that receives lifecycle notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notify = n }
}

// WithRecorder sets the observability recorder for lifecycle events.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.record = r }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithClock overrides the timestamp source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a Session in the Uninitialized state.
func New(id string, opts ...Option) *Session {
	s := &Session{
		id:     id,
		state:  Uninitialized,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ID returns the configured session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsReady reports whether the readiness gate is open.
func (s *Session) IsReady() bool {
	return s.State() == Ready
}

// HandleQR records that the client is waiting for a device to pair.
// The client may re-enter this state after a disconnect.
func (s *Session) HandleQR(code string) {
	s.transition(AwaitingAuth)
	s.logger.Info("qr received", "session", s.id)
	s.emit("qr", map[string]any{"qr": code})
}

// HandleAuthenticated records that the session credentials were accepted.
func (s *Session) HandleAuthenticated() {
	s.transition(Authenticated)
	s.logger.Info("authenticated", "session", s.id)
	s.emit("authenticated", nil)
}

// HandleAuthFailure records a rejected authentication attempt. Readiness
// stays closed; recovery requires reset-session and a process restart.
func (s *Session) HandleAuthFailure(msg string) {
	s.transition(AuthFailed)
	s.logger.Error("authentication failure", "session", s.id, "message", msg)
	s.emit("auth_failure", map[string]any{"message": msg})
}

// HandleReady opens the readiness gate.
func (s *Session) HandleReady() {
	s.transition(Ready)
	s.logger.Info("client ready", "session", s.id)
	s.emit("ready", nil)
}

// HandleDisconnected closes the readiness gate.
func (s *Session) HandleDisconnected(reason string) {
	s.transition(Disconnected)
	s.logger.Warn("disconnected", "session", s.id, "reason", reason)
	s.emit("disconnected", map[string]any{"reason": reason})
}

// Invalidate forces the readiness gate closed without emitting a
// notification. Used by reset-session, which must not depend on the ordering
// of the logout call's own disconnect signal.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.state = Disconnected
	s.mu.Unlock()
	s.logger.Info("session invalidated", "session", s.id)
}

func (s *Session) transition(to State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()
	if from != to {
		s.logger.Debug("state transition",
			"session", s.id, "from", from.String(), "to", to.String())
	}
}

// emit sends the lifecycle notification with the minimal context payload:
// timestamp, session identifier, and any signal-specific detail.
func (s *Session) emit(event string, detail map[string]any) {
	if s.record != nil {
		var d string
		if detail != nil {
			if v, ok := detail["reason"].(string); ok {
				d = v
			} else if v, ok := detail["message"].(string); ok {
				d = v
			}
		}
		s.record.Lifecycle(s.id, event, d)
	}
	if s.notify == nil {
		return
	}
	payload := map[string]any{
		"timestamp": s.now().UnixMilli(),
		"sessionId": s.id,
	}
	for k, v := range detail {
		payload[k] = v
	}
	s.notify.Emit(event, payload)
}
