package session

import (
	"sync"
	"testing"
	"time"
)

// recordingNotifier captures emitted lifecycle events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	last   map[string]any
}

func (n *recordingNotifier) Emit(event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	n.last, _ = payload.(map[string]any)
}

func fixedClock() func() time.Time {
	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestLifecycleProgression(t *testing.T) {
	s := New("wa-otp-session")

	if s.State() != Uninitialized || s.IsReady() {
		t.Fatal("fresh session must be uninitialized and not ready")
	}

	s.HandleQR("qr-payload")
	if s.State() != AwaitingAuth || s.IsReady() {
		t.Fatal("qr signal must move to awaiting_auth, gate closed")
	}

	s.HandleAuthenticated()
	if s.State() != Authenticated || s.IsReady() {
		t.Fatal("authenticated must not open the readiness gate")
	}

	s.HandleReady()
	if !s.IsReady() {
		t.Fatal("ready signal must open the readiness gate")
	}

	s.HandleDisconnected("LOGOUT")
	if s.State() != Disconnected || s.IsReady() {
		t.Fatal("disconnect must close the readiness gate")
	}

	// Client restarting authentication after a disconnect is legal.
	s.HandleQR("qr-2")
	if s.State() != AwaitingAuth {
		t.Fatal("re-entering awaiting_auth after disconnect must be allowed")
	}
}

func TestAuthFailureKeepsGateClosed(t *testing.T) {
	s := New("s1")
	s.HandleQR("qr")
	s.HandleAuthFailure("bad credentials")
	if s.State() != AuthFailed || s.IsReady() {
		t.Fatal("auth failure must not open the readiness gate")
	}
}

func TestHandlersEmitNotifications(t *testing.T) {
	n := &recordingNotifier{}
	s := New("s1", WithNotifier(n), WithClock(fixedClock()))

	s.HandleQR("the-code")
	s.HandleAuthenticated()
	s.HandleReady()
	s.HandleDisconnected("NAVIGATION")
	s.HandleAuthFailure("nope")

	want := []string{"qr", "authenticated", "ready", "disconnected", "auth_failure"}
	if len(n.events) != len(want) {
		t.Fatalf("events = %v", n.events)
	}
	for i, e := range want {
		if n.events[i] != e {
			t.Fatalf("event %d = %q, want %q", i, n.events[i], e)
		}
	}
	if n.last["message"] != "nope" || n.last["sessionId"] != "s1" {
		t.Fatalf("payload = %v", n.last)
	}
	if _, ok := n.last["timestamp"]; !ok {
		t.Fatal("payload must carry a timestamp")
	}
}

func TestDisconnectPayloadCarriesReason(t *testing.T) {
	n := &recordingNotifier{}
	s := New("s1", WithNotifier(n))
	s.HandleDisconnected("CONFLICT")
	if n.last["reason"] != "CONFLICT" {
		t.Fatalf("payload = %v", n.last)
	}
}

func TestInvalidateClosesGateSilently(t *testing.T) {
	n := &recordingNotifier{}
	s := New("s1", WithNotifier(n))
	s.HandleReady()
	n.mu.Lock()
	emitted := len(n.events)
	n.mu.Unlock()

	s.Invalidate()
	if s.IsReady() {
		t.Fatal("invalidate must close the readiness gate")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) != emitted {
		t.Fatal("invalidate must not emit a notification")
	}
}

func TestNoNotifierIsNoError(t *testing.T) {
	s := New("s1")
	s.HandleReady() // must not panic without a notifier
	if !s.IsReady() {
		t.Fatal("ready")
	}
}
