// Package relay forwards sanitized session events to an external HTTP
// endpoint, best-effort.
//
// Deliveries are fire-and-forget: a bounded queue drained by background
// workers keeps Emit from ever blocking the lifecycle signal that triggered
// it. Failures are logged and swallowed — never retried, never queued for
// later, never surfaced to the caller. No ordering is guaranteed between
// deliveries.
package relay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hazyhaar/wagate/sanitize"
)

const (
	defaultQueueSize = 256
	defaultWorkers   = 4
	defaultTimeout   = 10 * time.Second
)

// envelope is the outbound webhook payload.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Relay delivers events to the configured webhook URL.
type Relay struct {
	mu     sync.RWMutex
	url    string
	secret string

	client *http.Client
	logger *slog.Logger
	queue  chan envelope
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) { r.logger = l }
}

// WithSecret enables HMAC-SHA256 signing of outbound payloads via the
// X-Signature-256 header.
func WithSecret(secret string) Option {
	return func(r *Relay) { r.secret = secret }
}

// WithQueueSize overrides the bounded queue capacity.
func WithQueueSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.queue = make(chan envelope, n)
		}
	}
}

// WithHTTPClient overrides the HTTP client. Used in tests.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Relay) { r.client = c }
}

// New creates a Relay and starts its delivery workers. url may be empty;
// Configure can set it later. Call Close on shutdown.
func New(url string, opts ...Option) *Relay {
	r := &Relay{
		url:    url,
		client: &http.Client{Timeout: defaultTimeout},
		logger: slog.Default(),
		queue:  make(chan envelope, defaultQueueSize),
	}
	for _, o := range opts {
		o(r)
	}
	for i := 0; i < defaultWorkers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

// Configure replaces the destination URL. Last write wins; the URL is not
// validated for reachability. An empty URL disables delivery.
func (r *Relay) Configure(url string) {
	r.mu.Lock()
	r.url = url
	r.mu.Unlock()
	r.logger.Info("webhook configured", "url", url)
}

// URL returns the current destination, empty when none is configured.
func (r *Relay) URL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.url
}

// Emit sanitizes payload and queues one best-effort delivery of
// {event, data}. With no destination configured it is a no-op. A full queue
// drops the event. Emit never blocks and never returns an error.
func (r *Relay) Emit(event string, payload any) {
	if r.URL() == "" {
		return
	}
	env := envelope{Event: event, Data: sanitize.Value(payload)}
	select {
	case r.queue <- env:
	default:
		r.logger.Warn("webhook queue full, dropping event", "event", event)
	}
}

// Close stops accepting events and waits for in-flight deliveries.
func (r *Relay) Close() {
	r.closeOnce.Do(func() { close(r.queue) })
	r.wg.Wait()
}

func (r *Relay) worker() {
	defer r.wg.Done()
	for env := range r.queue {
		r.deliver(env)
	}
}

func (r *Relay) deliver(env envelope) {
	// Re-read the URL at delivery time so Configure is last-write-wins even
	// for queued events.
	url := r.URL()
	if url == "" {
		return
	}

	body, err := json.Marshal(env)
	if err != nil {
		r.logger.Error("webhook marshal failed", "event", env.Event, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		r.logger.Error("webhook request build failed", "event", env.Event, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	if r.secret != "" {
		mac := hmac.New(sha256.New, []byte(r.secret))
		mac.Write(body)
		req.Header.Set("X-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("webhook failed", "event", env.Event, "error", err)
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		r.logger.Warn("webhook rejected", "event", env.Event, "status", resp.StatusCode)
	}
}
