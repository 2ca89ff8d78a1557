// Package gateway exposes the WhatsApp session over HTTP.
//
// Two surfaces share one router: a generic /call endpoint dispatching named
// operations against client, chat or contact targets, and specialized
// endpoints (send-message, send-media, send-otp, send-newsletter) with fixed
// semantics. Every gated route sits behind the session readiness gate and
// returns 503 until the client reports ready.
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/wagate/dispatch"
	"github.com/hazyhaar/wagate/observability"
	"github.com/hazyhaar/wagate/relay"
	"github.com/hazyhaar/wagate/sanitize"
	"github.com/hazyhaar/wagate/session"
	"github.com/hazyhaar/wagate/shield"
	"github.com/hazyhaar/wagate/wweb"
)

const (
	defaultMaxBody = 50 << 20

	otpPlaceholder = "{{otp}}"

	newsletterSuggestion = "If 'reading add' error persists, please use /reset-session and re-authenticate."
)

// Config carries the request-surface settings.
type Config struct {
	// APIKey guards every route when non-empty.
	APIKey string
	// MaxBodyBytes limits request bodies. Zero applies the 50 MB default.
	MaxBodyBytes int64
	// RatePerSecond enables global rate limiting when positive.
	RatePerSecond float64
	RateBurst     int
}

// Gateway wires the HTTP surface to the session, relay, dispatcher and
// underlying client.
type Gateway struct {
	cfg    Config
	sess   *session.Session
	relay  *relay.Relay
	disp   *dispatch.Dispatcher
	client wweb.Client
	events *observability.EventLogger
	logger *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithEvents enables dispatch/operation recording.
func WithEvents(e *observability.EventLogger) Option {
	return func(g *Gateway) { g.events = e }
}

// New creates a Gateway over the given collaborators.
func New(cfg Config, sess *session.Session, rl *relay.Relay, disp *dispatch.Dispatcher, client wweb.Client, opts ...Option) *Gateway {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBody
	}
	g := &Gateway{
		cfg:    cfg,
		sess:   sess,
		relay:  rl,
		disp:   disp,
		client: client,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Router builds the chi router with the full middleware stack.
func (g *Gateway) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(shield.TraceID)
	r.Use(shield.SecurityHeaders())
	r.Use(shield.MaxBody(g.cfg.MaxBodyBytes))
	if g.cfg.RatePerSecond > 0 {
		r.Use(shield.RateLimit(g.cfg.RatePerSecond, g.cfg.RateBurst))
	}
	r.Use(shield.APIKey(g.cfg.APIKey))

	r.Post("/webhook", g.handleWebhook)
	r.Get("/status", g.handleStatus)
	r.Post("/reset-session", g.handleResetSession)

	r.Group(func(r chi.Router) {
		r.Use(g.requireReady)
		r.Post("/call", g.handleCall)
		r.Post("/send-message", g.handleSendMessage)
		r.Post("/send-media", g.handleSendMedia)
		r.Post("/send-otp", g.handleSendOTP)
		r.Post("/send-newsletter", g.handleSendNewsletter)
		r.Get("/admin-newsletters", g.handleAdminNewsletters)
	})
	return r
}

// requireReady rejects requests while the readiness gate is closed, before
// any underlying operation runs.
func (g *Gateway) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.sess.IsReady() {
			writeError(w, http.StatusServiceUnavailable, "Client is not ready yet.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gateway) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	g.relay.Configure(body.URL)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "url": body.URL})
}

func (g *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	ready := g.sess.IsReady()
	state := "NOT_READY"
	if ready {
		state = "CONNECTED"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ready":     ready,
		"state":     state,
		"sessionId": g.sess.ID(),
	})
}

func (g *Gateway) handleCall(w http.ResponseWriter, r *http.Request) {
	var req dispatch.Request
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := g.disp.Call(r.Context(), req)
	g.record(r, req.Type, req.Method, err)
	if err != nil {
		writeError(w, dispatchStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sanitize.Value(result))
}

func (g *Gateway) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChatID  string            `json:"chatId"`
		Content string            `json:"content"`
		Options *wweb.SendOptions `json:"options"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	msg, err := g.client.SendMessage(r.Context(), body.ChatID, body.Content, body.Options)
	g.record(r, "client", "sendMessage", err)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sanitize.Value(msg))
}

func (g *Gateway) handleSendMedia(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChatID  string            `json:"chatId"`
		URL     string            `json:"url"`
		Caption string            `json:"caption"`
		Options *wweb.SendOptions `json:"options"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	media, err := wweb.FetchMediaFromURL(r.Context(), body.URL)
	if err != nil {
		g.record(r, "client", "sendMedia", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := body.Options
	if opts == nil {
		opts = &wweb.SendOptions{}
	}
	opts.Media = media
	opts.Caption = body.Caption

	msg, err := g.client.SendMessage(r.Context(), body.ChatID, "", opts)
	g.record(r, "client", "sendMedia", err)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sanitize.Value(msg))
}

func (g *Gateway) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Number   string `json:"number"`
		OTP      string `json:"otp"`
		Template string `json:"template"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Number == "" || body.OTP == "" {
		writeError(w, http.StatusBadRequest, "number and otp are required.")
		return
	}

	content := fmt.Sprintf("Your OTP is: %s", body.OTP)
	if body.Template != "" {
		// Same substitution rule as string.replace: first occurrence only.
		content = strings.Replace(body.Template, otpPlaceholder, body.OTP, 1)
	}
	chatID := wweb.NormalizeUserID(body.Number)

	msg, err := g.client.SendMessage(r.Context(), chatID, content, nil)
	g.record(r, "client", "sendOtp", err)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"messageId": msg.ID.ID,
	})
}

func (g *Gateway) handleSendNewsletter(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NewsletterID string            `json:"newsletterId"`
		Content      string            `json:"content"`
		Options      *wweb.SendOptions `json:"options"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.NewsletterID == "" || body.Content == "" {
		writeError(w, http.StatusBadRequest, "newsletterId and content are required.")
		return
	}

	chatID := wweb.NormalizeNewsletterID(body.NewsletterID)
	opts := body.Options
	if opts == nil {
		opts = &wweb.SendOptions{}
	}
	// Newsletters reject the read receipt the client sends by default.
	sendSeen := false
	opts.SendSeen = &sendSeen

	msg, err := g.client.SendMessage(r.Context(), chatID, body.Content, opts)
	g.record(r, "client", "sendNewsletter", err)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":      err.Error(),
			"stack":      fmt.Sprintf("%+v", err),
			"suggestion": newsletterSuggestion,
		})
		return
	}
	writeJSON(w, http.StatusOK, sanitize.Value(msg))
}

// newsletterSummary is the admin-newsletters projection.
type newsletterSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ViewerRole string `json:"viewerRole"`
	IsReadOnly bool   `json:"isReadOnly"`
	IsChannel  bool   `json:"isChannel"`
}

func (g *Gateway) handleAdminNewsletters(w http.ResponseWriter, r *http.Request) {
	chats, err := g.client.GetChats(r.Context())
	g.record(r, "client", "adminNewsletters", err)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	newsletters := make([]newsletterSummary, 0)
	for _, c := range chats {
		if !c.IsNewsletter() {
			continue
		}
		newsletters = append(newsletters, newsletterSummary{
			ID:         c.ID,
			Name:       c.Name,
			ViewerRole: c.ViewerRole,
			IsReadOnly: c.IsReadOnly,
			IsChannel:  c.IsChannel,
		})
	}

	admin := make([]newsletterSummary, 0)
	for _, n := range newsletters {
		switch n.ViewerRole {
		case "ADMIN", "OWNER", "CREATOR":
			admin = append(admin, n)
		}
	}

	if len(admin) > 0 {
		writeJSON(w, http.StatusOK, admin)
		return
	}
	// Empty strict result ships the unfiltered list so the caller can see
	// what roles the page actually reported.
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "No admin newsletters found, but here are all detected newsletters for debugging.",
		"allNewsletters": newsletters,
	})
}

func (g *Gateway) handleResetSession(w http.ResponseWriter, r *http.Request) {
	err := g.client.Logout(r.Context())
	g.record(r, "client", "logout", err)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Close the gate now rather than waiting for the disconnect signal.
	g.sess.Invalidate()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out. Please restart the server to scan new QR.",
	})
}

// record persists one operation outcome, best-effort.
func (g *Gateway) record(r *http.Request, target, method string, err error) {
	if g.events == nil {
		return
	}
	g.events.Dispatch(r.Context(), g.sess.ID(), target, method, err)
}

// dispatchStatus maps dispatcher errors to HTTP statuses. Only a rejected
// target kind is the caller's fault; resolution and method lookup failures
// depend on live session state and report as server errors.
func dispatchStatus(err error) int {
	var invalid *dispatch.InvalidTargetType
	if errors.As(err, &invalid) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
