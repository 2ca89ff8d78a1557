package wweb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
)

const (
	webURL              = "https://web.whatsapp.com"
	defaultPollInterval = 800 * time.Millisecond
)

// RodConfig configures a RodClient.
type RodConfig struct {
	SessionID    string
	DataDir      string
	Headless     bool
	RemoteURL    string
	PollInterval time.Duration
	Logger       *slog.Logger
}

// RodClient implements Client by driving web.whatsapp.com in a headless
// Chrome through go-rod. Page-side operations go through the injected
// bridge, which returns JSON strings; nothing page-owned crosses the
// boundary.
type RodClient struct {
	cfg RodConfig
	mgr *browserManager

	mu       sync.Mutex
	page     *rod.Page
	handlers Handlers
	lastQR   string
	prev     string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRodClient creates an uninitialized client. Call SetHandlers, then
// Initialize.
func NewRodClient(cfg RodConfig) *RodClient {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &RodClient{
		cfg: cfg,
		mgr: newBrowserManager(BrowserConfig{
			RemoteURL: cfg.RemoteURL,
			DataDir:   cfg.DataDir,
			SessionID: cfg.SessionID,
			Headless:  cfg.Headless,
			Logger:    cfg.Logger,
		}),
	}
}

// SetHandlers registers lifecycle and message callbacks.
func (c *RodClient) SetHandlers(h Handlers) {
	c.mu.Lock()
	c.handlers = h
	c.mu.Unlock()
}

// Initialize starts Chrome, opens WhatsApp Web, injects the bridge and
// starts the signal pump. It returns once the page is loaded; lifecycle
// progression (QR, authenticated, ready) arrives through the handlers.
func (c *RodClient) Initialize(ctx context.Context) error {
	page, err := c.mgr.Start(ctx)
	if err != nil {
		return err
	}

	if err := page.Navigate(webURL); err != nil {
		return fmt.Errorf("wweb: navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wweb: wait load: %w", err)
	}
	if _, err := page.Eval(bridgeJS); err != nil {
		return fmt.Errorf("wweb: inject bridge: %w", err)
	}

	pumpCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.page = page
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.pump(pumpCtx)

	c.cfg.Logger.Info("whatsapp web session initializing", "session", c.cfg.SessionID)
	return nil
}

// pump polls the page for state changes and queued message events, and
// delivers handler callbacks sequentially in arrival order.
func (c *RodClient) pump(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.pollOnce(ctx)
		}
	}
}

type pollResult struct {
	State   string `json:"state"`
	QR      string `json:"qr,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
	Events  []struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	} `json:"events"`
}

func (c *RodClient) pollOnce(ctx context.Context) {
	raw, err := c.eval(ctx, "poll")
	if err != nil {
		c.cfg.Logger.Debug("poll failed", "error", err)
		return
	}
	var res pollResult
	if err := json.Unmarshal(raw, &res); err != nil {
		c.cfg.Logger.Debug("poll decode failed", "error", err)
		return
	}

	c.mu.Lock()
	h := c.handlers
	prev := c.prev
	lastQR := c.lastQR
	if res.State != "loading" {
		c.prev = res.State
	}
	if res.State == "qr" {
		c.lastQR = res.QR
	}
	c.mu.Unlock()

	switch res.State {
	case "qr":
		// The page rotates the QR payload periodically; each rotation is a
		// fresh signal.
		if (prev != "qr" || res.QR != lastQR) && h.OnQR != nil {
			h.OnQR(res.QR)
		}
	case "authenticated":
		// Either a fresh QR pairing or a session restored from the
		// persisted profile without a scan.
		if prev != "authenticated" && prev != "ready" && h.OnAuthenticated != nil {
			h.OnAuthenticated()
		}
	case "ready":
		if prev != "ready" {
			if prev != "authenticated" && h.OnAuthenticated != nil {
				h.OnAuthenticated()
			}
			if h.OnReady != nil {
				h.OnReady()
			}
		}
	case "auth_failure":
		if prev != "auth_failure" && h.OnAuthFailure != nil {
			h.OnAuthFailure(res.Message)
		}
	case "disconnected":
		if prev != "disconnected" && prev != "" && h.OnDisconnected != nil {
			h.OnDisconnected(res.Reason)
		}
	}

	for _, ev := range res.Events {
		c.deliverEvent(h, ev.Type, ev.Data)
	}
}

func (c *RodClient) deliverEvent(h Handlers, typ string, data json.RawMessage) {
	switch typ {
	case "message", "message_create":
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.cfg.Logger.Warn("bad message event", "error", err)
			return
		}
		if typ == "message" && h.OnMessage != nil {
			h.OnMessage(msg)
		}
		if typ == "message_create" && h.OnMessageCreate != nil {
			h.OnMessageCreate(msg)
		}
	case "message_ack":
		var ack struct {
			Message Message `json:"message"`
			Ack     int     `json:"ack"`
		}
		if err := json.Unmarshal(data, &ack); err != nil {
			c.cfg.Logger.Warn("bad ack event", "error", err)
			return
		}
		if h.OnMessageAck != nil {
			h.OnMessageAck(ack.Message, ack.Ack)
		}
	}
}

// eval invokes one bridge function and returns its JSON string result as
// raw bytes.
func (c *RodClient) eval(ctx context.Context, fn string, args ...any) ([]byte, error) {
	c.mu.Lock()
	page := c.page
	c.mu.Unlock()
	if page == nil {
		return nil, &OpError{Op: fn, Cause: fmt.Errorf("client not initialized")}
	}

	js := fmt.Sprintf(`(...args) => window.__wagate.%s(...args)`, fn)
	res, err := page.Context(ctx).Eval(js, args...)
	if err != nil {
		return nil, &OpError{Op: fn, Cause: err}
	}
	return []byte(res.Value.Str()), nil
}

func evalInto[T any](c *RodClient, ctx context.Context, fn string, out *T, args ...any) error {
	raw, err := c.eval(ctx, fn, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &OpError{Op: fn, Cause: err}
	}
	return nil
}

func (c *RodClient) State(ctx context.Context) (string, error) {
	var s string
	err := evalInto(c, ctx, "getState", &s)
	return s, err
}

func (c *RodClient) Info(ctx context.Context) (*SessionInfo, error) {
	var info SessionInfo
	if err := evalInto(c, ctx, "getInfo", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *RodClient) SendMessage(ctx context.Context, chatID, content string, opts *SendOptions) (*Message, error) {
	optsJSON := ""
	if opts != nil {
		b, err := json.Marshal(opts)
		if err != nil {
			return nil, &OpError{Op: "sendMessage", Cause: err}
		}
		optsJSON = string(b)
	}
	var msg Message
	if err := evalInto(c, ctx, "sendMessage", &msg, chatID, content, optsJSON); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *RodClient) GetChats(ctx context.Context) ([]Chat, error) {
	var chats []Chat
	err := evalInto(c, ctx, "getChats", &chats)
	return chats, err
}

func (c *RodClient) GetChatByID(ctx context.Context, id string) (*Chat, error) {
	var chat *Chat
	if err := evalInto(c, ctx, "getChatById", &chat, id); err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, &OpError{Op: "getChatById", Cause: fmt.Errorf("no chat with id %s", id)}
	}
	return chat, nil
}

func (c *RodClient) GetContacts(ctx context.Context) ([]Contact, error) {
	var contacts []Contact
	err := evalInto(c, ctx, "getContacts", &contacts)
	return contacts, err
}

func (c *RodClient) GetContactByID(ctx context.Context, id string) (*Contact, error) {
	var contact *Contact
	if err := evalInto(c, ctx, "getContactById", &contact, id); err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, &OpError{Op: "getContactById", Cause: fmt.Errorf("no contact with id %s", id)}
	}
	return contact, nil
}

func (c *RodClient) GetProfilePicURL(ctx context.Context, id string) (string, error) {
	var url string
	err := evalInto(c, ctx, "getProfilePicUrl", &url, id)
	return url, err
}

func (c *RodClient) FetchMessages(ctx context.Context, chatID string, limit int) ([]Message, error) {
	var msgs []Message
	err := evalInto(c, ctx, "fetchMessages", &msgs, chatID, limit)
	return msgs, err
}

func (c *RodClient) ArchiveChat(ctx context.Context, chatID string, archived bool) error {
	_, err := c.eval(ctx, "archiveChat", chatID, archived)
	return err
}

func (c *RodClient) PinChat(ctx context.Context, chatID string, pinned bool) error {
	_, err := c.eval(ctx, "pinChat", chatID, pinned)
	return err
}

func (c *RodClient) MuteChat(ctx context.Context, chatID string, muted bool) error {
	_, err := c.eval(ctx, "muteChat", chatID, muted)
	return err
}

func (c *RodClient) MarkChatUnread(ctx context.Context, chatID string) error {
	_, err := c.eval(ctx, "markChatUnread", chatID)
	return err
}

func (c *RodClient) SendSeen(ctx context.Context, chatID string) error {
	_, err := c.eval(ctx, "sendSeen", chatID)
	return err
}

func (c *RodClient) ClearMessages(ctx context.Context, chatID string) error {
	_, err := c.eval(ctx, "clearMessages", chatID)
	return err
}

func (c *RodClient) DeleteChat(ctx context.Context, chatID string) error {
	_, err := c.eval(ctx, "deleteChat", chatID)
	return err
}

func (c *RodClient) BlockContact(ctx context.Context, contactID string, blocked bool) error {
	_, err := c.eval(ctx, "blockContact", contactID, blocked)
	return err
}

func (c *RodClient) GetAbout(ctx context.Context, contactID string) (string, error) {
	var about string
	err := evalInto(c, ctx, "getAbout", &about, contactID)
	return about, err
}

func (c *RodClient) SetDisplayName(ctx context.Context, name string) error {
	_, err := c.eval(ctx, "setDisplayName", name)
	return err
}

func (c *RodClient) SetStatusMessage(ctx context.Context, status string) error {
	_, err := c.eval(ctx, "setStatusMessage", status)
	return err
}

func (c *RodClient) Logout(ctx context.Context) error {
	_, err := c.eval(ctx, "logout")
	return err
}

// Close stops the signal pump and tears down the browser. It does not log
// out; the persisted profile keeps the session for the next start.
func (c *RodClient) Close() error {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.page = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	return c.mgr.Close()
}
