package wweb

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// BrowserConfig configures the Chrome instance backing a session.
type BrowserConfig struct {
	// RemoteURL is the WebSocket URL of an external Chrome. Empty = launch
	// a local one via the rod launcher.
	RemoteURL string

	// DataDir is the root under which the per-session Chrome profile lives.
	// The profile holds the WhatsApp Web credentials, so a restarted process
	// resumes the session without a new QR scan.
	DataDir string

	// SessionID keys the profile directory.
	SessionID string

	// Headless disables the visible browser window. Default true via config.
	Headless bool

	Logger *slog.Logger
}

// browserManager owns the Chrome lifecycle for one session.
type browserManager struct {
	cfg BrowserConfig

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

func newBrowserManager(cfg BrowserConfig) *browserManager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &browserManager{cfg: cfg}
}

// Start launches or connects Chrome and returns a stealth page. Stealth
// evasions are required: WhatsApp Web refuses plainly-automated browsers.
func (m *browserManager) Start(ctx context.Context) (*rod.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("wweb: browser manager is closed")
	}

	wsURL := m.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(m.cfg.Headless).
			UserDataDir(filepath.Join(m.cfg.DataDir, "session-"+m.cfg.SessionID)).
			Set("disable-blink-features", "AutomationControlled").
			Set("no-first-run").
			Set("disable-dev-shm-usage").
			Set("disable-gpu")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("wweb: launch chrome: %w", err)
		}
		wsURL = u
		m.lnch = l
		m.cfg.Logger.Info("chrome launched", "url", wsURL, "headless", m.cfg.Headless)
	} else {
		m.cfg.Logger.Info("connecting to remote chrome", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("wweb: connect chrome: %w", err)
	}
	m.browser = b

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("wweb: stealth page: %w", err)
	}
	return page, nil
}

// Close shuts down Chrome and the launcher.
func (m *browserManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			m.cfg.Logger.Warn("chrome close failed", "error", err)
		}
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	return nil
}
