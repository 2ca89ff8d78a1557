package wweb

import "context"

// Handlers are the lifecycle and message callbacks delivered by a Client.
// Callbacks are invoked sequentially, in signal-arrival order, from a single
// goroutine; a nil callback is skipped.
type Handlers struct {
	OnQR            func(code string)
	OnAuthenticated func()
	OnAuthFailure   func(message string)
	OnReady         func()
	OnDisconnected  func(reason string)

	OnMessage       func(msg Message)
	OnMessageCreate func(msg Message)
	OnMessageAck    func(msg Message, ack int)
}

// Client is the capability surface of one WhatsApp Web session. All blocking
// operations take a context; the client enforces no timeouts of its own, so
// a stalled page operation stalls the caller.
type Client interface {
	// Initialize connects the browser session and starts delivering
	// lifecycle signals to the registered handlers.
	Initialize(ctx context.Context) error

	// SetHandlers registers lifecycle and message callbacks. Must be called
	// before Initialize.
	SetHandlers(h Handlers)

	// State returns the page-reported connection state (e.g. "CONNECTED").
	State(ctx context.Context) (string, error)

	// Info returns details about the authenticated account.
	Info(ctx context.Context) (*SessionInfo, error)

	// SendMessage sends content to a chat. Media in opts takes precedence
	// over content as the message body.
	SendMessage(ctx context.Context, chatID, content string, opts *SendOptions) (*Message, error)

	// GetChats enumerates all chats.
	GetChats(ctx context.Context) ([]Chat, error)

	// GetChatByID resolves one chat. A missing chat is an error.
	GetChatByID(ctx context.Context, id string) (*Chat, error)

	// GetContacts enumerates all contacts.
	GetContacts(ctx context.Context) ([]Contact, error)

	// GetContactByID resolves one contact. A missing contact is an error.
	GetContactByID(ctx context.Context, id string) (*Contact, error)

	// GetProfilePicURL returns the profile picture URL of a chat or contact,
	// empty when none is set.
	GetProfilePicURL(ctx context.Context, id string) (string, error)

	// FetchMessages returns up to limit recent messages of a chat.
	FetchMessages(ctx context.Context, chatID string, limit int) ([]Message, error)

	// Chat actions.
	ArchiveChat(ctx context.Context, chatID string, archived bool) error
	PinChat(ctx context.Context, chatID string, pinned bool) error
	MuteChat(ctx context.Context, chatID string, muted bool) error
	MarkChatUnread(ctx context.Context, chatID string) error
	SendSeen(ctx context.Context, chatID string) error
	ClearMessages(ctx context.Context, chatID string) error
	DeleteChat(ctx context.Context, chatID string) error

	// Contact actions.
	BlockContact(ctx context.Context, contactID string, blocked bool) error
	GetAbout(ctx context.Context, contactID string) (string, error)

	// Account actions.
	SetDisplayName(ctx context.Context, name string) error
	SetStatusMessage(ctx context.Context, status string) error

	// Logout ends the authenticated session. Re-authentication requires a
	// process restart.
	Logout(ctx context.Context) error

	// Close tears down the browser without logging out.
	Close() error
}
