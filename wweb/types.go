// Package wweb drives a WhatsApp Web session through a headless browser and
// exposes it as a typed client.
//
// Chats, contacts and messages are plain data records built at the browser
// boundary. The page-side objects hold back-references to the live client;
// those are never carried across, so records constructed here are free of
// cycles by construction. Values still pass through sanitize before leaving
// the process, since generic dispatch results are of unknown shape.
package wweb

import "fmt"

// Server suffixes of WhatsApp identifiers.
const (
	UserSuffix       = "@c.us"
	GroupSuffix      = "@g.us"
	NewsletterSuffix = "@newsletter"
	NewsletterServer = "newsletter"
)

// Chat is one conversation, group or channel.
type Chat struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Server      string `json:"server"`
	IsGroup     bool   `json:"isGroup"`
	IsReadOnly  bool   `json:"isReadOnly"`
	IsChannel   bool   `json:"isChannel"`
	ViewerRole  string `json:"viewerRole,omitempty"`
	UnreadCount int    `json:"unreadCount"`
	Timestamp   int64  `json:"timestamp"`
	IsArchived  bool   `json:"isArchived"`
	IsPinned    bool   `json:"isPinned"`
	IsMuted     bool   `json:"isMuted"`
}

// IsNewsletter reports whether the chat is a channel/broadcast target. The
// page reports this inconsistently, so three redundant signals are checked;
// any one qualifies.
func (c Chat) IsNewsletter() bool {
	return c.Server == NewsletterServer || c.IsChannel || hasSuffix(c.ID, NewsletterSuffix)
}

// Contact is one address book or interacted-with contact.
type Contact struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Pushname    string `json:"pushname,omitempty"`
	Number      string `json:"number"`
	IsMyContact bool   `json:"isMyContact"`
	IsBusiness  bool   `json:"isBusiness"`
	IsBlocked   bool   `json:"isBlocked"`
}

// MessageID identifies one message.
type MessageID struct {
	ID         string `json:"id"`
	Serialized string `json:"_serialized"`
	FromMe     bool   `json:"fromMe"`
	Remote     string `json:"remote"`
}

// Message is one sent or received message.
type Message struct {
	ID        MessageID `json:"id"`
	ChatID    string    `json:"chatId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Author    string    `json:"author,omitempty"`
	Body      string    `json:"body"`
	Type      string    `json:"type"`
	Timestamp int64     `json:"timestamp"`
	FromMe    bool      `json:"fromMe"`
	Ack       int       `json:"ack"`
	HasMedia  bool      `json:"hasMedia"`
}

// Media is downloadable or sendable media content, base64-encoded.
type Media struct {
	MimeType string `json:"mimetype"`
	Data     string `json:"data"`
	Filename string `json:"filename,omitempty"`
	Size     int64  `json:"filesize,omitempty"`
}

// SendOptions are optional parameters for SendMessage. Media attaches the
// content as media with Caption as its text.
type SendOptions struct {
	Caption         string `json:"caption,omitempty"`
	QuotedMessageID string `json:"quotedMessageId,omitempty"`
	LinkPreview     *bool  `json:"linkPreview,omitempty"`
	SendSeen        *bool  `json:"sendSeen,omitempty"`
	Media           *Media `json:"media,omitempty"`
}

// SessionInfo describes the authenticated account.
type SessionInfo struct {
	ID       string `json:"id"`
	Pushname string `json:"pushname"`
	Platform string `json:"platform"`
	WAWeb    string `json:"waWebVersion,omitempty"`
}

// NormalizeUserID appends the user server suffix when the identifier has no
// server part.
func NormalizeUserID(id string) string {
	if hasSuffix(id, UserSuffix) || hasSuffix(id, GroupSuffix) || hasSuffix(id, NewsletterSuffix) {
		return id
	}
	return id + UserSuffix
}

// NormalizeNewsletterID appends the newsletter server suffix when absent.
func NormalizeNewsletterID(id string) string {
	if hasSuffix(id, NewsletterSuffix) {
		return id
	}
	return id + NewsletterSuffix
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

// OpError wraps a failure of one page-side operation with the operation
// name, so dispatch failures identify what was invoked.
type OpError struct {
	Op    string
	Cause error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("wweb: %s: %v", e.Op, e.Cause)
}

func (e *OpError) Unwrap() error { return e.Cause }
