package wweb

import (
	"context"
	"errors"
	"testing"
)

// fakeClient implements Client with overridable function fields.
type fakeClient struct {
	sendMessage  func(ctx context.Context, chatID, content string, opts *SendOptions) (*Message, error)
	getChats     func(ctx context.Context) ([]Chat, error)
	getChatByID  func(ctx context.Context, id string) (*Chat, error)
	getContactBy func(ctx context.Context, id string) (*Contact, error)
	archiveChat  func(ctx context.Context, chatID string, archived bool) error
	logout       func(ctx context.Context) error
}

func (f *fakeClient) Initialize(context.Context) error { return nil }
func (f *fakeClient) SetHandlers(Handlers)             {}
func (f *fakeClient) State(context.Context) (string, error) {
	return "CONNECTED", nil
}
func (f *fakeClient) Info(context.Context) (*SessionInfo, error) {
	return &SessionInfo{ID: "me@c.us"}, nil
}
func (f *fakeClient) SendMessage(ctx context.Context, chatID, content string, opts *SendOptions) (*Message, error) {
	if f.sendMessage != nil {
		return f.sendMessage(ctx, chatID, content, opts)
	}
	return &Message{ID: MessageID{ID: "m1"}, ChatID: chatID, Body: content}, nil
}
func (f *fakeClient) GetChats(ctx context.Context) ([]Chat, error) {
	if f.getChats != nil {
		return f.getChats(ctx)
	}
	return nil, nil
}
func (f *fakeClient) GetChatByID(ctx context.Context, id string) (*Chat, error) {
	if f.getChatByID != nil {
		return f.getChatByID(ctx, id)
	}
	return &Chat{ID: id}, nil
}
func (f *fakeClient) GetContacts(context.Context) ([]Contact, error) { return nil, nil }
func (f *fakeClient) GetContactByID(ctx context.Context, id string) (*Contact, error) {
	if f.getContactBy != nil {
		return f.getContactBy(ctx, id)
	}
	return &Contact{ID: id}, nil
}
func (f *fakeClient) GetProfilePicURL(context.Context, string) (string, error) { return "", nil }
func (f *fakeClient) FetchMessages(context.Context, string, int) ([]Message, error) {
	return nil, nil
}
func (f *fakeClient) ArchiveChat(ctx context.Context, chatID string, archived bool) error {
	if f.archiveChat != nil {
		return f.archiveChat(ctx, chatID, archived)
	}
	return nil
}
func (f *fakeClient) PinChat(context.Context, string, bool) error   { return nil }
func (f *fakeClient) MuteChat(context.Context, string, bool) error  { return nil }
func (f *fakeClient) MarkChatUnread(context.Context, string) error  { return nil }
func (f *fakeClient) SendSeen(context.Context, string) error        { return nil }
func (f *fakeClient) ClearMessages(context.Context, string) error   { return nil }
func (f *fakeClient) DeleteChat(context.Context, string) error      { return nil }
func (f *fakeClient) BlockContact(context.Context, string, bool) error {
	return nil
}
func (f *fakeClient) GetAbout(context.Context, string) (string, error)  { return "", nil }
func (f *fakeClient) SetDisplayName(context.Context, string) error      { return nil }
func (f *fakeClient) SetStatusMessage(context.Context, string) error    { return nil }
func (f *fakeClient) Logout(ctx context.Context) error {
	if f.logout != nil {
		return f.logout(ctx)
	}
	return nil
}
func (f *fakeClient) Close() error { return nil }

func TestClientMethods_SendMessageText(t *testing.T) {
	var gotChat, gotContent string
	var gotOpts *SendOptions
	c := &fakeClient{
		sendMessage: func(_ context.Context, chatID, content string, opts *SendOptions) (*Message, error) {
			gotChat, gotContent, gotOpts = chatID, content, opts
			return &Message{Body: content}, nil
		},
	}
	ms := ClientMethods(c)
	out, err := ms["sendMessage"](context.Background(), []any{
		"5551234567@c.us", "hello", map[string]any{"sendSeen": false},
	})
	if err != nil {
		t.Fatal(err)
	}
	if gotChat != "5551234567@c.us" || gotContent != "hello" {
		t.Fatalf("chat=%q content=%q", gotChat, gotContent)
	}
	if gotOpts == nil || gotOpts.SendSeen == nil || *gotOpts.SendSeen {
		t.Fatalf("opts = %+v", gotOpts)
	}
	if out.(*Message).Body != "hello" {
		t.Fatalf("out = %+v", out)
	}
}

func TestClientMethods_SendMessageMediaObject(t *testing.T) {
	var gotOpts *SendOptions
	c := &fakeClient{
		sendMessage: func(_ context.Context, _, _ string, opts *SendOptions) (*Message, error) {
			gotOpts = opts
			return &Message{}, nil
		},
	}
	ms := ClientMethods(c)
	media := map[string]any{"mimetype": "image/png", "data": "aGk=", "filename": "x.png"}
	if _, err := ms["sendMessage"](context.Background(), []any{"c@c.us", media}); err != nil {
		t.Fatal(err)
	}
	if gotOpts == nil || gotOpts.Media == nil || gotOpts.Media.MimeType != "image/png" {
		t.Fatalf("opts = %+v", gotOpts)
	}
}

func TestClientMethods_MissingArgument(t *testing.T) {
	ms := ClientMethods(&fakeClient{})
	if _, err := ms["sendMessage"](context.Background(), nil); err == nil {
		t.Fatal("missing chat id must surface as the operation's error")
	}
}

func TestChatResolver_NotFound(t *testing.T) {
	c := &fakeClient{
		getChatByID: func(_ context.Context, id string) (*Chat, error) {
			return nil, errors.New("no chat with id " + id)
		},
	}
	r := ChatResolver(c)
	if _, err := r(context.Background(), "X@c.us"); err == nil {
		t.Fatal("unresolvable chat must error")
	}
}

func TestChatMethods_BoundToResolvedChat(t *testing.T) {
	var archived []string
	c := &fakeClient{
		archiveChat: func(_ context.Context, chatID string, a bool) error {
			if a {
				archived = append(archived, chatID)
			}
			return nil
		},
	}
	ms := ChatMethods(c, &Chat{ID: "g1@g.us"})
	if _, err := ms["archive"](context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if len(archived) != 1 || archived[0] != "g1@g.us" {
		t.Fatalf("archived = %v", archived)
	}
}

func TestContactMethods_Surface(t *testing.T) {
	ms := ContactMethods(&fakeClient{}, &Contact{ID: "c@c.us"})
	for _, name := range []string{"getProfilePicUrl", "getAbout", "getChat", "block", "unblock"} {
		if _, ok := ms[name]; !ok {
			t.Fatalf("contact method %q missing", name)
		}
	}
}

func TestNormalizeIDs(t *testing.T) {
	cases := []struct{ in, want string }{
		{"5551234567", "5551234567@c.us"},
		{"5551234567@c.us", "5551234567@c.us"},
		{"123@g.us", "123@g.us"},
	}
	for _, tc := range cases {
		if got := NormalizeUserID(tc.in); got != tc.want {
			t.Errorf("NormalizeUserID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if got := NormalizeNewsletterID("42"); got != "42@newsletter" {
		t.Errorf("NormalizeNewsletterID = %q", got)
	}
	if got := NormalizeNewsletterID("42@newsletter"); got != "42@newsletter" {
		t.Errorf("NormalizeNewsletterID idempotent: %q", got)
	}
}

func TestChatIsNewsletter(t *testing.T) {
	cases := []struct {
		chat Chat
		want bool
	}{
		{Chat{ID: "1@newsletter"}, true},
		{Chat{Server: "newsletter"}, true},
		{Chat{IsChannel: true}, true},
		{Chat{ID: "1@c.us", Server: "c.us"}, false},
	}
	for i, tc := range cases {
		if got := tc.chat.IsNewsletter(); got != tc.want {
			t.Errorf("case %d: IsNewsletter = %v, want %v", i, got, tc.want)
		}
	}
}
