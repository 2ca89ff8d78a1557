package wweb

import (
	"context"
	"fmt"

	"github.com/hazyhaar/wagate/dispatch"
)

// Dispatch registries: the closed capability surface exposed through the
// generic /call endpoint. Each invocable coerces its own positional
// arguments; the dispatcher stays shape-agnostic.

// ClientResolver returns the dispatch resolver for the client target kind.
// The target identifier is ignored — the client is the session itself.
func ClientResolver(c Client) dispatch.Resolver {
	methods := ClientMethods(c)
	return func(_ context.Context, _ string) (dispatch.MethodSet, error) {
		return methods, nil
	}
}

// ChatResolver returns the dispatch resolver for the chat target kind.
func ChatResolver(c Client) dispatch.Resolver {
	return func(ctx context.Context, id string) (dispatch.MethodSet, error) {
		chat, err := c.GetChatByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if chat == nil {
			return nil, fmt.Errorf("no chat with id %s", id)
		}
		return ChatMethods(c, chat), nil
	}
}

// ContactResolver returns the dispatch resolver for the contact target kind.
func ContactResolver(c Client) dispatch.Resolver {
	return func(ctx context.Context, id string) (dispatch.MethodSet, error) {
		contact, err := c.GetContactByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if contact == nil {
			return nil, fmt.Errorf("no contact with id %s", id)
		}
		return ContactMethods(c, contact), nil
	}
}

// ClientMethods builds the session-level method registry.
func ClientMethods(c Client) dispatch.MethodSet {
	return dispatch.MethodSet{
		"sendMessage": func(ctx context.Context, args []any) (any, error) {
			chatID, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			content, media, err := contentArg(args, 1)
			if err != nil {
				return nil, err
			}
			opts, err := optionsArg(args, 2)
			if err != nil {
				return nil, err
			}
			if media != nil {
				if opts == nil {
					opts = &SendOptions{}
				}
				opts.Media = media
			}
			return c.SendMessage(ctx, chatID, content, opts)
		},
		"getChats": func(ctx context.Context, _ []any) (any, error) {
			return c.GetChats(ctx)
		},
		"getChatById": func(ctx context.Context, args []any) (any, error) {
			id, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return c.GetChatByID(ctx, id)
		},
		"getContacts": func(ctx context.Context, _ []any) (any, error) {
			return c.GetContacts(ctx)
		},
		"getContactById": func(ctx context.Context, args []any) (any, error) {
			id, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return c.GetContactByID(ctx, id)
		},
		"getProfilePicUrl": func(ctx context.Context, args []any) (any, error) {
			id, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return c.GetProfilePicURL(ctx, id)
		},
		"getState": func(ctx context.Context, _ []any) (any, error) {
			return c.State(ctx)
		},
		"getInfo": func(ctx context.Context, _ []any) (any, error) {
			return c.Info(ctx)
		},
		"archiveChat": func(ctx context.Context, args []any) (any, error) {
			id, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return true, c.ArchiveChat(ctx, id, true)
		},
		"unarchiveChat": func(ctx context.Context, args []any) (any, error) {
			id, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return true, c.ArchiveChat(ctx, id, false)
		},
		"pinChat": func(ctx context.Context, args []any) (any, error) {
			id, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return true, c.PinChat(ctx, id, true)
		},
		"unpinChat": func(ctx context.Context, args []any) (any, error) {
			id, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return true, c.PinChat(ctx, id, false)
		},
		"muteChat": func(ctx context.Context, args []any) (any, error) {
			id, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return true, c.MuteChat(ctx, id, true)
		},
		"unmuteChat": func(ctx context.Context, args []any) (any, error) {
			id, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return true, c.MuteChat(ctx, id, false)
		},
		"sendSeen": func(ctx context.Context, args []any) (any, error) {
			id, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return true, c.SendSeen(ctx, id)
		},
		"setDisplayName": func(ctx context.Context, args []any) (any, error) {
			name, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return true, c.SetDisplayName(ctx, name)
		},
		"setStatus": func(ctx context.Context, args []any) (any, error) {
			status, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return true, c.SetStatusMessage(ctx, status)
		},
		"logout": func(ctx context.Context, _ []any) (any, error) {
			return true, c.Logout(ctx)
		},
	}
}

// ChatMethods builds the method registry for one resolved chat.
func ChatMethods(c Client, chat *Chat) dispatch.MethodSet {
	id := chat.ID
	return dispatch.MethodSet{
		"sendMessage": func(ctx context.Context, args []any) (any, error) {
			content, media, err := contentArg(args, 0)
			if err != nil {
				return nil, err
			}
			opts, err := optionsArg(args, 1)
			if err != nil {
				return nil, err
			}
			if media != nil {
				if opts == nil {
					opts = &SendOptions{}
				}
				opts.Media = media
			}
			return c.SendMessage(ctx, id, content, opts)
		},
		"fetchMessages": func(ctx context.Context, args []any) (any, error) {
			return c.FetchMessages(ctx, id, optionalInt(args, 0, 50))
		},
		"archive": func(ctx context.Context, _ []any) (any, error) {
			return true, c.ArchiveChat(ctx, id, true)
		},
		"unarchive": func(ctx context.Context, _ []any) (any, error) {
			return true, c.ArchiveChat(ctx, id, false)
		},
		"pin": func(ctx context.Context, _ []any) (any, error) {
			return true, c.PinChat(ctx, id, true)
		},
		"unpin": func(ctx context.Context, _ []any) (any, error) {
			return true, c.PinChat(ctx, id, false)
		},
		"mute": func(ctx context.Context, _ []any) (any, error) {
			return true, c.MuteChat(ctx, id, true)
		},
		"unmute": func(ctx context.Context, _ []any) (any, error) {
			return true, c.MuteChat(ctx, id, false)
		},
		"markUnread": func(ctx context.Context, _ []any) (any, error) {
			return true, c.MarkChatUnread(ctx, id)
		},
		"sendSeen": func(ctx context.Context, _ []any) (any, error) {
			return true, c.SendSeen(ctx, id)
		},
		"clearMessages": func(ctx context.Context, _ []any) (any, error) {
			return true, c.ClearMessages(ctx, id)
		},
		"delete": func(ctx context.Context, _ []any) (any, error) {
			return true, c.DeleteChat(ctx, id)
		},
	}
}

// ContactMethods builds the method registry for one resolved contact.
func ContactMethods(c Client, contact *Contact) dispatch.MethodSet {
	id := contact.ID
	return dispatch.MethodSet{
		"getProfilePicUrl": func(ctx context.Context, _ []any) (any, error) {
			return c.GetProfilePicURL(ctx, id)
		},
		"getAbout": func(ctx context.Context, _ []any) (any, error) {
			return c.GetAbout(ctx, id)
		},
		"getChat": func(ctx context.Context, _ []any) (any, error) {
			return c.GetChatByID(ctx, id)
		},
		"block": func(ctx context.Context, _ []any) (any, error) {
			return true, c.BlockContact(ctx, id, true)
		},
		"unblock": func(ctx context.Context, _ []any) (any, error) {
			return true, c.BlockContact(ctx, id, false)
		},
	}
}
