package deps

import (
	"context"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/entities"
)

// MessageHandler receives incoming message events from one client.
type MessageHandler func(ctx context.Context, msg entities.IncomingMessage)

// CodeProvider supplies the login code during interactive authentication.
type CodeProvider interface {
	Code(ctx context.Context) (string, error)
}

// PasswordProvider supplies the 2FA password during interactive authentication.
type PasswordProvider interface {
	Password(ctx context.Context) (string, error)
}

// Client is one Telegram account connection managed by the registry.
type Client interface {
	// Name returns the sanitized session name the client was created under.
	Name() string
	// Phone returns the phone number when known, otherwise the session name.
	Phone() string

	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
	IsAuthorized(ctx context.Context) (bool, error)

	// Actions used by the bulk engine. Errors are classified through the
	// account errors package: *FloodWaitError for rate limits,
	// ErrSessionRevoked (wrapped) for dead authorizations.
	JoinChat(ctx context.Context, link string) error
	LeaveChat(ctx context.Context, link string) error
	SendReaction(ctx context.Context, link, emoji string) error
	SendComment(ctx context.Context, link, text string) error
	VotePoll(ctx context.Context, link string, option int) error
	BlockUser(ctx context.Context, userID int64) error
	SendMessage(ctx context.Context, target, text string) error

	// GroupDialogs lists group and supergroup chats the account belongs to.
	GroupDialogs(ctx context.Context, limit int) ([]entities.Dialog, error)
	// LatestReply returns the text of the newest message in the dialog with
	// target. Used by the report-status probe.
	LatestReply(ctx context.Context, target string) (string, error)
	// ResolveChat resolves a chat reference (@username or numeric id) to a
	// numeric chat id as seen by this account.
	ResolveChat(ctx context.Context, ref string) (int64, error)

	// SetMessageHandler attaches the monitor subscription. At most one
	// handler is active per client instance.
	SetMessageHandler(h MessageHandler)
	ClearMessageHandler()
	HasMessageHandler() bool
}

// ClientFactory constructs clients for saved or newly added sessions.
type ClientFactory interface {
	// NewClient builds a client for a saved session. Connect fails with
	// ErrAuthenticationFailed when the stored session is not authorized;
	// it never prompts.
	NewClient(name string) (Client, error)
	// NewLoginClient builds a client that performs the interactive
	// phone/code(/password) flow on Connect.
	NewLoginClient(name, phone string, code CodeProvider, password PasswordProvider) (Client, error)
	// RemoveSession deletes the stored credential artifact for a session.
	// Removing a session that has no artifact is not an error.
	RemoveSession(name string) error
}

// MessageTap owns per-client message subscriptions. Implemented by the
// monitor; the lifecycle manager attaches and releases taps as sessions
// are enabled and disabled.
type MessageTap interface {
	Attach(client Client)
	Detach(client Client)
}

// Notifier delivers out-of-band notices to the administrator chat.
type Notifier interface {
	NotifyAdmin(ctx context.Context, text string) error
}
