package usecase

import (
	"context"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/deps"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/entities"
)

// mockClient is a mock implementation of deps.Client
type mockClient struct {
	name        string
	phone       string
	connectFunc func(ctx context.Context) error
	dialogs     []entities.Dialog

	connected       bool
	connectCalls    int
	disconnectCalls int
	handler         deps.MessageHandler
}

func (m *mockClient) Name() string { return m.name }

func (m *mockClient) Phone() string {
	if m.phone != "" {
		return m.phone
	}
	return m.name
}

func (m *mockClient) Connect(ctx context.Context) error {
	m.connectCalls++
	if m.connectFunc != nil {
		if err := m.connectFunc(ctx); err != nil {
			return err
		}
	}
	m.connected = true
	return nil
}

func (m *mockClient) Disconnect(ctx context.Context) error {
	m.disconnectCalls++
	m.connected = false
	return nil
}

func (m *mockClient) IsConnected() bool { return m.connected }

func (m *mockClient) IsAuthorized(ctx context.Context) (bool, error) {
	return m.connected, nil
}

func (m *mockClient) JoinChat(ctx context.Context, link string) error { return nil }

func (m *mockClient) LeaveChat(ctx context.Context, link string) error { return nil }

func (m *mockClient) SendReaction(ctx context.Context, link, e string) error { return nil }

func (m *mockClient) SendComment(ctx context.Context, link, t string) error { return nil }

func (m *mockClient) VotePoll(ctx context.Context, link string, o int) error { return nil }

func (m *mockClient) BlockUser(ctx context.Context, userID int64) error { return nil }

func (m *mockClient) SendMessage(ctx context.Context, tgt, txt string) error { return nil }

func (m *mockClient) LatestReply(ctx context.Context, t string) (string, error) {
	return "", nil
}

func (m *mockClient) GroupDialogs(ctx context.Context, limit int) ([]entities.Dialog, error) {
	return m.dialogs, nil
}

func (m *mockClient) ResolveChat(ctx context.Context, ref string) (int64, error) {
	return 0, nil
}

func (m *mockClient) SetMessageHandler(h deps.MessageHandler) { m.handler = h }

func (m *mockClient) ClearMessageHandler() { m.handler = nil }

func (m *mockClient) HasMessageHandler() bool { return m.handler != nil }

// mockFactory is a mock implementation of deps.ClientFactory
type mockFactory struct {
	newClientFunc func(name string) (deps.Client, error)
	newLoginFunc  func(name, phone string) (deps.Client, error)

	built   []string
	removed []string
}

func (f *mockFactory) NewClient(name string) (deps.Client, error) {
	f.built = append(f.built, name)
	if f.newClientFunc != nil {
		return f.newClientFunc(name)
	}
	return &mockClient{name: name}, nil
}

func (f *mockFactory) NewLoginClient(name, phone string, code deps.CodeProvider, password deps.PasswordProvider) (deps.Client, error) {
	f.built = append(f.built, name)
	if f.newLoginFunc != nil {
		return f.newLoginFunc(name, phone)
	}
	return &mockClient{name: name, phone: phone}, nil
}

func (f *mockFactory) RemoveSession(name string) error {
	f.removed = append(f.removed, name)
	return nil
}

// mockTap is a mock implementation of deps.MessageTap. Attach installs a
// real handler so HasMessageHandler behaves like the monitor's tap.
type mockTap struct {
	attached []string
	detached []string
}

func (t *mockTap) Attach(c deps.Client) {
	c.SetMessageHandler(func(context.Context, entities.IncomingMessage) {})
	t.attached = append(t.attached, c.Name())
}

func (t *mockTap) Detach(c deps.Client) {
	c.ClearMessageHandler()
	t.detached = append(t.detached, c.Name())
}

// mockNotifier is a mock implementation of deps.Notifier
type mockNotifier struct {
	notices []string
}

func (n *mockNotifier) NotifyAdmin(ctx context.Context, text string) error {
	n.notices = append(n.notices, text)
	return nil
}
