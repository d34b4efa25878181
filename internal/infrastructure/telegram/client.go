package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/deps"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/entities"
	accounterrors "github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/errors"
)

// ClientConfig carries everything needed to build one client.
type ClientConfig struct {
	Name    string
	Phone   string
	APIID   int
	APIHash string
	Storage session.Storage
	Login   *LoginParams
	Logger  zerolog.Logger
}

// LoginParams enables the interactive sign-in flow on Connect.
type LoginParams struct {
	Code     deps.CodeProvider
	Password deps.PasswordProvider
}

// MTProtoClient is one Telegram account connection built on gotd. It owns
// the session artifact, an update dispatcher feeding the attached message
// handler and a per-account rate limiter shared by all actions.
type MTProtoClient struct {
	mu    sync.RWMutex
	name  string
	phone string

	client *telegram.Client
	api    *tg.Client

	apiID   int
	apiHash string
	storage session.Storage
	login   *loginFlow

	connected     bool
	connecting    bool
	disconnecting bool
	cancelFunc    context.CancelFunc
	runDone       chan struct{}

	handlerMu sync.RWMutex
	handler   deps.MessageHandler

	dispatcher tg.UpdateDispatcher
	peers      *peerCache
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewMTProtoClient builds a client for one session. With LoginParams set
// the first Connect runs the interactive flow; otherwise Connect requires
// a stored authorization and fails with ErrAuthenticationFailed when the
// artifact is missing or unusable.
func NewMTProtoClient(cfg ClientConfig) (*MTProtoClient, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("session name is required")
	}
	if cfg.APIID == 0 || cfg.APIHash == "" {
		return nil, fmt.Errorf("api credentials are required")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("session storage is required")
	}
	if cfg.Login != nil && cfg.Phone == "" {
		return nil, fmt.Errorf("phone number is required for interactive login")
	}

	c := &MTProtoClient{
		name:    cfg.Name,
		phone:   cfg.Phone,
		apiID:   cfg.APIID,
		apiHash: cfg.APIHash,
		storage: cfg.Storage,
		peers:   newPeerCache(),
		limiter: rate.NewLimiter(rate.Every(time.Second), 10),
		logger: cfg.Logger.With().
			Str("component", "mtproto_client").
			Str("session", cfg.Name).
			Logger(),
	}
	if cfg.Login != nil {
		c.login = &loginFlow{
			phone:    cfg.Phone,
			code:     cfg.Login.Code,
			password: cfg.Login.Password,
		}
	}

	c.dispatcher = tg.NewUpdateDispatcher()
	c.dispatcher.OnNewMessage(c.onNewMessage)
	c.dispatcher.OnNewChannelMessage(c.onNewChannelMessage)
	return c, nil
}

// Name returns the session name the client was created under.
func (c *MTProtoClient) Name() string {
	return c.name
}

// Phone returns the phone number when known, otherwise the session name.
func (c *MTProtoClient) Phone() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.phone != "" {
		return c.phone
	}
	return c.name
}

// Connect dials Telegram and waits until the connection is authorized and
// ready. For login clients this drives the interactive flow, so it may
// block on the code and password providers until ctx expires.
func (c *MTProtoClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		c.logger.Warn().Msg("Already connected to Telegram")
		return nil
	}
	if c.connecting || c.disconnecting {
		c.mu.Unlock()
		return fmt.Errorf("connection state change already in progress")
	}
	c.connecting = true

	client := telegram.NewClient(c.apiID, c.apiHash, telegram.Options{
		SessionStorage: c.storage,
		UpdateHandler:  c.dispatcher,
	})
	runCtx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	c.client = client
	c.cancelFunc = cancel
	c.runDone = runDone
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
	}()

	readyChan := make(chan struct{})
	errChan := make(chan error, 1)

	go func() {
		defer close(runDone)
		err := client.Run(runCtx, func(runCtx context.Context) error {
			status, err := client.Auth().Status(runCtx)
			if err != nil {
				return fmt.Errorf("failed to check auth status: %w", err)
			}
			if !status.Authorized {
				if c.login == nil {
					return fmt.Errorf("%w: no stored authorization", accounterrors.ErrAuthenticationFailed)
				}
				if err := c.performLogin(runCtx); err != nil {
					return err
				}
			}

			if self, err := client.Self(runCtx); err == nil {
				c.rememberSelf(self)
			}
			c.finishConnect(client.API())
			close(readyChan)

			<-runCtx.Done()
			return runCtx.Err()
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-readyChan:
		c.logger.Info().Msg("Connected to Telegram")
		return nil
	case err := <-errChan:
		cancel()
		c.logger.Error().Err(err).Msg("Failed to connect to Telegram")
		return classifyError(err)
	case <-ctx.Done():
		cancel()
		return fmt.Errorf("connection timeout: %w", ctx.Err())
	}
}

// Disconnect stops the run loop and waits for it to exit. Waiting is
// bounded by ctx; state is cleaned up either way.
func (c *MTProtoClient) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil
	}
	if c.disconnecting {
		c.mu.Unlock()
		return fmt.Errorf("disconnect already in progress")
	}
	c.disconnecting = true
	cancel := c.cancelFunc
	runDone := c.runDone
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if runDone != nil {
		select {
		case <-runDone:
		case <-ctx.Done():
			c.logger.Warn().Msg("Timeout waiting for Telegram client to stop")
		}
	}

	c.mu.Lock()
	c.connected = false
	c.disconnecting = false
	c.client = nil
	c.api = nil
	c.cancelFunc = nil
	c.runDone = nil
	c.mu.Unlock()

	c.logger.Info().Msg("Disconnected from Telegram")
	return nil
}

// IsConnected reports whether the run loop reached the ready state.
func (c *MTProtoClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// IsAuthorized checks the authorization status of the stored session.
func (c *MTProtoClient) IsAuthorized(ctx context.Context) (bool, error) {
	c.mu.RLock()
	client := c.client
	connected := c.connected
	c.mu.RUnlock()

	if !connected || client == nil {
		return false, accounterrors.ErrNotConnected
	}
	status, err := client.Auth().Status(ctx)
	if err != nil {
		return false, classifyError(err)
	}
	return status.Authorized, nil
}

// ready returns the raw API handle when the client is connected.
func (c *MTProtoClient) ready() (*tg.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected || c.api == nil {
		return nil, accounterrors.ErrNotConnected
	}
	return c.api, nil
}

func (c *MTProtoClient) finishConnect(api *tg.Client) {
	c.mu.Lock()
	c.api = api
	c.connected = true
	c.mu.Unlock()
}

func (c *MTProtoClient) rememberSelf(self *tg.User) {
	c.peers.rememberUser(self.ID, self.AccessHash)
	c.mu.Lock()
	if c.phone == "" && self.Phone != "" {
		c.phone = "+" + self.Phone
	}
	c.mu.Unlock()
}

// SetMessageHandler attaches the update subscription. Only one handler is
// active at a time; setting replaces the previous one.
func (c *MTProtoClient) SetMessageHandler(h deps.MessageHandler) {
	c.handlerMu.Lock()
	c.handler = h
	c.handlerMu.Unlock()
}

// ClearMessageHandler releases the update subscription.
func (c *MTProtoClient) ClearMessageHandler() {
	c.handlerMu.Lock()
	c.handler = nil
	c.handlerMu.Unlock()
}

// HasMessageHandler reports whether a handler is attached.
func (c *MTProtoClient) HasMessageHandler() bool {
	c.handlerMu.RLock()
	defer c.handlerMu.RUnlock()
	return c.handler != nil
}

func (c *MTProtoClient) messageHandler() deps.MessageHandler {
	c.handlerMu.RLock()
	defer c.handlerMu.RUnlock()
	return c.handler
}

func (c *MTProtoClient) onNewMessage(ctx context.Context, e tg.Entities, update *tg.UpdateNewMessage) error {
	c.peers.absorb(e)
	if msg, ok := update.Message.(*tg.Message); ok {
		c.dispatch(ctx, msg, e)
	}
	return nil
}

func (c *MTProtoClient) onNewChannelMessage(ctx context.Context, e tg.Entities, update *tg.UpdateNewChannelMessage) error {
	c.peers.absorb(e)
	if msg, ok := update.Message.(*tg.Message); ok {
		c.dispatch(ctx, msg, e)
	}
	return nil
}

// dispatch converts a raw message into the domain event and hands it to
// the attached handler, if any.
func (c *MTProtoClient) dispatch(ctx context.Context, msg *tg.Message, e tg.Entities) {
	handler := c.messageHandler()
	if handler == nil {
		return
	}
	handler(ctx, c.incomingMessage(msg, e))
}

// incomingMessage flattens a tg.Message plus its entity maps into the
// event shape the monitor consumes. Channel chat ids use the -100 marked
// form.
func (c *MTProtoClient) incomingMessage(msg *tg.Message, e tg.Entities) entities.IncomingMessage {
	out := entities.IncomingMessage{
		SessionName: c.name,
		MessageID:   msg.ID,
		Text:        msg.Message,
		Outgoing:    msg.Out,
	}

	switch peer := msg.PeerID.(type) {
	case *tg.PeerUser:
		out.ChatID = peer.UserID
		if user, ok := e.Users[peer.UserID]; ok {
			out.ChatTitle = displayName(user)
			out.ChatUsername = user.Username
		}
	case *tg.PeerChat:
		out.ChatID = -peer.ChatID
		if chat, ok := e.Chats[peer.ChatID]; ok {
			out.ChatTitle = chat.Title
		}
	case *tg.PeerChannel:
		out.ChatID = markedChannelID(peer.ChannelID)
		if channel, ok := e.Channels[peer.ChannelID]; ok {
			out.ChatTitle = channel.Title
			out.ChatUsername = channel.Username
		}
	}

	if from, ok := msg.FromID.(*tg.PeerUser); ok {
		out.SenderID = from.UserID
	} else if peer, ok := msg.PeerID.(*tg.PeerUser); ok && !msg.Out {
		// private chats omit from_id; the dialog peer is the sender
		out.SenderID = peer.UserID
	}
	if out.SenderID != 0 {
		if user, ok := e.Users[out.SenderID]; ok {
			out.SenderName = displayName(user)
		}
	}
	return out
}

func displayName(user *tg.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		return user.Username
	}
	return name
}
