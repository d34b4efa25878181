package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth/qrlogin"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/rs/zerolog"
	"rsc.io/qr"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/validate"
)

const (
	qrLoginTimeout = 5 * time.Minute
	maxQRSessions  = 5
)

// QREvent is one step of a QR login attempt.
type QREvent struct {
	// Image carries a fresh QR code PNG when non-empty. Telegram rotates
	// login tokens, so several images may arrive for one attempt.
	Image []byte
	// NeedPassword is set once when the account requires its 2FA password.
	NeedPassword bool
	// Done marks the terminal event.
	Done  bool
	Name  string
	Phone string
	Err   error
}

// QRSession is one in-flight QR login tracked by the manager.
type QRSession struct {
	ID     string
	Events <-chan QREvent

	events   chan QREvent
	password chan string
	cancel   context.CancelFunc
}

// emitImage drops the image when the consumer lags; a newer token
// supersedes it anyway.
func (s *QRSession) emitImage(png []byte) {
	select {
	case s.events <- QREvent{Image: png}:
	default:
	}
}

func (s *QRSession) emit(ctx context.Context, e QREvent) {
	select {
	case s.events <- e:
	case <-ctx.Done():
	}
}

func (s *QRSession) waitPassword(ctx context.Context) (string, error) {
	select {
	case password := <-s.password:
		return password, nil
	case <-ctx.Done():
		return "", fmt.Errorf("timed out waiting for 2FA password: %w", ctx.Err())
	}
}

// QRAuthManager drives QR logins. It renders rotating login tokens as PNG
// images, waits for a device to scan one and persists the resulting
// session through the factory's storage backend.
type QRAuthManager struct {
	factory *Factory
	logger  zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*QRSession
}

// NewQRAuthManager builds the manager on top of the client factory.
func NewQRAuthManager(factory *Factory, logger zerolog.Logger) *QRAuthManager {
	return &QRAuthManager{
		factory:  factory,
		logger:   logger.With().Str("component", "qr_auth").Logger(),
		sessions: make(map[string]*QRSession),
	}
}

// Start launches a QR login attempt. Events arrive on the returned
// handle's channel until a terminal event is delivered; the attempt times
// out on its own when nobody scans the code.
func (m *QRAuthManager) Start() (*QRSession, error) {
	runCtx, cancel := context.WithTimeout(context.Background(), qrLoginTimeout)

	s := &QRSession{
		ID:       uuid.New().String(),
		events:   make(chan QREvent, 16),
		password: make(chan string, 1),
		cancel:   cancel,
	}
	s.Events = s.events

	m.mu.Lock()
	if len(m.sessions) >= maxQRSessions {
		m.mu.Unlock()
		cancel()
		return nil, fmt.Errorf("too many pending QR logins")
	}
	m.sessions[s.ID] = s
	m.mu.Unlock()

	go m.run(runCtx, s)
	return s, nil
}

// SubmitPassword supplies the 2FA password for a pending QR login.
func (m *QRAuthManager) SubmitPassword(id, password string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("no pending QR login %s", id)
	}

	select {
	case s.password <- password:
		return nil
	default:
		return fmt.Errorf("password already submitted")
	}
}

// Cancel aborts a pending QR login. Unknown ids are ignored.
func (m *QRAuthManager) Cancel(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.cancel()
	}
}

func (m *QRAuthManager) remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (m *QRAuthManager) run(ctx context.Context, s *QRSession) {
	defer m.remove(s.ID)
	defer s.cancel()

	// the token is exported before the account is known, so the login runs
	// on throwaway storage and the payload moves to the real backend after
	storage := &session.StorageMemory{}
	dispatcher := tg.NewUpdateDispatcher()
	loggedIn := qrlogin.OnLoginToken(dispatcher)

	client := telegram.NewClient(m.factory.cfg.APIID, m.factory.cfg.APIHash, telegram.Options{
		SessionStorage: storage,
		UpdateHandler:  dispatcher,
	})

	err := client.Run(ctx, func(ctx context.Context) error {
		_, err := client.QR().Auth(ctx, loggedIn, func(ctx context.Context, token qrlogin.Token) error {
			code, err := qr.Encode(token.URL(), qr.L)
			if err != nil {
				return fmt.Errorf("failed to render QR code: %w", err)
			}
			m.logger.Info().
				Str("qr_session", s.ID).
				Time("expires", token.Expires()).
				Msg("QR login token issued")
			s.emitImage(code.PNG())
			return nil
		})
		if err != nil {
			if !tgerr.Is(err, "SESSION_PASSWORD_NEEDED") {
				return err
			}
			s.emit(ctx, QREvent{NeedPassword: true})
			password, pErr := s.waitPassword(ctx)
			if pErr != nil {
				return pErr
			}
			if _, pErr := client.Auth().Password(ctx, password); pErr != nil {
				return pErr
			}
		}

		self, err := client.Self(ctx)
		if err != nil {
			return fmt.Errorf("failed to load account info: %w", err)
		}
		return m.finalize(ctx, s, storage, self)
	})
	if err != nil {
		m.logger.Error().Err(err).Str("qr_session", s.ID).Msg("QR login failed")
		s.emitFinal(QREvent{Done: true, Err: classifyError(err)})
	}
}

// finalize moves the fresh session into the configured backend and
// reports success.
func (m *QRAuthManager) finalize(ctx context.Context, s *QRSession, storage *session.StorageMemory, self *tg.User) error {
	if self.Phone == "" {
		return fmt.Errorf("account did not expose a phone number")
	}
	phone := "+" + self.Phone
	name := validate.SanitizeSessionName(phone)
	if name == "" {
		return fmt.Errorf("failed to derive session name from %s", phone)
	}

	data, err := storage.LoadSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to read session data: %w", err)
	}
	target, err := m.factory.sessionStorage(name, phone)
	if err != nil {
		return err
	}
	if err := target.StoreSession(ctx, data); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	m.logger.Info().Str("qr_session", s.ID).Str("session", name).Msg("QR login completed")
	s.emit(ctx, QREvent{Done: true, Name: name, Phone: phone})
	return nil
}

// emitFinal delivers a terminal event even after the attempt's context
// expired, waiting briefly for the consumer.
func (s *QRSession) emitFinal(e QREvent) {
	select {
	case s.events <- e:
	case <-time.After(5 * time.Second):
	}
}
