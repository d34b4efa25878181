package telegram

import (
	"fmt"

	"github.com/gotd/td/session"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/deps"
)

const sessionBackendPostgres = "postgres"

// Factory builds account clients on top of the configured session storage
// backend, file artifacts by default or postgres rows when selected.
type Factory struct {
	cfg    *config.TelegramConfig
	db     *gorm.DB
	logger zerolog.Logger
}

// NewFactory wires the client factory. db may be nil unless the postgres
// session backend is configured.
func NewFactory(cfg *config.TelegramConfig, db *gorm.DB, logger zerolog.Logger) (*Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("telegram config is required")
	}
	if cfg.SessionBackend == sessionBackendPostgres && db == nil {
		return nil, fmt.Errorf("postgres session backend requires a database connection")
	}
	return &Factory{cfg: cfg, db: db, logger: logger}, nil
}

// sessionStorage returns the storage for one session in the configured
// backend.
func (f *Factory) sessionStorage(name, phone string) (session.Storage, error) {
	if f.cfg.SessionBackend == sessionBackendPostgres {
		return NewPostgresSessionStorage(f.db, name, phone)
	}
	return NewFileSessionStorage(f.cfg.SessionDir, name)
}

// NewClient builds a client for a saved session.
func (f *Factory) NewClient(name string) (deps.Client, error) {
	phone := phoneFromName(name)
	storage, err := f.sessionStorage(name, phone)
	if err != nil {
		return nil, err
	}
	return NewMTProtoClient(ClientConfig{
		Name:    name,
		Phone:   phone,
		APIID:   f.cfg.APIID,
		APIHash: f.cfg.APIHash,
		Storage: storage,
		Logger:  f.logger,
	})
}

// NewLoginClient builds a client that signs in interactively on Connect.
func (f *Factory) NewLoginClient(name, phone string, code deps.CodeProvider, password deps.PasswordProvider) (deps.Client, error) {
	storage, err := f.sessionStorage(name, phone)
	if err != nil {
		return nil, err
	}
	return NewMTProtoClient(ClientConfig{
		Name:    name,
		Phone:   phone,
		APIID:   f.cfg.APIID,
		APIHash: f.cfg.APIHash,
		Storage: storage,
		Login:   &LoginParams{Code: code, Password: password},
		Logger:  f.logger,
	})
}

// RemoveSession deletes the stored credential artifact for a session.
// Missing artifacts are not an error.
func (f *Factory) RemoveSession(name string) error {
	if name == "" {
		return fmt.Errorf("session name is required")
	}
	if f.cfg.SessionBackend == sessionBackendPostgres {
		return deletePostgresSession(f.db, name)
	}
	storage, err := NewFileSessionStorage(f.cfg.SessionDir, name)
	if err != nil {
		return err
	}
	return storage.DeleteSession()
}

// phoneFromName reconstructs the display phone for a session name. Names
// are sanitized phone numbers, so purely numeric names round-trip; anything
// else is returned as is.
func phoneFromName(name string) string {
	if name == "" {
		return ""
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return name
		}
	}
	return "+" + name
}
