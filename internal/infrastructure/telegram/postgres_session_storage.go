package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotd/td/session"
	"gorm.io/gorm"
)

// PostgresSessionStorage persists one MTProto session in the relational
// backend. It implements session.Storage for gotd.
type PostgresSessionStorage struct {
	db    *gorm.DB
	name  string
	phone string
}

// NewPostgresSessionStorage builds storage for one session.
func NewPostgresSessionStorage(db *gorm.DB, name, phone string) (*PostgresSessionStorage, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if name == "" {
		return nil, fmt.Errorf("session name is required")
	}
	return &PostgresSessionStorage{db: db, name: name, phone: phone}, nil
}

// ensureAccount finds or creates the account row for this session.
func (s *PostgresSessionStorage) ensureAccount(ctx context.Context) (*AccountRecord, error) {
	var account AccountRecord
	err := s.db.WithContext(ctx).Where("session_name = ?", s.name).First(&account).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	account = AccountRecord{SessionName: s.name, Phone: s.phone}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return &account, nil
}

// LoadSession reads the stored session payload. Missing rows report
// session.ErrNotFound so gotd starts a fresh authorization.
func (s *PostgresSessionStorage) LoadSession(ctx context.Context) ([]byte, error) {
	var account AccountRecord
	err := s.db.WithContext(ctx).Where("session_name = ?", s.name).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	var record SessionRecord
	err = s.db.WithContext(ctx).Where("account_id = ?", account.ID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if len(record.Data) == 0 {
		return nil, session.ErrNotFound
	}
	return record.Data, nil
}

// StoreSession upserts the session payload for this account.
func (s *PostgresSessionStorage) StoreSession(ctx context.Context, data []byte) error {
	account, err := s.ensureAccount(ctx)
	if err != nil {
		return err
	}

	var record SessionRecord
	err = s.db.WithContext(ctx).Where("account_id = ?", account.ID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = SessionRecord{AccountID: account.ID, Data: data}
		if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
			return fmt.Errorf("failed to store session: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}

	record.Data = data
	if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// DeleteSession removes the session and account rows. Missing rows are not
// an error.
func (s *PostgresSessionStorage) DeleteSession(ctx context.Context) error {
	return deletePostgresSession(s.db.WithContext(ctx), s.name)
}

// deletePostgresSession drops all rows belonging to one session name.
func deletePostgresSession(db *gorm.DB, name string) error {
	var account AccountRecord
	err := db.Where("session_name = ?", name).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}

	if err := db.Where("account_id = ?", account.ID).Delete(&SessionRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := db.Delete(&account).Error; err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
