package telegram

import "time"

// AccountRecord is one managed login in the postgres session backend.
type AccountRecord struct {
	ID          uint      `gorm:"primarykey"`
	SessionName string    `gorm:"column:session_name;uniqueIndex;size:255;not null"`
	Phone       string    `gorm:"column:phone;size:32"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName maps the model to the accounts table.
func (AccountRecord) TableName() string {
	return "accounts"
}

// SessionRecord holds the MTProto session payload for one account.
type SessionRecord struct {
	ID        uint      `gorm:"primarykey"`
	AccountID uint      `gorm:"column:account_id;uniqueIndex;not null"`
	Data      []byte    `gorm:"column:data;type:bytea"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Account AccountRecord `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
}

// TableName maps the model to the sessions table.
func (SessionRecord) TableName() string {
	return "sessions"
}
