package entities

import "time"

// InactiveReason explains why a session left the active registry.
type InactiveReason string

const (
	ReasonNone         InactiveReason = "none"
	ReasonAuthError    InactiveReason = "auth_error"
	ReasonRevoked      InactiveReason = "revoked"
	ReasonNetworkError InactiveReason = "network_error"
)

// Session represents one managed Telegram login.
type Session struct {
	Name           string         `json:"name"`
	Phone          string         `json:"phone"`
	Groups         []int64        `json:"groups"`
	Active         bool           `json:"active"`
	InactiveReason InactiveReason `json:"inactiveReason,omitempty"`
	LastSeen       time.Time      `json:"lastSeen"`
}

// Dialog is one chat the account participates in.
type Dialog struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Username string `json:"username,omitempty"`
}

// IncomingMessage is a message event delivered to the monitor.
type IncomingMessage struct {
	SessionName  string
	ChatID       int64
	ChatTitle    string
	ChatUsername string
	SenderID     int64
	SenderName   string
	MessageID    int
	Text         string
	Outgoing     bool
}

// StartupReport summarizes one pass of connecting saved sessions.
type StartupReport struct {
	Started  []string
	Failed   map[string]string // session name -> failure reason
	Duration time.Duration
}
