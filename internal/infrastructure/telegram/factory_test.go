package telegram

import (
	"testing"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
)

func fileBackendConfig(t *testing.T) *config.TelegramConfig {
	t.Helper()
	return &config.TelegramConfig{
		APIID:          12345,
		APIHash:        "testhash",
		SessionDir:     t.TempDir(),
		SessionBackend: "file",
	}
}

func TestNewFactory_Validation(t *testing.T) {
	if _, err := NewFactory(nil, nil, createTestLogger()); err == nil {
		t.Error("Expected error for missing config")
	}

	cfg := fileBackendConfig(t)
	cfg.SessionBackend = "postgres"
	if _, err := NewFactory(cfg, nil, createTestLogger()); err == nil {
		t.Error("Expected error for postgres backend without database")
	}
}

func TestFactory_NewClient(t *testing.T) {
	factory, err := NewFactory(fileBackendConfig(t), nil, createTestLogger())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	client, err := factory.NewClient("15551234567")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if client.Name() != "15551234567" {
		t.Errorf("Expected session name, got: %s", client.Name())
	}
	if client.Phone() != "+15551234567" {
		t.Errorf("Expected reconstructed phone, got: %s", client.Phone())
	}
	if client.IsConnected() {
		t.Error("Expected a fresh client to be disconnected")
	}
}

func TestFactory_NewLoginClient(t *testing.T) {
	factory, err := NewFactory(fileBackendConfig(t), nil, createTestLogger())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	client, err := factory.NewLoginClient("15551234567", "+15551234567", staticCode{code: "12345"}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if client.Phone() != "+15551234567" {
		t.Errorf("Expected phone, got: %s", client.Phone())
	}
}

func TestFactory_RemoveSession_Missing(t *testing.T) {
	factory, err := NewFactory(fileBackendConfig(t), nil, createTestLogger())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := factory.RemoveSession("15551234567"); err != nil {
		t.Errorf("Expected missing artifact removal to succeed, got: %v", err)
	}
	if err := factory.RemoveSession(""); err == nil {
		t.Error("Expected error for empty session name")
	}
}

func TestPhoneFromName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"digits", "15551234567", "+15551234567"},
		{"non numeric", "user_1234", "user_1234"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := phoneFromName(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got: %q", tt.expected, got)
			}
		})
	}
}
