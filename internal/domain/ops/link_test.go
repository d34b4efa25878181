package ops

import "testing"

func TestParseTelegramLink(t *testing.T) {
	tests := []struct {
		name          string
		link          string
		wantUsername  string
		wantChannelID int64
		wantMessageID int
		wantErr       bool
	}{
		{
			name:          "private channel link",
			link:          "https://t.me/c/123456/789",
			wantChannelID: -100123456,
			wantMessageID: 789,
		},
		{
			name:          "private channel link without scheme",
			link:          "t.me/c/123456/789",
			wantChannelID: -100123456,
			wantMessageID: 789,
		},
		{
			name:          "public chat link",
			link:          "https://t.me/somechannel/42",
			wantUsername:  "somechannel",
			wantMessageID: 42,
		},
		{
			name:          "public chat link with http scheme",
			link:          "http://t.me/somechannel/42",
			wantUsername:  "somechannel",
			wantMessageID: 42,
		},
		{
			name:          "surrounding whitespace",
			link:          "  https://t.me/somechannel/42  ",
			wantUsername:  "somechannel",
			wantMessageID: 42,
		},
		{
			name:          "extra path segment ignored",
			link:          "https://t.me/somechannel/42/extra",
			wantUsername:  "somechannel",
			wantMessageID: 42,
		},
		{
			name:    "public link without message id",
			link:    "https://t.me/somechannel",
			wantErr: true,
		},
		{
			name:    "private link without message id",
			link:    "https://t.me/c/123456",
			wantErr: true,
		},
		{
			name:    "non-numeric chat id",
			link:    "https://t.me/c/abc/789",
			wantErr: true,
		},
		{
			name:    "non-numeric message id",
			link:    "https://t.me/somechannel/abc",
			wantErr: true,
		},
		{
			name:    "not a telegram link",
			link:    "https://example.com/foo/1",
			wantErr: true,
		},
		{
			name:    "empty input",
			link:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseTelegramLink(tt.link)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q, got: %+v", tt.link, parsed)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected parse to succeed for %q, got: %v", tt.link, err)
			}
			if parsed.Username != tt.wantUsername {
				t.Errorf("Expected username %q, got: %q", tt.wantUsername, parsed.Username)
			}
			if parsed.ChannelID != tt.wantChannelID {
				t.Errorf("Expected channel id %d, got: %d", tt.wantChannelID, parsed.ChannelID)
			}
			if parsed.MessageID != tt.wantMessageID {
				t.Errorf("Expected message id %d, got: %d", tt.wantMessageID, parsed.MessageID)
			}
		})
	}
}

func TestParsedLink_Private(t *testing.T) {
	private := &ParsedLink{ChannelID: -100123456, MessageID: 1}
	if !private.Private() {
		t.Error("Expected t.me/c link to be private")
	}

	public := &ParsedLink{Username: "somechannel", MessageID: 1}
	if public.Private() {
		t.Error("Expected username link to be public")
	}
}
