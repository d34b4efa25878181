package ops

import (
	"strconv"
	"strings"

	apperrors "github.com/ItsOrv/Telegram-Panel-sub000/pkg/errors"
)

// ParsedLink identifies a single message referenced by a t.me link.
// Private channel links carry the resolved channel id; public links carry
// the username and are resolved per account at action time.
type ParsedLink struct {
	Username  string
	ChannelID int64
	MessageID int
}

// Private reports whether the link used the t.me/c form.
func (p *ParsedLink) Private() bool {
	return p.ChannelID != 0
}

// ParseTelegramLink extracts the chat reference and message id from a
// message link. Accepted forms: https://t.me/c/<internal>/<msg> for private
// channels, where the chat id becomes -100<internal>, and
// https://t.me/<username>/<msg> for public chats. The scheme is optional.
func ParseTelegramLink(link string) (*ParsedLink, error) {
	clean := strings.TrimSpace(link)
	clean = strings.TrimPrefix(clean, "https://")
	clean = strings.TrimPrefix(clean, "http://")

	if _, rest, ok := strings.Cut(clean, "/c/"); ok {
		parts := strings.Split(rest, "/")
		if len(parts) < 2 {
			return nil, apperrors.NewValidationError("Link must include a message id (e.g., https://t.me/c/123456/789)")
		}
		channelID, err := strconv.ParseInt("-100"+parts[0], 10, 64)
		if err != nil {
			return nil, apperrors.NewValidationError("Invalid chat id in link")
		}
		messageID, err := strconv.Atoi(parts[1])
		if err != nil || messageID <= 0 {
			return nil, apperrors.NewValidationError("Invalid message id in link")
		}
		return &ParsedLink{ChannelID: channelID, MessageID: messageID}, nil
	}

	if _, rest, ok := strings.Cut(clean, "t.me/"); ok {
		parts := strings.Split(rest, "/")
		if len(parts) < 2 {
			return nil, apperrors.NewValidationError("Link must include a message id (e.g., https://t.me/username/123)")
		}
		username := parts[0]
		if username == "" {
			return nil, apperrors.NewValidationError("Invalid username in link")
		}
		messageID, err := strconv.Atoi(parts[1])
		if err != nil || messageID <= 0 {
			return nil, apperrors.NewValidationError("Invalid message id in link")
		}
		return &ParsedLink{Username: username, MessageID: messageID}, nil
	}

	return nil, apperrors.NewValidationError("Unable to parse Telegram link")
}
