// Package validate holds the pure input validators for administrator-supplied
// values. Every function is side-effect free and safe to call from any
// goroutine.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	apperrors "github.com/ItsOrv/Telegram-Panel-sub000/pkg/errors"
)

const (
	// MaxMessageLength is Telegram's hard limit for a single message.
	MaxMessageLength = 4096

	// MaxKeywordLength bounds monitor keywords.
	MaxKeywordLength = 100

	// MaxSessionNameLength bounds sanitized session names (filesystem limit).
	MaxSessionNameLength = 255

	// MaxSanitizedInputLength bounds free-text input taken from chat.
	MaxSanitizedInputLength = 1000
)

var (
	phonePattern = regexp.MustCompile(`^\+\d{10,15}$`)

	// Accepted link shapes: full t.me URL (public or /c/ private form),
	// @username mention, or a bare username token.
	linkPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^https?://t\.me/[\w/-]+$`),
		regexp.MustCompile(`^@\w+$`),
		regexp.MustCompile(`^\w+$`),
	}

	sessionNamePattern = regexp.MustCompile(`[^\w\-.]`)
)

// PhoneNumber checks that phone is a plus sign followed by 10-15 digits.
func PhoneNumber(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return apperrors.NewValidationError("Phone number cannot be empty")
	}
	if !phonePattern.MatchString(phone) {
		return apperrors.NewValidationError("Phone number must start with '+' and contain 10-15 digits (e.g., +1234567890)")
	}
	return nil
}

// UserID parses a positive numeric Telegram user id.
func UserID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, apperrors.NewValidationError("User ID cannot be empty")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("User ID must be a valid number")
	}
	if id <= 0 {
		return 0, apperrors.NewValidationError("User ID must be a positive number")
	}
	return id, nil
}

// Keyword checks length bounds and returns the trimmed keyword.
func Keyword(keyword string) (string, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", apperrors.NewValidationError("Keyword cannot be empty")
	}
	if len(keyword) < 2 {
		return "", apperrors.NewValidationError("Keyword must be at least 2 characters long")
	}
	if len(keyword) > MaxKeywordLength {
		return "", apperrors.NewValidationErrorf("Keyword cannot exceed %d characters", MaxKeywordLength)
	}
	return keyword, nil
}

// TelegramLink checks that link is a t.me URL, an @username or a bare
// username token, and returns the trimmed value.
func TelegramLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", apperrors.NewValidationError("Link cannot be empty")
	}
	for _, p := range linkPatterns {
		if p.MatchString(link) {
			return link, nil
		}
	}
	return "", apperrors.NewValidationError("Invalid Telegram link. Use format: https://t.me/... or @username or username")
}

// PollOption parses a 1-based poll option number in [1, 10].
func PollOption(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, apperrors.NewValidationError("Option number cannot be empty")
	}
	option, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.NewValidationError("Option must be a valid number")
	}
	if option < 1 || option > 10 {
		return 0, apperrors.NewValidationError("Option number must be between 1 and 10")
	}
	return option, nil
}

// MessageText checks that text is non-empty after trimming and fits
// Telegram's message size limit, and returns the trimmed text.
func MessageText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.NewValidationError("Message cannot be empty")
	}
	if len([]rune(text)) > MaxMessageLength {
		return "", apperrors.NewValidationErrorf("Message cannot exceed %d characters (Telegram limit)", MaxMessageLength)
	}
	return text, nil
}

// Count parses an account count for bulk operations, bounded by the number
// of available accounts.
func Count(s string, maxCount int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, apperrors.NewValidationError("Count cannot be empty")
	}
	count, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.NewValidationError("Count must be a valid number")
	}
	if count < 1 {
		return 0, apperrors.NewValidationError("Count must be at least 1")
	}
	if count > maxCount {
		return 0, apperrors.NewValidationError(fmt.Sprintf("Count cannot exceed %d (total available accounts)", maxCount))
	}
	return count, nil
}

// SanitizeInput strips control characters (keeping newlines and tabs),
// truncates to maxLength runes and trims surrounding whitespace.
func SanitizeInput(text string, maxLength int) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			b.WriteRune(r)
		}
	}
	out := []rune(b.String())
	if len(out) > maxLength {
		out = out[:maxLength]
	}
	return strings.TrimSpace(string(out))
}

// SanitizeSessionName strips every character that is not safe in a file
// name and bounds the result. Path separators and traversal sequences
// cannot survive this.
func SanitizeSessionName(name string) string {
	name = sessionNamePattern.ReplaceAllString(strings.TrimSpace(name), "")
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", ".")
	}
	if len(name) > MaxSessionNameLength {
		name = name[:MaxSessionNameLength]
	}
	return name
}
