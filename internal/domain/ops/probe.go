package ops

import (
	"context"
	"strings"
	"time"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/deps"
	accounterrors "github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/errors"
	apperrors "github.com/ItsOrv/Telegram-Panel-sub000/pkg/errors"
)

// ReportState is the outcome of asking the report-check bot about one
// account.
type ReportState string

const (
	ReportClean   ReportState = "clean"
	ReportFlagged ReportState = "reported"
	ReportUnknown ReportState = "unknown"
)

// reportedKeywords mark a probe reply as a restriction notice.
var reportedKeywords = []string{"reported", "banned", "restricted", "blocked", "yes", "true", "1"}

// ReportStatus sends each active account's phone number to the report-check
// bot and classifies the reply. Accounts are probed one at a time; the wait
// gives the bot time to answer before the newest reply is read.
func (e *Engine) ReportStatus(ctx context.Context, probeBot string, wait time.Duration) (map[string]ReportState, error) {
	if probeBot == "" {
		return nil, apperrors.NewValidationError("Report check bot is not configured")
	}

	clients := e.accounts.PickClients(e.accounts.ActiveCount())
	if len(clients) == 0 {
		return nil, accounterrors.ErrNoActiveSessions
	}

	states := make(map[string]ReportState, len(clients))
	for _, client := range clients {
		if ctx.Err() != nil {
			return states, ctx.Err()
		}
		states[client.Name()] = e.probeAccount(ctx, client, probeBot, wait)
	}
	return states, nil
}

func (e *Engine) probeAccount(ctx context.Context, c deps.Client, probeBot string, wait time.Duration) ReportState {
	logger := e.logger.With().Str("session", c.Name()).Logger()

	if err := c.SendMessage(ctx, probeBot, c.Phone()); err != nil {
		logger.Error().Err(err).Msg("Failed to message report check bot")
		return ReportUnknown
	}

	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ReportUnknown
		}
	}

	reply, err := c.LatestReply(ctx, probeBot)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read report check reply")
		return ReportUnknown
	}

	lower := strings.ToLower(reply)
	for _, keyword := range reportedKeywords {
		if strings.Contains(lower, keyword) {
			return ReportFlagged
		}
	}
	return ReportClean
}
