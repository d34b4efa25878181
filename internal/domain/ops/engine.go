package ops

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/deps"
	accounterrors "github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/errors"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/metrics"
)

// Action is the stable identifier of an operation kind, used for metrics
// and audit events.
type Action string

const (
	ActionReaction    Action = "reaction"
	ActionPollVote    Action = "poll_vote"
	ActionJoin        Action = "join"
	ActionLeave       Action = "leave"
	ActionBlock       Action = "block"
	ActionSendMessage Action = "send_message"
	ActionComment     Action = "comment"
)

// AccountSource supplies target accounts for a batch. Implemented by the
// session registry.
type AccountSource interface {
	PickClients(n int) []deps.Client
	ActiveCount() int
	Get(name string) (deps.Client, bool)
}

// SessionRemover permanently deletes a session whose authorization is dead.
// Implemented by the lifecycle manager.
type SessionRemover interface {
	DeleteSession(ctx context.Context, name string) error
}

// EventPublisher records completed batches on the audit stream.
type EventPublisher interface {
	PublishBulkCompleted(ctx context.Context, event BulkCompletedEvent) error
}

// BulkCompletedEvent is the audit record emitted after every batch.
type BulkCompletedEvent struct {
	BatchID    string    `json:"batch_id"`
	Action     string    `json:"action"`
	Accounts   int       `json:"accounts"`
	Success    int       `json:"success"`
	Errors     int       `json:"errors"`
	Revoked    []string  `json:"revoked,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Result aggregates the outcome of one batch.
type Result struct {
	Action   Action
	Label    string
	BatchID  string
	Accounts int
	Success  int
	Errors   int
	Revoked  []string
	Slowed   bool
	Duration time.Duration
}

// Summary renders the administrator-facing outcome message.
func (r *Result) Summary() string {
	if r.Errors == 0 {
		return fmt.Sprintf("%s completed successfully with %d account(s).", r.Label, r.Success)
	}
	msg := fmt.Sprintf("%s completed with %d account(s). %d account(s) encountered errors.", r.Label, r.Success, r.Errors)
	if len(r.Revoked) > 0 {
		msg += fmt.Sprintf("\n%d account(s) were revoked and removed.", len(r.Revoked))
	}
	return msg
}

type actionFunc func(ctx context.Context, client deps.Client) error

// Engine runs every action kind through one bounded, fault-isolated batch
// executor. A semaphore caps in-flight provider calls; each slot is held
// through the action and a randomized pacing delay.
type Engine struct {
	accounts AccountSource
	remover  SessionRemover
	events   EventPublisher
	cfg      *config.PanelConfig
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// NewEngine creates the operation engine. remover and events may be nil.
func NewEngine(
	accounts AccountSource,
	remover SessionRemover,
	events EventPublisher,
	cfg *config.PanelConfig,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Engine {
	return &Engine{
		accounts: accounts,
		remover:  remover,
		events:   events,
		cfg:      cfg,
		logger:   logger.With().Str("component", "ops_engine").Logger(),
		metrics:  m,
	}
}

// JoinChat joins count accounts to the chat behind an invite or public link.
func (e *Engine) JoinChat(ctx context.Context, link string, count int) (*Result, error) {
	return e.run(ctx, ActionJoin, "Join", count, func(ctx context.Context, c deps.Client) error {
		return c.JoinChat(ctx, link)
	})
}

// LeaveChat removes count accounts from the chat behind the link.
func (e *Engine) LeaveChat(ctx context.Context, link string, count int) (*Result, error) {
	return e.run(ctx, ActionLeave, "Leave", count, func(ctx context.Context, c deps.Client) error {
		return c.LeaveChat(ctx, link)
	})
}

// SendReaction applies an emoji reaction to the linked message from count
// accounts.
func (e *Engine) SendReaction(ctx context.Context, link, emoji string, count int) (*Result, error) {
	label := fmt.Sprintf("Reaction %s", emoji)
	return e.run(ctx, ActionReaction, label, count, func(ctx context.Context, c deps.Client) error {
		return c.SendReaction(ctx, link, emoji)
	})
}

// VotePoll votes the 1-based option on the poll in the linked message from
// count accounts.
func (e *Engine) VotePoll(ctx context.Context, link string, option, count int) (*Result, error) {
	label := fmt.Sprintf("Vote for option %d", option)
	return e.run(ctx, ActionPollVote, label, count, func(ctx context.Context, c deps.Client) error {
		return c.VotePoll(ctx, link, option)
	})
}

// BlockUser blocks a user id from count accounts.
func (e *Engine) BlockUser(ctx context.Context, userID int64, count int) (*Result, error) {
	label := fmt.Sprintf("Block user %d", userID)
	return e.run(ctx, ActionBlock, label, count, func(ctx context.Context, c deps.Client) error {
		return c.BlockUser(ctx, userID)
	})
}

// SendMessageAll sends the same text to a target from count accounts.
func (e *Engine) SendMessageAll(ctx context.Context, target, text string, count int) (*Result, error) {
	return e.run(ctx, ActionSendMessage, "Send message", count, func(ctx context.Context, c deps.Client) error {
		return c.SendMessage(ctx, target, text)
	})
}

// SendComment posts a reply under the linked message from count accounts.
func (e *Engine) SendComment(ctx context.Context, link, text string, count int) (*Result, error) {
	return e.run(ctx, ActionComment, "Comment", count, func(ctx context.Context, c deps.Client) error {
		return c.SendComment(ctx, link, text)
	})
}

// SendMessageFrom sends one message from one named session.
func (e *Engine) SendMessageFrom(ctx context.Context, session, target, text string) error {
	return e.runFrom(ctx, session, func(ctx context.Context, c deps.Client) error {
		return c.SendMessage(ctx, target, text)
	})
}

// JoinChatFrom joins one named session to the chat behind the link.
func (e *Engine) JoinChatFrom(ctx context.Context, session, link string) error {
	return e.runFrom(ctx, session, func(ctx context.Context, c deps.Client) error {
		return c.JoinChat(ctx, link)
	})
}

// LeaveChatFrom removes one named session from the chat behind the link.
func (e *Engine) LeaveChatFrom(ctx context.Context, session, link string) error {
	return e.runFrom(ctx, session, func(ctx context.Context, c deps.Client) error {
		return c.LeaveChat(ctx, link)
	})
}

// SendReactionFrom applies an emoji reaction from one named session.
func (e *Engine) SendReactionFrom(ctx context.Context, session, link, emoji string) error {
	return e.runFrom(ctx, session, func(ctx context.Context, c deps.Client) error {
		return c.SendReaction(ctx, link, emoji)
	})
}

// SendCommentFrom posts a reply under the linked message from one named
// session.
func (e *Engine) SendCommentFrom(ctx context.Context, session, link, text string) error {
	return e.runFrom(ctx, session, func(ctx context.Context, c deps.Client) error {
		return c.SendComment(ctx, link, text)
	})
}

// BlockUserFrom blocks a user id from one named session.
func (e *Engine) BlockUserFrom(ctx context.Context, session string, userID int64) error {
	return e.runFrom(ctx, session, func(ctx context.Context, c deps.Client) error {
		return c.BlockUser(ctx, userID)
	})
}

// runFrom applies one action through one named session. Flood waits are
// retried like in batches; a revoked session is removed.
func (e *Engine) runFrom(ctx context.Context, session string, apply actionFunc) error {
	client, ok := e.accounts.Get(session)
	if !ok {
		return accounterrors.ErrSessionNotFound
	}

	logger := e.logger.With().Str("session", session).Logger()
	_, err := e.applyWithRetry(ctx, logger, client, apply)
	if err == nil {
		return nil
	}

	if accounterrors.IsRevoked(err) {
		e.removeRevoked(ctx, logger, session)
	}
	return err
}

func (e *Engine) run(ctx context.Context, action Action, label string, count int, apply actionFunc) (*Result, error) {
	clients := e.pick(count)
	if len(clients) == 0 {
		return nil, accounterrors.ErrNoActiveSessions
	}

	batchID := uuid.NewString()
	logger := e.logger.With().Str("batch_id", batchID).Str("action", string(action)).Logger()
	logger.Info().Int("accounts", len(clients)).Msg("Batch started")

	start := time.Now()
	result := &Result{Action: action, Label: label, BatchID: batchID, Accounts: len(clients)}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	sem := make(chan struct{}, e.maxConcurrent())

	for _, client := range clients {
		wg.Add(1)
		go func(c deps.Client) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				e.metrics.RecordBulkAccountResult("error")
				mu.Lock()
				result.Errors++
				mu.Unlock()
				return
			}
			defer func() { <-sem }()

			slowed, err := e.applyWithRetry(ctx, logger, c, apply)
			if slowed {
				mu.Lock()
				result.Slowed = true
				mu.Unlock()
			}

			switch {
			case err == nil:
				e.metrics.RecordBulkAccountResult("success")
				mu.Lock()
				result.Success++
				mu.Unlock()
				// Pace successive actions while still holding the slot.
				e.pacingDelay(ctx)
			case accounterrors.IsRevoked(err):
				name := c.Name()
				logger.Warn().Err(err).Str("session", name).Msg("Session revoked during batch")
				e.removeRevoked(ctx, logger, name)
				e.metrics.RecordBulkAccountResult("revoked")
				mu.Lock()
				result.Errors++
				result.Revoked = append(result.Revoked, name)
				mu.Unlock()
			default:
				logger.Error().Err(err).Str("session", c.Name()).Msg("Account action failed")
				e.metrics.RecordBulkAccountResult("error")
				mu.Lock()
				result.Errors++
				mu.Unlock()
			}
		}(client)
	}
	wg.Wait()

	result.Duration = time.Since(start)
	e.metrics.RecordBulkOperation(string(action), result.Duration.Seconds())
	logger.Info().
		Int("success", result.Success).
		Int("errors", result.Errors).
		Int("revoked", len(result.Revoked)).
		Dur("duration", result.Duration).
		Msg("Batch finished")

	e.publish(ctx, result)
	return result, nil
}

// applyWithRetry runs the action once per attempt, waiting out flood-wait
// delays between attempts. The retry budget comes from configuration.
func (e *Engine) applyWithRetry(ctx context.Context, logger zerolog.Logger, c deps.Client, apply actionFunc) (bool, error) {
	maxAttempts := e.cfg.MaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	slowed := false
	for attempt := 1; ; attempt++ {
		err := e.applyOnce(ctx, c, apply)
		if err == nil {
			return slowed, nil
		}

		wait, isFlood := accounterrors.AsFloodWait(err)
		if !isFlood || attempt >= maxAttempts {
			return slowed, err
		}

		slowed = true
		e.metrics.RecordFloodWait()
		logger.Warn().
			Str("session", c.Name()).
			Dur("wait", wait).
			Int("attempt", attempt).
			Msg("Flood wait, retrying after mandated delay")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return slowed, ctx.Err()
		}
	}
}

func (e *Engine) applyOnce(ctx context.Context, c deps.Client, apply actionFunc) error {
	if e.cfg.ActionTimeout > 0 {
		actionCtx, cancel := context.WithTimeout(ctx, e.cfg.ActionTimeout)
		defer cancel()
		return apply(actionCtx, c)
	}
	return apply(ctx, c)
}

func (e *Engine) removeRevoked(ctx context.Context, logger zerolog.Logger, name string) {
	e.metrics.RecordSessionRevoked()
	if e.remover == nil {
		return
	}
	if err := e.remover.DeleteSession(ctx, name); err != nil {
		logger.Error().Err(err).Str("session", name).Msg("Failed to remove revoked session")
	}
}

// pick selects the batch targets in registry order. count <= 0 means every
// active account.
func (e *Engine) pick(count int) []deps.Client {
	if count <= 0 {
		count = e.accounts.ActiveCount()
	}
	return e.accounts.PickClients(count)
}

func (e *Engine) maxConcurrent() int {
	if e.cfg.MaxConcurrent < 1 {
		return 1
	}
	return e.cfg.MaxConcurrent
}

// pacingDelay sleeps a randomized duration between the configured minimum
// and maximum action delays.
func (e *Engine) pacingDelay(ctx context.Context) {
	minDelay := e.cfg.MinActionDelay
	maxDelay := e.cfg.MaxActionDelay
	if maxDelay < minDelay {
		maxDelay = minDelay
	}

	delay := minDelay
	if extra := maxDelay - minDelay; extra > 0 {
		delay += time.Duration(rand.Int63n(int64(extra)))
	}
	if delay <= 0 {
		return
	}

	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}

func (e *Engine) publish(ctx context.Context, result *Result) {
	if e.events == nil {
		return
	}
	event := BulkCompletedEvent{
		BatchID:    result.BatchID,
		Action:     string(result.Action),
		Accounts:   result.Accounts,
		Success:    result.Success,
		Errors:     result.Errors,
		Revoked:    result.Revoked,
		DurationMS: result.Duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
	if err := e.events.PublishBulkCompleted(ctx, event); err != nil {
		e.logger.Error().Err(err).Str("batch_id", result.BatchID).Msg("Failed to publish batch event")
	}
}
