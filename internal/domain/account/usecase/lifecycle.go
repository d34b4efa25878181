package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/deps"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/entities"
	accounterrors "github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/errors"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/validate"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/metrics"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/store"
)

// Lifecycle drives sessions through their states: detected from the config
// document, connected at startup, disabled or reactivated on demand, and
// deleted together with their credential artifacts.
type Lifecycle struct {
	registry *Registry
	store    *store.Store
	factory  deps.ClientFactory
	tap      deps.MessageTap
	notifier deps.Notifier
	cfg      *config.PanelConfig
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	// detectMu serializes whole detection passes so two concurrent calls
	// cannot race between the registry lookup and the add.
	detectMu sync.Mutex
}

// NewLifecycle creates a Lifecycle manager. notifier may be nil when the
// administrator bot is not wired up.
func NewLifecycle(
	registry *Registry,
	st *store.Store,
	factory deps.ClientFactory,
	tap deps.MessageTap,
	notifier deps.Notifier,
	cfg *config.PanelConfig,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Lifecycle {
	return &Lifecycle{
		registry: registry,
		store:    st,
		factory:  factory,
		tap:      tap,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.With().Str("component", "lifecycle").Logger(),
		metrics:  m,
	}
}

// DetectSessions registers an unconnected client handle for every session
// name in the config document that is neither active nor parked as inactive.
// Returns the number of newly registered handles.
func (l *Lifecycle) DetectSessions() int {
	l.detectMu.Lock()
	defer l.detectMu.Unlock()

	clients := l.store.Clients()
	inactive := l.store.InactiveAccounts()

	names := make([]string, 0, len(clients))
	for name := range clients {
		names = append(names, name)
	}
	sort.Strings(names)

	added := 0
	for _, name := range names {
		if l.registry.Has(name) {
			continue
		}
		if _, parked := inactive[name]; parked {
			continue
		}

		client, err := l.factory.NewClient(name)
		if err != nil {
			l.logger.Error().Err(err).Str("session", name).Msg("Failed to build client for saved session")
			continue
		}
		if err := l.registry.Add(client); err != nil {
			l.logger.Warn().Err(err).Str("session", name).Msg("Session already registered, skipping")
			continue
		}
		added++
	}

	l.updateInactiveGauge()
	if added > 0 {
		l.logger.Info().Int("detected", added).Msg("Detected saved sessions")
	}
	return added
}

// StartSavedClients connects every detected session that is not yet
// connected. Sessions whose stored authorization is rejected are parked as
// inactive and reported to the administrator; they do not fail the startup.
// A short delay between accounts avoids provider rate limiting.
func (l *Lifecycle) StartSavedClients(ctx context.Context) (*entities.StartupReport, error) {
	start := time.Now()
	l.DetectSessions()

	report := &entities.StartupReport{Failed: make(map[string]string)}

	for _, client := range l.registry.Snapshot() {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if client.IsConnected() {
			continue
		}

		name := client.Name()
		if err := l.connectClient(ctx, client); err != nil {
			reason := l.parkFailedSession(ctx, name, err)
			report.Failed[name] = string(reason)
			continue
		}

		l.tap.Attach(client)
		report.Started = append(report.Started, name)
		l.metrics.RecordSessionConnect()
		l.logger.Info().Str("session", name).Msg("Session connected")

		if l.cfg.StartupDelay > 0 {
			select {
			case <-time.After(l.cfg.StartupDelay):
			case <-ctx.Done():
				return report, ctx.Err()
			}
		}
	}

	report.Duration = time.Since(start)
	l.logger.Info().
		Int("started", len(report.Started)).
		Int("failed", len(report.Failed)).
		Dur("duration", report.Duration).
		Msg("Startup connect pass finished")
	return report, nil
}

// connectClient dials with the configured timeout and verifies that the
// stored session is still authorized.
func (l *Lifecycle) connectClient(ctx context.Context, client deps.Client) error {
	connectCtx := ctx
	if l.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, l.cfg.ConnectTimeout)
		defer cancel()
	}
	return client.Connect(connectCtx)
}

// parkFailedSession moves a session that failed to connect into the inactive
// set with a classified reason. Revoked sessions are deleted outright since
// their credentials can never work again.
func (l *Lifecycle) parkFailedSession(ctx context.Context, name string, err error) entities.InactiveReason {
	reason := entities.ReasonNetworkError
	switch {
	case accounterrors.IsRevoked(err):
		reason = entities.ReasonRevoked
	case accounterrors.IsAuthFailure(err):
		reason = entities.ReasonAuthError
	}

	l.metrics.RecordSessionConnectError(string(reason))
	l.logger.Error().Err(err).Str("session", name).Str("reason", string(reason)).Msg("Session failed to start")

	if client, ok := l.registry.Remove(name); ok {
		if dErr := client.Disconnect(ctx); dErr != nil {
			l.logger.Debug().Err(dErr).Str("session", name).Msg("Disconnect after failed start")
		}
	}

	if reason == entities.ReasonRevoked {
		l.metrics.RecordSessionRevoked()
		if dErr := l.DeleteSession(ctx, name); dErr != nil {
			l.logger.Error().Err(dErr).Str("session", name).Msg("Failed to delete revoked session")
		}
	} else {
		l.store.MarkInactive(name, string(reason), err.Error())
		l.updateInactiveGauge()
	}

	l.notify(ctx, fmt.Sprintf("⚠️ Account %s failed to start: %s", name, reason))
	return reason
}

// DisconnectAllClients releases every monitor subscription, disconnects
// every client and clears the registry. Used at shutdown.
func (l *Lifecycle) DisconnectAllClients(ctx context.Context) {
	clients := l.registry.Clear()
	for _, client := range clients {
		l.tap.Detach(client)
		if err := client.Disconnect(ctx); err != nil {
			l.logger.Error().Err(err).Str("session", client.Name()).Msg("Failed to disconnect session")
		}
	}
	l.updateInactiveGauge()
	l.logger.Info().Int("count", len(clients)).Msg("All sessions disconnected")
}

/// DeleteSession removes a session everywhere: registry entry, config entry,
// inactive record and the stored credential artifact. Deleting a session
// that does not exist logs a warning and succeeds.
func (l *Lifecycle) DeleteSession(ctx context.Context, name string) error {
	known := l.store.HasClient(name)

	if client, ok := l.registry.Remove(name); ok {
		known = true
		l.tap.Detach(client)
		if err := client.Disconnect(ctx); err != nil {
			l.logger.Debug().Err(err).Str("session", name).Msg("Disconnect during delete")
		}
	}

	if !known {
		l.logger.Warn().Str("session", name).Msg("Delete requested for unknown session")
		return nil
	}

	l.store.RemoveClient(name)
	if err := l.factory.RemoveSession(name); err != nil {
		l.logger.Error().Err(err).Str("session", name).Msg("Failed to remove session artifact")
	}
	l.updateInactiveGauge()
	l.logger.Info().Str("session", name).Msg("Session deleted")
	return nil
}

// ToggleClient flips one session between active and disabled. Returns true
// when the session is active after the call.
func (l *Lifecycle) ToggleClient(ctx context.Context, name string) (bool, error) {
	if client, ok := l.registry.Remove(name); ok {
		l.tap.Detach(client)
		if err := client.Disconnect(ctx); err != nil {
			l.logger.Error().Err(err).Str("session", name).Msg("Failed to disconnect session")
		}
		l.logger.Info().Str("session", name).Msg("Session disabled")
		return false, nil
	}

	if !l.store.HasClient(name) {
		return false, accounterrors.ErrSessionNotFound
	}
	if err := l.activate(ctx, name); err != nil {
		return false, err
	}
	l.logger.Info().Str("session", name).Msg("Session enabled")
	return true, nil
}

// ReactivateAccount retries a session parked in the inactive set. On
// success the inactive record is cleared and the session is active again;
// on failure it stays parked with the fresh error recorded.
func (l *Lifecycle) ReactivateAccount(ctx context.Context, name string) error {
	if _, parked := l.store.InactiveAccounts()[name]; !parked {
		return accounterrors.ErrSessionNotFound
	}

	if err := l.activate(ctx, name); err != nil {
		reason := entities.ReasonNetworkError
		if accounterrors.IsAuthFailure(err) || accounterrors.IsRevoked(err) {
			reason = entities.ReasonAuthError
		}
		l.store.MarkInactive(name, string(reason), err.Error())
		l.updateInactiveGauge()
		return err
	}

	l.store.ClearInactive(name)
	l.updateInactiveGauge()
	l.metrics.RecordSessionReactivation()
	l.logger.Info().Str("session", name).Msg("Session reactivated")
	return nil
}

// activate builds a fresh client for a saved session, connects it and
// registers it. The monitor subscription is attached exactly once per
// client instance.
func (l *Lifecycle) activate(ctx context.Context, name string) error {
	client, err := l.factory.NewClient(name)
	if err != nil {
		return err
	}
	if err := l.connectClient(ctx, client); err != nil {
		return err
	}
	if err := l.registry.Add(client); err != nil {
		if dErr := client.Disconnect(ctx); dErr != nil {
			l.logger.Debug().Err(dErr).Str("session", name).Msg("Disconnect after duplicate add")
		}
		return err
	}
	if !client.HasMessageHandler() {
		l.tap.Attach(client)
	}
	return nil
}

// RegisterSession runs the interactive login flow for a new phone number
// and, on success, persists and activates the session. Returns the session
// name the account was stored under.
func (l *Lifecycle) RegisterSession(ctx context.Context, phone string, code deps.CodeProvider, password deps.PasswordProvider) (string, error) {
	if err := validate.PhoneNumber(phone); err != nil {
		return "", err
	}
	name := validate.SanitizeSessionName(phone)
	if l.registry.Has(name) || l.store.HasClient(name) {
		return "", accounterrors.ErrSessionExists
	}

	client, err := l.factory.NewLoginClient(name, phone, code, password)
	if err != nil {
		return "", err
	}

	if err := l.connectClient(ctx, client); err != nil {
		if dErr := client.Disconnect(ctx); dErr != nil {
			l.logger.Debug().Err(dErr).Str("session", name).Msg("Disconnect after failed login")
		}
		if rErr := l.factory.RemoveSession(name); rErr != nil {
			l.logger.Debug().Err(rErr).Str("session", name).Msg("Artifact cleanup after failed login")
		}
		return "", err
	}

	if err := l.registry.Add(client); err != nil {
		if dErr := client.Disconnect(ctx); dErr != nil {
			l.logger.Debug().Err(dErr).Str("session", name).Msg("Disconnect after duplicate add")
		}
		return "", err
	}

	l.store.SetClientGroups(name, []int64{})
	l.tap.Attach(client)
	l.metrics.RecordSessionConnect()
	l.logger.Info().Str("session", name).Str("phone", phone).Msg("Account added")
	return name, nil
}

// AdoptSession activates a session whose credential artifact already
// exists, as produced by a completed QR login. On success the session is
// connected, persisted in the config document and monitored.
func (l *Lifecycle) AdoptSession(ctx context.Context, name string) error {
	if name == "" {
		return accounterrors.ErrSessionNotFound
	}
	if l.registry.Has(name) || l.store.HasClient(name) {
		return accounterrors.ErrSessionExists
	}

	if err := l.activate(ctx, name); err != nil {
		if rErr := l.factory.RemoveSession(name); rErr != nil {
			l.logger.Debug().Err(rErr).Str("session", name).Msg("Artifact cleanup after failed adoption")
		}
		return err
	}

	l.store.SetClientGroups(name, []int64{})
	l.metrics.RecordSessionConnect()
	l.logger.Info().Str("session", name).Msg("Account adopted")
	return nil
}

// UpdateGroups refreshes the known group list of every active session and
// persists it. Returns the group count per session name.
func (l *Lifecycle) UpdateGroups(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, client := range l.registry.Snapshot() {
		if ctx.Err() != nil {
			return counts, ctx.Err()
		}
		name := client.Name()

		dialogs, err := client.GroupDialogs(ctx, 500)
		if err != nil {
			l.logger.Error().Err(err).Str("session", name).Msg("Failed to list group dialogs")
			continue
		}

		ids := make([]int64, 0, len(dialogs))
		for _, d := range dialogs {
			ids = append(ids, d.ID)
		}
		l.store.SetClientGroups(name, ids)
		counts[name] = len(ids)
	}
	l.logger.Info().Int("sessions", len(counts)).Msg("Group lists updated")
	return counts, nil
}

// SessionStates reports every known session with its current state for the
// account list screen. Active sessions come first in registry order,
// followed by disabled and inactive ones sorted by name.
func (l *Lifecycle) SessionStates() []entities.Session {
	active := l.registry.Names()
	activeSet := make(map[string]bool, len(active))
	sessions := make([]entities.Session, 0, len(active))

	clients := l.store.Clients()
	inactive := l.store.InactiveAccounts()

	for _, name := range active {
		activeSet[name] = true
		sessions = append(sessions, entities.Session{
			Name:   name,
			Groups: clients[name],
			Active: true,
		})
	}

	rest := make([]string, 0, len(clients))
	for name := range clients {
		if !activeSet[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)

	for _, name := range rest {
		s := entities.Session{Name: name, Groups: clients[name]}
		if rec, ok := inactive[name]; ok {
			s.InactiveReason = entities.InactiveReason(rec.Reason)
			s.LastSeen = time.Unix(rec.LastSeen, 0)
		}
		sessions = append(sessions, s)
	}
	return sessions
}

func (l *Lifecycle) notify(ctx context.Context, text string) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.NotifyAdmin(ctx, text); err != nil {
		l.logger.Error().Err(err).Msg("Failed to notify administrator")
	}
}

func (l *Lifecycle) updateInactiveGauge() {
	l.metrics.UpdateInactiveSessions(len(l.store.InactiveAccounts()))
}
