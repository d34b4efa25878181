package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/deps"
	accounterrors "github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/errors"
)

// loginFlow carries the interactive credentials for a first-time sign in.
// Saved sessions connect without one and never prompt.
type loginFlow struct {
	phone    string
	code     deps.CodeProvider
	password deps.PasswordProvider
}

// performLogin runs the phone and code flow, falling back to the 2FA
// password prompt when the account has one set. The providers block until
// the operator supplies each credential, so this can sit for a while.
func (c *MTProtoClient) performLogin(ctx context.Context) error {
	flow := auth.NewFlow(
		auth.CodeOnly(c.login.phone, auth.CodeAuthenticatorFunc(
			func(ctx context.Context, _ *tg.AuthSentCode) (string, error) {
				c.logger.Info().Msg("Authentication code requested")
				return c.login.code.Code(ctx)
			},
		)),
		auth.SendCodeOptions{},
	)

	err := c.client.Auth().IfNecessary(ctx, flow)
	if err == nil {
		c.logger.Info().Msg("Authentication successful")
		return nil
	}
	if !errors.Is(err, auth.ErrPasswordNotProvided) && !tgerr.Is(err, "SESSION_PASSWORD_NEEDED") {
		return classifyError(err)
	}

	if c.login.password == nil {
		return accounterrors.ErrPasswordNeeded
	}
	password, err := c.login.password.Password(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain 2FA password: %w", err)
	}
	if _, err := c.client.Auth().Password(ctx, password); err != nil {
		return classifyError(err)
	}
	c.logger.Info().Msg("2FA authentication successful")
	return nil
}

// classifyError maps raw MTProto errors onto the account error family so
// upper layers can branch on sentinel checks alone. Unrecognized errors
// pass through unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var rpcErr *tgerr.Error
	if errors.As(err, &rpcErr) && rpcErr.Code == 420 {
		return accounterrors.NewFloodWait(rpcErr.Argument)
	}

	switch {
	case tgerr.Is(err, "SESSION_REVOKED"),
		tgerr.Is(err, "SESSION_EXPIRED"),
		tgerr.Is(err, "AUTH_KEY_UNREGISTERED"),
		tgerr.Is(err, "USER_DEACTIVATED"),
		tgerr.Is(err, "USER_DEACTIVATED_BAN"):
		return fmt.Errorf("%w: %v", accounterrors.ErrSessionRevoked, err)
	case tgerr.Is(err, "SESSION_PASSWORD_NEEDED"):
		return accounterrors.ErrPasswordNeeded
	case tgerr.Is(err, "PHONE_CODE_INVALID"),
		tgerr.Is(err, "PHONE_CODE_EXPIRED"),
		tgerr.Is(err, "PHONE_CODE_EMPTY"),
		tgerr.Is(err, "PHONE_NUMBER_INVALID"),
		tgerr.Is(err, "PHONE_NUMBER_BANNED"),
		tgerr.Is(err, "PASSWORD_HASH_INVALID"):
		return fmt.Errorf("%w: %v", accounterrors.ErrAuthenticationFailed, err)
	}
	return err
}
