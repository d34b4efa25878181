package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	accounterrors "github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/errors"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/conversation"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/ops"
)

// maxCountDigits separates count suffixes from session name suffixes in
// compound callbacks. Session names are phone-derived and at least ten
// digits long, counts never exceed three.
const maxCountDigits = 3

// bulkActionSet holds the action tokens that accept a count suffix.
var bulkActionSet = map[string]bool{
	"reaction": true,
	"poll":     true,
	"join":     true,
	"leave":    true,
	"block":    true,
	"send_pv":  true,
	"comment":  true,
}

// individualActionSet holds the action tokens that accept a session
// suffix.
var individualActionSet = map[string]bool{
	"reaction": true,
	"send_pv":  true,
	"join":     true,
	"left":     true,
	"block":    true,
	"comment":  true,
}

// actionCallback is a parsed compound callback: either action plus bulk
// count or action plus session name.
type actionCallback struct {
	action  string
	count   int
	session string
}

// parseActionCallback splits an "<action>_<suffix>" callback. A short
// numeric suffix is a bulk account count, anything else is a session name.
func parseActionCallback(data string) (actionCallback, bool) {
	var out actionCallback
	for _, action := range []string{"send_pv", "reaction", "poll", "join", "leave", "left", "block", "comment"} {
		prefix := action + "_"
		if !strings.HasPrefix(data, prefix) {
			continue
		}
		rest := data[len(prefix):]
		if rest == "" {
			return out, false
		}

		if n, err := strconv.Atoi(rest); err == nil && len(rest) <= maxCountDigits {
			if n < 1 || !bulkActionSet[action] {
				return out, false
			}
			out.action = action
			out.count = n
			return out, true
		}

		if !individualActionSet[action] {
			return out, false
		}
		out.action = action
		out.session = rest
		return out, true
	}
	return out, false
}

// HandleCallback dispatches every callback query from the inline menus.
func (h *Handlers) HandleCallback(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil {
		return
	}
	h.answerCallback(ctx, cb.ID)

	chatID := callbackChatID(cb)
	if cb.From.ID != h.adminID {
		h.logger.Warn().Int64("user_id", cb.From.ID).Msg("Callback from non-admin user")
		h.sendText(ctx, chatID, "You are not the admin")
		return
	}

	data := cb.Data
	messageID := callbackMessageID(cb)
	h.logger.Debug().Str("data", data).Msg("Callback received")

	switch data {
	case cbCancel:
		h.onCancel(ctx, chatID, messageID)
		return
	case cbRequestPhone:
		h.conv.Set(chatID, conversation.State{Step: conversation.StepPhone})
		h.sendPrompt(ctx, chatID, "Please enter your phone number:")
		return
	case cbQRLogin:
		h.startQRLogin(ctx, chatID)
		return
	}

	if emoji, ok := reactionEmojis[data]; ok {
		h.onReactionPicked(ctx, chatID, emoji)
		return
	}

	if h.handleMenu(ctx, chatID, messageID, data) {
		return
	}

	switch {
	case strings.HasPrefix(data, "ignore_"):
		h.onIgnoreButton(ctx, chatID, strings.TrimPrefix(data, "ignore_"))
		return
	case strings.HasPrefix(data, "toggle_"):
		h.onToggle(chatID, strings.TrimPrefix(data, "toggle_"))
		return
	case strings.HasPrefix(data, "delete_"):
		h.onDelete(chatID, strings.TrimPrefix(data, "delete_"))
		return
	case strings.HasPrefix(data, "reactivate_"):
		h.onReactivate(chatID, strings.TrimPrefix(data, "reactivate_"))
		return
	}

	if cbData, ok := parseActionCallback(data); ok {
		if cbData.count > 0 {
			h.startBulkFlow(ctx, chatID, cbData.action, cbData.count)
		} else {
			h.startIndividualFlow(ctx, chatID, cbData.action, cbData.session)
		}
		return
	}

	h.sendText(ctx, chatID, "Command not recognized. Please try again.")
}

// handleMenu covers the static menu tokens. Returns false when data is not
// one of them.
func (h *Handlers) handleMenu(ctx context.Context, chatID int64, messageID int, data string) bool {
	switch data {
	case cbExit:
		h.conv.Clear(chatID)
		h.editMenu(ctx, chatID, messageID, "Please choose an option:", startKeyboard())
	case cbAccountManagement:
		h.editMenu(ctx, chatID, messageID, "Please choose an option:", accountManagementKeyboard())
	case cbIndividualMenu:
		h.editMenu(ctx, chatID, messageID, "Please choose an option:", individualKeyboard())
	case cbBulkMenu:
		h.editMenu(ctx, chatID, messageID, "Please choose an option:", bulkKeyboard())
	case cbMonitorMenu:
		h.editMenu(ctx, chatID, messageID, "Please choose an option:", monitorKeyboard())
	case cbReportMenu:
		h.editMenu(ctx, chatID, messageID, "Please choose an option:", reportKeyboard())

	case cbAddAccount:
		h.sendWithKeyboard(ctx, chatID, "How do you want to add the account?", addAccountKeyboard())
	case cbListAccounts:
		h.showAccounts(ctx, chatID)
	case cbInactiveAccounts:
		h.showInactiveAccounts(ctx, chatID)
	case cbCheckReports:
		h.checkReportStatus(ctx, chatID)

	case cbShowStats:
		h.showStats(ctx, chatID)
	case cbUpdateGroups:
		h.updateGroups(ctx, chatID)
	case cbShowGroups:
		h.sendText(ctx, chatID, groupsText(h.lifecycle.SessionStates()))
	case cbShowKeywords:
		h.sendText(ctx, chatID, keywordsText(h.store.Keywords()))
	case cbShowIgnores:
		h.sendHTML(ctx, chatID, ignoresText(h.store.IgnoreUsers()))

	case cbAddKeyword:
		h.conv.Set(chatID, conversation.State{Step: conversation.StepKeywordAdd})
		h.sendPrompt(ctx, chatID, "Please enter the keyword you want to add.")
	case cbRemoveKeyword:
		h.conv.Set(chatID, conversation.State{Step: conversation.StepKeywordRemove})
		h.sendPrompt(ctx, chatID, "Please enter the keyword you want to remove.")
	case cbIgnoreUser:
		h.conv.Set(chatID, conversation.State{Step: conversation.StepIgnoreAdd})
		h.sendPrompt(ctx, chatID, "Please enter the user ID you want to ignore.")
	case cbRemoveIgnoreUser:
		h.conv.Set(chatID, conversation.State{Step: conversation.StepIgnoreRemove})
		h.sendPrompt(ctx, chatID, "Please enter the user ID you want to remove from the ignore list.")
	case cbAddGroup:
		h.conv.Set(chatID, conversation.State{Step: conversation.StepGroupAdd})
		h.sendPrompt(ctx, chatID, "Please send the group ID to add (e.g., -1001234567890):")
	case cbRemoveGroup:
		h.conv.Set(chatID, conversation.State{Step: conversation.StepGroupRemove})
		h.sendPrompt(ctx, chatID, "Please send the group ID to remove:")

	case "bulk_reaction":
		h.promptBulkCount(ctx, chatID, "reaction")
	case "bulk_poll":
		h.promptBulkCount(ctx, chatID, "poll")
	case "bulk_join":
		h.promptBulkCount(ctx, chatID, "join")
	case "bulk_leave":
		h.promptBulkCount(ctx, chatID, "leave")
	case "bulk_block":
		h.promptBulkCount(ctx, chatID, "block")
	case "bulk_comment":
		h.promptBulkCount(ctx, chatID, "comment")
	case "bulk_send_pv":
		h.promptBulkSendCount(ctx, chatID)

	case "reaction", "send_pv", "join", "left", "block", "comment":
		h.promptSessionPick(ctx, chatID, data)

	default:
		return false
	}
	return true
}

// onCancel aborts whatever is pending for the chat: conversation state,
// an interactive login and any QR attempt, then shows the main menu.
func (h *Handlers) onCancel(ctx context.Context, chatID int64, messageID int) {
	if state, ok := h.conv.Get(chatID); ok && state.Scratch.QRLogin != "" {
		h.qr.Cancel(state.Scratch.QRLogin)
	}
	h.cancelLogin(chatID)
	h.conv.Clear(chatID)

	if messageID != 0 {
		h.deleteMessage(ctx, chatID, messageID)
	}
	h.sendWithKeyboard(ctx, chatID, "Telegram Management Bot\n\n", startKeyboard())
}

// onIgnoreButton handles the inline ignore control under a forwarded
// match in the review channel.
func (h *Handlers) onIgnoreButton(ctx context.Context, chatID int64, rest string) {
	userID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || userID <= 0 {
		h.sendText(ctx, chatID, "Invalid user ID.")
		return
	}

	if containsInt64(h.store.IgnoreUsers(), userID) {
		h.sendText(ctx, chatID, fmt.Sprintf("User ID %d is already ignored", userID))
		return
	}
	h.store.AddIgnoreUser(userID)
	h.sendText(ctx, chatID, fmt.Sprintf("User ID %d is now ignored", userID))
}

// onToggle flips one session between enabled and disabled. Enabling dials
// the provider, so the work runs off the handler goroutine.
func (h *Handlers) onToggle(chatID int64, session string) {
	go func() {
		ctx := context.Background()
		active, err := h.lifecycle.ToggleClient(ctx, session)
		if err != nil {
			if errors.Is(err, accounterrors.ErrSessionNotFound) {
				h.sendText(ctx, chatID, fmt.Sprintf("Account %s not found.", session))
				return
			}
			h.sendText(ctx, chatID, fmt.Sprintf("Error toggling account %s: %v", session, err))
			return
		}
		if active {
			h.sendText(ctx, chatID, fmt.Sprintf("Account %s enabled.", session))
		} else {
			h.sendText(ctx, chatID, fmt.Sprintf("Account %s disabled.", session))
		}
	}()
}

func (h *Handlers) onDelete(chatID int64, session string) {
	go func() {
		ctx := context.Background()
		if err := h.lifecycle.DeleteSession(ctx, session); err != nil {
			h.sendText(ctx, chatID, fmt.Sprintf("Error deleting account %s: %v", session, err))
			return
		}
		h.sendText(ctx, chatID, fmt.Sprintf("Account %s deleted successfully.", session))
	}()
}

func (h *Handlers) onReactivate(chatID int64, session string) {
	go func() {
		ctx := context.Background()
		if err := h.lifecycle.ReactivateAccount(ctx, session); err != nil {
			if errors.Is(err, accounterrors.ErrSessionNotFound) {
				h.sendText(ctx, chatID, fmt.Sprintf("Account %s not found.", session))
				return
			}
			h.sendText(ctx, chatID, fmt.Sprintf("Error reactivating account %s: %v", session, err))
			return
		}
		h.sendText(ctx, chatID, fmt.Sprintf("Account %s reactivated successfully.", session))
	}()
}

// onReactionPicked finishes a reaction flow once the emoji is chosen. The
// link was collected in the previous step.
func (h *Handlers) onReactionPicked(ctx context.Context, chatID int64, emoji string) {
	state, ok := h.conv.Get(chatID)
	if !ok || state.Scratch.Link == "" {
		h.sendText(ctx, chatID, "Link not found. Please start over.")
		return
	}
	h.conv.Clear(chatID)

	link := state.Scratch.Link
	if session := state.Scratch.Session; session != "" {
		h.runIndividual(chatID, "applying reaction", func(ctx context.Context) error {
			return h.engine.SendReactionFrom(ctx, session, link, emoji)
		}, fmt.Sprintf("Reaction %s applied successfully with account %s.", emoji, session))
		return
	}

	count := state.Scratch.Count
	h.runBulk(chatID, "applying reaction", func(ctx context.Context) (*ops.Result, error) {
		return h.engine.SendReaction(ctx, link, emoji, count)
	})
}

// promptBulkCount asks how many accounts should perform a bulk action,
// offering the counts as buttons.
func (h *Handlers) promptBulkCount(ctx context.Context, chatID int64, action string) {
	total := h.registry.ActiveCount()
	if total == 0 {
		h.sendText(ctx, chatID, "No active accounts found.")
		return
	}
	text := fmt.Sprintf("There are %d accounts available.\n\nPlease choose how many accounts (from 1 to %d) will perform the %s action:", total, total, action)
	h.sendWithKeyboard(ctx, chatID, text, countKeyboard(action, total))
}

// promptBulkSendCount asks for the account count of a bulk private-message
// run as typed input.
func (h *Handlers) promptBulkSendCount(ctx context.Context, chatID int64) {
	total := h.registry.ActiveCount()
	if total == 0 {
		h.sendText(ctx, chatID, "No active accounts found.")
		return
	}
	h.conv.Set(chatID, conversation.State{Step: conversation.StepSendCount})
	text := fmt.Sprintf("You currently have %d accounts available.\n\nHow many accounts do you want to use for this task?\n\nPlease send a number between 1 and %d:", total, total)
	h.sendPrompt(ctx, chatID, text)
}

// promptSessionPick offers the active sessions for an individual action.
func (h *Handlers) promptSessionPick(ctx context.Context, chatID int64, action string) {
	sessions := h.registry.Names()
	if len(sessions) == 0 {
		h.sendText(ctx, chatID, "No accounts available for this operation.")
		return
	}
	h.sendWithKeyboard(ctx, chatID, "Please select an account to perform the action:", sessionKeyboard(action, sessions))
}

// startBulkFlow begins the input conversation for a bulk action after the
// count was chosen.
func (h *Handlers) startBulkFlow(ctx context.Context, chatID int64, action string, count int) {
	scratch := conversation.Scratch{Count: count}
	switch action {
	case "reaction":
		h.conv.Set(chatID, conversation.State{Step: conversation.StepReactionLink, Scratch: scratch})
		h.sendPrompt(ctx, chatID, "Please send the message link to apply reaction:")
	case "poll":
		h.conv.Set(chatID, conversation.State{Step: conversation.StepPollLink, Scratch: scratch})
		h.sendPrompt(ctx, chatID, "Please send the poll link:")
	case "join":
		h.conv.Set(chatID, conversation.State{Step: conversation.StepJoinLink, Scratch: scratch})
		h.sendPrompt(ctx, chatID, "Please send the group/channel link to join:")
	case "leave":
		h.conv.Set(chatID, conversation.State{Step: conversation.StepLeaveLink, Scratch: scratch})
		h.sendPrompt(ctx, chatID, "Please send the group/channel link to leave:")
	case "block":
		h.conv.Set(chatID, conversation.State{Step: conversation.StepBlockUser, Scratch: scratch})
		h.sendPrompt(ctx, chatID, "Please send the user ID to block:")
	case "send_pv":
		h.conv.Set(chatID, conversation.State{Step: conversation.StepSendTarget, Scratch: scratch})
		h.sendPrompt(ctx, chatID, "Please send the user ID or username to send message:")
	case "comment":
		h.conv.Set(chatID, conversation.State{Step: conversation.StepCommentLink, Scratch: scratch})
		h.sendPrompt(ctx, chatID, "Please send the post/message link to comment:")
	}
}

// startIndividualFlow begins the input conversation for a single-account
// action after the session was chosen.
func (h *Handlers) startIndividualFlow(ctx context.Context, chatID int64, action, session string) {
	if !h.registry.Has(session) {
		h.sendText(ctx, chatID, fmt.Sprintf("Account %s not found.", session))
		return
	}

	scratch := conversation.Scratch{Session: session}
	switch action {
	case "reaction":
		h.conv.Set(chatID, conversation.State{Step: conversation.StepReactionLink, Scratch: scratch})
		h.sendPrompt(ctx, chatID, "Please send the message link to apply reaction:")
	case "send_pv":
		h.conv.Set(chatID, conversation.State{Step: conversation.StepSendTarget, Scratch: scratch})
		h.sendPrompt(ctx, chatID, "Please send the user ID or username to send message:")
	case "join":
		h.conv.Set(chatID, conversation.State{Step: conversation.StepJoinLink, Scratch: scratch})
		h.sendPrompt(ctx, chatID, "Please send the group/channel link or username to join:")
	case "left":
		h.conv.Set(chatID, conversation.State{Step: conversation.StepLeaveLink, Scratch: scratch})
		h.sendPrompt(ctx, chatID, "Please send the group/channel link or username to leave:")
	case "block":
		h.conv.Set(chatID, conversation.State{Step: conversation.StepBlockUser, Scratch: scratch})
		h.sendPrompt(ctx, chatID, "Please send the user ID to block:")
	case "comment":
		h.conv.Set(chatID, conversation.State{Step: conversation.StepCommentLink, Scratch: scratch})
		h.sendPrompt(ctx, chatID, "Please send the post/message link to comment:")
	}
}

// showAccounts lists every known session with its toggle and delete
// controls, one message per account.
func (h *Handlers) showAccounts(ctx context.Context, chatID int64) {
	sessions := h.lifecycle.SessionStates()
	if len(sessions) == 0 {
		h.sendText(ctx, chatID, "No accounts found.")
		return
	}

	for _, s := range sessions {
		h.sendWithKeyboard(ctx, chatID, accountText(s), toggleDeleteKeyboard(s.Active, s.Name))
	}
	h.sendWithKeyboard(ctx, chatID, fmt.Sprintf("Total accounts: %d", len(sessions)), accountsFooterKeyboard())
}

// showInactiveAccounts lists the parked sessions with reactivation
// controls.
func (h *Handlers) showInactiveAccounts(ctx context.Context, chatID int64) {
	inactive := h.store.InactiveAccounts()
	h.sendText(ctx, chatID, inactiveText(inactive))
	if len(inactive) == 0 {
		return
	}

	names := make([]string, 0, len(inactive))
	for name := range inactive {
		names = append(names, name)
	}
	sort.Strings(names)
	h.sendWithKeyboard(ctx, chatID, "Select an account to reactivate:", reactivateKeyboard(names))
}

func (h *Handlers) showStats(ctx context.Context, chatID int64) {
	doc := h.store.Document()
	h.sendText(ctx, chatID, statsText(len(doc.Clients), h.registry.ActiveCount(), len(doc.Keywords), len(doc.IgnoreUsers)))
}

// updateGroups refreshes the group lists of every active session. The
// refresh talks to the provider per account, so it runs in the background.
func (h *Handlers) updateGroups(ctx context.Context, chatID int64) {
	h.sendText(ctx, chatID, "Updating groups, please wait...")
	go func() {
		ctx := context.Background()
		counts, err := h.lifecycle.UpdateGroups(ctx)
		if err != nil {
			h.sendText(ctx, chatID, fmt.Sprintf("Error updating groups: %v", err))
			return
		}
		h.sendText(ctx, chatID, groupsUpdatedText(counts))
	}()
}

// checkReportStatus probes every active account against the report bot.
// Each probe waits for a reply, so the pass runs in the background.
func (h *Handlers) checkReportStatus(ctx context.Context, chatID int64) {
	h.sendText(ctx, chatID, "Checking report status, please wait...")
	go func() {
		ctx := context.Background()
		states, err := h.engine.ReportStatus(ctx, h.reportBot, h.reportWait)
		if err != nil {
			h.sendText(ctx, chatID, renderActionError("checking report status", err))
			return
		}
		h.sendText(ctx, chatID, reportStatusText(states))
	}()
}

// answerCallback acknowledges a callback query so the client stops its
// loading indicator.
func (h *Handlers) answerCallback(ctx context.Context, id string) {
	ansCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.AnswerCallbackQuery(ansCtx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: id,
	})
	if err != nil {
		h.logger.Debug().Err(err).Msg("Failed to answer callback query")
	}
}

// callbackChatID returns the chat the callback's message lives in, falling
// back to the sender for inaccessible messages.
func callbackChatID(cb *models.CallbackQuery) int64 {
	if cb.Message.Message != nil {
		return cb.Message.Message.Chat.ID
	}
	return cb.From.ID
}

func callbackMessageID(cb *models.CallbackQuery) int {
	if cb.Message.Message != nil {
		return cb.Message.Message.ID
	}
	return 0
}
