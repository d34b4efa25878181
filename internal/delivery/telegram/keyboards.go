package telegram

import (
	"fmt"
	"strconv"

	"github.com/go-telegram/bot/models"
)

// Callback data for the static menu buttons. Dynamic callbacks append a
// count or session name to an action token (e.g. "reaction_3",
// "join_15551234567").
const (
	cbCancel            = "cancel"
	cbExit              = "exit"
	cbAccountManagement = "account_management"
	cbIndividualMenu    = "individual_keyboard"
	cbBulkMenu          = "bulk_operations"
	cbMonitorMenu       = "monitor_mode"
	cbReportMenu        = "report"
	cbAddAccount        = "add_account"
	cbListAccounts      = "list_accounts"
	cbInactiveAccounts  = "inactive_accounts"
	cbCheckReports      = "check_report_status"
	cbRequestPhone      = "request_phone_number"
	cbQRLogin           = "qr_login"
	cbUpdateGroups      = "update_groups"
	cbAddKeyword        = "add_keyword"
	cbRemoveKeyword     = "remove_keyword"
	cbIgnoreUser        = "ignore_user"
	cbRemoveIgnoreUser  = "remove_ignore_user"
	cbAddGroup          = "add_group"
	cbRemoveGroup       = "remove_group"
	cbShowStats         = "show_stats"
	cbShowGroups        = "show_groups"
	cbShowKeywords      = "show_keywords"
	cbShowIgnores       = "show_ignores"
)

// reactionEmojis maps reaction button callbacks to the emoji sent to the
// provider.
var reactionEmojis = map[string]string{
	"reaction_thumbsup": "👍",
	"reaction_heart":    "❤️",
	"reaction_laugh":    "😂",
	"reaction_wow":      "😮",
	"reaction_sad":      "😢",
	"reaction_angry":    "😡",
}

func btn(text, data string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: data}
}

func markup(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// appendCancelRow adds the shared cancel row under existing button rows.
func appendCancelRow(rows [][]models.InlineKeyboardButton) [][]models.InlineKeyboardButton {
	return append(rows, []models.InlineKeyboardButton{btn("Cancel", cbCancel)})
}

// cancelKeyboard is attached to free-text prompts so a flow can be
// abandoned at any step.
func cancelKeyboard() *models.InlineKeyboardMarkup {
	return markup([]models.InlineKeyboardButton{btn("Cancel", cbCancel)})
}

func startKeyboard() *models.InlineKeyboardMarkup {
	return markup(
		[]models.InlineKeyboardButton{btn("Account Management", cbAccountManagement)},
		[]models.InlineKeyboardButton{btn("Individual", cbIndividualMenu), btn("Bulk", cbBulkMenu)},
		[]models.InlineKeyboardButton{btn("Monitor Mode", cbMonitorMenu)},
		[]models.InlineKeyboardButton{btn("Report", cbReportMenu)},
	)
}

func monitorKeyboard() *models.InlineKeyboardMarkup {
	return markup(
		[]models.InlineKeyboardButton{btn("Add Keyword", cbAddKeyword), btn("Remove Keyword", cbRemoveKeyword)},
		[]models.InlineKeyboardButton{btn("Ignore User", cbIgnoreUser), btn("Remove Ignore", cbRemoveIgnoreUser)},
		[]models.InlineKeyboardButton{btn("Add Group", cbAddGroup), btn("Remove Group", cbRemoveGroup)},
		[]models.InlineKeyboardButton{btn("Update Groups", cbUpdateGroups)},
		[]models.InlineKeyboardButton{btn("Show Groups", cbShowGroups), btn("Show Keyword", cbShowKeywords)},
		[]models.InlineKeyboardButton{btn("Show Ignores", cbShowIgnores)},
		[]models.InlineKeyboardButton{btn("Exit", cbExit)},
	)
}

func bulkKeyboard() *models.InlineKeyboardMarkup {
	return markup(
		[]models.InlineKeyboardButton{btn("Reaction", "bulk_reaction")},
		[]models.InlineKeyboardButton{btn("Poll", "bulk_poll")},
		[]models.InlineKeyboardButton{btn("Join", "bulk_join")},
		[]models.InlineKeyboardButton{btn("Leave", "bulk_leave")},
		[]models.InlineKeyboardButton{btn("Block", "bulk_block")},
		[]models.InlineKeyboardButton{btn("Send pv", "bulk_send_pv")},
		[]models.InlineKeyboardButton{btn("Comment", "bulk_comment")},
		[]models.InlineKeyboardButton{btn("Exit", cbExit)},
	)
}

func individualKeyboard() *models.InlineKeyboardMarkup {
	return markup(
		[]models.InlineKeyboardButton{btn("Reaction", "reaction")},
		[]models.InlineKeyboardButton{btn("Send PV", "send_pv")},
		[]models.InlineKeyboardButton{btn("Join", "join")},
		[]models.InlineKeyboardButton{btn("Left", "left")},
		[]models.InlineKeyboardButton{btn("Comment", "comment")},
		[]models.InlineKeyboardButton{btn("Exit", cbExit)},
	)
}

func accountManagementKeyboard() *models.InlineKeyboardMarkup {
	return markup(
		[]models.InlineKeyboardButton{btn("Add Account", cbAddAccount)},
		[]models.InlineKeyboardButton{btn("List Accounts", cbListAccounts)},
		[]models.InlineKeyboardButton{btn("Exit", cbExit)},
	)
}

func addAccountKeyboard() *models.InlineKeyboardMarkup {
	return markup(
		[]models.InlineKeyboardButton{btn("Phone Number", cbRequestPhone)},
		[]models.InlineKeyboardButton{btn("QR Code", cbQRLogin)},
		[]models.InlineKeyboardButton{btn("Cancel", cbCancel)},
	)
}

func reportKeyboard() *models.InlineKeyboardMarkup {
	return markup(
		[]models.InlineKeyboardButton{btn("Show Stats", cbShowStats)},
		[]models.InlineKeyboardButton{btn("Check Report Status", cbCheckReports)},
		[]models.InlineKeyboardButton{btn("Exit", cbExit)},
	)
}

func reactionKeyboard() *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{
		{btn("Thumbs Up", "reaction_thumbsup"), btn("Heart", "reaction_heart"), btn("Laugh", "reaction_laugh")},
		{btn("Wow", "reaction_wow"), btn("Sad", "reaction_sad"), btn("Angry", "reaction_angry")},
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: appendCancelRow(rows)}
}

// countKeyboard offers 1..total account counts for a bulk action, three
// buttons per row.
func countKeyboard(action string, total int) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{}
	row := []models.InlineKeyboardButton{}
	for i := 1; i <= total; i++ {
		row = append(row, btn(strconv.Itoa(i), fmt.Sprintf("%s_%d", action, i)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = []models.InlineKeyboardButton{}
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: appendCancelRow(rows)}
}

// sessionKeyboard offers the active sessions for an individual action, two
// buttons per row.
func sessionKeyboard(action string, sessions []string) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{}
	row := []models.InlineKeyboardButton{}
	for _, name := range sessions {
		row = append(row, btn(name, fmt.Sprintf("%s_%s", action, name)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = []models.InlineKeyboardButton{}
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: appendCancelRow(rows)}
}

// toggleDeleteKeyboard is attached to one account's listing entry.
func toggleDeleteKeyboard(active bool, session string) *models.InlineKeyboardMarkup {
	toggle := "✅ Enable"
	if active {
		toggle = "❌ Disable"
	}
	return markup([]models.InlineKeyboardButton{
		btn(toggle, "toggle_"+session),
		btn("🗑 Delete", "delete_"+session),
	})
}

// accountsFooterKeyboard closes the account listing.
func accountsFooterKeyboard() *models.InlineKeyboardMarkup {
	return markup(
		[]models.InlineKeyboardButton{btn("Check Report Status", cbCheckReports)},
		[]models.InlineKeyboardButton{btn("Inactive Accounts", cbInactiveAccounts)},
	)
}

// reactivateKeyboard offers one reactivation button per parked account.
func reactivateKeyboard(names []string) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{}
	for _, name := range names {
		rows = append(rows, []models.InlineKeyboardButton{
			btn("♻️ Reactivate "+name, "reactivate_"+name),
		})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
