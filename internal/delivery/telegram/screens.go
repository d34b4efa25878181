package telegram

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/entities"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/ops"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/store"
)

func statsText(total, active, keywords, ignored int) string {
	var b strings.Builder
	b.WriteString("Bot Statistics\n\n")
	fmt.Fprintf(&b, "• Total Accounts: %d\n", total)
	fmt.Fprintf(&b, "• Active Accounts: %d\n", active)
	fmt.Fprintf(&b, "• Keywords: %d\n", keywords)
	fmt.Fprintf(&b, "• Ignored Users: %d\n", ignored)
	return b.String()
}

func groupsText(states []entities.Session) string {
	if len(states) == 0 {
		return "No groups found. Please run 'Update Groups' first."
	}

	var b strings.Builder
	b.WriteString("Groups per Account:\n\n")
	total := 0
	for _, s := range states {
		fmt.Fprintf(&b, "• %s: %d groups\n", s.Name, len(s.Groups))
		total += len(s.Groups)
	}
	fmt.Fprintf(&b, "\nTotal: %d groups", total)
	return b.String()
}

func keywordsText(keywords []string) string {
	if len(keywords) == 0 {
		return "No keywords configured yet."
	}

	var b strings.Builder
	b.WriteString("Configured Keywords:\n\n")
	for i, keyword := range keywords {
		fmt.Fprintf(&b, "%d. %s\n", i+1, keyword)
	}
	return b.String()
}

func ignoresText(ids []int64) string {
	if len(ids) == 0 {
		return "No users are currently ignored."
	}

	var b strings.Builder
	b.WriteString("Ignored Users:\n\n")
	for i, id := range ids {
		fmt.Fprintf(&b, "%d. User ID: <code>%d</code>\n", i+1, id)
	}
	return b.String()
}

func targetGroupsText(ids []int64) string {
	if len(ids) == 0 {
		return "No target groups configured yet."
	}

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return "Current target groups: " + strings.Join(parts, ", ")
}

// accountText renders one session for the account listing.
func accountText(s entities.Session) string {
	status := "🟢 Active"
	if !s.Active {
		status = "🔴 Inactive"
		if s.InactiveReason != "" && s.InactiveReason != entities.ReasonNone {
			status = fmt.Sprintf("🔴 Inactive (%s)", s.InactiveReason)
		}
	}
	phone := s.Phone
	if phone == "" {
		// Session names are derived from the phone number.
		phone = "+" + s.Name
	}
	return fmt.Sprintf("Session: %s\nPhone: %s\nStatus: %s\nGroups: %d", s.Name, phone, status, len(s.Groups))
}

func groupsUpdatedText(counts map[string]int) string {
	if len(counts) == 0 {
		return "No active accounts to update."
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Groups updated:\n\n")
	total := 0
	for _, name := range names {
		fmt.Fprintf(&b, "• %s: %d groups\n", name, counts[name])
		total += counts[name]
	}
	fmt.Fprintf(&b, "\nTotal: %d groups", total)
	return b.String()
}

func reportStatusText(states map[string]ops.ReportState) string {
	if len(states) == 0 {
		return "No active accounts to check."
	}

	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Report Status:\n\n")
	for _, name := range names {
		icon := "❓"
		switch states[name] {
		case ops.ReportClean:
			icon = "✅"
		case ops.ReportFlagged:
			icon = "⚠️"
		}
		fmt.Fprintf(&b, "• %s: %s %s\n", name, icon, states[name])
	}
	return b.String()
}

func inactiveText(records map[string]store.InactiveAccount) string {
	if len(records) == 0 {
		return "No inactive accounts."
	}

	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Inactive Accounts:\n\n")
	for _, name := range names {
		rec := records[name]
		since := time.Unix(rec.LastSeen, 0).UTC().Format("2006-01-02 15:04")
		fmt.Fprintf(&b, "• %s: %s (since %s)\n", name, rec.Reason, since)
	}
	return b.String()
}
