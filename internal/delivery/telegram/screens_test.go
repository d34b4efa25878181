package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/entities"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/ops"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/store"
)

func TestStatsText(t *testing.T) {
	got := statsText(5, 3, 7, 2)

	want := "Bot Statistics\n\n" +
		"• Total Accounts: 5\n" +
		"• Active Accounts: 3\n" +
		"• Keywords: 7\n" +
		"• Ignored Users: 2\n"
	if got != want {
		t.Errorf("Expected %q, got: %q", want, got)
	}
}

func TestGroupsText(t *testing.T) {
	if got := groupsText(nil); got != "No groups found. Please run 'Update Groups' first." {
		t.Errorf("Expected empty-state text, got: %q", got)
	}

	got := groupsText([]entities.Session{
		{Name: "15551234567", Groups: []int64{-1001, -1002}},
		{Name: "15557654321", Groups: []int64{-1003}},
	})
	if !strings.Contains(got, "• 15551234567: 2 groups") {
		t.Errorf("Expected per-account group count, got: %q", got)
	}
	if !strings.Contains(got, "Total: 3 groups") {
		t.Errorf("Expected total across accounts, got: %q", got)
	}
}

func TestKeywordsText(t *testing.T) {
	if got := keywordsText(nil); got != "No keywords configured yet." {
		t.Errorf("Expected empty-state text, got: %q", got)
	}

	got := keywordsText([]string{"crypto", "airdrop"})
	want := "Configured Keywords:\n\n1. crypto\n2. airdrop\n"
	if got != want {
		t.Errorf("Expected %q, got: %q", want, got)
	}
}

func TestIgnoresText(t *testing.T) {
	if got := ignoresText(nil); got != "No users are currently ignored." {
		t.Errorf("Expected empty-state text, got: %q", got)
	}

	got := ignoresText([]int64{42, -7})
	want := "Ignored Users:\n\n1. User ID: <code>42</code>\n2. User ID: <code>-7</code>\n"
	if got != want {
		t.Errorf("Expected %q, got: %q", want, got)
	}
}

func TestTargetGroupsText(t *testing.T) {
	if got := targetGroupsText(nil); got != "No target groups configured yet." {
		t.Errorf("Expected empty-state text, got: %q", got)
	}

	got := targetGroupsText([]int64{-1001234567890, 42})
	if got != "Current target groups: -1001234567890, 42" {
		t.Errorf("Expected comma separated group list, got: %q", got)
	}
}

func TestAccountText(t *testing.T) {
	active := entities.Session{
		Name:   "15551234567",
		Phone:  "+15551234567",
		Active: true,
		Groups: []int64{-1001, -1002},
	}
	got := accountText(active)
	want := "Session: 15551234567\nPhone: +15551234567\nStatus: 🟢 Active\nGroups: 2"
	if got != want {
		t.Errorf("Expected %q, got: %q", want, got)
	}

	revoked := entities.Session{
		Name:           "15551234567",
		Phone:          "+15551234567",
		Active:         false,
		InactiveReason: entities.ReasonRevoked,
	}
	if got := accountText(revoked); !strings.Contains(got, "🔴 Inactive (revoked)") {
		t.Errorf("Expected inactive status with reason, got: %q", got)
	}

	parked := entities.Session{Name: "15551234567", Phone: "+15551234567"}
	if got := accountText(parked); !strings.Contains(got, "Status: 🔴 Inactive\n") {
		t.Errorf("Expected bare inactive status, got: %q", got)
	}
}

func TestAccountText_PhoneFallsBackToName(t *testing.T) {
	s := entities.Session{Name: "15551234567", Active: true}

	got := accountText(s)
	if !strings.Contains(got, "Phone: +15551234567") {
		t.Errorf("Expected phone derived from the session name, got: %q", got)
	}
}

func TestGroupsUpdatedText(t *testing.T) {
	if got := groupsUpdatedText(nil); got != "No active accounts to update." {
		t.Errorf("Expected empty-state text, got: %q", got)
	}

	got := groupsUpdatedText(map[string]int{"15557654321": 2, "15551234567": 3})
	want := "Groups updated:\n\n• 15551234567: 3 groups\n• 15557654321: 2 groups\n\nTotal: 5 groups"
	if got != want {
		t.Errorf("Expected sorted account lines, got: %q", got)
	}
}

func TestReportStatusText(t *testing.T) {
	if got := reportStatusText(nil); got != "No active accounts to check." {
		t.Errorf("Expected empty-state text, got: %q", got)
	}

	got := reportStatusText(map[string]ops.ReportState{
		"15551234567": ops.ReportClean,
		"15557654321": ops.ReportFlagged,
		"15550000001": ops.ReportUnknown,
	})
	if !strings.Contains(got, "• 15551234567: ✅ clean") {
		t.Errorf("Expected clean marker, got: %q", got)
	}
	if !strings.Contains(got, "• 15557654321: ⚠️ reported") {
		t.Errorf("Expected reported marker, got: %q", got)
	}
	if !strings.Contains(got, "• 15550000001: ❓ unknown") {
		t.Errorf("Expected unknown marker, got: %q", got)
	}
}

func TestInactiveText(t *testing.T) {
	if got := inactiveText(nil); got != "No inactive accounts." {
		t.Errorf("Expected empty-state text, got: %q", got)
	}

	seen := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC).Unix()
	got := inactiveText(map[string]store.InactiveAccount{
		"15551234567": {Reason: "revoked", LastSeen: seen},
	})
	want := "Inactive Accounts:\n\n• 15551234567: revoked (since 2024-05-01 12:30)\n"
	if got != want {
		t.Errorf("Expected %q, got: %q", want, got)
	}
}
