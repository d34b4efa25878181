package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "config.json"), zerolog.Nop())
}

func TestNew_MissingFile(t *testing.T) {
	s := newTestStore(t)

	doc := s.Document()
	if len(doc.TargetGroups) != 0 || len(doc.Keywords) != 0 || len(doc.IgnoreUsers) != 0 {
		t.Errorf("expected empty default document, got %+v", doc)
	}
	if doc.Clients == nil || len(doc.Clients) != 0 {
		t.Errorf("expected empty clients map, got %v", doc.Clients)
	}
}

func TestNew_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(path, zerolog.Nop())
	doc := s.Document()
	if len(doc.Keywords) != 0 {
		t.Errorf("expected default document for corrupt file, got %+v", doc)
	}
}

func TestNew_NonObjectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`[1, 2, 3]`), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(path, zerolog.Nop())
	doc := s.Document()
	if doc.Clients == nil {
		t.Error("expected default document for non-object file")
	}
}

func TestNew_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"KEYWORDS": ["news"]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(path, zerolog.Nop())
	if got := s.Keywords(); !reflect.DeepEqual(got, []string{"news"}) {
		t.Errorf("Keywords = %v, want [news]", got)
	}
	if s.TargetGroups() == nil || s.IgnoreUsers() == nil {
		t.Error("missing keys should normalize to empty lists")
	}
}

func TestStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	s := New(path, zerolog.Nop())
	s.Update(func(doc *Document) {
		doc.TargetGroups = []int64{-100123, -100456}
		doc.Keywords = []string{"alpha", "beta"}
		doc.IgnoreUsers = []int64{7}
		doc.Clients = map[string][]int64{"1234567890": {-100123}}
		doc.InactiveAccounts = map[string]InactiveAccount{
			"0987654321": {Reason: "auth_error", LastSeen: 1700000000, ErrorDetails: "code expired"},
		}
	})

	reloaded := New(path, zerolog.Nop())
	if !reflect.DeepEqual(s.Document(), reloaded.Document()) {
		t.Errorf("round trip mismatch:\nsaved:    %+v\nreloaded: %+v", s.Document(), reloaded.Document())
	}
}

func TestStore_SaveIsWellFormedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	s := New(path, zerolog.Nop())
	s.AddKeyword("check")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("saved config is not valid JSON: %v", err)
	}
	for _, key := range []string{"TARGET_GROUPS", "KEYWORDS", "IGNORE_USERS", "clients"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("saved config missing key %q", key)
		}
	}
}

func TestMerge_DeduplicatesUnion(t *testing.T) {
	s := newTestStore(t)
	s.Update(func(doc *Document) {
		doc.Keywords = []string{"a", "b", "c"}
	})

	s.Merge(Partial{Keywords: []string{"b", "c", "d", "d"}})

	got := s.Keywords()
	sort.Strings(got)
	want := []string{"a", "b", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("merged keywords = %v, want %v", got, want)
	}
}

func TestMerge_PreservesFirstOccurrenceOrder(t *testing.T) {
	s := newTestStore(t)
	s.Update(func(doc *Document) {
		doc.IgnoreUsers = []int64{3, 1}
	})

	s.Merge(Partial{IgnoreUsers: []int64{1, 2}})

	if got, want := s.IgnoreUsers(), []int64{3, 1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("merged ignore users = %v, want %v", got, want)
	}
}

func TestMerge_NonListReplaces(t *testing.T) {
	s := newTestStore(t)
	s.SetClientGroups("old", []int64{1})

	s.Merge(Partial{Clients: map[string][]int64{"new": {2}}})

	clients := s.Clients()
	if _, ok := clients["old"]; ok {
		t.Error("merge of clients map should replace, not union")
	}
	if !reflect.DeepEqual(clients["new"], []int64{2}) {
		t.Errorf("clients[new] = %v, want [2]", clients["new"])
	}
}

func TestRemoveClient_Unknown(t *testing.T) {
	s := newTestStore(t)
	s.SetClientGroups("kept", []int64{1})

	before := s.Document()
	s.RemoveClient("missing")
	after := s.Document()

	if !reflect.DeepEqual(before, after) {
		t.Errorf("removing an unknown client changed the document:\nbefore: %+v\nafter:  %+v", before, after)
	}
}

func TestMarkInactive_ThenClear(t *testing.T) {
	s := newTestStore(t)

	s.MarkInactive("1234567890", "auth_error", "login code rejected")
	acc, ok := s.InactiveAccounts()["1234567890"]
	if !ok {
		t.Fatal("expected inactive record")
	}
	if acc.Reason != "auth_error" || acc.ErrorDetails != "login code rejected" {
		t.Errorf("unexpected inactive record: %+v", acc)
	}
	if acc.LastSeen == 0 {
		t.Error("expected LastSeen to be stamped")
	}

	s.ClearInactive("1234567890")
	if _, ok := s.InactiveAccounts()["1234567890"]; ok {
		t.Error("expected inactive record to be cleared")
	}
}

func TestMutators(t *testing.T) {
	s := newTestStore(t)

	s.AddKeyword("news")
	s.AddKeyword("news") // duplicate is a no-op
	s.AddTargetGroup(-100555)
	s.AddIgnoreUser(42)

	if got := s.Keywords(); !reflect.DeepEqual(got, []string{"news"}) {
		t.Errorf("Keywords = %v", got)
	}
	if got := s.TargetGroups(); !reflect.DeepEqual(got, []int64{-100555}) {
		t.Errorf("TargetGroups = %v", got)
	}
	if got := s.IgnoreUsers(); !reflect.DeepEqual(got, []int64{42}) {
		t.Errorf("IgnoreUsers = %v", got)
	}

	s.RemoveKeyword("news")
	s.RemoveTargetGroup(-100555)
	s.RemoveIgnoreUser(42)

	if len(s.Keywords()) != 0 || len(s.TargetGroups()) != 0 || len(s.IgnoreUsers()) != 0 {
		t.Error("expected all removals to take effect")
	}
}

func TestSanitizePath_Traversal(t *testing.T) {
	got := sanitizePath("data/../../evil.json")
	if filepath.Base(got) != "evil.json" {
		t.Errorf("unexpected base name: %q", got)
	}
	if filepath.IsAbs(got) {
		t.Errorf("sanitized path should stay relative, got %q", got)
	}
}

func TestSanitizePath_NonJSONFallsBack(t *testing.T) {
	got := sanitizePath("data/config.txt")
	if filepath.Base(got) != "config.json" {
		t.Errorf("expected fallback to config.json, got %q", got)
	}
}

func TestHasClient(t *testing.T) {
	s := newTestStore(t)
	if s.HasClient("nope") {
		t.Error("unexpected client")
	}
	s.SetClientGroups("1234567890", nil)
	if !s.HasClient("1234567890") {
		t.Error("expected client after SetClientGroups")
	}
}
