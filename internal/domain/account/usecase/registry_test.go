package usecase

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	accounterrors "github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/errors"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/metrics"
)

func newTestRegistry() *Registry {
	return NewRegistry(zerolog.Nop(), metrics.GetDefaultMetrics())
}

func TestRegistry_Add_RejectsDuplicate(t *testing.T) {
	r := newTestRegistry()

	if err := r.Add(&mockClient{name: "alpha"}); err != nil {
		t.Fatalf("Expected first add to succeed, got: %v", err)
	}

	err := r.Add(&mockClient{name: "alpha"})
	if !errors.Is(err, accounterrors.ErrSessionExists) {
		t.Errorf("Expected ErrSessionExists, got: %v", err)
	}

	if r.Len() != 1 {
		t.Errorf("Expected 1 registered session, got: %d", r.Len())
	}
}

func TestRegistry_Snapshot_KeepsInsertionOrder(t *testing.T) {
	r := newTestRegistry()
	names := []string{"charlie", "alpha", "bravo"}
	for _, n := range names {
		if err := r.Add(&mockClient{name: n}); err != nil {
			t.Fatalf("Expected add to succeed for %s, got: %v", n, err)
		}
	}

	snapshot := r.Snapshot()
	if len(snapshot) != len(names) {
		t.Fatalf("Expected %d clients, got: %d", len(names), len(snapshot))
	}
	for i, c := range snapshot {
		if c.Name() != names[i] {
			t.Errorf("Expected %s at position %d, got: %s", names[i], i, c.Name())
		}
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := newTestRegistry()
	client := &mockClient{name: "alpha"}
	if err := r.Add(client); err != nil {
		t.Fatalf("Expected add to succeed, got: %v", err)
	}

	removed, ok := r.Remove("alpha")
	if !ok {
		t.Fatal("Expected remove to find the session")
	}
	if removed != client {
		t.Error("Expected the registered client back from Remove")
	}
	if r.Has("alpha") {
		t.Error("Expected session to be gone after Remove")
	}

	if _, ok := r.Remove("alpha"); ok {
		t.Error("Expected second remove to report missing session")
	}
}

func TestRegistry_PickClients(t *testing.T) {
	tests := []struct {
		name      string
		available int
		request   int
		want      int
	}{
		{
			name:      "fewer requested than available",
			available: 3,
			request:   2,
			want:      2,
		},
		{
			name:      "more requested than available",
			available: 2,
			request:   5,
			want:      2,
		},
		{
			name:      "zero requested",
			available: 2,
			request:   0,
			want:      0,
		},
		{
			name:      "negative request",
			available: 2,
			request:   -1,
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry()
			for i := 0; i < tt.available; i++ {
				if err := r.Add(&mockClient{name: string(rune('a' + i))}); err != nil {
					t.Fatalf("Expected add to succeed, got: %v", err)
				}
			}

			picked := r.PickClients(tt.request)
			if len(picked) != tt.want {
				t.Errorf("Expected %d clients, got: %d", tt.want, len(picked))
			}
		})
	}
}

func TestRegistry_PickClients_FirstInOrder(t *testing.T) {
	r := newTestRegistry()
	for _, n := range []string{"one", "two", "three"} {
		if err := r.Add(&mockClient{name: n}); err != nil {
			t.Fatalf("Expected add to succeed, got: %v", err)
		}
	}

	picked := r.PickClients(2)
	if len(picked) != 2 {
		t.Fatalf("Expected 2 clients, got: %d", len(picked))
	}
	if picked[0].Name() != "one" || picked[1].Name() != "two" {
		t.Errorf("Expected first two sessions in order, got: %s, %s", picked[0].Name(), picked[1].Name())
	}
}

func TestRegistry_Clear(t *testing.T) {
	r := newTestRegistry()
	for _, n := range []string{"one", "two"} {
		if err := r.Add(&mockClient{name: n}); err != nil {
			t.Fatalf("Expected add to succeed, got: %v", err)
		}
	}

	cleared := r.Clear()
	if len(cleared) != 2 {
		t.Errorf("Expected 2 cleared clients, got: %d", len(cleared))
	}
	if r.Len() != 0 {
		t.Errorf("Expected empty registry after clear, got: %d", r.Len())
	}
}
