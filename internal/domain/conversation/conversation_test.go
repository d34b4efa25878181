package conversation

import (
	"testing"

	"github.com/rs/zerolog"
)

func newTestManager() *Manager {
	return NewManager(zerolog.Nop())
}

func TestManager_SetAndGet(t *testing.T) {
	m := newTestManager()

	m.Set(100, State{Step: StepReactionLink, Scratch: Scratch{Count: 3}})

	state, ok := m.Get(100)
	if !ok {
		t.Fatal("Expected state for chat 100")
	}
	if state.Step != StepReactionLink {
		t.Errorf("Expected reaction link step, got: %s", state.Step)
	}
	if state.Scratch.Count != 3 {
		t.Errorf("Expected count 3 in scratch, got: %d", state.Scratch.Count)
	}
}

func TestManager_OneFlowPerChat(t *testing.T) {
	m := newTestManager()

	m.Set(100, State{Step: StepJoinLink})
	m.Set(100, State{Step: StepPhone})

	state, ok := m.Get(100)
	if !ok {
		t.Fatal("Expected state for chat 100")
	}
	if state.Step != StepPhone {
		t.Errorf("Expected new flow to supersede the old one, got: %s", state.Step)
	}
}

func TestManager_SetStep_KeepsScratch(t *testing.T) {
	m := newTestManager()

	m.Set(100, State{Step: StepCommentLink, Scratch: Scratch{Count: 2, Link: "https://t.me/somechannel/5"}})
	m.SetStep(100, StepCommentText)

	state, ok := m.Get(100)
	if !ok {
		t.Fatal("Expected state for chat 100")
	}
	if state.Step != StepCommentText {
		t.Errorf("Expected comment text step, got: %s", state.Step)
	}
	if state.Scratch.Link != "https://t.me/somechannel/5" {
		t.Errorf("Expected scratch link preserved, got: %q", state.Scratch.Link)
	}
	if state.Scratch.Count != 2 {
		t.Errorf("Expected scratch count preserved, got: %d", state.Scratch.Count)
	}
}

func TestManager_Clear(t *testing.T) {
	m := newTestManager()

	m.Set(100, State{Step: StepBlockUser})
	m.Clear(100)

	if _, ok := m.Get(100); ok {
		t.Error("Expected no state after clear")
	}
	if m.Active(100) {
		t.Error("Expected chat inactive after clear")
	}
}

func TestManager_ClearUnknownChat(t *testing.T) {
	m := newTestManager()
	m.Clear(42)
}

func TestManager_Active(t *testing.T) {
	m := newTestManager()

	if m.Active(100) {
		t.Error("Expected fresh chat to be inactive")
	}

	m.Set(100, State{Step: StepPollOption})
	if !m.Active(100) {
		t.Error("Expected chat with a step to be active")
	}

	m.Set(100, State{Step: StepNone})
	if m.Active(100) {
		t.Error("Expected StepNone to count as inactive")
	}
}

func TestManager_ChatsAreIndependent(t *testing.T) {
	m := newTestManager()

	m.Set(100, State{Step: StepJoinLink})
	m.Set(200, State{Step: StepPhone})

	m.Clear(100)

	if m.Active(100) {
		t.Error("Expected chat 100 cleared")
	}
	state, ok := m.Get(200)
	if !ok || state.Step != StepPhone {
		t.Errorf("Expected chat 200 untouched, got: %v %v", state.Step, ok)
	}
}
