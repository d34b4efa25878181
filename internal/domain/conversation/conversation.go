package conversation

import (
	"sync"

	"github.com/rs/zerolog"
)

// Step identifies the next input expected from a chat. StepNone means no
// flow is active.
type Step int

const (
	StepNone Step = iota
	// Account login flow
	StepPhone
	StepCode
	StepPassword
	// Monitoring list management
	StepKeywordAdd
	StepKeywordRemove
	StepIgnoreAdd
	StepIgnoreRemove
	StepGroupAdd
	StepGroupRemove
	// Action flows
	StepReactionLink
	StepReactionEmoji
	StepPollLink
	StepPollOption
	StepJoinLink
	StepLeaveLink
	StepBlockUser
	StepSendCount
	StepSendTarget
	StepSendText
	StepCommentLink
	StepCommentText
)

func (s Step) String() string {
	switch s {
	case StepNone:
		return "none"
	case StepPhone:
		return "phone"
	case StepCode:
		return "code"
	case StepPassword:
		return "password"
	case StepKeywordAdd:
		return "keyword_add"
	case StepKeywordRemove:
		return "keyword_remove"
	case StepIgnoreAdd:
		return "ignore_add"
	case StepIgnoreRemove:
		return "ignore_remove"
	case StepGroupAdd:
		return "group_add"
	case StepGroupRemove:
		return "group_remove"
	case StepReactionLink:
		return "reaction_link"
	case StepReactionEmoji:
		return "reaction_emoji"
	case StepPollLink:
		return "poll_link"
	case StepPollOption:
		return "poll_option"
	case StepJoinLink:
		return "join_link"
	case StepLeaveLink:
		return "leave_link"
	case StepBlockUser:
		return "block_user"
	case StepSendCount:
		return "send_count"
	case StepSendTarget:
		return "send_target"
	case StepSendText:
		return "send_text"
	case StepCommentLink:
		return "comment_link"
	case StepCommentText:
		return "comment_text"
	default:
		return "unknown"
	}
}

// Scratch carries the inputs collected so far in a multi-step flow.
type Scratch struct {
	Count   int    // accounts selected for a batch, 0 until chosen
	Session string // session name for an individual action
	Link    string
	Emoji   string
	Target  string
	Phone   string
	QRLogin string // pending QR login id awaiting a 2FA password
}

// State is the conversation position of one chat.
type State struct {
	Step    Step
	Scratch Scratch
}

// Manager tracks at most one active flow per chat id. States are ephemeral
// and never persisted.
type Manager struct {
	mu     sync.Mutex
	states map[int64]State
	logger zerolog.Logger
}

// NewManager creates an empty conversation manager.
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		states: make(map[int64]State),
		logger: logger.With().Str("component", "conversation").Logger(),
	}
}

// Get returns a copy of the chat's state.
func (m *Manager) Get(chatID int64) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[chatID]
	return state, ok
}

// Set replaces the chat's state. Starting a new flow while another is
// active simply supersedes it.
func (m *Manager) Set(chatID int64, state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[chatID] = state
	m.logger.Debug().Int64("chat_id", chatID).Stringer("step", state.Step).Msg("conversation step set")
}

// SetStep advances the chat to the next step, keeping its scratch.
func (m *Manager) SetStep(chatID int64, step Step) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.states[chatID]
	state.Step = step
	m.states[chatID] = state
	m.logger.Debug().Int64("chat_id", chatID).Stringer("step", step).Msg("conversation step advanced")
}

// Clear ends the chat's flow. Used on completion, cancel and unrecoverable
// errors.
func (m *Manager) Clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, chatID)
}

// Active reports whether the chat has a flow in progress.
func (m *Manager) Active(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[chatID]
	return ok && state.Step != StepNone
}
