// Package conversation holds the in-memory state for active Grok
// conversations: per-conversation parameters and message history, plus the
// registry that maps conversation IDs to state and routes incoming messages.
package conversation

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotEnoughHistory is returned when a regeneration is requested before
	// a full user/assistant exchange exists.
	ErrNotEnoughHistory = errors.New("not enough history to regenerate")

	// ErrHistoryShape is returned when the last two history entries are not a
	// user entry followed by an assistant entry. The entries are restored
	// before the error is returned.
	ErrHistoryShape = errors.New("last exchange is not a user/assistant pair")
)

// Role identifies the author of a history entry.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is a single message in a conversation's history. Images are carried
// as attachment URLs, matching what the provider API accepts.
type Entry struct {
	Role      Role
	Text      string
	ImageURLs []string
}

// Params are the generation parameters fixed at conversation start, plus the
// two mutable knobs (tool set and paused flag) controlled through the
// component view. Sampling pointers are nil when the user did not set them.
type Params struct {
	ID        string
	OwnerID   string
	ChannelID string
	StartedAt time.Time

	Model            string
	SystemPrompt     string
	MaxTokens        int
	Temperature      *float32
	TopP             *float32
	FrequencyPenalty *float32
	PresencePenalty  *float32
	ReasoningEffort  string

	Tools  []Tool
	Paused bool
}

// Conversation is the state for one active conversation. All methods are safe
// for concurrent use; discordgo dispatches handlers on separate goroutines.
type Conversation struct {
	mu      sync.Mutex
	params  Params
	history []Entry
}

// New creates a conversation with the given parameters and an empty history.
func New(params Params) *Conversation {
	params.Tools = cloneTools(params.Tools)
	return &Conversation{params: params}
}

// ID returns the conversation identifier.
func (c *Conversation) ID() string { return c.params.ID }

// OwnerID returns the ID of the user who started the conversation.
func (c *Conversation) OwnerID() string { return c.params.OwnerID }

// ChannelID returns the ID of the channel the conversation lives in.
func (c *Conversation) ChannelID() string { return c.params.ChannelID }

// Params returns a copy of the current parameters.
func (c *Conversation) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.params
	p.Tools = cloneTools(c.params.Tools)
	return p
}

// SetTools replaces the active tool set.
func (c *Conversation) SetTools(tools []Tool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params.Tools = cloneTools(tools)
}

// TogglePause flips the paused flag and returns the new state.
func (c *Conversation) TogglePause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params.Paused = !c.params.Paused
	return c.params.Paused
}

// Paused reports whether the conversation is currently paused.
func (c *Conversation) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params.Paused
}

// Len returns the number of history entries.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}

// History returns a copy of the history in order.
func (c *Conversation) History() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.history))
	copy(out, c.history)
	return out
}

// AppendExchange records a completed user/assistant exchange. Entries are
// appended only after a successful generation, so history never carries a
// user entry without its reply.
func (c *Conversation) AppendExchange(user, assistant Entry) {
	user.Role = RoleUser
	assistant.Role = RoleAssistant
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, user, assistant)
}

// PopLastExchange removes and returns the last user/assistant pair for
// regeneration. With fewer than two entries it returns ErrNotEnoughHistory
// without mutating anything. If the tail is not a user entry followed by an
// assistant entry the entries are left in place and ErrHistoryShape is
// returned. On success the caller owns the removed pair and must either
// complete the regeneration or hand the pair back via Restore.
func (c *Conversation) PopLastExchange() (user, assistant Entry, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.history) < 2 {
		return Entry{}, Entry{}, ErrNotEnoughHistory
	}

	user = c.history[len(c.history)-2]
	assistant = c.history[len(c.history)-1]
	if user.Role != RoleUser || assistant.Role != RoleAssistant {
		return Entry{}, Entry{}, ErrHistoryShape
	}

	c.history = c.history[:len(c.history)-2]
	return user, assistant, nil
}

// Restore re-appends a pair previously removed by PopLastExchange, returning
// the conversation to its pre-regeneration state.
func (c *Conversation) Restore(user, assistant Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, user, assistant)
}
