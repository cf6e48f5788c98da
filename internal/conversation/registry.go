package conversation

import (
	"errors"
	"sync"
)

var (
	// ErrConversationExists is returned by Create when the owner already has
	// an active conversation in the same channel.
	ErrConversationExists = errors.New("active conversation already exists for this user in this channel")

	// ErrDuplicateID is returned by Create when the conversation ID is
	// already registered.
	ErrDuplicateID = errors.New("conversation id already registered")
)

// Registry owns all active conversations. It maps conversation IDs to state
// and bot reply message IDs back to their conversation, so both the message
// router and component interactions can find the conversation they belong to.
// State is process-local only; everything here is lost on restart.
type Registry struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	messageIndex  map[string]string // reply message ID -> conversation ID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conversations: make(map[string]*Conversation),
		messageIndex:  make(map[string]string),
	}
}

// Create registers a conversation. It fails with ErrConversationExists if the
// owner already has an active conversation in the same channel, and with
// ErrDuplicateID on an ID collision.
func (r *Registry) Create(c *Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[c.ID()]; ok {
		return ErrDuplicateID
	}
	for _, existing := range r.conversations {
		if existing.OwnerID() == c.OwnerID() && existing.ChannelID() == c.ChannelID() {
			return ErrConversationExists
		}
	}

	r.conversations[c.ID()] = c
	return nil
}

// Get returns the conversation for id, if registered.
func (r *Registry) Get(id string) (*Conversation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conversations[id]
	return c, ok
}

// Remove deletes a conversation and every message-index entry pointing at it.
// The removed conversation is returned so the caller can archive it.
func (r *Registry) Remove(id string) (*Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[id]
	if !ok {
		return nil, false
	}
	delete(r.conversations, id)
	for msgID, convID := range r.messageIndex {
		if convID == id {
			delete(r.messageIndex, msgID)
		}
	}
	return c, true
}

// FindByChannelUser returns the conversation owned by userID in channelID.
// This is the message router's lookup: an incoming message continues a
// conversation only when both the author and the channel match.
func (r *Registry) FindByChannelUser(channelID, userID string) (*Conversation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.conversations {
		if c.ChannelID() == channelID && c.OwnerID() == userID {
			return c, true
		}
	}
	return nil, false
}

// TrackMessage records that a bot reply belongs to a conversation. Unknown
// conversation IDs are ignored; the reply would be orphaned anyway.
func (r *Registry) TrackMessage(messageID, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[conversationID]; !ok {
		return
	}
	r.messageIndex[messageID] = conversationID
}

// ConversationForMessage resolves a bot reply message back to its
// conversation.
func (r *Registry) ConversationForMessage(messageID string) (*Conversation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.messageIndex[messageID]
	if !ok {
		return nil, false
	}
	c, ok := r.conversations[id]
	return c, ok
}

// Len returns the number of active conversations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conversations)
}
