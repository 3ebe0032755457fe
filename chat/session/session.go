// Package session maps conversation ids to their in-flight dialog
// state. States live in a 30 minute TTL cache fronting the durable
// store; expired entries are swept opportunistically on each resolve
// rather than by a background timer.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/extract"
	"github.com/Team1-AD-project/EcoGoProject-sub000/store"
)

const conversationTTL = 30 * time.Minute

// PendingUpdate is a privileged cross-user profile edit waiting for an
// explicit confirmation. It is intentionally not persisted: a restart
// drops the pending edit and the admin has to restate it.
type PendingUpdate struct {
	TargetUserID string
	Patch        extract.ProfilePatch
}

// State is the per-conversation dialog state: the active intent plus
// the slots collected so far.
type State struct {
	Intent        string
	Slots         map[string]any
	PendingUpdate *PendingUpdate
}

// NewState returns an empty state with no active intent.
func NewState() *State {
	return &State{Slots: map[string]any{}}
}

// Reset clears the intent, all slots and any pending update.
func (s *State) Reset() {
	s.Intent = ""
	s.Slots = map[string]any{}
	s.PendingUpdate = nil
}

// SlotString returns the named slot as a string, or "" when absent or
// not a string.
func (s *State) SlotString(key string) string {
	if v, ok := s.Slots[key].(string); ok {
		return v
	}
	return ""
}

// SlotInt returns the named slot as an int. JSON rehydration turns
// numbers into float64, so both are accepted.
func (s *State) SlotInt(key string) (int, bool) {
	switch v := s.Slots[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// CacheObserver counts cache hits and misses per cache type.
type CacheObserver interface {
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

// Manager resolves and persists conversation states. Durable-store
// failures degrade to cache-only operation instead of failing the turn.
type Manager struct {
	cache    *gocache.Cache
	store    *store.Store
	observer CacheObserver
}

func NewManager(st *store.Store) *Manager {
	// Janitor disabled; DeleteExpired runs inline on Resolve.
	return &Manager{
		cache: gocache.New(conversationTTL, 0),
		store: st,
	}
}

// SetObserver wires a cache hit/miss counter. Nil disables counting.
func (m *Manager) SetObserver(obs CacheObserver) {
	m.observer = obs
}

// Resolve returns the state for conversationID, rehydrating from the
// durable store on cache miss and creating a fresh conversation when
// the store has never seen it either.
func (m *Manager) Resolve(ctx context.Context, conversationID, userID string) *State {
	m.cache.DeleteExpired()

	if cached, ok := m.cache.Get(conversationID); ok {
		if m.observer != nil {
			m.observer.RecordCacheHit("conversation")
		}
		state := cached.(*State)
		m.cache.SetDefault(conversationID, state)
		return state
	}
	if m.observer != nil {
		m.observer.RecordCacheMiss("conversation")
	}

	state := NewState()
	if m.store != nil {
		conv, err := m.store.GetChatConversation(ctx, conversationID)
		switch {
		case err != nil:
			slog.Warn("failed to load conversation, starting fresh", "conversationID", conversationID, "err", err)
		case conv != nil:
			state.Intent = conv.Intent
			if conv.SlotsJSON != "" {
				if err := json.Unmarshal([]byte(conv.SlotsJSON), &state.Slots); err != nil {
					slog.Warn("failed to decode conversation slots", "conversationID", conversationID, "err", err)
					state.Slots = map[string]any{}
				}
			}
		default:
			now := time.Now().Unix()
			err := m.store.CreateChatConversation(ctx, &store.ChatConversation{
				ConversationID: conversationID,
				UserID:         userID,
				CreatedTs:      now,
				UpdatedTs:      now,
			})
			if err != nil {
				slog.Warn("failed to create conversation", "conversationID", conversationID, "err", err)
			}
		}
	}

	m.cache.SetDefault(conversationID, state)
	return state
}

// Persist writes the state back through the cache to the durable
// store. Failures are logged, never surfaced to the caller.
func (m *Manager) Persist(ctx context.Context, conversationID string, state *State) {
	m.cache.SetDefault(conversationID, state)
	if m.store == nil {
		return
	}

	slotsJSON, err := json.Marshal(state.Slots)
	if err != nil {
		slog.Warn("failed to encode conversation slots", "conversationID", conversationID, "err", err)
		return
	}
	err = m.store.UpdateChatConversationState(ctx, &store.UpdateChatConversationState{
		ConversationID: conversationID,
		Intent:         state.Intent,
		SlotsJSON:      string(slotsJSON),
		UpdatedTs:      time.Now().Unix(),
	})
	if err != nil {
		slog.Warn("failed to persist conversation state", "conversationID", conversationID, "err", err)
	}
}

// AppendMessage records one transcript turn. Best effort.
func (m *Manager) AppendMessage(ctx context.Context, conversationID, role, text string) {
	if m.store == nil {
		return
	}
	err := m.store.AppendChatMessage(ctx, &store.ChatMessage{
		ConversationID: conversationID,
		Role:           role,
		Text:           text,
		CreatedTs:      time.Now().Unix(),
	})
	if err != nil {
		slog.Warn("failed to persist chat message", "conversationID", conversationID, "err", err)
	}
}
