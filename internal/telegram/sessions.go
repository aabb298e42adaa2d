package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"planneat/internal/storage"
)

const sessionKeyPrefix = "telegram_session:"

// Session remembers the last result list shown in a chat so that follow-up
// commands can refer to a recipe by its position.
type Session struct {
	ChatID    int64     `json:"chat_id"`
	RecipeIDs []string  `json:"recipe_ids"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionRepository stores sessions in the KV store.
type SessionRepository struct {
	kv  storage.KV
	ttl time.Duration
	now func() time.Time
}

// NewSessionRepository creates a new SessionRepository instance
func NewSessionRepository(kv storage.KV, ttl time.Duration) *SessionRepository {
	return &SessionRepository{kv: kv, ttl: ttl, now: time.Now}
}

func sessionKey(chatID int64) string {
	return sessionKeyPrefix + strconv.FormatInt(chatID, 10)
}

// Save replaces the chat's session with a fresh result list.
func (r *SessionRepository) Save(ctx context.Context, chatID int64, recipeIDs []string) error {
	s := Session{ChatID: chatID, RecipeIDs: recipeIDs, ExpiresAt: r.now().Add(r.ttl)}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.kv.Set(ctx, sessionKey(chatID), string(data)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetActive returns the chat's session, or nil when there is none or it expired.
func (r *SessionRepository) GetActive(ctx context.Context, chatID int64) (*Session, error) {
	raw, ok, err := r.kv.Get(ctx, sessionKey(chatID))
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if !r.now().Before(s.ExpiresAt) {
		return nil, nil
	}
	return &s, nil
}

// Resolve maps a result number such as "2" to the recipe id shown at that
// position. Anything else is returned unchanged as an id.
func (r *SessionRepository) Resolve(ctx context.Context, chatID int64, ref string) string {
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 {
		return ref
	}
	s, err := r.GetActive(ctx, chatID)
	if err != nil || s == nil || n > len(s.RecipeIDs) {
		return ref
	}
	return s.RecipeIDs[n-1]
}

// Delete removes the chat's session.
func (r *SessionRepository) Delete(ctx context.Context, chatID int64) error {
	return r.kv.Remove(ctx, sessionKey(chatID))
}
