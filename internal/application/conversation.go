package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"voice-chat/internal/domain"
)

// ConversationKey is the storage key holding the JSON-encoded turn list.
const ConversationKey = "conversation"

// ConversationLog is the append-only turn history. Every append rewrites the whole list.
type ConversationLog struct {
	store  KeyValueStore
	logger *slog.Logger

	mu    sync.Mutex
	turns []domain.Turn
}

func NewConversationLog(store KeyValueStore, logger *slog.Logger) *ConversationLog {
	return &ConversationLog{store: store, logger: logger}
}

// Load replaces the in-memory history with the persisted one. Unparseable data loads as empty.
func (l *ConversationLog) Load(ctx context.Context) ([]domain.Turn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = nil

	raw, ok, err := l.store.Get(ctx, ConversationKey)
	if err != nil {
		return nil, fmt.Errorf("reading conversation: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var turns []domain.Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		l.logger.Warn("discarding unreadable conversation", "error", err)
		return nil, nil
	}

	l.turns = turns
	return l.snapshot(), nil
}

// Append adds turns and persists the full history. The turns stay in memory even if the
// write fails; the error is returned so the caller can report it.
func (l *ConversationLog) Append(ctx context.Context, turns ...domain.Turn) ([]domain.Turn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = append(l.turns, turns...)
	current := l.snapshot()

	if err := l.persist(ctx, current); err != nil {
		return current, err
	}
	return current, nil
}

func (l *ConversationLog) Turns() []domain.Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

func (l *ConversationLog) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = nil
	if err := l.store.Delete(ctx, ConversationKey); err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	return nil
}

func (l *ConversationLog) persist(ctx context.Context, turns []domain.Turn) error {
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encoding conversation: %w", err)
	}
	if err := l.store.Set(ctx, ConversationKey, string(data)); err != nil {
		return fmt.Errorf("writing conversation: %w", err)
	}
	return nil
}

func (l *ConversationLog) snapshot() []domain.Turn {
	out := make([]domain.Turn, len(l.turns))
	copy(out, l.turns)
	return out
}
