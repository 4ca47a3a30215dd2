package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	sealed    []byte
	expiresAt time.Time
}

// MemoryStore keeps sealed sessions in process. Sessions are lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	codec   *Codec
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryStore(codec *Codec) *MemoryStore {
	return &MemoryStore{codec: codec, now: time.Now, entries: map[string]memoryEntry{}}
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	sealed, err := m.codec.Seal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[s.ID] = memoryEntry{sealed: sealed, expiresAt: s.ExpiresAt}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	entry, ok := m.entries[id]
	m.mu.Unlock()
	if !ok || !m.now().Before(entry.expiresAt) {
		return nil, ErrNotFound
	}
	return m.codec.Open(entry.sealed)
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
