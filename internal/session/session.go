package session

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Link identifies one of the tracked promotional links.
type Link string

const (
	LinkA Link = "A"
	LinkB Link = "B"
)

// Store keeps ephemeral per-user state: click evidence for the tracked links,
// the wallet-entry conversation step, and once-only keys for deduped
// notifications. None of this belongs in the ledger; it is prerequisite
// evidence and UI state, scoped to a session by TTL.
type Store interface {
	// MarkClicked records that userID tapped the given tracked link.
	MarkClicked(ctx context.Context, userID int64, link Link) error
	// Clicked reports whether userID tapped the given tracked link recently.
	Clicked(ctx context.Context, userID int64, link Link) (bool, error)

	// AwaitWallet marks that the next text from userID is a wallet account
	// number for the given provider.
	AwaitWallet(ctx context.Context, userID int64, provider string) error
	// AwaitedWallet returns the provider userID is entering a number for.
	AwaitedWallet(ctx context.Context, userID int64) (provider string, ok bool, err error)
	// ClearAwaitWallet ends the wallet-entry conversation.
	ClearAwaitWallet(ctx context.Context, userID int64) error

	// Once returns true the first time it sees key within ttl, false after.
	Once(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// MemoryStore is the in-process fallback used when Redis is not configured,
// and in tests. Evidence is lost on restart, like the original per-session
// flags.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clicks  map[string]time.Time // "A:<uid>" -> expiry
	wallet  map[int64]string     // uid -> provider
	once    map[string]time.Time // key -> expiry
	nowFunc func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		clicks:  make(map[string]time.Time),
		wallet:  make(map[int64]string),
		once:    make(map[string]time.Time),
		nowFunc: time.Now,
	}
}

func clickKey(userID int64, link Link) string {
	return string(link) + ":" + strconv.FormatInt(userID, 10)
}

func (m *MemoryStore) MarkClicked(_ context.Context, userID int64, link Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicks[clickKey(userID, link)] = m.nowFunc().Add(m.ttl)
	return nil
}

func (m *MemoryStore) Clicked(_ context.Context, userID int64, link Link) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	exp, ok := m.clicks[clickKey(userID, link)]
	return ok && m.nowFunc().Before(exp), nil
}

func (m *MemoryStore) AwaitWallet(_ context.Context, userID int64, provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallet[userID] = provider
	return nil
}

func (m *MemoryStore) AwaitedWallet(_ context.Context, userID int64) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	provider, ok := m.wallet[userID]
	return provider, ok, nil
}

func (m *MemoryStore) ClearAwaitWallet(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.wallet, userID)
	return nil
}

func (m *MemoryStore) Once(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.nowFunc()
	if exp, ok := m.once[key]; ok && now.Before(exp) {
		return false, nil
	}
	m.once[key] = now.Add(ttl)
	return true, nil
}
