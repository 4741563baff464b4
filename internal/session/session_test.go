package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreClicks(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	ok, err := s.Clicked(ctx, 1, LinkA)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.MarkClicked(ctx, 1, LinkA))

	ok, err = s.Clicked(ctx, 1, LinkA)
	require.NoError(t, err)
	assert.True(t, ok)

	// the other link and other users stay unset
	ok, _ = s.Clicked(ctx, 1, LinkB)
	assert.False(t, ok)
	ok, _ = s.Clicked(ctx, 2, LinkA)
	assert.False(t, ok)
}

func TestMemoryStoreClickEvidenceExpires(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	now := time.Now()
	s.nowFunc = func() time.Time { return now }

	require.NoError(t, s.MarkClicked(ctx, 1, LinkB))

	s.nowFunc = func() time.Time { return now.Add(2 * time.Hour) }
	ok, err := s.Clicked(ctx, 1, LinkB)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreWalletConversation(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	_, ok, err := s.AwaitedWallet(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.AwaitWallet(ctx, 1, "bkash"))
	provider, ok, err := s.AwaitedWallet(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bkash", provider)

	require.NoError(t, s.ClearAwaitWallet(ctx, 1))
	_, ok, _ = s.AwaitedWallet(ctx, 1)
	assert.False(t, ok)
}

func TestMemoryStoreOnce(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	now := time.Now()
	s.nowFunc = func() time.Time { return now }

	first, err := s.Once(ctx, "nag_1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = s.Once(ctx, "nag_1", time.Minute)
	require.NoError(t, err)
	assert.False(t, first)

	// a fresh key is independent
	first, _ = s.Once(ctx, "nag_2", time.Minute)
	assert.True(t, first)

	// after the ttl the key fires again
	s.nowFunc = func() time.Time { return now.Add(2 * time.Minute) }
	first, err = s.Once(ctx, "nag_1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)
}
