package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_AppendOrder(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "u1", RoleUser, "question"))
	require.NoError(t, store.Append(ctx, "u1", RoleAssistant, "answer"))

	turns, err := store.Turns(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, RoleAssistant, turns[1].Role)
	assert.False(t, turns[1].CreatedAt.Before(turns[0].CreatedAt))
}

func TestMemoryStorage_OwnerIsolation(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "u1", RoleUser, "mine"))
	require.NoError(t, store.Append(ctx, "u2", RoleUser, "yours"))

	turns, err := store.Turns(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "mine", turns[0].Content)
}

func TestMemoryStorage_ConcurrentAppends(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Append(ctx, "u1", RoleUser, fmt.Sprintf("msg %d", n))
		}(i)
	}
	wg.Wait()

	turns, err := store.Turns(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, turns, 50)
}

func TestMemoryStorage_TurnsReturnsCopy(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "u1", RoleUser, "original"))

	turns, err := store.Turns(ctx, "u1")
	require.NoError(t, err)
	turns[0].Content = "mutated"

	again, err := store.Turns(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Content)
}
