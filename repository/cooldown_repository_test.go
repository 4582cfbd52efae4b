package repository

import (
	"context"
	"testing"
	"time"

	"netrunner/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooldownRepository_GetAndUpsert(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	playerRepo := NewPlayerRepository(testDB.DB)
	repo := NewCooldownRepository(testDB.DB)
	ctx := context.Background()

	_, err := playerRepo.Create(ctx, "player-1", "neo", 0)
	require.NoError(t, err)

	t.Run("no cooldown recorded", func(t *testing.T) {
		record, err := repo.Get(ctx, "player-1", "phish")
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("upsert inserts then overwrites", func(t *testing.T) {
		first := time.Now().UTC().Add(12 * time.Second).Truncate(time.Microsecond)
		require.NoError(t, repo.Upsert(ctx, "player-1", "phish", first))

		record, err := repo.Get(ctx, "player-1", "phish")
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.True(t, record.NextEligibleAt.Equal(first))

		// A second invocation replaces the deadline, it does not stack.
		second := first.Add(45 * time.Second)
		require.NoError(t, repo.Upsert(ctx, "player-1", "phish", second))

		record, err = repo.Get(ctx, "player-1", "phish")
		require.NoError(t, err)
		assert.True(t, record.NextEligibleAt.Equal(second))
	})

	t.Run("cooldowns are per command", func(t *testing.T) {
		at := time.Now().UTC().Add(time.Minute).Truncate(time.Microsecond)
		require.NoError(t, repo.Upsert(ctx, "player-1", "scan-port", at))

		record, err := repo.Get(ctx, "player-1", "scan-port")
		require.NoError(t, err)
		require.NotNil(t, record)

		other, err := repo.Get(ctx, "player-1", "load-gitconfig-pulse")
		require.NoError(t, err)
		assert.Nil(t, other)
	})
}
