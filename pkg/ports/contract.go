package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remedyhq/remedy/pkg/domain"
)

// RunCheckpointStoreContract runs a suite of tests verifying that a
// CheckpointStore implementation adheres to the interface contract.
func RunCheckpointStoreContract(t *testing.T, store CheckpointStore) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	sessionID := "contract-session-" + now.Format("20060102150405")

	newCheckpoint := func(id, token string) *domain.Checkpoint {
		st := domain.NewState(id, now)
		st.Symptoms = []string{"high cpu"}
		st.Context = map[string]any{"env": "prod"}
		cp := &domain.Checkpoint{
			SessionID: id,
			Token:     token,
			State:     st,
			CreatedAt: now,
		}
		if token != "" {
			st.Status = domain.StatusWaiting
			cp.Prompt = &domain.Prompt{Query: "need alert details"}
		}
		return cp
	}

	t.Run("Save and Load", func(t *testing.T) {
		cp := newCheckpoint(sessionID, "")
		require.NoError(t, store.Save(ctx, sessionID, cp), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.State.SessionID)
		assert.Equal(t, []string{"high cpu"}, loaded.State.Symptoms)
		// JSON round trips may widen numbers; only presence is contractual.
		assert.NotNil(t, loaded.State.Context["env"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("FindToken", func(t *testing.T) {
		id := sessionID + "-tok"
		cp := newCheckpoint(id, "token-"+id)
		require.NoError(t, store.Save(ctx, id, cp))
		defer func() { _ = store.Delete(ctx, id) }()

		found, err := store.FindToken(ctx, "token-"+id)
		require.NoError(t, err)
		assert.Equal(t, id, found.SessionID)
		require.NotNil(t, found.Prompt)
		assert.Equal(t, "need alert details", found.Prompt.Query)

		_, err = store.FindToken(ctx, "no-such-token")
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	})

	t.Run("Token replaced on re-save", func(t *testing.T) {
		id := sessionID + "-replace"
		require.NoError(t, store.Save(ctx, id, newCheckpoint(id, "old-token-"+id)))
		defer func() { _ = store.Delete(ctx, id) }()

		// Resumed session saved without a token: the old token must stop resolving.
		require.NoError(t, store.Save(ctx, id, newCheckpoint(id, "")))
		_, err := store.FindToken(ctx, "old-token-"+id)
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		id := sessionID + "-del"
		require.NoError(t, store.Save(ctx, id, newCheckpoint(id, "token-"+id)))
		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
		_, err = store.FindToken(ctx, "token-"+id)
		assert.ErrorIs(t, err, domain.ErrTokenNotFound, "token must not survive Delete")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, newCheckpoint(id1, "")))
		require.NoError(t, store.Save(ctx, id2, newCheckpoint(id2, "")))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})

	t.Run("Isolation", func(t *testing.T) {
		id := sessionID + "-iso"
		cp := newCheckpoint(id, "")
		require.NoError(t, store.Save(ctx, id, cp))
		defer func() { _ = store.Delete(ctx, id) }()

		// Mutating the saved-in value must not affect what Load returns.
		cp.State.Symptoms[0] = "mutated"

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "high cpu", loaded.State.Symptoms[0])
	})
}
