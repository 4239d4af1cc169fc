package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/remedyhq/remedy/pkg/ports"
)

func TestStoreContract(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ports.RunCheckpointStoreContract(t, store)
}

func TestStoreInMemory(t *testing.T) {
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ports.RunCheckpointStoreContract(t, store)
}
