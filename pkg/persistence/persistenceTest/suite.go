// Package persistenceTest holds the behavioral checks every IBridgePersistence
// backend must pass.
package persistenceTest

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty backend.
type Factory func(t *testing.T) persistence.IBridgePersistence

func RunSuite(t *testing.T, newStore Factory) {
	t.Run("Should return nil state on first run", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		state, err := store.LoadBridgeState()
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("Should save and load bridge state", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		state := &persistence.BridgeState{
			Owner:       "0x2b5ad5c4795c026514f8317c7a215e218dccd6cf",
			NftContract: "0x1000000000000000000000000000000000000001",
			LastNonce:   9,
			HasNonce:    true,
			ChainId:     1315,
			UpdatedAt:   1700000000,
		}
		require.NoError(t, store.SaveBridgeState(state))

		// mutating the caller's copy must not leak into the store
		state.Owner = "mutated"

		loaded, err := store.LoadBridgeState()
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, "0x2b5ad5c4795c026514f8317c7a215e218dccd6cf", loaded.Owner)
		assert.Equal(t, uint64(9), loaded.LastNonce)
		assert.True(t, loaded.HasNonce)

		loaded.NftContract = ""
		require.NoError(t, store.SaveBridgeState(loaded))
		reloaded, err := store.LoadBridgeState()
		require.NoError(t, err)
		assert.Empty(t, reloaded.NftContract)
	})

	t.Run("Should reject nil records", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		require.Error(t, store.SaveBridgeState(nil))
		require.Error(t, store.SaveTransaction(nil))
		require.Error(t, store.SaveTransaction(&persistence.TransactionRecord{Nonce: 1}))
	})

	t.Run("Should journal transactions", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		missing, err := store.LoadTransaction("0xdead")
		require.NoError(t, err)
		assert.Nil(t, missing)

		empty, err := store.ListTransactions()
		require.NoError(t, err)
		assert.Empty(t, empty)

		for i := 3; i >= 1; i-- {
			require.NoError(t, store.SaveTransaction(&persistence.TransactionRecord{
				Hash:      fmt.Sprintf("0xAA%02d", i),
				Kind:      persistence.TransactionKindMintNft,
				Status:    persistence.TransactionStatusPending,
				Nonce:     uint64(i),
				CreatedAt: int64(100 + i),
			}))
		}

		loaded, err := store.LoadTransaction("0xaa02")
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, uint64(2), loaded.Nonce)

		loaded.Status = persistence.TransactionStatusConfirmed
		loaded.TokenId = "7"
		require.NoError(t, store.SaveTransaction(loaded))

		all, err := store.ListTransactions()
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i, record := range all {
			assert.Equal(t, uint64(i+1), record.Nonce)
		}
		assert.Equal(t, persistence.TransactionStatusConfirmed, all[1].Status)
		assert.Equal(t, "7", all[1].TokenId)

		require.NoError(t, store.DeleteTransaction("0xAA01"))
		require.NoError(t, store.DeleteTransaction("0xAA01"))
		all, err = store.ListTransactions()
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("Should handle concurrent writes", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_ = store.SaveTransaction(&persistence.TransactionRecord{
					Hash:  fmt.Sprintf("0x%04x", n),
					Nonce: uint64(n),
				})
			}(i)
		}
		wg.Wait()

		all, err := store.ListTransactions()
		require.NoError(t, err)
		assert.Len(t, all, 20)
	})

	t.Run("Should fail after close", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.HealthCheck())
		require.NoError(t, store.Close())
		require.NoError(t, store.Close())

		err := store.HealthCheck()
		require.Error(t, err)
		assert.True(t, errors.Is(err, persistence.ErrClosed))

		_, err = store.LoadBridgeState()
		require.Error(t, err)
		require.Error(t, store.SaveTransaction(&persistence.TransactionRecord{Hash: "0x01"}))
		_, err = store.ListTransactions()
		require.Error(t, err)
	})
}
