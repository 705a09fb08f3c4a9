package persistence

// IBridgePersistence stores orchestration state across restarts.
// All implementations must be thread-safe.
//
// The interface supports:
// - Bridge state (owner, NFT contract, last used nonce)
// - A journal of every transaction the bridge broadcast
// - Lifecycle management (close, health check)
type IBridgePersistence interface {
	// SaveBridgeState overwrites the stored bridge state.
	SaveBridgeState(state *BridgeState) error

	// LoadBridgeState returns nil state if none exists (first run),
	// error only on storage failure.
	LoadBridgeState() (*BridgeState, error)

	// SaveTransaction inserts or replaces a journal entry keyed by its hash.
	SaveTransaction(record *TransactionRecord) error

	// LoadTransaction returns nil if no record with that hash exists.
	LoadTransaction(hash string) (*TransactionRecord, error)

	// ListTransactions returns all records sorted by nonce, then creation time.
	// Returns an empty slice when the journal is empty.
	ListTransactions() ([]*TransactionRecord, error)

	// DeleteTransaction is idempotent.
	DeleteTransaction(hash string) error

	// Close is idempotent. After Close all other operations return errors.
	Close() error

	// HealthCheck returns nil when the backend is usable.
	HealthCheck() error
}
