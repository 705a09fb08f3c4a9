package memory

import (
	"fmt"
	"sync"

	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/persistence"
)

// MemoryPersistence is an in-memory implementation of IBridgePersistence.
// This implementation is intended for TESTING ONLY.
//
// All data is stored in memory and will be lost when the process exits.
// Records are copied on the way in and out to prevent external mutation.
type MemoryPersistence struct {
	mu sync.RWMutex

	bridgeState *persistence.BridgeState

	// Transaction journal: normalized hash -> record
	transactions map[string]*persistence.TransactionRecord

	closed bool
}

// NewMemoryPersistence creates a new in-memory persistence layer.
// Prints a loud warning since this should only be used for testing.
func NewMemoryPersistence() *MemoryPersistence {
	fmt.Println("⚠️  WARNING: Using in-memory persistence - ALL DATA WILL BE LOST ON RESTART")
	fmt.Println("⚠️  This should ONLY be used for testing. Set BRIDGE_PERSISTENCE_TYPE=badger for production")

	return &MemoryPersistence{
		transactions: make(map[string]*persistence.TransactionRecord),
	}
}

// SaveBridgeState replaces the stored bridge state.
func (m *MemoryPersistence) SaveBridgeState(state *persistence.BridgeState) error {
	if state == nil {
		return fmt.Errorf("cannot save nil BridgeState")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	copied := *state
	m.bridgeState = &copied
	return nil
}

// LoadBridgeState returns nil when nothing has been saved yet.
func (m *MemoryPersistence) LoadBridgeState() (*persistence.BridgeState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}
	if m.bridgeState == nil {
		return nil, nil
	}

	copied := *m.bridgeState
	return &copied, nil
}

func (m *MemoryPersistence) SaveTransaction(record *persistence.TransactionRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil TransactionRecord")
	}
	if record.Hash == "" {
		return fmt.Errorf("cannot save TransactionRecord without a hash")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	copied := *record
	m.transactions[persistence.NormalizeHash(record.Hash)] = &copied
	return nil
}

func (m *MemoryPersistence) LoadTransaction(hash string) (*persistence.TransactionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	record, ok := m.transactions[persistence.NormalizeHash(hash)]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (m *MemoryPersistence) ListTransactions() ([]*persistence.TransactionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	records := make([]*persistence.TransactionRecord, 0, len(m.transactions))
	for _, record := range m.transactions {
		copied := *record
		records = append(records, &copied)
	}
	persistence.SortTransactions(records)
	return records, nil
}

func (m *MemoryPersistence) DeleteTransaction(hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	delete(m.transactions, persistence.NormalizeHash(hash))
	return nil
}

// Close marks the store closed. Idempotent.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrClosed
	}
	return nil
}
