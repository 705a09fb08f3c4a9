package persistence

import (
	"encoding/json"
	"fmt"
)

// MarshalBridgeState serializes BridgeState to JSON bytes.
func MarshalBridgeState(state *BridgeState) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("cannot marshal nil BridgeState")
	}
	return json.Marshal(state)
}

// UnmarshalBridgeState deserializes BridgeState from JSON bytes.
func UnmarshalBridgeState(data []byte) (*BridgeState, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var state BridgeState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to BridgeState: %w", err)
	}
	return &state, nil
}

// MarshalTransactionRecord serializes a TransactionRecord to JSON bytes.
func MarshalTransactionRecord(record *TransactionRecord) ([]byte, error) {
	if record == nil {
		return nil, fmt.Errorf("cannot marshal nil TransactionRecord")
	}
	if record.Hash == "" {
		return nil, fmt.Errorf("cannot marshal TransactionRecord without a hash")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TransactionRecord to JSON: %w", err)
	}
	return data, nil
}

// UnmarshalTransactionRecord deserializes a TransactionRecord from JSON bytes.
func UnmarshalTransactionRecord(data []byte) (*TransactionRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var record TransactionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to TransactionRecord: %w", err)
	}
	return &record, nil
}
