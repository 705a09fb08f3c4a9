// Package txCodec builds legacy (pre EIP-1559) Ethereum transactions in their
// RLP wire form, with EIP-155 replay protection.
//
// The unsigned form is the 9 item list
//
//	[nonce, gasPrice, gasLimit, to, value, data, chainId, 0, 0]
//
// and the signed form replaces the last three items with [v, r, s] where
// v = chainId*2 + 35 + recoveryId.
package txCodec

import (
	"fmt"
	"math/big"

	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// TransactionFields are the six fields shared by the unsigned and signed encodings.
type TransactionFields struct {
	Nonce    uint64
	GasPrice uint64
	GasLimit uint64
	// To is nil for contract creation
	To    *common.Address
	Value uint64
	Data  []byte
}

func (f *TransactionFields) IsContractCreation() bool {
	return f.To == nil
}

func (f *TransactionFields) toBytes() []byte {
	if f.To == nil {
		return []byte{}
	}
	return f.To.Bytes()
}

func (f *TransactionFields) data() []byte {
	if f.Data == nil {
		return []byte{}
	}
	return f.Data
}

// NewCallFields returns fields for a call to an existing account or contract.
func NewCallFields(nonce, gasPrice, gasLimit uint64, to common.Address, value uint64, data []byte) *TransactionFields {
	return &TransactionFields{
		Nonce:    nonce,
		GasPrice: gasPrice,
		GasLimit: gasLimit,
		To:       &to,
		Value:    value,
		Data:     data,
	}
}

// NewCreationFields returns fields for a contract deployment; data is the init code.
func NewCreationFields(nonce, gasPrice, gasLimit, value uint64, data []byte) *TransactionFields {
	return &TransactionFields{
		Nonce:    nonce,
		GasPrice: gasPrice,
		GasLimit: gasLimit,
		Value:    value,
		Data:     data,
	}
}

// EncodeUnsigned returns the RLP encoding whose hash gets signed.
func EncodeUnsigned(fields *TransactionFields, chainId uint64) ([]byte, error) {
	items := []interface{}{
		fields.Nonce,
		fields.GasPrice,
		fields.GasLimit,
		fields.toBytes(),
		fields.Value,
		fields.data(),
		chainId,
		uint64(0),
		uint64(0),
	}
	encoded, err := rlp.EncodeToBytes(items)
	if err != nil {
		return nil, fmt.Errorf("failed to rlp encode unsigned transaction: %w", err)
	}
	return encoded, nil
}

// SigningDigest returns keccak256 of the unsigned encoding.
func SigningDigest(fields *TransactionFields, chainId uint64) (types.Digest, error) {
	unsigned, err := EncodeUnsigned(fields, chainId)
	if err != nil {
		return types.Digest{}, err
	}
	var digest types.Digest
	copy(digest[:], crypto.Keccak256(unsigned))
	return digest, nil
}

// ComputeV returns chainId*2 + 35 + recoveryId.
func ComputeV(chainId uint64, recoveryId types.RecoveryId) *big.Int {
	v := new(big.Int).SetUint64(chainId)
	v.Lsh(v, 1)
	v.Add(v, big.NewInt(35+int64(recoveryId)))
	return v
}

// EncodeSigned returns the broadcastable RLP encoding. The signature must be
// exactly 64 bytes of r || s; it is never truncated or padded.
func EncodeSigned(fields *TransactionFields, chainId uint64, signature []byte, recoveryId types.RecoveryId) ([]byte, error) {
	if err := types.Signature(signature).Validate(); err != nil {
		return nil, err
	}
	if err := recoveryId.Validate(); err != nil {
		return nil, err
	}

	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:64])

	items := []interface{}{
		fields.Nonce,
		fields.GasPrice,
		fields.GasLimit,
		fields.toBytes(),
		fields.Value,
		fields.data(),
		ComputeV(chainId, recoveryId),
		r,
		s,
	}
	encoded, err := rlp.EncodeToBytes(items)
	if err != nil {
		return nil, fmt.Errorf("failed to rlp encode signed transaction: %w", err)
	}
	return encoded, nil
}

// TransactionHash is the hash a node reports for the signed encoding.
func TransactionHash(signed []byte) common.Hash {
	return crypto.Keccak256Hash(signed)
}
