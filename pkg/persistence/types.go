package persistence

import (
	"errors"
	"sort"
	"strings"
)

var ErrClosed = errors.New("persistence layer is closed")

// BridgeState is the orchestration state that survives restarts.
type BridgeState struct {
	// Owner is the address allowed to change configuration. Empty until set.
	Owner string `json:"owner"`

	// NftContract is the deployed NFT collection, empty until deployed or set.
	NftContract string `json:"nftContract"`

	// LastNonce is the nonce of the last transaction the bridge broadcast.
	// Only meaningful when HasNonce is true.
	LastNonce uint64 `json:"lastNonce"`
	HasNonce  bool   `json:"hasNonce"`

	// ChainId the state belongs to, checked on startup.
	ChainId uint64 `json:"chainId"`

	UpdatedAt int64 `json:"updatedAt"`
}

type TransactionKind string

const (
	TransactionKindDeployNft  TransactionKind = "deploy_nft"
	TransactionKindMintNft    TransactionKind = "mint_nft"
	TransactionKindRegisterIp TransactionKind = "register_ip"
	TransactionKindRaw        TransactionKind = "raw"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// TransactionRecord is one journal entry.
type TransactionRecord struct {
	Hash    string            `json:"hash"`
	Kind    TransactionKind   `json:"kind"`
	Status  TransactionStatus `json:"status"`
	Nonce   uint64            `json:"nonce"`
	From    string            `json:"from"`
	To      string            `json:"to,omitempty"`
	ChainId uint64            `json:"chainId"`

	ContractAddress string `json:"contractAddress,omitempty"`
	TokenId         string `json:"tokenId,omitempty"`
	IpId            string `json:"ipId,omitempty"`
	BlockNumber     uint64 `json:"blockNumber,omitempty"`
	Error           string `json:"error,omitempty"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// NormalizeHash lowercases a transaction hash so lookups are case insensitive.
func NormalizeHash(hash string) string {
	return strings.ToLower(hash)
}

// SortTransactions orders records by nonce, then creation time, then hash.
func SortTransactions(records []*TransactionRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Nonce != records[j].Nonce {
			return records[i].Nonce < records[j].Nonce
		}
		if records[i].CreatedAt != records[j].CreatedAt {
			return records[i].CreatedAt < records[j].CreatedAt
		}
		return records[i].Hash < records[j].Hash
	})
}
