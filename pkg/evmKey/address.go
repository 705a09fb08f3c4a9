package evmKey

import (
	"fmt"
	"strings"

	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// DeriveAddress returns the last 20 bytes of keccak256(x || y) for an
// uncompressed public key. The 0x04 format byte is not hashed.
func DeriveAddress(pub []byte) (common.Address, error) {
	if len(pub) != types.UncompressedPublicKeyLength {
		return common.Address{}, fmt.Errorf("%w: got %d, expected %d",
			types.ErrInvalidKeyLength, len(pub), types.UncompressedPublicKeyLength)
	}
	if pub[0] != types.PublicKeyPrefixUncompressed {
		return common.Address{}, fmt.Errorf("%w: expected 0x04 prefix, got 0x%02x", types.ErrKeyParse, pub[0])
	}
	hash := crypto.Keccak256(pub[1:])
	return common.BytesToAddress(hash[12:]), nil
}

// AddressFromPublicKey normalizes a compressed or uncompressed key and derives its address.
func AddressFromPublicKey(pub []byte) (common.Address, error) {
	normalized, err := Normalize(pub)
	if err != nil {
		return common.Address{}, err
	}
	return DeriveAddress(normalized)
}

// AddressString renders an address as 0x followed by lowercase hex.
func AddressString(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
