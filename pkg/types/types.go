package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	CompressedPublicKeyLength   = 33
	UncompressedPublicKeyLength = 65
	DigestLength                = 32
	SignatureLength             = 64

	// SEC1 format prefixes
	PublicKeyPrefixEven         byte = 0x02
	PublicKeyPrefixOdd          byte = 0x03
	PublicKeyPrefixUncompressed byte = 0x04
)

// PublicKey is a raw SEC1 encoded secp256k1 public key, either compressed
// (33 bytes) or uncompressed (65 bytes).
type PublicKey []byte

func (pk PublicKey) IsCompressed() bool {
	return len(pk) == CompressedPublicKeyLength
}

func (pk PublicKey) IsUncompressed() bool {
	return len(pk) == UncompressedPublicKeyLength && pk[0] == PublicKeyPrefixUncompressed
}

func (pk PublicKey) Hex() string {
	return hexutil.Encode(pk)
}

// Digest is the 32 byte Keccak-256 hash that gets handed to the signer.
type Digest [DigestLength]byte

func (d Digest) Bytes() []byte {
	return d[:]
}

func (d Digest) Hex() string {
	return hexutil.Encode(d[:])
}

// DigestFromBytes copies b into a Digest, rejecting anything that isn't 32 bytes.
func DigestFromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != DigestLength {
		return d, fmt.Errorf("%w: got %d, expected %d", ErrInvalidDigestLength, len(b), DigestLength)
	}
	copy(d[:], b)
	return d, nil
}

// Signature is r || s, 32 bytes each, with no recovery byte.
type Signature []byte

func (s Signature) R() []byte {
	return s[:32]
}

func (s Signature) S() []byte {
	return s[32:64]
}

func (s Signature) Hex() string {
	return hexutil.Encode(s)
}

// Validate checks the signature has exactly 64 bytes.
func (s Signature) Validate() error {
	if len(s) != SignatureLength {
		return fmt.Errorf("%w: got %d, expected %d", ErrInvalidSignatureLength, len(s), SignatureLength)
	}
	return nil
}

// RecoveryId selects which of the two candidate public keys an (r,s) pair belongs to.
type RecoveryId uint8

const (
	RecoveryIdEven RecoveryId = 0
	RecoveryIdOdd  RecoveryId = 1
)

func (r RecoveryId) Validate() error {
	if r > RecoveryIdOdd {
		return fmt.Errorf("%w: %d", ErrInvalidRecoveryId, r)
	}
	return nil
}

// ValidateDigest checks digest is exactly 32 bytes.
func ValidateDigest(digest []byte) error {
	if len(digest) != DigestLength {
		return fmt.Errorf("%w: got %d, expected %d", ErrInvalidDigestLength, len(digest), DigestLength)
	}
	return nil
}
