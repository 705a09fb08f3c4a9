// Package signature recovers and verifies secp256k1 ECDSA signatures that
// arrive as a bare 64 byte r || s with no recovery byte.
package signature

import (
	"fmt"

	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Verify reports whether signature is a valid ECDSA signature of digest under
// publicKey. High-S signatures are accepted, matching what public key recovery
// accepts. A well formed but wrong signature returns false with no error.
func Verify(digest []byte, signature []byte, publicKey []byte) (bool, error) {
	if err := types.ValidateDigest(digest); err != nil {
		return false, err
	}
	r, s, err := parseScalars(signature)
	if err != nil {
		return false, err
	}
	if len(publicKey) != types.CompressedPublicKeyLength && len(publicKey) != types.UncompressedPublicKeyLength {
		return false, fmt.Errorf("%w: got %d", types.ErrInvalidKeyLength, len(publicKey))
	}
	pub, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false, fmt.Errorf("%w: %v", types.ErrKeyParse, err)
	}

	return ecdsa.NewSignature(r, s).Verify(digest, pub), nil
}

// NormalizeLowS returns a copy of signature with s moved into the lower half of
// the curve order, and whether it had to be flipped. Flipping s also flips the
// recovery id, so resolve after normalizing.
func NormalizeLowS(signature []byte) ([]byte, bool, error) {
	r, s, err := parseScalars(signature)
	if err != nil {
		return nil, false, err
	}
	flipped := s.IsOverHalfOrder()
	if flipped {
		s.Negate()
	}

	out := make([]byte, types.SignatureLength)
	r.PutBytesUnchecked(out[:32])
	s.PutBytesUnchecked(out[32:])
	return out, flipped, nil
}

// IsLowS reports whether s is at most half the curve order.
func IsLowS(signature []byte) (bool, error) {
	_, s, err := parseScalars(signature)
	if err != nil {
		return false, err
	}
	return !s.IsOverHalfOrder(), nil
}

func parseScalars(signature []byte) (*secp256k1.ModNScalar, *secp256k1.ModNScalar, error) {
	if err := types.Signature(signature).Validate(); err != nil {
		return nil, nil, err
	}
	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(signature[:32]); overflow || r.IsZero() {
		return nil, nil, fmt.Errorf("%w: r is zero or not below the curve order", types.ErrSignatureParse)
	}
	if overflow := s.SetByteSlice(signature[32:64]); overflow || s.IsZero() {
		return nil, nil, fmt.Errorf("%w: s is zero or not below the curve order", types.ErrSignatureParse)
	}
	return &r, &s, nil
}
