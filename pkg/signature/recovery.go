package signature

import (
	"bytes"
	"fmt"

	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/evmKey"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var recoveryCandidates = []types.RecoveryId{types.RecoveryIdEven, types.RecoveryIdOdd}

// RecoverPublicKey returns the uncompressed public key that produced signature
// over digest under the given recovery id.
func RecoverPublicKey(digest []byte, signature []byte, recoveryId types.RecoveryId) ([]byte, error) {
	if err := types.ValidateDigest(digest); err != nil {
		return nil, err
	}
	if err := types.Signature(signature).Validate(); err != nil {
		return nil, err
	}
	if err := recoveryId.Validate(); err != nil {
		return nil, err
	}

	sig := make([]byte, 65)
	copy(sig, signature)
	sig[64] = byte(recoveryId)

	pub, err := crypto.Ecrecover(digest, sig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrSignatureParse, err)
	}
	return pub, nil
}

// ResolveRecoveryId finds the recovery id under which signature recovers to
// knownPublicKey. Both candidates are tried. A candidate matches when the
// recovered key equals knownPublicKey byte for byte or when both derive the
// same address.
func ResolveRecoveryId(digest []byte, signature []byte, knownPublicKey []byte) (types.RecoveryId, error) {
	if err := types.ValidateDigest(digest); err != nil {
		return 0, err
	}
	if err := types.Signature(signature).Validate(); err != nil {
		return 0, err
	}
	if len(knownPublicKey) != types.UncompressedPublicKeyLength {
		return 0, fmt.Errorf("%w: got %d, expected %d", types.ErrInvalidKeyLength, len(knownPublicKey), types.UncompressedPublicKeyLength)
	}
	expectedAddress, err := evmKey.DeriveAddress(knownPublicKey)
	if err != nil {
		return 0, err
	}

	for _, candidate := range recoveryCandidates {
		recovered, err := RecoverPublicKey(digest, signature, candidate)
		if err != nil {
			continue
		}
		if bytes.Equal(recovered, knownPublicKey) {
			return candidate, nil
		}
		recoveredAddress, err := evmKey.DeriveAddress(recovered)
		if err != nil {
			continue
		}
		if recoveredAddress == expectedAddress {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("%w: expected signer %s", types.ErrRecoveryIdNotFound, evmKey.AddressString(expectedAddress))
}
