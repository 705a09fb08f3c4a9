package evmKey

import (
	"fmt"

	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/modMath"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/holiman/uint256"
)

// Normalize returns the 65 byte uncompressed (0x04 || x || y) form of a
// SEC1 encoded secp256k1 public key. Both 33 byte compressed and 65 byte
// uncompressed keys are accepted; an uncompressed key comes back unchanged.
// 65 byte keys must carry the 0x04 prefix, so hybrid (0x06/0x07) encodings
// are rejected.
func Normalize(pub []byte) ([]byte, error) {
	if err := validateLength(pub); err != nil {
		return nil, err
	}
	if len(pub) == types.UncompressedPublicKeyLength && pub[0] != types.PublicKeyPrefixUncompressed {
		return nil, fmt.Errorf("%w: unexpected prefix 0x%02x for uncompressed key", types.ErrKeyParse, pub[0])
	}

	parsed, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrKeyParse, err)
	}
	return parsed.SerializeUncompressed(), nil
}

// DecompressWithKernel performs the same normalization as Normalize but
// recovers y by hand: y^2 = x^3 + 7 mod p, y = (y^2)^((p+1)/4), then flips
// y to p - y when its parity does not match the prefix.
func DecompressWithKernel(pub []byte) ([]byte, error) {
	if err := validateLength(pub); err != nil {
		return nil, err
	}
	if len(pub) == types.UncompressedPublicKeyLength {
		if pub[0] != types.PublicKeyPrefixUncompressed {
			return nil, fmt.Errorf("%w: unexpected prefix 0x%02x for uncompressed key", types.ErrKeyParse, pub[0])
		}
		out := make([]byte, len(pub))
		copy(out, pub)
		return out, nil
	}

	var wantOdd bool
	switch pub[0] {
	case types.PublicKeyPrefixEven:
		wantOdd = false
	case types.PublicKeyPrefixOdd:
		wantOdd = true
	default:
		return nil, fmt.Errorf("%w: unexpected prefix 0x%02x for compressed key", types.ErrKeyParse, pub[0])
	}

	x := new(uint256.Int).SetBytes32(pub[1:33])
	if !x.Lt(modMath.Secp256k1P) {
		return nil, fmt.Errorf("%w: x coordinate is not a field element", types.ErrKeyParse)
	}

	y, ok := modMath.SqrtModP(modMath.CurveRHS(x))
	if !ok {
		return nil, fmt.Errorf("%w: x coordinate is not on the curve", types.ErrKeyParse)
	}
	if isOdd(y) != wantOdd {
		y = new(uint256.Int).Sub(modMath.Secp256k1P, y)
	}

	xb := x.Bytes32()
	yb := y.Bytes32()

	out := make([]byte, 0, types.UncompressedPublicKeyLength)
	out = append(out, types.PublicKeyPrefixUncompressed)
	out = append(out, xb[:]...)
	out = append(out, yb[:]...)
	return out, nil
}

// Compress returns the 33 byte SEC1 compressed form of a public key.
func Compress(pub []byte) ([]byte, error) {
	if err := validateLength(pub); err != nil {
		return nil, err
	}
	parsed, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrKeyParse, err)
	}
	return parsed.SerializeCompressed(), nil
}

func validateLength(pub []byte) error {
	if len(pub) != types.CompressedPublicKeyLength && len(pub) != types.UncompressedPublicKeyLength {
		return fmt.Errorf("%w: got %d, expected %d or %d",
			types.ErrInvalidKeyLength, len(pub), types.CompressedPublicKeyLength, types.UncompressedPublicKeyLength)
	}
	return nil
}

func isOdd(y *uint256.Int) bool {
	return y[0]&1 == 1
}
