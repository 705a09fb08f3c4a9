// Package remoteSigner defines the boundary to the key platform that holds
// the bridge's secp256k1 key. The private scalar never leaves the platform;
// callers only ever see the public key and bare (r,s) signatures.
package remoteSigner

import (
	"context"
)

type IRemoteSigner interface {
	// GetPublicKey returns the SEC1 encoded public key, either 33 or 65 bytes.
	GetPublicKey(ctx context.Context) ([]byte, error)

	// SignDigest signs a 32 byte digest and returns r || s with s in the lower
	// half of the curve order. No recovery byte is returned.
	SignDigest(ctx context.Context, digest []byte) ([]byte, error)

	// KeyId is the platform identifier of the signing key.
	KeyId() string
}
