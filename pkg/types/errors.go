package types

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidKeyLength        = errors.New("invalid public key length")
	ErrKeyParse                = errors.New("failed to parse public key")
	ErrInvalidDigestLength     = errors.New("invalid digest length")
	ErrInvalidSignatureLength  = errors.New("invalid signature length")
	ErrSignatureParse          = errors.New("failed to parse signature")
	ErrInvalidRecoveryId       = errors.New("invalid recovery id")
	ErrRecoveryIdNotFound      = errors.New("no recovery id reproduces the signer public key")
	ErrPlatformSigningFailure  = errors.New("platform signing failure")
	ErrPlatformKeyFetchFailure = errors.New("platform public key fetch failure")
)

// PlatformError carries a failure reported by the remote key platform. It
// matches both its Kind sentinel and the underlying cause with errors.Is.
type PlatformError struct {
	Kind  error
	KeyId string
	Err   error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s (key %s): %v", e.Kind, e.KeyId, e.Err)
}

func (e *PlatformError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func NewSigningFailure(keyId string, err error) error {
	return &PlatformError{Kind: ErrPlatformSigningFailure, KeyId: keyId, Err: err}
}

func NewKeyFetchFailure(keyId string, err error) error {
	return &PlatformError{Kind: ErrPlatformKeyFetchFailure, KeyId: keyId, Err: err}
}
