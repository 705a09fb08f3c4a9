// Package localSigner keeps secp256k1 keys in process memory. It stands in for
// the key platform on devnets and in tests and must never back a production
// bridge.
package localSigner

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"
	"sync"

	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/evmKey"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type keyEntry struct {
	privateKey *ecdsa.PrivateKey
	keyName    string
	address    string
}

// LocalKeyStore holds keys by id.
type LocalKeyStore struct {
	logger   *zap.Logger
	keyStore map[string]*keyEntry
	mu       sync.RWMutex
}

func NewLocalKeyStore(logger *zap.Logger) *LocalKeyStore {
	return &LocalKeyStore{
		logger:   logger,
		keyStore: make(map[string]*keyEntry),
	}
}

// GenerateKey creates a random key and returns its id.
func (l *LocalKeyStore) GenerateKey(keyName string) (string, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate ECDSA key: %w", err)
	}

	keyId := fmt.Sprintf("local-key-%s", uuid.New().String())
	if err := l.LoadPrivateKey(keyId, privateKey, keyName); err != nil {
		return "", err
	}
	return keyId, nil
}

// LoadPrivateKey stores an existing key under keyId.
func (l *LocalKeyStore) LoadPrivateKey(keyId string, privateKey *ecdsa.PrivateKey, keyName string) error {
	if privateKey == nil {
		return fmt.Errorf("private key cannot be nil")
	}
	address := evmKey.AddressString(crypto.PubkeyToAddress(privateKey.PublicKey))

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.keyStore[keyId]; exists {
		return fmt.Errorf("key with ID %s already exists", keyId)
	}
	l.keyStore[keyId] = &keyEntry{
		privateKey: privateKey,
		keyName:    keyName,
		address:    address,
	}

	l.logger.Info("Loaded local signing key",
		zap.String("keyId", keyId),
		zap.String("keyName", keyName),
		zap.String("address", address),
	)
	return nil
}

// LoadPrivateKeyFromHex parses a hex private key, with or without 0x.
func (l *LocalKeyStore) LoadPrivateKeyFromHex(keyId string, privateKeyHex string, keyName string) error {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return fmt.Errorf("failed to parse private key from hex: %w", err)
	}
	return l.LoadPrivateKey(keyId, privateKey, keyName)
}

func (l *LocalKeyStore) KeyExists(keyId string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, exists := l.keyStore[keyId]
	return exists
}

func (l *LocalKeyStore) GetKeyCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.keyStore)
}

// Signer returns an IRemoteSigner bound to keyId. The key does not have to
// exist yet; calls fail until it does.
func (l *LocalKeyStore) Signer(keyId string) *LocalSigner {
	return &LocalSigner{store: l, keyId: keyId}
}

func (l *LocalKeyStore) get(keyId string) (*keyEntry, error) {
	l.mu.RLock()
	entry, exists := l.keyStore[keyId]
	l.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("key with ID %s not found", keyId)
	}
	return entry, nil
}

// LocalSigner signs with a single key from a LocalKeyStore. Public keys are
// returned compressed, the same shape a threshold key platform hands back.
type LocalSigner struct {
	store *LocalKeyStore
	keyId string
}

func (s *LocalSigner) KeyId() string {
	return s.keyId
}

func (s *LocalSigner) GetPublicKey(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.NewKeyFetchFailure(s.keyId, err)
	}
	entry, err := s.store.get(s.keyId)
	if err != nil {
		return nil, types.NewKeyFetchFailure(s.keyId, err)
	}
	return crypto.CompressPubkey(&entry.privateKey.PublicKey), nil
}

func (s *LocalSigner) SignDigest(ctx context.Context, digest []byte) ([]byte, error) {
	if err := types.ValidateDigest(digest); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, types.NewSigningFailure(s.keyId, err)
	}
	entry, err := s.store.get(s.keyId)
	if err != nil {
		return nil, types.NewSigningFailure(s.keyId, err)
	}

	sig, err := crypto.Sign(digest, entry.privateKey)
	if err != nil {
		return nil, types.NewSigningFailure(s.keyId, fmt.Errorf("failed to sign digest with key %s: %w", s.keyId, err))
	}

	s.store.logger.Debug("Signed digest with local key",
		zap.String("keyId", s.keyId),
		zap.String("address", entry.address),
	)

	// drop the recovery byte, callers resolve it against the public key
	return sig[:types.SignatureLength], nil
}
