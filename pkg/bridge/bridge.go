// Package bridge ties the remote signer to the transaction codec. It is the
// single place a transaction gets signed: digest, remote signature, recovery
// id resolution against the platform key, then the signed encoding.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/evmKey"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/remoteSigner"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/signature"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/txCodec"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNilTransactionFields = errors.New("transaction fields are nil")
	ErrSignatureNotVerified = errors.New("signature does not verify under the platform key")
)

type SignedTransaction struct {
	Raw        []byte
	Hash       common.Hash
	Digest     types.Digest
	Signature  types.Signature
	RecoveryId types.RecoveryId
	V          *big.Int
	From       common.Address
}

type Bridge struct {
	logger  *zap.Logger
	signer  remoteSigner.IRemoteSigner
	chainId uint64
	metrics *Metrics
}

func NewBridge(signer remoteSigner.IRemoteSigner, chainId uint64, metrics *Metrics, logger *zap.Logger) *Bridge {
	if metrics == nil {
		metrics, _ = NewMetrics(nil)
	}
	return &Bridge{
		logger:  logger,
		signer:  signer,
		chainId: chainId,
		metrics: metrics,
	}
}

func (b *Bridge) ChainId() uint64 {
	return b.chainId
}

func (b *Bridge) KeyId() string {
	return b.signer.KeyId()
}

// GetPublicKey returns the key exactly as the platform reports it, 33 or 65 bytes.
func (b *Bridge) GetPublicKey(ctx context.Context) ([]byte, error) {
	pub, err := b.signer.GetPublicKey(ctx)
	if err != nil {
		b.metrics.keyFetchErrors.Inc()
		return nil, err
	}
	return pub, nil
}

// GetUncompressedPublicKey returns the platform key in 0x04 || x || y form.
func (b *Bridge) GetUncompressedPublicKey(ctx context.Context) ([]byte, error) {
	pub, err := b.GetPublicKey(ctx)
	if err != nil {
		return nil, err
	}
	return evmKey.Normalize(pub)
}

func (b *Bridge) GetAddress(ctx context.Context) (common.Address, error) {
	pub, err := b.GetUncompressedPublicKey(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return evmKey.DeriveAddress(pub)
}

// SignDigest returns the 64 byte r || s for digest. A signer that hands back
// anything other than 64 bytes is reported as a signing failure.
func (b *Bridge) SignDigest(ctx context.Context, digest []byte) (types.Signature, error) {
	if err := types.ValidateDigest(digest); err != nil {
		return nil, err
	}
	sig, err := b.signer.SignDigest(ctx, digest)
	if err != nil {
		return nil, err
	}
	if err := types.Signature(sig).Validate(); err != nil {
		return nil, types.NewSigningFailure(b.signer.KeyId(), err)
	}
	return sig, nil
}

func (b *Bridge) EncodeUnsigned(fields *txCodec.TransactionFields) ([]byte, error) {
	return txCodec.EncodeUnsigned(fields, b.chainId)
}

func (b *Bridge) EncodeSigned(fields *txCodec.TransactionFields, sig []byte, recoveryId types.RecoveryId) ([]byte, error) {
	return txCodec.EncodeSigned(fields, b.chainId, sig, recoveryId)
}

// SignTransaction runs the whole pipeline for fields. Nothing is returned
// unless the recovery id resolved against the platform key.
func (b *Bridge) SignTransaction(ctx context.Context, fields *txCodec.TransactionFields) (*SignedTransaction, error) {
	requestId := uuid.New().String()
	if fields == nil {
		b.metrics.signRequests.WithLabelValues("error").Inc()
		b.logger.Sugar().Errorw("Failed to sign transaction",
			"requestId", requestId,
			"keyId", b.signer.KeyId(),
			"error", ErrNilTransactionFields,
		)
		return nil, ErrNilTransactionFields
	}
	start := time.Now()

	signed, err := b.signTransaction(ctx, fields)
	b.metrics.signDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		b.metrics.signRequests.WithLabelValues("error").Inc()
		b.logger.Sugar().Errorw("Failed to sign transaction",
			"requestId", requestId,
			"keyId", b.signer.KeyId(),
			"nonce", fields.Nonce,
			"error", err,
		)
		return nil, err
	}

	b.metrics.signRequests.WithLabelValues("success").Inc()
	b.metrics.recoveryIds.WithLabelValues(strconv.Itoa(int(signed.RecoveryId))).Inc()
	b.logger.Sugar().Infow("Signed transaction",
		"requestId", requestId,
		"from", evmKey.AddressString(signed.From),
		"nonce", fields.Nonce,
		"contractCreation", fields.IsContractCreation(),
		"hash", signed.Hash.Hex(),
		"v", signed.V.String(),
	)
	return signed, nil
}

func (b *Bridge) signTransaction(ctx context.Context, fields *txCodec.TransactionFields) (*SignedTransaction, error) {
	pub, err := b.GetUncompressedPublicKey(ctx)
	if err != nil {
		return nil, err
	}
	from, err := evmKey.DeriveAddress(pub)
	if err != nil {
		return nil, err
	}

	digest, err := txCodec.SigningDigest(fields, b.chainId)
	if err != nil {
		return nil, err
	}

	sig, err := b.SignDigest(ctx, digest[:])
	if err != nil {
		return nil, err
	}

	recoveryId, err := signature.ResolveRecoveryId(digest[:], sig, pub)
	if err != nil {
		return nil, err
	}
	ok, err := signature.Verify(digest[:], sig, pub)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: expected signer %s", ErrSignatureNotVerified, evmKey.AddressString(from))
	}

	raw, err := b.EncodeSigned(fields, sig, recoveryId)
	if err != nil {
		return nil, err
	}

	return &SignedTransaction{
		Raw:        raw,
		Hash:       txCodec.TransactionHash(raw),
		Digest:     digest,
		Signature:  sig,
		RecoveryId: recoveryId,
		V:          txCodec.ComputeV(b.chainId, recoveryId),
		From:       from,
	}, nil
}

// VerifyDigestSignature checks sig against the current platform key.
func (b *Bridge) VerifyDigestSignature(ctx context.Context, digest []byte, sig []byte) (bool, error) {
	pub, err := b.GetUncompressedPublicKey(ctx)
	if err != nil {
		return false, err
	}
	return signature.Verify(digest, sig, pub)
}
