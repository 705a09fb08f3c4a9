package remoteSigner

import (
	"context"
	"sync/atomic"

	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/types"
	"go.uber.org/zap"
)

// MeteredSigner charges a cost policy before every call to the wrapped signer.
// A charge failure surfaces as the matching platform failure and the wrapped
// signer is not called.
type MeteredSigner struct {
	signer IRemoteSigner
	policy ICostPolicy
	logger *zap.Logger

	charged atomic.Uint64
}

func NewMeteredSigner(signer IRemoteSigner, policy ICostPolicy, logger *zap.Logger) *MeteredSigner {
	if policy == nil {
		policy = NoopCostPolicy{}
	}
	return &MeteredSigner{
		signer: signer,
		policy: policy,
		logger: logger,
	}
}

func (m *MeteredSigner) KeyId() string {
	return m.signer.KeyId()
}

func (m *MeteredSigner) GetPublicKey(ctx context.Context) ([]byte, error) {
	units, err := m.policy.Charge(ctx, OperationGetPublicKey, 0)
	if err != nil {
		return nil, types.NewKeyFetchFailure(m.KeyId(), err)
	}
	m.record(OperationGetPublicKey, units)
	return m.signer.GetPublicKey(ctx)
}

func (m *MeteredSigner) SignDigest(ctx context.Context, digest []byte) ([]byte, error) {
	if err := types.ValidateDigest(digest); err != nil {
		return nil, err
	}
	units, err := m.policy.Charge(ctx, OperationSignDigest, len(digest))
	if err != nil {
		return nil, types.NewSigningFailure(m.KeyId(), err)
	}
	m.record(OperationSignDigest, units)
	return m.signer.SignDigest(ctx, digest)
}

// TotalCharged returns the fee units charged since construction.
func (m *MeteredSigner) TotalCharged() uint64 {
	return m.charged.Load()
}

func (m *MeteredSigner) record(op Operation, units uint64) {
	total := m.charged.Add(units)
	m.logger.Debug("Charged remote signer call",
		zap.String("keyId", m.KeyId()),
		zap.String("operation", string(op)),
		zap.Uint64("units", units),
		zap.Uint64("totalUnits", total),
	)
}
