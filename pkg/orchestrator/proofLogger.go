package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProofOfGeneration ties registered content to its on-chain IP asset.
type ProofOfGeneration struct {
	ContentHash      string `json:"contentHash"`
	MetadataURI      string `json:"metadataUri"`
	Timestamp        int64  `json:"timestamp"`
	IpId             string `json:"ipId"`
	NftContract      string `json:"nftContract"`
	TokenId          string `json:"tokenId"`
	TxHash           string `json:"txHash"`
	GeneratorAddress string `json:"generatorAddress"`
}

// IProofLogger publishes a proof to an external ledger and returns its
// reference there. Failures are logged by the caller and never abort a flow.
type IProofLogger interface {
	LogProof(ctx context.Context, proof *ProofOfGeneration) (string, error)
}

type NoopProofLogger struct{}

func (NoopProofLogger) LogProof(ctx context.Context, proof *ProofOfGeneration) (string, error) {
	return "", nil
}

// ZapProofLogger writes proofs to the structured log and hands out a
// request-style reference for each one.
type ZapProofLogger struct {
	logger *zap.Logger
}

func NewZapProofLogger(logger *zap.Logger) *ZapProofLogger {
	return &ZapProofLogger{logger: logger}
}

func (z *ZapProofLogger) LogProof(ctx context.Context, proof *ProofOfGeneration) (string, error) {
	if proof == nil {
		return "", fmt.Errorf("proof is nil")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := "proof-" + uuid.New().String()
	z.logger.Sugar().Infow("Proof of generation",
		"ref", ref,
		"contentHash", proof.ContentHash,
		"ipId", proof.IpId,
		"nftContract", proof.NftContract,
		"tokenId", proof.TokenId,
		"txHash", proof.TxHash,
		"generator", proof.GeneratorAddress,
	)
	return ref, nil
}
