package awsKmsSigner

import (
	"context"
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/signature"
	bridgeTypes "github.com/Layr-Labs/eigenx-evm-bridge/pkg/types"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	oidEcPublicKey = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidSecp256k1   = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

// KmsApi is the subset of the KMS client the signer uses.
type KmsApi interface {
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
	CreateKey(ctx context.Context, params *kms.CreateKeyInput, optFns ...func(*kms.Options)) (*kms.CreateKeyOutput, error)
	CreateAlias(ctx context.Context, params *kms.CreateAliasInput, optFns ...func(*kms.Options)) (*kms.CreateAliasOutput, error)
}

// AWSKMSSigner signs with an ECC_SECG_P256K1 key held in AWS KMS.
type AWSKMSSigner struct {
	logger    *zap.Logger
	kmsClient KmsApi
	keyId     string
	awsRegion string
}

func NewAWSKMSSigner(awsCfg aws.Config, keyId string, logger *zap.Logger) *AWSKMSSigner {
	return NewAWSKMSSignerWithClient(kms.NewFromConfig(awsCfg), keyId, awsCfg.Region, logger)
}

func NewAWSKMSSignerWithClient(client KmsApi, keyId string, awsRegion string, logger *zap.Logger) *AWSKMSSigner {
	return &AWSKMSSigner{
		logger:    logger,
		kmsClient: client,
		keyId:     keyId,
		awsRegion: awsRegion,
	}
}

func (a *AWSKMSSigner) KeyId() string {
	return a.keyId
}

// GetPublicKey returns the 65 byte uncompressed key from the DER
// SubjectPublicKeyInfo that KMS hands back.
func (a *AWSKMSSigner) GetPublicKey(ctx context.Context) ([]byte, error) {
	res, err := a.kmsClient.GetPublicKey(ctx, &kms.GetPublicKeyInput{
		KeyId: aws.String(a.keyId),
	})
	if err != nil {
		return nil, bridgeTypes.NewKeyFetchFailure(a.keyId,
			errors.Wrapf(err, "failed to get public key in region %s", a.awsRegion))
	}
	if res.KeySpec != "" && res.KeySpec != types.KeySpecEccSecgP256k1 {
		return nil, bridgeTypes.NewKeyFetchFailure(a.keyId,
			fmt.Errorf("unsupported key spec %s, expected %s", res.KeySpec, types.KeySpecEccSecgP256k1))
	}

	pub, err := ParsePublicKeyDER(res.PublicKey)
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// SignDigest asks KMS to sign the digest as-is and converts the DER signature
// into r || s with a low s.
func (a *AWSKMSSigner) SignDigest(ctx context.Context, digest []byte) ([]byte, error) {
	if err := bridgeTypes.ValidateDigest(digest); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, bridgeTypes.NewSigningFailure(a.keyId, err)
	}

	signOutput, err := a.kmsClient.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(a.keyId),
		Message:          digest,
		SigningAlgorithm: types.SigningAlgorithmSpecEcdsaSha256,
		MessageType:      types.MessageTypeDigest,
	})
	if err != nil {
		return nil, bridgeTypes.NewSigningFailure(a.keyId,
			errors.Wrapf(err, "failed to sign digest in region %s", a.awsRegion))
	}

	sig, err := ParseSignatureDER(signOutput.Signature)
	if err != nil {
		return nil, bridgeTypes.NewSigningFailure(a.keyId, err)
	}

	normalized, flipped, err := signature.NormalizeLowS(sig)
	if err != nil {
		return nil, bridgeTypes.NewSigningFailure(a.keyId, err)
	}
	if flipped {
		a.logger.Debug("Normalized high-S signature from KMS", zap.String("keyId", a.keyId))
	}
	return normalized, nil
}

// CreateSigningKey creates a new secp256k1 signing key and an alias pointing at it.
func (a *AWSKMSSigner) CreateSigningKey(ctx context.Context, keyName string, aliasName string, environment string) (string, error) {
	keyRes, err := a.kmsClient.CreateKey(ctx, &kms.CreateKeyInput{
		KeyUsage:    types.KeyUsageTypeSignVerify,
		KeySpec:     types.KeySpecEccSecgP256k1,
		Description: aws.String(fmt.Sprintf("ECDSA key for EVM bridge transaction signing - %s", keyName)),
		Tags: []types.Tag{
			{TagKey: aws.String("Name"), TagValue: aws.String(keyName)},
			{TagKey: aws.String("Environment"), TagValue: aws.String(environment)},
			{TagKey: aws.String("Purpose"), TagValue: aws.String("evm-bridge-signing-key")},
			{TagKey: aws.String("Curve"), TagValue: aws.String("secp256k1")},
		},
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to create key %s in region %s", keyName, a.awsRegion)
	}
	keyId := aws.ToString(keyRes.KeyMetadata.KeyId)

	if aliasName != "" {
		_, err = a.kmsClient.CreateAlias(ctx, &kms.CreateAliasInput{
			AliasName:   aws.String(fmt.Sprintf("alias/%s", aliasName)),
			TargetKeyId: aws.String(keyId),
		})
		if err != nil {
			return "", errors.Wrapf(err, "failed to create alias %s for key %s in region %s", aliasName, keyId, a.awsRegion)
		}
	}

	a.logger.Info("Created KMS signing key",
		zap.String("keyName", keyName),
		zap.String("aliasName", aliasName),
		zap.String("keyId", keyId),
		zap.String("region", a.awsRegion),
	)
	return keyId, nil
}

type asn1EcSig struct {
	R asn1.RawValue
	S asn1.RawValue
}

type asn1EcPublicKey struct {
	EcPublicKeyInfo asn1EcPublicKeyInfo
	PublicKey       asn1.BitString
}

type asn1EcPublicKeyInfo struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier
}

// ParsePublicKeyDER extracts the SEC1 point from a DER SubjectPublicKeyInfo.
func ParsePublicKeyDER(der []byte) ([]byte, error) {
	var spki asn1EcPublicKey
	rest, err := asn1.Unmarshal(der, &spki)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse ASN.1 public key: %v", bridgeTypes.ErrKeyParse, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after public key", bridgeTypes.ErrKeyParse, len(rest))
	}
	if !spki.EcPublicKeyInfo.Algorithm.Equal(oidEcPublicKey) || !spki.EcPublicKeyInfo.Parameters.Equal(oidSecp256k1) {
		return nil, fmt.Errorf("%w: not a secp256k1 key (algorithm %s, curve %s)",
			bridgeTypes.ErrKeyParse, spki.EcPublicKeyInfo.Algorithm, spki.EcPublicKeyInfo.Parameters)
	}

	point := spki.PublicKey.Bytes
	if len(point) != bridgeTypes.CompressedPublicKeyLength && len(point) != bridgeTypes.UncompressedPublicKeyLength {
		return nil, fmt.Errorf("%w: got %d", bridgeTypes.ErrInvalidKeyLength, len(point))
	}
	out := make([]byte, len(point))
	copy(out, point)
	return out, nil
}

// ParseSignatureDER converts an ASN.1 ECDSA-Sig-Value into a 64 byte r || s.
func ParseSignatureDER(der []byte) ([]byte, error) {
	var sig asn1EcSig
	if _, err := asn1.Unmarshal(der, &sig); err != nil {
		return nil, fmt.Errorf("%w: %v", bridgeTypes.ErrSignatureParse, err)
	}

	r := new(big.Int).SetBytes(sig.R.Bytes)
	s := new(big.Int).SetBytes(sig.S.Bytes)
	if r.BitLen() > 256 || s.BitLen() > 256 {
		return nil, fmt.Errorf("%w: r or s wider than 256 bits", bridgeTypes.ErrSignatureParse)
	}

	out := make([]byte, bridgeTypes.SignatureLength)
	r.FillBytes(out[:32])
	s.FillBytes(out[32:])
	return out, nil
}
