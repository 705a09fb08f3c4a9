package remoteSigner

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type Operation string

const (
	OperationGetPublicKey Operation = "get_public_key"
	OperationSignDigest   Operation = "sign_digest"
)

// ICostPolicy meters the platform resources a signer call consumes. Charge may
// block until the call is allowed to proceed and returns the fee units charged.
type ICostPolicy interface {
	Charge(ctx context.Context, op Operation, payloadBytes int) (uint64, error)
}

type NoopCostPolicy struct{}

func (NoopCostPolicy) Charge(ctx context.Context, op Operation, payloadBytes int) (uint64, error) {
	return 0, nil
}

// LinearCostPolicy charges (Base + PerByte*payloadBytes) * Nodes units per call
// and optionally throttles calls through a token bucket.
type LinearCostPolicy struct {
	Base    uint64
	PerByte uint64
	Nodes   uint64

	limiter *rate.Limiter
}

// NewLinearCostPolicy returns a policy with the given constants. A zero
// ratePerSecond disables throttling.
func NewLinearCostPolicy(base, perByte, nodes uint64, ratePerSecond float64, burst int) *LinearCostPolicy {
	p := &LinearCostPolicy{
		Base:    base,
		PerByte: perByte,
		Nodes:   nodes,
	}
	if ratePerSecond > 0 {
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
	}
	return p
}

func (p *LinearCostPolicy) Cost(payloadBytes int) uint64 {
	nodes := p.Nodes
	if nodes == 0 {
		nodes = 1
	}
	return (p.Base + p.PerByte*uint64(payloadBytes)) * nodes
}

func (p *LinearCostPolicy) Charge(ctx context.Context, op Operation, payloadBytes int) (uint64, error) {
	if payloadBytes < 0 {
		return 0, fmt.Errorf("negative payload size %d for %s", payloadBytes, op)
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limit wait for %s: %w", op, err)
		}
	}
	return p.Cost(payloadBytes), nil
}
