package payment

import (
	"context"
	"fmt"
	"sync"

	"gym-membership-backend/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

// NoopGateway is a simple in-memory gateway for dev mode and tests. Every
// initiated payment verifies as Completed.
type NoopGateway struct {
	mu      sync.Mutex
	seq     int64
	intents map[string]int64 // token -> amount (NPR)
}

func NewNoopGateway() *NoopGateway {
	return &NoopGateway{intents: make(map[string]int64)}
}

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) next() string {
	g.seq++
	return fmt.Sprintf("noop-%d", g.seq)
}

func (g *NoopGateway) Initiate(ctx context.Context, req adapter.InitiateRequest) (*adapter.InitiateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	token := g.next()
	g.intents[token] = req.Amount
	return &adapter.InitiateResult{
		PaymentURL:   "https://example.test/pay/" + token,
		Token:        token,
		GatewayTxnID: "gw-" + token,
	}, nil
}

func (g *NoopGateway) Verify(ctx context.Context, token string) (*adapter.VerifyResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	amount, ok := g.intents[token]
	if !ok {
		return nil, fmt.Errorf("noop: token not found")
	}
	return &adapter.VerifyResult{
		Status:       adapter.StatusCompleted,
		GatewayTxnID: "gw-" + token,
		Amount:       amount,
	}, nil
}

func (g *NoopGateway) Refund(ctx context.Context, gatewayTxnID string, amount int64) error {
	return nil
}
