package adapter

import "context"

// StatusCompleted is the gateway-side terminal success status. Any other
// verification status means the money has not (yet) arrived.
const StatusCompleted = "Completed"

// CustomerInfo is forwarded to the gateway's hosted payment page.
type CustomerInfo struct {
	Name  string
	Email string
	Phone string
}

// InitiateRequest starts an out-of-band payment flow. Amount is in whole
// NPR; conversion to minor units happens inside the adapter.
type InitiateRequest struct {
	Amount        int64
	TransactionID string
	Description   string
	Customer      CustomerInfo
}

type InitiateResult struct {
	PaymentURL   string
	Token        string
	GatewayTxnID string
}

type VerifyResult struct {
	Status       string
	GatewayTxnID string
	Amount       int64 // whole NPR, converted back from minor units
}

// PaymentGateway is the boundary to the third-party payment processor.
// Initiate only starts a flow; completion arrives later via redirect or
// webhook. All methods surface transport/auth failures as
// domain.ErrGatewayUnavailable.
type PaymentGateway interface {
	Name() string
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	Verify(ctx context.Context, token string) (*VerifyResult, error)
	Refund(ctx context.Context, gatewayTxnID string, amount int64) error
}
