package repository

import (
	"context"
	"time"

	"gym-membership-backend/internal/domain/model"
)

// PaymentRepository is the port for payment records. Status moves only
// through the conditional updates below; Save never rewrites status on an
// existing row's behalf outside a transaction.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByGatewayToken(ctx context.Context, tx Tx, token string) (*model.Payment, error)

	// CompleteIf transitions pending -> completed keyed on the current
	// status and reports whether this call made the transition. A false
	// return with nil error means another writer got there first.
	CompleteIf(ctx context.Context, tx Tx, id string, gatewayTxnID string, at time.Time) (bool, error)
	// FailIf transitions pending -> failed the same way.
	FailIf(ctx context.Context, tx Tx, id string, errCode, errMsg string) (bool, error)
	// MarkRefundingIf claims the refund: completed -> refunding. Only the
	// claimant may call the gateway, so a refund is never issued twice.
	MarkRefundingIf(ctx context.Context, tx Tx, id string) (bool, error)
	// ReleaseRefunding rolls a failed claim back: refunding -> completed.
	ReleaseRefunding(ctx context.Context, tx Tx, id string) error
	// RefundIf finalizes the claim: refunding -> refunded.
	RefundIf(ctx context.Context, tx Tx, id string, amount int64, reason string, at time.Time) (bool, error)

	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.Payment, int, error)
	ListDetails(ctx context.Context, tx Tx, offset, limit int) ([]*model.PaymentDetail, int, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
}
