package model

import (
	"time"

	"github.com/oklog/ulid/v2"

	"gym-membership-backend/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // created; awaiting gateway outcome
	PaymentStatusCompleted PaymentStatus = "completed" // verified OK at the gateway
	PaymentStatusFailed    PaymentStatus = "failed"    // gateway reported failure
	PaymentStatusRefunding PaymentStatus = "refunding" // refund claimed; gateway call in flight
	PaymentStatusRefunded  PaymentStatus = "refunded"  // money returned after completion
)

// CanTransition encodes the only legal moves:
// pending -> {completed, failed}; completed -> refunding -> refunded,
// with refunding released back to completed when the gateway call fails.
func CanTransition(from, to PaymentStatus) bool {
	switch from {
	case PaymentStatusPending:
		return to == PaymentStatusCompleted || to == PaymentStatusFailed
	case PaymentStatusCompleted:
		return to == PaymentStatusRefunding
	case PaymentStatusRefunding:
		return to == PaymentStatusRefunded || to == PaymentStatusCompleted
	default:
		return false
	}
}

type PaymentMethod string

const (
	PaymentMethodKhalti PaymentMethod = "khalti"
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
)

// Payment records the external payment intent/transaction for one membership.
type Payment struct {
	ID           string // UUID
	UserID       string
	MembershipID string
	Amount       int64 // whole NPR; avoids float errors
	Currency     string
	Method       PaymentMethod
	Status       PaymentStatus

	// Internal correlation id, generated at creation: TXN_<ulid>.
	TransactionID string

	// Gateway correlation fields, unique when present.
	GatewayToken  string
	GatewayTxnID  string
	GatewayPayURL string

	Description  string
	InitiatedAt  time.Time
	CompletedAt  *time.Time
	RefundedAt   *time.Time
	RefundAmount int64
	ErrorCode    string
	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTransactionID generates the internal correlation id. ULIDs keep the ids
// sortable by creation time, which the payment listing relies on.
func NewTransactionID() string {
	return "TXN_" + ulid.Make().String()
}

// NewPendingPayment constructs a payment intent for a membership purchase.
func NewPendingPayment(id, userID, membershipID string, amount int64, description string) (*Payment, error) {
	if id == "" || userID == "" || membershipID == "" || amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Payment{
		ID:            id,
		UserID:        userID,
		MembershipID:  membershipID,
		Amount:        amount,
		Currency:      "NPR",
		Method:        PaymentMethodKhalti,
		Status:        PaymentStatusPending,
		TransactionID: NewTransactionID(),
		Description:   description,
		InitiatedAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Refundable reports whether a refund may be attempted at all.
func (p *Payment) Refundable() bool {
	return p.Status == PaymentStatusCompleted && p.Method == PaymentMethodKhalti
}
