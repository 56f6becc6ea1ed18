package usecase

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/adapter"
	"gym-membership-backend/internal/domain/ports/repository"
	"gym-membership-backend/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// WebhookEvent is the parsed, signature-verified gateway notification.
type WebhookEvent struct {
	Token        string
	GatewayTxnID string
	Status       string
	Amount       int64 // whole NPR as reported by the gateway; 0 when absent
}

// InitiateOutcome is what the purchase endpoint hands back to the client.
type InitiateOutcome struct {
	Payment    *model.Payment
	Membership *model.Membership
	PaymentURL string
}

type PaymentUseCase interface {
	// InitiatePurchase creates a pending membership plus a pending payment
	// for the user and starts the gateway flow. Fails with ErrConflict when
	// the user already holds an active membership.
	InitiatePurchase(ctx context.Context, userID, typeID string, customer adapter.CustomerInfo) (*InitiateOutcome, error)
	// ConfirmByToken verifies the gateway state for a token and, on success,
	// completes the payment and activates its membership in one transaction.
	// Calling it again for an already-completed payment is a no-op success.
	ConfirmByToken(ctx context.Context, token string) (*model.Payment, error)
	// HandleWebhook applies a gateway notification idempotently. Success
	// events go through the same verify-then-complete path as the redirect
	// callback; failure events mark the payment failed and leave the
	// membership pending.
	HandleWebhook(ctx context.Context, ev WebhookEvent) (*model.Payment, error)
	// Refund reverses a completed Khalti payment. amount <= 0 means full
	// refund. The linked membership is deactivated in the same transaction.
	Refund(ctx context.Context, paymentID string, amount int64, reason string) (*model.Payment, error)

	Get(ctx context.Context, id string) (*model.Payment, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Payment, int, error)
	ListDetails(ctx context.Context, offset, limit int) ([]*model.PaymentDetail, int, error)
}

type paymentUC struct {
	payments    repository.PaymentRepository
	memberships repository.MembershipRepository
	types       repository.MembershipTypeRepository
	users       repository.UserRepository
	gateway     adapter.PaymentGateway
	tm          repository.TransactionManager
	log         *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	memberships repository.MembershipRepository,
	types repository.MembershipTypeRepository,
	users repository.UserRepository,
	gateway adapter.PaymentGateway,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *paymentUC {
	return &paymentUC{
		payments:    payments,
		memberships: memberships,
		types:       types,
		users:       users,
		gateway:     gateway,
		tm:          tm,
		log:         logger,
	}
}

func hashToInt64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64() & ((1 << 63) - 1))
}

// lockUser serializes concurrent purchases per user with an advisory xact
// lock. Non-pgx transaction handles (tests) skip the lock.
func lockUser(ctx context.Context, tx repository.Tx, userID string) error {
	pt, ok := tx.(pgx.Tx)
	if !ok {
		return nil
	}
	_, err := pt.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", hashToInt64(userID))
	return err
}

func (u *paymentUC) InitiatePurchase(ctx context.Context, userID, typeID string, customer adapter.CustomerInfo) (*InitiateOutcome, error) {
	user, err := u.users.FindByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	mt, err := u.types.FindByID(ctx, nil, typeID)
	if err != nil {
		return nil, err
	}
	if !mt.IsActive {
		return nil, domain.ErrInvalidState
	}

	var (
		membership *model.Membership
		payment    *model.Payment
	)
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		if _, err := u.memberships.FindActiveByUser(ctx, tx, userID, time.Now()); err == nil {
			return domain.ErrConflict
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		membership, err = model.NewPendingMembership(uuid.NewString(), userID, mt)
		if err != nil {
			return err
		}
		if err := u.memberships.Save(ctx, tx, membership); err != nil {
			return err
		}
		payment, err = model.NewPendingPayment(uuid.NewString(), userID, membership.ID, mt.PriceNPR, string(mt.Title)+" membership")
		if err != nil {
			return err
		}
		if err := u.payments.Save(ctx, tx, payment); err != nil {
			return err
		}
		membership.PaymentID = &payment.ID
		return u.memberships.Save(ctx, tx, membership)
	})
	if err != nil {
		return nil, err
	}

	if customer.Name == "" {
		customer.Name = user.Name
	}
	if customer.Email == "" {
		customer.Email = user.Email
	}
	if customer.Phone == "" {
		customer.Phone = user.Phone
	}
	res, err := u.gateway.Initiate(ctx, adapter.InitiateRequest{
		Amount:        payment.Amount,
		TransactionID: payment.TransactionID,
		Description:   payment.Description,
		Customer:      customer,
	})
	if err != nil {
		// Records stay pending; the reconciler or a retry picks them up.
		u.log.Error().Err(err).Str("payment_id", payment.ID).Msg("gateway initiate failed")
		return nil, err
	}

	payment.GatewayToken = res.Token
	payment.GatewayPayURL = res.PaymentURL
	payment.GatewayTxnID = res.GatewayTxnID
	payment.UpdatedAt = time.Now()
	if err := u.payments.Save(ctx, nil, payment); err != nil {
		return nil, err
	}

	metrics.IncPayment(string(model.PaymentStatusPending))
	u.log.Info().
		Str("payment_id", payment.ID).
		Str("membership_id", membership.ID).
		Str("txn_id", payment.TransactionID).
		Msg("purchase initiated")
	return &InitiateOutcome{Payment: payment, Membership: membership, PaymentURL: res.PaymentURL}, nil
}

func (u *paymentUC) ConfirmByToken(ctx context.Context, token string) (*model.Payment, error) {
	if token == "" {
		return nil, domain.ErrInvalidArgument
	}
	p, err := u.payments.FindByGatewayToken(ctx, nil, token)
	if err != nil {
		return nil, err
	}
	switch p.Status {
	case model.PaymentStatusCompleted:
		// Replayed callback for a settled payment: nothing to do.
		return p, nil
	case model.PaymentStatusRefunded:
		return p, domain.ErrInvalidState
	}

	vr, err := u.gateway.Verify(ctx, token)
	if err != nil {
		return p, err
	}
	if vr.Status != adapter.StatusCompleted {
		// The money is not there; leave the records pending so a later
		// webhook or reconciler pass can still settle them.
		u.log.Warn().Str("payment_id", p.ID).Str("gateway_status", vr.Status).Msg("verification not completed")
		return p, domain.ErrPaymentVerificationFailed
	}
	if vr.Amount != 0 && vr.Amount != p.Amount {
		u.log.Error().Str("payment_id", p.ID).Int64("expected", p.Amount).Int64("got", vr.Amount).Msg("verified amount mismatch")
		return p, domain.ErrPaymentVerificationFailed
	}

	return u.complete(ctx, p, vr.GatewayTxnID)
}

// complete applies the pending -> completed transition and activates the
// linked membership atomically. Safe under races: the conditional update
// decides a single winner and losers observe the committed state.
func (u *paymentUC) complete(ctx context.Context, p *model.Payment, gatewayTxnID string) (*model.Payment, error) {
	now := time.Now()
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		moved, err := u.payments.CompleteIf(ctx, tx, p.ID, gatewayTxnID, now)
		if err != nil {
			return err
		}
		if !moved {
			fresh, err := u.payments.FindByID(ctx, tx, p.ID)
			if err != nil {
				return err
			}
			*p = *fresh
			if fresh.Status == model.PaymentStatusCompleted {
				return nil // lost the race to an equivalent writer
			}
			return domain.ErrInvalidState
		}

		p.Status = model.PaymentStatusCompleted
		p.CompletedAt = &now
		if gatewayTxnID != "" {
			p.GatewayTxnID = gatewayTxnID
		}
		p.UpdatedAt = now

		m, err := u.memberships.FindByID(ctx, tx, p.MembershipID)
		if err != nil {
			return err
		}
		mt, err := u.types.FindByID(ctx, tx, m.TypeID)
		if err != nil {
			return err
		}
		// A stale row from a lapsed membership may still hold is_active;
		// sweep it or the one-active index rejects the activation.
		if err := u.memberships.DeactivateExpired(ctx, tx, m.UserID, now); err != nil {
			return err
		}
		m.Activate(mt.Duration, now)
		if err := u.memberships.Save(ctx, tx, m); err != nil {
			return err
		}

		metrics.IncPayment(string(model.PaymentStatusCompleted))
		metrics.AddPaymentRevenue(p.Currency, p.Amount)
		metrics.IncMembershipEvent("activated")
		u.log.Info().
			Str("payment_id", p.ID).
			Str("membership_id", m.ID).
			Time("end_date", m.EndDate).
			Msg("payment completed, membership activated")
		return nil
	})
	if err != nil {
		return p, err
	}
	return p, nil
}

func (u *paymentUC) HandleWebhook(ctx context.Context, ev WebhookEvent) (*model.Payment, error) {
	if ev.Token == "" || ev.Status == "" {
		return nil, domain.ErrInvalidArgument
	}
	p, err := u.payments.FindByGatewayToken(ctx, nil, ev.Token)
	if err != nil {
		metrics.IncWebhookDelivery("unknown_token")
		return nil, err
	}

	if ev.Status == adapter.StatusCompleted {
		if p.Status == model.PaymentStatusCompleted {
			metrics.IncWebhookDelivery("duplicate")
			return p, nil
		}
		// Never trust the webhook body alone; re-verify against the gateway
		// before moving money-state.
		p, err = u.ConfirmByToken(ctx, ev.Token)
		if err != nil {
			metrics.IncWebhookDelivery("verify_failed")
			return p, err
		}
		metrics.IncWebhookDelivery("applied")
		return p, nil
	}

	// Terminal failure statuses (Expired, User canceled, ...) fail the
	// payment; the membership stays pending and never activates.
	moved, err := u.payments.FailIf(ctx, nil, p.ID, ev.Status, "gateway reported "+ev.Status)
	if err != nil {
		return p, err
	}
	if moved {
		p.Status = model.PaymentStatusFailed
		p.ErrorCode = ev.Status
		metrics.IncPayment(string(model.PaymentStatusFailed))
		metrics.IncWebhookDelivery("applied")
		u.log.Info().Str("payment_id", p.ID).Str("gateway_status", ev.Status).Msg("payment failed via webhook")
	} else {
		metrics.IncWebhookDelivery("duplicate")
	}
	return p, nil
}

func (u *paymentUC) Refund(ctx context.Context, paymentID string, amount int64, reason string) (*model.Payment, error) {
	p, err := u.payments.FindByID(ctx, nil, paymentID)
	if err != nil {
		return nil, err
	}
	if !p.Refundable() {
		return p, domain.ErrRefundNotAllowed
	}
	if amount <= 0 {
		amount = p.Amount
	}
	if amount > p.Amount {
		return p, domain.ErrInvalidArgument
	}

	// Claim the refund before touching the gateway so two concurrent calls
	// can never both issue the external request.
	claimed, err := u.payments.MarkRefundingIf(ctx, nil, p.ID)
	if err != nil {
		return p, err
	}
	if !claimed {
		return p, domain.ErrConflict
	}

	if err := u.gateway.Refund(ctx, p.GatewayTxnID, amount); err != nil {
		u.log.Error().Err(err).Str("payment_id", p.ID).Msg("gateway refund failed")
		if relErr := u.payments.ReleaseRefunding(ctx, nil, p.ID); relErr != nil {
			u.log.Error().Err(relErr).Str("payment_id", p.ID).Msg("release refund claim failed")
		}
		return p, err
	}

	now := time.Now()
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		moved, err := u.payments.RefundIf(ctx, tx, p.ID, amount, reason, now)
		if err != nil {
			return err
		}
		if !moved {
			return domain.ErrInvalidState
		}
		p.Status = model.PaymentStatusRefunded
		p.RefundedAt = &now
		p.RefundAmount = amount
		p.UpdatedAt = now

		m, err := u.memberships.FindByID(ctx, tx, p.MembershipID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil // membership already purged; payment state is the record
			}
			return err
		}
		m.IsActive = false
		m.PaymentStatus = model.MembershipRefunded
		m.UpdatedAt = now
		return u.memberships.Save(ctx, tx, m)
	})
	if err != nil {
		return p, err
	}

	metrics.AddRefund(p.Currency, amount)
	metrics.IncMembershipEvent("refunded")
	u.log.Info().Str("payment_id", p.ID).Int64("amount", amount).Msg("payment refunded")
	return p, nil
}

func (u *paymentUC) Get(ctx context.Context, id string) (*model.Payment, error) {
	return u.payments.FindByID(ctx, nil, id)
}

func (u *paymentUC) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Payment, int, error) {
	return u.payments.ListByUser(ctx, nil, userID, offset, limit)
}

func (u *paymentUC) ListDetails(ctx context.Context, offset, limit int) ([]*model.PaymentDetail, int, error) {
	return u.payments.ListDetails(ctx, nil, offset, limit)
}
