package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/ports/repository"
	"gym-membership-backend/internal/infra/metrics"
	"gym-membership-backend/internal/usecase"
)

// PaymentReconciler periodically scans for stale pending payments and tries
// to finalize them through the same verify-then-complete path the callback
// uses. This covers the member who paid but never came back from the
// gateway's page, and webhook deliveries that never arrived.
type PaymentReconciler struct {
	uc          usecase.PaymentUseCase
	payments    repository.PaymentRepository
	memberships repository.MembershipRepository
	interval    time.Duration // how often to scan
	staleAfter  time.Duration // how old a pending payment must be to retry
	log         *zerolog.Logger
}

func NewPaymentReconciler(uc usecase.PaymentUseCase, payments repository.PaymentRepository, memberships repository.MembershipRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &PaymentReconciler{uc: uc, payments: payments, memberships: memberships, interval: interval, staleAfter: staleAfter, log: logger}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.payments.ListPendingOlderThan(ctx, nil, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("payment-reconciler: list pending failed")
		return
	}
	for _, p := range pending {
		if p.GatewayToken == "" {
			// Initiate never reached the gateway; nothing to look up.
			continue
		}
		_, err := w.uc.ConfirmByToken(ctx, p.GatewayToken)
		switch {
		case err == nil:
			w.log.Info().Str("payment_id", p.ID).Msg("payment-reconciler: reconciled")
		case errors.Is(err, domain.ErrPaymentVerificationFailed):
			// Still unsettled at the gateway; retry next tick.
		default:
			w.log.Warn().Err(err).Str("payment_id", p.ID).Msg("payment-reconciler: confirm failed")
		}
	}

	// Piggyback a gauge sample on the scan.
	if n, err := w.memberships.CountActive(ctx, nil, time.Now()); err == nil {
		metrics.SetActiveMemberships(n)
	}
}
