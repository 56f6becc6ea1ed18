package model

import (
	"math"
	"time"

	"gym-membership-backend/internal/domain"
)

// MembershipPaymentStatus mirrors the payment lifecycle as seen from the
// membership side.
type MembershipPaymentStatus string

const (
	MembershipPending   MembershipPaymentStatus = "Pending"
	MembershipCompleted MembershipPaymentStatus = "Completed"
	MembershipUnpaid    MembershipPaymentStatus = "Unpaid"
	MembershipRefunded  MembershipPaymentStatus = "Refunded"
)

// Membership is a user's time-bounded entitlement to gym access, gated by
// payment status. At most one membership per user may be active and unexpired.
type Membership struct {
	ID            string
	UserID        string
	TypeID        string
	StartDate     time.Time
	EndDate       time.Time
	PaymentStatus MembershipPaymentStatus
	IsActive      bool
	PaymentID     *string // audit trail; set once a payment is linked
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewPendingMembership creates an inactive membership awaiting payment.
// The end date computed here is provisional; activation recomputes the
// window from the activation instant.
func NewPendingMembership(id, userID string, mt *MembershipType) (*Membership, error) {
	if id == "" || userID == "" || mt.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Membership{
		ID:            id,
		UserID:        userID,
		TypeID:        mt.ID,
		StartDate:     now,
		EndDate:       mt.Duration.EndFrom(now),
		PaymentStatus: MembershipPending,
		IsActive:      false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Activate flips the membership to paid-and-active and restarts the access
// window at now.
func (m *Membership) Activate(dur Duration, now time.Time) {
	m.StartDate = now
	m.EndDate = dur.EndFrom(now)
	m.PaymentStatus = MembershipCompleted
	m.IsActive = true
	m.UpdatedAt = now
}

// RecomputeExpiry forces the active flag off once the window has elapsed.
// Called opportunistically on reads and updates; there is no background sweep.
func (m *Membership) RecomputeExpiry(now time.Time) {
	if m.EndDate.Before(now) {
		m.IsActive = false
	}
}

// CurrentlyActive reports whether the membership grants access at now.
func (m *Membership) CurrentlyActive(now time.Time) bool {
	return m.IsActive && m.PaymentStatus == MembershipCompleted && !m.EndDate.Before(now)
}

// DaysRemaining returns the ceiling of the time left in whole days, never
// negative.
func (m *Membership) DaysRemaining(now time.Time) int {
	if m.EndDate.Before(now) {
		return 0
	}
	return int(math.Ceil(m.EndDate.Sub(now).Hours() / 24))
}
