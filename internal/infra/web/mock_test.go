//go:build !integration

package web_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/adapter"
	"gym-membership-backend/internal/domain/ports/repository"
)

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

//
// ---------------- in-memory infra mocks (repos/tx/gateway) ----------------
//

type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

type memTypeRepo struct {
	mu   sync.Mutex
	byID map[string]*model.MembershipType
}

func newMemTypeRepo() *memTypeRepo { return &memTypeRepo{byID: map[string]*model.MembershipType{}} }

func (m *memTypeRepo) Save(ctx context.Context, tx repository.Tx, mt *model.MembershipType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *mt
	m.byID[mt.ID] = &cp
	return nil
}

func (m *memTypeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MembershipType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mt, ok := m.byID[id]; ok {
		cp := *mt
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memTypeRepo) FindByTitle(ctx context.Context, tx repository.Tx, title model.MembershipTitle) (*model.MembershipType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mt := range m.byID {
		if mt.Title == title {
			cp := *mt
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memTypeRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.MembershipType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.MembershipType, 0, len(m.byID))
	for _, mt := range m.byID {
		cp := *mt
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memTypeRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.MembershipType, error) {
	all, _ := m.ListAll(ctx, tx)
	var out []*model.MembershipType
	for _, mt := range all {
		if mt.IsActive {
			out = append(out, mt)
		}
	}
	return out, nil
}

func (m *memTypeRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memMembershipRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Membership
}

func newMemMembershipRepo() *memMembershipRepo {
	return &memMembershipRepo{byID: map[string]*model.Membership{}}
}

func (m *memMembershipRepo) Save(ctx context.Context, tx repository.Tx, rec *model.Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	cp := *rec
	m.byID[rec.ID] = &cp
	return nil
}

func (m *memMembershipRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.byID[id]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memMembershipRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.byID {
		if rec.UserID == userID && rec.IsActive && !rec.EndDate.Before(now) {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memMembershipRepo) DeactivateExpired(ctx context.Context, tx repository.Tx, userID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.byID {
		if rec.UserID == userID && rec.IsActive && rec.EndDate.Before(now) {
			rec.IsActive = false
			rec.UpdatedAt = now
		}
	}
	return nil
}

func (m *memMembershipRepo) CountActive(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rec := range m.byID {
		if rec.IsActive && !rec.EndDate.Before(now) {
			n++
		}
	}
	return n, nil
}

func (m *memMembershipRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memMembershipRepo) FindDetailByID(ctx context.Context, tx repository.Tx, id string) (*model.MembershipDetail, error) {
	rec, err := m.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return &model.MembershipDetail{Membership: *rec}, nil
}

func (m *memMembershipRepo) ListDetailsByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.MembershipDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.MembershipDetail
	for _, rec := range m.byID {
		if rec.UserID == userID {
			out = append(out, &model.MembershipDetail{Membership: *rec})
		}
	}
	return out, nil
}

func (m *memMembershipRepo) ListDetails(ctx context.Context, tx repository.Tx, onlyActive bool, offset, limit int) ([]*model.MembershipDetail, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.MembershipDetail
	for _, rec := range m.byID {
		if onlyActive && !rec.IsActive {
			continue
		}
		out = append(out, &model.MembershipDetail{Membership: *rec})
	}
	return out, len(out), nil
}

type memPaymentRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.Payment
	byToken map[string]string
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{byID: map[string]*model.Payment{}, byToken: map[string]string{}}
}

func (m *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.byID[p.ID] = &cp
	if p.GatewayToken != "" {
		m.byToken[p.GatewayToken] = p.ID
	}
	return nil
}

func (m *memPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymentRepo) FindByGatewayToken(ctx context.Context, tx repository.Tx, token string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byToken[token]; ok {
		cp := *m.byID[id]
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymentRepo) CompleteIf(ctx context.Context, tx repository.Tx, id string, gatewayTxnID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusCompleted
	p.CompletedAt = &at
	if gatewayTxnID != "" {
		p.GatewayTxnID = gatewayTxnID
	}
	return true, nil
}

func (m *memPaymentRepo) FailIf(ctx context.Context, tx repository.Tx, id string, errCode, errMsg string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusFailed
	p.ErrorCode = errCode
	p.ErrorMessage = errMsg
	return true, nil
}

func (m *memPaymentRepo) MarkRefundingIf(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusCompleted {
		return false, nil
	}
	p.Status = model.PaymentStatusRefunding
	return true, nil
}

func (m *memPaymentRepo) ReleaseRefunding(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byID[id]; ok && p.Status == model.PaymentStatusRefunding {
		p.Status = model.PaymentStatusCompleted
	}
	return nil
}

func (m *memPaymentRepo) RefundIf(ctx context.Context, tx repository.Tx, id string, amount int64, reason string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusRefunding {
		return false, nil
	}
	p.Status = model.PaymentStatusRefunded
	p.RefundAmount = amount
	p.RefundedAt = &at
	return true, nil
}

func (m *memPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Payment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.byID {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *memPaymentRepo) ListDetails(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.PaymentDetail, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PaymentDetail
	for _, p := range m.byID {
		out = append(out, &model.PaymentDetail{Payment: *p})
	}
	return out, len(out), nil
}

func (m *memPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	return nil, nil
}

type memAttendanceRepo struct {
	mu    sync.Mutex
	byID  map[string]*model.Attendance
	byDay map[string]string
}

func newMemAttendanceRepo() *memAttendanceRepo {
	return &memAttendanceRepo{byID: map[string]*model.Attendance{}, byDay: map[string]string{}}
}

func attDayKey(userID string, d time.Time) string { return userID + "|" + d.Format("2006-01-02") }

func (m *memAttendanceRepo) Save(ctx context.Context, tx repository.Tx, a *model.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := attDayKey(a.UserID, a.Date)
	if id, ok := m.byDay[key]; ok && id != a.ID {
		return domain.ErrConflict
	}
	cp := *a
	m.byID[a.ID] = &cp
	m.byDay[key] = a.ID
	return nil
}

func (m *memAttendanceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memAttendanceRepo) FindByUserAndDate(ctx context.Context, tx repository.Tx, userID string, date time.Time) (*model.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byDay[attDayKey(userID, date)]; ok {
		cp := *m.byID[id]
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memAttendanceRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(m.byDay, attDayKey(a.UserID, a.Date))
	delete(m.byID, id)
	return nil
}

func (m *memAttendanceRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, from, to *time.Time, offset, limit int) ([]*model.Attendance, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Attendance
	for _, a := range m.byID {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *memAttendanceRepo) ListByDate(ctx context.Context, tx repository.Tx, date time.Time, offset, limit int) ([]*model.Attendance, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Attendance
	for _, a := range m.byID {
		if a.Date.Equal(date) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *memAttendanceRepo) CountByDateStatus(ctx context.Context, tx repository.Tx, date time.Time) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	present, absent := 0, 0
	for _, a := range m.byID {
		if !a.Date.Equal(date) {
			continue
		}
		if a.Status == model.AttendancePresent {
			present++
		} else if a.Status == model.AttendanceAbsent {
			absent++
		}
	}
	return present, absent, nil
}

func (m *memAttendanceRepo) ListRange(ctx context.Context, tx repository.Tx, from, to time.Time, userID string) ([]*model.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Attendance
	for _, a := range m.byID {
		if userID != "" && a.UserID != userID {
			continue
		}
		if a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

type memUserRepo struct {
	mu   sync.Mutex
	byID map[string]*model.User
}

func newMemUserRepo() *memUserRepo { return &memUserRepo{byID: map[string]*model.User{}} }

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

type stubGateway struct {
	verifyStatus string
	refundErr    error
}

var _ adapter.PaymentGateway = (*stubGateway)(nil)

func (g *stubGateway) Name() string { return "stub" }

func (g *stubGateway) Initiate(ctx context.Context, req adapter.InitiateRequest) (*adapter.InitiateResult, error) {
	return &adapter.InitiateResult{
		PaymentURL: "https://pay.example.test/" + req.TransactionID,
		Token:      "tok-" + req.TransactionID,
	}, nil
}

func (g *stubGateway) Verify(ctx context.Context, token string) (*adapter.VerifyResult, error) {
	status := g.verifyStatus
	if status == "" {
		status = adapter.StatusCompleted
	}
	return &adapter.VerifyResult{Status: status, GatewayTxnID: "gw-" + token}, nil
}

func (g *stubGateway) Refund(ctx context.Context, gatewayTxnID string, amount int64) error {
	return g.refundErr
}
