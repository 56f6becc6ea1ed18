//go:build !integration

package usecase_test

import (
	"context"
	"io"
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

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func dayKey(userID string, date time.Time) string {
	return userID + "|" + date.Format("2006-01-02")
}

// =============================
// Repositories
// =============================

// ---- Mock MembershipTypeRepo ----

type MockMembershipTypeRepo struct {
	mu   sync.Mutex
	data map[string]*model.MembershipType // by id

	SaveFunc     func(ctx context.Context, tx repository.Tx, mt *model.MembershipType) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.MembershipType, error)
}

var _ repository.MembershipTypeRepository = (*MockMembershipTypeRepo)(nil)

func NewMockMembershipTypeRepo() *MockMembershipTypeRepo {
	return &MockMembershipTypeRepo{data: map[string]*model.MembershipType{}}
}

func (r *MockMembershipTypeRepo) Save(ctx context.Context, tx repository.Tx, mt *model.MembershipType) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, mt)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if mt.ID == "" {
		mt.ID = uuid.NewString()
	}
	cp := *mt
	r.data[mt.ID] = &cp
	return nil
}

func (r *MockMembershipTypeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MembershipType, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if mt, ok := r.data[id]; ok {
		cp := *mt
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockMembershipTypeRepo) FindByTitle(ctx context.Context, tx repository.Tx, title model.MembershipTitle) (*model.MembershipType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mt := range r.data {
		if mt.Title == title {
			cp := *mt
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockMembershipTypeRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.MembershipType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.MembershipType, 0, len(r.data))
	for _, mt := range r.data {
		cp := *mt
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MockMembershipTypeRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.MembershipType, error) {
	all, _ := r.ListAll(ctx, tx)
	out := all[:0]
	for _, mt := range all {
		if mt.IsActive {
			out = append(out, mt)
		}
	}
	return out, nil
}

func (r *MockMembershipTypeRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// ---- Mock MembershipRepo ----

type MockMembershipRepo struct {
	mu   sync.Mutex
	data map[string]*model.Membership // by id

	SaveFunc             func(ctx context.Context, tx repository.Tx, m *model.Membership) error
	FindActiveByUserFunc func(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.Membership, error)
	FindDetailByIDFunc   func(ctx context.Context, tx repository.Tx, id string) (*model.MembershipDetail, error)
}

var _ repository.MembershipRepository = (*MockMembershipRepo)(nil)

func NewMockMembershipRepo() *MockMembershipRepo {
	return &MockMembershipRepo{data: map[string]*model.Membership{}}
}

func (r *MockMembershipRepo) Save(ctx context.Context, tx repository.Tx, m *model.Membership) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, m)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	cp := *m
	r.data[m.ID] = &cp
	return nil
}

func (r *MockMembershipRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.data[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockMembershipRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.Membership, error) {
	if r.FindActiveByUserFunc != nil {
		return r.FindActiveByUserFunc(ctx, tx, userID, now)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.data {
		if m.UserID == userID && m.IsActive && !m.EndDate.Before(now) {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockMembershipRepo) DeactivateExpired(ctx context.Context, tx repository.Tx, userID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.data {
		if m.UserID == userID && m.IsActive && m.EndDate.Before(now) {
			m.IsActive = false
			m.UpdatedAt = now
		}
	}
	return nil
}

func (r *MockMembershipRepo) CountActive(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.data {
		if m.IsActive && !m.EndDate.Before(now) {
			n++
		}
	}
	return n, nil
}

func (r *MockMembershipRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *MockMembershipRepo) FindDetailByID(ctx context.Context, tx repository.Tx, id string) (*model.MembershipDetail, error) {
	if r.FindDetailByIDFunc != nil {
		return r.FindDetailByIDFunc(ctx, tx, id)
	}
	m, err := r.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return &model.MembershipDetail{Membership: *m}, nil
}

func (r *MockMembershipRepo) ListDetailsByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.MembershipDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.MembershipDetail
	for _, m := range r.data {
		if m.UserID == userID {
			out = append(out, &model.MembershipDetail{Membership: *m})
		}
	}
	return out, nil
}

func (r *MockMembershipRepo) ListDetails(ctx context.Context, tx repository.Tx, onlyActive bool, offset, limit int) ([]*model.MembershipDetail, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.MembershipDetail
	for _, m := range r.data {
		if onlyActive && !m.IsActive {
			continue
		}
		out = append(out, &model.MembershipDetail{Membership: *m})
	}
	return out, len(out), nil
}

// ---- Mock PaymentRepo ----

type MockPaymentRepo struct {
	mu      sync.Mutex
	data    map[string]*model.Payment // by id
	byToken map[string]string         // gateway token -> id

	SaveFunc       func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	CompleteIfFunc func(ctx context.Context, tx repository.Tx, id string, gatewayTxnID string, at time.Time) (bool, error)
	RefundIfFunc   func(ctx context.Context, tx repository.Tx, id string, amount int64, reason string, at time.Time) (bool, error)
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{data: map[string]*model.Payment{}, byToken: map[string]string{}}
}

func (r *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	r.data[p.ID] = &cp
	if p.GatewayToken != "" {
		r.byToken[p.GatewayToken] = p.ID
	}
	return nil
}

func (r *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRepo) FindByGatewayToken(ctx context.Context, tx repository.Tx, token string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byToken[token]; ok {
		cp := *r.data[id]
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRepo) CompleteIf(ctx context.Context, tx repository.Tx, id string, gatewayTxnID string, at time.Time) (bool, error) {
	if r.CompleteIfFunc != nil {
		return r.CompleteIfFunc(ctx, tx, id, gatewayTxnID, at)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
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
	p.UpdatedAt = at
	return true, nil
}

func (r *MockPaymentRepo) FailIf(ctx context.Context, tx repository.Tx, id string, errCode, errMsg string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
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

func (r *MockPaymentRepo) MarkRefundingIf(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusCompleted {
		return false, nil
	}
	p.Status = model.PaymentStatusRefunding
	return true, nil
}

func (r *MockPaymentRepo) ReleaseRefunding(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok && p.Status == model.PaymentStatusRefunding {
		p.Status = model.PaymentStatusCompleted
	}
	return nil
}

func (r *MockPaymentRepo) RefundIf(ctx context.Context, tx repository.Tx, id string, amount int64, reason string, at time.Time) (bool, error) {
	if r.RefundIfFunc != nil {
		return r.RefundIfFunc(ctx, tx, id, amount, reason, at)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
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

func (r *MockPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Payment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.data {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (r *MockPaymentRepo) ListDetails(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.PaymentDetail, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PaymentDetail
	for _, p := range r.data {
		out = append(out, &model.PaymentDetail{Payment: *p})
	}
	return out, len(out), nil
}

func (r *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.data {
		if p.Status == model.PaymentStatusPending && p.InitiatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Mock AttendanceRepo ----

type MockAttendanceRepo struct {
	mu    sync.Mutex
	data  map[string]*model.Attendance // by id
	byDay map[string]string            // userID|day -> id

	SaveFunc func(ctx context.Context, tx repository.Tx, a *model.Attendance) error
}

var _ repository.AttendanceRepository = (*MockAttendanceRepo)(nil)

func NewMockAttendanceRepo() *MockAttendanceRepo {
	return &MockAttendanceRepo{data: map[string]*model.Attendance{}, byDay: map[string]string{}}
}

func (r *MockAttendanceRepo) Save(ctx context.Context, tx repository.Tx, a *model.Attendance) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, a)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := dayKey(a.UserID, a.Date)
	if existing, ok := r.byDay[key]; ok && existing != a.ID {
		return domain.ErrConflict
	}
	cp := *a
	r.data[a.ID] = &cp
	r.byDay[key] = a.ID
	return nil
}

func (r *MockAttendanceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.data[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockAttendanceRepo) FindByUserAndDate(ctx context.Context, tx repository.Tx, userID string, date time.Time) (*model.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byDay[dayKey(userID, date)]; ok {
		cp := *r.data[id]
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockAttendanceRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.byDay, dayKey(a.UserID, a.Date))
	delete(r.data, id)
	return nil
}

func (r *MockAttendanceRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, from, to *time.Time, offset, limit int) ([]*model.Attendance, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Attendance
	for _, a := range r.data {
		if a.UserID != userID {
			continue
		}
		if from != nil && a.Date.Before(*from) {
			continue
		}
		if to != nil && a.Date.After(*to) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *MockAttendanceRepo) ListByDate(ctx context.Context, tx repository.Tx, date time.Time, offset, limit int) ([]*model.Attendance, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Attendance
	for _, a := range r.data {
		if a.Date.Equal(date) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (r *MockAttendanceRepo) CountByDateStatus(ctx context.Context, tx repository.Tx, date time.Time) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	present, absent := 0, 0
	for _, a := range r.data {
		if !a.Date.Equal(date) {
			continue
		}
		switch a.Status {
		case model.AttendancePresent:
			present++
		case model.AttendanceAbsent:
			absent++
		}
	}
	return present, absent, nil
}

func (r *MockAttendanceRepo) ListRange(ctx context.Context, tx repository.Tx, from, to time.Time, userID string) ([]*model.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Attendance
	for _, a := range r.data {
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

// ---- Mock UserRepo ----

type MockUserRepo struct {
	mu   sync.Mutex
	data map[string]*model.User
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{data: map[string]*model.User{}}
}

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.data[u.ID] = &cp
	return nil
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.data[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockPaymentGateway struct {
	mu    sync.Mutex
	Calls struct {
		Initiate int
		Verify   []string
		Refund   []int64
	}

	InitiateFunc func(ctx context.Context, req adapter.InitiateRequest) (*adapter.InitiateResult, error)
	VerifyFunc   func(ctx context.Context, token string) (*adapter.VerifyResult, error)
	RefundFunc   func(ctx context.Context, gatewayTxnID string, amount int64) error
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (g *MockPaymentGateway) Name() string { return "mock" }

func (g *MockPaymentGateway) Initiate(ctx context.Context, req adapter.InitiateRequest) (*adapter.InitiateResult, error) {
	g.mu.Lock()
	g.Calls.Initiate++
	g.mu.Unlock()
	if g.InitiateFunc != nil {
		return g.InitiateFunc(ctx, req)
	}
	return &adapter.InitiateResult{
		PaymentURL: "https://pay.example.test/" + req.TransactionID,
		Token:      "tok-" + req.TransactionID,
	}, nil
}

func (g *MockPaymentGateway) Verify(ctx context.Context, token string) (*adapter.VerifyResult, error) {
	g.mu.Lock()
	g.Calls.Verify = append(g.Calls.Verify, token)
	g.mu.Unlock()
	if g.VerifyFunc != nil {
		return g.VerifyFunc(ctx, token)
	}
	return &adapter.VerifyResult{Status: adapter.StatusCompleted, GatewayTxnID: "gw-" + token}, nil
}

func (g *MockPaymentGateway) Refund(ctx context.Context, gatewayTxnID string, amount int64) error {
	g.mu.Lock()
	g.Calls.Refund = append(g.Calls.Refund, amount)
	g.mu.Unlock()
	if g.RefundFunc != nil {
		return g.RefundFunc(ctx, gatewayTxnID, amount)
	}
	return nil
}

// =============================
// Transaction manager
// =============================

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTx runs the function immediately without a real transaction. Assign
// WithTxFunc to exercise transactional behavior explicitly.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}
