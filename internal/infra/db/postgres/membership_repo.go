package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/repository"
)

var _ repository.MembershipRepository = (*membershipRepo)(nil)

type membershipRepo struct{ pool *pgxpool.Pool }

func NewMembershipRepo(pool *pgxpool.Pool) *membershipRepo {
	return &membershipRepo{pool: pool}
}

const membershipCols = `id, user_id, type_id, start_date, end_date, payment_status, is_active, payment_id, created_at, updated_at`

func (r *membershipRepo) Save(ctx context.Context, tx repository.Tx, m *model.Membership) error {
	const q = `
INSERT INTO memberships (` + membershipCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  type_id=$3, start_date=$4, end_date=$5, payment_status=$6, is_active=$7,
  payment_id=$8, updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q,
		m.ID, m.UserID, m.TypeID, m.StartDate, m.EndDate,
		m.PaymentStatus, m.IsActive, m.PaymentID, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// partial unique index: one active membership per user
			return domain.ErrConflict
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func scanMembership(row pgx.Row) (*model.Membership, error) {
	m := &model.Membership{}
	if err := row.Scan(&m.ID, &m.UserID, &m.TypeID, &m.StartDate, &m.EndDate,
		&m.PaymentStatus, &m.IsActive, &m.PaymentID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return m, nil
}

func (r *membershipRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Membership, error) {
	q := `SELECT ` + membershipCols + ` FROM memberships WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanMembership(row)
}

func (r *membershipRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.Membership, error) {
	q := `SELECT ` + membershipCols + ` FROM memberships WHERE user_id=$1 AND is_active AND end_date >= $2 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, userID, now)
	if err != nil {
		return nil, err
	}
	return scanMembership(row)
}

func (r *membershipRepo) DeactivateExpired(ctx context.Context, tx repository.Tx, userID string, now time.Time) error {
	const q = `UPDATE memberships SET is_active=FALSE, updated_at=NOW()
		WHERE user_id=$1 AND is_active AND end_date < $2;`
	if _, err := execSQL(ctx, r.pool, tx, q, userID, now); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *membershipRepo) CountActive(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM memberships WHERE is_active AND end_date >= $1;`
	row, err := pickRow(ctx, r.pool, tx, q, now)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *membershipRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM memberships WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		// Payment rows keep their membership reference even after the
		// linked-payment guard upstream, e.g. failed attempts.
		if isForeignKeyViolation(err) {
			return domain.ErrConflict
		}
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Joined projection queries. References are resolved with explicit joins
// rather than follow-up lookups.

const membershipDetailQuery = `
SELECT m.id, m.user_id, m.type_id, m.start_date, m.end_date, m.payment_status,
       m.is_active, m.payment_id, m.created_at, m.updated_at,
       u.id, u.name, u.email,
       t.id, t.title, t.price_npr, t.duration_unit, t.duration_n,
       p.id, p.amount, p.method, p.status
FROM memberships m
JOIN users u ON u.id = m.user_id
JOIN membership_types t ON t.id = m.type_id
LEFT JOIN payments p ON p.id = m.payment_id
`

func scanMembershipDetail(row pgx.Row) (*model.MembershipDetail, error) {
	d := &model.MembershipDetail{User: &model.UserSummary{}, Type: &model.TypeSummary{}}
	var (
		payID     *string
		payAmount *int64
		payMethod *model.PaymentMethod
		payStatus *model.PaymentStatus
	)
	if err := row.Scan(&d.ID, &d.UserID, &d.TypeID, &d.StartDate, &d.EndDate,
		&d.PaymentStatus, &d.IsActive, &d.PaymentID, &d.CreatedAt, &d.UpdatedAt,
		&d.User.ID, &d.User.Name, &d.User.Email,
		&d.Type.ID, &d.Type.Title, &d.Type.PriceNPR, &d.Type.Duration.Unit, &d.Type.Duration.N,
		&payID, &payAmount, &payMethod, &payStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if payID != nil {
		d.Payment = &model.PaymentSummary{ID: *payID, Amount: *payAmount, Method: *payMethod, Status: *payStatus}
	}
	return d, nil
}

func (r *membershipRepo) FindDetailByID(ctx context.Context, tx repository.Tx, id string) (*model.MembershipDetail, error) {
	row, err := pickRow(ctx, r.pool, tx, membershipDetailQuery+`WHERE m.id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanMembershipDetail(row)
}

func (r *membershipRepo) ListDetailsByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.MembershipDetail, error) {
	rows, err := queryRows(ctx, r.pool, tx, membershipDetailQuery+`WHERE m.user_id=$1 ORDER BY m.created_at DESC;`, userID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectMembershipDetails(rows)
}

func (r *membershipRepo) ListDetails(ctx context.Context, tx repository.Tx, onlyActive bool, offset, limit int) ([]*model.MembershipDetail, int, error) {
	if limit <= 0 {
		limit = 50
	}
	where := ""
	if onlyActive {
		where = "WHERE m.is_active "
	}
	rows, err := queryRows(ctx, r.pool, tx,
		membershipDetailQuery+where+`ORDER BY m.created_at DESC OFFSET $1 LIMIT $2;`, offset, limit)
	if err != nil {
		return nil, 0, domain.ErrOperationFailed
	}
	defer rows.Close()

	out, err := collectMembershipDetails(rows)
	if err != nil {
		return nil, 0, err
	}

	countQ := `SELECT COUNT(*) FROM memberships`
	if onlyActive {
		countQ += ` WHERE is_active`
	}
	row, err := pickRow(ctx, r.pool, tx, countQ+`;`)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := row.Scan(&total); err != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}
	return out, total, nil
}

func collectMembershipDetails(rows pgx.Rows) ([]*model.MembershipDetail, error) {
	var out []*model.MembershipDetail
	for rows.Next() {
		d, err := scanMembershipDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
