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

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentCols = `id, user_id, membership_id, amount, currency, method, status, transaction_id, gateway_token, gateway_txn_id, gateway_pay_url, description, initiated_at, completed_at, refunded_at, refund_amount, error_code, error_message, created_at, updated_at`

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (` + paymentCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
ON CONFLICT (id) DO UPDATE SET
  gateway_token=$9, gateway_txn_id=$10, gateway_pay_url=$11, description=$12,
  error_code=$17, error_message=$18, updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.MembershipID, p.Amount, p.Currency, p.Method, p.Status,
		p.TransactionID, p.GatewayToken, p.GatewayTxnID, p.GatewayPayURL, p.Description,
		p.InitiatedAt, p.CompletedAt, p.RefundedAt, p.RefundAmount,
		p.ErrorCode, p.ErrorMessage, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.UserID, &p.MembershipID, &p.Amount, &p.Currency,
		&p.Method, &p.Status, &p.TransactionID, &p.GatewayToken, &p.GatewayTxnID,
		&p.GatewayPayURL, &p.Description, &p.InitiatedAt, &p.CompletedAt,
		&p.RefundedAt, &p.RefundAmount, &p.ErrorCode, &p.ErrorMessage,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentCols + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByGatewayToken(ctx context.Context, tx repository.Tx, token string) (*model.Payment, error) {
	q := `SELECT ` + paymentCols + ` FROM payments WHERE gateway_token=$1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, token)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

// Conditional status transitions. The WHERE clause on the current status is
// the concurrency control: losers of a race update zero rows.

func (r *paymentRepo) CompleteIf(ctx context.Context, tx repository.Tx, id string, gatewayTxnID string, at time.Time) (bool, error) {
	const q = `
UPDATE payments SET status='completed', gateway_txn_id=COALESCE(NULLIF($2,''), gateway_txn_id),
  completed_at=$3, updated_at=NOW()
WHERE id=$1 AND status='pending';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, gatewayTxnID, at)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentRepo) FailIf(ctx context.Context, tx repository.Tx, id string, errCode, errMsg string) (bool, error) {
	const q = `
UPDATE payments SET status='failed', error_code=$2, error_message=$3, updated_at=NOW()
WHERE id=$1 AND status='pending';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, errCode, errMsg)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentRepo) MarkRefundingIf(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `UPDATE payments SET status='refunding', updated_at=NOW() WHERE id=$1 AND status='completed';`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentRepo) ReleaseRefunding(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE payments SET status='completed', updated_at=NOW() WHERE id=$1 AND status='refunding';`
	if _, err := execSQL(ctx, r.pool, tx, q, id); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) RefundIf(ctx context.Context, tx repository.Tx, id string, amount int64, reason string, at time.Time) (bool, error) {
	const q = `
UPDATE payments SET status='refunded', refund_amount=$2, error_message=$3,
  refunded_at=$4, updated_at=NOW()
WHERE id=$1 AND status='refunding';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, amount, reason, at)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Payment, int, error) {
	if limit <= 0 {
		limit = 10
	}
	q := `SELECT ` + paymentCols + ` FROM payments WHERE user_id=$1 ORDER BY created_at DESC OFFSET $2 LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, offset, limit)
	if err != nil {
		return nil, 0, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}

	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM payments WHERE user_id=$1;`, userID)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := row.Scan(&total); err != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}
	return out, total, nil
}

func (r *paymentRepo) ListDetails(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.PaymentDetail, int, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT p.id, p.user_id, p.membership_id, p.amount, p.currency, p.method, p.status,
       p.transaction_id, p.gateway_token, p.gateway_txn_id, p.gateway_pay_url,
       p.description, p.initiated_at, p.completed_at, p.refunded_at, p.refund_amount,
       p.error_code, p.error_message, p.created_at, p.updated_at,
       u.id, u.name, u.email
FROM payments p
JOIN users u ON u.id = p.user_id
ORDER BY p.created_at DESC OFFSET $1 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, offset, limit)
	if err != nil {
		return nil, 0, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PaymentDetail
	for rows.Next() {
		d := &model.PaymentDetail{User: &model.UserSummary{}}
		if err := rows.Scan(&d.ID, &d.UserID, &d.MembershipID, &d.Amount, &d.Currency,
			&d.Method, &d.Status, &d.TransactionID, &d.GatewayToken, &d.GatewayTxnID,
			&d.GatewayPayURL, &d.Description, &d.InitiatedAt, &d.CompletedAt,
			&d.RefundedAt, &d.RefundAmount, &d.ErrorCode, &d.ErrorMessage,
			&d.CreatedAt, &d.UpdatedAt,
			&d.User.ID, &d.User.Name, &d.User.Email); err != nil {
			return nil, 0, domain.ErrReadDatabaseRow
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}

	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM payments;`)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := row.Scan(&total); err != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}
	return out, total, nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + paymentCols + ` FROM payments WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
