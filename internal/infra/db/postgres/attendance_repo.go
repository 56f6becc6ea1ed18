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

var _ repository.AttendanceRepository = (*attendanceRepo)(nil)

type attendanceRepo struct{ pool *pgxpool.Pool }

func NewAttendanceRepo(pool *pgxpool.Pool) *attendanceRepo {
	return &attendanceRepo{pool: pool}
}

const attendanceCols = `id, user_id, date, check_in_time, check_out_time, status, method, device_id, notes, created_at, updated_at`

func (r *attendanceRepo) Save(ctx context.Context, tx repository.Tx, a *model.Attendance) error {
	const q = `
INSERT INTO attendance (` + attendanceCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  check_in_time=$4, check_out_time=$5, status=$6, method=$7, device_id=$8,
  notes=$9, updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q,
		a.ID, a.UserID, a.Date, a.CheckInTime, a.CheckOutTime,
		a.Status, a.Method, a.DeviceID, a.Notes, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// (user, date) uniqueness: the day's record already exists
			return domain.ErrConflict
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func scanAttendance(row pgx.Row) (*model.Attendance, error) {
	a := &model.Attendance{}
	if err := row.Scan(&a.ID, &a.UserID, &a.Date, &a.CheckInTime, &a.CheckOutTime,
		&a.Status, &a.Method, &a.DeviceID, &a.Notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return a, nil
}

func (r *attendanceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Attendance, error) {
	const q = `SELECT ` + attendanceCols + ` FROM attendance WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanAttendance(row)
}

func (r *attendanceRepo) FindByUserAndDate(ctx context.Context, tx repository.Tx, userID string, date time.Time) (*model.Attendance, error) {
	q := `SELECT ` + attendanceCols + ` FROM attendance WHERE user_id=$1 AND date=$2`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, userID, date)
	if err != nil {
		return nil, err
	}
	return scanAttendance(row)
}

func (r *attendanceRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM attendance WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *attendanceRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, from, to *time.Time, offset, limit int) ([]*model.Attendance, int, error) {
	if limit <= 0 {
		limit = 30
	}
	var (
		q        string
		countQ   string
		listArgs []interface{}
		args     []interface{}
	)
	if from != nil && to != nil {
		q = `SELECT ` + attendanceCols + ` FROM attendance WHERE user_id=$1 AND date BETWEEN $2 AND $3 ORDER BY date DESC OFFSET $4 LIMIT $5;`
		countQ = `SELECT COUNT(*) FROM attendance WHERE user_id=$1 AND date BETWEEN $2 AND $3`
		args = []interface{}{userID, *from, *to}
		listArgs = []interface{}{userID, *from, *to, offset, limit}
	} else {
		q = `SELECT ` + attendanceCols + ` FROM attendance WHERE user_id=$1 ORDER BY date DESC OFFSET $2 LIMIT $3;`
		countQ = `SELECT COUNT(*) FROM attendance WHERE user_id=$1`
		args = []interface{}{userID}
		listArgs = []interface{}{userID, offset, limit}
	}

	rows, err := queryRows(ctx, r.pool, tx, q, listArgs...)
	if err != nil {
		return nil, 0, domain.ErrOperationFailed
	}
	defer rows.Close()
	out, err := collectAttendance(rows)
	if err != nil {
		return nil, 0, err
	}

	row, err := pickRow(ctx, r.pool, tx, countQ+`;`, args...)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := row.Scan(&total); err != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}
	return out, total, nil
}

func (r *attendanceRepo) ListByDate(ctx context.Context, tx repository.Tx, date time.Time, offset, limit int) ([]*model.Attendance, int, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + attendanceCols + ` FROM attendance WHERE date=$1 ORDER BY check_in_time DESC NULLS LAST OFFSET $2 LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, date, offset, limit)
	if err != nil {
		return nil, 0, domain.ErrOperationFailed
	}
	defer rows.Close()
	out, err := collectAttendance(rows)
	if err != nil {
		return nil, 0, err
	}

	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM attendance WHERE date=$1;`, date)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := row.Scan(&total); err != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}
	return out, total, nil
}

func (r *attendanceRepo) CountByDateStatus(ctx context.Context, tx repository.Tx, date time.Time) (int, int, error) {
	const q = `
SELECT COUNT(*) FILTER (WHERE status='present'),
       COUNT(*) FILTER (WHERE status='absent')
FROM attendance WHERE date=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, date)
	if err != nil {
		return 0, 0, err
	}
	var present, absent int
	if err := row.Scan(&present, &absent); err != nil {
		return 0, 0, domain.ErrReadDatabaseRow
	}
	return present, absent, nil
}

func (r *attendanceRepo) ListRange(ctx context.Context, tx repository.Tx, from, to time.Time, userID string) ([]*model.Attendance, error) {
	q := `SELECT ` + attendanceCols + ` FROM attendance WHERE date BETWEEN $1 AND $2`
	args := []interface{}{from, to}
	if userID != "" {
		q += ` AND user_id=$3`
		args = append(args, userID)
	}
	q += ` ORDER BY date ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectAttendance(rows)
}

func collectAttendance(rows pgx.Rows) ([]*model.Attendance, error) {
	var out []*model.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
