package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/repository"
)

var _ repository.MembershipTypeRepository = (*membershipTypeRepo)(nil)

type membershipTypeRepo struct{ pool *pgxpool.Pool }

func NewMembershipTypeRepo(pool *pgxpool.Pool) *membershipTypeRepo {
	return &membershipTypeRepo{pool: pool}
}

const membershipTypeCols = `id, title, price_npr, duration_unit, duration_n, access_start, access_end, is_active, description, created_at, updated_at`

func (r *membershipTypeRepo) Save(ctx context.Context, tx repository.Tx, mt *model.MembershipType) error {
	const q = `
INSERT INTO membership_types (` + membershipTypeCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  title=$2, price_npr=$3, duration_unit=$4, duration_n=$5, access_start=$6,
  access_end=$7, is_active=$8, description=$9, updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q,
		mt.ID, mt.Title, mt.PriceNPR, mt.Duration.Unit, mt.Duration.N,
		mt.AccessStart, mt.AccessEnd, mt.IsActive, mt.Description,
		mt.CreatedAt, mt.UpdatedAt)
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

func scanMembershipType(row pgx.Row) (*model.MembershipType, error) {
	mt := &model.MembershipType{}
	if err := row.Scan(&mt.ID, &mt.Title, &mt.PriceNPR, &mt.Duration.Unit, &mt.Duration.N,
		&mt.AccessStart, &mt.AccessEnd, &mt.IsActive, &mt.Description,
		&mt.CreatedAt, &mt.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return mt, nil
}

func (r *membershipTypeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MembershipType, error) {
	const q = `SELECT ` + membershipTypeCols + ` FROM membership_types WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanMembershipType(row)
}

func (r *membershipTypeRepo) FindByTitle(ctx context.Context, tx repository.Tx, title model.MembershipTitle) (*model.MembershipType, error) {
	const q = `SELECT ` + membershipTypeCols + ` FROM membership_types WHERE title=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, title)
	if err != nil {
		return nil, err
	}
	return scanMembershipType(row)
}

func (r *membershipTypeRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.MembershipType, error) {
	const q = `SELECT ` + membershipTypeCols + ` FROM membership_types ORDER BY price_npr ASC;`
	return r.list(ctx, tx, q)
}

func (r *membershipTypeRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.MembershipType, error) {
	const q = `SELECT ` + membershipTypeCols + ` FROM membership_types WHERE is_active ORDER BY price_npr ASC;`
	return r.list(ctx, tx, q)
}

func (r *membershipTypeRepo) list(ctx context.Context, tx repository.Tx, q string) ([]*model.MembershipType, error) {
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.MembershipType
	for rows.Next() {
		mt, err := scanMembershipType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mt)
	}
	return out, rows.Err()
}

func (r *membershipTypeRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM membership_types WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		// A plan referenced by memberships cannot be removed.
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
