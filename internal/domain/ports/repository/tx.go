package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle threaded through repository calls.
// The concrete type is infra-defined (pgx.Tx for Postgres). Repositories
// MUST gracefully accept a nil handle and fall back to the pool.
type Tx interface{}

// TransactionManager executes a function within a database transaction,
// passing the transaction handle via tx. Keeping the handle opaque keeps
// use-case interfaces free of storage types while still letting repository
// implementations detect a tx and use SELECT ... FOR UPDATE.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
