package repository

import (
	"context"
	"time"

	"gym-membership-backend/internal/domain/model"
)

// AttendanceRepository is the port for the attendance ledger. Uniqueness of
// (user, date) is enforced by the storage layer.
type AttendanceRepository interface {
	Save(ctx context.Context, tx Tx, a *model.Attendance) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Attendance, error)
	FindByUserAndDate(ctx context.Context, tx Tx, userID string, date time.Time) (*model.Attendance, error)
	Delete(ctx context.Context, tx Tx, id string) error

	ListByUser(ctx context.Context, tx Tx, userID string, from, to *time.Time, offset, limit int) ([]*model.Attendance, int, error)
	ListByDate(ctx context.Context, tx Tx, date time.Time, offset, limit int) ([]*model.Attendance, int, error)
	// CountByDateStatus returns present/absent counts for one day.
	CountByDateStatus(ctx context.Context, tx Tx, date time.Time) (present int, absent int, err error)
	// ListRange returns all records in [from, to]; userID narrows to one
	// member when non-empty. Feeds the statistics projection.
	ListRange(ctx context.Context, tx Tx, from, to time.Time, userID string) ([]*model.Attendance, error)
}
