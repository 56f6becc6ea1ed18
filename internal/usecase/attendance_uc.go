package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/repository"
	"gym-membership-backend/internal/infra/metrics"
)

// Compile-time check
var _ AttendanceUseCase = (*attendanceUC)(nil)

// DayRoster is one day's sheet plus its headline counts.
type DayRoster struct {
	Date    time.Time
	Records []*model.Attendance
	Total   int
	Present int
	Absent  int
}

// AttendanceStats aggregates one member's (or the whole gym's) visits over a
// date range.
type AttendanceStats struct {
	From              time.Time
	To                time.Time
	TotalRecords      int
	PresentDays       int
	AbsentDays        int
	AttendanceRate    float64 // present / total, 0 when no records
	AvgSessionMinutes int     // over records with both timestamps
}

// BulkMarkItem is one row of a batch attendance sheet.
type BulkMarkItem struct {
	UserID string
	Status model.AttendanceStatus
	Notes  string
}

// BulkMarkResult reports the per-row outcome of a batch.
type BulkMarkResult struct {
	Marked int
	Errors map[string]string // userID -> reason
}

type AttendanceUseCase interface {
	// CheckIn records the user's arrival for at's calendar day. A second
	// check-in on the same day is ErrConflict.
	CheckIn(ctx context.Context, userID string, at time.Time, method model.VerificationMethod, deviceID, notes string) (*model.Attendance, error)
	// CheckOut closes the day's open record; without a prior check-in it is
	// ErrInvalidState.
	CheckOut(ctx context.Context, userID string, at time.Time) (*model.Attendance, error)
	// MarkAbsent records (or overwrites to) an absence. Idempotent.
	MarkAbsent(ctx context.Context, userID string, date time.Time, notes string) (*model.Attendance, error)
	// BulkMark applies a whole day's sheet row by row; failures are
	// collected, not fatal.
	BulkMark(ctx context.Context, date time.Time, items []BulkMarkItem) (*BulkMarkResult, error)

	ListByUser(ctx context.Context, userID string, from, to *time.Time, offset, limit int) ([]*model.Attendance, int, error)
	Roster(ctx context.Context, date time.Time, offset, limit int) (*DayRoster, error)
	Stats(ctx context.Context, from, to time.Time, userID string) (*AttendanceStats, error)
	Delete(ctx context.Context, id string) error
}

type attendanceUC struct {
	attendance repository.AttendanceRepository
	users      repository.UserRepository
	log        *zerolog.Logger
}

func NewAttendanceUseCase(attendance repository.AttendanceRepository, users repository.UserRepository, logger *zerolog.Logger) *attendanceUC {
	return &attendanceUC{attendance: attendance, users: users, log: logger}
}

func (u *attendanceUC) CheckIn(ctx context.Context, userID string, at time.Time, method model.VerificationMethod, deviceID, notes string) (*model.Attendance, error) {
	if _, err := u.users.FindByID(ctx, nil, userID); err != nil {
		return nil, err
	}
	day := model.DayOf(at)

	a, err := u.attendance.FindByUserAndDate(ctx, nil, userID, day)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a = &model.Attendance{
			ID:        uuid.NewString(),
			UserID:    userID,
			Date:      day,
			CreatedAt: at,
			UpdatedAt: at,
		}
	case err != nil:
		return nil, err
	}

	if err := a.ApplyCheckIn(at, method, deviceID, notes); err != nil {
		return nil, err
	}
	if err := u.attendance.Save(ctx, nil, a); err != nil {
		return nil, err
	}
	metrics.IncAttendanceEvent("check_in", string(method))
	u.log.Info().Str("user_id", userID).Time("date", day).Msg("checked in")
	return a, nil
}

func (u *attendanceUC) CheckOut(ctx context.Context, userID string, at time.Time) (*model.Attendance, error) {
	a, err := u.attendance.FindByUserAndDate(ctx, nil, userID, model.DayOf(at))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidState
	}
	if err != nil {
		return nil, err
	}
	if err := a.ApplyCheckOut(at); err != nil {
		return nil, err
	}
	if err := u.attendance.Save(ctx, nil, a); err != nil {
		return nil, err
	}
	metrics.IncAttendanceEvent("check_out", string(a.Method))
	return a, nil
}

func (u *attendanceUC) MarkAbsent(ctx context.Context, userID string, date time.Time, notes string) (*model.Attendance, error) {
	if _, err := u.users.FindByID(ctx, nil, userID); err != nil {
		return nil, err
	}
	day := model.DayOf(date)
	now := time.Now()

	a, err := u.attendance.FindByUserAndDate(ctx, nil, userID, day)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a = &model.Attendance{
			ID:        uuid.NewString(),
			UserID:    userID,
			Date:      day,
			CreatedAt: now,
		}
	case err != nil:
		return nil, err
	}

	a.Status = model.AttendanceAbsent
	a.Method = model.VerifyManual
	a.CheckInTime = nil
	a.CheckOutTime = nil
	if notes != "" {
		a.Notes = notes
	}
	a.UpdatedAt = now

	if err := u.attendance.Save(ctx, nil, a); err != nil {
		return nil, err
	}
	metrics.IncAttendanceEvent("absent", string(model.VerifyManual))
	return a, nil
}

func (u *attendanceUC) BulkMark(ctx context.Context, date time.Time, items []BulkMarkItem) (*BulkMarkResult, error) {
	res := &BulkMarkResult{Errors: map[string]string{}}
	for _, it := range items {
		var err error
		switch it.Status {
		case model.AttendancePresent:
			_, err = u.CheckIn(ctx, it.UserID, date, model.VerifyManual, "", it.Notes)
		case model.AttendanceAbsent:
			_, err = u.MarkAbsent(ctx, it.UserID, date, it.Notes)
		default:
			err = domain.ErrInvalidArgument
		}
		if err != nil {
			res.Errors[it.UserID] = err.Error()
			continue
		}
		res.Marked++
	}
	return res, nil
}

func (u *attendanceUC) ListByUser(ctx context.Context, userID string, from, to *time.Time, offset, limit int) ([]*model.Attendance, int, error) {
	return u.attendance.ListByUser(ctx, nil, userID, from, to, offset, limit)
}

func (u *attendanceUC) Roster(ctx context.Context, date time.Time, offset, limit int) (*DayRoster, error) {
	day := model.DayOf(date)
	records, total, err := u.attendance.ListByDate(ctx, nil, day, offset, limit)
	if err != nil {
		return nil, err
	}
	present, absent, err := u.attendance.CountByDateStatus(ctx, nil, day)
	if err != nil {
		return nil, err
	}
	return &DayRoster{Date: day, Records: records, Total: total, Present: present, Absent: absent}, nil
}

func (u *attendanceUC) Stats(ctx context.Context, from, to time.Time, userID string) (*AttendanceStats, error) {
	if to.Before(from) {
		return nil, domain.ErrInvalidArgument
	}
	records, err := u.attendance.ListRange(ctx, nil, model.DayOf(from), model.DayOf(to), userID)
	if err != nil {
		return nil, err
	}

	st := &AttendanceStats{From: model.DayOf(from), To: model.DayOf(to), TotalRecords: len(records)}
	sessions, sessionMinutes := 0, 0
	for _, a := range records {
		switch a.Status {
		case model.AttendancePresent:
			st.PresentDays++
		case model.AttendanceAbsent:
			st.AbsentDays++
		}
		if min := a.SessionMinutes(); min > 0 {
			sessions++
			sessionMinutes += min
		}
	}
	if st.TotalRecords > 0 {
		st.AttendanceRate = float64(st.PresentDays) / float64(st.TotalRecords)
	}
	if sessions > 0 {
		st.AvgSessionMinutes = sessionMinutes / sessions
	}
	return st, nil
}

func (u *attendanceUC) Delete(ctx context.Context, id string) error {
	return u.attendance.Delete(ctx, nil, id)
}
