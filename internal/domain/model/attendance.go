package model

import (
	"time"

	"gym-membership-backend/internal/domain"
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

type VerificationMethod string

const (
	VerifyFingerprint VerificationMethod = "fingerprint"
	VerifyManual      VerificationMethod = "manual"
	VerifyCard        VerificationMethod = "card"
)

// Attendance is one gym-visit record, unique per (user, calendar day).
type Attendance struct {
	ID           string
	UserID       string
	Date         time.Time // midnight UTC of the visit day
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	Status       AttendanceStatus
	Method       VerificationMethod
	DeviceID     string
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DayOf truncates t to the calendar day used as the attendance key.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ApplyCheckIn records the check-in. A second check-in for the same day is a
// conflict.
func (a *Attendance) ApplyCheckIn(now time.Time, method VerificationMethod, deviceID, notes string) error {
	if a.CheckInTime != nil {
		return domain.ErrConflict
	}
	a.CheckInTime = &now
	a.Status = AttendancePresent
	a.Method = method
	a.DeviceID = deviceID
	a.Notes = notes
	a.UpdatedAt = now
	return nil
}

// ApplyCheckOut records the check-out; it requires a prior check-in on the
// same record.
func (a *Attendance) ApplyCheckOut(now time.Time) error {
	if a.CheckInTime == nil || a.CheckOutTime != nil {
		return domain.ErrInvalidState
	}
	a.CheckOutTime = &now
	a.UpdatedAt = now
	return nil
}

// SessionMinutes returns the visit length, or 0 when the record is open-ended.
func (a *Attendance) SessionMinutes() int {
	if a.CheckInTime == nil || a.CheckOutTime == nil {
		return 0
	}
	return int(a.CheckOutTime.Sub(*a.CheckInTime).Minutes())
}
