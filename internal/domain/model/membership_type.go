package model

import (
	"time"

	"gym-membership-backend/internal/domain"
)

// MembershipTitle is the closed set of purchasable plan names.
type MembershipTitle string

const (
	TitleDaily      MembershipTitle = "Daily"
	TitleMonthly    MembershipTitle = "Monthly"
	TitleQuarterly  MembershipTitle = "Quarterly"
	TitleHalfYearly MembershipTitle = "Half-Yearly"
	TitleYearly     MembershipTitle = "Yearly"
	TitleThreeYear  MembershipTitle = "Three-Year"
	TitleFiveYear   MembershipTitle = "Five-Year"
	TitleTenYear    MembershipTitle = "Ten-Year"
	TitleLifetime   MembershipTitle = "Lifetime"
)

var validTitles = map[MembershipTitle]struct{}{
	TitleDaily: {}, TitleMonthly: {}, TitleQuarterly: {}, TitleHalfYearly: {},
	TitleYearly: {}, TitleThreeYear: {}, TitleFiveYear: {}, TitleTenYear: {},
	TitleLifetime: {},
}

func (t MembershipTitle) Valid() bool {
	_, ok := validTitles[t]
	return ok
}

// DurationUnit distinguishes how a plan's lifetime is expressed.
type DurationUnit string

const (
	DurationDays     DurationUnit = "days"
	DurationMonths   DurationUnit = "months"
	DurationLifetime DurationUnit = "lifetime"
)

// LifetimeEndDate is the sentinel expiry for lifetime plans.
var LifetimeEndDate = time.Date(2100, time.December, 31, 0, 0, 0, 0, time.UTC)

// Duration is a tagged variant: exactly one of a day count, a month count,
// or lifetime. N is ignored when Unit is lifetime.
type Duration struct {
	Unit DurationUnit `json:"unit"`
	N    int          `json:"n"`
}

func Days(n int) Duration     { return Duration{Unit: DurationDays, N: n} }
func Months(n int) Duration   { return Duration{Unit: DurationMonths, N: n} }
func Lifetime() Duration      { return Duration{Unit: DurationLifetime} }
func (d Duration) Valid() bool {
	switch d.Unit {
	case DurationDays, DurationMonths:
		return d.N > 0
	case DurationLifetime:
		return true
	}
	return false
}

// EndFrom computes the membership end date for a window starting at start.
func (d Duration) EndFrom(start time.Time) time.Time {
	switch d.Unit {
	case DurationDays:
		return start.AddDate(0, 0, d.N)
	case DurationMonths:
		return start.AddDate(0, d.N, 0)
	default:
		return LifetimeEndDate
	}
}

// MembershipType is a purchasable plan in the catalog. Title is unique.
type MembershipType struct {
	ID          string
	Title       MembershipTitle
	PriceNPR    int64 // whole rupees; converted to paisa only at the gateway boundary
	Duration    Duration
	AccessStart string // "HH:MM" gym-door window, informational
	AccessEnd   string
	IsActive    bool
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewMembershipType validates and constructs a plan.
func NewMembershipType(id string, title MembershipTitle, priceNPR int64, dur Duration) (*MembershipType, error) {
	if id == "" || !title.Valid() || priceNPR <= 0 || !dur.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &MembershipType{
		ID:          id,
		Title:       title,
		PriceNPR:    priceNPR,
		Duration:    dur,
		AccessStart: "05:00",
		AccessEnd:   "20:30",
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (t *MembershipType) IsZero() bool { return t == nil || t.ID == "" }
