package model

// Read-side projections: reference fields resolved to typed summaries by
// explicit joins in the repository layer.

type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type TypeSummary struct {
	ID       string          `json:"id"`
	Title    MembershipTitle `json:"title"`
	PriceNPR int64           `json:"price_npr"`
	Duration Duration        `json:"duration"`
}

type PaymentSummary struct {
	ID     string        `json:"id"`
	Amount int64         `json:"amount"`
	Method PaymentMethod `json:"method"`
	Status PaymentStatus `json:"status"`
}

// MembershipDetail is a membership with its references joined in.
type MembershipDetail struct {
	Membership
	User    *UserSummary    `json:"user,omitempty"`
	Type    *TypeSummary    `json:"membership_type,omitempty"`
	Payment *PaymentSummary `json:"payment,omitempty"`
}

// PaymentDetail is a payment with the owning user joined in.
type PaymentDetail struct {
	Payment
	User *UserSummary `json:"user,omitempty"`
}
