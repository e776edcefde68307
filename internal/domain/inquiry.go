package domain

import (
	"fmt"
	"time"
)

// EmailStatus tracks delivery of the notification email for an inquiry.
// It is a small state machine: pending -> sent | failed, and
// failed -> pending re-arms a resend attempt. Only sent is terminal.
type EmailStatus string

const (
	EmailPending EmailStatus = "pending"
	EmailSent    EmailStatus = "sent"
	EmailFailed  EmailStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s EmailStatus) Valid() bool {
	switch s {
	case EmailPending, EmailSent, EmailFailed:
		return true
	}
	return false
}

// CanTransition reports whether the s -> to transition is allowed.
func (s EmailStatus) CanTransition(to EmailStatus) bool {
	switch s {
	case EmailPending:
		return to == EmailSent || to == EmailFailed
	case EmailFailed:
		return to == EmailPending
	}
	return false
}

// Transition returns the next status, or an error if the move is not
// allowed from the current state.
func (s EmailStatus) Transition(to EmailStatus) (EmailStatus, error) {
	if !s.CanTransition(to) {
		return s, fmt.Errorf("email status cannot transition from %q to %q", s, to)
	}
	return to, nil
}

// InquiryStatus is the administrative lifecycle of an inquiry, owned by the
// back office rather than the submission flow.
type InquiryStatus string

const (
	InquiryPending   InquiryStatus = "pending"
	InquiryResponded InquiryStatus = "responded"
	InquiryCompleted InquiryStatus = "completed"
	InquiryCancelled InquiryStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s InquiryStatus) Valid() bool {
	switch s {
	case InquiryPending, InquiryResponded, InquiryCompleted, InquiryCancelled:
		return true
	}
	return false
}

// InquiryLine is one cart line frozen at submission time, carrying the
// authoritative product name and unit price resolved from the catalog.
type InquiryLine struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Size        string  `json:"size"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// Inquiry is a wholesale quote request generated from a cart snapshot.
type Inquiry struct {
	ID          string        `json:"id"`
	UserID      *string       `json:"user_id,omitempty"`
	UserEmail   string        `json:"user_email"`
	UserName    string        `json:"user_name"`
	UserPhone   string        `json:"user_phone"`
	Lines       []InquiryLine `json:"products"`
	Message     string        `json:"message"`
	Status      InquiryStatus `json:"status"`
	EmailStatus EmailStatus   `json:"email_status"`
	TotalAmount float64       `json:"total_amount"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
