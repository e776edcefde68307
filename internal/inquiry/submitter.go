// Package inquiry implements the two-phase inquiry submission flow: persist
// the inquiry, then attempt email delivery, then reconcile the inquiry's
// delivery status and clear the cart only on confirmed success.
package inquiry

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"storefront-service/internal/domain"
)

// Sentinel errors let callers tell a fully-retryable failure (nothing was
// created) apart from a partial one (inquiry exists, notification failed,
// needs a targeted resend rather than resubmission).
var (
	ErrEmptyCart           = errors.New("inquiry: cart snapshot contains no items")
	ErrInquiryNotCreated   = errors.New("inquiry: could not create inquiry")
	ErrEmailDeliveryFailed = errors.New("inquiry: inquiry created but notification email failed")
	ErrNotResendable       = errors.New("inquiry: notification email already delivered")
)

// PlaceholderProductName is attached to lines whose product no longer
// resolves against the catalog.
const PlaceholderProductName = "Unknown Product"

// Contact identifies the requester: a signed-in user id and/or guest
// contact fields.
type Contact struct {
	UserID *string
	Email  string
	Name   string
	Phone  string
}

// Attachment is a file as submitted by the client, its content in
// transport-safe base64 form, optionally prefixed as a data URL.
type Attachment struct {
	Filename    string
	ContentType string
	Content     string
}

// EmailAttachment is a decoded-and-revalidated attachment in the form the
// mail collaborator expects.
type EmailAttachment struct {
	Filename    string
	ContentType string
	Content     string // base64, no data-URL prefix
}

// Email is the payload handed to the mail collaborator.
type Email struct {
	Contact     Contact
	Lines       []domain.InquiryLine
	Total       float64
	Currency    string
	Message     string
	Attachments []EmailAttachment
}

// Catalog resolves cart lines against the live product catalog.
type Catalog interface {
	GetProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
}

// Store persists inquiries and their email delivery status.
type Store interface {
	CreateInquiry(ctx context.Context, inq *domain.Inquiry) (*domain.Inquiry, error)
	GetInquiryByID(ctx context.Context, id string) (*domain.Inquiry, error)
	UpdateInquiryEmailStatus(ctx context.Context, id string, status domain.EmailStatus) error
}

// CartClearer empties the requester's server-side cart after a confirmed
// delivery.
type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

// Mailer delivers the inquiry notification. A nil error is the delivery
// success marker; any error carries the collaborator's reported detail.
type Mailer interface {
	SendInquiry(ctx context.Context, email Email) error
}

// Submitter runs the submission flow. Store-create strictly precedes
// email-send within one submission; resubmission is not deduplicated here.
type Submitter struct {
	catalog  Catalog
	store    Store
	carts    CartClearer
	mailer   Mailer
	currency string
	logger   *log.Logger
}

func NewSubmitter(catalog Catalog, store Store, carts CartClearer, mailer Mailer, currency string, logger *log.Logger) *Submitter {
	if logger == nil {
		logger = log.Default()
	}
	if currency == "" {
		currency = "$"
	}
	return &Submitter{
		catalog:  catalog,
		store:    store,
		carts:    carts,
		mailer:   mailer,
		currency: currency,
		logger:   logger,
	}
}

// Submit creates an inquiry from the reconciled cart snapshot and attempts
// email delivery. On delivery success the inquiry transitions to sent and
// the requester's cart is cleared (best effort on the server side); on
// failure it transitions to failed and the cart is left untouched.
func (s *Submitter) Submit(ctx context.Context, contact Contact, cartSnapshot domain.CartData, message string, attachments []Attachment) (*domain.Inquiry, error) {
	lines, total, err := s.resolveLines(ctx, cartSnapshot)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	if message == "" {
		message = fmt.Sprintf("Inquiry from %s (%s)", contact.Name, contact.Email)
	}

	inq := &domain.Inquiry{
		UserID:      contact.UserID,
		UserEmail:   contact.Email,
		UserName:    contact.Name,
		UserPhone:   contact.Phone,
		Lines:       lines,
		Message:     message,
		Status:      domain.InquiryPending,
		EmailStatus: domain.EmailPending,
		TotalAmount: total,
	}

	created, err := s.store.CreateInquiry(ctx, inq)
	if err != nil {
		// No email attempt after a store rejection.
		return nil, fmt.Errorf("%w: %v", ErrInquiryNotCreated, err)
	}

	email := Email{
		Contact:     contact,
		Lines:       lines,
		Total:       total,
		Currency:    s.currency,
		Message:     message,
		Attachments: decodeAttachments(attachments, s.logger),
	}

	if err := s.mailer.SendInquiry(ctx, email); err != nil {
		s.transition(ctx, created, domain.EmailFailed)
		return created, fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}

	s.transition(ctx, created, domain.EmailSent)

	if contact.UserID != nil && s.carts != nil {
		// A failed server-side clear does not invalidate the inquiry.
		if err := s.carts.Clear(ctx, *contact.UserID); err != nil {
			s.logger.Printf("WARN: failed to clear cart for user %s after inquiry %s: %v", *contact.UserID, created.ID, err)
		}
	}

	return created, nil
}

// Resend re-attempts email delivery for an existing inquiry using its
// stored lines, so the requester recovers a partial submission without
// resubmitting the cart. A failed inquiry is first re-armed to pending and
// that state is persisted before the send, matching the submission flow's
// store-then-mail ordering. Inquiries whose notification was already
// delivered are rejected with ErrNotResendable.
func (s *Submitter) Resend(ctx context.Context, inquiryID string) (*domain.Inquiry, error) {
	inq, err := s.store.GetInquiryByID(ctx, inquiryID)
	if err != nil {
		return nil, err
	}

	if inq.EmailStatus == domain.EmailFailed {
		next, err := inq.EmailStatus.Transition(domain.EmailPending)
		if err != nil {
			return inq, err
		}
		if err := s.store.UpdateInquiryEmailStatus(ctx, inq.ID, next); err != nil {
			return inq, fmt.Errorf("inquiry: re-arming inquiry %s: %w", inq.ID, err)
		}
		inq.EmailStatus = next
	}
	if inq.EmailStatus != domain.EmailPending {
		return inq, fmt.Errorf("%w: inquiry %s is %q", ErrNotResendable, inq.ID, inq.EmailStatus)
	}

	email := Email{
		Contact: Contact{
			UserID: inq.UserID,
			Email:  inq.UserEmail,
			Name:   inq.UserName,
			Phone:  inq.UserPhone,
		},
		Lines:    inq.Lines,
		Total:    inq.TotalAmount,
		Currency: s.currency,
		Message:  inq.Message,
	}

	if err := s.mailer.SendInquiry(ctx, email); err != nil {
		s.transition(ctx, inq, domain.EmailFailed)
		return inq, fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}

	s.transition(ctx, inq, domain.EmailSent)
	return inq, nil
}

// transition applies the email-status state machine and persists the
// result. Persistence failures are logged, not surfaced: the flow outcome
// has already been decided.
func (s *Submitter) transition(ctx context.Context, inq *domain.Inquiry, to domain.EmailStatus) {
	next, err := inq.EmailStatus.Transition(to)
	if err != nil {
		s.logger.Printf("WARN: inquiry %s: %v", inq.ID, err)
		return
	}
	inq.EmailStatus = next
	if err := s.store.UpdateInquiryEmailStatus(ctx, inq.ID, next); err != nil {
		s.logger.Printf("WARN: failed to persist email status %q for inquiry %s: %v", next, inq.ID, err)
	}
}

// resolveLines turns the cart snapshot into inquiry lines with
// authoritative names and prices. Lines whose product is gone from the
// catalog degrade to a placeholder name and zero price instead of aborting
// the flow. Line order is deterministic: by product id, then size.
func (s *Submitter) resolveLines(ctx context.Context, cartSnapshot domain.CartData) ([]domain.InquiryLine, float64, error) {
	if len(cartSnapshot) == 0 {
		return nil, 0, nil
	}

	ids := make([]string, 0, len(cartSnapshot))
	for productID := range cartSnapshot {
		ids = append(ids, productID)
	}
	sort.Strings(ids)

	products, err := s.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("inquiry: resolving products: %w", err)
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var lines []domain.InquiryLine
	var total float64
	for _, productID := range ids {
		name := PlaceholderProductName
		price := 0.0
		if p, ok := byID[productID]; ok {
			name = p.Name
			price = p.Price
		}

		sizes := make([]string, 0, len(cartSnapshot[productID]))
		for size := range cartSnapshot[productID] {
			sizes = append(sizes, size)
		}
		sort.Strings(sizes)

		for _, size := range sizes {
			qty := cartSnapshot[productID][size]
			if qty < 1 {
				qty = 1
			}
			lines = append(lines, domain.InquiryLine{
				ProductID:   productID,
				ProductName: name,
				Size:        size,
				Quantity:    qty,
				Price:       price,
			})
			total += price * float64(qty)
		}
	}
	return lines, total, nil
}

// decodeAttachments strips any data-URL prefix, validates the base64
// payload and drops attachments that do not decode. Bad attachments never
// fail the flow.
func decodeAttachments(attachments []Attachment, logger *log.Logger) []EmailAttachment {
	out := make([]EmailAttachment, 0, len(attachments))
	for _, att := range attachments {
		content := att.Content
		if idx := strings.Index(content, ","); idx >= 0 && strings.HasPrefix(content, "data:") {
			content = content[idx+1:]
		}
		if content == "" {
			continue
		}
		if _, err := base64.StdEncoding.DecodeString(content); err != nil {
			logger.Printf("WARN: dropping attachment %q: invalid base64 payload", att.Filename)
			continue
		}
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		out = append(out, EmailAttachment{
			Filename:    att.Filename,
			ContentType: contentType,
			Content:     content,
		})
	}
	return out
}
