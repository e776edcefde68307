// Package mail delivers inquiry notifications through SendGrid.
package mail

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"storefront-service/internal/inquiry"
)

// SendGridMailer implements the inquiry.Mailer interface.
type SendGridMailer struct {
	apiKey   string
	fromName string
	fromAddr string
	toAddr   string
	logger   *log.Logger
}

func NewSendGridMailer(apiKey, fromName, fromAddr, toAddr string, logger *log.Logger) *SendGridMailer {
	if logger == nil {
		logger = log.Default()
	}
	return &SendGridMailer{
		apiKey:   apiKey,
		fromName: fromName,
		fromAddr: fromAddr,
		toAddr:   toAddr,
		logger:   logger,
	}
}

// SendInquiry renders the inquiry as an HTML summary table and sends it to
// the configured receiver, reply-to set to the requester. A non-2xx
// SendGrid response is a delivery failure carrying the response body as
// detail.
func (m *SendGridMailer) SendInquiry(ctx context.Context, email inquiry.Email) error {
	if m.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if email.Contact.Email == "" {
		return fmt.Errorf("requester email is empty")
	}

	subject := fmt.Sprintf("Inquiry Update - %s", displayName(email.Contact))
	htmlContent := renderInquiryHTML(email)

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(m.fromName, m.fromAddr),
		subject,
		sgmail.NewEmail("", m.toAddr),
		plainTextSummary(email),
		htmlContent,
	)
	message.SetReplyTo(sgmail.NewEmail(email.Contact.Name, email.Contact.Email))

	for _, att := range email.Attachments {
		attachment := sgmail.NewAttachment()
		attachment.SetFilename(att.Filename)
		attachment.SetType(att.ContentType)
		attachment.SetContent(att.Content)
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}

	client := sendgrid.NewSendClient(m.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		m.logger.Printf("ERROR: sendgrid delivery failed: status=%d body=%s", response.StatusCode, response.Body)
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	m.logger.Printf("INFO: inquiry mail sent: status=%d to=%s subject=%q", response.StatusCode, m.toAddr, subject)
	return nil
}

func displayName(c inquiry.Contact) string {
	if c.Name != "" {
		return c.Name
	}
	return c.Email
}

func renderInquiryHTML(email inquiry.Email) string {
	var b strings.Builder
	name := html.EscapeString(displayName(email.Contact))

	b.WriteString(`<div style="font-family:Arial,Helvetica,sans-serif;max-width:640px;margin:0 auto;color:#111827;">`)
	fmt.Fprintf(&b, `<h2 style="background:#1d4ed8;color:#fff;padding:16px 24px;margin:0;border-radius:12px 12px 0 0;">Inquiry Update from %s</h2>`, name)
	b.WriteString(`<div style="padding:24px;background:#ffffff;border:1px solid #e5e7eb;border-top:none;">`)
	b.WriteString(`<p style="margin:0 0 12px 0;">You have received an updated inquiry.</p>`)

	b.WriteString(`<div style="margin-bottom:16px;">`)
	fmt.Fprintf(&b, `<p style="margin:4px 0;"><strong>Name:</strong> %s</p>`, name)
	fmt.Fprintf(&b, `<p style="margin:4px 0;"><strong>Email:</strong> %s</p>`, html.EscapeString(email.Contact.Email))
	if email.Contact.Phone != "" {
		fmt.Fprintf(&b, `<p style="margin:4px 0;"><strong>Phone:</strong> %s</p>`, html.EscapeString(email.Contact.Phone))
	}
	b.WriteString(`</div>`)

	b.WriteString(`<table style="width:100%;border-collapse:collapse;margin-bottom:16px;"><thead><tr style="background:#eff6ff;">`)
	b.WriteString(`<th style="padding:8px;border:1px solid #e5e7eb;text-align:left;">Product</th>`)
	b.WriteString(`<th style="padding:8px;border:1px solid #e5e7eb;text-align:center;">Size</th>`)
	b.WriteString(`<th style="padding:8px;border:1px solid #e5e7eb;text-align:center;">Quantity</th>`)
	b.WriteString(`<th style="padding:8px;border:1px solid #e5e7eb;text-align:right;">Unit Price</th>`)
	b.WriteString(`</tr></thead><tbody>`)
	for _, line := range email.Lines {
		b.WriteString(`<tr>`)
		fmt.Fprintf(&b, `<td style="padding:8px;border:1px solid #e5e7eb;">%s</td>`, html.EscapeString(line.ProductName))
		fmt.Fprintf(&b, `<td style="padding:8px;border:1px solid #e5e7eb;text-align:center;">%s</td>`, html.EscapeString(line.Size))
		fmt.Fprintf(&b, `<td style="padding:8px;border:1px solid #e5e7eb;text-align:center;">%d</td>`, line.Quantity)
		fmt.Fprintf(&b, `<td style="padding:8px;border:1px solid #e5e7eb;text-align:right;">%s%.2f</td>`, email.Currency, line.Price)
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table>`)

	fmt.Fprintf(&b, `<p style="font-size:16px;font-weight:600;margin:12px 0;color:#1f2937;">Total Amount: %s%.2f</p>`, email.Currency, email.Total)

	if email.Message != "" {
		escaped := strings.ReplaceAll(html.EscapeString(email.Message), "\n", "<br/>")
		fmt.Fprintf(&b, `<div style="margin-top:16px;padding:16px;border-left:4px solid #3b82f6;background:#eff6ff;"><strong>Message:</strong><br/>%s</div>`, escaped)
	}

	b.WriteString(`</div></div>`)
	return b.String()
}

func plainTextSummary(email inquiry.Email) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Inquiry from %s (%s)\n\n", displayName(email.Contact), email.Contact.Email)
	for _, line := range email.Lines {
		fmt.Fprintf(&b, "- %s / %s x%d @ %s%.2f\n", line.ProductName, line.Size, line.Quantity, email.Currency, line.Price)
	}
	fmt.Fprintf(&b, "\nTotal: %s%.2f\n", email.Currency, email.Total)
	if email.Message != "" {
		fmt.Fprintf(&b, "\nMessage:\n%s\n", email.Message)
	}
	return b.String()
}
