package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"

	"github.com/brightstay/hotel-bookings/internal/domain"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendBookingConfirmation(booking *domain.Booking) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := fmt.Sprintf("Your booking is confirmed: %s", booking.ConfirmationNumber)
	html := fmt.Sprintf(`
		<h2>Booking confirmed</h2>
		<p>Hi %s,</p>
		<p>Your reservation is confirmed. Your confirmation number is
		<strong style="font-size: 20px;">%s</strong>.</p>
		<p>Check-in: %s<br>Check-out: %s<br>Guests: %d adult(s), %d child(ren)</p>
		<p>Total charged: %s</p>
		<p>We look forward to welcoming you.</p>
	`, booking.GuestFirstName, booking.ConfirmationNumber,
		booking.CheckIn.Format("Monday, January 2, 2006"),
		booking.CheckOut.Format("Monday, January 2, 2006"),
		booking.Adults, booking.Children,
		formatAmount(booking.TotalAmount))

	text := fmt.Sprintf(
		"Your reservation is confirmed.\n\nConfirmation number: %s\nCheck-in: %s\nCheck-out: %s\nTotal charged: %s",
		booking.ConfirmationNumber,
		booking.CheckIn.Format("2006-01-02"),
		booking.CheckOut.Format("2006-01-02"),
		formatAmount(booking.TotalAmount))

	return m.sendEmail(booking.GuestEmail, booking.GuestName(), subject, text, html)
}

func (m *MailerSendClient) sendEmail(toEmail, toName, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}

func formatAmount(minor int64) string {
	return fmt.Sprintf("$%d.%02d", minor/100, minor%100)
}
