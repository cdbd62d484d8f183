package services

import (
	"fmt"
	"log"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// MailSender delivers the marketplace's transactional email. Handlers
// depend on this interface so tests can swap in a fake.
type MailSender interface {
	SendAdResponse(toEmail, toName, adTitle, responderName, message string) error
	SendListingContact(toEmail, toName, listingTitle, senderName, senderEmail, message string) error
}

type SendgridMailer struct {
	apiKey     string
	sender     string
	senderName string
}

func NewSendgridMailer() *SendgridMailer {
	return &SendgridMailer{
		apiKey:     os.Getenv("SENDGRID_API_KEY"),
		sender:     os.Getenv("EMAIL_SENDER"),
		senderName: os.Getenv("EMAIL_SENDER_NAME"),
	}
}

func (m *SendgridMailer) send(toEmail, toName, subject, plain, html string) error {
	from := mail.NewEmail(m.senderName, m.sender)
	to := mail.NewEmail(toName, toEmail)

	message := mail.NewSingleEmail(from, subject, to, plain, html)
	client := sendgrid.NewSendClient(m.apiKey)
	response, err := client.Send(message)

	if err != nil {
		log.Printf("Failed to send email to %s: %v", toEmail, err)
		return err
	}

	if response.StatusCode >= 400 {
		log.Printf("Email provider rejected message to %s: status %d", toEmail, response.StatusCode)
		return fmt.Errorf("email provider returned status %d", response.StatusCode)
	}

	return nil
}

func (m *SendgridMailer) SendAdResponse(toEmail, toName, adTitle, responderName, message string) error {
	subject := fmt.Sprintf("New response to your ad: %s", adTitle)
	plain := fmt.Sprintf("%s responded to your ad %q:\n\n%s", responderName, adTitle, message)
	html := fmt.Sprintf("<p><strong>%s</strong> responded to your ad <strong>%s</strong>:</p><p>%s</p>", responderName, adTitle, message)

	return m.send(toEmail, toName, subject, plain, html)
}

func (m *SendgridMailer) SendListingContact(toEmail, toName, listingTitle, senderName, senderEmail, message string) error {
	subject := fmt.Sprintf("Enquiry about your listing: %s", listingTitle)
	plain := fmt.Sprintf("%s (%s) sent a message about %q:\n\n%s", senderName, senderEmail, listingTitle, message)
	html := fmt.Sprintf("<p><strong>%s</strong> (%s) sent a message about <strong>%s</strong>:</p><p>%s</p>", senderName, senderEmail, listingTitle, message)

	return m.send(toEmail, toName, subject, plain, html)
}
