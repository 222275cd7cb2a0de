package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// WelcomeMessageEmailData holds data for the welcome email sent on sign-up.
type WelcomeMessageEmailData struct {
	Email    string
	Username string
}

// EmailService defines the contract for sending domain-level emails.
// Invitation links are deliberately not emailed; the token is returned to the
// inviting caller, who distributes it out of band.
type EmailService interface {
	SendWelcomeMessage(ctx context.Context, data *WelcomeMessageEmailData) error
}
