package mailer

import (
	"github.com/telecrm/helpdesk-sso/pkg/logger"
)

// DevMailer logs mail to stdout instead of sending it. Default in dev mode
// and whenever MailerSend is not configured.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, _ string) (string, error) {
	logger.Info("📧 [DEV MAIL]",
		"to", toEmail,
		"name", toName,
		"subject", subject,
		"text", text,
	)
	return "dev", nil
}

func (d *DevMailer) SendVerificationRequest(verifierEmail, requesterEmail, ticketID, verifyURL string) error {
	logger.Info("📧 [DEV MAIL] Verification Request",
		"to", verifierEmail,
		"requester", requesterEmail,
		"ticket_id", ticketID,
		"verify_url", verifyURL,
	)
	return nil
}
