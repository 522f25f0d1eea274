package mailer

type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	// SendVerificationRequest notifies a verifier that someone asked for
	// helpdesk access, with the confirmation link that approves it.
	SendVerificationRequest(verifierEmail, requesterEmail, ticketID, verifyURL string) error
}
