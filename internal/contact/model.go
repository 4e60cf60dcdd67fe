package contact

import "context"

// Message is a contact-form submission. It is never persisted; it exists
// only long enough to be forwarded as an email.
type Message struct {
	Name    string
	Email   string
	Subject string
	Body    string
}

// Mailer forwards a contact message to the site owner. Implementations must
// set reply-to to the submitter's address.
type Mailer interface {
	SendContactMessage(ctx context.Context, msg Message) (string, error)
}
