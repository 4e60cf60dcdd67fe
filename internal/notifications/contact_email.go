package notifications

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/dlrodev92/my-portfolio-api/internal/contact"
)

const contactMessageTemplate = `<!DOCTYPE html>
<html>
<body>
  <h2>New Contact Form Submission</h2>
  <p><strong>Name:</strong> {{.Name}}</p>
  <p><strong>Email:</strong> {{.Email}}</p>
  <p><strong>Subject:</strong> {{if .Subject}}{{.Subject}}{{else}}No subject{{end}}</p>
  <h3>Message</h3>
  <p style="white-space: pre-wrap;">{{.Body}}</p>
  <p><strong>Reply to:</strong> {{.Email}}</p>
</body>
</html>`

var contactMessageTmpl = template.Must(template.New("contact_message").Parse(contactMessageTemplate))

func buildContactHTML(msg contact.Message) (string, error) {
	var buf bytes.Buffer
	if err := contactMessageTmpl.Execute(&buf, msg); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildContactText(msg contact.Message) string {
	subject := msg.Subject
	if subject == "" {
		subject = "No subject"
	}
	return fmt.Sprintf(
		"New Contact Form Submission\n\nName: %s\nEmail: %s\nSubject: %s\n\nMessage:\n%s\n\nReply to: %s\n",
		msg.Name, msg.Email, subject, msg.Body, msg.Email,
	)
}
