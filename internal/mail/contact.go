package mail

import (
	"fmt"
	"strings"

	"github.com/david/scholarhub/internal/content"
)

// ContactMessage is a visitor's submission of the contact form.
type ContactMessage struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Render turns the submission into a message for the site inbox. All visitor
// text is reduced to escaped plain text; replies go to the visitor.
func (m ContactMessage) Render(inbox string) Message {
	name := content.StripTags(strings.TrimSpace(m.Name))
	email := content.StripTags(strings.TrimSpace(m.Email))
	subject := content.StripTags(strings.TrimSpace(m.Subject))
	body := strings.ReplaceAll(content.StripTags(strings.TrimSpace(m.Message)), "\n", "<br>\n")

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; color: #333;">
  <h2 style="color: #1e3a8a;">New contact message</h2>
  <p><strong>From:</strong> %s &lt;%s&gt;</p>
  <p><strong>Subject:</strong> %s</p>
  <hr>
  <p>%s</p>
</body>
</html>`, name, email, subject, body)

	return Message{
		To:       inbox,
		ReplyTo:  fmt.Sprintf("%s <%s>", strings.TrimSpace(m.Name), strings.TrimSpace(m.Email)),
		Subject:  "[Contact] " + strings.TrimSpace(m.Subject),
		HTMLBody: html,
	}
}
