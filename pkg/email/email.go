package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Mailer delivers a single message. Implementations must honour ctx where the
// transport allows it.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Sender identity shared by all transports.
type Sender struct {
	Email string
	Name  string
}

func (s Sender) String() string {
	if s.Name == "" {
		return s.Email
	}
	return fmt.Sprintf("%s <%s>", s.Name, s.Email)
}

// NewWelcomeMessage builds the message sent after signup.
func NewWelcomeMessage(to, name, url string) (*Message, error) {
	html, err := render("welcome.html", map[string]interface{}{
		"FirstName": firstName(name),
		"URL":       url,
		"Year":      time.Now().Year(),
	})
	if err != nil {
		return nil, err
	}

	return &Message{
		To:      to,
		ToName:  name,
		Subject: "Welcome to the Natours Family!",
		Text:    fmt.Sprintf("Hi %s, welcome to Natours! Upload a profile photo at %s", firstName(name), url),
		HTML:    html,
	}, nil
}

// NewPasswordResetMessage builds the message carrying the plaintext reset URL.
func NewPasswordResetMessage(to, name, resetURL string, validFor time.Duration) (*Message, error) {
	minutes := int(validFor.Minutes())
	html, err := render("password_reset.html", map[string]interface{}{
		"FirstName": firstName(name),
		"URL":       resetURL,
		"Minutes":   minutes,
		"Year":      time.Now().Year(),
	})
	if err != nil {
		return nil, err
	}

	return &Message{
		To:      to,
		ToName:  name,
		Subject: fmt.Sprintf("Your password reset token (valid for %d min)", minutes),
		Text: fmt.Sprintf("Forgot your password? Submit a request with your new password and passwordConfirm to: %s.\n"+
			"If you didn't forget your password, please ignore this email!", resetURL),
		HTML: html,
	}, nil
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

func firstName(name string) string {
	for i, r := range name {
		if r == ' ' {
			return name[:i]
		}
	}
	return name
}
