package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/cockroachdb/errors"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templates embed.FS

var searchFinishedTmpl = template.Must(template.ParseFS(templates, "templates/search_finished.html"))

// Dialer é satisfeito por *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		dialer:   gomail.NewDialer(host, port, user, password),
	}
}

// WithDialer troca o transporte SMTP, usado nos testes.
func (s *EmailSender) WithDialer(d Dialer) *EmailSender {
	s.dialer = d
	return s
}

func (s *EmailSender) SendSearchFinished(to string, data SearchFinishedEmailData) error {
	var body bytes.Buffer
	if err := searchFinishedTmpl.Execute(&body, data); err != nil {
		return errors.Wrap(err, "erro ao processar template")
	}

	subject := fmt.Sprintf("Lead search %q found %d leads", data.SearchName, data.LeadsFound)
	if !data.Succeeded {
		subject = fmt.Sprintf("Lead search %q failed", data.SearchName)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return errors.Wrap(err, "erro ao enviar email SMTP")
	}
	return nil
}
