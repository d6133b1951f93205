package mail

import (
	"context"
	"errors"
	"strings"

	"github.com/salimtrading/staffportal/config"
	gomail "github.com/wneessen/go-mail"
)

// SMTPTransport sends through an authenticated STARTTLS relay.
type SMTPTransport struct {
	client *gomail.Client
}

func NewSMTPTransport(cfg config.MailConfig) (*SMTPTransport, error) {
	if strings.TrimSpace(cfg.Server) == "" {
		return nil, errors.New("mail server is required")
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Server, opts...)
	if err != nil {
		return nil, err
	}
	return &SMTPTransport{client: client}, nil
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m, err := buildMsg(msg)
	if err != nil {
		return transportError(err)
	}
	if err := t.client.DialAndSendWithContext(ctx, m); err != nil {
		return transportError(err)
	}
	return nil
}

func buildMsg(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, err
	}
	if err := m.To(msg.To...); err != nil {
		return nil, err
	}
	m.Subject(msg.Subject)
	if msg.ID != "" {
		m.SetMessageIDWithValue(msg.ID)
	}
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return m, nil
}
