package notify

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/wneessen/go-mail"

	"github.com/logmonitor/logmonitor/internal/db/controller/appsettings"
)

// Sender delivers one composed message with the given transport settings.
type Sender interface {
	Send(ctx context.Context, transport appsettings.Mail, msg Message) error
}

// MailSender delivers over SMTP.
type MailSender struct {
	Timeout time.Duration
}

// Options translates transport settings into go-mail client options.
func (s MailSender) Options(transport appsettings.Mail) []mail.Option {
	opts := []mail.Option{
		mail.WithPort(transport.Port),
		mail.WithUsername(transport.User),
		mail.WithPassword(transport.Password),
	}

	if s.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.Timeout))
	}

	switch TLSModeFor(transport.Port, transport.UseTLS, transport.AllowInsecure) {
	case TLSImplicit:
		opts = append(opts, mail.WithSSL(), mail.WithSMTPAuth(mail.SMTPAuthPlain))
	case TLSNone:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS), mail.WithSMTPAuth(mail.SMTPAuthPlainNoEnc))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory), mail.WithSMTPAuth(mail.SMTPAuthPlain))
	}

	return opts
}

// Send implements Sender.
func (s MailSender) Send(ctx context.Context, transport appsettings.Mail, msg Message) error {
	m := mail.NewMsg()

	if err := m.From(msg.From); err != nil {
		return errors.Wrap(err, "invalid from address")
	}

	if err := m.To(msg.To); err != nil {
		return errors.Wrap(err, "invalid recipient address")
	}

	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	client, err := mail.NewClient(transport.Host, s.Options(transport)...)
	if err != nil {
		return errors.Wrap(err, "failed to create mail client")
	}

	return client.DialAndSendWithContext(ctx, m) //nolint:wrapcheck
}
