package notify

import (
	"partywork/config"

	"gopkg.in/mail.v2"
)

type Message struct {
	To       []string
	Subject  string
	HTMLBody string
	// Template names the template the message is rendered from, used as metric label.
	Template string
}

type Mailer struct {
	dialer *mail.Dialer
	from   string
}

var SendMailFunc = sendMail

func NewMailer(c config.SMTPConfig) *Mailer {
	d := mail.NewDialer(c.Host, c.Port, c.Username, c.Password)
	d.StartTLSPolicy = mail.OpportunisticStartTLS
	from := c.From
	if from == "" {
		from = c.Username
	}
	return &Mailer{dialer: d, from: from}
}

func (m *Mailer) Send(msg *Message) error {
	return SendMailFunc(m.dialer, m.from, msg)
}

func sendMail(d *mail.Dialer, from string, msg *Message) error {
	m := mail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)
	return d.DialAndSend(m)
}
