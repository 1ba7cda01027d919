package mailer

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSender only logs. Used when MAIL_SEND_ENABLED is false.
type LogSender struct {
	Logger *logrus.Logger
}

func (l LogSender) Send(_ context.Context, m Message) error {
	l.Logger.WithFields(logrus.Fields{
		"to":          m.To,
		"subject":     m.Subject,
		"attachments": len(m.Attachments),
	}).Info("MAIL_SEND_ENABLED=false; email not sent")
	return nil
}
