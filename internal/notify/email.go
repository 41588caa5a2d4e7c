// Package notify sends transactional email through Amazon SES.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/sirupsen/logrus"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// SESMailer sends from a verified sender address.
type SESMailer struct {
	client *ses.Client
	sender string
}

func NewSESMailer(awsCfg aws.Config, sender string) *SESMailer {
	return &SESMailer{client: ses.NewFromConfig(awsCfg), sender: sender}
}

func (s *SESMailer) Send(ctx context.Context, m Message) error {
	if m.To == "" {
		return errors.New("recipient email address is empty")
	}
	body := &types.Body{
		Text: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(m.Text)},
	}
	if m.HTML != "" {
		body.Html = &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(m.HTML)}
	}
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.sender),
		Destination: &types.Destination{ToAddresses: []string{m.To}},
		Message: &types.Message{
			Subject: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(m.Subject)},
			Body:    body,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	logrus.WithFields(logrus.Fields{"to": m.To, "subject": m.Subject}).Info("[notify] email sent")
	return nil
}

// LogMailer only logs; used when no sender is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, m Message) error {
	logrus.WithFields(logrus.Fields{"to": m.To, "subject": m.Subject}).Info("[notify] email skipped, no sender configured")
	return nil
}
