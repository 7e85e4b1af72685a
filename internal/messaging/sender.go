package messaging

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/willcldrr/scalexotics-sub002/pkg/logging"
)

// Sender delivers assistant replies back to the customer over SMS.
type Sender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// TwilioSender sends SMS through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
	logger *logging.Logger
}

// NewTwilioSender builds a sender with account credentials and the sending
// number.
func NewTwilioSender(accountSID, authToken, from string, logger *logging.Logger) *TwilioSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from:   from,
		logger: logger,
	}
}

// SendSMS pushes one message. The Twilio SDK has no context plumbing, so the
// caller's deadline only bounds our wait, not the underlying request.
func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("messaging: twilio send: %w", err)
	}
	if resp.Sid != nil {
		s.logger.Info("sms sent", "to", to, "sid", *resp.Sid)
	}
	return nil
}

// LogSender is a development Sender that only logs the outbound message.
type LogSender struct {
	logger *logging.Logger
}

// NewLogSender creates a sender that writes messages to the log.
func NewLogSender(logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger}
}

// SendSMS logs the message instead of delivering it.
func (s *LogSender) SendSMS(ctx context.Context, to, body string) error {
	s.logger.Info("sms (log sender)", "to", to, "body", body)
	return nil
}
