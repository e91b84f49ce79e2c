package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
)

var logger = xlog.NewPackageLogger("github.com/vitormoschetta/go-agent-gateway", "tools")

var validate = validator.New()

// SendSMSArgs são os argumentos da ferramenta send_sms
type SendSMSArgs struct {
	Phone   string `json:"phone" validate:"required,startswith=+,e164" jsonschema:"phone number in E.164 format, e.g. +1234567890"`
	Message string `json:"message" validate:"required" jsonschema:"the text message to send"`
}

// SendSMSResult é o resultado da ferramenta send_sms
type SendSMSResult struct {
	Status string `json:"status"`
	SID    string `json:"sid,omitempty"`
}

// Sender entrega mensagens SMS
type Sender interface {
	Send(ctx context.Context, phone, message string) (SendSMSResult, error)
}

// SendSMS valida os argumentos e entrega a mensagem pelo sender
func SendSMS(ctx context.Context, sender Sender, args SendSMSArgs) (SendSMSResult, error) {
	args.Message = strings.TrimSpace(args.Message)
	if err := validate.Struct(args); err != nil {
		return SendSMSResult{}, errors.WithMessage(err, "invalid SMS request")
	}
	return sender.Send(ctx, args.Phone, args.Message)
}

// LogSender apenas registra a mensagem, sem entrega real
type LogSender struct{}

// Send implementa Sender
func (LogSender) Send(ctx context.Context, phone, message string) (SendSMSResult, error) {
	logger.ContextKV(ctx, xlog.INFO, "status", "sms_logged", "phone", phone, "length", len(message))
	return SendSMSResult{
		Status: fmt.Sprintf("SMS sent to %s: %s", phone, message),
	}, nil
}

// DefaultTwilioBaseURL é a URL da API REST do Twilio
const DefaultTwilioBaseURL = "https://api.twilio.com"

// TwilioSender entrega mensagens pela API REST do Twilio
type TwilioSender struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	HTTPClient *http.Client
}

// NewTwilioSender cria um TwilioSender com timeout padrão
func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	return &TwilioSender{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		BaseURL:    DefaultTwilioBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type twilioMessage struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Send implementa Sender
func (s *TwilioSender) Send(ctx context.Context, phone, message string) (SendSMSResult, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimSuffix(s.BaseURL, "/"), url.PathEscape(s.AccountSID))

	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", s.From)
	form.Set("Body", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SendSMSResult{}, errors.Wrap(err, "failed to build Twilio request")
	}
	req.SetBasicAuth(s.AccountSID, s.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return SendSMSResult{}, errors.Wrap(err, "failed to call Twilio")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return SendSMSResult{}, errors.Wrap(err, "failed to read Twilio response")
	}

	var msg twilioMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return SendSMSResult{}, errors.Wrapf(err, "unexpected Twilio response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return SendSMSResult{}, errors.Newf("twilio error %d: %s", msg.Code, msg.Message)
	}

	logger.ContextKV(ctx, xlog.INFO, "status", "sms_sent", "phone", phone, "sid", msg.SID)
	return SendSMSResult{
		Status: fmt.Sprintf("SMS sent to %s: %s", phone, message),
		SID:    msg.SID,
	}, nil
}
