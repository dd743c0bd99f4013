package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// RedeemReceipt - данные письма-квитанции об активации кода
type RedeemReceipt struct {
	Username     string
	Code         string
	PlanDays     int
	PremiumUntil time.Time
}

// EmailService sends transactional emails.
type EmailService interface {
	SendRedeemReceipt(ctx context.Context, toEmail string, receipt RedeemReceipt) error
}

// NoopEmailService is used when email sending is not configured.
type NoopEmailService struct {
	log *zap.Logger
}

// NewNoopEmailService создает EmailService, который только пишет в лог
func NewNoopEmailService(log *zap.Logger) *NoopEmailService {
	if log == nil {
		log = zap.NewNop()
	}
	return &NoopEmailService{log: log.Named("EmailService")}
}

func (s *NoopEmailService) SendRedeemReceipt(ctx context.Context, toEmail string, receipt RedeemReceipt) error {
	s.log.Info("noop send redeem receipt", zap.String("to", toEmail), zap.String("code", receipt.Code))
	return nil
}

// ResendEmailService sends emails via Resend REST API.
type ResendEmailService struct {
	from   string
	client *resend.Client
}

func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendEmailService) SendRedeemReceipt(ctx context.Context, toEmail string, receipt RedeemReceipt) error {
	if toEmail == "" || receipt.Code == "" {
		return fmt.Errorf("toEmail and code are required")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: "Premium activated",
		Text:    receiptText(receipt),
		Html:    receiptHTML(receipt),
	}
	// Один код активируется один раз, поэтому код подходит как ключ идемпотентности
	options := &resend.SendEmailOptions{IdempotencyKey: "redeem-" + receipt.Code}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func receiptText(r RedeemReceipt) string {
	return fmt.Sprintf("Hi %s, code %s added %d premium days. Premium is active until %s.",
		r.Username, r.Code, r.PlanDays, r.PremiumUntil.UTC().Format("2006-01-02"))
}

func receiptHTML(r RedeemReceipt) string {
	return fmt.Sprintf("<p>Hi %s,</p><p>Code <strong>%s</strong> added %d premium days.</p><p>Premium is active until <strong>%s</strong>.</p>",
		r.Username, r.Code, r.PlanDays, r.PremiumUntil.UTC().Format("2006-01-02"))
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
