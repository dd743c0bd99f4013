package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResendEmailService_RequiresConfig(t *testing.T) {
	_, err := NewResendEmailService("", "noreply@example.com")
	assert.Error(t, err, "Без API ключа сервис не создается")

	_, err = NewResendEmailService("re_key", "")
	assert.Error(t, err, "Без адреса отправителя сервис не создается")

	s, err := NewResendEmailService("re_key", "noreply@example.com")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestResendRetryDelay(t *testing.T) {
	testCases := []struct {
		name      string
		err       error
		attempt   int
		wantRetry bool
		wantWait  time.Duration
	}{
		{"rate limit с Retry-After", &resend.RateLimitError{RetryAfter: "3"}, 0, true, 3 * time.Second},
		{"rate limit с большим Retry-After", &resend.RateLimitError{RetryAfter: "120"}, 0, true, 30 * time.Second},
		{"rate limit без Retry-After", &resend.RateLimitError{}, 1, true, 2 * time.Second},
		{"временная ошибка по тексту", errors.New("i/o timeout"), 0, true, 500 * time.Millisecond},
		{"постоянная ошибка", errors.New("invalid from address"), 0, false, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wait, retry := resendRetryDelay(tc.err, tc.attempt)
			assert.Equal(t, tc.wantRetry, retry)
			assert.Equal(t, tc.wantWait, wait)
		})
	}
}

func TestReceiptText(t *testing.T) {
	r := RedeemReceipt{
		Username:     "hana",
		Code:         "JLPT-ABCD-EF12-3456",
		PlanDays:     30,
		PremiumUntil: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}

	text := receiptText(r)

	assert.True(t, strings.Contains(text, "JLPT-ABCD-EF12-3456"))
	assert.True(t, strings.Contains(text, "2025-04-01"))
	assert.Contains(t, receiptHTML(r), "<strong>JLPT-ABCD-EF12-3456</strong>")
}

func TestNoopEmailService(t *testing.T) {
	s := NewNoopEmailService(nil)
	assert.NoError(t, s.SendRedeemReceipt(context.Background(), "a@example.com", RedeemReceipt{Code: "X"}))
}
