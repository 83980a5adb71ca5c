package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SMSSender delivers a one-time code to a mobile number. The auth service
// treats a delivery failure as informational: an issued code stays valid
// whether or not the message made it out.
type SMSSender interface {
	SendOTP(ctx context.Context, mobile string, code int) error
}

// KavenegarService sends SMS through the Kavenegar REST gateway.
type KavenegarService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewKavenegarService builds a sender from the KAVENEGAR_* environment.
func NewKavenegarService() *KavenegarService {
	base := os.Getenv("KAVENEGAR_BASE_URL")
	if base == "" {
		base = "https://api.kavenegar.com"
	}
	return &KavenegarService{
		baseURL: base,
		apiKey:  os.Getenv("KAVENEGAR_API_KEY"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SendOTP delivers the login code via the gateway's simple-send endpoint.
func (s *KavenegarService) SendOTP(ctx context.Context, mobile string, code int) error {
	form := url.Values{}
	form.Set("receptor", mobile)
	form.Set("message", fmt.Sprintf("Your Arses Club login code is %d", code))

	endpoint := fmt.Sprintf("%s/v1/%s/sms/send.json", s.baseURL, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// LogSender writes codes to the log instead of sending them. Used in
// development when no gateway credentials are configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// SendOTP logs the code at info level.
func (s *LogSender) SendOTP(ctx context.Context, mobile string, code int) error {
	s.logger.Info("otp code (sms gateway not configured)",
		zap.String("mobile", mobile),
		zap.Int("code", code),
	)
	return nil
}
