// Package notification delivers change order approval links to clients
// through an outbound webhook.
package notification

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	documentapp "github.com/fieldbook/backend/internal/application/document"
)

// Header names set on every webhook request
const (
	HeaderSignature = "X-Fieldbook-Signature"
	HeaderTimestamp = "X-Fieldbook-Timestamp"
	HeaderEvent     = "X-Fieldbook-Event"

	eventApprovalRequested = "change_order.approval_requested"
	maxResponseSize        = 64 * 1024
	defaultTimeout         = 10 * time.Second
)

// Webhook errors
var (
	ErrWebhookURLMissing  = errors.New("notification: webhook URL is required")
	ErrWebhookRejected    = errors.New("notification: webhook rejected the request")
	ErrWebhookUnavailable = errors.New("notification: webhook unavailable")
)

// WebhookConfig configures the webhook notifier
type WebhookConfig struct {
	URL     string
	Secret  string
	Timeout time.Duration
}

// WebhookNotifier posts approval requests as JSON to a configured URL.
// When a secret is set, the body is signed with HMAC-SHA256 over
// "<timestamp>.<body>" and the hex digest is sent in HeaderSignature.
type WebhookNotifier struct {
	url        string
	secret     []byte
	httpClient *http.Client
	now        func() time.Time
}

// NewWebhookNotifier creates a new WebhookNotifier
func NewWebhookNotifier(cfg WebhookConfig) (*WebhookNotifier, error) {
	if cfg.URL == "" {
		return nil, ErrWebhookURLMissing
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &WebhookNotifier{
		url:    cfg.URL,
		secret: []byte(cfg.Secret),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}, nil
}

var _ documentapp.ApprovalNotifier = (*WebhookNotifier)(nil)

// SendApprovalRequest posts the approval link payload
func (w *WebhookNotifier) SendApprovalRequest(ctx context.Context, n documentapp.ApprovalNotification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notification: failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notification: failed to create request: %w", err)
	}
	timestamp := strconv.FormatInt(w.now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, eventApprovalRequested)
	req.Header.Set(HeaderTimestamp, timestamp)
	if len(w.secret) > 0 {
		req.Header.Set(HeaderSignature, Sign(w.secret, timestamp, body))
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookUnavailable, err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrWebhookRejected, resp.StatusCode)
	}
	return nil
}

// Sign computes the signature a receiver should expect for body
func Sign(secret []byte, timestamp string, body []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(timestamp))
	h.Write([]byte("."))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks a signature in constant time
func Verify(secret []byte, timestamp string, body []byte, signature string) bool {
	expected := Sign(secret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
