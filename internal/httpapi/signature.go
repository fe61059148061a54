package httpapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/calliope-studio/portal/internal/domain"
)

// DefaultSignatureTolerance bounds how stale a signed timestamp may be.
// Matches the payment provider's recommended replay window.
const DefaultSignatureTolerance = 5 * time.Minute

// VerifyWebhookSignature checks a Stripe-style signature header of the form
//
//	t=<unix>,v1=<hex hmac-sha256(secret, "<unix>.<body>")>
//
// Multiple v1 entries are accepted if any matches (key rotation). Every
// failure path wraps domain.ErrWebhookVerification; the caller must reject
// the event without processing it.
func VerifyWebhookSignature(secret, header string, body []byte, now time.Time, tolerance time.Duration) error {
	if secret == "" {
		return fmt.Errorf("no signing secret configured: %w", domain.ErrWebhookVerification)
	}
	if header == "" {
		return fmt.Errorf("missing signature header: %w", domain.ErrWebhookVerification)
	}

	var timestamp int64
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("malformed timestamp: %w", domain.ErrWebhookVerification)
			}
			timestamp = ts
		case "v1":
			candidates = append(candidates, value)
		}
	}
	if timestamp == 0 || len(candidates) == 0 {
		return fmt.Errorf("signature header missing t or v1: %w", domain.ErrWebhookVerification)
	}

	age := now.Sub(time.Unix(timestamp, 0))
	if age > tolerance || age < -tolerance {
		return fmt.Errorf("signed timestamp outside tolerance: %w", domain.ErrWebhookVerification)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(body)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		got, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, got) {
			return nil
		}
	}
	return fmt.Errorf("no matching signature: %w", domain.ErrWebhookVerification)
}
