package pay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vendia/apperr"
	"vendia/models"
)

// Gateway is the capability surface of the external payment provider:
// create an intent for an amount, and verify that a webhook really came
// from the provider. Injected so tests can substitute a fake.
type Gateway interface {
	CreateIntent(ctx context.Context, amount int64, currency, orderID string) (*models.IntentRef, error)
	VerifySignature(payload []byte, signature string) error
}

// SignatureHeader carries the gateway's HMAC over the webhook body.
const SignatureHeader = "X-Gateway-Signature"

// httpGateway talks to the provider's REST API. The webhook signature
// scheme is HMAC-SHA256 over the raw body, base64 encoded.
type httpGateway struct {
	baseURL string
	secret  []byte
	client  *http.Client
}

func NewHTTPGateway(baseURL, secret string) Gateway {
	return &httpGateway{
		baseURL: baseURL,
		secret:  []byte(secret),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *httpGateway) CreateIntent(ctx context.Context, amount int64, currency, orderID string) (*models.IntentRef, error) {
	payload := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"metadata": map[string]string{"orderId": orderID},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/intents", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Wrap(apperr.DependencyTimeout, "payment_intent", orderID, err)
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, apperr.Wrap(apperr.DependencyTimeout, "payment_intent", orderID, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var ref models.IntentRef
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		return nil, err
	}
	ref.Amount = amount
	ref.Currency = currency
	return &ref, nil
}

func (g *httpGateway) VerifySignature(payload []byte, signature string) error {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if signature == "" || !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperr.New(apperr.Unauthorized, "webhook", "", "webhook signature verification failed")
	}
	return nil
}

// Sign computes the signature the gateway would attach to payload. Used by
// tests and local tooling to build valid webhook requests.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
