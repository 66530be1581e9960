package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"tickethub/internal/services/gateway"
)

const defaultBaseURL = "https://api.paystack.co"

var ErrTransactionNotFound = errors.New("paystack: transaction not found")

type Config struct {
	// BaseURL overrides the live API host, mainly for tests.
	BaseURL string `json:"baseUrl" mapstructure:"base_url"`

	// SecretKey is the account secret used as bearer token and as the
	// webhook HMAC key.
	SecretKey string `json:"secretKey" mapstructure:"secret_key"`
}

type Client struct {
	// baseURL is the base url of the Paystack API.
	baseURL string

	// secretKey authenticates requests and signs webhooks.
	secretKey string

	// hc is the http client.
	hc *http.Client
}

// New creates a new Paystack client.
func New(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		baseURL:   baseURL,
		secretKey: cfg.SecretKey,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Provider() gateway.Provider {
	return gateway.ProviderPaystack
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Initialize starts a hosted checkout session for the given reference.
func (c *Client) Initialize(ctx context.Context, r *gateway.InitializeRequest) (*gateway.InitializeResponse, error) {
	body, err := json.Marshal(map[string]any{
		"amount":       r.AmountMinor,
		"email":        r.Email,
		"reference":    r.Reference,
		"callback_url": r.CallbackURL,
		"metadata":     r.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("initializePaystack: json.Marshal: %w", err)
	}

	reply, err := c.call(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var data gateway.InitializeResponse
	if err := json.Unmarshal(reply.Data, &data); err != nil {
		return nil, fmt.Errorf("initializePaystack: json.Unmarshal: %w", err)
	}

	return &data, nil
}

// Verify checks the state of a transaction. A nil error only means the
// gateway answered; callers must still inspect the returned status.
func (c *Client) Verify(ctx context.Context, reference string) (*gateway.VerifyResponse, error) {
	reply, err := c.call(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}

	var data gateway.VerifyResponse
	if err := json.Unmarshal(reply.Data, &data); err != nil {
		return nil, fmt.Errorf("verifyPaystack: json.Unmarshal: %w", err)
	}

	return &data, nil
}

func (c *Client) call(ctx context.Context, method, path string, body *bytes.Reader) (*envelope, error) {
	_baseURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("paystack: url.Parse: %w", err)
	}

	var req *http.Request
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, _baseURL.String()+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, _baseURL.String()+path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("paystack: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTransactionNotFound
	}

	var reply envelope
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("paystack: json.Decode: %w", err)
	}
	if !reply.Status {
		return nil, fmt.Errorf("paystack: reply.Status: false, reply.Message: %v", reply.Message)
	}

	return &reply, nil
}

// VerifyWebhookSignature checks the x-paystack-signature header of a
// webhook delivery against the raw request body.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
