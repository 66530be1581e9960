package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickethub/internal/services/gateway"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(&Config{
		BaseURL:   srv.URL,
		SecretKey: "sk_test_secret",
	})
}

func TestInitialize(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))

		w.Write([]byte(`{
			"status": true,
			"message": "Authorization URL created",
			"data": {
				"authorization_url": "https://checkout.paystack.com/abc123",
				"access_code": "abc123",
				"reference": "TIX-DEADBEEF00112233"
			}
		}`))
	})

	resp, err := client.Initialize(context.Background(), &gateway.InitializeRequest{
		AmountMinor: 103000,
		Email:       "buyer@example.com",
		Reference:   "TIX-DEADBEEF00112233",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.paystack.com/abc123", resp.AuthorizationURL)
	assert.Equal(t, "TIX-DEADBEEF00112233", resp.Reference)
}

func TestVerify_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transaction/verify/TIX-REF1", r.URL.Path)

		w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {
				"status": "success",
				"reference": "TIX-REF1",
				"amount": 103000,
				"currency": "NGN",
				"channel": "card"
			}
		}`))
	})

	resp, err := client.Verify(context.Background(), "TIX-REF1")
	require.NoError(t, err)

	assert.True(t, resp.Succeeded())
	assert.Equal(t, int64(103000), resp.AmountMinor)
	assert.Equal(t, "card", resp.Channel)
}

func TestVerify_FailedTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {
				"status": "failed",
				"reference": "TIX-REF2",
				"amount": 103000
			}
		}`))
	})

	resp, err := client.Verify(context.Background(), "TIX-REF2")
	require.NoError(t, err)

	assert.False(t, resp.Succeeded())
}

func TestVerify_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Verify(context.Background(), "TIX-MISSING")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestVerify_GatewayRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": false, "message": "Invalid key"}`))
	})

	_, err := client.Verify(context.Background(), "TIX-REF3")
	assert.Error(t, err)
}

func TestVerifyWebhookSignature(t *testing.T) {
	client := New(&Config{SecretKey: "sk_test_secret"})
	body := []byte(`{"event":"charge.success","data":{"reference":"TIX-REF1"}}`)

	mac := hmac.New(sha512.New, []byte("sk_test_secret"))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.VerifyWebhookSignature(body, valid))
	assert.False(t, client.VerifyWebhookSignature(body, "deadbeef"))
	assert.False(t, client.VerifyWebhookSignature([]byte(`tampered`), valid))
}
