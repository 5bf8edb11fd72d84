package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/storefront/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRazorpay(baseURL string) *Razorpay {
	return NewRazorpay(&config.PaymentConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
		BaseURL:   baseURL,
	})
}

func TestVerifySignature(t *testing.T) {
	r := newTestRazorpay("http://unused")
	sig := Sign("rzp_test_secret", "order_1", "pay_1")

	assert.True(t, r.VerifySignature("order_1", "pay_1", sig))
	assert.False(t, r.VerifySignature("order_1", "pay_2", sig))
	assert.False(t, r.VerifySignature("order_2", "pay_1", sig))
	assert.False(t, r.VerifySignature("order_1", "pay_1", Sign("other", "order_1", "pay_1")))
	assert.False(t, r.VerifySignature("order_1", "pay_1", ""))
}

func TestSignIsHexSHA256(t *testing.T) {
	sig := Sign("secret", "a", "b")
	require.Len(t, sig, 64)
	assert.Equal(t, sig, Sign("secret", "a", "b"))
}

func TestCreateOrder(t *testing.T) {
	var got OrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","amount":21000,"currency":"INR","receipt":"receipt_1","status":"created"}`))
	}))
	defer srv.Close()

	order, err := newTestRazorpay(srv.URL).CreateOrder(context.Background(), OrderRequest{
		Amount:   21000,
		Currency: "INR",
		Receipt:  "receipt_1",
		Notes:    map[string]string{"userId": "u1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, int64(21000), order.Amount)
	assert.Equal(t, int64(21000), got.Amount)
	assert.Equal(t, "u1", got.Notes["userId"])
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer srv.Close()

	_, err := newTestRazorpay(srv.URL).CreateOrder(context.Background(), OrderRequest{Amount: 1, Currency: "INR"})
	require.ErrorIs(t, err, ErrGateway)
	assert.Contains(t, err.Error(), "amount too small")
}
