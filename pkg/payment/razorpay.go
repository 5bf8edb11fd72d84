// Package payment talks to the Razorpay orders API and verifies the checkout
// signature returned to the browser.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/guonaihong/gout"
)

const requestTimeout = 15 * time.Second

var ErrGateway = errors.New("payment gateway error")

type OrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type gatewayReply struct {
	GatewayOrder
	Error *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error,omitempty"`
}

type Razorpay struct {
	keyID     string
	keySecret string
	baseURL   string
}

func NewRazorpay(cfg *config.PaymentConfig) *Razorpay {
	return &Razorpay{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
	}
}

func (r *Razorpay) KeyID() string {
	return r.keyID
}

// CreateOrder registers an order with the gateway. Amount is in the currency's
// minor unit.
func (r *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (*GatewayOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var (
		reply gatewayReply
		code  int
	)
	err := gout.POST(r.baseURL+"/v1/orders").
		WithContext(ctx).
		SetBasicAuth(r.keyID, r.keySecret).
		SetJSON(req).
		BindJSON(&reply).
		Code(&code).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	if code < 200 || code > 299 {
		msg := fmt.Sprintf("status %d", code)
		if reply.Error != nil && reply.Error.Description != "" {
			msg = reply.Error.Description
		}
		return nil, fmt.Errorf("%w: %s", ErrGateway, msg)
	}
	if reply.ID == "" {
		return nil, fmt.Errorf("%w: empty order id", ErrGateway)
	}

	order := reply.GatewayOrder
	return &order, nil
}

// Sign returns the hex HMAC-SHA256 of "orderID|paymentID" under secret.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	expected := Sign(r.keySecret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
