package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/storefront/pkg/assets"
	"github.com/example/storefront/pkg/mail"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/payment"
	"github.com/example/storefront/pkg/repository"
)

const (
	testAccessSecret  = "access-secret-0123456789"
	testRefreshSecret = "refresh-secret-0123456789"
	testKeySecret     = "rzp-test-secret"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []interface{}
}

func (p *recordingPublisher) Publish(event interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) all() []interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]interface{}(nil), p.events...)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fakeGateway struct {
	mu       sync.Mutex
	requests []payment.OrderRequest
	err      error
	seq      int
}

func (g *fakeGateway) CreateOrder(_ context.Context, req payment.OrderRequest) (*payment.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.seq++
	g.requests = append(g.requests, req)
	return &payment.GatewayOrder{
		ID:       fmt.Sprintf("order_test_%d", g.seq),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return payment.Sign(testKeySecret, orderID, paymentID) == signature
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

type memLedger struct {
	mu      sync.Mutex
	records []models.PaymentRecord
}

func (l *memLedger) Record(_ context.Context, r *models.PaymentRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	r.ID = uint64(len(l.records) + 1)
	r.CreatedAt = time.Now()
	l.records = append(l.records, *r)
	return nil
}

func (l *memLedger) ListByOrder(_ context.Context, orderID string) ([]models.PaymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []models.PaymentRecord{}
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].OrderID == orderID {
			out = append(out, l.records[i])
		}
	}
	return out, nil
}

type fakeUploader struct {
	mu    sync.Mutex
	calls int
	fail  string
}

func (u *fakeUploader) Upload(_ context.Context, img assets.Image) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if img.Name == u.fail {
		return "", assets.ErrUpload
	}
	return "https://cdn.example.com/" + img.Name, nil
}

// mapCache is an in-memory Cache.
type mapCache struct {
	mu   sync.Mutex
	data map[string]int64
	json map[string][]byte
	hits int
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string]int64{}, json: map[string][]byte{}}
}

func (c *mapCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.data[key]; ok {
		*(dest.(*int64)) = n
		return nil
	}
	raw, ok := c.json[key]
	if !ok {
		return repository.ErrNotFound
	}
	c.hits++
	return json.Unmarshal(raw, dest)
}

func (c *mapCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.json[key] = raw
	return nil
}

func (c *mapCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.json, k)
	}
	return nil
}

func (c *mapCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key]++
	return c.data[key], nil
}

var errBoom = errors.New("boom")
