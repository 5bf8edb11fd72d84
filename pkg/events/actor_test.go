package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/example/storefront/pkg/mail"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	user := &models.User{Name: "Ann", Email: "ann@example.com"}
	require.NoError(t, store.CreateUser(ctx, user))

	order := models.Order{UserID: user.ID, Status: models.OrderStatusPending, PaymentMethod: models.PaymentCOD, TotalAmount: 110}
	require.NoError(t, store.CreateOrder(ctx, &order))

	mailer := &recordingMailer{}
	d, err := NewDispatcher(store, store, mailer, zap.NewNop())
	require.NoError(t, err)

	d.Publish(OrderPlaced{Order: order})

	confirmed := order
	confirmed.Status = models.OrderStatusConfirmed
	d.Publish(OrderStatusChanged{Order: confirmed, From: models.OrderStatusPending})

	shipped := order
	shipped.Status = models.OrderStatusShipped
	d.Publish(OrderStatusChanged{Order: shipped, From: models.OrderStatusConfirmed})

	require.NoError(t, d.Shutdown())

	logs, err := store.GetAuditLogs(ctx, order.ID.Hex(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "status_changed", logs[0].Action)
	assert.Equal(t, "Shipped", logs[0].Data["status"])
	assert.Equal(t, "Confirmed", logs[0].Data["from"])
	assert.Equal(t, "order_placed", logs[2].Action)

	// Placed and Shipped are mailed, Confirmed by an admin is not.
	require.Equal(t, 2, mailer.count())
	assert.Equal(t, "ann@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[1].Subject, "Shipped")
}

func TestDispatcherPublishDoesNotBlock(t *testing.T) {
	store := memstore.New()
	d, err := NewDispatcher(store, store, &recordingMailer{}, zap.NewNop())
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 100; i++ {
		d.Publish(OrderPlaced{Order: models.Order{Status: models.OrderStatusPending}})
	}
	assert.Less(t, time.Since(start), time.Second)

	require.NoError(t, d.Shutdown())
}
