// Package events fans order events out to the audit log and to customer mail
// from a single protoactor actor, off the request path.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/storefront/pkg/mail"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	serviceName    = "order"
	handlerTimeout = 10 * time.Second
)

type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *repository.AuditLog) error
}

type UserLookup interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// noticeStatuses are the status changes the customer is mailed about.
var noticeStatuses = map[models.OrderStatus]bool{
	models.OrderStatusShipped:   true,
	models.OrderStatusDelivered: true,
	models.OrderStatusCancelled: true,
}

// OrderEventActor handles order events one at a time.
type OrderEventActor struct {
	audit  AuditWriter
	users  UserLookup
	mailer Mailer
	logger *zap.Logger
}

func (a *OrderEventActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case OrderPlaced:
		a.handle("order_placed", msg.Order, bson.M{}, true)

	case PaymentVerified:
		a.handle("payment_verified", msg.Order, bson.M{"paymentId": msg.Order.RazorpayPaymentID}, true)

	case OrderStatusChanged:
		a.handle("status_changed", msg.Order, bson.M{"from": string(msg.From)}, noticeStatuses[msg.Order.Status])

	case *actor.Started:
		a.logger.Info("Order event actor started")

	case *actor.Stopping:
		a.logger.Info("Order event actor stopping")

	case *actor.Stopped:
		a.logger.Info("Order event actor stopped")
	}
}

func (a *OrderEventActor) handle(action string, order models.Order, data bson.M, notify bool) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	data["status"] = string(order.Status)
	data["userId"] = order.UserID.Hex()
	data["paymentMethod"] = string(order.PaymentMethod)
	data["totalAmount"] = order.TotalAmount

	err := a.audit.CreateAuditLog(ctx, &repository.AuditLog{
		Service:  serviceName,
		Action:   action,
		EntityID: order.ID.Hex(),
		Data:     data,
	})
	if err != nil {
		a.logger.Error("Failed to write audit log",
			zap.String("action", action),
			zap.String("order_id", order.ID.Hex()),
			zap.Error(err))
	}

	if notify {
		if err := a.notify(ctx, order); err != nil {
			a.logger.Warn("Failed to send order notice",
				zap.String("order_id", order.ID.Hex()),
				zap.Error(err))
		}
	}
}

func (a *OrderEventActor) notify(ctx context.Context, order models.Order) error {
	user, err := a.users.GetUserByID(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("lookup user %s: %w", order.UserID.Hex(), err)
	}
	msg, err := mail.OrderNotice(user.Email, user.Name, order)
	if err != nil {
		return err
	}
	return a.mailer.Send(ctx, msg)
}

// Dispatcher owns the actor system and implements the services' publisher.
type Dispatcher struct {
	system *actor.ActorSystem
	pid    *actor.PID
	logger *zap.Logger
}

func NewDispatcher(audit AuditWriter, users UserLookup, mailer Mailer, logger *zap.Logger) (*Dispatcher, error) {
	system := actor.NewActorSystem()

	props := actor.PropsFromProducer(func() actor.Actor {
		return &OrderEventActor{
			audit:  audit,
			users:  users,
			mailer: mailer,
			logger: logger.Named("order-event-actor"),
		}
	})
	pid, err := system.Root.SpawnNamed(props, "order-events")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn order event actor: %w", err)
	}

	return &Dispatcher{system: system, pid: pid, logger: logger.Named("events")}, nil
}

// Publish enqueues event and returns immediately.
func (d *Dispatcher) Publish(event interface{}) {
	d.system.Root.Send(d.pid, event)
}

// Shutdown lets the actor drain its mailbox, then stops the system.
func (d *Dispatcher) Shutdown() error {
	err := d.system.Root.PoisonFuture(d.pid).Wait()
	d.system.Shutdown()
	if err != nil {
		return fmt.Errorf("failed to drain order events: %w", err)
	}
	return nil
}
