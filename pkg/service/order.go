package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/payment"
	"github.com/example/storefront/pkg/repository"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ItemInput struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

type PlaceOrderInput struct {
	ShippingAddress *models.ShippingAddress
	PaymentMethod   models.PaymentMethod
	Items           []ItemInput
}

// RazorpayCheckout is what the browser needs to open the Razorpay checkout.
type RazorpayCheckout struct {
	OrderID         string `json:"orderId"`
	RazorpayOrderID string `json:"razorpayOrderId"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Key             string `json:"key"`
}

type PaymentConfirmation struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	Signature         string `json:"razorpay_signature"`
}

type OrderService struct {
	orders   OrderStore
	products ProductStore
	carts    CartStore
	gateway  PaymentGateway
	ledger   PaymentLedger
	events   EventPublisher
	shipping decimal.Decimal
	currency string
	logger   *zap.Logger
	now      func() time.Time
}

type OrderServiceConfig struct {
	ShippingCost float64
	Currency     string
}

func NewOrderService(
	orders OrderStore,
	products ProductStore,
	carts CartStore,
	gateway PaymentGateway,
	ledger PaymentLedger,
	publisher EventPublisher,
	cfg OrderServiceConfig,
	logger *zap.Logger,
) *OrderService {
	currency := cfg.Currency
	if currency == "" {
		currency = "INR"
	}
	return &OrderService{
		orders:   orders,
		products: products,
		carts:    carts,
		gateway:  gateway,
		ledger:   ledger,
		events:   publisher,
		shipping: decimal.NewFromFloat(cfg.ShippingCost),
		currency: currency,
		logger:   logger.Named("order"),
		now:      time.Now,
	}
}

// Place stores a cash-on-delivery or prepaid order priced from the catalog.
func (s *OrderService) Place(ctx context.Context, userID primitive.ObjectID, in PlaceOrderInput) (*models.Order, error) {
	if in.ShippingAddress == nil || !in.ShippingAddress.Complete() {
		return nil, apperr.BadRequest("Incomplete shipping address")
	}
	if in.PaymentMethod == "" {
		return nil, apperr.BadRequest("Payment method is required")
	}
	if !in.PaymentMethod.Valid() {
		return nil, apperr.BadRequest("Invalid payment method")
	}

	items, total, err := s.priceItems(ctx, userID, in.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: *in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		TotalAmount:     total.InexactFloat64(),
		Status:          models.OrderStatusPending,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, apperr.Internal("Failed to place order", err)
	}

	s.clearCart(ctx, userID)
	s.events.Publish(events.OrderPlaced{Order: *order})
	s.logger.Info("order placed",
		zap.String("order_id", order.ID.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.Float64("total", order.TotalAmount),
	)
	return order, nil
}

// PlaceRazorpay creates the gateway order first and stores the local order only
// when the gateway accepted it.
func (s *OrderService) PlaceRazorpay(ctx context.Context, userID primitive.ObjectID, in PlaceOrderInput) (*RazorpayCheckout, error) {
	if in.ShippingAddress == nil || !in.ShippingAddress.Complete() {
		return nil, apperr.BadRequest("Incomplete shipping address")
	}

	items, total, err := s.priceItems(ctx, userID, in.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:              primitive.NewObjectID(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: *in.ShippingAddress,
		PaymentMethod:   models.PaymentOnline,
		TotalAmount:     total.InexactFloat64(),
		Status:          models.OrderStatusPending,
	}
	amount := MinorUnits(total)

	gwOrder, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		Amount:   amount,
		Currency: s.currency,
		Receipt:  "receipt_" + order.ID.Hex(),
		Notes:    map[string]string{"userId": userID.Hex()},
	})
	if err != nil {
		s.logger.Error("gateway order failed", zap.String("user_id", userID.Hex()), zap.Error(err))
		return nil, apperr.BadGateway("Payment gateway unavailable", err)
	}

	order.RazorpayOrderID = gwOrder.ID
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, apperr.Internal("Failed to place order", err)
	}

	s.record(ctx, order, models.PaymentStateCreated, "", amount)
	s.events.Publish(events.OrderPlaced{Order: *order})
	s.logger.Info("razorpay order placed",
		zap.String("order_id", order.ID.Hex()),
		zap.String("razorpay_order_id", gwOrder.ID),
		zap.Int64("amount", amount),
	)

	return &RazorpayCheckout{
		OrderID:         order.ID.Hex(),
		RazorpayOrderID: gwOrder.ID,
		Amount:          amount,
		Currency:        s.currency,
		Key:             s.gateway.KeyID(),
	}, nil
}

// VerifyRazorpay confirms an order once the checkout signature checks out. An
// invalid signature never changes the order.
func (s *OrderService) VerifyRazorpay(ctx context.Context, userID primitive.ObjectID, in PaymentConfirmation) (*models.Order, error) {
	if in.RazorpayOrderID == "" || in.RazorpayPaymentID == "" || in.Signature == "" {
		return nil, apperr.BadRequest("Invalid payment details")
	}

	if !s.gateway.VerifySignature(in.RazorpayOrderID, in.RazorpayPaymentID, in.Signature) {
		s.logger.Warn("payment signature mismatch",
			zap.String("razorpay_order_id", in.RazorpayOrderID),
			zap.String("user_id", userID.Hex()),
		)
		if order, err := s.orders.GetOrderByRazorpayID(ctx, in.RazorpayOrderID); err == nil {
			s.record(ctx, order, models.PaymentStateRejected, in.RazorpayPaymentID, MinorUnits(decimal.NewFromFloat(order.TotalAmount)))
		}
		return nil, apperr.BadRequest("Payment signature mismatch")
	}

	order, err := s.orders.GetOrderByRazorpayID(ctx, in.RazorpayOrderID)
	if err != nil {
		return nil, storeErr(err, "Order not found", "Failed to load order")
	}
	if order.UserID != userID {
		return nil, apperr.Forbidden("Unauthorized access")
	}

	if order.Status == models.OrderStatusConfirmed && order.RazorpayPaymentID == in.RazorpayPaymentID {
		return order, nil
	}
	if order.Status != models.OrderStatusPending {
		return nil, apperr.Conflict(fmt.Sprintf("Cannot confirm order with status: %s", order.Status))
	}

	order.Status = models.OrderStatusConfirmed
	order.RazorpayPaymentID = in.RazorpayPaymentID
	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		return nil, storeErr(err, "Order not found", "Failed to confirm order")
	}

	s.record(ctx, order, models.PaymentStateVerified, in.RazorpayPaymentID, MinorUnits(decimal.NewFromFloat(order.TotalAmount)))
	s.clearCart(ctx, userID)
	s.events.Publish(events.PaymentVerified{Order: *order})
	s.logger.Info("payment verified",
		zap.String("order_id", order.ID.Hex()),
		zap.String("razorpay_payment_id", in.RazorpayPaymentID),
	)
	return order, nil
}

func (s *OrderService) History(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	orders, err := s.orders.ListOrders(ctx, models.OrderFilter{UserID: &userID})
	if err != nil {
		return nil, apperr.Internal("Failed to load orders", err)
	}
	return orders, nil
}

func (s *OrderService) Details(ctx context.Context, userID primitive.ObjectID, orderID string) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.Forbidden("Unauthorized access")
	}
	return order, nil
}

func (s *OrderService) Cancel(ctx context.Context, userID primitive.ObjectID, orderID string) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.Forbidden("Unauthorized to cancel this order")
	}
	if order.Status != models.OrderStatusPending {
		return nil, apperr.BadRequest(fmt.Sprintf("Cannot cancel order with status: %s", order.Status))
	}

	if err := s.moveTo(ctx, order, models.OrderStatusCancelled); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateStatus moves an order along the allowed transitions. Setting the
// current status again changes nothing.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperr.BadRequest("Invalid status")
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}
	if !order.Status.CanTransition(status) {
		return nil, apperr.Conflict(fmt.Sprintf("Cannot change order status from %s to %s", order.Status, status))
	}

	if err := s.moveTo(ctx, order, status); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListAll(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.BadRequest("Invalid status")
	}
	orders, err := s.orders.ListOrders(ctx, models.OrderFilter{Status: status})
	if err != nil {
		return nil, apperr.Internal("Failed to load orders", err)
	}
	return orders, nil
}

func (s *OrderService) Delete(ctx context.Context, orderID string) error {
	id, err := parseID(orderID, "Invalid Order ID")
	if err != nil {
		return err
	}
	if err := s.orders.DeleteOrder(ctx, id); err != nil {
		return storeErr(err, "Order not found", "Failed to delete order")
	}
	s.logger.Info("order deleted", zap.String("order_id", orderID))
	return nil
}

func (s *OrderService) Payments(ctx context.Context, orderID string) ([]models.PaymentRecord, error) {
	if _, err := parseID(orderID, "Invalid Order ID"); err != nil {
		return nil, err
	}
	records, err := s.ledger.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperr.Internal("Failed to load payments", err)
	}
	return records, nil
}

// ExpireStale cancels online orders that stayed unpaid for longer than age.
func (s *OrderService) ExpireStale(ctx context.Context, age time.Duration) (int, error) {
	orders, err := s.orders.ListOrders(ctx, models.OrderFilter{
		Status:        models.OrderStatusPending,
		PaymentMethod: models.PaymentOnline,
		CreatedBefore: s.now().Add(-age),
	})
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range orders {
		if err := s.moveTo(ctx, &orders[i], models.OrderStatusCancelled); err != nil {
			s.logger.Warn("failed to expire order", zap.String("order_id", orders[i].ID.Hex()), zap.Error(err))
			continue
		}
		expired++
	}
	return expired, nil
}

func (s *OrderService) moveTo(ctx context.Context, order *models.Order, status models.OrderStatus) error {
	from := order.Status
	order.Status = status
	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		order.Status = from
		return storeErr(err, "Order not found", "Failed to update order")
	}

	s.events.Publish(events.OrderStatusChanged{Order: *order, From: from})
	s.logger.Info("order status changed",
		zap.String("order_id", order.ID.Hex()),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
	)
	return nil
}

func (s *OrderService) load(ctx context.Context, orderID string) (*models.Order, error) {
	id, err := parseID(orderID, "Invalid Order ID")
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Order not found", "Failed to load order")
	}
	return order, nil
}

// priceItems snapshots the requested items, or the user's cart when none are
// given, at current catalog prices. The total includes shipping.
func (s *OrderService) priceItems(ctx context.Context, userID primitive.ObjectID, requested []ItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	if len(requested) == 0 {
		cart, err := s.carts.GetCart(ctx, userID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, decimal.Zero, apperr.Internal("Failed to load cart", err)
		}
		if cart != nil {
			for _, item := range cart.Items {
				requested = append(requested, ItemInput{ProductID: item.ProductID.Hex(), Qty: item.Quantity})
			}
		}
	}
	if len(requested) == 0 {
		return nil, decimal.Zero, apperr.BadRequest("Cannot place an empty order. Cart is empty.")
	}

	ids := make([]primitive.ObjectID, 0, len(requested))
	for _, item := range requested {
		if id, err := primitive.ObjectIDFromHex(item.ProductID); err == nil {
			ids = append(ids, id)
		}
	}
	products, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, apperr.Internal("Failed to load products", err)
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID.Hex()] = p
	}

	items := make([]models.OrderItem, 0, len(requested))
	total := decimal.Zero
	for _, item := range requested {
		p, ok := byID[item.ProductID]
		if !ok || item.Qty <= 0 {
			return nil, decimal.Zero, apperr.BadRequest(fmt.Sprintf("Item in cart (%s) is unavailable or invalid.", item.ProductID))
		}
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  item.Qty,
		})
		total = total.Add(decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(item.Qty))))
	}

	return items, total.Add(s.shipping), nil
}

func (s *OrderService) clearCart(ctx context.Context, userID primitive.ObjectID) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("failed to load cart for clearing", zap.String("user_id", userID.Hex()), zap.Error(err))
		}
		return
	}
	cart.Items = []models.CartItem{}
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		s.logger.Warn("failed to clear cart", zap.String("user_id", userID.Hex()), zap.Error(err))
	}
}

func (s *OrderService) record(ctx context.Context, order *models.Order, state, paymentID string, amount int64) {
	err := s.ledger.Record(ctx, &models.PaymentRecord{
		OrderID:          order.ID.Hex(),
		GatewayOrderID:   order.RazorpayOrderID,
		GatewayPaymentID: paymentID,
		Amount:           amount,
		Currency:         s.currency,
		State:            state,
	})
	if err != nil {
		s.logger.Warn("failed to record payment",
			zap.String("order_id", order.ID.Hex()),
			zap.String("state", state),
			zap.Error(err),
		)
	}
}

// MinorUnits converts an amount to paise, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
