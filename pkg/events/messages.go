package events

import "github.com/example/storefront/pkg/models"

// OrderPlaced is published after an order is stored.
type OrderPlaced struct {
	Order models.Order
}

// OrderStatusChanged is published after an admin or a job moves an order.
type OrderStatusChanged struct {
	Order models.Order
	From  models.OrderStatus
}

// PaymentVerified is published after a gateway signature has been accepted.
type PaymentVerified struct {
	Order models.Order
}
