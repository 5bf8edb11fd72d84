package service

import (
	"context"
	"time"

	"github.com/example/storefront/pkg/assets"
	"github.com/example/storefront/pkg/mail"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/payment"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type ProductStore interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
}

type CartStore interface {
	GetCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	GetOrderByRazorpayID(ctx context.Context, razorpayOrderID string) (*models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, id primitive.ObjectID) error
}

// Cache is satisfied by repository.RedisRepository. A missing key is reported
// as repository.ErrNotFound.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
}

type PaymentLedger interface {
	Record(ctx context.Context, record *models.PaymentRecord) error
	ListByOrder(ctx context.Context, orderID string) ([]models.PaymentRecord, error)
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, req payment.OrderRequest) (*payment.GatewayOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

type AssetUploader interface {
	Upload(ctx context.Context, img assets.Image) (string, error)
}

type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

type EventPublisher interface {
	Publish(event interface{})
}
