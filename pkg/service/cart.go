package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var errQuantityTooLarge = apperr.BadRequest(fmt.Sprintf("Quantity cannot exceed %d", maxCartQuantity))

type CartService struct {
	carts    CartStore
	products ProductStore
	logger   *zap.Logger
}

func NewCartService(carts CartStore, products ProductStore, logger *zap.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   logger.Named("cart"),
	}
}

// AddItem adds quantity of a product to the user's cart, creating the cart on
// first use. A nil quantity means one.
func (s *CartService) AddItem(ctx context.Context, userID primitive.ObjectID, productID string, quantity *int) (*models.Cart, error) {
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, apperr.NotFound("Product not found")
	}
	qty := 1
	if quantity != nil {
		qty = *quantity
	}
	if qty < 1 {
		return nil, apperr.BadRequest("Quantity must be at least 1")
	}
	if qty > maxCartQuantity {
		return nil, errQuantityTooLarge
	}

	if _, err := s.products.GetProduct(ctx, pid); err != nil {
		return nil, storeErr(err, "Product not found", "Failed to load product")
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Internal("Failed to load cart", err)
		}
		cart = &models.Cart{UserID: userID, Items: []models.CartItem{}}
	}

	if i := cart.Find(pid); i >= 0 {
		if cart.Items[i].Quantity > maxCartQuantity-qty {
			return nil, errQuantityTooLarge
		}
		cart.Items[i].Quantity += qty
	} else {
		cart.Items = append(cart.Items, models.CartItem{ProductID: pid, Quantity: qty})
	}

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, apperr.Internal("Failed to save cart", err)
	}
	return cart, nil
}

// View joins the cart lines with product details. Lines for deleted products
// are left out. A user without a cart gets an empty view and ok=false.
func (s *CartService) View(ctx context.Context, userID primitive.ObjectID) (view *models.CartView, ok bool, err error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &models.CartView{Items: []models.CartLine{}}, false, nil
		}
		return nil, false, apperr.Internal("Failed to load cart", err)
	}

	ids := make([]primitive.ObjectID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, false, apperr.Internal("Failed to load cart products", err)
	}
	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	view = &models.CartView{
		ID:        cart.ID.Hex(),
		UserID:    cart.UserID.Hex(),
		Items:     make([]models.CartLine, 0, len(cart.Items)),
		UpdatedAt: cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		p, found := byID[item.ProductID]
		if !found {
			continue
		}
		view.Items = append(view.Items, models.CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image1:    p.Image1,
			Quantity:  item.Quantity,
		})
	}
	return view, true, nil
}

func (s *CartService) UpdateItem(ctx context.Context, userID primitive.ObjectID, productID string, quantity *int) (*models.Cart, error) {
	if productID == "" || quantity == nil {
		return nil, apperr.BadRequest("Product Id and quantity are required")
	}
	if *quantity < 1 {
		return nil, apperr.BadRequest("Quantity must be at least 1")
	}
	if *quantity > maxCartQuantity {
		return nil, errQuantityTooLarge
	}

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, apperr.NotFound("Product not found in cart")
	}
	i := cart.Find(pid)
	if i < 0 {
		return nil, apperr.NotFound("Product not found in cart")
	}

	cart.Items[i].Quantity = *quantity
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, apperr.Internal("Failed to save cart", err)
	}
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID primitive.ObjectID, productID string) (*models.Cart, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID.Hex() != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, apperr.Internal("Failed to save cart", err)
	}
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.Items = []models.CartItem{}
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, apperr.Internal("Failed to save cart", err)
	}
	return cart, nil
}

func (s *CartService) loadCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "Cart not found", "Failed to load cart")
	}
	return cart, nil
}
