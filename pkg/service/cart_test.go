package service

import (
	"context"
	"math"
	"net/http"
	"testing"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository/memstore"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type CartServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	store  *memstore.Store
	carts  *CartService
	userID primitive.ObjectID
	shirt  *models.Product
	jeans  *models.Product
}

func TestCartServiceSuite(t *testing.T) {
	suite.Run(t, new(CartServiceTestSuite))
}

func (s *CartServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memstore.New()
	s.carts = NewCartService(s.store, s.store, zap.NewNop())
	s.userID = primitive.NewObjectID()

	s.shirt = &models.Product{Name: "Shirt", Price: 100, Image1: "https://cdn/shirt.png"}
	s.jeans = &models.Product{Name: "Jeans", Price: 250}
	require.NoError(s.T(), s.store.CreateProduct(s.ctx, s.shirt))
	require.NoError(s.T(), s.store.CreateProduct(s.ctx, s.jeans))
}

func intp(v int) *int { return &v }

func (s *CartServiceTestSuite) TestAddSameProductTwiceSumsQuantity() {
	_, err := s.carts.AddItem(s.ctx, s.userID, s.shirt.ID.Hex(), intp(2))
	s.Require().NoError(err)
	cart, err := s.carts.AddItem(s.ctx, s.userID, s.shirt.ID.Hex(), intp(3))
	s.Require().NoError(err)

	s.Require().Len(cart.Items, 1)
	s.Equal(5, cart.Items[0].Quantity)

	stored, err := s.store.GetCart(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(stored.Items, 1)
	s.Equal(5, stored.Items[0].Quantity)
}

func (s *CartServiceTestSuite) TestAddDefaultsToOne() {
	cart, err := s.carts.AddItem(s.ctx, s.userID, s.shirt.ID.Hex(), nil)
	s.Require().NoError(err)
	s.Equal(1, cart.Items[0].Quantity)
}

func (s *CartServiceTestSuite) TestAddValidation() {
	_, err := s.carts.AddItem(s.ctx, s.userID, primitive.NewObjectID().Hex(), nil)
	s.Equal(http.StatusNotFound, apperr.StatusOf(err))

	_, err = s.carts.AddItem(s.ctx, s.userID, s.shirt.ID.Hex(), intp(0))
	s.Equal(http.StatusBadRequest, apperr.StatusOf(err))
	_, err = s.carts.AddItem(s.ctx, s.userID, s.shirt.ID.Hex(), intp(math.MaxInt))
	s.Equal(http.StatusBadRequest, apperr.StatusOf(err))

	_, err = s.store.GetCart(s.ctx, s.userID)
	s.Error(err)
}

func (s *CartServiceTestSuite) TestAddCannotOverflowQuantity() {
	_, err := s.carts.AddItem(s.ctx, s.userID, s.shirt.ID.Hex(), intp(1))
	s.Require().NoError(err)

	_, err = s.carts.AddItem(s.ctx, s.userID, s.shirt.ID.Hex(), intp(maxCartQuantity))
	s.Equal(http.StatusBadRequest, apperr.StatusOf(err))

	cart, err := s.store.GetCart(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(1, cart.Items[0].Quantity)

	cart, err = s.carts.AddItem(s.ctx, s.userID, s.shirt.ID.Hex(), intp(maxCartQuantity-1))
	s.Require().NoError(err)
	s.Equal(maxCartQuantity, cart.Items[0].Quantity)

	_, err = s.carts.AddItem(s.ctx, s.userID, s.shirt.ID.Hex(), nil)
	s.Equal(http.StatusBadRequest, apperr.StatusOf(err))
}

func (s *CartServiceTestSuite) TestView() {
	view, ok, err := s.carts.View(s.ctx, s.userID)
	s.Require().NoError(err)
	s.False(ok)
	s.NotNil(view.Items)
	s.Empty(view.Items)

	_, err = s.carts.AddItem(s.ctx, s.userID, s.shirt.ID.Hex(), intp(2))
	s.Require().NoError(err)
	_, err = s.carts.AddItem(s.ctx, s.userID, s.jeans.ID.Hex(), intp(1))
	s.Require().NoError(err)
	s.Require().NoError(s.store.DeleteProduct(s.ctx, s.jeans.ID))

	view, ok, err = s.carts.View(s.ctx, s.userID)
	s.Require().NoError(err)
	s.True(ok)
	s.Require().Len(view.Items, 1)
	s.Equal("Shirt", view.Items[0].Name)
	s.Equal(100.0, view.Items[0].Price)
	s.Equal("https://cdn/shirt.png", view.Items[0].Image1)
	s.Equal(2, view.Items[0].Quantity)
}

func (s *CartServiceTestSuite) TestUpdateItem() {
	_, err := s.carts.UpdateItem(s.ctx, s.userID, s.shirt.ID.Hex(), intp(3))
	s.Equal(http.StatusNotFound, apperr.StatusOf(err))

	_, err = s.carts.AddItem(s.ctx, s.userID, s.shirt.ID.Hex(), nil)
	s.Require().NoError(err)

	cart, err := s.carts.UpdateItem(s.ctx, s.userID, s.shirt.ID.Hex(), intp(7))
	s.Require().NoError(err)
	s.Equal(7, cart.Items[0].Quantity)

	_, err = s.carts.UpdateItem(s.ctx, s.userID, s.shirt.ID.Hex(), intp(0))
	s.Equal(http.StatusBadRequest, apperr.StatusOf(err))
	_, err = s.carts.UpdateItem(s.ctx, s.userID, s.shirt.ID.Hex(), intp(maxCartQuantity+1))
	s.Equal(http.StatusBadRequest, apperr.StatusOf(err))
	_, err = s.carts.UpdateItem(s.ctx, s.userID, s.shirt.ID.Hex(), nil)
	s.Equal(http.StatusBadRequest, apperr.StatusOf(err))
	_, err = s.carts.UpdateItem(s.ctx, s.userID, s.jeans.ID.Hex(), intp(1))
	s.Equal(http.StatusNotFound, apperr.StatusOf(err))
}

func (s *CartServiceTestSuite) TestRemoveAndClear() {
	_, err := s.carts.RemoveItem(s.ctx, s.userID, s.shirt.ID.Hex())
	s.Equal(http.StatusNotFound, apperr.StatusOf(err))
	_, err = s.carts.Clear(s.ctx, s.userID)
	s.Equal(http.StatusNotFound, apperr.StatusOf(err))

	_, err = s.carts.AddItem(s.ctx, s.userID, s.shirt.ID.Hex(), nil)
	s.Require().NoError(err)
	_, err = s.carts.AddItem(s.ctx, s.userID, s.jeans.ID.Hex(), nil)
	s.Require().NoError(err)

	cart, err := s.carts.RemoveItem(s.ctx, s.userID, s.shirt.ID.Hex())
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 1)
	s.Equal(s.jeans.ID, cart.Items[0].ProductID)

	cart, err = s.carts.Clear(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Empty(cart.Items)
}
