package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

type cartRemoveRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

func (g *Gateway) addToCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}

	cart, err := g.carts.AddItem(c.Request.Context(), currentUser(c).ID, req.ProductID, req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Product added to cart", cart)
}

func (g *Gateway) getCart(c *gin.Context) {
	view, found, err := g.carts.View(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	if !found {
		ok(c, http.StatusOK, "Cart is Empty", view)
		return
	}
	ok(c, http.StatusOK, "Cart fetched successfully", view)
}

func (g *Gateway) updateCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}

	cart, err := g.carts.UpdateItem(c.Request.Context(), currentUser(c).ID, req.ProductID, req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Cart updated", cart)
}

func (g *Gateway) removeFromCart(c *gin.Context) {
	var req cartRemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}

	cart, err := g.carts.RemoveItem(c.Request.Context(), currentUser(c).ID, req.ProductID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Product removed from cart", cart)
}

func (g *Gateway) clearCart(c *gin.Context) {
	cart, err := g.carts.Clear(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Cart cleared", cart)
}
