package gateway

import (
	"net/http"

	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
)

type placeOrderRequest struct {
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   models.PaymentMethod    `json:"paymentMethod"`
	Items           []service.ItemInput     `json:"items"`
}

type orderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// @Summary Place a cash on delivery order
// @Tags order
// @Router /api/order/place [post]
func (g *Gateway) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}

	order, err := g.orders.Place(c.Request.Context(), currentUser(c).ID, service.PlaceOrderInput{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Items:           req.Items,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Order placed successfully", order)
}

// @Summary Create a Razorpay order for checkout
// @Tags order
// @Router /api/order/place/razorpay [post]
func (g *Gateway) placeRazorpayOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}

	checkout, err := g.orders.PlaceRazorpay(c.Request.Context(), currentUser(c).ID, service.PlaceOrderInput{
		ShippingAddress: req.ShippingAddress,
		Items:           req.Items,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Razorpay order created successfully", checkout)
}

// @Summary Verify a Razorpay payment signature
// @Tags order
// @Router /api/order/verify/razorpay [post]
func (g *Gateway) verifyRazorpayPayment(c *gin.Context) {
	var req service.PaymentConfirmation
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}

	order, err := g.orders.VerifyRazorpay(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Payment verified successfully", order)
}

func (g *Gateway) orderHistory(c *gin.Context) {
	orders, err := g.orders.History(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	ok(c, http.StatusOK, "User order history fetched successfully", orders)
}

func (g *Gateway) orderDetails(c *gin.Context) {
	order, err := g.orders.Details(c.Request.Context(), currentUser(c).ID, c.Param("orderId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Order details retrieved successfully", order)
}

func (g *Gateway) cancelOrder(c *gin.Context) {
	order, err := g.orders.Cancel(c.Request.Context(), currentUser(c).ID, c.Param("orderId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Order cancelled successfully", order)
}

func (g *Gateway) updateOrderStatus(c *gin.Context) {
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}

	order, err := g.orders.UpdateStatus(c.Request.Context(), c.Param("orderId"), req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Order status updated successfully", order)
}

func (g *Gateway) adminListOrders(c *gin.Context) {
	orders, err := g.orders.ListAll(c.Request.Context(), models.OrderStatus(c.Query("status")))
	if err != nil {
		fail(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	ok(c, http.StatusOK, "All orders fetched successfully", orders)
}

func (g *Gateway) adminDeleteOrder(c *gin.Context) {
	if err := g.orders.Delete(c.Request.Context(), c.Param("orderId")); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Order deleted successfully", nil)
}

func (g *Gateway) adminOrderPayments(c *gin.Context) {
	records, err := g.orders.Payments(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		fail(c, err)
		return
	}
	if records == nil {
		records = []models.PaymentRecord{}
	}
	ok(c, http.StatusOK, "Payments fetched successfully", records)
}
