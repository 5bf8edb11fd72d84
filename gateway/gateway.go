package gateway

import (
	"net/http"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/example/storefront/docs"
)

const maxMultipartMemory = 32 << 20

var errNotFoundRoute = apperr.NotFound("Route not found")

type Gateway struct {
	config  *config.Config
	logger  *zap.Logger
	router  *gin.Engine
	auth    *service.AuthService
	catalog *service.CatalogService
	carts   *service.CartService
	orders  *service.OrderService
	limiter RateLimiter
}

type Services struct {
	Auth    *service.AuthService
	Catalog *service.CatalogService
	Carts   *service.CartService
	Orders  *service.OrderService
	// Limiter may be nil, which disables rate limiting.
	Limiter RateLimiter
}

func NewGateway(cfg *config.Config, svc Services, logger *zap.Logger) *Gateway {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = maxMultipartMemory

	logger = logger.Named("http")
	router.Use(requestIDMiddleware(logger))
	router.Use(loggerMiddleware(logger))
	router.Use(recoveryMiddleware())
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	g := &Gateway{
		config:  cfg,
		logger:  logger,
		router:  router,
		auth:    svc.Auth,
		catalog: svc.Catalog,
		carts:   svc.Carts,
		orders:  svc.Orders,
		limiter: svc.Limiter,
	}
	g.SetupRoutes()
	return g
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) SetupRoutes() {
	// Health check
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	g.router.NoRoute(func(c *gin.Context) {
		fail(c, errNotFoundRoute)
	})

	limited := g.rateLimit()
	user := g.requireUser()
	admin := g.requireAdmin()

	auth := g.router.Group("/api/v1/auth")
	{
		auth.POST("/register", limited, g.register)
		auth.POST("/login", limited, g.login)
		auth.POST("/logout", user, g.logout)
		auth.POST("/refresh-token", g.refreshToken)
		auth.GET("/current-user", user, g.currentUser)
		auth.POST("/forgot-password", limited, g.forgotPassword)
		auth.POST("/reset-password/:resetToken", limited, g.resetPassword)
		auth.POST("/admin/login", limited, g.adminLogin)
		auth.GET("/admin/current-admin", admin, g.currentAdmin)
		auth.POST("/admin/logout", g.adminLogout)
	}

	products := g.router.Group("/api/product")
	{
		products.GET("/search", g.searchProducts)
		products.GET("/list", g.listProducts)
		products.GET("/admin/list", admin, g.adminListProducts)
		products.GET("/category/:id", g.getProduct)
		products.GET("/:id", g.getProduct)
		products.POST("/addproduct", admin, g.addProduct)
		products.PUT("/:id", admin, g.updateProduct)
		products.DELETE("/:id", admin, g.deleteProduct)
	}

	cart := g.router.Group("/api/cart", user)
	{
		cart.POST("/addcart", g.addToCart)
		cart.GET("", g.getCart)
		cart.GET("/", g.getCart)
		cart.PUT("/update", g.updateCart)
		cart.DELETE("/remove", g.removeFromCart)
		cart.DELETE("/clear", g.clearCart)
	}

	orders := g.router.Group("/api/order")
	{
		orders.POST("/place", user, g.placeOrder)
		orders.POST("/place/razorpay", user, g.placeRazorpayOrder)
		orders.POST("/verify/razorpay", user, g.verifyRazorpayPayment)
		orders.GET("/history", user, g.orderHistory)
		orders.GET("/details/:orderId", user, g.orderDetails)
		orders.PUT("/cancel/:orderId", user, g.cancelOrder)
		orders.PUT("/status/:orderId", admin, g.updateOrderStatus)
		orders.GET("/admin/list", admin, g.adminListOrders)
		orders.DELETE("/admin/delete/:orderId", admin, g.adminDeleteOrder)
		orders.GET("/admin/payments/:orderId", admin, g.adminOrderPayments)
	}

	// Swagger
	if !g.config.IsProduction() {
		g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}
