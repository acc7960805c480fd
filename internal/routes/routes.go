package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/auth"
	"github.com/01moynul/taptosell-settlement/internal/handlers"
	"github.com/01moynul/taptosell-settlement/internal/middleware"
)

// Options carries what the router needs besides the handlers.
type Options struct {
	JWTSecret []byte
	// AllowedOrigin is the single browser origin allowed to call the API.
	// Empty disables the CORS headers.
	AllowedOrigin string
	Logger        *zap.Logger
}

// CORSMiddleware tells the browser that the configured frontend may send us credentials.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH")
			c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		}

		// Preflight gets "204 No Content"
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger), middleware.RequestLogger(logger))

	// --- APPLY THE CORS GUARD ---
	router.Use(CORSMiddleware(opts.AllowedOrigin))

	requireAuth := middleware.AuthMiddleware(opts.JWTSecret, logger)

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Any Logged-In User ---
		v1.GET("/notifications", requireAuth, h.GetMyNotifications)

		// --- Seller-Only Routes ---
		seller := v1.Group("/seller")
		seller.Use(requireAuth, middleware.RequireRole(auth.RoleSeller))
		{
			seller.GET("/orders/:id", h.GetOrder)
			seller.PATCH("/orders/:id/status", h.UpdateOrderStatus)
			seller.POST("/orders/:id/cancel", h.CancelOrder)
			seller.POST("/orders/:id/return", h.ReturnOrder)

			seller.GET("/invoices", h.ListMyInvoices)
			seller.GET("/invoices/:id", h.GetMyInvoice)
			seller.GET("/invoices/:id/export", h.ExportMyInvoice)
			seller.POST("/invoices/:id/pay", h.PayMyInvoice)
			seller.GET("/can-create-orders", h.CanCreateOrders)

			seller.GET("/analytics", h.GetSellerAnalytics)
		}

		// --- Customer-Only Routes ---
		customer := v1.Group("/customer")
		customer.Use(requireAuth, middleware.RequireRole(auth.RoleCustomer))
		{
			customer.POST("/orders", h.PlaceOrder)
			customer.GET("/orders/:id", h.GetOrder)
			customer.POST("/orders/:id/cancel", h.CancelOrder)
			customer.POST("/orders/:id/return", h.ReturnOrder)
		}

		// --- Admin-Only Routes ---
		admin := v1.Group("/admin")
		admin.Use(requireAuth, middleware.RequireRole(auth.RoleAdmin))
		{
			admin.POST("/sellers/:id/invoices/generate", h.GenerateSellerInvoice)
			admin.PUT("/sellers/:id/fee", h.SetSellerFee)
			admin.PUT("/sellers/:id/restriction", h.SetSellerRestriction)
			admin.PUT("/settings/fee", h.SetPlatformFee)

			admin.POST("/invoices/run-weekly", h.RunWeeklyInvoices)
			admin.POST("/invoices/sweep-overdue", h.SweepOverdueInvoices)
			admin.GET("/invoices", h.ListInvoices)
			admin.GET("/invoices/:id/export", h.ExportInvoice)
			admin.POST("/invoices/:id/pay", h.MarkInvoicePaid)
		}
	}

	return router
}
