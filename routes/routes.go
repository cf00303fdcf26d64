package routes

import (
	"vendia/cart"
	"vendia/invoices"
	"vendia/middleware"
	"vendia/orders"
	"vendia/pay"
	"vendia/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddCartRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, cartSvc *cart.Service) {
	auth := middleware.Chain(rl.Limit, middleware.Authenticate)

	router.GET("/api/v1/cart", auth(cartSvc.GetCart))
	router.POST("/api/v1/cart/items", auth(cartSvc.AddToCart))
	router.PATCH("/api/v1/cart/items/:lineId", auth(cartSvc.UpdateCartItem))
	router.DELETE("/api/v1/cart/items/:lineId", auth(cartSvc.RemoveCartItem))
}

func AddOrderRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, orderSvc *orders.Service) {
	auth := middleware.Chain(rl.Limit, middleware.Authenticate)

	router.POST("/api/v1/orders",
		middleware.Chain(rl.Limit, middleware.Authenticate, pay.Idempotency)(orderSvc.PlaceOrderHandler))
	router.GET("/api/v1/orders", auth(orderSvc.ListOrdersHandler))
	router.GET("/api/v1/orders/:orderId", auth(orderSvc.GetOrderHandler))
	// Capability checks beyond authentication happen inside the transition
	router.PATCH("/api/v1/orders/:orderId/status", auth(orderSvc.UpdateStatusHandler))
}

func AddPayRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, reconciler *pay.Reconciler) {
	router.POST("/api/v1/payments/intents/:orderId",
		middleware.Chain(rl.Limit, middleware.Authenticate, pay.Idempotency)(reconciler.CreateIntentHandler))

	// Authenticated by signature, not by JWT
	router.POST("/api/v1/payments/webhook", reconciler.WebhookHandler)
}

func AddInvoiceRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, invoiceSvc *invoices.Service) {
	auth := middleware.Chain(rl.Limit, middleware.Authenticate)

	router.GET("/api/v1/invoices/:orderId", auth(invoiceSvc.GetInvoiceHandler))
	router.GET("/api/v1/invoices/:orderId/pdf", auth(invoiceSvc.InvoicePDFHandler))
}
