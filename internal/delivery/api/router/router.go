// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"storefront/internal/delivery/api/router/handler"
	"storefront/internal/delivery/middleware"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	CartHandler        *handler.CartHandler
	WishlistHandler    *handler.WishlistHandler
	CouponHandler      *handler.CouponHandler
	CheckoutHandler    *handler.CheckoutHandler
	StoreHandler       *handler.StoreHandler
	SessionMiddleware  *middleware.SessionMiddleware
	IdentityMiddleware *middleware.IdentityMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	cartHandler        *handler.CartHandler
	wishlistHandler    *handler.WishlistHandler
	couponHandler      *handler.CouponHandler
	checkoutHandler    *handler.CheckoutHandler
	storeHandler       *handler.StoreHandler
	sessionMiddleware  *middleware.SessionMiddleware
	identityMiddleware *middleware.IdentityMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		cartHandler:        params.CartHandler,
		wishlistHandler:    params.WishlistHandler,
		couponHandler:      params.CouponHandler,
		checkoutHandler:    params.CheckoutHandler,
		storeHandler:       params.StoreHandler,
		sessionMiddleware:  params.SessionMiddleware,
		identityMiddleware: params.IdentityMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	apiV1 := e.Group("/api/v1")

	// Store data is shared by every shopper
	storeGroup := apiV1.Group("/store")
	{
		storeGroup.GET("/countries", r.storeHandler.GetCountries)
		storeGroup.GET("/payment-gateways", r.storeHandler.GetPaymentGateways)
		storeGroup.GET("/shipping-options", r.storeHandler.GetShippingOptions)
	}

	// Everything else belongs to a browser session and an identity
	session := []echo.MiddlewareFunc{r.sessionMiddleware.Process, r.identityMiddleware.Process}

	cartGroup := apiV1.Group("/cart", session...)
	{
		cartGroup.GET("", r.cartHandler.GetCart)
		cartGroup.DELETE("", r.cartHandler.ClearCart)
		cartGroup.POST("/items", r.cartHandler.AddItem)
		cartGroup.PUT("/items/:key", r.cartHandler.UpdateItem)
		cartGroup.DELETE("/items/:key", r.cartHandler.RemoveItem)
		cartGroup.PUT("/shipping", r.cartHandler.SelectShipping)
		cartGroup.DELETE("/shipping", r.cartHandler.ClearShipping)
	}

	wishlistGroup := apiV1.Group("/wishlist", session...)
	{
		wishlistGroup.GET("", r.wishlistHandler.GetWishlist)
		wishlistGroup.POST("", r.wishlistHandler.AddItem)
		wishlistGroup.DELETE("", r.wishlistHandler.ClearWishlist)
		wishlistGroup.GET("/:productId", r.wishlistHandler.Contains)
		wishlistGroup.DELETE("/:productId", r.wishlistHandler.RemoveItem)
	}

	couponsGroup := apiV1.Group("/coupons", session...)
	{
		couponsGroup.POST("/validate", r.couponHandler.Validate)
		couponsGroup.POST("", r.couponHandler.Apply)
		couponsGroup.DELETE("/:code", r.couponHandler.Remove)
	}

	checkoutGroup := apiV1.Group("/checkout", session...)
	{
		checkoutGroup.GET("", r.checkoutHandler.GetCheckout)
		checkoutGroup.POST("", r.checkoutHandler.Submit)
		checkoutGroup.POST("/payment", r.checkoutHandler.ConfirmPayment)
		checkoutGroup.POST("/cancel", r.checkoutHandler.Cancel)
		checkoutGroup.GET("/orders/:id", r.checkoutHandler.GetOrder)
	}
}
