package router

import (
	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/interfaces/http/handler"
)

// Handlers groups the HTTP handlers mounted by RegisterStorefrontRoutes
type Handlers struct {
	Auth    *handler.AuthHandler
	Product *handler.ProductHandler
	Basket  *handler.BasketHandler
	System  *handler.SystemHandler
}

// Guards are the per-route middlewares. RequireAuth must not be empty;
// AuthRateLimit may be nil when credential rate limiting is disabled.
type Guards struct {
	RequireAuth   gin.HandlersChain
	AuthRateLimit gin.HandlerFunc
}

// RegisterStorefrontRoutes registers the auth, catalog and basket API.
// Catalog reads are public; every basket route requires a user.
func RegisterStorefrontRoutes(r *Router, h Handlers, g Guards) {
	r.Register(SystemRoutes(h.System)).
		Register(AuthRoutes(h.Auth, g)).
		Register(CatalogRoutes(h.Product, g)).
		Register(BasketRoutes(h.Basket, g))
}

// SystemRoutes serves health and build information
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	routes := NewDomainGroup("system", "")
	routes.GET("/health", h.Health)
	routes.GET("/system/info", h.GetSystemInfo)
	return routes
}

// AuthRoutes serves registration, login and the current user's profile
func AuthRoutes(h *handler.AuthHandler, g Guards) *DomainGroup {
	routes := NewDomainGroup("auth", "/auth")
	routes.POST("/register", h.Register)
	if g.AuthRateLimit != nil {
		routes.POST("/login", g.AuthRateLimit, h.Login)
	} else {
		routes.POST("/login", h.Login)
	}

	secured := routes.Group("auth-secured", "").Use(g.RequireAuth...)
	secured.POST("/logout", h.Logout)
	secured.GET("/current-user", h.GetCurrentUser)
	secured.PUT("/profile", h.UpdateProfile)
	return routes
}

// CatalogRoutes serves the product catalog
func CatalogRoutes(h *handler.ProductHandler, g Guards) *DomainGroup {
	routes := NewDomainGroup("catalog", "/catalog")
	routes.GET("/products", h.List)
	routes.GET("/products/:id", h.GetByID)

	manage := routes.Group("catalog-manage", "/products").Use(g.RequireAuth...)
	manage.POST("", h.Create)
	manage.PUT("/:id", h.Update)
	manage.DELETE("/:id", h.Delete)
	manage.POST("/:id/stock", h.AdjustStock)
	manage.POST("/:id/image/upload-url", h.GenerateImageUploadURL)
	manage.POST("/:id/image/confirm", h.ConfirmImage)
	return routes
}

// BasketRoutes serves the active basket and basket history
func BasketRoutes(h *handler.BasketHandler, g Guards) *DomainGroup {
	routes := NewDomainGroup("basket", "").Use(g.RequireAuth...)

	active := routes.Group("basket-active", "/basket")
	active.GET("", h.GetActive)
	active.POST("/items", h.AddItem)
	active.PUT("/items/:item_id", h.UpdateItem)
	active.DELETE("/items/:item_id", h.RemoveItem)
	active.POST("/checkout", h.Checkout)

	history := routes.Group("basket-history", "/baskets")
	history.GET("", h.List)
	history.GET("/:id", h.GetByID)
	return routes
}
