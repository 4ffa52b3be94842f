package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/storefront/backend/docs"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/ws"
)

// APIVersion is the version segment of every API path
const APIVersion = "v1"

// WebhookPath is exempt from the global body limit; the handler applies its own cap
const WebhookPath = "/api/" + APIVersion + "/webhooks/stripe"

// Handlers are the HTTP handlers mounted by New
type Handlers struct {
	Health     *handler.HealthHandler
	Products   *handler.ProductHandler
	Categories *handler.CategoryHandler
	Content    *handler.ContentHandler
	Currency   *handler.CurrencyHandler
	Cart       *handler.CartHandler
	Checkout   *handler.CheckoutHandler
	Orders     *handler.OrderHandler
	Webhooks   *handler.WebhookHandler
	Auth       *handler.AuthHandler
	Admin      *handler.AdminHandler
	// Live is the admin websocket feed; nil leaves /admin/ws unmounted
	Live *ws.Handler
}

// Options configures the engine middleware
type Options struct {
	Logger         *zap.Logger
	Tracing        middleware.TracingConfig
	Profiling      middleware.ProfilingConfig
	Metrics        gin.HandlerFunc
	CORS           middleware.CORSConfig
	HSTS           bool
	MaxBodySize    int64
	TrustedProxies []string

	// nil limiters disable rate limiting
	StorefrontLimiter *middleware.RateLimiter
	LoginLimiter      *middleware.RateLimiter

	CartCookie           middleware.CartCookieConfig
	CurrencyCookieMaxAge time.Duration
	Authenticator        middleware.Authenticator
	Swagger              middleware.SwaggerConfig
}

// New builds the gin engine with the full storefront and admin API
func New(h Handlers, opts Options) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.Tracing(opts.Tracing),
		middleware.SpanEnricher(),
	)
	if opts.Metrics != nil {
		engine.Use(opts.Metrics)
	}
	engine.Use(
		middleware.Profiling(opts.Profiling),
		middleware.CORS(opts.CORS),
		middleware.Secure(opts.HSTS),
		middleware.BodyLimit(opts.MaxBodySize, WebhookPath),
	)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponseWithRequestID(dto.ErrCodeMethodNotAllowed, "Method not allowed", middleware.GetRequestID(c)))
	})

	engine.GET("/health", h.Health.Check)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(opts.Swagger, middleware.AdminAuth(opts.Authenticator, log)),
		ginSwagger.WrapHandler(swaggerFiles.Handler))

	r := NewRouter(engine, WithAPIVersion(APIVersion))
	r.Register(storefrontGroups(h, opts)...)
	r.Register(adminGroup(h, opts))
	r.Setup()

	log.Info("HTTP routes mounted", zap.Int("routes", len(engine.Routes())))
	return engine, nil
}

func storefrontGroups(h Handlers, opts Options) []RouteRegistrar {
	var limit gin.HandlerFunc
	if opts.StorefrontLimiter != nil {
		limit = middleware.RateLimit(opts.StorefrontLimiter)
	}
	display := middleware.DisplayCurrency(opts.CurrencyCookieMaxAge)
	session := middleware.CartSession(opts.CartCookie)

	system := NewDomainGroup("system", "").
		GET("/health", h.Health.Check)

	// webhooks skip the shopper rate limit
	webhooks := NewDomainGroup("webhooks", "/webhooks").
		POST("/stripe", h.Webhooks.Stripe)

	catalog := NewDomainGroup("catalog", "").Use(limit, display).
		GET("/products", h.Products.ListStorefront).
		GET("/products/:slug", h.Products.GetBySlug).
		GET("/categories", h.Categories.ListActive).
		GET("/collections", h.Content.PublishedCollections).
		GET("/collections/:slug", h.Content.GetCollection).
		GET("/banners", h.Content.LiveBanners).
		GET("/about", h.Content.GetAbout).
		GET("/currencies", h.Currency.List).
		GET("/currencies/convert", h.Currency.Convert)

	cart := NewDomainGroup("cart", "/cart").Use(limit, session, display).
		GET("", h.Cart.Get).
		DELETE("", h.Cart.Clear).
		POST("/items", h.Cart.AddItem).
		PATCH("/items/:productId", h.Cart.UpdateItem).
		DELETE("/items/:productId", h.Cart.RemoveItem)

	checkout := NewDomainGroup("checkout", "").Use(limit, session, display).
		POST("/checkout", h.Checkout.PlaceOrder).
		POST("/orders/lookup", h.Checkout.Lookup)

	return []RouteRegistrar{system, webhooks, catalog, cart, checkout}
}

func adminGroup(h Handlers, opts Options) *DomainGroup {
	admin := NewDomainGroup("admin", "/admin")

	var loginLimit gin.HandlerFunc
	if opts.LoginLimiter != nil {
		loginLimit = middleware.RateLimitByKey(opts.LoginLimiter, func(c *gin.Context) string {
			return "login:" + c.ClientIP()
		})
	}
	admin.Group("auth", "/auth").Use(loginLimit).
		POST("/login", h.Auth.Login).
		POST("/refresh", h.Auth.Refresh)

	// the feed authenticates ?token= itself
	if h.Live != nil {
		admin.GET("/ws", h.Live.Connect)
	}

	secured := admin.Group("secured", "").Use(middleware.AdminAuth(opts.Authenticator, opts.Logger))

	secured.Group("session", "/auth").
		POST("/logout", h.Auth.Logout).
		GET("/me", h.Auth.Me)

	secured.Group("products", "/products").
		GET("", h.Products.List).
		POST("", h.Products.Create).
		GET("/:id", h.Products.Get).
		PUT("/:id", h.Products.Update).
		DELETE("/:id", h.Products.Archive).
		POST("/:id/publish", h.Products.Publish).
		POST("/:id/archive", h.Products.Archive).
		POST("/:id/stock", h.Products.AdjustStock)

	secured.Group("categories", "/categories").
		GET("", h.Categories.ListAll).
		POST("", h.Categories.Create).
		GET("/:id", h.Categories.Get).
		PUT("/:id", h.Categories.Update).
		DELETE("/:id", h.Categories.Delete)

	secured.Group("orders", "/orders").
		GET("", h.Orders.List).
		GET("/:id", h.Orders.Get).
		POST("/:id/ship", h.Orders.Ship).
		POST("/:id/deliver", h.Orders.Deliver).
		POST("/:id/cancel", h.Orders.Cancel).
		POST("/:id/refund", h.Orders.Refund).
		GET("/:id/invoice.pdf", h.Orders.Invoice)

	secured.Group("banners", "/banners").
		GET("", h.Content.ListBanners).
		POST("", h.Content.CreateBanner).
		PUT("/:id", h.Content.UpdateBanner).
		DELETE("/:id", h.Content.DeleteBanner)

	secured.Group("collections", "/collections").
		GET("", h.Content.ListCollections).
		POST("", h.Content.CreateCollection).
		PUT("/:id", h.Content.UpdateCollection).
		DELETE("/:id", h.Content.DeleteCollection)

	secured.PUT("/about", h.Content.PutAbout)

	secured.Group("currencies", "/currencies").
		GET("/rates", h.Currency.Rates).
		PUT("/:code/rate", h.Currency.SetRate)

	secured.POST("/media/upload-url", h.Admin.CreateUploadURL)
	secured.GET("/dashboard", h.Admin.Dashboard)
	secured.GET("/payments/reconcile", h.Admin.Reconcile)

	return admin
}
