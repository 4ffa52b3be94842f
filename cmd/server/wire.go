package main

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	cartapp "github.com/storefront/backend/internal/application/cart"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	contentapp "github.com/storefront/backend/internal/application/content"
	currencyapp "github.com/storefront/backend/internal/application/currency"
	"github.com/storefront/backend/internal/application/dashboard"
	identityapp "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/application/media"
	"github.com/storefront/backend/internal/application/notification"
	orderapp "github.com/storefront/backend/internal/application/order"
	paymentapp "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/email"
	"github.com/storefront/backend/internal/infrastructure/event"
	stripeinfra "github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/printing"
	"github.com/storefront/backend/internal/infrastructure/scheduler"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"github.com/storefront/backend/internal/interfaces/ws"
)

const (
	busWorkers   = 4
	busQueueSize = 256
)

// application is the wired object graph served by the HTTP server
type application struct {
	handlers  router.Handlers
	auth      *identityapp.AuthService
	bus       *event.InMemoryEventBus
	scheduler *scheduler.Scheduler
	live      *ws.Hub
	invoices  *printing.ChromedpRenderer
	dedup     shared.IdempotencyStore
}

func (a *application) close(log *zap.Logger) {
	if err := a.invoices.Close(); err != nil {
		log.Warn("Invoice renderer close failed", zap.Error(err))
	}
	// the in-memory store runs a sweeper
	if c, ok := a.dedup.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn("Idempotency store close failed", zap.Error(err))
		}
	}
}

func buildApp(ctx context.Context, cfg *config.Config, log *zap.Logger, db *persistence.Database, rdb *redis.Client, meters *telemetry.MeterProvider) (*application, error) {
	base, err := valueobject.ParseCurrency(cfg.Currency.Base)
	if err != nil {
		return nil, fmt.Errorf("currency.base: %w", err)
	}
	displayDefault, err := valueobject.ParseCurrency(cfg.Currency.Default)
	if err != nil {
		return nil, fmt.Errorf("currency.default: %w", err)
	}

	products := persistence.NewGormProductRepository(db.DB)
	categories := persistence.NewGormCategoryRepository(db.DB)
	carts := persistence.NewGormCartRepository(db.DB)
	orders := persistence.NewGormOrderRepository(db.DB)
	payments := persistence.NewGormPaymentRepository(db.DB)
	rates := persistence.NewGormRateRepository(db.DB)
	admins := persistence.NewGormAdminUserRepository(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)

	bus := event.NewInMemoryEventBus(log.Named("events"), event.WithWorkers(busWorkers, busQueueSize))

	rateCache, err := newRateCache(ctx, cfg, rdb, log)
	if err != nil {
		return nil, err
	}
	currencyService := currencyapp.NewService(currencyapp.ServiceConfig{
		Rates:         rates,
		Cache:         rateCache,
		Base:          base,
		Default:       displayDefault,
		DefaultLocale: cfg.Currency.DefaultLocale,
		Logger:        log,
	})

	objects, err := newObjectStorage(cfg, log)
	if err != nil {
		return nil, err
	}
	mediaService := media.NewService(media.ServiceConfig{
		Storage:       objects,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		UploadExpiry:  cfg.Storage.PresignExpiry,
		Logger:        log,
	})

	productService := catalogapp.NewProductService(catalogapp.ProductServiceConfig{
		Products:   products,
		Categories: categories,
		Currency:   currencyService,
		ImageURL:   mediaService.PublicURL,
		Publisher:  bus,
		Logger:     log,
	})
	categoryService := catalogapp.NewCategoryService(categories, log)

	contentService := contentapp.NewService(contentapp.ServiceConfig{
		Banners:     persistence.NewGormBannerRepository(db.DB),
		Collections: persistence.NewGormCollectionRepository(db.DB),
		About:       persistence.NewGormAboutPageRepository(db.DB),
		Products:    products,
		Currency:    currencyService,
		ImageURL:    mediaService.PublicURL,
		Logger:      log,
	})

	cartService := cartapp.NewService(cartapp.ServiceConfig{
		Carts:    carts,
		Products: products,
		Currency: currencyService,
		Shipping: cartapp.ShippingPolicy{
			FlatRate:      cfg.Checkout.ShippingFlatRate,
			FreeThreshold: cfg.Checkout.FreeShippingThreshold,
		},
		ImageURL: mediaService.PublicURL,
		Logger:   log,
	})

	// an interface holding a nil *StripeProvider would not compare equal to nil
	var provider payment.Provider
	if cfg.Stripe.Enabled() {
		stripeProvider, err := stripeinfra.NewStripeProvider(cfg.Stripe, log)
		if err != nil {
			return nil, err
		}
		provider = stripeProvider
		if cfg.Stripe.IsTestMode() {
			log.Info("Stripe running in test mode")
		}
	} else {
		log.Warn("Stripe secret key not set, card payments are disabled")
	}

	settlement := paymentapp.NewSettlement(scope, bus, log)

	checkoutService := checkoutapp.NewService(checkoutapp.ServiceConfig{
		Scope:      scope,
		Carts:      carts,
		Orders:     orders,
		Payments:   payments,
		Pricing:    cartService,
		Provider:   provider,
		Settlement: settlement,
		Publisher:  bus,
		Options: checkoutapp.Options{
			CODEnabled:   cfg.Checkout.CODEnabled,
			CODCountries: cfg.Checkout.CODCountries,
			SessionTTL:   cfg.Checkout.SessionTTL,
			SuccessURL:   cfg.App.PublicURL + cfg.Stripe.SuccessPath,
			CancelURL:    cfg.App.PublicURL + cfg.Stripe.CancelPath,
		},
		Logger: log,
	})

	chrome := printing.NewChromedpRenderer(printing.ConfigFromSettings(cfg.Printing, log))
	orderService := orderapp.NewService(orderapp.ServiceConfig{
		Orders:     orders,
		Payments:   payments,
		Settlement: settlement,
		Provider:   provider,
		Invoices: printing.NewInvoiceRenderer(chrome, printing.InvoiceConfig{
			StoreName: cfg.App.StoreName,
			Locale:    cfg.Currency.DefaultLocale,
			Logger:    log,
		}),
		Publisher: bus,
		Logger:    log,
	})

	idempotency, err := cache.NewIdempotencyStoreFactory(rdb, cache.WithLogger(log)).CreateStore()
	if err != nil {
		return nil, err
	}

	webhookService := paymentapp.NewWebhookService(paymentapp.WebhookServiceConfig{
		Provider:    provider,
		Payments:    payments,
		Settlement:  settlement,
		Idempotency: idempotency,
		TTL:         cfg.Stripe.IdempotencyTTL,
		Logger:      log,
	})
	reconciler := paymentapp.NewReconciliationService(paymentapp.ReconciliationConfig{
		Provider:   provider,
		Payments:   payments,
		Settlement: settlement,
		After:      cfg.Scheduler.ReconcileAfter,
		BatchSize:  cfg.Scheduler.ReconcileBatch,
		Logger:     log,
	})

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if rdb != nil {
		blacklist = auth.NewRedisTokenBlacklist(rdb)
	}
	authService := identityapp.NewAuthService(identityapp.AuthServiceConfig{
		Admins:           admins,
		Tokens:           auth.NewJWTService(cfg.JWT),
		Blacklist:        blacklist,
		MaxLoginAttempts: cfg.JWT.MaxLoginAttempts,
		LockDuration:     cfg.JWT.LockDuration,
		Logger:           log,
	})

	dashboardService := dashboard.NewService(dashboard.ServiceConfig{
		Orders:            orders,
		Payments:          payments,
		Products:          products,
		Base:              base,
		LowStockThreshold: cfg.Checkout.LowStockThreshold,
		Logger:            log,
	})

	hub := ws.NewHub(log.Named("ws"))
	if err := subscribeHandlers(cfg, log, bus, hub, orders, currencyService, idempotency, meters); err != nil {
		return nil, err
	}

	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		var rec scheduler.Reconciler
		if provider != nil {
			rec = reconciler
		}
		jobs, err = scheduler.NewStorefrontScheduler(cfg.Scheduler, cfg.Checkout.CartTTL, rec, cartService, log)
		if err != nil {
			return nil, err
		}
	} else {
		jobs = scheduler.NewScheduler(scheduler.DefaultConfig(), log.Named("scheduler"))
	}

	cookie := middleware.CartCookieConfig{
		Name:   cfg.HTTP.CartCookieName,
		Secure: cfg.HTTP.CartCookieSecure,
		MaxAge: cfg.HTTP.CartCookieMaxAge,
	}

	return &application{
		handlers: router.Handlers{
			Health:     handler.NewHealthHandler(db),
			Products:   handler.NewProductHandler(productService),
			Categories: handler.NewCategoryHandler(categoryService),
			Content:    handler.NewContentHandler(contentService),
			Currency:   handler.NewCurrencyHandler(currencyService),
			Cart:       handler.NewCartHandler(cartService, cookie),
			Checkout:   handler.NewCheckoutHandler(checkoutService, orderService),
			Orders:     handler.NewOrderHandler(orderService),
			Webhooks:   handler.NewWebhookHandler(webhookService),
			Auth:       handler.NewAuthHandler(authService),
			Admin:      handler.NewAdminHandler(mediaService, dashboardService, reconciler),
			Live:       ws.NewHandler(hub, authService, cfg.HTTP.CORSAllowOrigins),
		},
		auth:      authService,
		bus:       bus,
		scheduler: jobs,
		live:      hub,
		invoices:  chrome,
		dedup:     idempotency,
	}, nil
}

// subscribeHandlers attaches the order email sender, the live admin feed and
// the shop metrics to the event bus
func subscribeHandlers(
	cfg *config.Config,
	log *zap.Logger,
	bus *event.InMemoryEventBus,
	hub *ws.Hub,
	orders *persistence.GormOrderRepository,
	currency *currencyapp.Service,
	idempotency shared.IdempotencyStore,
	meters *telemetry.MeterProvider,
) error {
	mailer, err := email.NewMailer(cfg.Email, log)
	if err != nil {
		return err
	}
	emails := notification.NewOrderEmailHandler(notification.OrderEmailConfig{
		Orders: orders,
		Mailer: mailer,
		Format: func(m valueobject.Money) string {
			return currency.Format(m, cfg.Currency.DefaultLocale)
		},
		StoreName:  cfg.App.StoreName,
		SupportURL: cfg.App.SupportURL,
		PublicURL:  cfg.App.PublicURL,
		Logger:     log,
	})
	bus.Subscribe(event.NewIdempotentHandler("order-email", emails, idempotency, log))
	bus.Subscribe(hub)

	if meters.IsEnabled() {
		shop, err := telemetry.NewShopMetrics(meters.Meter("storefront"))
		if err != nil {
			return err
		}
		bus.Subscribe(shop)
	}
	return nil
}

func newRateCache(ctx context.Context, cfg *config.Config, rdb *redis.Client, log *zap.Logger) (currencyapp.RateCache, error) {
	local := cache.NewInMemoryRateCache(cfg.Currency.CacheTTL)
	if rdb == nil {
		return local, nil
	}
	tiered := cache.NewTieredRateCache(
		local,
		cache.NewRedisRateCache(rdb, cfg.Currency.CacheTTL, log),
		cache.NewRedisRateInvalidator(rdb, log),
		log,
	)
	if err := tiered.StartInvalidationSubscription(ctx); err != nil {
		return nil, err
	}
	return tiered, nil
}

func newObjectStorage(cfg *config.Config, log *zap.Logger) (media.ObjectStorage, error) {
	if cfg.Storage.Type == "s3" {
		return storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
	}
	log.Warn("Using stub object storage; uploads are not persisted")
	return storage.NewStubObjectStorage(cfg.Storage.PublicBaseURL), nil
}
