package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cartapp "github.com/storefront/backend/internal/application/cart"
	currencyapp "github.com/storefront/backend/internal/application/currency"
	identityapp "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/application/notification"
	paymentapp "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/email"
	"github.com/storefront/backend/internal/infrastructure/event"
	stripeinfra "github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/persistence"
)

const passwordEnv = "SHOP_ADMIN_PASSWORD"

func createAdminCmd(open opener) *cobra.Command {
	var req identityapp.CreateAdminRequest

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		Long:  "Create an admin account. The password is read from --password or " + passwordEnv + ".",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Password == "" {
				req.Password = os.Getenv(passwordEnv)
			}
			if req.Password == "" {
				return fmt.Errorf("a password is required (--password or %s)", passwordEnv)
			}

			e, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			svc := identityapp.NewAuthService(identityapp.AuthServiceConfig{
				Admins:    persistence.NewGormAdminUserRepository(e.db.DB),
				Tokens:    auth.NewJWTService(e.cfg.JWT),
				Blacklist: auth.NewInMemoryTokenBlacklist(),
				Logger:    e.log,
			})
			admin, err := svc.CreateAdmin(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s <%s> (%s)\n", admin.Name, admin.Email, admin.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Login email")
	cmd.Flags().StringVar(&req.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password, at least 8 characters")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func setRateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:     "set-rate <currency> <rate>",
		Short:   "Set the exchange rate of a currency against the base currency",
		Example: "  storectl set-rate EUR 0.92",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			svc, err := currencyService(e)
			if err != nil {
				return err
			}
			rate, err := svc.SetRate(cmd.Context(), currencyapp.SetRateRequest{Currency: args[0], Rate: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "1 %s = %s %s\n", svc.Base(), rate.Rate, rate.Currency)
			if e.cfg.Redis.Enabled {
				invalidateRates(cmd, e)
			}
			return nil
		},
	}
}

// invalidateRates tells running servers to drop their cached rate table
func invalidateRates(cmd *cobra.Command, e *env) {
	rdb, err := cache.NewRedisClient(cmd.Context(), e.cfg.Redis)
	if err != nil {
		e.log.Warn("Redis unavailable, servers keep cached rates until they expire", zap.Error(err))
		return
	}
	defer func() { _ = rdb.Close() }()
	if err := cache.NewRedisRateInvalidator(rdb, e.log).Publish(cmd.Context()); err != nil {
		e.log.Warn("Rate invalidation failed", zap.Error(err))
	}
}

func reconcileCmd(open opener) *cobra.Command {
	var (
		after time.Duration
		batch int
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Settle stale pending card payments by asking Stripe for their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			if !e.cfg.Stripe.Enabled() {
				return errors.New("stripe is not configured")
			}
			provider, err := stripeinfra.NewStripeProvider(e.cfg.Stripe, e.log)
			if err != nil {
				return err
			}

			bus, err := emailBus(e)
			if err != nil {
				return err
			}
			if err := bus.Start(cmd.Context()); err != nil {
				return err
			}
			defer func() {
				if err := bus.Stop(cmd.Context()); err != nil {
					e.log.Warn("Pending notifications were not sent", zap.Error(err))
				}
			}()

			if after == 0 {
				after = e.cfg.Scheduler.ReconcileAfter
			}
			if batch == 0 {
				batch = e.cfg.Scheduler.ReconcileBatch
			}
			scope := persistence.NewGormTransactionScope(e.db.DB)
			svc := paymentapp.NewReconciliationService(paymentapp.ReconciliationConfig{
				Provider:   provider,
				Payments:   persistence.NewGormPaymentRepository(e.db.DB),
				Settlement: paymentapp.NewSettlement(scope, bus, e.log),
				After:      after,
				BatchSize:  batch,
				Logger:     e.log,
			})
			report, err := svc.Run(cmd.Context())
			if report != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "checked=%d succeeded=%d cancelled=%d errors=%d in %s\n",
					report.Checked, report.Succeeded, report.Cancelled, report.Errors, report.Duration.Round(time.Millisecond))
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&after, "after", 0, "Only payments pending longer than this (default from config)")
	cmd.Flags().IntVar(&batch, "batch", 0, "Maximum payments per run (default from config)")
	return cmd
}

func currencyService(e *env) (*currencyapp.Service, error) {
	base, err := valueobject.ParseCurrency(e.cfg.Currency.Base)
	if err != nil {
		return nil, fmt.Errorf("currency.base: %w", err)
	}
	display, err := valueobject.ParseCurrency(e.cfg.Currency.Default)
	if err != nil {
		return nil, fmt.Errorf("currency.default: %w", err)
	}
	return currencyapp.NewService(currencyapp.ServiceConfig{
		Rates:         persistence.NewGormRateRepository(e.db.DB),
		Base:          base,
		Default:       display,
		DefaultLocale: e.cfg.Currency.DefaultLocale,
		Logger:        e.log,
	}), nil
}

// emailBus delivers the confirmation emails that settling a payment triggers
func emailBus(e *env) (*event.InMemoryEventBus, error) {
	mailer, err := email.NewMailer(e.cfg.Email, e.log)
	if err != nil {
		return nil, err
	}
	rates, err := currencyService(e)
	if err != nil {
		return nil, err
	}
	bus := event.NewInMemoryEventBus(e.log)
	bus.Subscribe(notification.NewOrderEmailHandler(notification.OrderEmailConfig{
		Orders: persistence.NewGormOrderRepository(e.db.DB),
		Mailer: mailer,
		Format: func(m valueobject.Money) string {
			return rates.Format(m, e.cfg.Currency.DefaultLocale)
		},
		StoreName:  e.cfg.App.StoreName,
		SupportURL: e.cfg.App.SupportURL,
		PublicURL:  e.cfg.App.PublicURL,
		Logger:     e.log,
	}))
	return bus, nil
}

func purgeCartsCmd(open opener) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "purge-carts",
		Short: "Delete carts that have not been touched for the given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			if ttl == 0 {
				ttl = e.cfg.Checkout.CartTTL
			}
			if ttl <= 0 {
				return errors.New("--older-than must be positive")
			}
			svc := cartapp.NewService(cartapp.ServiceConfig{
				Carts:    persistence.NewGormCartRepository(e.db.DB),
				Products: persistence.NewGormProductRepository(e.db.DB),
				Logger:   e.log,
			})
			n, err := svc.PurgeStale(cmd.Context(), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d carts idle for more than %s\n", n, ttl)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "older-than", 0, "Idle age (default from config)")
	return cmd
}
