package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	appcurrency "github.com/storefront/backend/internal/application/currency"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// Service manages anonymous shopping carts
type Service struct {
	carts    cart.CartRepository
	products catalog.ProductRepository
	currency *appcurrency.Service
	shipping ShippingPolicy
	imageURL ImageURLFunc
	logger   *zap.Logger
}

// ServiceConfig contains configuration for Service
type ServiceConfig struct {
	Carts    cart.CartRepository
	Products catalog.ProductRepository
	Currency *appcurrency.Service
	Shipping ShippingPolicy
	ImageURL ImageURLFunc
	Logger   *zap.Logger
}

// NewService creates a new cart Service
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{
		carts:    cfg.Carts,
		products: cfg.Products,
		currency: cfg.Currency,
		shipping: cfg.Shipping,
		imageURL: cfg.ImageURL,
		logger:   cfg.Logger,
	}
}

// Shipping returns the shipping policy
func (s *Service) Shipping() ShippingPolicy {
	return s.shipping
}

// GetOrCreate loads the cart of a session. An unknown or malformed token yields a new, unsaved cart;
// the returned cart's SessionToken is the one the client must keep.
func (s *Service) GetOrCreate(ctx context.Context, token string) (*cart.Cart, error) {
	if cart.IsValidSessionToken(token) {
		c, err := s.carts.FindBySessionToken(ctx, token)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		return cart.NewCart(token)
	}
	fresh, err := cart.NewSessionToken()
	if err != nil {
		return nil, err
	}
	return cart.NewCart(fresh)
}

// View prices the session's cart in the display currency
func (s *Service) View(ctx context.Context, token, display string) (*CartView, string, error) {
	c, err := s.GetOrCreate(ctx, token)
	if err != nil {
		return nil, "", err
	}
	view, err := s.render(ctx, c, display)
	if err != nil {
		return nil, "", err
	}
	return view, c.SessionToken, nil
}

// Quote prices a cart in the display currency without rendering it
func (s *Service) Quote(ctx context.Context, c *cart.Cart, display string) (*Quote, error) {
	products, err := s.loadProducts(ctx, c)
	if err != nil {
		return nil, err
	}
	conv, err := s.currency.Converter(ctx)
	if err != nil {
		return nil, err
	}
	target := s.currency.ResolveDisplay(conv, display)
	return PriceCart(c, products, conv, target, s.shipping)
}

// AddItem adds units of a purchasable product, limited by its current stock
func (s *Service) AddItem(ctx context.Context, token, display string, req AddItemRequest) (*CartView, string, error) {
	return s.mutate(ctx, token, display, func(c *cart.Cart) error {
		p, err := s.products.FindByID(ctx, req.ProductID)
		if errors.Is(err, shared.ErrNotFound) {
			return cart.ErrNotPurchasable
		}
		if err != nil {
			return err
		}
		if !p.IsPurchasable() {
			return cart.ErrNotPurchasable
		}
		return c.AddItem(p.ID, req.Quantity, p.Stock)
	})
}

// UpdateQuantity sets the quantity of a line; zero removes it
func (s *Service) UpdateQuantity(ctx context.Context, token, display string, productID uuid.UUID, req UpdateItemRequest) (*CartView, string, error) {
	return s.mutate(ctx, token, display, func(c *cart.Cart) error {
		if req.Quantity == 0 {
			return c.RemoveItem(productID)
		}
		p, err := s.products.FindByID(ctx, productID)
		if errors.Is(err, shared.ErrNotFound) {
			return cart.ErrNotPurchasable
		}
		if err != nil {
			return err
		}
		if !p.IsPurchasable() {
			return cart.ErrNotPurchasable
		}
		return c.UpdateQuantity(productID, req.Quantity, p.Stock)
	})
}

// RemoveItem removes a product line
func (s *Service) RemoveItem(ctx context.Context, token, display string, productID uuid.UUID) (*CartView, string, error) {
	return s.mutate(ctx, token, display, func(c *cart.Cart) error {
		return c.RemoveItem(productID)
	})
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context, token, display string) (*CartView, string, error) {
	return s.mutate(ctx, token, display, func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

// PurgeStale deletes carts untouched for longer than ttl
func (s *Service) PurgeStale(ctx context.Context, ttl time.Duration) (int64, error) {
	n, err := s.carts.DeleteStale(ctx, time.Now().Add(-ttl))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Purged stale carts", zap.Int64("count", n))
	}
	return n, nil
}

func (s *Service) mutate(ctx context.Context, token, display string, fn func(c *cart.Cart) error) (*CartView, string, error) {
	c, err := s.GetOrCreate(ctx, token)
	if err != nil {
		return nil, "", err
	}
	if err := fn(c); err != nil {
		return nil, c.SessionToken, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, c.SessionToken, err
	}
	view, err := s.render(ctx, c, display)
	if err != nil {
		return nil, c.SessionToken, err
	}
	return view, c.SessionToken, nil
}

func (s *Service) render(ctx context.Context, c *cart.Cart, display string) (*CartView, error) {
	q, err := s.Quote(ctx, c, display)
	if err != nil {
		return nil, err
	}
	view := ToCartView(c.ID, q, s.imageURL, func(m valueobject.Money) string {
		return s.currency.Format(m, "")
	})
	return &view, nil
}

func (s *Service) loadProducts(ctx context.Context, c *cart.Cart) (map[uuid.UUID]*catalog.Product, error) {
	if c.IsEmpty() {
		return map[uuid.UUID]*catalog.Product{}, nil
	}
	products, err := s.products.FindByIDs(ctx, c.ProductIDs())
	if err != nil {
		return nil, err
	}
	return IndexProducts(products), nil
}
