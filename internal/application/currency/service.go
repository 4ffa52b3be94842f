package currency

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/currency"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// RateCache caches the whole exchange rate table
type RateCache interface {
	Get(ctx context.Context) ([]currency.ExchangeRate, bool, error)
	Set(ctx context.Context, rates []currency.ExchangeRate) error
	Invalidate(ctx context.Context) error
}

// Service serves exchange rates and converts prices for display and checkout
type Service struct {
	rates         currency.RateRepository
	cache         RateCache
	base          valueobject.Currency
	display       valueobject.Currency
	defaultLocale string
	logger        *zap.Logger
}

// ServiceConfig contains configuration for Service
type ServiceConfig struct {
	Rates         currency.RateRepository
	Cache         RateCache // optional
	Base          valueobject.Currency
	Default       valueobject.Currency // display currency when a request names none
	DefaultLocale string
	Logger        *zap.Logger
}

// NewService creates a new currency Service
func NewService(cfg ServiceConfig) *Service {
	if cfg.Base == "" {
		cfg.Base = valueobject.DefaultCurrency
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = "en-US"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{
		rates:         cfg.Rates,
		cache:         cfg.Cache,
		base:          cfg.Base,
		display:       cfg.Default,
		defaultLocale: cfg.DefaultLocale,
		logger:        cfg.Logger,
	}
}

// Base returns the base currency
func (s *Service) Base() valueobject.Currency {
	return s.base
}

// Converter returns a converter over the current rate table
func (s *Service) Converter(ctx context.Context) (*currency.Converter, error) {
	rates, err := s.loadRates(ctx)
	if err != nil {
		return nil, err
	}
	return currency.NewConverter(s.base, rates), nil
}

// ListCurrencies returns every supported currency with its current rate.
// Currencies without a rate are listed as unavailable.
func (s *Service) ListCurrencies(ctx context.Context) ([]CurrencyResponse, error) {
	conv, err := s.Converter(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CurrencyResponse, 0, len(valueobject.SupportedCurrencies()))
	for _, c := range valueobject.SupportedCurrencies() {
		item := CurrencyResponse{
			Code:     c.String(),
			Symbol:   Symbol(c, s.defaultLocale),
			Decimals: c.MinorUnitExponent(),
			IsBase:   c == s.base,
		}
		if rate, err := conv.Rate(c); err == nil {
			item.Rate = rate.String()
			item.Available = true
		}
		out = append(out, item)
	}
	return out, nil
}

// GetRates returns the stored rates
func (s *Service) GetRates(ctx context.Context) ([]RateResponse, error) {
	rates, err := s.loadRates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RateResponse, 0, len(rates))
	for _, r := range rates {
		out = append(out, ToRateResponse(r))
	}
	return out, nil
}

// SetRate stores the rate of a non-base currency and invalidates cached rates
func (s *Service) SetRate(ctx context.Context, req SetRateRequest) (*RateResponse, error) {
	c, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		return nil, shared.ErrUnsupportedCurrency
	}
	if c == s.base {
		return nil, shared.NewDomainError("BASE_CURRENCY_RATE", fmt.Sprintf("The rate of the base currency %s is always 1", s.base))
	}
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_RATE", "Exchange rate must be a decimal number")
	}
	r, err := currency.NewExchangeRate(c, rate)
	if err != nil {
		return nil, err
	}
	if err := s.rates.Save(ctx, r); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("Failed to invalidate rate cache", zap.Error(err))
		}
	}

	s.logger.Info("Exchange rate updated",
		zap.String("currency", c.String()),
		zap.String("rate", r.Rate.String()))
	resp := ToRateResponse(r)
	return &resp, nil
}

// Convert converts an amount between two supported currencies
func (s *Service) Convert(ctx context.Context, req ConvertRequest) (*ConvertResponse, error) {
	from, err := valueobject.ParseCurrency(req.From)
	if err != nil {
		return nil, shared.ErrUnsupportedCurrency
	}
	to, err := valueobject.ParseCurrency(req.To)
	if err != nil {
		return nil, shared.ErrUnsupportedCurrency
	}
	m, err := valueobject.NewMoneyFromString(req.Amount, from)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be a decimal number")
	}
	conv, err := s.Converter(ctx)
	if err != nil {
		return nil, err
	}
	out, err := conv.Convert(m, to)
	if err != nil {
		return nil, err
	}
	return &ConvertResponse{
		Amount:    out.Amount().StringFixed(to.MinorUnitExponent()),
		Currency:  to.String(),
		Formatted: Format(out, s.defaultLocale),
	}, nil
}

// Format renders money for display in locale, or the default locale when empty
func (s *Service) Format(m valueobject.Money, locale string) string {
	if locale == "" {
		locale = s.defaultLocale
	}
	return Format(m, locale)
}

// ResolveDisplay picks the display currency of a request. The configured
// default is tried after the request's own candidates.
func (s *Service) ResolveDisplay(conv *currency.Converter, candidates ...string) valueobject.Currency {
	if s.display != "" {
		candidates = append(candidates, s.display.String())
	}
	return ResolveDisplayCurrency(conv, candidates...)
}

// ResolveDisplayCurrency picks the first candidate the converter can serve, else the base currency
func ResolveDisplayCurrency(conv *currency.Converter, candidates ...string) valueobject.Currency {
	for _, code := range candidates {
		if code == "" {
			continue
		}
		c, err := valueobject.ParseCurrency(code)
		if err != nil {
			continue
		}
		if conv.Supports(c) {
			return c
		}
	}
	return conv.Base()
}

func (s *Service) loadRates(ctx context.Context) ([]currency.ExchangeRate, error) {
	if s.cache != nil {
		rates, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("Rate cache read failed", zap.Error(err))
		}
		if ok {
			return rates, nil
		}
	}

	rates, err := s.rates.FindAll(ctx)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("load exchange rates: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, rates); err != nil {
			s.logger.Warn("Rate cache write failed", zap.Error(err))
		}
	}
	return rates, nil
}
