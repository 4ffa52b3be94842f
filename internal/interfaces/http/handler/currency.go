package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	currencyapp "github.com/storefront/backend/internal/application/currency"
)

// CurrencyService lists display currencies and maintains exchange rates
type CurrencyService interface {
	ListCurrencies(ctx context.Context) ([]currencyapp.CurrencyResponse, error)
	GetRates(ctx context.Context) ([]currencyapp.RateResponse, error)
	SetRate(ctx context.Context, req currencyapp.SetRateRequest) (*currencyapp.RateResponse, error)
	Convert(ctx context.Context, req currencyapp.ConvertRequest) (*currencyapp.ConvertResponse, error)
}

// CurrencyHandler handles currency endpoints
type CurrencyHandler struct {
	BaseHandler
	currency CurrencyService
}

// NewCurrencyHandler creates a new CurrencyHandler
func NewCurrencyHandler(currency CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{currency: currency}
}

type setRateBody struct {
	Rate string `json:"rate" binding:"required"`
}

// List handles GET /currencies
//
// @Summary      List display currencies
// @Tags         currency
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /currencies [get]
func (h *CurrencyHandler) List(c *gin.Context) {
	currencies, err := h.currency.ListCurrencies(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, currencies)
}

// Convert handles GET /currencies/convert?amount=&from=&to=
//
// @Summary      Convert an amount between currencies
// @Tags         currency
// @Produce      json
// @Param        request query currencyapp.ConvertRequest false "Filters"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /currencies/convert [get]
func (h *CurrencyHandler) Convert(c *gin.Context) {
	var req currencyapp.ConvertRequest
	if !bindQuery(c, &req) {
		return
	}
	out, err := h.currency.Convert(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Rates handles GET /admin/currencies/rates
//
// @Summary      List exchange rates
// @Tags         admin-currency
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/currencies/rates [get]
func (h *CurrencyHandler) Rates(c *gin.Context) {
	rates, err := h.currency.GetRates(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rates)
}

// SetRate handles PUT /admin/currencies/:code/rate
//
// @Summary      Set an exchange rate
// @Tags         admin-currency
// @Accept       json
// @Produce      json
// @Param        code path string true "Currency code"
// @Param        request body object true "Rate"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/currencies/{code}/rate [put]
func (h *CurrencyHandler) SetRate(c *gin.Context) {
	var body setRateBody
	if !bindJSON(c, &body) {
		return
	}
	rate, err := h.currency.SetRate(c.Request.Context(), currencyapp.SetRateRequest{
		Currency: strings.ToUpper(c.Param("code")),
		Rate:     body.Rate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rate)
}
