package cart

import (
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// AddItemRequest adds units of a product to the cart
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=99"`
}

// UpdateItemRequest sets the quantity of a line; zero removes it
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0,max=99"`
}

// CartLineResponse is one priced cart line
type CartLineResponse struct {
	ProductID   uuid.UUID `json:"product_id"`
	Name        string    `json:"name,omitempty"`
	Slug        string    `json:"slug,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Quantity    int       `json:"quantity"`
	Stock       int       `json:"stock"`
	UnitPrice   string    `json:"unit_price"`
	LineTotal   string    `json:"line_total"`
	Available   bool      `json:"available"`
	Unavailable string    `json:"unavailable_reason,omitempty"`
}

// CartView is the priced cart in the display currency
type CartView struct {
	ID                string             `json:"id,omitempty"`
	Currency          string             `json:"currency"`
	Lines             []CartLineResponse `json:"lines"`
	ItemCount         int                `json:"item_count"`
	Subtotal          string             `json:"subtotal"`
	ShippingFee       string             `json:"shipping_fee"`
	Total             string             `json:"total"`
	FormattedSubtotal string             `json:"formatted_subtotal"`
	FormattedTotal    string             `json:"formatted_total"`
	HasUnavailable    bool               `json:"has_unavailable"`
}

// ImageURLFunc resolves a storage key to a public URL
type ImageURLFunc func(key string) string

// ToCartView renders a quote for the storefront
func ToCartView(cartID uuid.UUID, q *Quote, imageURL ImageURLFunc, format func(valueobject.Money) string) CartView {
	exp := q.Currency.MinorUnitExponent()
	v := CartView{
		Currency:          q.Currency.String(),
		Lines:             make([]CartLineResponse, 0, len(q.Lines)),
		ItemCount:         q.ItemCount,
		Subtotal:          q.Subtotal.Amount().StringFixed(exp),
		ShippingFee:       q.ShippingFee.Amount().StringFixed(exp),
		Total:             q.Total.Amount().StringFixed(exp),
		FormattedSubtotal: format(q.Subtotal),
		FormattedTotal:    format(q.Total),
		HasUnavailable:    q.HasUnavailable(),
	}
	if cartID != uuid.Nil {
		v.ID = cartID.String()
	}
	for _, l := range q.Lines {
		line := CartLineResponse{
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice.Amount().StringFixed(exp),
			LineTotal:   l.LineTotal.Amount().StringFixed(exp),
			Available:   l.Available,
			Unavailable: l.Unavailable,
		}
		if p := l.Product; p != nil {
			line.Name = p.Name
			line.Slug = p.Slug
			line.Stock = p.Stock
			if key := p.PrimaryImage(); key != "" && imageURL != nil {
				line.ImageURL = imageURL(key)
			}
		}
		v.Lines = append(v.Lines, line)
	}
	return v
}
