package cart

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

const (
	// MaxQuantityPerLine caps how many units of one product a cart may hold
	MaxQuantityPerLine = 99
	// MaxLines caps the number of distinct products in a cart
	MaxLines = 50
)

// Cart-specific domain errors
var (
	ErrInvalidQuantity = shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Quantity must be between 1 and %d", MaxQuantityPerLine))
	ErrTooManyLines    = shared.NewDomainError("CART_FULL", fmt.Sprintf("A cart cannot hold more than %d products", MaxLines))
	ErrNotPurchasable  = shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product is not available for purchase")
	ErrItemNotInCart   = shared.NewDomainError("ITEM_NOT_IN_CART", "Product is not in the cart")
)

// CartItem is one product line of a cart
type CartItem struct {
	ProductID uuid.UUID
	Quantity  int
	AddedAt   time.Time
}

// Cart is an anonymous shopping cart identified by an opaque session token
type Cart struct {
	shared.BaseAggregateRoot
	SessionToken string
	Items        []CartItem
}

// NewCart creates an empty cart bound to a session token
func NewCart(sessionToken string) (*Cart, error) {
	if !IsValidSessionToken(sessionToken) {
		return nil, shared.NewDomainError("INVALID_SESSION", "Cart session token is invalid")
	}
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SessionToken:      sessionToken,
		Items:             []CartItem{},
	}, nil
}

// AddItem adds quantity units of a product, merging with an existing line.
// available is the product's current stock.
func (c *Cart) AddItem(productID uuid.UUID, quantity, available int) error {
	if quantity < 1 || quantity > MaxQuantityPerLine {
		return ErrInvalidQuantity
	}
	if idx := c.indexOf(productID); idx >= 0 {
		return c.setQuantity(idx, c.Items[idx].Quantity+quantity, available)
	}
	if len(c.Items) >= MaxLines {
		return ErrTooManyLines
	}
	if quantity > available {
		return insufficientStock(available)
	}
	c.Items = append(c.Items, CartItem{
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   time.Now(),
	})
	c.touch()
	return nil
}

// UpdateQuantity sets the quantity of a line; zero removes it
func (c *Cart) UpdateQuantity(productID uuid.UUID, quantity, available int) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return ErrItemNotInCart
	}
	if quantity == 0 {
		c.removeAt(idx)
		return nil
	}
	return c.setQuantity(idx, quantity, available)
}

// RemoveItem removes a product line
func (c *Cart) RemoveItem(productID uuid.UUID) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return ErrItemNotInCart
	}
	c.removeAt(idx)
	return nil
}

// Clear removes every line
func (c *Cart) Clear() {
	if len(c.Items) == 0 {
		return
	}
	c.Items = []CartItem{}
	c.touch()
}

// IsEmpty returns true if the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemCount returns the total number of units in the cart
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// ProductIDs returns the product of every line in cart order
func (c *Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(c.Items))
	for i, it := range c.Items {
		ids[i] = it.ProductID
	}
	return ids
}

func (c *Cart) setQuantity(idx, quantity, available int) error {
	if quantity < 1 || quantity > MaxQuantityPerLine {
		return ErrInvalidQuantity
	}
	if quantity > available {
		return insufficientStock(available)
	}
	c.Items[idx].Quantity = quantity
	c.touch()
	return nil
}

func (c *Cart) removeAt(idx int) {
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	c.touch()
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

func insufficientStock(available int) error {
	return shared.NewDomainError(shared.ErrInsufficientStock.Code, fmt.Sprintf("Only %d left in stock", available))
}

// NewSessionToken returns 32 random bytes, hex encoded
func NewSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate cart session: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// IsValidSessionToken checks the token shape without touching storage
func IsValidSessionToken(token string) bool {
	if len(token) != 64 {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
