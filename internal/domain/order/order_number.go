package order

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"time"
)

const orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{8}-[A-Z0-9]{6}$`)

// GenerateOrderNumber returns an order number of the form ORD-YYYYMMDD-XXXXXX
func GenerateOrderNumber(now time.Time) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	for i, b := range buf {
		buf[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), buf), nil
}

// IsValidOrderNumber checks the order number format
func IsValidOrderNumber(s string) bool {
	return orderNumberPattern.MatchString(s)
}
