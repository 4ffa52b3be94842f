package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Address is a value object representing a shipping address
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

var (
	countryPattern = regexp.MustCompile(`^[A-Z]{2}$`)
	phonePattern   = regexp.MustCompile(`^\+?[0-9 ()\-]{6,20}$`)
)

// NewAddress trims and normalizes the fields, then validates them
func NewAddress(a Address) (Address, error) {
	a = Address{
		Name:       strings.TrimSpace(a.Name),
		Line1:      strings.TrimSpace(a.Line1),
		Line2:      strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(a.Country)),
		Phone:      strings.TrimSpace(a.Phone),
	}
	if err := a.Validate(); err != nil {
		return Address{}, err
	}
	return a, nil
}

// Validate checks the required fields
func (a Address) Validate() error {
	switch {
	case a.Name == "":
		return errors.New("recipient name cannot be empty")
	case len(a.Name) > 200:
		return errors.New("recipient name cannot exceed 200 characters")
	case a.Line1 == "":
		return errors.New("address line1 cannot be empty")
	case len(a.Line1) > 300 || len(a.Line2) > 300:
		return errors.New("address lines cannot exceed 300 characters")
	case a.City == "":
		return errors.New("city cannot be empty")
	case !countryPattern.MatchString(a.Country):
		return fmt.Errorf("country must be an ISO 3166 alpha-2 code, got %q", a.Country)
	case !phonePattern.MatchString(a.Phone):
		return errors.New("phone number is invalid")
	}
	return nil
}

// IsEmpty returns true if no field is set
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// String returns a single-line representation of the address
func (a Address) String() string {
	parts := []string{a.Line1}
	if a.Line2 != "" {
		parts = append(parts, a.Line2)
	}
	parts = append(parts, a.City)
	if a.State != "" {
		parts = append(parts, a.State)
	}
	if a.PostalCode != "" {
		parts = append(parts, a.PostalCode)
	}
	parts = append(parts, a.Country)
	return strings.Join(parts, ", ")
}

// Value implements driver.Valuer for database storage
// Stores as JSON string
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database retrieval.
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*a = Address{}
		return nil
	}

	return json.Unmarshal(data, a)
}
