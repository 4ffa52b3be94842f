package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddress() Address {
	return Address{
		Name:    " Ada Lovelace ",
		Line1:   "12 St James's Square",
		City:    "London",
		Country: "gb",
		Phone:   "+44 20 7946 0000",
	}
}

func TestNewAddress(t *testing.T) {
	t.Run("normalizes fields", func(t *testing.T) {
		a, err := NewAddress(validAddress())
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", a.Name)
		assert.Equal(t, "GB", a.Country)
	})

	t.Run("rejects missing required fields", func(t *testing.T) {
		cases := map[string]func(*Address){
			"name":    func(a *Address) { a.Name = "" },
			"line1":   func(a *Address) { a.Line1 = "  " },
			"city":    func(a *Address) { a.City = "" },
			"country": func(a *Address) { a.Country = "GBR" },
			"phone":   func(a *Address) { a.Phone = "call me" },
		}
		for field, mutate := range cases {
			t.Run(field, func(t *testing.T) {
				a := validAddress()
				mutate(&a)
				_, err := NewAddress(a)
				assert.Error(t, err)
			})
		}
	})
}

func TestAddress_String(t *testing.T) {
	a, err := NewAddress(validAddress())
	require.NoError(t, err)
	assert.Equal(t, "12 St James's Square, London, GB", a.String())
}

func TestAddress_ValueScan(t *testing.T) {
	a, err := NewAddress(validAddress())
	require.NoError(t, err)

	v, err := a.Value()
	require.NoError(t, err)

	var scanned Address
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, a, scanned)

	var empty Address
	require.NoError(t, empty.Scan(nil))
	assert.True(t, empty.IsEmpty())

	v, err = Address{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
