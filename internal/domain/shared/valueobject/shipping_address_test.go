package valueobject

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShippingAddress(t *testing.T) {
	t.Run("creates address with required fields", func(t *testing.T) {
		addr, err := NewShippingAddress("Av. Corrientes", "1234", "Buenos Aires", "C1043", "Argentina")
		require.NoError(t, err)

		assert.Equal(t, "Av. Corrientes", addr.Street())
		assert.Equal(t, "1234", addr.Number())
		assert.Equal(t, "Buenos Aires", addr.City())
		assert.Equal(t, "C1043", addr.PostalCode())
		assert.Equal(t, "Argentina", addr.Country())
		assert.Empty(t, addr.State())
		assert.False(t, addr.IsEmpty())
	})

	t.Run("applies optional state and notes", func(t *testing.T) {
		addr, err := NewShippingAddress("Calle 50", "742", "La Plata", "B1900", "Argentina",
			WithState("Buenos Aires"), WithNotes("Ring twice"))
		require.NoError(t, err)

		assert.Equal(t, "Buenos Aires", addr.State())
		assert.Equal(t, "Ring twice", addr.Notes())
	})

	t.Run("trims whitespace", func(t *testing.T) {
		addr, err := NewShippingAddress("  Calle 50 ", " 742 ", " La Plata ", " B1900 ", " Argentina ",
			WithState("  BA "))
		require.NoError(t, err)

		assert.Equal(t, "Calle 50", addr.Street())
		assert.Equal(t, "742", addr.Number())
		assert.Equal(t, "BA", addr.State())
	})

	t.Run("rejects missing required fields", func(t *testing.T) {
		cases := []struct {
			name                                     string
			street, number, city, postalCode, country string
		}{
			{"empty street", "", "1", "City", "1000", "AR"},
			{"empty number", "Street", "", "City", "1000", "AR"},
			{"empty city", "Street", "1", "", "1000", "AR"},
			{"empty postal code", "Street", "1", "City", "", "AR"},
			{"empty country", "Street", "1", "City", "1000", ""},
			{"whitespace only street", "   ", "1", "City", "1000", "AR"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewShippingAddress(tc.street, tc.number, tc.city, tc.postalCode, tc.country)
				assert.Error(t, err)
			})
		}
	})

	t.Run("rejects overlong fields", func(t *testing.T) {
		_, err := NewShippingAddress(strings.Repeat("a", 256), "1", "City", "1000", "AR")
		assert.Error(t, err)

		_, err = NewShippingAddress("Street", strings.Repeat("1", 21), "City", "1000", "AR")
		assert.Error(t, err)

		_, err = NewShippingAddress("Street", "1", "City", "1000", "AR",
			WithNotes(strings.Repeat("n", 256)))
		assert.Error(t, err)
	})
}

func TestShippingAddress_FullAddress(t *testing.T) {
	t.Run("without state", func(t *testing.T) {
		addr := MustNewShippingAddress("Av. Corrientes", "1234", "Buenos Aires", "C1043", "Argentina")
		assert.Equal(t, "Av. Corrientes 1234, Buenos Aires, C1043, Argentina", addr.FullAddress())
	})

	t.Run("with state", func(t *testing.T) {
		addr := MustNewShippingAddress("Calle 50", "742", "La Plata", "B1900", "Argentina",
			WithState("Buenos Aires"))
		assert.Equal(t, "Calle 50 742, La Plata, Buenos Aires, B1900, Argentina", addr.FullAddress())
	})

	t.Run("empty address formats empty", func(t *testing.T) {
		assert.Empty(t, EmptyShippingAddress().FullAddress())
	})
}

func TestShippingAddress_JSON(t *testing.T) {
	t.Run("round trip keeps all fields", func(t *testing.T) {
		original := MustNewShippingAddress("Calle 50", "742", "La Plata", "B1900", "Argentina",
			WithState("Buenos Aires"), WithNotes("Back door"))

		data, err := json.Marshal(original)
		require.NoError(t, err)

		var restored ShippingAddress
		require.NoError(t, json.Unmarshal(data, &restored))
		assert.True(t, original.Equals(restored))
	})

	t.Run("unmarshal validates the snapshot", func(t *testing.T) {
		var addr ShippingAddress
		err := json.Unmarshal([]byte(`{"street":"S","number":"1","city":"C","postal_code":"","country":"AR"}`), &addr)
		assert.Error(t, err, "missing postal code fails validation")
	})

	t.Run("all-empty snapshot unmarshals as empty", func(t *testing.T) {
		var addr ShippingAddress
		require.NoError(t, json.Unmarshal([]byte(`{}`), &addr))
		assert.True(t, addr.IsEmpty())
	})
}

func TestShippingAddress_SQL(t *testing.T) {
	t.Run("value and scan round trip", func(t *testing.T) {
		original := MustNewShippingAddress("Av. Corrientes", "1234", "Buenos Aires", "C1043", "Argentina")

		value, err := original.Value()
		require.NoError(t, err)

		var restored ShippingAddress
		require.NoError(t, restored.Scan(value))
		assert.True(t, original.Equals(restored))
	})

	t.Run("empty address stores NULL", func(t *testing.T) {
		value, err := EmptyShippingAddress().Value()
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("scans NULL as empty", func(t *testing.T) {
		var addr ShippingAddress
		require.NoError(t, addr.Scan(nil))
		assert.True(t, addr.IsEmpty())
	})

	t.Run("scans string payloads", func(t *testing.T) {
		var addr ShippingAddress
		require.NoError(t, addr.Scan(`{"street":"S","number":"1","city":"C","postal_code":"1000","country":"AR"}`))
		assert.Equal(t, "C", addr.City())
	})

	t.Run("rejects unsupported types", func(t *testing.T) {
		var addr ShippingAddress
		assert.Error(t, addr.Scan(42))
	})
}
