package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ShippingAddress is a value object holding the address snapshot frozen on an
// order at creation time. It is immutable; orders never re-read the buyer's
// live address book.
type ShippingAddress struct {
	street     string
	number     string
	city       string
	state      string
	postalCode string
	country    string
	notes      string
}

// ShippingAddressOption is a functional option for configuring ShippingAddress
type ShippingAddressOption func(*ShippingAddress)

// WithState sets the state or province for the address
func WithState(state string) ShippingAddressOption {
	return func(a *ShippingAddress) {
		a.state = strings.TrimSpace(state)
	}
}

// WithNotes sets delivery notes for the address
func WithNotes(notes string) ShippingAddressOption {
	return func(a *ShippingAddress) {
		a.notes = strings.TrimSpace(notes)
	}
}

// NewShippingAddress creates a new ShippingAddress.
// Street, number, city, postal code and country are required; state and notes
// are optional.
func NewShippingAddress(street, number, city, postalCode, country string, opts ...ShippingAddressOption) (ShippingAddress, error) {
	street = strings.TrimSpace(street)
	number = strings.TrimSpace(number)
	city = strings.TrimSpace(city)
	postalCode = strings.TrimSpace(postalCode)
	country = strings.TrimSpace(country)

	if err := validateRequired("street", street, 255); err != nil {
		return ShippingAddress{}, err
	}
	if err := validateRequired("number", number, 20); err != nil {
		return ShippingAddress{}, err
	}
	if err := validateRequired("city", city, 100); err != nil {
		return ShippingAddress{}, err
	}
	if err := validateRequired("postal code", postalCode, 20); err != nil {
		return ShippingAddress{}, err
	}
	if err := validateRequired("country", country, 100); err != nil {
		return ShippingAddress{}, err
	}

	addr := ShippingAddress{
		street:     street,
		number:     number,
		city:       city,
		postalCode: postalCode,
		country:    country,
	}

	for _, opt := range opts {
		opt(&addr)
	}

	if len(addr.state) > 100 {
		return ShippingAddress{}, fmt.Errorf("state cannot exceed 100 characters")
	}
	if len(addr.notes) > 255 {
		return ShippingAddress{}, fmt.Errorf("notes cannot exceed 255 characters")
	}

	return addr, nil
}

// MustNewShippingAddress creates a new ShippingAddress, panics on error
func MustNewShippingAddress(street, number, city, postalCode, country string, opts ...ShippingAddressOption) ShippingAddress {
	addr, err := NewShippingAddress(street, number, city, postalCode, country, opts...)
	if err != nil {
		panic(err)
	}
	return addr
}

// EmptyShippingAddress returns an empty address
func EmptyShippingAddress() ShippingAddress {
	return ShippingAddress{}
}

// Street returns the street name
func (a ShippingAddress) Street() string {
	return a.street
}

// Number returns the street number
func (a ShippingAddress) Number() string {
	return a.number
}

// City returns the city
func (a ShippingAddress) City() string {
	return a.city
}

// State returns the state or province
func (a ShippingAddress) State() string {
	return a.state
}

// PostalCode returns the postal code
func (a ShippingAddress) PostalCode() string {
	return a.postalCode
}

// Country returns the country
func (a ShippingAddress) Country() string {
	return a.country
}

// Notes returns the delivery notes
func (a ShippingAddress) Notes() string {
	return a.notes
}

// IsEmpty returns true if the address has no content
func (a ShippingAddress) IsEmpty() bool {
	return a.street == "" && a.number == "" && a.city == "" && a.country == ""
}

// FullAddress returns the complete formatted address string
func (a ShippingAddress) FullAddress() string {
	if a.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, 6)
	parts = append(parts, a.street+" "+a.number)
	parts = append(parts, a.city)
	if a.state != "" {
		parts = append(parts, a.state)
	}
	parts = append(parts, a.postalCode)
	parts = append(parts, a.country)
	return strings.Join(parts, ", ")
}

// String returns a string representation of the address
func (a ShippingAddress) String() string {
	return a.FullAddress()
}

// Equals returns true if both addresses are equal
func (a ShippingAddress) Equals(other ShippingAddress) bool {
	return a == other
}

// shippingAddressJSON is used for JSON marshaling/unmarshaling
type shippingAddressJSON struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Notes      string `json:"notes,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (a ShippingAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(shippingAddressJSON{
		Street:     a.street,
		Number:     a.number,
		City:       a.city,
		State:      a.state,
		PostalCode: a.postalCode,
		Country:    a.country,
		Notes:      a.notes,
	})
}

// UnmarshalJSON implements json.Unmarshaler. It delegates to the
// NewShippingAddress factory so stored snapshots go through the same
// validation as fresh input.
func (a *ShippingAddress) UnmarshalJSON(data []byte) error {
	var v shippingAddressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	if v.Street == "" && v.Number == "" && v.City == "" && v.Country == "" {
		*a = EmptyShippingAddress()
		return nil
	}

	addr, err := NewShippingAddress(v.Street, v.Number, v.City, v.PostalCode, v.Country,
		WithState(v.State), WithNotes(v.Notes))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// Value implements driver.Valuer so the snapshot is stored as a JSON column
func (a ShippingAddress) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for database retrieval
func (a *ShippingAddress) Scan(value any) error {
	if value == nil {
		*a = EmptyShippingAddress()
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into ShippingAddress", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*a = EmptyShippingAddress()
		return nil
	}

	return json.Unmarshal(data, a)
}

func validateRequired(field, value string, maxLen int) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if len(value) > maxLen {
		return fmt.Errorf("%s cannot exceed %d characters", field, maxLen)
	}
	return nil
}
