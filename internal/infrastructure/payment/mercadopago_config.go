package payment

import (
	"errors"
	"time"
)

// MercadoPagoConfig contains configuration for the MercadoPago REST API
type MercadoPagoConfig struct {
	// AccessToken is the private API credential. It is sent as a bearer
	// header and must never be logged or embedded in error messages.
	AccessToken string
	// BaseURL is the API root, overridable for tests
	BaseURL string
	// Timeout bounds each API call
	Timeout time.Duration
}

// Errors for configuration validation
var (
	ErrMercadoPagoMissingToken   = errors.New("mercadopago: missing access token")
	ErrMercadoPagoMissingBaseURL = errors.New("mercadopago: missing base URL")
)

// Validate validates the configuration
func (c *MercadoPagoConfig) Validate() error {
	if c.AccessToken == "" {
		return ErrMercadoPagoMissingToken
	}
	if c.BaseURL == "" {
		return ErrMercadoPagoMissingBaseURL
	}
	return nil
}
