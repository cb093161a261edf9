package payment

// PreferenceResponse is the hosted checkout handed back to the storefront
type PreferenceResponse struct {
	PreferenceID string `json:"preference_id"`
	InitPoint    string `json:"init_point"`
	SandboxPoint string `json:"sandbox_init_point,omitempty"`
}

// SyncPaymentResponse summarizes a manual reconciliation pass
type SyncPaymentResponse struct {
	OrderID     string `json:"order_id"`
	OrderStatus string `json:"order_status"`
	Applied     bool   `json:"applied"`
}
