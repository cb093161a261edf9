package payment

// Wire types for the MercadoPago REST API. Monetary amounts travel as JSON
// numbers; they are converted to decimals at the adapter boundary.

type mpPreferenceItem struct {
	ID        string  `json:"id,omitempty"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type mpBackURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	Pending string `json:"pending,omitempty"`
}

type mpPayer struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Surname string `json:"surname,omitempty"`
}

type mpPreferenceRequest struct {
	Items             []mpPreferenceItem `json:"items"`
	ExternalReference string             `json:"external_reference"`
	BackURLs          *mpBackURLs        `json:"back_urls,omitempty"`
	AutoReturn        string             `json:"auto_return,omitempty"`
	NotificationURL   string             `json:"notification_url,omitempty"`
	Payer             *mpPayer           `json:"payer,omitempty"`
}

type mpPreferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type mpPayment struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	ExternalReference string  `json:"external_reference"`
	TransactionAmount float64 `json:"transaction_amount"`
}

type mpPaymentSearchResponse struct {
	Results []mpPayment `json:"results"`
}

type mpMerchantOrderPayment struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	TransactionAmount float64 `json:"transaction_amount"`
}

type mpMerchantOrder struct {
	ID                int64                    `json:"id"`
	ExternalReference string                   `json:"external_reference"`
	Payments          []mpMerchantOrderPayment `json:"payments"`
}
