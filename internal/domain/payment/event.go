package payment

// EventKind tags an inbound provider notification by the resource it refers
// to. Unknown kinds are acknowledged and dropped.
type EventKind string

const (
	EventKindMerchantOrder EventKind = "merchant_order"
	EventKindPayment       EventKind = "payment"
	EventKindUnknown       EventKind = "unknown"
)

// ClassifyEvent maps the provider's topic/type fields to an EventKind. The
// provider sends the topic both as a bare name and with a topic_..._wh
// wrapper depending on the notification channel.
func ClassifyEvent(topic, typ string) EventKind {
	switch topic {
	case "merchant_order", "topic_merchant_order_wh":
		return EventKindMerchantOrder
	case "payment":
		return EventKindPayment
	}
	switch typ {
	case "payment":
		return EventKindPayment
	}
	return EventKindUnknown
}

// Event is an inbound provider notification reduced to what reconciliation
// needs: what kind of resource changed and its provider ID. Raw payloads
// never travel past this type.
type Event struct {
	Kind       EventKind
	ResourceID string
}
