package billing

// WebhookEventInput carries a raw provider webhook payload into the service.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}

// SubscriptionChange is a provider-neutral view of a subscription lifecycle
// event, extracted from the provider payload before it reaches the service.
type SubscriptionChange struct {
	CustomerID     string
	SubscriptionID string
	Status         string
	Tier           string
}

// CheckoutRequest describes a checkout session to create for an upgrade.
type CheckoutRequest struct {
	UserID     uint
	Email      string
	Plan       string
	SuccessURL string
	CancelURL  string
}
