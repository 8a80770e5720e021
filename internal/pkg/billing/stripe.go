package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/askdrhq/askdr/internal/pkg/entitlements"
	"github.com/askdrhq/askdr/internal/pkg/env"
)

// SetupStripe wires the Stripe API key from the environment. Called once at
// startup; billing endpoints report unconfigured when the key is empty.
func SetupStripe() {
	stripe.Key = env.GetEnv("STRIPE_SECRET_KEY", "")
}

// IsStripeConfigured reports whether the API key is present.
func IsStripeConfigured() bool {
	return stripe.Key != ""
}

// priceIDForPlan resolves the Stripe price for a paid plan from the env.
func priceIDForPlan(plan string) (string, error) {
	switch normalizePlan(plan) {
	case string(entitlements.PlanPlus):
		if id := env.GetEnv("STRIPE_PRICE_PLUS", ""); id != "" {
			return id, nil
		}
	case string(entitlements.PlanPro):
		if id := env.GetEnv("STRIPE_PRICE_PRO", ""); id != "" {
			return id, nil
		}
	default:
		return "", fmt.Errorf("plan %q is not purchasable", plan)
	}
	return "", fmt.Errorf("no stripe price configured for plan %q", plan)
}

// EnsureStripeCustomer returns the Stripe customer id linked to the user,
// creating the customer first if the profile has none.
func (s *Service) EnsureStripeCustomer(userID uint, email string) (string, error) {
	profile, err := s.repo.GetOrCreateProfile(userID)
	if err != nil {
		return "", err
	}
	if profile.StripeCustomerID != "" {
		return profile.StripeCustomerID, nil
	}

	cust, err := customer.New(&stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"user_id": fmt.Sprintf("%d", userID),
		},
	})
	if err != nil {
		return "", err
	}

	profile.StripeCustomerID = cust.ID
	if err := s.repo.SaveProfile(profile); err != nil {
		return "", err
	}
	return cust.ID, nil
}

// CreateCheckoutSession starts a subscription checkout for a paid plan and
// returns the hosted checkout URL. The target tier rides along as
// subscription metadata so the webhook can apply it.
func (s *Service) CreateCheckoutSession(in CheckoutRequest) (string, error) {
	if !IsStripeConfigured() {
		return "", errors.New("stripe is not configured")
	}
	priceID, err := priceIDForPlan(in.Plan)
	if err != nil {
		return "", err
	}
	customerID, err := s.EnsureStripeCustomer(in.UserID, in.Email)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"tier": normalizePlan(in.Plan),
			},
		},
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
	}

	sess, err := session.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// CancelSubscription cancels the user's active Stripe subscription. The plan
// change itself arrives via the customer.subscription.deleted webhook.
func (s *Service) CancelSubscription(userID uint) error {
	if !IsStripeConfigured() {
		return errors.New("stripe is not configured")
	}
	profile, err := s.repo.GetOrCreateProfile(userID)
	if err != nil {
		return err
	}
	if profile.StripeSubscriptionID == "" {
		return errors.New("no active subscription")
	}
	_, err = subscription.Cancel(profile.StripeSubscriptionID, nil)
	return err
}

// VerifyWebhook checks the Stripe-Signature header against the configured
// endpoint secret and returns the parsed event.
func VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	if secret == "" {
		return stripe.Event{}, errors.New("stripe webhook secret is not configured")
	}
	return webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

// ExtractSubscriptionChange pulls the provider-neutral fields out of a
// customer.subscription.* event payload.
func ExtractSubscriptionChange(raw json.RawMessage) (SubscriptionChange, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return SubscriptionChange{}, err
	}
	change := SubscriptionChange{
		SubscriptionID: sub.ID,
		Status:         string(sub.Status),
		Tier:           strings.TrimSpace(sub.Metadata["tier"]),
	}
	if sub.Customer != nil {
		change.CustomerID = sub.Customer.ID
	}
	return change, nil
}

// ExtractInvoiceCustomer returns the customer id from an invoice.* event.
func ExtractInvoiceCustomer(raw json.RawMessage) (string, error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return "", err
	}
	if inv.Customer == nil {
		return "", errors.New("invoice has no customer")
	}
	return inv.Customer.ID, nil
}
