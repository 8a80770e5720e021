package controllers

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v79"

	"github.com/askdrhq/askdr/app/models"
	"github.com/askdrhq/askdr/app/repository"
	"github.com/askdrhq/askdr/internal/pkg/billing"
	"github.com/askdrhq/askdr/internal/pkg/database"
	"github.com/askdrhq/askdr/internal/pkg/entitlements"
	"github.com/askdrhq/askdr/internal/pkg/mail"
	"github.com/askdrhq/askdr/internal/pkg/usercontext"
)

var (
	billingService     *billing.Service
	billingServiceOnce sync.Once
)

func getBillingService() *billing.Service {
	billingServiceOnce.Do(func() {
		billingService = billing.NewServiceFromDB(database.GetDB())
	})
	return billingService
}

type checkoutRequest struct {
	Plan       string `json:"plan"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

// HandleCreateCheckout starts a Stripe subscription checkout for a paid plan
// and returns the hosted checkout URL.
func HandleCreateCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.SuccessURL == "" {
		req.SuccessURL = c.BaseURL() + "/billing/success"
	}
	if req.CancelURL == "" {
		req.CancelURL = c.BaseURL() + "/billing/cancel"
	}

	user, err := repository.GetGlobalRepositories().User.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load account"})
	}

	url, err := getBillingService().CreateCheckoutSession(billing.CheckoutRequest{
		UserID:     user.ID,
		Email:      user.Email,
		Plan:       req.Plan,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		log.Errorf("checkout session creation failed for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "checkout_failed", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"checkout_url": url})
}

// HandleCancelSubscription cancels the user's subscription at Stripe. The
// plan downgrade itself lands when the deletion webhook arrives.
func HandleCancelSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	if err := getBillingService().CancelSubscription(userCtx.UserID); err != nil {
		log.Errorf("subscription cancel failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cancel_failed", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Subscription cancellation requested"})
}

// HandleSubscriptionStatus reports the current plan and feature usage.
func HandleSubscriptionStatus(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repos := repository.GetGlobalRepositories()
	profile, err := repos.Profile.GetOrCreate(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load profile"})
	}
	if err := ensureFreshCounters(repos.Profile, profile); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to refresh usage"})
	}

	usage := fiber.Map{}
	for _, feature := range entitlements.Features() {
		usage[string(feature)] = fiber.Map{
			"used":  entitlements.UsageFor(profile, feature),
			"limit": entitlements.MonthlyLimit(feature),
		}
	}

	return c.JSON(fiber.Map{
		"plan":                profile.Plan,
		"is_paid":             profile.IsPaid(),
		"active_subscription": profile.StripeSubscriptionID != "",
		"usage":               usage,
	})
}

// HandleStripeWebhook receives Stripe events. Signature failures get a 400 so
// Stripe retries; once the signature verifies we always acknowledge with 200,
// logging processing errors instead of surfacing them.
func HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	event, err := billing.VerifyWebhook(payload, c.Get("Stripe-Signature"))
	if err != nil {
		log.Errorf("stripe webhook signature verification failed: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature", "message": "Webhook signature verification failed"})
	}

	svc := getBillingService()
	created, stored, err := svc.RecordWebhookEvent(c.Context(), billing.WebhookEventInput{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	})
	if err != nil {
		log.Errorf("stripe webhook record failed for event %s: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to record event"})
	}
	if !created {
		// Redelivery of an event we already hold.
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	processingErr := processStripeEvent(c, event)
	if processingErr != nil {
		if errors.Is(processingErr, billing.ErrUnmatchedCustomer) {
			log.Infof("stripe event %s references an unlinked customer, acknowledging", event.ID)
		} else {
			log.Errorf("stripe event %s processing failed: %v", event.ID, processingErr)
		}
	}
	if err := svc.MarkWebhookProcessed(c.Context(), stored.ID, processingErr); err != nil {
		log.Errorf("stripe event %s mark processed failed: %v", event.ID, err)
	}

	return c.JSON(fiber.Map{"received": true})
}

func processStripeEvent(c *fiber.Ctx, event stripe.Event) error {
	svc := getBillingService()

	switch event.Type {
	case "customer.subscription.created":
		change, err := billing.ExtractSubscriptionChange(event.Data.Raw)
		if err != nil {
			return fmt.Errorf("parse subscription: %w", err)
		}
		_, err = svc.ApplySubscriptionCreated(c.Context(), change)
		return err

	case "customer.subscription.updated":
		change, err := billing.ExtractSubscriptionChange(event.Data.Raw)
		if err != nil {
			return fmt.Errorf("parse subscription: %w", err)
		}
		_, err = svc.ApplySubscriptionUpdated(c.Context(), change)
		return err

	case "customer.subscription.deleted":
		change, err := billing.ExtractSubscriptionChange(event.Data.Raw)
		if err != nil {
			return fmt.Errorf("parse subscription: %w", err)
		}
		_, err = svc.ApplySubscriptionDeleted(c.Context(), change)
		return err

	case "invoice.payment_succeeded":
		customerID, err := billing.ExtractInvoiceCustomer(event.Data.Raw)
		if err != nil {
			return fmt.Errorf("parse invoice: %w", err)
		}
		profile, err := svc.ProfileForCustomer(customerID)
		if err != nil {
			return err
		}
		user, err := repository.GetGlobalRepositories().User.GetByID(profile.UserID)
		if err != nil {
			return fmt.Errorf("load user %d: %w", profile.UserID, err)
		}
		if err := mail.SendPaymentConfirmationEmail(user.Email, user.Name, profile.Plan); err != nil {
			// Email failure must not trigger a webhook retry.
			log.Errorf("payment confirmation email failed for user %d: %v", user.ID, err)
		}
		return nil

	default:
		log.Debugf("ignoring stripe event type %s", event.Type)
		return nil
	}
}
