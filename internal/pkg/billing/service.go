package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/askdrhq/askdr/app/models"
	"github.com/askdrhq/askdr/internal/pkg/entitlements"
)

// ErrUnmatchedCustomer is returned when a webhook names a customer no local
// profile is linked to. Callers log and acknowledge; the event is not retried.
var ErrUnmatchedCustomer = errors.New("billing: no profile for customer")

// Service applies subscription lifecycle events to user profiles.
type Service struct {
	repo Repository
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// LinkCustomer stores the provider customer id on a user's profile so later
// webhooks can be matched back to the user.
func (s *Service) LinkCustomer(ctx context.Context, userID uint, customerID string) (*models.UserProfile, error) {
	_ = ctx
	cid := strings.TrimSpace(customerID)
	if userID == 0 || cid == "" {
		return nil, errors.New("user_id and customer_id are required")
	}
	profile, err := s.repo.GetOrCreateProfile(userID)
	if err != nil {
		return nil, err
	}
	if profile.StripeCustomerID == cid {
		return profile, nil
	}
	profile.StripeCustomerID = cid
	if err := s.repo.SaveProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ApplySubscriptionCreated activates the tier named in the subscription
// metadata for the profile linked to the customer.
func (s *Service) ApplySubscriptionCreated(ctx context.Context, in SubscriptionChange) (*models.UserProfile, error) {
	_ = ctx
	profile, err := s.profileForCustomer(in.CustomerID)
	if err != nil {
		return nil, err
	}
	profile.Plan = normalizePlan(in.Tier)
	profile.StripeSubscriptionID = strings.TrimSpace(in.SubscriptionID)
	if err := s.repo.SaveProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ApplySubscriptionUpdated keeps the paid tier while the subscription status
// still entitles, and drops to free otherwise.
func (s *Service) ApplySubscriptionUpdated(ctx context.Context, in SubscriptionChange) (*models.UserProfile, error) {
	_ = ctx
	profile, err := s.profileForCustomer(in.CustomerID)
	if err != nil {
		return nil, err
	}
	if isEntitlingStatus(in.Status) {
		if tier := normalizePlan(in.Tier); tier != string(entitlements.PlanFree) {
			profile.Plan = tier
		}
		profile.StripeSubscriptionID = strings.TrimSpace(in.SubscriptionID)
	} else {
		profile.Plan = string(entitlements.PlanFree)
	}
	if err := s.repo.SaveProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ApplySubscriptionDeleted reverts the profile to the free plan and clears
// the stored subscription reference.
func (s *Service) ApplySubscriptionDeleted(ctx context.Context, in SubscriptionChange) (*models.UserProfile, error) {
	_ = ctx
	profile, err := s.profileForCustomer(in.CustomerID)
	if err != nil {
		return nil, err
	}
	profile.Plan = string(entitlements.PlanFree)
	profile.StripeSubscriptionID = ""
	if err := s.repo.SaveProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ProfileForCustomer resolves the profile linked to a provider customer id.
// Returns ErrUnmatchedCustomer when no profile carries the id.
func (s *Service) ProfileForCustomer(customerID string) (*models.UserProfile, error) {
	return s.profileForCustomer(customerID)
}

func (s *Service) profileForCustomer(customerID string) (*models.UserProfile, error) {
	cid := strings.TrimSpace(customerID)
	if cid == "" {
		return nil, ErrUnmatchedCustomer
	}
	profile, err := s.repo.GetProfileByCustomerID(cid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnmatchedCustomer
		}
		return nil, err
	}
	return profile, nil
}

// RecordWebhookEvent persists webhook payloads idempotently. The bool result
// reports whether this delivery is the first for the event id.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}
