package billing

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/askdrhq/askdr/app/models"
)

type fakeRepository struct {
	profiles map[uint]*models.UserProfile
	events   map[string]*models.BillingWebhookEvent
	nextID   uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		profiles: make(map[uint]*models.UserProfile),
		events:   make(map[string]*models.BillingWebhookEvent),
	}
}

func (f *fakeRepository) GetOrCreateProfile(userID uint) (*models.UserProfile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	f.nextID++
	p := &models.UserProfile{ID: f.nextID, UserID: userID, Plan: models.PlanFree}
	f.profiles[userID] = p
	return p, nil
}

func (f *fakeRepository) GetProfileByCustomerID(customerID string) (*models.UserProfile, error) {
	for _, p := range f.profiles {
		if p.StripeCustomerID == customerID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) SaveProfile(p *models.UserProfile) error {
	f.profiles[p.UserID] = p
	return nil
}

func (f *fakeRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if stored, ok := f.events[key]; ok {
		return false, stored, nil
	}
	f.nextID++
	event.ID = f.nextID
	f.events[key] = event
	return true, event, nil
}

func (f *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range f.events {
		if e.ID == id {
			e.ProcessingError = processingError
			return nil
		}
	}
	return fmt.Errorf("event %d not found", id)
}

func seedProfile(f *fakeRepository, userID uint, plan, customerID, subID string) *models.UserProfile {
	f.nextID++
	p := &models.UserProfile{
		ID:                   f.nextID,
		UserID:               userID,
		Plan:                 plan,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: subID,
	}
	f.profiles[userID] = p
	return p
}

func TestApplySubscriptionCreated(t *testing.T) {
	repo := newFakeRepository()
	seedProfile(repo, 1, models.PlanFree, "cus_123", "")
	svc := NewService(repo)

	profile, err := svc.ApplySubscriptionCreated(context.Background(), SubscriptionChange{
		CustomerID:     "cus_123",
		SubscriptionID: "sub_abc",
		Status:         "active",
		Tier:           "plus",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PlanPlus, profile.Plan)
	assert.Equal(t, "sub_abc", profile.StripeSubscriptionID)
}

func TestApplySubscriptionCreated_UnknownTierStaysFree(t *testing.T) {
	repo := newFakeRepository()
	seedProfile(repo, 1, models.PlanFree, "cus_123", "")
	svc := NewService(repo)

	profile, err := svc.ApplySubscriptionCreated(context.Background(), SubscriptionChange{
		CustomerID:     "cus_123",
		SubscriptionID: "sub_abc",
		Tier:           "platinum",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, profile.Plan)
}

func TestApplySubscriptionUpdated(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		tier     string
		wantPlan string
	}{
		{"active keeps tier", "active", "pro", models.PlanPro},
		{"trialing keeps tier", "trialing", "plus", models.PlanPlus},
		{"past_due drops to free", "past_due", "pro", models.PlanFree},
		{"canceled drops to free", "canceled", "pro", models.PlanFree},
		{"unpaid drops to free", "unpaid", "plus", models.PlanFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepository()
			seedProfile(repo, 7, models.PlanPro, "cus_777", "sub_777")
			svc := NewService(repo)

			profile, err := svc.ApplySubscriptionUpdated(context.Background(), SubscriptionChange{
				CustomerID:     "cus_777",
				SubscriptionID: "sub_777",
				Status:         tt.status,
				Tier:           tt.tier,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPlan, profile.Plan)
		})
	}
}

func TestApplySubscriptionUpdated_ActiveWithoutTierKeepsCurrentPlan(t *testing.T) {
	repo := newFakeRepository()
	seedProfile(repo, 7, models.PlanPro, "cus_777", "sub_777")
	svc := NewService(repo)

	profile, err := svc.ApplySubscriptionUpdated(context.Background(), SubscriptionChange{
		CustomerID:     "cus_777",
		SubscriptionID: "sub_777",
		Status:         "active",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PlanPro, profile.Plan)
}

func TestApplySubscriptionDeleted(t *testing.T) {
	repo := newFakeRepository()
	seedProfile(repo, 3, models.PlanPlus, "cus_333", "sub_333")
	svc := NewService(repo)

	profile, err := svc.ApplySubscriptionDeleted(context.Background(), SubscriptionChange{
		CustomerID: "cus_333",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, profile.Plan)
	assert.Empty(t, profile.StripeSubscriptionID)
}

func TestApply_UnmatchedCustomer(t *testing.T) {
	svc := NewService(newFakeRepository())

	_, err := svc.ApplySubscriptionCreated(context.Background(), SubscriptionChange{CustomerID: "cus_ghost"})
	assert.ErrorIs(t, err, ErrUnmatchedCustomer)

	_, err = svc.ApplySubscriptionDeleted(context.Background(), SubscriptionChange{CustomerID: ""})
	assert.ErrorIs(t, err, ErrUnmatchedCustomer)
}

func TestRecordWebhookEvent_Deduplicates(t *testing.T) {
	svc := NewService(newFakeRepository())
	in := WebhookEventInput{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: "evt_1",
		EventType:       "customer.subscription.created",
		PayloadJSON:     `{"id":"evt_1"}`,
		SignatureValid:  true,
	}

	created, first, err := svc.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, first)

	created, second, err := svc.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestRecordWebhookEvent_HashFallbackForMissingID(t *testing.T) {
	svc := NewService(newFakeRepository())
	in := WebhookEventInput{
		Provider:    models.BillingProviderStripe,
		EventType:   "invoice.payment_succeeded",
		PayloadJSON: `{"amount":100}`,
	}

	created, evt, err := svc.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, evt.ProviderEventID, "hash:")

	created, _, err = svc.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLinkCustomer(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	profile, err := svc.LinkCustomer(context.Background(), 9, "cus_999")
	require.NoError(t, err)
	assert.Equal(t, "cus_999", profile.StripeCustomerID)

	// Linking the same id again is a no-op.
	again, err := svc.LinkCustomer(context.Background(), 9, "cus_999")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, again.ID)
}
