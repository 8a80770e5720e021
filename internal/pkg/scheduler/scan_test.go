package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdrhq/askdr/app/models"
)

type fakeStore struct {
	due       []models.Reminder
	claimed   map[uint]bool
	released  []uint
	advanced  map[uint]time.Time
	retired   []uint
	denyClaim map[uint]bool
}

func newFakeStore(due ...models.Reminder) *fakeStore {
	return &fakeStore{
		due:       due,
		claimed:   make(map[uint]bool),
		advanced:  make(map[uint]time.Time),
		denyClaim: make(map[uint]bool),
	}
}

func (f *fakeStore) Due(now time.Time, limit int) ([]models.Reminder, error) {
	return f.due, nil
}

func (f *fakeStore) Claim(id uint) (bool, error) {
	if f.denyClaim[id] {
		return false, nil
	}
	if f.claimed[id] {
		return false, nil
	}
	f.claimed[id] = true
	return true, nil
}

func (f *fakeStore) ReleaseClaim(id uint) error {
	f.claimed[id] = false
	f.released = append(f.released, id)
	return nil
}

func (f *fakeStore) Advance(id uint, next time.Time) error {
	f.advanced[id] = next
	return nil
}

func (f *fakeStore) Retire(id uint) error {
	f.retired = append(f.retired, id)
	return nil
}

type fakeUsers struct {
	users map[uint]*models.User
}

func (f *fakeUsers) GetByID(id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

type fakePrefs struct {
	denied map[uint]bool
}

func (f *fakePrefs) AllowsReminder(userID uint, reminderType string) (bool, error) {
	return !f.denied[userID], nil
}

type fakeNotifier struct {
	sent    []uint
	failFor map[uint]error
}

func (f *fakeNotifier) SendReminder(user *models.User, reminder *models.Reminder) error {
	if err, ok := f.failFor[reminder.ID]; ok {
		return err
	}
	f.sent = append(f.sent, reminder.ID)
	return nil
}

func testScanner(store *fakeStore, users *fakeUsers, prefs *fakePrefs, notifier *fakeNotifier) *Scanner {
	if users == nil {
		users = &fakeUsers{users: map[uint]*models.User{
			1: {ID: 1, Name: "Alice", Email: "alice@example.com"},
		}}
	}
	if prefs == nil {
		prefs = &fakePrefs{denied: map[uint]bool{}}
	}
	if notifier == nil {
		notifier = &fakeNotifier{failFor: map[uint]error{}}
	}
	return NewScanner(store, users, prefs, notifier)
}

func dueReminder(id uint, frequency string, trigger time.Time) models.Reminder {
	return models.Reminder{
		ID:           id,
		UserID:       1,
		ReminderType: models.ReminderTypeMedication,
		Title:        "Take medication",
		Frequency:    frequency,
		NextTrigger:  trigger,
		IsActive:     true,
	}
}

func TestProcessDueReminders_OnceIsRetired(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	store := newFakeStore(dueReminder(1, models.FrequencyOnce, now.Add(-time.Minute)))
	notifier := &fakeNotifier{failFor: map[uint]error{}}

	res, err := testScanner(store, nil, nil, notifier).ProcessDueReminders(now)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Retired)
	assert.Equal(t, 0, res.Advanced)
	assert.Equal(t, []uint{1}, notifier.sent)
	assert.Equal(t, []uint{1}, store.retired)
}

func TestProcessDueReminders_RecurringAdvances(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	trigger := now.Add(-2 * time.Hour)

	tests := []struct {
		frequency string
		wantNext  time.Time
	}{
		{models.FrequencyDaily, trigger.Add(24 * time.Hour)},
		{models.FrequencyWeekly, trigger.Add(7 * 24 * time.Hour)},
		{models.FrequencyMonthly, trigger.Add(30 * 24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.frequency, func(t *testing.T) {
			store := newFakeStore(dueReminder(1, tt.frequency, trigger))

			res, err := testScanner(store, nil, nil, nil).ProcessDueReminders(now)
			require.NoError(t, err)

			assert.Equal(t, 1, res.Sent)
			assert.Equal(t, 1, res.Advanced)
			// Advance is computed from the missed trigger, not from now,
			// so the schedule keeps its original time of day.
			assert.Equal(t, tt.wantNext, store.advanced[1])
		})
	}
}

func TestProcessDueReminders_LostClaimSkips(t *testing.T) {
	now := time.Now()
	store := newFakeStore(dueReminder(1, models.FrequencyDaily, now.Add(-time.Minute)))
	store.denyClaim[1] = true
	notifier := &fakeNotifier{failFor: map[uint]error{}}

	res, err := testScanner(store, nil, nil, notifier).ProcessDueReminders(now)
	require.NoError(t, err)

	assert.Equal(t, 1, res.LostClaim)
	assert.Empty(t, notifier.sent)
	assert.Empty(t, store.advanced)
}

func TestProcessDueReminders_DispatchFailureReleasesClaim(t *testing.T) {
	now := time.Now()
	store := newFakeStore(dueReminder(1, models.FrequencyDaily, now.Add(-time.Minute)))
	notifier := &fakeNotifier{failFor: map[uint]error{1: errors.New("smtp down")}}

	res, err := testScanner(store, nil, nil, notifier).ProcessDueReminders(now)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Sent)
	assert.Equal(t, []uint{1}, store.released)
	// The schedule must not move forward on failure.
	assert.Empty(t, store.advanced)
	assert.Empty(t, store.retired)
}

func TestProcessDueReminders_SuppressedByPreferences(t *testing.T) {
	now := time.Now()
	store := newFakeStore(dueReminder(1, models.FrequencyDaily, now.Add(-time.Minute)))
	prefs := &fakePrefs{denied: map[uint]bool{1: true}}
	notifier := &fakeNotifier{failFor: map[uint]error{}}

	res, err := testScanner(store, nil, prefs, notifier).ProcessDueReminders(now)
	require.NoError(t, err)

	// No email goes out, but the occurrence is consumed and advanced.
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Sent)
	assert.Empty(t, notifier.sent)
	assert.Equal(t, 1, res.Advanced)
}

func TestProcessDueReminders_FailureIsolation(t *testing.T) {
	now := time.Now()
	store := newFakeStore(
		dueReminder(1, models.FrequencyDaily, now.Add(-3*time.Minute)),
		dueReminder(2, models.FrequencyOnce, now.Add(-2*time.Minute)),
		dueReminder(3, models.FrequencyWeekly, now.Add(-time.Minute)),
	)
	notifier := &fakeNotifier{failFor: map[uint]error{2: errors.New("boom")}}

	res, err := testScanner(store, nil, nil, notifier).ProcessDueReminders(now)
	require.NoError(t, err)

	// Reminder 2 fails; 1 and 3 still go out.
	assert.Equal(t, 3, res.Due)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.ElementsMatch(t, []uint{1, 3}, notifier.sent)
	assert.Equal(t, []uint{2}, store.released)
}

func TestProcessDueReminders_MissingUserReleasesClaim(t *testing.T) {
	now := time.Now()
	store := newFakeStore(dueReminder(1, models.FrequencyDaily, now.Add(-time.Minute)))
	users := &fakeUsers{users: map[uint]*models.User{}}

	res, err := testScanner(store, users, nil, nil).ProcessDueReminders(now)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []uint{1}, store.released)
}
