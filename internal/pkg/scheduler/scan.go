package scheduler

import (
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/askdrhq/askdr/app/models"
	"github.com/askdrhq/askdr/app/repository"
	"github.com/askdrhq/askdr/internal/pkg/mail"
)

// ReminderStore is the slice of the reminder repository the scanner needs.
type ReminderStore interface {
	Due(now time.Time, limit int) ([]models.Reminder, error)
	Claim(id uint) (bool, error)
	ReleaseClaim(id uint) error
	Advance(id uint, next time.Time) error
	Retire(id uint) error
}

// UserStore resolves reminder owners.
type UserStore interface {
	GetByID(id uint) (*models.User, error)
}

// PreferenceStore answers whether a user wants email for a reminder type.
type PreferenceStore interface {
	AllowsReminder(userID uint, reminderType string) (bool, error)
}

// Notifier dispatches the notification for one due occurrence.
type Notifier interface {
	SendReminder(user *models.User, reminder *models.Reminder) error
}

// Scanner processes due reminders. Each occurrence is claimed before
// dispatch so concurrent scanners deliver it at most once, and a failed
// dispatch releases the claim so the next scan retries.
type Scanner struct {
	store     ReminderStore
	users     UserStore
	prefs     PreferenceStore
	notifier  Notifier
	batchSize int
}

// NewScanner wires a scanner from explicit collaborators.
func NewScanner(store ReminderStore, users UserStore, prefs PreferenceStore, notifier Notifier) *Scanner {
	return &Scanner{
		store:     store,
		users:     users,
		prefs:     prefs,
		notifier:  notifier,
		batchSize: 100,
	}
}

// NewScannerFromDB wires a scanner with the default GORM-backed stores and
// the SMTP notifier.
func NewScannerFromDB(db *gorm.DB) *Scanner {
	repos := repository.NewRepositories(db)
	return NewScanner(
		repos.Reminder,
		repos.User,
		gormPreferenceStore{db: db},
		smtpNotifier{},
	)
}

// ScanResult summarizes one pass over due reminders.
type ScanResult struct {
	Due       int
	Sent      int
	Skipped   int
	Failed    int
	Advanced  int
	Retired   int
	LostClaim int
}

// ProcessDueReminders runs one scan. Errors on individual reminders are
// logged and counted; they never abort the rest of the batch.
func (s *Scanner) ProcessDueReminders(now time.Time) (ScanResult, error) {
	var res ScanResult

	due, err := s.store.Due(now, s.batchSize)
	if err != nil {
		return res, err
	}
	res.Due = len(due)

	for i := range due {
		reminder := &due[i]
		s.processOne(reminder, &res)
	}

	if res.Due > 0 {
		log.Infof("[Scheduler] Scan complete: due=%d sent=%d skipped=%d failed=%d retired=%d",
			res.Due, res.Sent, res.Skipped, res.Failed, res.Retired)
	}
	return res, nil
}

func (s *Scanner) processOne(reminder *models.Reminder, res *ScanResult) {
	claimed, err := s.store.Claim(reminder.ID)
	if err != nil {
		log.Errorf("[Scheduler] Claim failed for reminder %d: %v", reminder.ID, err)
		res.Failed++
		return
	}
	if !claimed {
		// Another scanner got here first.
		res.LostClaim++
		return
	}

	dispatched, err := s.dispatch(reminder)
	if err != nil {
		log.Errorf("[Scheduler] Dispatch failed for reminder %d: %v", reminder.ID, err)
		res.Failed++
		// Release so the next scan retries this occurrence.
		if relErr := s.store.ReleaseClaim(reminder.ID); relErr != nil {
			log.Errorf("[Scheduler] Release failed for reminder %d: %v", reminder.ID, relErr)
		}
		return
	}
	if dispatched {
		res.Sent++
	} else {
		res.Skipped++
	}

	// The occurrence is consumed either way; move the schedule forward.
	if next, ok := reminder.NextOccurrence(reminder.NextTrigger); ok {
		if err := s.store.Advance(reminder.ID, next); err != nil {
			log.Errorf("[Scheduler] Advance failed for reminder %d: %v", reminder.ID, err)
			res.Failed++
			return
		}
		res.Advanced++
	} else {
		if err := s.store.Retire(reminder.ID); err != nil {
			log.Errorf("[Scheduler] Retire failed for reminder %d: %v", reminder.ID, err)
			res.Failed++
			return
		}
		res.Retired++
	}
}

// dispatch sends the notification unless the owner's preferences suppress
// it. A suppressed send reports (false, nil): the occurrence is consumed
// without email.
func (s *Scanner) dispatch(reminder *models.Reminder) (bool, error) {
	user, err := s.users.GetByID(reminder.UserID)
	if err != nil {
		return false, err
	}

	allowed, err := s.prefs.AllowsReminder(user.ID, reminder.ReminderType)
	if err != nil {
		return false, err
	}
	if !allowed {
		return false, nil
	}

	if err := s.notifier.SendReminder(user, reminder); err != nil {
		return false, err
	}
	return true, nil
}

type gormPreferenceStore struct {
	db *gorm.DB
}

func (g gormPreferenceStore) AllowsReminder(userID uint, reminderType string) (bool, error) {
	pref, err := models.GetOrCreateNotificationPreference(g.db, userID)
	if err != nil {
		return false, err
	}
	return pref.AllowsReminder(reminderType), nil
}

type smtpNotifier struct{}

func (smtpNotifier) SendReminder(user *models.User, reminder *models.Reminder) error {
	return mail.SendReminderEmail(user, reminder)
}
