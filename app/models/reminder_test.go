package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderNextOccurrence(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		frequency string
		want      time.Time
		hasNext   bool
	}{
		{FrequencyOnce, time.Time{}, false},
		{FrequencyDaily, base.Add(24 * time.Hour), true},
		{FrequencyWeekly, base.Add(7 * 24 * time.Hour), true},
		{FrequencyMonthly, base.Add(30 * 24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.frequency, func(t *testing.T) {
			r := &Reminder{Frequency: tt.frequency}
			next, ok := r.NextOccurrence(base)
			assert.Equal(t, tt.hasNext, ok)
			if tt.hasNext {
				assert.Equal(t, tt.want, next)
			}
		})
	}
}

func TestReminderNextOccurrenceKeepsTimeOfDay(t *testing.T) {
	r := &Reminder{Frequency: FrequencyDaily}
	missed := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	next, ok := r.NextOccurrence(missed)
	require.True(t, ok)
	assert.Equal(t, 8, next.Hour())
	assert.Equal(t, 0, next.Minute())
}

func TestReminderIsRecurring(t *testing.T) {
	assert.False(t, (&Reminder{Frequency: FrequencyOnce}).IsRecurring())
	assert.True(t, (&Reminder{Frequency: FrequencyDaily}).IsRecurring())
	assert.True(t, (&Reminder{Frequency: FrequencyWeekly}).IsRecurring())
	assert.True(t, (&Reminder{Frequency: FrequencyMonthly}).IsRecurring())
}

func TestReminderValidate(t *testing.T) {
	valid := &Reminder{
		ReminderType: ReminderTypeMedication,
		Title:        "Take ibuprofen",
		StartTime:    time.Now(),
		Frequency:    FrequencyDaily,
	}
	require.NoError(t, valid.Validate())

	missingTitle := &Reminder{
		ReminderType: ReminderTypeAppointment,
		StartTime:    time.Now(),
		Frequency:    FrequencyOnce,
	}
	assert.Error(t, missingTitle.Validate())

	badFrequency := &Reminder{
		ReminderType: ReminderTypeMedication,
		Title:        "Checkup",
		StartTime:    time.Now(),
		Frequency:    "hourly",
	}
	assert.Error(t, badFrequency.Validate())
}

func TestNotificationPreferenceAllowsReminder(t *testing.T) {
	pref := &NotificationPreference{
		EmailNotifications:   true,
		MedicationReminders:  true,
		AppointmentReminders: false,
	}

	assert.True(t, pref.AllowsReminder(ReminderTypeMedication))
	assert.False(t, pref.AllowsReminder(ReminderTypeAppointment))

	// master toggle suppresses everything
	pref.EmailNotifications = false
	assert.False(t, pref.AllowsReminder(ReminderTypeMedication))
}
