package mail

import (
	"fmt"
	"html"
	"time"

	"github.com/askdrhq/askdr/app/models"
)

// SendReminderEmail delivers the notification for one reminder occurrence.
func SendReminderEmail(user *models.User, reminder *models.Reminder) error {
	subject := fmt.Sprintf("Reminder: %s", reminder.Title)
	body := buildReminderBody(user.Name, reminder)
	return SendMail(user.Email, subject, body)
}

// SendPaymentConfirmationEmail thanks the user after a successful invoice.
func SendPaymentConfirmationEmail(email, name, plan string) error {
	subject := "Payment received - thank you"
	body := fmt.Sprintf(
		"<h2>Thank you, %s!</h2>"+
			"<p>Your payment was received and your <strong>%s</strong> plan is active.</p>"+
			"<p>You can manage your subscription anytime from your account settings.</p>",
		html.EscapeString(name), html.EscapeString(plan),
	)
	return SendMail(email, subject, body)
}

func buildReminderBody(name string, reminder *models.Reminder) string {
	kind := "reminder"
	switch reminder.ReminderType {
	case models.ReminderTypeMedication:
		kind = "medication reminder"
	case models.ReminderTypeAppointment:
		kind = "appointment reminder"
	}

	body := fmt.Sprintf(
		"<h2>Hello %s,</h2>"+
			"<p>This is your %s:</p>"+
			"<h3>%s</h3>",
		html.EscapeString(name), kind, html.EscapeString(reminder.Title),
	)
	if reminder.Notes != "" {
		body += fmt.Sprintf("<p>%s</p>", html.EscapeString(reminder.Notes))
	}
	body += fmt.Sprintf("<p><small>Scheduled for %s</small></p>",
		reminder.NextTrigger.Format(time.RFC1123))
	if reminder.IsRecurring() {
		body += fmt.Sprintf("<p><small>This reminder repeats %s.</small></p>", reminder.Frequency)
	}
	return body
}
