package mailer

import "time"

// EmailJob is the JSON payload put on the RabbitMQ queue when a scheduled
// email is due. The worker loads everything else from the database.
type EmailJob struct {
	ScheduledEmailID string    `json:"scheduled_email_id"`
	EnqueuedAt       time.Time `json:"enqueued_at"`
}
