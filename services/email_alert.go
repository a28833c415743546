package services

import (
	"fmt"
	"log"

	"scholarxp-api/config"
	"scholarxp-api/models"
)

// AlertAdminsOfFlag mails every admin about a newly flagged submission.
// Delivery is best effort: failures are logged, never surfaced to the
// flow that raised the flag. Call from a goroutine.
func AlertAdminsOfFlag(submissionID int, reason string) {
	var emails []string
	if err := config.DB.Model(&models.User{}).
		Where("role_id = ? AND delete_at IS NULL", models.RoleAdmin).
		Pluck("email", &emails).Error; err != nil {
		log.Printf("[AlertAdmins] failed to load admin emails: %v", err)
		return
	}
	if len(emails) == 0 {
		return
	}

	subject := fmt.Sprintf("[ScholarXP] Submission #%d flagged", submissionID)
	body := fmt.Sprintf(`
		<h2>Submission flagged for moderation</h2>
		<p><strong>Submission:</strong> #%d</p>
		<p><strong>Reason:</strong> %s</p>
		<p>Review it in the moderation queue.</p>
	`, submissionID, reason)

	if err := config.SendMail(emails, subject, body); err != nil {
		log.Printf("[AlertAdmins] failed to send flag alert for submission %d: %v", submissionID, err)
	}
}
