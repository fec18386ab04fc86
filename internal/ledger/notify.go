package ledger

import (
	"database/sql"
	"fmt"
	"time"
)

// addNotification creates a notification row inside an operation's
// transaction, so a lifecycle event and its notification commit together.
func (s *Service) addNotification(tx *sql.Tx, userID int64, message string, link string) error {
	var nullLink sql.NullString
	if link != "" {
		nullLink = sql.NullString{String: link, Valid: true}
	}

	_, err := tx.Exec(`
		INSERT INTO notifications
		(user_id, message, link, is_read, created_at)
		VALUES (?, ?, ?, 0, ?)`,
		userID, message, nullLink, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to add notification: %w", err)
	}
	return nil
}

// PurgeReadNotifications deletes read notifications older than the cutoff.
// Called by the housekeeping worker in main; returns rows removed.
func (s *Service) PurgeReadNotifications(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := s.DB.Exec(
		"DELETE FROM notifications WHERE is_read = 1 AND created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
