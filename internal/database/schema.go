package database

import (
	"database/sql"
	"fmt"
)

// Migrate creates all tables if they do not exist yet. The driver name
// ("mysql" or "sqlite3") selects the auto-increment spelling; everything
// else in the DDL is shared between the two dialects, which is what lets
// the test suite run the production SQL against an in-memory SQLite.
func Migrate(db *sql.DB, driver string) error {
	pk := "BIGINT PRIMARY KEY AUTO_INCREMENT"
	if driver == "sqlite3" {
		pk = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s,
			role VARCHAR(20) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			full_name VARCHAR(255) NOT NULL,
			photo_url VARCHAR(512),
			coins BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tasks (
			id %s,
			buyer_id BIGINT NOT NULL,
			title VARCHAR(255) NOT NULL,
			detail TEXT NOT NULL,
			submission_info TEXT NOT NULL,
			payable_amount BIGINT NOT NULL,
			required_workers BIGINT NOT NULL,
			no_of_completed BIGINT NOT NULL DEFAULT 0,
			total_payable BIGINT NOT NULL,
			task_image_url VARCHAR(512),
			completion_date TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS submissions (
			id %s,
			task_id BIGINT NOT NULL,
			worker_id BIGINT NOT NULL,
			buyer_id BIGINT NOT NULL,
			task_title VARCHAR(255) NOT NULL,
			payable_amount BIGINT NOT NULL,
			details TEXT NOT NULL,
			proof_url VARCHAR(512),
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS withdrawal_requests (
			id %s,
			worker_id BIGINT NOT NULL,
			withdrawal_coin BIGINT NOT NULL,
			withdraw_amount DOUBLE PRECISION NOT NULL,
			payment_system VARCHAR(50) NOT NULL,
			account_number VARCHAR(100) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS coin_transactions (
			id %s,
			user_id BIGINT NOT NULL,
			type VARCHAR(30) NOT NULL,
			amount BIGINT NOT NULL,
			balance_after BIGINT NOT NULL,
			notes VARCHAR(512),
			created_at TIMESTAMP NOT NULL
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS payments (
			id %s,
			user_id BIGINT NOT NULL,
			coins BIGINT NOT NULL,
			amount_usd DOUBLE PRECISION NOT NULL,
			transaction_id VARCHAR(64) NOT NULL,
			gateway_ref VARCHAR(255),
			created_at TIMESTAMP NOT NULL
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS notifications (
			id %s,
			user_id BIGINT NOT NULL,
			message VARCHAR(512) NOT NULL,
			link VARCHAR(255),
			is_read BOOLEAN NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`, pk),
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
