package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go's New function.
func InitSchema(db *sql.DB) error {
	return createUsersTable(db)
}

func createUsersTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		display_name TEXT,
		plan TEXT NOT NULL DEFAULT 'free' CHECK(plan IN ('free', 'trial', 'premium')),
		today_count INTEGER NOT NULL DEFAULT 0,
		vision_count INTEGER NOT NULL DEFAULT 0,
		last_reset_date TEXT NOT NULL,
		mode TEXT NOT NULL DEFAULT 'miu_chat',
		japanese_level TEXT CHECK(japanese_level IN ('beginner', 'middle', 'advanced')),
		reply_style TEXT NOT NULL DEFAULT 'friend',
		anime_style TEXT,
		image_size TEXT CHECK(image_size IN ('square', 'landscape', 'portrait')),
		pending_image_id TEXT,
		pending_image_at INTEGER,
		conversation_history TEXT NOT NULL DEFAULT '[]',
		stripe_customer_id TEXT,
		subscription_id TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_plan ON users(plan);
	CREATE INDEX IF NOT EXISTS idx_users_updated_at ON users(updated_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	return nil
}
