package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// slowQueryThreshold triggers a warning log for queries that exceed it.
const slowQueryThreshold = 200 * time.Millisecond

func (db *DB) observe(ctx context.Context, op string, start time.Time) {
	if elapsed := time.Since(start); elapsed > slowQueryThreshold {
		slog.WarnContext(ctx, "Slow query",
			"op", op,
			"elapsed_ms", elapsed.Milliseconds())
	}
}

// nullString converts an empty string to a SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullUnix converts a zero time to a SQL NULL, otherwise a Unix timestamp.
func nullUnix(t time.Time) sql.NullInt64 {
	return sql.NullInt64{Int64: t.Unix(), Valid: !t.IsZero()}
}

const userColumns = `id, display_name, plan, today_count, vision_count, last_reset_date,
	mode, japanese_level, reply_style, anime_style, image_size,
	pending_image_id, pending_image_at, conversation_history,
	stripe_customer_id, subscription_id, created_at, updated_at`

func scanUser(row *sql.Row) (*User, error) {
	var (
		u              User
		displayName    sql.NullString
		japaneseLevel  sql.NullString
		animeStyle     sql.NullString
		imageSize      sql.NullString
		pendingImageID sql.NullString
		pendingImageAt sql.NullInt64
		historyJSON    string
		stripeCustomer sql.NullString
		subscription   sql.NullString
		createdAt      int64
		updatedAt      int64
	)

	err := row.Scan(
		&u.ID, &displayName, &u.Plan, &u.TodayCount, &u.VisionCount, &u.LastResetDate,
		&u.Mode, &japaneseLevel, &u.ReplyStyle, &animeStyle, &imageSize,
		&pendingImageID, &pendingImageAt, &historyJSON,
		&stripeCustomer, &subscription, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.DisplayName = displayName.String
	u.JapaneseLevel = JapaneseLevel(japaneseLevel.String)
	u.AnimeStyle = animeStyle.String
	u.ImageSize = ImageSize(imageSize.String)
	u.PendingImageID = pendingImageID.String
	if pendingImageAt.Valid {
		u.PendingImageAt = time.Unix(pendingImageAt.Int64, 0)
	}
	u.StripeCustomerID = stripeCustomer.String
	u.SubscriptionID = subscription.String
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)

	if err := json.Unmarshal([]byte(historyJSON), &u.History); err != nil {
		return nil, fmt.Errorf("failed to decode history for user %s: %w", u.ID, err)
	}

	return &u, nil
}

// GetUser returns the user row, or (nil, nil) when the user is unknown.
func (db *DB) GetUser(ctx context.Context, id string) (*User, error) {
	defer db.observe(ctx, "get_user", time.Now())

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	u, err := scanUser(db.conn.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return u, nil
}

// GetOrCreateUser loads the user row, creating it with defaults on first
// contact. today is the current date string (YYYY-MM-DD, JST) used to stamp
// last_reset_date on creation.
func (db *DB) GetOrCreateUser(ctx context.Context, id, displayName, today string) (*User, error) {
	u, err := db.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	defer db.observe(ctx, "create_user", time.Now())

	now := time.Now().Unix()
	query := `
	INSERT INTO users (id, display_name, plan, mode, reply_style, last_reset_date, conversation_history, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, '[]', ?, ?)
	ON CONFLICT(id) DO NOTHING`

	_, err = db.conn.ExecContext(ctx, query,
		id, nullString(displayName), PlanFree, ModeMiuChat, StyleFriend, today, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", id, err)
	}

	// Re-read so a concurrent creation still yields the stored row.
	u, err = db.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %s missing after insert", id)
	}
	return u, nil
}

// ResetDailyCounters zeroes both counters and stamps today's date.
// The WHERE guard makes repeated resets on the same day no-ops.
func (db *DB) ResetDailyCounters(ctx context.Context, id, today string) error {
	defer db.observe(ctx, "reset_daily_counters", time.Now())

	query := `
	UPDATE users SET today_count = 0, vision_count = 0, last_reset_date = ?, updated_at = ?
	WHERE id = ? AND last_reset_date != ?`

	if _, err := db.conn.ExecContext(ctx, query, today, time.Now().Unix(), id, today); err != nil {
		return fmt.Errorf("failed to reset counters for user %s: %w", id, err)
	}
	return nil
}

// IncrementTodayCount bumps the daily text counter atomically.
func (db *DB) IncrementTodayCount(ctx context.Context, id string) error {
	defer db.observe(ctx, "increment_today_count", time.Now())

	query := `UPDATE users SET today_count = today_count + 1, updated_at = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to increment today_count for user %s: %w", id, err)
	}
	return nil
}

// IncrementVisionCount bumps the daily vision counter atomically.
func (db *DB) IncrementVisionCount(ctx context.Context, id string) error {
	defer db.observe(ctx, "increment_vision_count", time.Now())

	query := `UPDATE users SET vision_count = vision_count + 1, updated_at = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to increment vision_count for user %s: %w", id, err)
	}
	return nil
}

// SetMode updates the conversation mode.
func (db *DB) SetMode(ctx context.Context, id string, mode Mode) error {
	defer db.observe(ctx, "set_mode", time.Now())

	query := `UPDATE users SET mode = ?, updated_at = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, mode, time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to set mode for user %s: %w", id, err)
	}
	return nil
}

// SetJapaneseLevel completes onboarding.
func (db *DB) SetJapaneseLevel(ctx context.Context, id string, level JapaneseLevel) error {
	defer db.observe(ctx, "set_japanese_level", time.Now())

	query := `UPDATE users SET japanese_level = ?, updated_at = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, level, time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to set japanese_level for user %s: %w", id, err)
	}
	return nil
}

// SetReplyStyle updates the reply-drafting tone.
func (db *DB) SetReplyStyle(ctx context.Context, id string, style ReplyStyle) error {
	defer db.observe(ctx, "set_reply_style", time.Now())

	query := `UPDATE users SET reply_style = ?, updated_at = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, style, time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to set reply_style for user %s: %w", id, err)
	}
	return nil
}

// SetAnimeStyle selects a generation style and clears the size selection,
// forcing an explicit size choice for the new style.
func (db *DB) SetAnimeStyle(ctx context.Context, id, style string) error {
	defer db.observe(ctx, "set_anime_style", time.Now())

	query := `UPDATE users SET anime_style = ?, image_size = NULL, updated_at = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, nullString(style), time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to set anime_style for user %s: %w", id, err)
	}
	return nil
}

// SetImageSize selects the output aspect.
func (db *DB) SetImageSize(ctx context.Context, id string, size ImageSize) error {
	defer db.observe(ctx, "set_image_size", time.Now())

	query := `UPDATE users SET image_size = ?, updated_at = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, nullString(string(size)), time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to set image_size for user %s: %w", id, err)
	}
	return nil
}

// ClearImageSize resets the aspect selection (used when re-entering the
// image mode so the size is chosen again).
func (db *DB) ClearImageSize(ctx context.Context, id string) error {
	defer db.observe(ctx, "clear_image_size", time.Now())

	query := `UPDATE users SET image_size = NULL, updated_at = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to clear image_size for user %s: %w", id, err)
	}
	return nil
}

// SetPendingImage records a buffered image awaiting style/size selection.
// Any previous buffer reference is superseded.
func (db *DB) SetPendingImage(ctx context.Context, id, imageID string, at time.Time) error {
	defer db.observe(ctx, "set_pending_image", time.Now())

	query := `UPDATE users SET pending_image_id = ?, pending_image_at = ?, updated_at = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, nullString(imageID), nullUnix(at), time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to set pending image for user %s: %w", id, err)
	}
	return nil
}

// ClearPendingImage consumes the buffered image reference.
func (db *DB) ClearPendingImage(ctx context.Context, id string) error {
	defer db.observe(ctx, "clear_pending_image", time.Now())

	query := `UPDATE users SET pending_image_id = NULL, pending_image_at = NULL, updated_at = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to clear pending image for user %s: %w", id, err)
	}
	return nil
}

// AppendHistory appends conversation turns, trimming the stored list to the
// most recent maxStored entries so the row cannot grow without bound.
// Read-modify-write of the JSON column: concurrent appends from the same
// user may lose a turn, an accepted trade-off at this message rate.
func (db *DB) AppendHistory(ctx context.Context, id string, entries []HistoryEntry, maxStored int) error {
	if len(entries) == 0 {
		return nil
	}
	defer db.observe(ctx, "append_history", time.Now())

	u, err := db.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("cannot append history for unknown user %s", id)
	}

	history := append(u.History, entries...)
	if maxStored > 0 && len(history) > maxStored {
		history = history[len(history)-maxStored:]
	}

	encoded, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode history for user %s: %w", id, err)
	}

	query := `UPDATE users SET conversation_history = ?, updated_at = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, string(encoded), time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to append history for user %s: %w", id, err)
	}
	return nil
}

// SetDisplayName refreshes the cached profile name.
func (db *DB) SetDisplayName(ctx context.Context, id, displayName string) error {
	defer db.observe(ctx, "set_display_name", time.Now())

	query := `UPDATE users SET display_name = ?, updated_at = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, nullString(displayName), time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to set display name for user %s: %w", id, err)
	}
	return nil
}

// SetPlan syncs the subscription tier and billing linkage, driven by the
// payment webhook collaborator.
func (db *DB) SetPlan(ctx context.Context, id string, plan Plan, stripeCustomerID, subscriptionID string) error {
	defer db.observe(ctx, "set_plan", time.Now())

	query := `
	UPDATE users SET plan = ?, stripe_customer_id = ?, subscription_id = ?, updated_at = ?
	WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query,
		plan, nullString(stripeCustomerID), nullString(subscriptionID), time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to set plan for user %s: %w", id, err)
	}
	return nil
}

// StalePendingImageIDs returns buffer ids older than maxAge, for cleanup of
// orphaned files in the pending image directory.
func (db *DB) StalePendingImageIDs(ctx context.Context, maxAge time.Duration) ([]string, error) {
	defer db.observe(ctx, "stale_pending_image_ids", time.Now())

	cutoff := time.Now().Add(-maxAge).Unix()
	query := `SELECT pending_image_id FROM users WHERE pending_image_id IS NOT NULL AND pending_image_at < ?`

	rows, err := db.conn.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale pending images: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan pending image id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ClearStalePendingImages drops buffer references older than maxAge. Returns
// the number of users cleared. The caller removes the files separately.
func (db *DB) ClearStalePendingImages(ctx context.Context, maxAge time.Duration) (int64, error) {
	defer db.observe(ctx, "clear_stale_pending_images", time.Now())

	cutoff := time.Now().Add(-maxAge).Unix()
	query := `UPDATE users SET pending_image_id = NULL, pending_image_at = NULL
	          WHERE pending_image_id IS NOT NULL AND pending_image_at < ?`

	result, err := db.conn.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clear stale pending images: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared pending images: %w", err)
	}
	return n, nil
}
