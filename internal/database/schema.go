package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the idempotent DDL applied at startup, in dependency order.
var schema = []struct {
	name string
	ddl  string
}{
	{"users", `CREATE TABLE IF NOT EXISTS users (
    id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    token         VARCHAR(64)  NOT NULL,
    nickname      VARCHAR(64)  NOT NULL DEFAULT '',
    created_at    DATETIME     NOT NULL,
    last_visit    DATETIME     NOT NULL,
    total_minutes BIGINT       NOT NULL DEFAULT 0,
    UNIQUE KEY uq_users_token (token)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"scriptures", `CREATE TABLE IF NOT EXISTS scriptures (
    id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    title          VARCHAR(255) NOT NULL,
    category       VARCHAR(64)  NOT NULL,
    description    TEXT NULL,
    total_chapters INT UNSIGNED NOT NULL DEFAULT 0
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"chapters", `CREATE TABLE IF NOT EXISTS chapters (
    id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    scripture_id BIGINT UNSIGNED NOT NULL,
    chapter_no   INT UNSIGNED NOT NULL,
    title        VARCHAR(255) NOT NULL,
    content      MEDIUMTEXT NOT NULL,
    UNIQUE KEY uq_chapters_no (scripture_id, chapter_no),
    CONSTRAINT fk_chapters_scripture FOREIGN KEY (scripture_id) REFERENCES scriptures (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"reading_progress", `CREATE TABLE IF NOT EXISTS reading_progress (
    id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    user_id         BIGINT UNSIGNED NOT NULL,
    scripture_id    BIGINT UNSIGNED NOT NULL,
    chapter_id      BIGINT UNSIGNED NULL,
    scroll_position DOUBLE NOT NULL DEFAULT 0,
    last_read_at    DATETIME NOT NULL,
    UNIQUE KEY uq_progress_user_scripture (user_id, scripture_id),
    CONSTRAINT fk_progress_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
    CONSTRAINT fk_progress_scripture FOREIGN KEY (scripture_id) REFERENCES scriptures (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"sessions", `CREATE TABLE IF NOT EXISTS sessions (
    id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    user_id        BIGINT UNSIGNED NULL,
    duration_hours DOUBLE NOT NULL,
    order_ref      VARCHAR(64) NOT NULL,
    is_paid        BOOLEAN NOT NULL DEFAULT FALSE,
    is_active      BOOLEAN NOT NULL DEFAULT FALSE,
    start_time     DATETIME(6) NULL,
    end_time       DATETIME(6) NULL,
    created_at     DATETIME(6) NOT NULL,
    UNIQUE KEY uq_sessions_order_ref (order_ref),
    KEY idx_sessions_user (user_id),
    CONSTRAINT fk_sessions_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE SET NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
}

// Migrate creates any missing tables.  Existing tables are left alone.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, t := range schema {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("create table %s: %w", t.name, err)
		}
	}
	return nil
}
