package store

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('admin','member')),
		created_at    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS folders (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		folder_id  INTEGER NULL REFERENCES folders(id) ON DELETE SET NULL,
		title      TEXT NOT NULL,
		content    TEXT NOT NULL,
		type       TEXT NOT NULL DEFAULT 'normal' CHECK (type IN ('normal','weekly')),
		status     TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft','submitted')),
		archived   BOOLEAN NOT NULL DEFAULT 0,
		start_date TEXT NOT NULL DEFAULT '',
		end_date   TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_user ON notes(user_id, archived)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_weekly ON notes(type, status)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name    TEXT NOT NULL,
		UNIQUE (user_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS note_tags (
		note_id INTEGER NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
		tag_id  INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (note_id, tag_id)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('admin','member')),
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS folders (
		id      BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		folder_id  BIGINT NULL REFERENCES folders(id) ON DELETE SET NULL,
		title      TEXT NOT NULL,
		content    TEXT NOT NULL,
		type       TEXT NOT NULL DEFAULT 'normal' CHECK (type IN ('normal','weekly')),
		status     TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft','submitted')),
		archived   BOOLEAN NOT NULL DEFAULT FALSE,
		start_date TEXT NOT NULL DEFAULT '',
		end_date   TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_user ON notes(user_id, archived)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_weekly ON notes(type, status)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id      BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name    TEXT NOT NULL,
		UNIQUE (user_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS note_tags (
		note_id BIGINT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
		tag_id  BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (note_id, tag_id)
	)`,
}
