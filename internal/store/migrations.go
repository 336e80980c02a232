package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for all interviewd tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS requests (
		id                 TEXT PRIMARY KEY,
		candidate_id       TEXT NOT NULL,
		job_id             TEXT NOT NULL,
		round_id           TEXT NOT NULL,
		state              TEXT NOT NULL DEFAULT 'PENDING',
		urgent             INTEGER NOT NULL DEFAULT 0,
		notice             TEXT NOT NULL DEFAULT '',
		pipeline_pos       INTEGER NOT NULL DEFAULT 1,
		slots              TEXT NOT NULL DEFAULT '[]',
		slot_cursor        INTEGER NOT NULL DEFAULT 0,
		manual_override    INTEGER NOT NULL DEFAULT 0,
		override_reason    TEXT NOT NULL DEFAULT '',
		availability_bonus INTEGER NOT NULL DEFAULT 0,
		resolver_wins      INTEGER NOT NULL DEFAULT 0,
		score              TEXT NOT NULL DEFAULT '{}',
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS interviews (
		id              TEXT PRIMARY KEY,
		request_id      TEXT NOT NULL,
		candidate_id    TEXT NOT NULL,
		job_id          TEXT NOT NULL,
		round_id        TEXT NOT NULL,
		state           TEXT NOT NULL DEFAULT 'CREATED',
		history         TEXT NOT NULL DEFAULT '[]',
		slot_start      TEXT NOT NULL,
		slot_end        TEXT NOT NULL,
		interviewer_ids TEXT NOT NULL DEFAULT '[]',
		sla_deadline    TEXT,
		sla_status      TEXT NOT NULL DEFAULT 'on_track',
		escalated       INTEGER NOT NULL DEFAULT 0,
		early_warned    INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL,
		closed_at       TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS capacities (
		interviewer_id   TEXT PRIMARY KEY,
		role             TEXT NOT NULL DEFAULT '',
		seniority        TEXT NOT NULL DEFAULT '',
		today_count      INTEGER NOT NULL DEFAULT 0,
		week_count       INTEGER NOT NULL DEFAULT 0,
		daily_limit      INTEGER NOT NULL DEFAULT 0,
		weekly_limit     INTEGER NOT NULL DEFAULT 0,
		availability     REAL NOT NULL DEFAULT 100,
		fatigue          REAL NOT NULL DEFAULT 0,
		round_types      TEXT NOT NULL DEFAULT '[]',
		backup_panel     INTEGER NOT NULL DEFAULT 0,
		soft_violation   INTEGER NOT NULL DEFAULT 0,
		last_assigned_at TEXT,
		day              TEXT NOT NULL DEFAULT '',
		week             TEXT NOT NULL DEFAULT '',
		updated_at       TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS interviewers (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL DEFAULT '',
		role         TEXT NOT NULL DEFAULT '',
		seniority    TEXT NOT NULL DEFAULT '',
		contact      TEXT NOT NULL DEFAULT '',
		round_types  TEXT NOT NULL DEFAULT '[]',
		backup_panel INTEGER NOT NULL DEFAULT 0,
		daily_limit  INTEGER NOT NULL DEFAULT 0,
		weekly_limit INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS candidates (
		id      TEXT PRIMARY KEY,
		name    TEXT NOT NULL DEFAULT '',
		contact TEXT NOT NULL DEFAULT '',
		notice  TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS rounds (
		id              TEXT PRIMARY KEY,
		job_id          TEXT NOT NULL DEFAULT '',
		name            TEXT NOT NULL DEFAULT '',
		type            TEXT NOT NULL DEFAULT '',
		pipeline_pos    INTEGER NOT NULL DEFAULT 1,
		allowed_roles   TEXT NOT NULL DEFAULT '[]',
		blocked_roles   TEXT NOT NULL DEFAULT '[]',
		mandatory_roles TEXT NOT NULL DEFAULT '[]',
		min_seniority   TEXT NOT NULL DEFAULT '',
		duration_min    INTEGER NOT NULL DEFAULT 60
	)`,

	`CREATE TABLE IF NOT EXISTS resolutions (
		id             TEXT PRIMARY KEY,
		resource_key   TEXT NOT NULL,
		slot_start     TEXT NOT NULL,
		interviewer_id TEXT NOT NULL,
		request_ids    TEXT NOT NULL DEFAULT '[]',
		strategy       TEXT NOT NULL DEFAULT '',
		winner_id      TEXT NOT NULL DEFAULT '',
		winner_candidate TEXT NOT NULL DEFAULT '',
		created_at     TEXT NOT NULL,
		resolved_at    TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS swaps (
		id           TEXT PRIMARY KEY,
		interview_id TEXT NOT NULL,
		round_id     TEXT NOT NULL,
		vacated_start TEXT NOT NULL,
		vacated_end   TEXT NOT NULL,
		replaced     TEXT NOT NULL DEFAULT '',
		backup       TEXT NOT NULL DEFAULT '{}',
		state        TEXT NOT NULL DEFAULT 'PENDING_APPROVAL',
		auto         INTEGER NOT NULL DEFAULT 0,
		reason       TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL,
		decided_at   TEXT,
		decided_by   TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS operator_errors (
		id          TEXT PRIMARY KEY,
		code        TEXT NOT NULL,
		message     TEXT NOT NULL,
		entity_kind TEXT NOT NULL DEFAULT '',
		entity_id   TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		resolved    INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_requests_state ON requests(state)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_candidate ON requests(candidate_id)`,
	`CREATE INDEX IF NOT EXISTS idx_interviews_state ON interviews(state)`,
	`CREATE INDEX IF NOT EXISTS idx_interviews_candidate ON interviews(candidate_id)`,
	`CREATE INDEX IF NOT EXISTS idx_resolutions_winner ON resolutions(winner_candidate, resolved_at)`,
	`CREATE INDEX IF NOT EXISTS idx_swaps_state ON swaps(state)`,
	`CREATE INDEX IF NOT EXISTS idx_operator_errors_resolved ON operator_errors(resolved)`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
