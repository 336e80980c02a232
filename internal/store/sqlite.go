package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/interviewd/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// --- Scheduling requests ---

func (s *SQLiteStore) CreateRequest(ctx context.Context, req *model.SchedulingRequest) error {
	s.logger.Debug("sql", "op", "insert", "table", "requests", "id", req.ID)

	slotsJSON, err := marshalJSON(req.Slots)
	if err != nil {
		return fmt.Errorf("marshal slots: %w", err)
	}
	scoreJSON, err := marshalJSON(req.Score)
	if err != nil {
		return fmt.Errorf("marshal score: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO requests (id, candidate_id, job_id, round_id, state, urgent, notice, pipeline_pos,
		 slots, slot_cursor, manual_override, override_reason, availability_bonus, resolver_wins, score,
		 created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.CandidateID, req.JobID, req.RoundID, req.State, boolToInt(req.Urgent), req.Notice,
		req.PipelinePos, slotsJSON, req.SlotCursor, boolToInt(req.ManualOverride), req.OverrideReason,
		req.AvailabilityBonus, req.ResolverWins, scoreJSON,
		formatTime(req.CreatedAt), formatTime(req.UpdatedAt),
	)
	return err
}

const requestColumns = `id, candidate_id, job_id, round_id, state, urgent, notice, pipeline_pos,
	slots, slot_cursor, manual_override, override_reason, availability_bonus, resolver_wins, score,
	created_at, updated_at`

func (s *SQLiteStore) scanRequest(row interface{ Scan(...any) error }) (*model.SchedulingRequest, error) {
	var req model.SchedulingRequest
	var urgent, override int
	var slotsJSON, scoreJSON string
	var createdAt, updatedAt string

	err := row.Scan(&req.ID, &req.CandidateID, &req.JobID, &req.RoundID, &req.State, &urgent,
		&req.Notice, &req.PipelinePos, &slotsJSON, &req.SlotCursor, &override, &req.OverrideReason,
		&req.AvailabilityBonus, &req.ResolverWins, &scoreJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	req.Urgent = urgent != 0
	req.ManualOverride = override != 0
	if err := json.Unmarshal([]byte(slotsJSON), &req.Slots); err != nil {
		return nil, fmt.Errorf("unmarshal slots: %w", err)
	}
	if scoreJSON != "" && scoreJSON != "null" && scoreJSON != "{}" {
		if err := json.Unmarshal([]byte(scoreJSON), &req.Score); err != nil {
			return nil, fmt.Errorf("unmarshal score: %w", err)
		}
	}
	req.CreatedAt = parseTime(createdAt)
	req.UpdatedAt = parseTime(updatedAt)
	return &req, nil
}

func (s *SQLiteStore) GetRequest(ctx context.Context, id string) (*model.SchedulingRequest, error) {
	s.logger.Debug("sql", "op", "select", "table", "requests", "id", id)

	req, err := s.scanRequest(s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return req, err
}

func (s *SQLiteStore) ListRequests(ctx context.Context, opts model.ListOptions) ([]*model.SchedulingRequest, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "requests", "state", opts.State)
	opts.Clamp()

	where, args := "", []any{}
	if opts.State != "" {
		where = " WHERE state = ?"
		args = append(args, opts.State)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM requests`+where+` ORDER BY created_at LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.SchedulingRequest
	for rows.Next() {
		req, err := s.scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, total, rows.Err()
}

func (s *SQLiteStore) GetRequestsByState(ctx context.Context, state model.RequestState) ([]*model.SchedulingRequest, error) {
	s.logger.Debug("sql", "op", "select_by_state", "table", "requests", "state", state)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE state = ? ORDER BY created_at`, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.SchedulingRequest
	for rows.Next() {
		req, err := s.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateRequest(ctx context.Context, req *model.SchedulingRequest) error {
	s.logger.Debug("sql", "op", "update", "table", "requests", "id", req.ID)

	slotsJSON, err := marshalJSON(req.Slots)
	if err != nil {
		return fmt.Errorf("marshal slots: %w", err)
	}
	scoreJSON, err := marshalJSON(req.Score)
	if err != nil {
		return fmt.Errorf("marshal score: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE requests SET state = ?, urgent = ?, notice = ?, pipeline_pos = ?, slots = ?,
		 slot_cursor = ?, manual_override = ?, override_reason = ?, availability_bonus = ?,
		 resolver_wins = ?, score = ?, updated_at = ?
		 WHERE id = ?`,
		req.State, boolToInt(req.Urgent), req.Notice, req.PipelinePos, slotsJSON,
		req.SlotCursor, boolToInt(req.ManualOverride), req.OverrideReason, req.AvailabilityBonus,
		req.ResolverWins, scoreJSON, formatTime(req.UpdatedAt), req.ID,
	)
	return err
}

// --- Interviews ---

const interviewColumns = `id, request_id, candidate_id, job_id, round_id, state, history,
	slot_start, slot_end, interviewer_ids, sla_deadline, sla_status, escalated, early_warned,
	created_at, updated_at, closed_at`

func (s *SQLiteStore) CreateInterview(ctx context.Context, iv *model.InterviewInstance) error {
	s.logger.Debug("sql", "op", "insert", "table", "interviews", "id", iv.ID)

	historyJSON, err := marshalJSON(iv.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	ivsJSON, err := marshalJSON(iv.InterviewerIDs)
	if err != nil {
		return fmt.Errorf("marshal interviewer ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interviews (id, request_id, candidate_id, job_id, round_id, state, history,
		 slot_start, slot_end, interviewer_ids, sla_deadline, sla_status, escalated, early_warned,
		 created_at, updated_at, closed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		iv.ID, iv.RequestID, iv.CandidateID, iv.JobID, iv.RoundID, iv.State, historyJSON,
		formatTime(iv.Slot.Start), formatTime(iv.Slot.End), ivsJSON,
		formatTimePtr(iv.SLADeadline), iv.SLAStatus, boolToInt(iv.Escalated), boolToInt(iv.EarlyWarned),
		formatTime(iv.CreatedAt), formatTime(iv.UpdatedAt), formatTimePtr(iv.ClosedAt),
	)
	return err
}

func (s *SQLiteStore) scanInterview(row interface{ Scan(...any) error }) (*model.InterviewInstance, error) {
	var iv model.InterviewInstance
	var historyJSON, ivsJSON string
	var slotStart, slotEnd, createdAt, updatedAt string
	var slaDeadline, closedAt sql.NullString
	var escalated, earlyWarned int

	err := row.Scan(&iv.ID, &iv.RequestID, &iv.CandidateID, &iv.JobID, &iv.RoundID, &iv.State,
		&historyJSON, &slotStart, &slotEnd, &ivsJSON, &slaDeadline, &iv.SLAStatus,
		&escalated, &earlyWarned, &createdAt, &updatedAt, &closedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(historyJSON), &iv.History); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	if err := json.Unmarshal([]byte(ivsJSON), &iv.InterviewerIDs); err != nil {
		return nil, fmt.Errorf("unmarshal interviewer ids: %w", err)
	}
	iv.Slot = model.Slot{Start: parseTime(slotStart), End: parseTime(slotEnd)}
	iv.SLADeadline = parseTimePtr(slaDeadline)
	iv.Escalated = escalated != 0
	iv.EarlyWarned = earlyWarned != 0
	iv.CreatedAt = parseTime(createdAt)
	iv.UpdatedAt = parseTime(updatedAt)
	iv.ClosedAt = parseTimePtr(closedAt)
	return &iv, nil
}

func (s *SQLiteStore) GetInterview(ctx context.Context, id string) (*model.InterviewInstance, error) {
	s.logger.Debug("sql", "op", "select", "table", "interviews", "id", id)

	iv, err := s.scanInterview(s.db.QueryRowContext(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return iv, err
}

func (s *SQLiteStore) ListInterviews(ctx context.Context, opts model.ListOptions) ([]*model.InterviewInstance, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "interviews", "state", opts.State)
	opts.Clamp()

	where, args := "", []any{}
	if opts.State != "" {
		where = " WHERE state = ?"
		args = append(args, opts.State)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM interviews`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+interviewColumns+` FROM interviews`+where+` ORDER BY created_at LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.InterviewInstance
	for rows.Next() {
		iv, err := s.scanInterview(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, iv)
	}
	return out, total, rows.Err()
}

func (s *SQLiteStore) GetInterviewsByState(ctx context.Context, state model.InterviewState) ([]*model.InterviewInstance, error) {
	s.logger.Debug("sql", "op", "select_by_state", "table", "interviews", "state", state)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE state = ? ORDER BY created_at`, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.InterviewInstance
	for rows.Next() {
		iv, err := s.scanInterview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateInterview(ctx context.Context, iv *model.InterviewInstance) error {
	s.logger.Debug("sql", "op", "update", "table", "interviews", "id", iv.ID)

	historyJSON, err := marshalJSON(iv.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	ivsJSON, err := marshalJSON(iv.InterviewerIDs)
	if err != nil {
		return fmt.Errorf("marshal interviewer ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE interviews SET state = ?, history = ?, slot_start = ?, slot_end = ?,
		 interviewer_ids = ?, sla_deadline = ?, sla_status = ?, escalated = ?, early_warned = ?,
		 updated_at = ?, closed_at = ?
		 WHERE id = ?`,
		iv.State, historyJSON, formatTime(iv.Slot.Start), formatTime(iv.Slot.End),
		ivsJSON, formatTimePtr(iv.SLADeadline), iv.SLAStatus, boolToInt(iv.Escalated),
		boolToInt(iv.EarlyWarned), formatTime(iv.UpdatedAt), formatTimePtr(iv.ClosedAt), iv.ID,
	)
	return err
}

// --- Capacities ---

func (s *SQLiteStore) UpsertCapacity(ctx context.Context, c *model.InterviewerCapacity) error {
	s.logger.Debug("sql", "op", "upsert", "table", "capacities", "id", c.InterviewerID)

	rtJSON, err := marshalJSON(c.RoundTypes)
	if err != nil {
		return fmt.Errorf("marshal round types: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO capacities (interviewer_id, role, seniority, today_count, week_count,
		 daily_limit, weekly_limit, availability, fatigue, round_types, backup_panel,
		 soft_violation, last_assigned_at, day, week, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(interviewer_id) DO UPDATE SET
		 role = excluded.role, seniority = excluded.seniority,
		 today_count = excluded.today_count, week_count = excluded.week_count,
		 daily_limit = excluded.daily_limit, weekly_limit = excluded.weekly_limit,
		 availability = excluded.availability, fatigue = excluded.fatigue,
		 round_types = excluded.round_types, backup_panel = excluded.backup_panel,
		 soft_violation = excluded.soft_violation, last_assigned_at = excluded.last_assigned_at,
		 day = excluded.day, week = excluded.week, updated_at = excluded.updated_at`,
		c.InterviewerID, c.Role, c.Seniority, c.TodayCount, c.WeekCount,
		c.DailyLimit, c.WeeklyLimit, c.Availability, c.Fatigue, rtJSON, boolToInt(c.BackupPanel),
		boolToInt(c.SoftViolation), formatTimePtr(c.LastAssignedAt), c.Day, c.Week, formatTime(c.UpdatedAt),
	)
	return err
}

const capacityColumns = `interviewer_id, role, seniority, today_count, week_count, daily_limit,
	weekly_limit, availability, fatigue, round_types, backup_panel, soft_violation,
	last_assigned_at, day, week, updated_at`

func (s *SQLiteStore) scanCapacity(row interface{ Scan(...any) error }) (*model.InterviewerCapacity, error) {
	var c model.InterviewerCapacity
	var rtJSON, updatedAt string
	var lastAssigned sql.NullString
	var backup, soft int

	err := row.Scan(&c.InterviewerID, &c.Role, &c.Seniority, &c.TodayCount, &c.WeekCount,
		&c.DailyLimit, &c.WeeklyLimit, &c.Availability, &c.Fatigue, &rtJSON, &backup, &soft,
		&lastAssigned, &c.Day, &c.Week, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(rtJSON), &c.RoundTypes); err != nil {
		return nil, fmt.Errorf("unmarshal round types: %w", err)
	}
	c.BackupPanel = backup != 0
	c.SoftViolation = soft != 0
	c.LastAssignedAt = parseTimePtr(lastAssigned)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

func (s *SQLiteStore) GetCapacity(ctx context.Context, interviewerID string) (*model.InterviewerCapacity, error) {
	s.logger.Debug("sql", "op", "select", "table", "capacities", "id", interviewerID)

	c, err := s.scanCapacity(s.db.QueryRowContext(ctx,
		`SELECT `+capacityColumns+` FROM capacities WHERE interviewer_id = ?`, interviewerID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (s *SQLiteStore) ListCapacities(ctx context.Context) ([]*model.InterviewerCapacity, error) {
	s.logger.Debug("sql", "op", "list", "table", "capacities")

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+capacityColumns+` FROM capacities ORDER BY interviewer_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.InterviewerCapacity
	for rows.Next() {
		c, err := s.scanCapacity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Directory ---

// ReplaceDirectory swaps the directory tables for the snapshot's contents in
// a single transaction. Capacity records persist across snapshots.
func (s *SQLiteStore) ReplaceDirectory(ctx context.Context, snap *model.DirectorySnapshot) error {
	s.logger.Debug("sql", "op", "replace", "table", "directory",
		"interviewers", len(snap.Interviewers), "candidates", len(snap.Candidates), "rounds", len(snap.Rounds))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"interviewers", "candidates", "rounds"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, iv := range snap.Interviewers {
		rtJSON, err := marshalJSON(iv.RoundTypes)
		if err != nil {
			return fmt.Errorf("marshal round types: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO interviewers (id, name, role, seniority, contact, round_types, backup_panel, daily_limit, weekly_limit)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			iv.ID, iv.Name, iv.Role, iv.Seniority, iv.Contact, rtJSON, boolToInt(iv.BackupPanel),
			iv.DailyLimit, iv.WeeklyLimit)
		if err != nil {
			return fmt.Errorf("insert interviewer %s: %w", iv.ID, err)
		}
	}

	for _, c := range snap.Candidates {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO candidates (id, name, contact, notice) VALUES (?, ?, ?, ?)`,
			c.ID, c.Name, c.Contact, c.Notice)
		if err != nil {
			return fmt.Errorf("insert candidate %s: %w", c.ID, err)
		}
	}

	for _, r := range snap.Rounds {
		allowedJSON, err := marshalJSON(r.AllowedRoles)
		if err != nil {
			return fmt.Errorf("marshal allowed roles: %w", err)
		}
		blockedJSON, err := marshalJSON(r.BlockedRoles)
		if err != nil {
			return fmt.Errorf("marshal blocked roles: %w", err)
		}
		mandatoryJSON, err := marshalJSON(r.MandatoryRoles)
		if err != nil {
			return fmt.Errorf("marshal mandatory roles: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO rounds (id, job_id, name, type, pipeline_pos, allowed_roles, blocked_roles, mandatory_roles, min_seniority, duration_min)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.JobID, r.Name, r.Type, r.PipelinePos, allowedJSON, blockedJSON, mandatoryJSON,
			r.MinSeniority, r.DurationMin)
		if err != nil {
			return fmt.Errorf("insert round %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetRound(ctx context.Context, id string) (*model.Round, error) {
	s.logger.Debug("sql", "op", "select", "table", "rounds", "id", id)

	var r model.Round
	var allowedJSON, blockedJSON, mandatoryJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, job_id, name, type, pipeline_pos, allowed_roles, blocked_roles, mandatory_roles, min_seniority, duration_min
		 FROM rounds WHERE id = ?`, id,
	).Scan(&r.ID, &r.JobID, &r.Name, &r.Type, &r.PipelinePos, &allowedJSON, &blockedJSON,
		&mandatoryJSON, &r.MinSeniority, &r.DurationMin)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(allowedJSON), &r.AllowedRoles); err != nil {
		return nil, fmt.Errorf("unmarshal allowed roles: %w", err)
	}
	if err := json.Unmarshal([]byte(blockedJSON), &r.BlockedRoles); err != nil {
		return nil, fmt.Errorf("unmarshal blocked roles: %w", err)
	}
	if err := json.Unmarshal([]byte(mandatoryJSON), &r.MandatoryRoles); err != nil {
		return nil, fmt.Errorf("unmarshal mandatory roles: %w", err)
	}
	return &r, nil
}

func (s *SQLiteStore) scanInterviewer(row interface{ Scan(...any) error }) (*model.Interviewer, error) {
	var iv model.Interviewer
	var rtJSON string
	var backup int

	err := row.Scan(&iv.ID, &iv.Name, &iv.Role, &iv.Seniority, &iv.Contact, &rtJSON, &backup,
		&iv.DailyLimit, &iv.WeeklyLimit)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rtJSON), &iv.RoundTypes); err != nil {
		return nil, fmt.Errorf("unmarshal round types: %w", err)
	}
	iv.BackupPanel = backup != 0
	return &iv, nil
}

func (s *SQLiteStore) GetInterviewer(ctx context.Context, id string) (*model.Interviewer, error) {
	s.logger.Debug("sql", "op", "select", "table", "interviewers", "id", id)

	iv, err := s.scanInterviewer(s.db.QueryRowContext(ctx,
		`SELECT id, name, role, seniority, contact, round_types, backup_panel, daily_limit, weekly_limit
		 FROM interviewers WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return iv, err
}

func (s *SQLiteStore) ListInterviewers(ctx context.Context) ([]*model.Interviewer, error) {
	s.logger.Debug("sql", "op", "list", "table", "interviewers")

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, role, seniority, contact, round_types, backup_panel, daily_limit, weekly_limit
		 FROM interviewers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Interviewer
	for rows.Next() {
		iv, err := s.scanInterviewer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetCandidate(ctx context.Context, id string) (*model.Candidate, error) {
	s.logger.Debug("sql", "op", "select", "table", "candidates", "id", id)

	var c model.Candidate
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, contact, notice FROM candidates WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Contact, &c.Notice)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// --- Resolutions ---

func (s *SQLiteStore) RecordResolution(ctx context.Context, res *model.ContestedResource) error {
	s.logger.Debug("sql", "op", "insert", "table", "resolutions", "key", res.Key)

	idsJSON, err := marshalJSON(res.RequestIDs)
	if err != nil {
		return fmt.Errorf("marshal request ids: %w", err)
	}

	// winner_candidate backs the fair strategy's rolling-window win count.
	var winnerCandidate string
	if res.WinnerID != "" {
		if req, err := s.GetRequest(ctx, res.WinnerID); err == nil && req != nil {
			winnerCandidate = req.CandidateID
		}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resolutions (id, resource_key, slot_start, interviewer_id, request_ids,
		 strategy, winner_id, winner_candidate, created_at, resolved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.Key, formatTime(res.Slot.Start), res.InterviewerID, idsJSON,
		res.Strategy, res.WinnerID, winnerCandidate, formatTime(res.CreatedAt),
		formatTimePtr(res.ResolvedAt),
	)
	return err
}

func (s *SQLiteStore) CountWinsSince(ctx context.Context, candidateID string, since time.Time) (int, error) {
	s.logger.Debug("sql", "op", "count_wins", "table", "resolutions", "candidate", candidateID)

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM resolutions WHERE winner_candidate = ? AND resolved_at >= ?`,
		candidateID, formatTime(since),
	).Scan(&n)
	return n, err
}

// --- Swaps ---

const swapColumns = `id, interview_id, round_id, vacated_start, vacated_end, replaced, backup,
	state, auto, reason, created_at, decided_at, decided_by`

func (s *SQLiteStore) CreateSwap(ctx context.Context, sp *model.SwapProposal) error {
	s.logger.Debug("sql", "op", "insert", "table", "swaps", "id", sp.ID)

	backupJSON, err := marshalJSON(sp.Backup)
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO swaps (id, interview_id, round_id, vacated_start, vacated_end, replaced,
		 backup, state, auto, reason, created_at, decided_at, decided_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sp.ID, sp.InterviewID, sp.RoundID, formatTime(sp.Vacated.Start), formatTime(sp.Vacated.End),
		sp.Replaced, backupJSON, sp.State, boolToInt(sp.Auto), sp.Reason,
		formatTime(sp.CreatedAt), formatTimePtr(sp.DecidedAt), sp.DecidedBy,
	)
	return err
}

func (s *SQLiteStore) scanSwap(row interface{ Scan(...any) error }) (*model.SwapProposal, error) {
	var sp model.SwapProposal
	var backupJSON, vacStart, vacEnd, createdAt string
	var decidedAt sql.NullString
	var auto int

	err := row.Scan(&sp.ID, &sp.InterviewID, &sp.RoundID, &vacStart, &vacEnd, &sp.Replaced,
		&backupJSON, &sp.State, &auto, &sp.Reason, &createdAt, &decidedAt, &sp.DecidedBy)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(backupJSON), &sp.Backup); err != nil {
		return nil, fmt.Errorf("unmarshal backup: %w", err)
	}
	sp.Vacated = model.Slot{Start: parseTime(vacStart), End: parseTime(vacEnd)}
	sp.Auto = auto != 0
	sp.CreatedAt = parseTime(createdAt)
	sp.DecidedAt = parseTimePtr(decidedAt)
	return &sp, nil
}

func (s *SQLiteStore) GetSwap(ctx context.Context, id string) (*model.SwapProposal, error) {
	s.logger.Debug("sql", "op", "select", "table", "swaps", "id", id)

	sp, err := s.scanSwap(s.db.QueryRowContext(ctx,
		`SELECT `+swapColumns+` FROM swaps WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sp, err
}

func (s *SQLiteStore) GetSwapsByState(ctx context.Context, state model.SwapState) ([]*model.SwapProposal, error) {
	s.logger.Debug("sql", "op", "select_by_state", "table", "swaps", "state", state)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+swapColumns+` FROM swaps WHERE state = ? ORDER BY created_at`, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.SwapProposal
	for rows.Next() {
		sp, err := s.scanSwap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateSwap(ctx context.Context, sp *model.SwapProposal) error {
	s.logger.Debug("sql", "op", "update", "table", "swaps", "id", sp.ID)

	backupJSON, err := marshalJSON(sp.Backup)
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE swaps SET backup = ?, state = ?, auto = ?, reason = ?, decided_at = ?, decided_by = ?
		 WHERE id = ?`,
		backupJSON, sp.State, boolToInt(sp.Auto), sp.Reason, formatTimePtr(sp.DecidedAt),
		sp.DecidedBy, sp.ID,
	)
	return err
}

// --- Operator errors ---

func (s *SQLiteStore) CreateOperatorError(ctx context.Context, oe *model.OperatorError) error {
	s.logger.Debug("sql", "op", "insert", "table", "operator_errors", "id", oe.ID, "code", oe.Code)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operator_errors (id, code, message, entity_kind, entity_id, created_at, resolved)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		oe.ID, oe.Code, oe.Message, oe.EntityKind, oe.EntityID, formatTime(oe.CreatedAt),
		boolToInt(oe.Resolved),
	)
	return err
}

func (s *SQLiteStore) ListOperatorErrors(ctx context.Context, includeResolved bool) ([]*model.OperatorError, error) {
	s.logger.Debug("sql", "op", "list", "table", "operator_errors", "include_resolved", includeResolved)

	query := `SELECT id, code, message, entity_kind, entity_id, created_at, resolved
		 FROM operator_errors`
	if !includeResolved {
		query += ` WHERE resolved = 0`
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.OperatorError
	for rows.Next() {
		var oe model.OperatorError
		var createdAt string
		var resolved int
		if err := rows.Scan(&oe.ID, &oe.Code, &oe.Message, &oe.EntityKind, &oe.EntityID, &createdAt, &resolved); err != nil {
			return nil, err
		}
		oe.CreatedAt = parseTime(createdAt)
		oe.Resolved = resolved != 0
		out = append(out, &oe)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ResolveOperatorError(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "update", "table", "operator_errors", "id", id)

	_, err := s.db.ExecContext(ctx, `UPDATE operator_errors SET resolved = 1 WHERE id = ?`, id)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
