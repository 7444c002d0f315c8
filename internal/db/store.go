package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/models"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock's PgxPoolIface
// satisfies it too, which keeps store tests off a live database.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Ping(ctx context.Context) error
	Close()
}

type Store struct {
	Pool Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}


func (s *Store) GetConnectionByUserID(ctx context.Context, userID string) (*models.Connection, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id, user_id, pages, updated_at FROM facebook_connections WHERE user_id = $1`, userID)

	var (
		conn  models.Connection
		pages []byte
	)
	if err := row.Scan(&conn.ID, &conn.UserID, &pages, &conn.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(pages, &conn.Pages); err != nil {
		return nil, fmt.Errorf("decode pages for connection %s: %w", conn.ID, err)
	}
	return &conn, nil
}

func (s *Store) ListConnections(ctx context.Context) ([]models.Connection, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, user_id, pages, updated_at FROM facebook_connections ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Connection
	for rows.Next() {
		var (
			conn  models.Connection
			pages []byte
		)
		if err := rows.Scan(&conn.ID, &conn.UserID, &pages, &conn.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(pages, &conn.Pages); err != nil {
			return nil, fmt.Errorf("decode pages for connection %s: %w", conn.ID, err)
		}
		out = append(out, conn)
	}
	return out, rows.Err()
}

// LeadExists reports whether a lead with the given email or phone is already
// stored. At least one of the two must be non-nil; the extractor's
// required-fields check guarantees that before callers get here.
func (s *Store) LeadExists(ctx context.Context, email, phone *string) (bool, error) {
	var (
		query string
		args  []any
	)
	switch {
	case email != nil && phone != nil:
		query = `SELECT EXISTS(SELECT 1 FROM leads WHERE email = $1 OR phone_number = $2)`
		args = []any{*email, *phone}
	case email != nil:
		query = `SELECT EXISTS(SELECT 1 FROM leads WHERE email = $1)`
		args = []any{*email}
	default:
		query = `SELECT EXISTS(SELECT 1 FROM leads WHERE phone_number = $1)`
		args = []any{*phone}
	}

	var exists bool
	if err := s.Pool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// InsertLeads bulk-inserts new leads in one batch and returns the inserted ids.
func (s *Store) InsertLeads(ctx context.Context, leads []models.Lead) ([]string, error) {
	if len(leads) == 0 {
		return nil, nil
	}

	batch := &pgx.Batch{}
	for _, l := range leads {
		batch.Queue(`
			INSERT INTO leads (name, email, phone_number, city, profession, status, source, counselor,
				priority, lead_score, conversion_probability, follow_up_date, last_activity_date,
				budget, timeline, notes, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
			RETURNING id
		`, l.Name, l.Email, l.PhoneNumber, l.City, l.Profession, l.Status, l.Source, l.Counselor,
			l.Priority, l.LeadScore, l.ConversionProbability, l.FollowUpDate, l.LastActivityDate,
			l.Budget, l.Timeline, l.Notes, l.CreatedAt)
	}

	results := s.Pool.SendBatch(ctx, batch)
	defer results.Close()

	ids := make([]string, 0, len(leads))
	for range leads {
		var id string
		if err := results.QueryRow().Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) ListEnabledAutoAssignConfigs(ctx context.Context) ([]models.AutoAssignConfig, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, created_by, enabled, working_hours_enabled, working_hours_start, working_hours_end,
			strategy, max_per_executive, blacklisted_ids, priority_executive_ids
		FROM auto_assign_configs
		WHERE enabled = true
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AutoAssignConfig
	for rows.Next() {
		var cfg models.AutoAssignConfig
		if err := rows.Scan(&cfg.ID, &cfg.CreatedBy, &cfg.Enabled, &cfg.WorkingHoursEnabled,
			&cfg.WorkingHoursStart, &cfg.WorkingHoursEnd, &cfg.Strategy, &cfg.MaxPerExecutive,
			&cfg.BlacklistedIDs, &cfg.PriorityExecutiveIDs); err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

// ListExecutives returns active executives joined with their current
// active-assignment counts.
func (s *Store) ListExecutives(ctx context.Context) ([]models.Executive, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT u.id, u.full_name, u.email, COUNT(a.id) AS active_count
		FROM users u
		LEFT JOIN lead_assignments a ON a.assigned_to = u.id AND a.status = 'active'
		WHERE u.role = 'executive' AND u.is_active = true
		GROUP BY u.id, u.full_name, u.email
		ORDER BY active_count ASC, u.id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Executive
	for rows.Next() {
		var e models.Executive
		if err := rows.Scan(&e.ID, &e.FullName, &e.Email, &e.ActiveCount); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) ListActivelyAssignedLeadIDs(ctx context.Context) ([]string, error) {
	rows, err := s.Pool.Query(ctx, `SELECT lead_id FROM lead_assignments WHERE status = 'active'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ListPendingLeads returns the most recent unassigned-eligible leads, excluding
// ids already under an active assignment.
func (s *Store) ListPendingLeads(ctx context.Context, excludeIDs []string, limit int) ([]models.Lead, error) {
	query := `
		SELECT id, name, email, phone_number, city, profession, status, source, counselor,
			priority, lead_score, conversion_probability, follow_up_date, last_activity_date,
			budget, timeline, notes, created_at
		FROM leads
		WHERE status = ANY($1)
	`
	args := []any{[]string{models.StatusNew, models.StatusHot, models.StatusWarm, models.StatusCold}}
	if len(excludeIDs) > 0 {
		args = append(args, excludeIDs)
		query += fmt.Sprintf(" AND NOT (id = ANY($%d))", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

func (s *Store) ListLeads(ctx context.Context, status, priority, q string, limit, offset int) ([]models.Lead, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, name, email, phone_number, city, profession, status, source, counselor,
			priority, lead_score, conversion_probability, follow_up_date, last_activity_date,
			budget, timeline, notes, created_at
		FROM leads`
	var args []any
	var wheres []string
	if status != "" {
		args = append(args, status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if priority != "" {
		args = append(args, priority)
		wheres = append(wheres, fmt.Sprintf("priority = $%d", len(args)))
	}
	if q != "" {
		args = append(args, "%"+q+"%")
		wheres = append(wheres, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR phone_number ILIKE $%d)", len(args), len(args), len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

func scanLeads(rows pgx.Rows) ([]models.Lead, error) {
	var out []models.Lead
	for rows.Next() {
		var l models.Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Email, &l.PhoneNumber, &l.City, &l.Profession,
			&l.Status, &l.Source, &l.Counselor, &l.Priority, &l.LeadScore, &l.ConversionProbability,
			&l.FollowUpDate, &l.LastActivityDate, &l.Budget, &l.Timeline, &l.Notes, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) InsertAssignment(ctx context.Context, a models.LeadAssignment) (string, error) {
	var id string
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO lead_assignments (lead_id, assigned_to, assigned_by, assigned_at, status, priority, due_date, is_auto_assigned, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`, a.LeadID, a.AssignedTo, a.AssignedBy, a.AssignedAt, a.Status, a.Priority, a.DueDate, a.IsAutoAssigned, a.Notes).Scan(&id)
	return id, err
}

func (s *Store) DeleteAssignment(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM lead_assignments WHERE id = $1`, id)
	return err
}

// MarkLeadAssigned flips a lead into the assigned state and records the
// executive's name as its counselor.
func (s *Store) MarkLeadAssigned(ctx context.Context, leadID, counselor string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE leads SET status = $1, counselor = $2, last_activity_date = $3 WHERE id = $4
	`, models.StatusAssigned, counselor, time.Now().UTC(), leadID)
	return err
}

func (s *Store) ListActiveAssignments(ctx context.Context, limit, offset int) ([]models.LeadAssignment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, lead_id, assigned_to, assigned_by, assigned_at, status, priority, due_date, is_auto_assigned, notes
		FROM lead_assignments
		WHERE status = 'active'
		ORDER BY assigned_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LeadAssignment
	for rows.Next() {
		var a models.LeadAssignment
		if err := rows.Scan(&a.ID, &a.LeadID, &a.AssignedTo, &a.AssignedBy, &a.AssignedAt,
			&a.Status, &a.Priority, &a.DueDate, &a.IsAutoAssigned, &a.Notes); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
