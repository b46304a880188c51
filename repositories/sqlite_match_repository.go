package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/scoreboard/models"
)

// sqliteMatchRepository хранит время текстом RFC 3339.
type sqliteMatchRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteMatchRepository(db *sql.DB) MatchRepository {
	return &sqliteMatchRepository{db: db, now: time.Now}
}

const sqliteInsertMatch = `
		INSERT INTO matches
			(sport, team_a_name, team_b_name, court, status, version, winner, scheduled_at,
			 sets_format, tiebreak_enabled, championship_tiebreak_enabled, golden_point_enabled,
			 a_points, a_games, a_sets, b_points, b_games, b_sets, serving,
			 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (r *sqliteMatchRepository) insert(ctx context.Context, exec interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, match *models.Match) error {
	now := r.now().UTC()
	args := insertArgs(match)
	args[7] = timePtrValueString(match.ScheduledAt)
	args = append(args, timeValueString(now), timeValueString(now))

	result, err := exec.ExecContext(ctx, sqliteInsertMatch, args...)
	if err != nil {
		return handleSQLiteError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted match id: %w", err)
	}
	match.ID = int(id)
	match.CreatedAt = now
	match.UpdatedAt = now
	return nil
}

func (r *sqliteMatchRepository) Create(ctx context.Context, match *models.Match) error {
	return r.insert(ctx, r.db, match)
}

func (r *sqliteMatchRepository) CreateBatch(ctx context.Context, matches []*models.Match) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, match := range matches {
		if err := r.insert(ctx, tx, match); err != nil {
			return fmt.Errorf("insert match %d of %d: %w", i+1, len(matches), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit match batch: %w", err)
	}
	return nil
}

func (r *sqliteMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT` + matchSelectColumns + ` FROM matches WHERE id = ?`
	match, err := scanSQLiteMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *sqliteMatchRepository) List(ctx context.Context, filter MatchFilter) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT` + matchSelectColumns + ` FROM matches WHERE 1 = 1`)
	args := []any{}
	if filter.Status != nil {
		queryBuilder.WriteString(" AND status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Sport != nil {
		queryBuilder.WriteString(" AND sport = ?")
		args = append(args, string(*filter.Sport))
	}
	queryBuilder.WriteString(" ORDER BY scheduled_at IS NULL, scheduled_at ASC, id ASC LIMIT ? OFFSET ?")
	args = append(args, listLimit(filter.Limit), filter.Offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanSQLiteMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *sqliteMatchRepository) UpdateScore(ctx context.Context, id int, update ScoreUpdate) error {
	query := `
		UPDATE matches
		SET a_points = ?, a_games = ?, a_sets = ?,
		    b_points = ?, b_games = ?, b_sets = ?, serving = ?,
		    status = ?, winner = ?, version = ?, updated_at = ?
		WHERE id = ? AND version < ?`

	args := scoreArgs(update.State)
	args = append(args,
		string(update.Status), sidePtrValue(update.Winner), update.Version,
		timeValueString(r.now().UTC()), id, update.Version,
	)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return handleSQLiteError(err)
	}
	if err := checkAffectedRows(result, ErrMatchStaleVersion); err != nil {
		if !errors.Is(err, ErrMatchStaleVersion) {
			return err
		}
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM matches WHERE id = ?`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check match %d existence: %w", id, err)
		}
		if exists == 0 {
			return ErrMatchNotFound
		}
		return ErrMatchStaleVersion
	}
	return nil
}

func (r *sqliteMatchRepository) SetArchiveURL(ctx context.Context, id int, url string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE matches SET archive_url = ? WHERE id = ?`, url, id)
	if err != nil {
		return fmt.Errorf("SetArchiveURL: failed to execute query for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *sqliteMatchRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func handleSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "constraint failed") {
		return fmt.Errorf("%w: %v", ErrMatchInvalid, err)
	}
	return err
}

func scanSQLiteMatch(row rowScanner) (*models.Match, error) {
	var (
		match                             models.Match
		court, winner, archiveURL         sql.NullString
		scheduledAt, createdAt, updatedAt sql.NullString
		score                             scoreColumns
	)
	dest := []any{
		&match.ID, &match.Sport, &match.TeamAName, &match.TeamBName, &court, &match.Status,
		&match.Version, &winner, &scheduledAt, &archiveURL, &createdAt, &updatedAt,
	}
	if err := row.Scan(append(dest, score.dest()...)...); err != nil {
		return nil, err
	}

	state, err := score.state()
	if err != nil {
		return nil, fmt.Errorf("match %d: %w", match.ID, err)
	}
	match.State = state
	match.Court = nullStringPtr(court)
	match.Winner = nullSidePtr(winner)
	match.ArchiveURL = nullStringPtr(archiveURL)
	if t, ok := parseTimeString(scheduledAt.String); ok {
		match.ScheduledAt = &t
	}
	match.CreatedAt, _ = parseTimeString(createdAt.String)
	match.UpdatedAt, _ = parseTimeString(updatedAt.String)
	return &match, nil
}

func timeValueString(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func timePtrValueString(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, false
	}
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return parsed, true
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, true
	}
	return time.Time{}, false
}
