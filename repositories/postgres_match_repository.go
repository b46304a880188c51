package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/scoreboard/models"
	"github.com/lib/pq"
)

const matchSelectColumns = `
		id, sport, team_a_name, team_b_name, court, status, version, winner,
		scheduled_at, archive_url, created_at, updated_at,
		sets_format, tiebreak_enabled, championship_tiebreak_enabled, golden_point_enabled,
		a_points, a_games, a_sets, b_points, b_games, b_sets, serving`

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const postgresInsertMatch = `
		INSERT INTO matches
			(sport, team_a_name, team_b_name, court, status, version, winner, scheduled_at,
			 sets_format, tiebreak_enabled, championship_tiebreak_enabled, golden_point_enabled,
			 a_points, a_games, a_sets, b_points, b_games, b_sets, serving)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at`

func insertArgs(match *models.Match) []any {
	args := []any{
		match.Sport,
		match.TeamAName,
		match.TeamBName,
		match.Court,
		match.Status,
		match.Version,
		sidePtrValue(match.Winner),
		match.ScheduledAt,
	}
	args = append(args, configArgs(match.State.Config)...)
	return append(args, scoreArgs(match.State)...)
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	err := r.db.QueryRowContext(ctx, postgresInsertMatch, insertArgs(match)...).
		Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, matches []*models.Match) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, match := range matches {
		err := tx.QueryRowContext(ctx, postgresInsertMatch, insertArgs(match)...).
			Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert match %d of %d: %w", i+1, len(matches), r.handleMatchError(err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit match batch: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT` + matchSelectColumns + `
		FROM matches
		WHERE id = $1`

	match, err := scanPostgresMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) List(ctx context.Context, filter MatchFilter) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT` + matchSelectColumns + `
		FROM matches
		WHERE 1 = 1`)

	args := []any{}
	placeholderIndex := 1

	if filter.Status != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.Status)
		placeholderIndex++
	}
	if filter.Sport != nil {
		queryBuilder.WriteString(" AND sport = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.Sport)
		placeholderIndex++
	}

	queryBuilder.WriteString(" ORDER BY scheduled_at ASC NULLS LAST, id ASC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", placeholderIndex, placeholderIndex+1))
	args = append(args, listLimit(filter.Limit), filter.Offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanPostgresMatch(rows)
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

func (r *postgresMatchRepository) UpdateScore(ctx context.Context, id int, update ScoreUpdate) error {
	query := `
		UPDATE matches
		SET a_points = $1, a_games = $2, a_sets = $3,
		    b_points = $4, b_games = $5, b_sets = $6, serving = $7,
		    status = $8, winner = $9, version = $10, updated_at = now()
		WHERE id = $11 AND version < $10`

	args := scoreArgs(update.State)
	args = append(args, update.Status, sidePtrValue(update.Winner), update.Version, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return r.handleMatchError(err)
	}
	if err := checkAffectedRows(result, ErrMatchStaleVersion); err != nil {
		if !errors.Is(err, ErrMatchStaleVersion) {
			return err
		}
		return r.staleOrMissing(ctx, id)
	}
	return nil
}

func (r *postgresMatchRepository) staleOrMissing(ctx context.Context, id int) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM matches WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check match %d existence: %w", id, err)
	}
	if !exists {
		return ErrMatchNotFound
	}
	return ErrMatchStaleVersion
}

func (r *postgresMatchRepository) SetArchiveURL(ctx context.Context, id int, url string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE matches SET archive_url = $1 WHERE id = $2`, url, id)
	if err != nil {
		return fmt.Errorf("SetArchiveURL: failed to execute query for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// "23514": check_violation, "23502": not_null_violation
		switch pqErr.Code {
		case "23514", "23502":
			return fmt.Errorf("%w: %s", ErrMatchInvalid, pqErr.Constraint)
		}
	}
	return err
}

func scanPostgresMatch(row rowScanner) (*models.Match, error) {
	var (
		match       models.Match
		court       sql.NullString
		winner      sql.NullString
		scheduledAt sql.NullTime
		archiveURL  sql.NullString
		score       scoreColumns
	)
	dest := []any{
		&match.ID, &match.Sport, &match.TeamAName, &match.TeamBName, &court, &match.Status,
		&match.Version, &winner, &scheduledAt, &archiveURL, &match.CreatedAt, &match.UpdatedAt,
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
	if scheduledAt.Valid {
		t := scheduledAt.Time
		match.ScheduledAt = &t
	}
	return &match, nil
}
