// ABOUTME: Release store methods for the SQLite store
// ABOUTME: Status updates are conditional on the previous status

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// releaseDateLayout is the calendar date format for release dates.
const releaseDateLayout = "2006-01-02"

// CreateRelease creates a new release.
func (s *SQLiteStore) CreateRelease(ctx context.Context, release *Release) error {
	query := `
		INSERT INTO releases (id, title, artist, upc, status, notes, release_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var releaseDate sql.NullString
	if release.ReleaseDate != nil {
		releaseDate = sql.NullString{String: release.ReleaseDate.Format(releaseDateLayout), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		release.ID,
		release.Title,
		release.Artist,
		nullString(release.UPC),
		string(release.Status),
		nullString(release.Notes),
		releaseDate,
		formatTime(release.CreatedAt),
		formatTime(release.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting release: %w", err)
	}

	s.logger.Info("created release", "id", release.ID, "title", release.Title, "status", release.Status)
	return nil
}

// GetRelease retrieves a release by ID.
func (s *SQLiteStore) GetRelease(ctx context.Context, id string) (*Release, error) {
	query := `
		SELECT id, title, artist, upc, status, notes, release_date, created_at, updated_at
		FROM releases
		WHERE id = ?
	`
	return scanRelease(s.db.QueryRowContext(ctx, query, id))
}

// ListReleases returns releases newest first, optionally filtered by status.
func (s *SQLiteStore) ListReleases(ctx context.Context, filter ReleaseFilter) ([]*Release, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, title, artist, upc, status, notes, release_date, created_at, updated_at
		FROM releases
	`)

	var args []any
	if filter.Status != "" {
		sb.WriteString(" WHERE status = ?")
		args = append(args, string(filter.Status))
	}
	sb.WriteString(" ORDER BY created_at DESC, id")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing releases: %w", err)
	}
	defer rows.Close()

	releases := []*Release{}
	for rows.Next() {
		release, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		releases = append(releases, release)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating releases: %w", err)
	}

	return releases, nil
}

// UpdateReleaseStatus moves a release from one status to another.
func (s *SQLiteStore) UpdateReleaseStatus(ctx context.Context, id string, from, to ReleaseStatus, at time.Time) error {
	query := `UPDATE releases SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := s.db.ExecContext(ctx, query, string(to), formatTime(at), id, string(from))
	if err != nil {
		return fmt.Errorf("updating release status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := s.GetRelease(ctx, id); err != nil {
			return err
		}
		return ErrReleaseConflict
	}

	s.logger.Info("updated release status", "id", id, "from", from, "to", to)
	return nil
}

func scanRelease(row rowScanner) (*Release, error) {
	var release Release
	var upc, notes, releaseDate sql.NullString
	var status, createdAt, updatedAt string

	err := row.Scan(
		&release.ID,
		&release.Title,
		&release.Artist,
		&upc,
		&status,
		&notes,
		&releaseDate,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReleaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying release: %w", err)
	}

	release.UPC = upc.String
	release.Notes = notes.String
	release.Status = ReleaseStatus(status)

	if releaseDate.Valid {
		d, err := time.Parse(releaseDateLayout, releaseDate.String)
		if err != nil {
			return nil, fmt.Errorf("parsing release_date: %w", err)
		}
		release.ReleaseDate = &d
	}

	release.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	release.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &release, nil
}
