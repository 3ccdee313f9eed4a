// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danielhkuo/stimulus-rank/models"
)

const codeColumns = `id, code, "group", is_used, is_active, progress_counter, used_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCode(row rowScanner) (models.ParticipantCode, error) {
	var c models.ParticipantCode
	var usedAt sql.NullTime
	err := row.Scan(&c.ID, &c.Code, &c.Group, &c.IsUsed, &c.IsActive, &c.ProgressCounter, &usedAt, &c.CreatedAt)
	if err != nil {
		return models.ParticipantCode{}, err
	}
	if usedAt.Valid {
		t := usedAt.Time
		c.UsedAt = &t
	}
	return c, nil
}

// FindActiveCode looks up a code among active rows. Inactive codes are
// reported as ErrNotFound.
func (s *Restricted) FindActiveCode(ctx context.Context, code string) (models.ParticipantCode, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+codeColumns+`
		FROM participant_codes
		WHERE code = $1 AND is_active = TRUE
	`, code)

	c, err := scanCode(row)
	if err == sql.ErrNoRows {
		return models.ParticipantCode{}, ErrNotFound
	}
	if err != nil {
		return models.ParticipantCode{}, fmt.Errorf("find code: %w", err)
	}
	return c, nil
}

// ListActiveCodes returns every active code, newest first.
func (s *Restricted) ListActiveCodes(ctx context.Context) ([]models.ParticipantCode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+codeColumns+`
		FROM participant_codes
		WHERE is_active = TRUE
		ORDER BY created_at DESC, code ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list codes: %w", err)
	}
	defer rows.Close()

	codes := []models.ParticipantCode{}
	for rows.Next() {
		c, err := scanCode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan code: %w", err)
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

// MarkVerified records the verification step. Only a counter that has not
// moved yet is touched, so repeated verification is a no-op. Reports
// whether the counter changed.
func (s *Privileged) MarkVerified(ctx context.Context, participantID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE participant_codes
		SET progress_counter = 1
		WHERE id = $1 AND progress_counter <= 0 AND is_used = FALSE AND is_active = TRUE
	`, participantID)
	if err != nil {
		return false, fmt.Errorf("mark verified: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark verified: %w", err)
	}
	return n > 0, nil
}

// AdvanceProgress moves the counter from the stored value from to to. If
// another request already moved it, ErrConflict is returned and nothing
// changes.
func (s *Privileged) AdvanceProgress(ctx context.Context, participantID string, from, to int) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx, `
		UPDATE participant_codes
		SET progress_counter = $3
		WHERE id = $1 AND progress_counter = $2 AND is_used = FALSE AND is_active = TRUE
		RETURNING progress_counter
	`, participantID, from, to).Scan(&next)

	if err == sql.ErrNoRows {
		return 0, ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("advance progress: %w", err)
	}
	return next, nil
}

// CreateCode inserts a new participant code. A colliding code yields ErrDuplicate.
func (s *Privileged) CreateCode(ctx context.Context, c models.ParticipantCode) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participant_codes (id, code, "group", is_used, is_active, progress_counter, created_at)
		VALUES ($1, $2, $3, FALSE, TRUE, 0, $4)
	`, c.ID, c.Code, c.Group, c.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create code: %w", err)
	}
	return nil
}

// DeactivateCode soft-deletes a code. Its playlist and rankings stay.
func (s *Privileged) DeactivateCode(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE participant_codes SET is_active = FALSE
		WHERE id = $1 AND is_active = TRUE
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate code: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate code: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FinalizeRankings consumes the code and stores the participant's ranking in
// one transaction. The code flip is a test-and-set: if the code was already
// used (or deactivated) nothing is written and ErrAlreadyFinalized is
// returned.
func (s *Privileged) FinalizeRankings(ctx context.Context, participantID string, videoIDs []string, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finalize: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE participant_codes
		SET is_used = TRUE, used_at = $2, progress_counter = progress_counter + 1
		WHERE id = $1 AND is_used = FALSE AND is_active = TRUE
	`, participantID, now)
	if err != nil {
		return fmt.Errorf("flip code: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("flip code: %w", err)
	}
	if n == 0 {
		return ErrAlreadyFinalized
	}

	for i, videoID := range videoIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rankings (participant_id, video_id, rank)
			VALUES ($1, $2, $3)
		`, participantID, videoID, i+1)
		if isUniqueViolation(err) {
			return ErrAlreadyFinalized
		}
		if err != nil {
			return fmt.Errorf("insert ranking: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finalize: %w", err)
	}
	return nil
}
