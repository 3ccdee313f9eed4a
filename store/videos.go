// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/stimulus-rank/models"
)

const videoColumns = `id, title, url, "group", sex, nar_level, thumbnail_url, thumbnail_proxy_url, is_active, created_at`

func scanVideo(row rowScanner) (models.Video, error) {
	var v models.Video
	var sex, narLevel, thumb, proxy sql.NullString
	err := row.Scan(&v.ID, &v.Title, &v.URL, &v.Group, &sex, &narLevel, &thumb, &proxy, &v.IsActive, &v.CreatedAt)
	if err != nil {
		return models.Video{}, err
	}
	v.Sex = sex.String
	v.NarLevel = narLevel.String
	v.ThumbnailURL = thumb.String
	v.ThumbnailProxyURL = proxy.String
	return v, nil
}

func (s *Restricted) queryVideos(ctx context.Context, query string, args ...any) ([]models.Video, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// ListActiveVideosByGroup returns the active catalog for one experimental arm,
// ordered by title so callers see a stable input order.
func (s *Restricted) ListActiveVideosByGroup(ctx context.Context, group int) ([]models.Video, error) {
	videos, err := s.queryVideos(ctx, `
		SELECT `+videoColumns+`
		FROM videos
		WHERE "group" = $1 AND is_active = TRUE
		ORDER BY title ASC
	`, group)
	if err != nil {
		return nil, fmt.Errorf("list videos for group %d: %w", group, err)
	}
	return videos, nil
}

// ListActiveVideos returns the whole active catalog.
func (s *Restricted) ListActiveVideos(ctx context.Context) ([]models.Video, error) {
	videos, err := s.queryVideos(ctx, `
		SELECT `+videoColumns+`
		FROM videos
		WHERE is_active = TRUE
		ORDER BY "group" ASC, title ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

// GetActiveVideo returns one active video.
func (s *Restricted) GetActiveVideo(ctx context.Context, id string) (models.Video, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+videoColumns+`
		FROM videos
		WHERE id = $1 AND is_active = TRUE
	`, id)
	v, err := scanVideo(row)
	if err == sql.ErrNoRows {
		return models.Video{}, ErrNotFound
	}
	if err != nil {
		return models.Video{}, fmt.Errorf("get video: %w", err)
	}
	return v, nil
}

// CreateVideo inserts a catalog entry. Title and URL are unique.
func (s *Privileged) CreateVideo(ctx context.Context, v models.Video) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO videos (id, title, url, "group", sex, nar_level, thumbnail_url, thumbnail_proxy_url, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9)
	`, v.ID, v.Title, v.URL, v.Group, nullString(v.Sex), nullString(v.NarLevel),
		nullString(v.ThumbnailURL), nullString(v.ThumbnailProxyURL), v.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

// UpdateVideo overwrites the editable fields of an active video.
func (s *Privileged) UpdateVideo(ctx context.Context, v models.Video) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE videos
		SET title = $2, url = $3, "group" = $4, sex = $5, nar_level = $6,
		    thumbnail_url = $7, thumbnail_proxy_url = $8
		WHERE id = $1 AND is_active = TRUE
	`, v.ID, v.Title, v.URL, v.Group, nullString(v.Sex), nullString(v.NarLevel),
		nullString(v.ThumbnailURL), nullString(v.ThumbnailProxyURL))
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateVideo soft-deletes a video. Existing playlists keep referencing it.
func (s *Privileged) DeactivateVideo(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE videos SET is_active = FALSE
		WHERE id = $1 AND is_active = TRUE
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate video: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate video: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
