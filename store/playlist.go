// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/stimulus-rank/models"
)

// ListPlaylist returns the participant's assigned videos in playback order.
// Videos deactivated after assignment are still included. An empty result
// means no playlist has been built yet.
func (s *Restricted) ListPlaylist(ctx context.Context, participantID string) ([]models.PlaylistVideo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.title, v.url, v."group", v.sex, v.nar_level, v.thumbnail_url,
		       v.thumbnail_proxy_url, v.is_active, v.created_at, o."order"
		FROM video_orders o
		JOIN videos v ON v.id = o.video_id
		WHERE o.participant_id = $1
		ORDER BY o."order" ASC
	`, participantID)
	if err != nil {
		return nil, fmt.Errorf("list playlist: %w", err)
	}
	defer rows.Close()

	playlist := []models.PlaylistVideo{}
	for rows.Next() {
		var pv models.PlaylistVideo
		var sex, narLevel, thumb, proxy sql.NullString
		err := rows.Scan(&pv.ID, &pv.Title, &pv.URL, &pv.Group, &sex, &narLevel, &thumb,
			&proxy, &pv.IsActive, &pv.CreatedAt, &pv.Order)
		if err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		pv.Sex = sex.String
		pv.NarLevel = narLevel.String
		pv.ThumbnailURL = thumb.String
		pv.ThumbnailProxyURL = proxy.String
		playlist = append(playlist, pv)
	}
	return playlist, rows.Err()
}

// InsertPlaylist persists an ordered assignment in one transaction. Position
// i in videoIDs becomes order i+1. If another request already assigned a
// playlist, ErrPlaylistExists is returned and nothing from this call lands.
func (s *Privileged) InsertPlaylist(ctx context.Context, participantID string, videoIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin playlist: %w", err)
	}
	defer tx.Rollback()

	for i, videoID := range videoIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO video_orders (participant_id, video_id, "order")
			VALUES ($1, $2, $3)
		`, participantID, videoID, i+1)
		if isUniqueViolation(err) {
			return ErrPlaylistExists
		}
		if err != nil {
			return fmt.Errorf("insert video order: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return ErrPlaylistExists
		}
		return fmt.Errorf("commit playlist: %w", err)
	}
	return nil
}
