// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/stimulus-rank/models"
)

// ListResultRows joins a participant's rankings with video metadata,
// ascending by rank.
func (s *Restricted) ListResultRows(ctx context.Context, participantID string) ([]models.ResultRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.title, v.nar_level, v.sex, v.url, r.rank
		FROM rankings r
		JOIN videos v ON v.id = r.video_id
		WHERE r.participant_id = $1
		ORDER BY r.rank ASC
	`, participantID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	results := []models.ResultRow{}
	for rows.Next() {
		var row models.ResultRow
		var narLevel, sex sql.NullString
		if err := rows.Scan(&row.Title, &narLevel, &sex, &row.URL, &row.Rank); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		row.NarLevel = narLevel.String
		row.Sex = sex.String
		results = append(results, row)
	}
	return results, rows.Err()
}

// ListRankings returns the stored ranking rows for a participant.
func (s *Restricted) ListRankings(ctx context.Context, participantID string) ([]models.Ranking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT participant_id, video_id, rank
		FROM rankings
		WHERE participant_id = $1
		ORDER BY rank ASC
	`, participantID)
	if err != nil {
		return nil, fmt.Errorf("list rankings: %w", err)
	}
	defer rows.Close()

	rankings := []models.Ranking{}
	for rows.Next() {
		var r models.Ranking
		if err := rows.Scan(&r.ParticipantID, &r.VideoID, &r.Rank); err != nil {
			return nil, fmt.Errorf("scan ranking: %w", err)
		}
		rankings = append(rankings, r)
	}
	return rankings, rows.Err()
}
