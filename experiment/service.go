// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/stimulus-rank/models"
	"github.com/danielhkuo/stimulus-rank/store"
)

// Service runs the participant state machine: verification, playlist
// assignment, progress, and ranking submission.
type Service struct {
	ro      *store.Restricted
	rw      *store.Privileged
	policy  Policy
	shuffle Shuffler
	now     func() time.Time
}

type Option func(*Service)

// WithShuffler replaces the random permutation, mainly for seeded tests.
func WithShuffler(shuffle Shuffler) Option {
	return func(s *Service) { s.shuffle = shuffle }
}

// WithClock replaces time.Now for used_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(ro *store.Restricted, rw *store.Privileged, policy Policy, opts ...Option) *Service {
	s := &Service{
		ro:      ro,
		rw:      rw,
		policy:  policy,
		shuffle: DefaultShuffler,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State is everything the participant page needs to resume.
type State struct {
	Participant models.ParticipantCode
	Playlist    []models.PlaylistVideo
	Progress    Progress
}

// Authenticate classifies code against the active codes.
func (s *Service) Authenticate(ctx context.Context, code string) (AuthResult, models.ParticipantCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return AuthNotFound, models.ParticipantCode{}, ErrInvalidCode
	}

	p, err := s.ro.FindActiveCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return AuthNotFound, models.ParticipantCode{}, nil
	}
	if err != nil {
		return AuthNotFound, models.ParticipantCode{}, persistence("find code", "", err)
	}
	if p.IsUsed {
		return AuthAlreadyUsed, p, nil
	}
	return AuthOK, p, nil
}

// Participant authenticates code and turns the non-OK results into errors.
func (s *Service) Participant(ctx context.Context, code string) (models.ParticipantCode, error) {
	result, p, err := s.Authenticate(ctx, code)
	if err != nil {
		return models.ParticipantCode{}, err
	}
	switch result {
	case AuthNotFound:
		return models.ParticipantCode{}, ErrCodeNotFound
	case AuthAlreadyUsed:
		return models.ParticipantCode{}, ErrCodeUsed
	}
	return p, nil
}

// Verify authenticates code and records verification as step zero. The step
// is recorded at most once per code.
func (s *Service) Verify(ctx context.Context, code string) (models.ParticipantCode, error) {
	p, err := s.Participant(ctx, code)
	if err != nil {
		return models.ParticipantCode{}, err
	}

	changed, err := s.rw.MarkVerified(ctx, p.ID)
	if err != nil {
		return models.ParticipantCode{}, persistence("mark verified", p.ID, err)
	}
	if changed {
		p.ProgressCounter = 1
	}

	slog.Info("participant verified", "participant_id", p.ID, "group", p.Group, "first_visit", changed)
	return p, nil
}

// Playlist returns the participant's assignment, building and persisting it
// on first access. An existing assignment is never regenerated.
func (s *Service) Playlist(ctx context.Context, p models.ParticipantCode) ([]models.PlaylistVideo, error) {
	existing, err := s.ro.ListPlaylist(ctx, p.ID)
	if err != nil {
		return nil, persistence("list playlist", p.ID, err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	candidates, err := s.ro.ListActiveVideosByGroup(ctx, p.Group)
	if err != nil {
		return nil, persistence("list videos", p.ID, err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: group %d", ErrNoVideos, p.Group)
	}

	selected, err := Select(s.policy, candidates, s.shuffle)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(selected))
	for i, v := range selected {
		ids[i] = v.ID
	}

	err = s.rw.InsertPlaylist(ctx, p.ID, ids)
	if errors.Is(err, store.ErrPlaylistExists) {
		// A concurrent first request won; serve its assignment
		existing, err := s.ro.ListPlaylist(ctx, p.ID)
		if err != nil {
			return nil, persistence("list playlist", p.ID, err)
		}
		return existing, nil
	}
	if err != nil {
		return nil, persistence("insert playlist", p.ID, err)
	}

	slog.Info("playlist assigned", "participant_id", p.ID, "policy", string(s.policy), "videos", len(ids))

	playlist := make([]models.PlaylistVideo, len(selected))
	for i, v := range selected {
		playlist[i] = models.PlaylistVideo{Video: v, Order: i + 1}
	}
	return playlist, nil
}

// State authenticates code, ensures a playlist exists, and resolves the
// resume position.
func (s *Service) State(ctx context.Context, code string) (State, error) {
	p, err := s.Participant(ctx, code)
	if err != nil {
		return State{}, err
	}
	playlist, err := s.Playlist(ctx, p)
	if err != nil {
		return State{}, err
	}
	return State{
		Participant: p,
		Playlist:    playlist,
		Progress:    ResolveProgress(p.ProgressCounter, len(playlist)),
	}, nil
}

// Advance moves the counter forward by exactly one from the position GET
// reports. expected is the value the client last saw; when nil the freshly
// read value is used. A moved counter yields ErrStaleProgress, a finished one
// ErrAlreadyCompleted. A corrupt stored value restarts from its clamped
// position.
func (s *Service) Advance(ctx context.Context, code string, expected *int) (int, error) {
	st, err := s.State(ctx, code)
	if err != nil {
		return 0, err
	}
	p := st.Participant

	if st.Progress.Completed {
		return 0, ErrAlreadyCompleted
	}

	current := st.Progress.Counter
	if expected != nil {
		if *expected != current {
			return 0, fmt.Errorf("%w: expected %d, stored %d", ErrStaleProgress, *expected, current)
		}
	}

	next, err := s.rw.AdvanceProgress(ctx, p.ID, p.ProgressCounter, current+1)
	if errors.Is(err, store.ErrConflict) {
		return 0, ErrStaleProgress
	}
	if err != nil {
		return 0, persistence("advance progress", p.ID, err)
	}

	slog.Info("progress advanced", "participant_id", p.ID, "progress_counter", next, "playlist_length", len(st.Playlist))
	return next, nil
}

// SubmitRankings stores the participant's order over their playlist and
// consumes the code in one transaction. Position in videoIDs is the rank.
func (s *Service) SubmitRankings(ctx context.Context, code string, videoIDs []string) error {
	p, err := s.Participant(ctx, code)
	if err != nil {
		return err
	}
	if len(videoIDs) == 0 {
		return ErrEmptyRankings
	}

	playlist, err := s.ro.ListPlaylist(ctx, p.ID)
	if err != nil {
		return persistence("list playlist", p.ID, err)
	}
	if err := validateRanking(videoIDs, playlist); err != nil {
		return err
	}

	err = s.rw.FinalizeRankings(ctx, p.ID, videoIDs, s.now().UTC())
	if errors.Is(err, store.ErrAlreadyFinalized) {
		return ErrCodeUsed
	}
	if err != nil {
		return persistence("finalize rankings", p.ID, err)
	}

	slog.Info("rankings submitted", "participant_id", p.ID, "count", len(videoIDs))
	return nil
}

// validateRanking requires a permutation of the playlist.
func validateRanking(videoIDs []string, playlist []models.PlaylistVideo) error {
	inPlaylist := make(map[string]bool, len(playlist))
	for _, v := range playlist {
		inPlaylist[v.ID] = true
	}

	seen := make(map[string]bool, len(videoIDs))
	for i, id := range videoIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: item %d has no video id", ErrInvalidRanking, i)
		}
		if seen[id] {
			return fmt.Errorf("%w: video %s ranked twice", ErrInvalidRanking, id)
		}
		if !inPlaylist[id] {
			return fmt.Errorf("%w: video %s is not in the playlist", ErrInvalidRanking, id)
		}
		seen[id] = true
	}
	if len(seen) != len(playlist) {
		return fmt.Errorf("%w: ranked %d of %d videos", ErrInvalidRanking, len(seen), len(playlist))
	}
	return nil
}

// Results returns the ranked videos for code in ascending rank order. Used
// codes are accepted; inactive ones are not.
func (s *Service) Results(ctx context.Context, code string) ([]models.ResultRow, error) {
	return Results(ctx, s.ro, code)
}

// Results is the read-only form of Service.Results for callers holding only
// the restricted capability.
func Results(ctx context.Context, ro *store.Restricted, code string) ([]models.ResultRow, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidCode
	}

	p, err := ro.FindActiveCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, persistence("find code", "", err)
	}

	rows, err := ro.ListResultRows(ctx, p.ID)
	if err != nil {
		return nil, persistence("list results", p.ID, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoRankings
	}
	return rows, nil
}
