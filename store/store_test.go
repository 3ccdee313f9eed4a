// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/danielhkuo/stimulus-rank/auth"
	"github.com/danielhkuo/stimulus-rank/models"
	"github.com/danielhkuo/stimulus-rank/testutil"
)

func TestFindActiveCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ro := NewRestricted(db)
	ctx := context.Background()

	active := testutil.CreateTestCode(t, db, "ACTIVE22", models.GroupOne)
	inactive := testutil.CreateTestCode(t, db, "GONE2222", models.GroupTwo)
	testutil.Deactivate(t, db, inactive.ID)

	got, err := ro.FindActiveCode(ctx, "ACTIVE22")
	if err != nil {
		t.Fatalf("FindActiveCode() error = %v", err)
	}
	if got.ID != active.ID || got.Group != models.GroupOne || got.IsUsed || !got.IsActive {
		t.Errorf("unexpected code %+v", got)
	}

	for _, code := range []string{"GONE2222", "MISSING2"} {
		if _, err := ro.FindActiveCode(ctx, code); !errors.Is(err, ErrNotFound) {
			t.Errorf("FindActiveCode(%q) error = %v, want ErrNotFound", code, err)
		}
	}

	codes, err := ro.ListActiveCodes(ctx)
	if err != nil {
		t.Fatalf("ListActiveCodes() error = %v", err)
	}
	if len(codes) != 1 || codes[0].Code != "ACTIVE22" {
		t.Errorf("ListActiveCodes() = %+v, want only ACTIVE22", codes)
	}
}

func TestMarkVerifiedOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rw := NewPrivileged(db)
	ctx := context.Background()

	c := testutil.CreateTestCode(t, db, "VERIFY22", models.GroupOne)

	changed, err := rw.MarkVerified(ctx, c.ID)
	if err != nil || !changed {
		t.Fatalf("first MarkVerified() = %v, %v; want true, nil", changed, err)
	}
	changed, err = rw.MarkVerified(ctx, c.ID)
	if err != nil || changed {
		t.Fatalf("second MarkVerified() = %v, %v; want false, nil", changed, err)
	}
	if got := testutil.GetCode(t, db, c.ID).ProgressCounter; got != 1 {
		t.Errorf("progress_counter = %d, want 1", got)
	}
}

func TestAdvanceProgress(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rw := NewPrivileged(db)
	ctx := context.Background()

	c := testutil.CreateTestCode(t, db, "ADVANCE2", models.GroupOne)
	testutil.SetProgress(t, db, c.ID, 1)

	next, err := rw.AdvanceProgress(ctx, c.ID, 1, 2)
	if err != nil {
		t.Fatalf("AdvanceProgress() error = %v", err)
	}
	if next != 2 {
		t.Errorf("AdvanceProgress() = %d, want 2", next)
	}

	// Stale expectation must not move the counter
	if _, err := rw.AdvanceProgress(ctx, c.ID, 1, 2); !errors.Is(err, ErrConflict) {
		t.Errorf("stale AdvanceProgress() error = %v, want ErrConflict", err)
	}
	if got := testutil.GetCode(t, db, c.ID).ProgressCounter; got != 2 {
		t.Errorf("progress_counter = %d, want 2", got)
	}

	// A corrupt counter can be replaced outright
	testutil.SetProgress(t, db, c.ID, -5)
	next, err = rw.AdvanceProgress(ctx, c.ID, -5, 1)
	if err != nil {
		t.Fatalf("AdvanceProgress() from corrupt counter error = %v", err)
	}
	if next != 1 {
		t.Errorf("AdvanceProgress() = %d, want 1", next)
	}
}

func TestInsertPlaylist(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ro := NewRestricted(db)
	rw := NewPrivileged(db)
	ctx := context.Background()

	c := testutil.CreateTestCode(t, db, "PLAYLST2", models.GroupOne)
	v1 := testutil.CreateTestVideo(t, db, "one", models.GroupOne, "", "")
	v2 := testutil.CreateTestVideo(t, db, "two", models.GroupOne, "", "")
	v3 := testutil.CreateTestVideo(t, db, "three", models.GroupOne, "", "")

	if err := rw.InsertPlaylist(ctx, c.ID, []string{v2.ID, v3.ID, v1.ID}); err != nil {
		t.Fatalf("InsertPlaylist() error = %v", err)
	}

	// A second assignment is rejected as a whole
	err := rw.InsertPlaylist(ctx, c.ID, []string{v1.ID, v2.ID, v3.ID})
	if !errors.Is(err, ErrPlaylistExists) {
		t.Fatalf("second InsertPlaylist() error = %v, want ErrPlaylistExists", err)
	}

	// Deactivating a video does not remove it from an existing playlist
	if err := rw.DeactivateVideo(ctx, v3.ID); err != nil {
		t.Fatalf("DeactivateVideo() error = %v", err)
	}

	playlist, err := ro.ListPlaylist(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListPlaylist() error = %v", err)
	}
	want := []string{v2.ID, v3.ID, v1.ID}
	if len(playlist) != len(want) {
		t.Fatalf("playlist length = %d, want %d", len(playlist), len(want))
	}
	for i, pv := range playlist {
		if pv.ID != want[i] || pv.Order != i+1 {
			t.Errorf("playlist[%d] = (%s, %d), want (%s, %d)", i, pv.ID, pv.Order, want[i], i+1)
		}
	}
}

func TestFinalizeRankings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ro := NewRestricted(db)
	rw := NewPrivileged(db)
	ctx := context.Background()

	c := testutil.CreateTestCode(t, db, "FINALIZ2", models.GroupOne)
	testutil.SetProgress(t, db, c.ID, 3)
	v1 := testutil.CreateTestVideo(t, db, "one", models.GroupOne, models.SexMale, models.NarLevelHigh)
	v2 := testutil.CreateTestVideo(t, db, "two", models.GroupOne, models.SexFemale, models.NarLevelLow)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := rw.FinalizeRankings(ctx, c.ID, []string{v2.ID, v1.ID}, now); err != nil {
		t.Fatalf("FinalizeRankings() error = %v", err)
	}

	stored := testutil.GetCode(t, db, c.ID)
	if !stored.IsUsed {
		t.Error("expected code to be used")
	}
	if stored.UsedAt == nil || !stored.UsedAt.Equal(now) {
		t.Errorf("used_at = %v, want %v", stored.UsedAt, now)
	}
	if stored.ProgressCounter != 4 {
		t.Errorf("progress_counter = %d, want 4", stored.ProgressCounter)
	}

	rankings, err := ro.ListRankings(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListRankings() error = %v", err)
	}
	if len(rankings) != 2 || rankings[0].VideoID != v2.ID || rankings[1].VideoID != v1.ID {
		t.Errorf("unexpected rankings %+v", rankings)
	}

	// Replay writes nothing
	err = rw.FinalizeRankings(ctx, c.ID, []string{v1.ID, v2.ID}, now)
	if !errors.Is(err, ErrAlreadyFinalized) {
		t.Fatalf("replayed FinalizeRankings() error = %v, want ErrAlreadyFinalized", err)
	}
	if n := testutil.CountRows(t, db, "rankings", c.ID); n != 2 {
		t.Errorf("rankings rows = %d, want 2", n)
	}
}

func TestFinalizeRankingsRollsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rw := NewPrivileged(db)
	ctx := context.Background()

	c := testutil.CreateTestCode(t, db, "ROLLBAK2", models.GroupOne)
	v1 := testutil.CreateTestVideo(t, db, "one", models.GroupOne, "", "")

	// The second insert violates the (participant, video) key
	err := rw.FinalizeRankings(ctx, c.ID, []string{v1.ID, v1.ID}, time.Now())
	if err == nil {
		t.Fatal("expected FinalizeRankings() to fail")
	}

	stored := testutil.GetCode(t, db, c.ID)
	if stored.IsUsed || stored.UsedAt != nil {
		t.Errorf("code must stay usable after a failed finalization, got %+v", stored)
	}
	if n := testutil.CountRows(t, db, "rankings", c.ID); n != 0 {
		t.Errorf("rankings rows = %d, want 0", n)
	}
}

func TestVideoWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ro := NewRestricted(db)
	rw := NewPrivileged(db)
	ctx := context.Background()

	v := models.Video{
		ID:        auth.NewRowID(),
		Title:     "Clip",
		URL:       "https://videos.example.com/clip",
		Group:     models.GroupTwo,
		Sex:       models.SexFemale,
		CreatedAt: time.Now().UTC(),
	}
	if err := rw.CreateVideo(ctx, v); err != nil {
		t.Fatalf("CreateVideo() error = %v", err)
	}

	dup := v
	dup.ID = auth.NewRowID()
	dup.URL = "https://videos.example.com/other"
	if err := rw.CreateVideo(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate title: error = %v, want ErrDuplicate", err)
	}

	v.NarLevel = models.NarLevelLow
	v.ThumbnailURL = "https://img.example.com/clip.png"
	if err := rw.UpdateVideo(ctx, v); err != nil {
		t.Fatalf("UpdateVideo() error = %v", err)
	}
	got, err := ro.GetActiveVideo(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetActiveVideo() error = %v", err)
	}
	if got.NarLevel != models.NarLevelLow || got.ThumbnailURL != v.ThumbnailURL || got.ThumbnailProxyURL != "" {
		t.Errorf("unexpected video after update %+v", got)
	}

	missing := v
	missing.ID = "nope"
	if err := rw.UpdateVideo(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateVideo(missing) error = %v, want ErrNotFound", err)
	}

	group2, err := ro.ListActiveVideosByGroup(ctx, models.GroupTwo)
	if err != nil || len(group2) != 1 {
		t.Fatalf("ListActiveVideosByGroup() = %v, %v", group2, err)
	}
	group1, err := ro.ListActiveVideosByGroup(ctx, models.GroupOne)
	if err != nil || len(group1) != 0 {
		t.Fatalf("ListActiveVideosByGroup(1) = %v, %v", group1, err)
	}

	if err := rw.DeactivateVideo(ctx, v.ID); err != nil {
		t.Fatalf("DeactivateVideo() error = %v", err)
	}
	if err := rw.DeactivateVideo(ctx, v.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeactivateVideo() error = %v, want ErrNotFound", err)
	}
	all, err := ro.ListActiveVideos(ctx)
	if err != nil || len(all) != 0 {
		t.Errorf("ListActiveVideos() = %v, %v; want empty", all, err)
	}
}

func TestCreateCodeDuplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rw := NewPrivileged(db)
	ctx := context.Background()

	c := models.ParticipantCode{ID: auth.NewRowID(), Code: "SAMECODE", Group: models.GroupOne, CreatedAt: time.Now().UTC()}
	if err := rw.CreateCode(ctx, c); err != nil {
		t.Fatalf("CreateCode() error = %v", err)
	}
	c.ID = auth.NewRowID()
	if err := rw.CreateCode(ctx, c); !errors.Is(err, ErrDuplicate) {
		t.Errorf("CreateCode(duplicate) error = %v, want ErrDuplicate", err)
	}

	if err := rw.DeactivateCode(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeactivateCode(missing) error = %v, want ErrNotFound", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"postgres unique", &pq.Error{Code: "23505"}, true},
		{"postgres wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"postgres other", &pq.Error{Code: "23503"}, false},
		{"sqlite message", errors.New("constraint failed: UNIQUE constraint failed: videos.title (2067)"), true},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
