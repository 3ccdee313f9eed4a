// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/stimulus-rank/auth"
	"github.com/danielhkuo/stimulus-rank/cliparse"
	"github.com/danielhkuo/stimulus-rank/db"
	"github.com/danielhkuo/stimulus-rank/models"
)

// Test secrets shared by handler and router tests
const (
	TestSessionSecret   = "test-session-secret"
	TestJWTSecret       = "test-jwt-secret"
	TestResearcherEmail = "lab@example.com"
	TestResearcherPass  = "correct horse battery"
)

// SetupTestDB creates a fresh SQLite database file with the full schema.
// The file lives in t.TempDir and is closed on cleanup.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := db.Open(db.TypeSQLite, "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn, db.TypeSQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration without a researcher
// password hash; see WithResearcherPassword.
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:                  3318,
		DatabaseURL:           "file:test.db",
		PrivilegedDatabaseURL: "file:test.db",
		DatabaseType:          db.TypeSQLite,
		SessionSecret:         TestSessionSecret,
		JWTSecret:             TestJWTSecret,
		ResearcherEmail:       TestResearcherEmail,
		PlaylistPolicy:        "uniform",
		SessionTTL:            24 * time.Hour,
		ResearcherTTL:         time.Hour,
		ThumbnailProxyPath:    "/api/proxy-image",
	}
}

// WithResearcherPassword fills in a bcrypt hash of TestResearcherPass.
func WithResearcherPassword(t *testing.T, cfg cliparse.Config) cliparse.Config {
	t.Helper()
	hash, err := auth.HashPassword(TestResearcherPass)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	cfg.ResearcherPasswordHash = hash
	return cfg
}

// CreateTestCode inserts an active, unused participant code and returns it.
func CreateTestCode(t *testing.T, conn *sql.DB, code string, group int) models.ParticipantCode {
	t.Helper()

	c := models.ParticipantCode{
		ID:        auth.NewRowID(),
		Code:      code,
		Group:     group,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	_, err := conn.Exec(`
		INSERT INTO participant_codes (id, code, "group", is_used, is_active, progress_counter, created_at)
		VALUES ($1, $2, $3, FALSE, TRUE, 0, $4)
	`, c.ID, c.Code, c.Group, c.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create test code: %v", err)
	}
	return c
}

// SetProgress overwrites a code's counter, including out-of-range values.
func SetProgress(t *testing.T, conn *sql.DB, participantID string, counter int) {
	t.Helper()
	if _, err := conn.Exec(`UPDATE participant_codes SET progress_counter = $1 WHERE id = $2`, counter, participantID); err != nil {
		t.Fatalf("Failed to set progress: %v", err)
	}
}

// MarkUsed flags a code as consumed without writing rankings.
func MarkUsed(t *testing.T, conn *sql.DB, participantID string) {
	t.Helper()
	if _, err := conn.Exec(`UPDATE participant_codes SET is_used = TRUE, used_at = $1 WHERE id = $2`, time.Now().UTC(), participantID); err != nil {
		t.Fatalf("Failed to mark code used: %v", err)
	}
}

// Deactivate soft-deletes a code.
func Deactivate(t *testing.T, conn *sql.DB, participantID string) {
	t.Helper()
	if _, err := conn.Exec(`UPDATE participant_codes SET is_active = FALSE WHERE id = $1`, participantID); err != nil {
		t.Fatalf("Failed to deactivate code: %v", err)
	}
}

// GetCode reads a code row regardless of its flags.
func GetCode(t *testing.T, conn *sql.DB, participantID string) models.ParticipantCode {
	t.Helper()
	var c models.ParticipantCode
	var usedAt sql.NullTime
	err := conn.QueryRow(`
		SELECT id, code, "group", is_used, is_active, progress_counter, used_at
		FROM participant_codes WHERE id = $1
	`, participantID).Scan(&c.ID, &c.Code, &c.Group, &c.IsUsed, &c.IsActive, &c.ProgressCounter, &usedAt)
	if err != nil {
		t.Fatalf("Failed to read code: %v", err)
	}
	if usedAt.Valid {
		c.UsedAt = &usedAt.Time
	}
	return c
}

// CreateTestVideo inserts an active video. sex and narLevel may be empty.
func CreateTestVideo(t *testing.T, conn *sql.DB, title string, group int, sex, narLevel string) models.Video {
	t.Helper()

	v := models.Video{
		ID:        auth.NewRowID(),
		Title:     title,
		URL:       "https://videos.example.com/" + title,
		Group:     group,
		Sex:       sex,
		NarLevel:  narLevel,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	_, err := conn.Exec(`
		INSERT INTO videos (id, title, url, "group", sex, nar_level, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7)
	`, v.ID, v.Title, v.URL, v.Group, nullable(sex), nullable(narLevel), v.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create test video: %v", err)
	}
	return v
}

// CreateStratifiedCatalog inserts perStratum videos into each of the four
// (nar_level, sex) strata for group and returns them keyed by "high/m" etc.
func CreateStratifiedCatalog(t *testing.T, conn *sql.DB, group, perStratum int) map[string][]models.Video {
	t.Helper()

	catalog := make(map[string][]models.Video)
	for _, nar := range []string{models.NarLevelHigh, models.NarLevelLow} {
		for _, sex := range []string{models.SexMale, models.SexFemale} {
			key := nar + "/" + sex
			for i := 0; i < perStratum; i++ {
				title := "g" + string(rune('0'+group)) + "-" + nar + "-" + sex + "-" + string(rune('a'+i))
				catalog[key] = append(catalog[key], CreateTestVideo(t, conn, title, group, sex, nar))
			}
		}
	}
	return catalog
}

// AssignPlaylist writes a playlist directly, order following videoIDs.
func AssignPlaylist(t *testing.T, conn *sql.DB, participantID string, videoIDs ...string) {
	t.Helper()
	for i, id := range videoIDs {
		_, err := conn.Exec(`
			INSERT INTO video_orders (participant_id, video_id, "order") VALUES ($1, $2, $3)
		`, participantID, id, i+1)
		if err != nil {
			t.Fatalf("Failed to assign playlist: %v", err)
		}
	}
}

// AddTestRanking writes a single ranking row.
func AddTestRanking(t *testing.T, conn *sql.DB, participantID, videoID string, rank int) {
	t.Helper()
	_, err := conn.Exec(`
		INSERT INTO rankings (participant_id, video_id, rank) VALUES ($1, $2, $3)
	`, participantID, videoID, rank)
	if err != nil {
		t.Fatalf("Failed to add ranking: %v", err)
	}
}

// CountRows counts rows in table matching participant_id.
func CountRows(t *testing.T, conn *sql.DB, table, participantID string) int {
	t.Helper()
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE participant_id = $1`, participantID).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

// SessionCookies returns the cookies a verified participant would carry.
func SessionCookies(code string) []*http.Cookie {
	return []*http.Cookie{
		{Name: "participant_code", Value: code},
		{Name: "session_id", Value: auth.NewSessionToken(code, TestSessionSecret)},
	}
}

// ResearcherCookie returns a valid researcher token cookie.
func ResearcherCookie(t *testing.T) *http.Cookie {
	t.Helper()
	token, _, err := auth.SignResearcherToken(TestResearcherEmail, TestJWTSecret, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("Failed to sign researcher token: %v", err)
	}
	return &http.Cookie{Name: "researcher_token", Value: token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, cookies ...*http.Cookie) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for _, c := range cookies {
		req.AddCookie(c)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
