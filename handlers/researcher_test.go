// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielhkuo/stimulus-rank/auth"
	"github.com/danielhkuo/stimulus-rank/middleware"
	"github.com/danielhkuo/stimulus-rank/models"
	"github.com/danielhkuo/stimulus-rank/store"
	"github.com/danielhkuo/stimulus-rank/testutil"
)

func newResearcherHandler(t *testing.T) (*ResearcherHandler, *sql.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	cfg := testutil.WithResearcherPassword(t, testutil.GetTestConfig())
	return NewResearcherHandler(store.NewRestricted(db), store.NewPrivileged(db), cfg), db
}

func TestResearcherLogin(t *testing.T) {
	handler, _ := newResearcherHandler(t)

	tests := []struct {
		name           string
		body           models.LoginRequest
		expectedStatus int
	}{
		{"valid credentials", models.LoginRequest{Email: testutil.TestResearcherEmail, Password: testutil.TestResearcherPass}, http.StatusOK},
		{"wrong password", models.LoginRequest{Email: testutil.TestResearcherEmail, Password: "guess"}, http.StatusUnauthorized},
		{"wrong email", models.LoginRequest{Email: "intruder@example.com", Password: testutil.TestResearcherPass}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/researcher/login", tt.body)
			w := httptest.NewRecorder()

			handler.Login(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp models.LoginResponse
			testutil.AssertJSON(t, w, &resp)
			claims, err := auth.ParseResearcherToken(resp.Token, testutil.TestJWTSecret)
			if err != nil {
				t.Fatalf("Returned token does not validate: %v", err)
			}
			if claims.Email != testutil.TestResearcherEmail {
				t.Errorf("Expected email claim %s, got %s", testutil.TestResearcherEmail, claims.Email)
			}

			cookie := findCookie(w, middleware.ResearcherCookie)
			if cookie == nil || cookie.Value != resp.Token || !cookie.HttpOnly {
				t.Errorf("Expected HttpOnly researcher cookie carrying the token, got %+v", cookie)
			}
		})
	}

	t.Run("logout clears cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Logout(w, httptest.NewRequest("POST", "/researcher/logout", nil))

		testutil.AssertStatus(t, w, http.StatusOK)
		cookie := findCookie(w, middleware.ResearcherCookie)
		if cookie == nil || cookie.MaxAge >= 0 {
			t.Errorf("Expected expired researcher cookie, got %+v", cookie)
		}
	})
}

func TestResearcherCodes(t *testing.T) {
	handler, db := newResearcherHandler(t)

	// Create
	req := testutil.MakeRequest("POST", "/researcher/codes", models.CreateCodeRequest{Group: models.GroupTwo})
	w := httptest.NewRecorder()
	handler.CreateCode(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var created models.ParticipantCode
	testutil.AssertJSON(t, w, &created)
	if len(created.Code) != auth.CodeLength || created.Group != models.GroupTwo || !created.IsActive {
		t.Fatalf("Unexpected created code %+v", created)
	}

	// Invalid group
	req = testutil.MakeRequest("POST", "/researcher/codes", models.CreateCodeRequest{Group: 3})
	w = httptest.NewRecorder()
	handler.CreateCode(w, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	// List
	w = httptest.NewRecorder()
	handler.ListCodes(w, httptest.NewRequest("GET", "/researcher/codes", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var list models.CodesResponse
	testutil.AssertJSON(t, w, &list)
	if len(list.Codes) != 1 || list.Codes[0].ID != created.ID {
		t.Fatalf("Expected the created code in the list, got %+v", list.Codes)
	}

	// Delete (soft)
	req = httptest.NewRequest("DELETE", "/researcher/codes/"+created.ID, nil)
	req.SetPathValue("id", created.ID)
	w = httptest.NewRecorder()
	handler.DeleteCode(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	stored := testutil.GetCode(t, db, created.ID)
	if stored.IsActive {
		t.Error("Expected code to be deactivated")
	}

	req = httptest.NewRequest("DELETE", "/researcher/codes/"+created.ID, nil)
	req.SetPathValue("id", created.ID)
	w = httptest.NewRecorder()
	handler.DeleteCode(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestListCodeRankings(t *testing.T) {
	handler, db := newResearcherHandler(t)

	c := testutil.CreateTestCode(t, db, "LIST2345", models.GroupOne)
	v1 := testutil.CreateTestVideo(t, db, "first", models.GroupOne, "", "")
	v2 := testutil.CreateTestVideo(t, db, "second", models.GroupOne, "", "")
	testutil.AddTestRanking(t, db, c.ID, v2.ID, 1)
	testutil.AddTestRanking(t, db, c.ID, v1.ID, 2)

	tests := []struct {
		name string
		id   string
		want []models.Ranking
	}{
		{"ranked code", c.ID, []models.Ranking{
			{ParticipantID: c.ID, VideoID: v2.ID, Rank: 1},
			{ParticipantID: c.ID, VideoID: v1.ID, Rank: 2},
		}},
		{"no rankings yet", "unranked-id", []models.Ranking{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/researcher/codes/"+tt.id+"/rankings", nil)
			req.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()

			handler.ListCodeRankings(w, req)

			testutil.AssertStatus(t, w, http.StatusOK)
			var resp models.RankingsResponse
			testutil.AssertJSON(t, w, &resp)
			if diff := cmp.Diff(tt.want, resp.Rankings); diff != "" {
				t.Errorf("rankings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResearcherVideos(t *testing.T) {
	handler, _ := newResearcherHandler(t)

	valid := models.VideoRequest{
		Title:        "Morning Walk",
		URL:          "https://videos.example.com/walk.mp4",
		Group:        models.GroupOne,
		Sex:          "F",
		NarLevel:     "high",
		ThumbnailURL: "https://drive.google.com/file/d/1AbC_d-9/view?usp=sharing",
	}

	tests := []struct {
		name           string
		body           models.VideoRequest
		expectedStatus int
	}{
		{"valid video", valid, http.StatusCreated},
		{"duplicate title", models.VideoRequest{Title: "Morning Walk", URL: "https://videos.example.com/other.mp4", Group: 1}, http.StatusConflict},
		{"missing title", models.VideoRequest{URL: "https://videos.example.com/x.mp4", Group: 1}, http.StatusBadRequest},
		{"relative url", models.VideoRequest{Title: "X", URL: "/x.mp4", Group: 1}, http.StatusBadRequest},
		{"bad group", models.VideoRequest{Title: "X", URL: "https://videos.example.com/x.mp4", Group: 0}, http.StatusBadRequest},
		{"bad sex", models.VideoRequest{Title: "X", URL: "https://videos.example.com/x.mp4", Group: 1, Sex: "x"}, http.StatusBadRequest},
		{"bad nar level", models.VideoRequest{Title: "X", URL: "https://videos.example.com/x.mp4", Group: 1, NarLevel: "medium"}, http.StatusBadRequest},
		{"bad thumbnail", models.VideoRequest{Title: "X", URL: "https://videos.example.com/x.mp4", Group: 1, ThumbnailURL: "thumb.png"}, http.StatusBadRequest},
	}

	var created models.Video
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/researcher/videos", tt.body)
			w := httptest.NewRecorder()

			handler.CreateVideo(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus == http.StatusCreated {
				testutil.AssertJSON(t, w, &created)
			}
		})
	}

	if created.Sex != models.SexFemale {
		t.Errorf("Expected sex normalized to f, got %q", created.Sex)
	}
	wantProxy := "/api/proxy-image?url=" + url.QueryEscape("https://drive.google.com/uc?export=view&id=1AbC_d-9")
	if created.ThumbnailProxyURL != wantProxy {
		t.Errorf("Expected proxy URL %q, got %q", wantProxy, created.ThumbnailProxyURL)
	}

	// Update
	update := valid
	update.Title = "Evening Walk"
	update.ThumbnailURL = "https://img.example.com/walk.png"
	req := testutil.MakeRequest("PUT", "/researcher/videos/"+created.ID, update)
	req.SetPathValue("id", created.ID)
	w := httptest.NewRecorder()
	handler.UpdateVideo(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var updated models.Video
	testutil.AssertJSON(t, w, &updated)
	if updated.Title != "Evening Walk" || updated.ThumbnailProxyURL != "" || updated.ThumbnailURL != update.ThumbnailURL {
		t.Errorf("Unexpected updated video %+v", updated)
	}

	req = testutil.MakeRequest("PUT", "/researcher/videos/missing", update)
	req.SetPathValue("id", "missing")
	w = httptest.NewRecorder()
	handler.UpdateVideo(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)

	// List, delete, list
	w = httptest.NewRecorder()
	handler.ListVideos(w, httptest.NewRequest("GET", "/researcher/videos", nil))
	var list models.VideosResponse
	testutil.AssertJSON(t, w, &list)
	if len(list.Videos) != 1 {
		t.Fatalf("Expected 1 video, got %d", len(list.Videos))
	}

	req = httptest.NewRequest("DELETE", "/researcher/videos/"+created.ID, nil)
	req.SetPathValue("id", created.ID)
	w = httptest.NewRecorder()
	handler.DeleteVideo(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = httptest.NewRecorder()
	handler.ListVideos(w, httptest.NewRequest("GET", "/researcher/videos", nil))
	list = models.VideosResponse{}
	testutil.AssertJSON(t, w, &list)
	if len(list.Videos) != 0 {
		t.Errorf("Expected deactivated video to be hidden, got %d", len(list.Videos))
	}
}

func TestDriveProxyURL(t *testing.T) {
	const proxy = "/api/proxy-image"
	direct := func(id string) string {
		return proxy + "?url=" + url.QueryEscape("https://drive.google.com/uc?export=view&id="+id)
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"file link", "https://drive.google.com/file/d/abc123/view?usp=sharing", direct("abc123")},
		{"file link no suffix", "https://drive.google.com/file/d/abc123", direct("abc123")},
		{"open link", "https://drive.google.com/open?id=XYZ_9-a", direct("XYZ_9-a")},
		{"direct link", "https://drive.google.com/uc?export=view&id=abc123", direct("abc123")},
		{"other host", "https://img.example.com/file/d/abc123/view", ""},
		{"drive without id", "https://drive.google.com/open", ""},
		{"bad id characters", "https://drive.google.com/open?id=a%2Fb", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DriveProxyURL(tt.in, proxy); got != tt.want {
				t.Errorf("DriveProxyURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
