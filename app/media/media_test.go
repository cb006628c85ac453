package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"instabytes/moments-api/internal"
	"instabytes/moments-api/internal/model"
	"instabytes/moments-api/internal/service"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEnv(t *testing.T) (*gin.Engine, *internal.Deps) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.Media{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	viper.Set("tagger.max_jobs", 4)
	viper.Set("tagger.workers", 0)

	d := &internal.Deps{
		DB:     db,
		Tagger: service.NewTagger(db, nil, nil),
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("requestID", "test")
		c.Set("userID", c.GetHeader("X-Test-User"))
		c.Next()
	})

	r.GET("/media", func(c *gin.Context) { List(c, d) })
	r.GET("/media/search", func(c *gin.Context) { Search(c, d) })
	r.GET("/media/:id", func(c *gin.Context) { Fetch(c, d) })
	r.PATCH("/media/:id", func(c *gin.Context) { Edit(c, d) })
	r.DELETE("/media/:id", func(c *gin.Context) { Delete(c, d) })
	r.POST("/media/:id/retag", func(c *gin.Context) { Retag(c, d) })

	return r, d
}

func seedMedia(t *testing.T, db *gorm.DB, id, userID, mediaType, description string, tags ...string) *model.Media {
	t.Helper()

	m := &model.Media{
		ID:          id,
		UserID:      userID,
		StorageKey:  id + ".jpg",
		Filename:    id + ".jpg",
		MediaType:   mediaType,
		MimeType:    "image/jpeg",
		Size:        128,
		Description: description,
		AITags:      model.StringSlice(tags),
		AIStatus:    model.StatusCompleted,
	}

	if err := db.Create(m).Error; err != nil {
		t.Fatalf("failed to seed media: %v", err)
	}

	return m
}

func do(r *gin.Engine, method, path, userID string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", userID)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type page struct {
	Items      []model.Media `json:"items"`
	TotalCount int64         `json:"total_count"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int64         `json:"total_pages"`
}

func decodePage(t *testing.T, w *httptest.ResponseRecorder) page {
	t.Helper()

	var p page
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to decode %q: %v", w.Body.String(), err)
	}

	return p
}

func TestList_OnlyOwnMedia(t *testing.T) {
	r, d := newEnv(t)

	seedMedia(t, d.DB, "mine-1", "user-1", model.MediaTypeImage, "a dog")
	seedMedia(t, d.DB, "mine-2", "user-1", model.MediaTypeVideo, "a cat video")
	seedMedia(t, d.DB, "theirs", "user-2", model.MediaTypeImage, "not yours")

	w := do(r, http.MethodGet, "/media", "user-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	p := decodePage(t, w)
	if p.TotalCount != 2 || len(p.Items) != 2 {
		t.Errorf("expected 2 records, got total %d with %d items", p.TotalCount, len(p.Items))
	}

	for _, m := range p.Items {
		if m.ID == "theirs" {
			t.Error("listed a record owned by another user")
		}
	}
}

func TestList_TypeFilter(t *testing.T) {
	r, d := newEnv(t)

	seedMedia(t, d.DB, "img", "user-1", model.MediaTypeImage, "")
	seedMedia(t, d.DB, "vid", "user-1", model.MediaTypeVideo, "")

	w := do(r, http.MethodGet, "/media?type=video", "user-1", nil)

	p := decodePage(t, w)
	if p.TotalCount != 1 || p.Items[0].ID != "vid" {
		t.Errorf("expected only the video, got %+v", p.Items)
	}

	if w := do(r, http.MethodGet, "/media?type=audio", "user-1", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown type, got %d", w.Code)
	}
}

func TestList_PaginationShape(t *testing.T) {
	r, d := newEnv(t)

	for i := 0; i < 5; i++ {
		seedMedia(t, d.DB, fmt.Sprintf("m-%d", i), "user-1", model.MediaTypeImage, "")
	}

	w := do(r, http.MethodGet, "/media?page=2&limit=2", "user-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	p := decodePage(t, w)
	if p.Page != 2 || p.Limit != 2 || p.TotalCount != 5 || p.TotalPages != 3 {
		t.Errorf("unexpected page shape %+v", p)
	}

	if len(p.Items) != 2 {
		t.Errorf("expected 2 items on page 2, got %d", len(p.Items))
	}

	// The same request answers the same way again
	again := decodePage(t, do(r, http.MethodGet, "/media?page=2&limit=2", "user-1", nil))
	if len(again.Items) != 2 || again.Items[0].ID != p.Items[0].ID {
		t.Error("expected the same page on a repeated request")
	}
}

func TestList_PageBeyondEnd_Empty(t *testing.T) {
	r, d := newEnv(t)

	seedMedia(t, d.DB, "only", "user-1", model.MediaTypeImage, "")

	p := decodePage(t, do(r, http.MethodGet, "/media?page=9", "user-1", nil))
	if len(p.Items) != 0 || p.TotalCount != 1 {
		t.Errorf("expected an empty page with the real total, got %+v", p)
	}
}

func TestFetch_OtherUsersMedia_NotFound(t *testing.T) {
	r, d := newEnv(t)

	seedMedia(t, d.DB, "theirs", "user-2", model.MediaTypeImage, "")

	w := do(r, http.MethodGet, "/media/theirs", "user-1", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for someone else's record, got %d", w.Code)
	}
}

func TestEdit_UpdatesAndSanitizes(t *testing.T) {
	r, d := newEnv(t)

	seedMedia(t, d.DB, "mine", "user-1", model.MediaTypeImage, "old")

	w := do(r, http.MethodPatch, "/media/mine", "user-1", gin.H{
		"description": "  <b>new</b> words  ",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var m model.Media
	d.DB.First(&m, "id = ?", "mine")

	if m.Description != "bnew/b words" {
		t.Errorf("expected the sanitized description, got %q", m.Description)
	}
}

func TestEdit_OtherUsersMedia_NotFound(t *testing.T) {
	r, d := newEnv(t)

	seedMedia(t, d.DB, "theirs", "user-2", model.MediaTypeImage, "untouched")

	w := do(r, http.MethodPatch, "/media/theirs", "user-1", gin.H{"description": "hijacked"})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}

	var m model.Media
	d.DB.First(&m, "id = ?", "theirs")

	if m.Description != "untouched" {
		t.Error("the record must not change for a non owner")
	}
}

func TestDelete_SoftDeletesOwnMedia(t *testing.T) {
	r, d := newEnv(t)

	seedMedia(t, d.DB, "mine", "user-1", model.MediaTypeImage, "")

	w := do(r, http.MethodDelete, "/media/mine", "user-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var count int64
	d.DB.Model(model.Media{}).Where("id = ?", "mine").Count(&count)
	if count != 0 {
		t.Error("deleted record still visible through normal queries")
	}

	d.DB.Unscoped().Model(model.Media{}).Where("id = ?", "mine").Count(&count)
	if count != 1 {
		t.Error("expected the row kept for the purge reaper")
	}
}

func TestDelete_OtherUsersMedia_NotFound(t *testing.T) {
	r, d := newEnv(t)

	seedMedia(t, d.DB, "theirs", "user-2", model.MediaTypeImage, "")

	w := do(r, http.MethodDelete, "/media/theirs", "user-1", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestSearch_MatchesTagsAndDescription(t *testing.T) {
	r, d := newEnv(t)

	seedMedia(t, d.DB, "beach", "user-1", model.MediaTypeImage, "a sunny beach", "beach", "ocean")
	seedMedia(t, d.DB, "city", "user-1", model.MediaTypeImage, "rainy city streets", "city")
	seedMedia(t, d.DB, "foreign", "user-2", model.MediaTypeImage, "a sunny beach", "beach")

	p := decodePage(t, do(r, http.MethodGet, "/media/search?q=beach", "user-1", nil))
	if p.TotalCount != 1 || p.Items[0].ID != "beach" {
		t.Errorf("expected only the own beach record, got %+v", p.Items)
	}

	// Matching the description text works too
	p = decodePage(t, do(r, http.MethodGet, "/media/search?q=rainy", "user-1", nil))
	if p.TotalCount != 1 || p.Items[0].ID != "city" {
		t.Errorf("expected the city record, got %+v", p.Items)
	}
}

func TestSearch_WildcardsMatchLiterally(t *testing.T) {
	r, d := newEnv(t)

	seedMedia(t, d.DB, "percent", "user-1", model.MediaTypeImage, "sale at 100% off")
	seedMedia(t, d.DB, "plain", "user-1", model.MediaTypeImage, "nothing special")

	p := decodePage(t, do(r, http.MethodGet, "/media/search?q=100%25", "user-1", nil))
	if p.TotalCount != 1 || p.Items[0].ID != "percent" {
		t.Errorf("expected only the literal match, got %+v", p.Items)
	}
}

func TestSearch_OverlongTag_Rejected(t *testing.T) {
	r, _ := newEnv(t)

	long := make([]byte, 51)
	for i := range long {
		long[i] = 'a'
	}

	w := do(r, http.MethodGet, "/media/search?q="+string(long), "user-1", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSearch_NoQuery_Rejected(t *testing.T) {
	r, _ := newEnv(t)

	w := do(r, http.MethodGet, "/media/search", "user-1", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRetag_FailedImage_Accepted(t *testing.T) {
	r, d := newEnv(t)

	m := seedMedia(t, d.DB, "stuck", "user-1", model.MediaTypeImage, "")
	d.DB.Model(m).Updates(map[string]any{"ai_status": model.StatusFailed, "ai_error": "quota"})

	w := do(r, http.MethodPost, "/media/stuck/retag", "user-1", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	var got model.Media
	d.DB.First(&got, "id = ?", "stuck")

	if got.AIStatus != model.StatusPending {
		t.Errorf("expected pending, got %s", got.AIStatus)
	}
}

func TestRetag_FreshProcessing_Conflict(t *testing.T) {
	r, d := newEnv(t)

	m := seedMedia(t, d.DB, "busy", "user-1", model.MediaTypeImage, "")
	d.DB.Model(m).Update("ai_status", model.StatusProcessing)

	w := do(r, http.MethodPost, "/media/busy/retag", "user-1", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 while fresh, got %d", w.Code)
	}
}

func TestRetag_StaleProcessing_Accepted(t *testing.T) {
	r, d := newEnv(t)

	m := seedMedia(t, d.DB, "stale", "user-1", model.MediaTypeImage, "")

	stale := time.Now().Add(-time.Hour)
	d.DB.Model(m).UpdateColumns(map[string]any{
		"ai_status":  model.StatusProcessing,
		"updated_at": stale,
	})

	w := do(r, http.MethodPost, "/media/stale/retag", "user-1", nil)
	if w.Code != http.StatusAccepted {
		t.Errorf("expected 202 for a stale record, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRetag_CompletedImage_Conflict(t *testing.T) {
	r, d := newEnv(t)

	seedMedia(t, d.DB, "done", "user-1", model.MediaTypeImage, "all good")

	w := do(r, http.MethodPost, "/media/done/retag", "user-1", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestRetag_Video_Rejected(t *testing.T) {
	r, d := newEnv(t)

	m := seedMedia(t, d.DB, "clip", "user-1", model.MediaTypeVideo, "")
	d.DB.Model(m).Update("ai_status", model.StatusFailed)

	w := do(r, http.MethodPost, "/media/clip/retag", "user-1", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
