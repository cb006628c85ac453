package middleware

import (
	"encoding/json"
	"errors"
	"instabytes/moments-api/internal/model"
	"instabytes/moments-api/pkg/security"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&model.User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return db
}

func newIssuer(t *testing.T) *security.TokenIssuer {
	t.Helper()

	viper.Set("security.jwt_secret", testSecret)
	return security.NewTokenIssuer()
}

func seedUser(t *testing.T, db *gorm.DB, id string, active bool) *model.User {
	t.Helper()

	user := &model.User{
		ID:           id,
		Name:         "Test User",
		Email:        id + "@example.com",
		PasswordHash: "irrelevant",
		Active:       active,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	return user
}

func authRouter(db *gorm.DB, issuer *security.TokenIssuer) *gin.Engine {
	r := gin.New()
	r.GET("/protected", NewAuthMiddleware(db, issuer), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetString("userID")})
	})
	r.GET("/open", NewOptionalAuthMiddleware(db, issuer), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetString("userID")})
	})

	return r
}

func doGet(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func rejectionCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Code string `json:"code"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body %q: %v", w.Body.String(), err)
	}

	return body.Code
}

func TestAuthMiddleware_ValidToken_SetsIdentity(t *testing.T) {
	db := newTestDB(t)
	issuer := newIssuer(t)
	user := seedUser(t, db, "user-1", true)

	token, err := issuer.Issue(user.ID, user.Email)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	w := doGet(authRouter(db, issuer), "/protected", "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		UserID string `json:"userID"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	if body.UserID != "user-1" {
		t.Errorf("expected user-1, got %q", body.UserID)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	db := newTestDB(t)
	issuer := newIssuer(t)
	seedUser(t, db, "user-1", true)
	seedUser(t, db, "user-2", false)

	validForMissing, _ := issuer.Issue("ghost", "ghost@example.com")
	validForInactive, _ := issuer.Issue("user-2", "user-2@example.com")

	expired := makeExpiredToken(t, "user-1")

	cases := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"no header", "", CodeTokenMissing},
		{"wrong scheme", "Basic abc123", CodeFormatInvalid},
		{"missing token part", "Bearer", CodeFormatInvalid},
		{"garbage token", "Bearer not.a.jwt", CodeTokenInvalid},
		{"expired token", "Bearer " + expired, CodeTokenExpired},
		{"unknown user", "Bearer " + validForMissing, CodeInvalidUser},
		{"inactive user", "Bearer " + validForInactive, CodeInvalidUser},
	}

	r := authRouter(db, issuer)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doGet(r, "/protected", tc.header)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
			}

			if got := rejectionCode(t, w); got != tc.wantCode {
				t.Errorf("expected code %s, got %s", tc.wantCode, got)
			}
		})
	}
}

func makeExpiredToken(t *testing.T, userID string) string {
	t.Helper()

	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"user_id": userID,
		"email":   userID + "@example.com",
		"iat":     time.Now().Add(-2 * time.Hour).Unix(),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	signed, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	return signed
}

func TestOptionalAuthMiddleware_NoToken_Continues(t *testing.T) {
	db := newTestDB(t)
	issuer := newIssuer(t)

	w := doGet(authRouter(db, issuer), "/open", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		UserID string `json:"userID"`
	}

	json.Unmarshal(w.Body.Bytes(), &body)

	if body.UserID != "" {
		t.Errorf("expected no identity, got %q", body.UserID)
	}
}

func TestOptionalAuthMiddleware_InvalidToken_Continues(t *testing.T) {
	db := newTestDB(t)
	issuer := newIssuer(t)

	w := doGet(authRouter(db, issuer), "/open", "Bearer garbage")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestOptionalAuthMiddleware_ValidToken_SetsIdentity(t *testing.T) {
	db := newTestDB(t)
	issuer := newIssuer(t)
	user := seedUser(t, db, "user-1", true)

	token, _ := issuer.Issue(user.ID, user.Email)

	w := doGet(authRouter(db, issuer), "/open", "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		UserID string `json:"userID"`
	}

	json.Unmarshal(w.Body.Bytes(), &body)

	if body.UserID != "user-1" {
		t.Errorf("expected user-1, got %q", body.UserID)
	}
}

func ownershipRouter(resolve OwnerResolver, userID string) *gin.Engine {
	r := gin.New()
	r.GET("/things/:id", func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}, NewOwnershipMiddleware(resolve), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return r
}

func TestOwnershipMiddleware_Owner_Passes(t *testing.T) {
	r := ownershipRouter(func(c *gin.Context) (string, error) {
		return "user-1", nil
	}, "user-1")

	w := doGet(r, "/things/abc", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestOwnershipMiddleware_MissingResource_NotFound(t *testing.T) {
	r := ownershipRouter(func(c *gin.Context) (string, error) {
		return "", nil
	}, "user-1")

	w := doGet(r, "/things/abc", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestOwnershipMiddleware_OtherOwner_Forbidden(t *testing.T) {
	r := ownershipRouter(func(c *gin.Context) (string, error) {
		return "user-2", nil
	}, "user-1")

	w := doGet(r, "/things/abc", "")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}

	if got := rejectionCode(t, w); got != CodeAccessDenied {
		t.Errorf("expected code %s, got %s", CodeAccessDenied, got)
	}
}

func TestOwnershipMiddleware_ResolverError_InternalError(t *testing.T) {
	r := ownershipRouter(func(c *gin.Context) (string, error) {
		return "", errors.New("boom")
	}, "user-1")

	w := doGet(r, "/things/abc", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}
