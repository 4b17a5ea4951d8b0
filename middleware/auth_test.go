package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/audioproof/audioproof/utils"
)

const testSecret = "test-secret"

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("INFERENCE_BASE_URL", "http://inference.local")
	t.Setenv("ADMIN_USERNAMES", "root")

	mr := miniredis.RunT(t)
	utils.SetRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", AuthRequired(), func(ctx *gin.Context) {
		id, _ := ctx.Get(ContextUserIDKey)
		ctx.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	r.GET("/maybe", OptionalAuth(), func(ctx *gin.Context) {
		_, authed := ctx.Get(ContextUserIDKey)
		ctx.JSON(http.StatusOK, gin.H{"authed": authed})
	})
	r.GET("/admin", AuthRequired(), AdminRequired(), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestAuthRequiredRejectsMissingHeader(t *testing.T) {
	setupEnv(t)
	r := newAuthRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	setupEnv(t)
	r := newAuthRouter()

	token, err := utils.GenerateToken(testSecret, 42, "alice", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthRequiredRejectsBlacklistedToken(t *testing.T) {
	setupEnv(t)
	r := newAuthRouter()

	token, err := utils.GenerateToken(testSecret, 42, "alice", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	utils.BlacklistToken(token, time.Now().Add(time.Hour))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for blacklisted token, got %d", w.Code)
	}
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	setupEnv(t)
	r := newAuthRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for anonymous request, got %d", w.Code)
	}
	if body := w.Body.String(); body != `{"authed":false}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestOptionalAuthAttachesIdentity(t *testing.T) {
	setupEnv(t)
	r := newAuthRouter()

	token, err := utils.GenerateToken(testSecret, 7, "bob", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != `{"authed":true}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestAdminRequired(t *testing.T) {
	setupEnv(t)
	r := newAuthRouter()

	adminToken, err := utils.GenerateToken(testSecret, 1, "root", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	userToken, err := utils.GenerateToken(testSecret, 2, "alice", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", w.Code)
	}
}
