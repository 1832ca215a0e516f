package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/ikkim/reviewfunnel-backend/config"
	"github.com/ikkim/reviewfunnel-backend/internal/app/controller"
	"github.com/ikkim/reviewfunnel-backend/internal/app/repository"
	"github.com/ikkim/reviewfunnel-backend/internal/app/service"
	"github.com/ikkim/reviewfunnel-backend/internal/db"
	"github.com/ikkim/reviewfunnel-backend/internal/middleware"
	"github.com/ikkim/reviewfunnel-backend/internal/places"
	"github.com/ikkim/reviewfunnel-backend/internal/reviewflow"
	"github.com/ikkim/reviewfunnel-backend/internal/router"
	"github.com/ikkim/reviewfunnel-backend/internal/tenant"
	"github.com/ikkim/reviewfunnel-backend/internal/websocket"
	redispkg "github.com/ikkim/reviewfunnel-backend/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type TestServer struct {
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *miniredis.Miniredis
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		JWT:    config.JWTConfig{Secret: "test-secret", TokenExpiry: time.Hour},
		Cookie: config.CookieConfig{Name: "auth_token"},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"https://dashboard.blooreview.app"}},
		App: config.AppConfig{
			BaseDomain:          "blooreview.app",
			GoogleReviewBaseURL: "https://search.google.com/local/writereview?placeid=",
		},
	}

	userRepo := repository.NewUserRepository(testDB)
	businessRepo := repository.NewBusinessRepository(testDB)
	reviewRepo := repository.NewReviewRepository(testDB)

	provider := tenant.NewCachedProvider(tenant.NewDBProvider(businessRepo, cfg.App.GoogleReviewBaseURL), client, time.Minute)
	tenantService := service.NewTenantService(provider, nil)

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	authService := service.NewAuthService(userRepo, redispkg.NewTokenBlacklist(client), cfg.JWT.Secret, cfg.JWT.TokenExpiry)
	businessService := service.NewBusinessService(businessRepo, userRepo, tenantService, nil, cfg.App.BaseDomain)
	reviewService := service.NewReviewService(reviewRepo, businessRepo, service.NewInsightsService("", "", ""), nil, hub)

	r := router.NewRouter(
		controller.NewAuthController(authService, cfg.Cookie.Name, false),
		controller.NewBusinessController(businessService, tenantService),
		controller.NewReviewController(reviewService),
		controller.NewLiveController(businessService, hub, cfg.CORS.AllowedOrigins),
		controller.NewFlowController(tenantService, reviewService, reviewflow.NewRedisStore(client, time.Hour), controller.FlowSettings{
			BaseDomain: cfg.App.BaseDomain,
		}),
		controller.NewToolController(places.NewClient("", "")),
		controller.NewPageController(tenantService),
		middleware.NewAuthMiddleware(authService, cfg.Cookie.Name),
		cfg,
	)

	return &TestServer{Router: r.Setup(), DB: testDB, Redis: mr}
}

type call struct {
	method  string
	path    string
	body    interface{}
	token   string
	host    string
	cookies []*http.Cookie
}

func (s *TestServer) do(t *testing.T, c call) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.host != "" {
		req.Host = c.host
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestIntegration_OwnerToCustomerFeedback(t *testing.T) {
	server := setupIntegrationTest(t)

	// 1. 가입
	w := server.do(t, call{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
		"email":    "owner@example.com",
		"password": "password123",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := decode(t, w)["token"].(string)

	// 2. 비즈니스 생성
	w = server.do(t, call{method: http.MethodPost, path: "/business/create", token: token, host: "app.blooreview.app", body: map[string]interface{}{
		"name":     "Joe's Cafe",
		"placeId":  "ChIJ123",
		"category": "Cafe",
		"config":   map[string]interface{}{"review_threshold": 4},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "https://joes-cafe.blooreview.app", decode(t, w)["reviewUrl"])

	// 3. 고객 리뷰 페이지
	w = server.do(t, call{method: http.MethodGet, path: "/", host: "joes-cafe.blooreview.app"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reviewThreshold":4`)

	w = server.do(t, call{method: http.MethodGet, path: "/api/business/joes-cafe/config.js"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"review_threshold": 4`)

	// 4. 낮은 평점 흐름
	host := "joes-cafe.blooreview.app"
	w = server.do(t, call{method: http.MethodPost, path: "/api/flow/rating", host: host, body: map[string]int{"rating": 3}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(reviewflow.StateFollowupFeedback), decode(t, w)["state"])
	var session []*http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "review_session" {
			session = append(session, ck)
		}
	}
	require.Len(t, session, 1)

	w = server.do(t, call{method: http.MethodPost, path: "/api/flow/feedback", host: host, cookies: session, body: map[string]string{
		"name":     "Ann",
		"comments": "Music too loud",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(reviewflow.StateThankYou), decode(t, w)["state"])

	// 5. 소유자 대시보드
	w = server.do(t, call{method: http.MethodGet, path: "/business/joes-cafe/reviews", token: token})
	require.Equal(t, http.StatusOK, w.Code)
	reviews := decode(t, w)["reviews"].([]interface{})
	require.Len(t, reviews, 1)
	assert.Equal(t, "Music too loud", reviews[0].(map[string]interface{})["comments"])

	// 6. 로그아웃 후 토큰 거부
	w = server.do(t, call{method: http.MethodPost, path: "/auth/logout", token: token})
	require.Equal(t, http.StatusOK, w.Code)

	w = server.do(t, call{method: http.MethodGet, path: "/auth/verify", token: token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIntegration_HealthAndCORS(t *testing.T) {
	server := setupIntegrationTest(t)

	w := server.do(t, call{method: http.MethodGet, path: "/health"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodOptions, "/api/reviews/submit", nil)
	req.Header.Set("Origin", "https://dashboard.blooreview.app")
	rec := httptest.NewRecorder()
	server.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dashboard.blooreview.app", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/reviews/submit", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	server.Router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestIntegration_TenantCacheInvalidatedOnCreate(t *testing.T) {
	server := setupIntegrationTest(t)

	// 생성 전 조회는 기본 설정
	w := server.do(t, call{method: http.MethodGet, path: "/business/tacos/config.js"})
	assert.Equal(t, "window.REVIEW_TOOL_CONFIG = {};", w.Body.String())

	w = server.do(t, call{method: http.MethodPost, path: "/auth/register", body: map[string]string{
		"email":    "taco@example.com",
		"password": "password123",
	}})
	token := decode(t, w)["token"].(string)

	w = server.do(t, call{method: http.MethodPost, path: "/api/business/create", token: token, body: map[string]string{
		"name":    "Tacos",
		"placeId": "ChIJtaco",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = server.do(t, call{method: http.MethodGet, path: "/business/tacos/config.js"})
	assert.True(t, strings.Contains(w.Body.String(), `"place_id": "ChIJtaco"`), w.Body.String())
}
