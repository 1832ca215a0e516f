package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/internal/app/repository"
	"github.com/ikkim/reviewfunnel-backend/internal/app/service"
	"github.com/ikkim/reviewfunnel-backend/internal/db"
	"github.com/ikkim/reviewfunnel-backend/internal/middleware"
	"github.com/ikkim/reviewfunnel-backend/internal/places"
	"github.com/ikkim/reviewfunnel-backend/internal/reviewflow"
	"github.com/ikkim/reviewfunnel-backend/internal/tenant"
	livefeed "github.com/ikkim/reviewfunnel-backend/internal/websocket"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testJWTSecret     = "test-secret"
	testCookieName    = "auth_token"
	testReviewBaseURL = "https://search.google.com/local/writereview?placeid="
	testBaseDomain    = "blooreview.app"
)

type fakePlaces struct {
	place *places.Place
	err   error
	calls []string
}

func (f *fakePlaces) Lookup(_ context.Context, mapsURL string) (*places.Place, error) {
	f.calls = append(f.calls, mapsURL)
	return f.place, f.err
}

// testEnv wires every controller against an in-memory database
type testEnv struct {
	db         *gorm.DB
	router     *gin.Engine
	users      repository.UserRepository
	businesses repository.BusinessRepository
	reviews    repository.ReviewRepository
	auth       service.AuthService
	flow       *FlowController
	places     *fakePlaces
	hub        *livefeed.Hub
	clock      time.Time
}

func setupControllerTest(t *testing.T) *testEnv {
	return setupControllerTestWithReviewBase(t, testReviewBaseURL)
}

func setupControllerTestWithReviewBase(t *testing.T, reviewBaseURL string) *testEnv {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	env := &testEnv{
		db:         testDB,
		users:      repository.NewUserRepository(testDB),
		businesses: repository.NewBusinessRepository(testDB),
		reviews:    repository.NewReviewRepository(testDB),
		places:     &fakePlaces{},
		hub:        livefeed.NewHub(),
		clock:      time.Date(2026, 5, 31, 15, 0, 0, 0, time.UTC),
	}

	go env.hub.Run()
	t.Cleanup(env.hub.Stop)

	env.auth = service.NewAuthService(env.users, nil, testJWTSecret, time.Hour)
	tenants := service.NewTenantService(tenant.NewDBProvider(env.businesses, reviewBaseURL), nil)
	businessService := service.NewBusinessService(env.businesses, env.users, tenants, nil, testBaseDomain)
	reviewService := service.NewReviewService(env.reviews, env.businesses, service.NewInsightsService("", "gpt-4o-mini", "http://127.0.0.1:0"), nil, env.hub)

	authCtrl := NewAuthController(env.auth, testCookieName, false)
	businessCtrl := NewBusinessController(businessService, tenants)
	reviewCtrl := NewReviewController(reviewService)
	liveCtrl := NewLiveController(businessService, env.hub, []string{"*"})
	toolCtrl := NewToolController(env.places)
	pageCtrl := NewPageController(tenants)
	env.flow = NewFlowController(tenants, reviewService, reviewflow.NewMemoryStore(time.Hour), FlowSettings{
		BaseDomain: testBaseDomain,
	})
	env.flow.now = func() time.Time { return env.clock }

	authMiddleware := middleware.NewAuthMiddleware(env.auth, testCookieName)
	authenticate := authMiddleware.Authenticate()

	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	r.GET("/", middleware.TenantSlug(), pageCtrl.ReviewPage)
	r.POST("/auth/register", authCtrl.Register)
	r.POST("/auth/login", authCtrl.Login)
	r.POST("/auth/logout", authMiddleware.OptionalAuthenticate(), authCtrl.Logout)
	r.GET("/auth/verify", authenticate, authCtrl.Verify)
	r.POST("/business/create", authenticate, businessCtrl.CreateBusiness)
	r.GET("/business/:slug/config", businessCtrl.ConfigScript)
	r.GET("/business/:slug/config.js", businessCtrl.ConfigScript)
	r.GET("/business/:slug/reviews", authenticate, reviewCtrl.ListReviews)
	r.GET("/business/:slug/reviews/export", authenticate, reviewCtrl.ExportReviews)
	r.GET("/business/:slug/reviews/live", authenticate, liveCtrl.Live)
	r.GET("/user/businesses", authenticate, businessCtrl.ListUserBusinesses)
	r.POST("/reviews/submit", reviewCtrl.SubmitReview)
	r.GET("/qrcode", toolCtrl.QRCode)
	r.POST("/admin/maps", authenticate, toolCtrl.LookupMaps)

	flow := r.Group("/flow", middleware.TenantSlug())
	flow.GET("", env.flow.Current)
	flow.POST("/rating", env.flow.Rating)
	flow.POST("/visibility", env.flow.Visibility)
	flow.POST("/settle", env.flow.Settle)
	flow.POST("/feedback", env.flow.Feedback)

	env.router = r
	return env
}

func (e *testEnv) createOwner(t *testing.T, email string) (*model.User, string) {
	user, token, err := e.auth.Register(email, "password123", "Owner")
	require.NoError(t, err)
	return user, token.Token
}

func (e *testEnv) createBusiness(t *testing.T, ownerID uint, slug, name string, settings model.BusinessSettings) *model.Business {
	b := &model.Business{
		UserID:  ownerID,
		Slug:    slug,
		Name:    name,
		PlaceID: "ChIJ123",
		Config:  settings,
	}
	require.NoError(t, e.businesses.Create(b))
	return b
}

type request struct {
	method  string
	path    string
	body    interface{}
	token   string
	host    string
	cookies []*http.Cookie
}

func (e *testEnv) do(t *testing.T, r request) *httptest.ResponseRecorder {
	var body bytes.Buffer
	switch v := r.body.(type) {
	case nil:
	case string:
		body.WriteString(v)
	default:
		require.NoError(t, json.NewEncoder(&body).Encode(v))
	}

	req := httptest.NewRequest(r.method, r.path, &body)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.host != "" {
		req.Host = r.host
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
