package controller

import (
	"net/http"
	"strings"
	"testing"

	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessController_Create(t *testing.T) {
	env := setupControllerTest(t)
	_, token := env.createOwner(t, "owner@example.com")

	w := env.do(t, request{method: http.MethodPost, path: "/business/create", token: token, host: "app.blooreview.app", body: map[string]interface{}{
		"name":    "Joe's Cafe",
		"placeId": "ChIJ123",
		"config":  map[string]interface{}{"discount_percentage": 15},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode(t, w)
	business := resp["business"].(map[string]interface{})
	assert.Equal(t, "joes-cafe", business["slug"])
	assert.Equal(t, "Joe's Cafe", business["name"])
	assert.Equal(t, "https://joes-cafe.blooreview.app", resp["reviewUrl"])

	stored, err := env.businesses.FindBySlug("joes-cafe")
	require.NoError(t, err)
	assert.Equal(t, 15, stored.Config.DiscountPercentage)
	assert.Equal(t, model.DefaultReviewThreshold, stored.Config.ReviewThreshold)

	// 무료 플랜은 1개까지
	w = env.do(t, request{method: http.MethodPost, path: "/business/create", token: token, body: map[string]interface{}{
		"name":    "Second Shop",
		"placeId": "ChIJ456",
	}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "BUSINESS_LIMIT_REACHED", decode(t, w)["error"])
}

func TestBusinessController_CreateErrors(t *testing.T) {
	env := setupControllerTest(t)
	_, token := env.createOwner(t, "owner@example.com")

	w := env.do(t, request{method: http.MethodPost, path: "/business/create", body: map[string]string{"name": "x", "placeId": "y"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, request{method: http.MethodPost, path: "/business/create", token: token, body: map[string]string{"name": "No Place"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_REQUIRED", decode(t, w)["error"])
}

func TestBusinessController_ListUserBusinesses(t *testing.T) {
	env := setupControllerTest(t)
	owner, token := env.createOwner(t, "owner@example.com")
	env.createBusiness(t, owner.ID, "joes-cafe", "Joe's Cafe", model.DefaultBusinessSettings())

	other, _ := env.createOwner(t, "other@example.com")
	env.createBusiness(t, other.ID, "tacos", "Tacos", model.DefaultBusinessSettings())

	w := env.do(t, request{method: http.MethodGet, path: "/user/businesses", token: token})
	require.Equal(t, http.StatusOK, w.Code)

	items := decode(t, w)["businesses"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "joes-cafe", items[0].(map[string]interface{})["slug"])
}

func TestBusinessController_ConfigScript(t *testing.T) {
	env := setupControllerTest(t)
	owner, _ := env.createOwner(t, "owner@example.com")
	settings := model.DefaultBusinessSettings()
	settings.ReviewThreshold = 4
	env.createBusiness(t, owner.ID, "joes-cafe", "Joe's Cafe", settings)

	for _, path := range []string{"/business/joes-cafe/config.js", "/business/Joes-Cafe/config"} {
		w := env.do(t, request{method: http.MethodGet, path: path})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/javascript; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, configCacheControl, w.Header().Get("Cache-Control"))

		body := w.Body.String()
		assert.True(t, strings.HasPrefix(body, "window.REVIEW_TOOL_CONFIG = {"), body)
		assert.True(t, strings.HasSuffix(body, "};"))
		assert.Contains(t, body, `"place_id": "ChIJ123"`)
		assert.Contains(t, body, `"google_review_url": "`+testReviewBaseURL+`ChIJ123"`)
		assert.Contains(t, body, `"review_threshold": 4`)
		assert.Contains(t, body, `"min_review": 4`)
	}
}

func TestBusinessController_ConfigScriptUnknown(t *testing.T) {
	env := setupControllerTest(t)

	w := env.do(t, request{method: http.MethodGet, path: "/business/nobody/config.js"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "window.REVIEW_TOOL_CONFIG = {};", w.Body.String())
	assert.Empty(t, w.Header().Get("Cache-Control"))
}
