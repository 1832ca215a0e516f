package controller

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthController_Register(t *testing.T) {
	env := setupControllerTest(t)

	w := env.do(t, request{method: http.MethodPost, path: "/auth/register", body: map[string]string{
		"email":    "Owner@Example.com",
		"password": "password123",
		"name":     "Joe",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode(t, w)
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, "owner@example.com", user["email"])
	assert.Equal(t, "Joe", user["name"])
	assert.Equal(t, "free", user["subscriptionTier"])
	assert.Equal(t, "active", user["subscriptionStatus"])
	assert.NotEmpty(t, resp["token"])

	cookie := findCookie(w, testCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, resp["token"], cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Greater(t, cookie.MaxAge, 0)
}

func TestAuthController_RegisterErrors(t *testing.T) {
	env := setupControllerTest(t)
	env.createOwner(t, "taken@example.com")

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"missing email", map[string]string{"password": "password123"}, http.StatusBadRequest, "VALIDATION_REQUIRED"},
		{"short password", map[string]string{"email": "new@example.com", "password": "short"}, http.StatusBadRequest, "AUTH_PASSWORD_TOO_SHORT"},
		{"duplicate email", map[string]string{"email": "TAKEN@example.com", "password": "password123"}, http.StatusConflict, "AUTH_EMAIL_EXISTS"},
		{"malformed body", "{not json", http.StatusBadRequest, "VALIDATION_INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, request{method: http.MethodPost, path: "/auth/register", body: tt.body})
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decode(t, w)["error"])
		})
	}
}

func TestAuthController_LoginAndVerify(t *testing.T) {
	env := setupControllerTest(t)
	env.createOwner(t, "owner@example.com")

	w := env.do(t, request{method: http.MethodPost, path: "/auth/login", body: map[string]string{
		"email":    "owner@example.com",
		"password": "wrong-password",
	}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_INVALID_CREDENTIALS", decode(t, w)["error"])

	w = env.do(t, request{method: http.MethodPost, path: "/auth/login", body: map[string]string{
		"email":    "owner@example.com",
		"password": "password123",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := findCookie(w, testCookieName)
	require.NotNil(t, cookie)

	w = env.do(t, request{method: http.MethodGet, path: "/auth/verify", cookies: []*http.Cookie{cookie}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "owner@example.com", user["email"])
	assert.Contains(t, user, "createdAt")

	w = env.do(t, request{method: http.MethodGet, path: "/auth/verify"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_Logout(t *testing.T) {
	env := setupControllerTest(t)
	_, token := env.createOwner(t, "owner@example.com")

	w := env.do(t, request{method: http.MethodPost, path: "/auth/logout", token: token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	cookie := findCookie(w, testCookieName)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)

	// 토큰 없이도 성공
	w = env.do(t, request{method: http.MethodPost, path: "/auth/logout"})
	assert.Equal(t, http.StatusOK, w.Code)
}
