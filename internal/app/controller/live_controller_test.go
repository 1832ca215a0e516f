package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	livefeed "github.com/ikkim/reviewfunnel-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialLive(t *testing.T, env *testEnv, slug, token string) (*gorillaws.Conn, *http.Response, error) {
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/business/" + slug + "/reviews/live"
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	return gorillaws.DefaultDialer.Dial(wsURL, header)
}

func TestLiveController_StreamsNewFeedback(t *testing.T) {
	env := setupControllerTest(t)
	owner, token := env.createOwner(t, "owner@example.com")
	business := env.createBusiness(t, owner.ID, "joes-cafe", "Joe's Cafe", model.DefaultBusinessSettings())

	conn, _, err := dialLive(t, env, "joes-cafe", token)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return env.hub.Subscribers(business.ID) == 1
	}, 2*time.Second, 10*time.Millisecond)

	w := env.do(t, request{method: http.MethodPost, path: "/reviews/submit", body: map[string]interface{}{
		"businessSlug": "joes-cafe",
		"rating":       1,
		"comments":     "Burnt toast",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type       string       `json:"type"`
		BusinessID uint         `json:"businessId"`
		Data       model.Review `json:"data"`
	}
	require.NoError(t, json.Unmarshal(message, &event))
	assert.Equal(t, livefeed.EventReviewCreated, event.Type)
	assert.Equal(t, business.ID, event.BusinessID)
	assert.Equal(t, "Burnt toast", event.Data.Comments)
	assert.Equal(t, 1, event.Data.Rating)
}

func TestLiveController_RejectsOtherOwners(t *testing.T) {
	env := setupControllerTest(t)
	owner, _ := env.createOwner(t, "owner@example.com")
	_, otherToken := env.createOwner(t, "other@example.com")
	env.createBusiness(t, owner.ID, "joes-cafe", "Joe's Cafe", model.DefaultBusinessSettings())

	_, resp, err := dialLive(t, env, "joes-cafe", otherToken)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = dialLive(t, env, "nobody", otherToken)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
