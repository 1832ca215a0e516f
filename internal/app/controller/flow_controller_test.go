package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/internal/reviewflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flowClient keeps the session cookie between calls, like a browser tab
type flowClient struct {
	env     *testEnv
	query   string
	cookies []*http.Cookie
}

func (fc *flowClient) call(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := fc.env.do(t, request{method: method, path: path + fc.query, body: body, host: "localhost:8080", cookies: fc.cookies})
	if c := findCookie(w, flowCookieName); c != nil {
		fc.cookies = []*http.Cookie{c}
	}
	return w, decode(t, w)
}

func TestFlowController_LowRatingFeedback(t *testing.T) {
	env := setupControllerTest(t)
	owner, _ := env.createOwner(t, "owner@example.com")
	business := env.createBusiness(t, owner.ID, "joes-cafe", "Joe's Cafe", model.DefaultBusinessSettings())
	client := &flowClient{env: env, query: "?biz=joes-cafe"}

	w, resp := client.call(t, http.MethodGet, "/flow", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(reviewflow.StateRatingSelection), resp["state"])
	assert.Equal(t, "joes-cafe", resp["business"].(map[string]interface{})["slug"])
	require.Len(t, client.cookies, 1)

	// 아직 피드백 단계가 아님
	w, resp = client.call(t, http.MethodPost, "/flow/feedback", map[string]string{"comments": "cold"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "REVIEW_INVALID_STATE", resp["error"])

	w, resp = client.call(t, http.MethodPost, "/flow/rating", map[string]int{"rating": 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(reviewflow.StateFollowupFeedback), resp["state"])
	assert.NotContains(t, resp, "redirectUrl")

	w, resp = client.call(t, http.MethodPost, "/flow/feedback", map[string]string{"name": "Ann", "comments": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "REVIEW_COMMENTS_REQUIRED", resp["error"])

	w, resp = client.call(t, http.MethodPost, "/flow/feedback", map[string]string{"name": "Ann", "comments": "Cold coffee"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(reviewflow.StateThankYou), resp["state"])
	assert.NotZero(t, resp["reviewId"])

	outcome := resp["outcome"].(map[string]interface{})
	discount := outcome["discount"].(map[string]interface{})
	share := outcome["share"].(map[string]interface{})
	assert.EqualValues(t, model.DefaultDiscountPercentage, discount["percentage"])
	assert.Equal(t, "https://joes-cafe."+testBaseDomain, share["pageUrl"])

	stored, err := env.reviews.FindByBusiness(business.ID, model.DefaultReviewThreshold)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 2, stored[0].Rating)
	assert.Equal(t, "Cold coffee", stored[0].Comments)

	// 세션은 감사 화면에 머묾
	_, resp = client.call(t, http.MethodGet, "/flow", nil)
	assert.Equal(t, string(reviewflow.StateThankYou), resp["state"])
}

func TestFlowController_HighRatingReturn(t *testing.T) {
	env := setupControllerTest(t)
	owner, _ := env.createOwner(t, "owner@example.com")
	business := env.createBusiness(t, owner.ID, "joes-cafe", "Joe's Cafe", model.DefaultBusinessSettings())
	client := &flowClient{env: env, query: "?biz=joes-cafe"}
	start := env.clock

	w, resp := client.call(t, http.MethodPost, "/flow/rating", map[string]int{"rating": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(reviewflow.StateHighRatingRedirect), resp["state"])
	assert.Equal(t, testReviewBaseURL+"ChIJ123", resp["redirectUrl"])
	assert.Equal(t, true, resp["pendingReturn"])

	env.clock = start.Add(20 * time.Second)
	w, resp = client.call(t, http.MethodPost, "/flow/visibility", map[string]bool{"visible": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, reviewflow.DefaultDebounce.Milliseconds(), resp["settleAfterMs"])

	// debounce 이전
	env.clock = start.Add(20*time.Second + 100*time.Millisecond)
	_, resp = client.call(t, http.MethodPost, "/flow/settle", nil)
	assert.Equal(t, string(reviewflow.StateHighRatingRedirect), resp["state"])

	env.clock = start.Add(21 * time.Second)
	_, resp = client.call(t, http.MethodPost, "/flow/settle", nil)
	assert.Equal(t, string(reviewflow.StateThankYou), resp["state"])
	assert.Equal(t, false, resp["pendingReturn"])
	assert.Contains(t, resp, "outcome")

	// 고평점은 저장되지 않음
	stored, err := env.reviews.FindByBusiness(business.ID, model.MaxRating+1)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestFlowController_QuickTabSwitchIsNotReturn(t *testing.T) {
	env := setupControllerTest(t)
	owner, _ := env.createOwner(t, "owner@example.com")
	env.createBusiness(t, owner.ID, "joes-cafe", "Joe's Cafe", model.DefaultBusinessSettings())
	client := &flowClient{env: env, query: "?biz=joes-cafe"}
	start := env.clock

	client.call(t, http.MethodPost, "/flow/rating", map[string]int{"rating": 5})

	env.clock = start.Add(time.Second)
	client.call(t, http.MethodPost, "/flow/visibility", map[string]bool{"visible": true})
	env.clock = start.Add(time.Second + 200*time.Millisecond)
	client.call(t, http.MethodPost, "/flow/visibility", map[string]bool{"visible": false})

	env.clock = start.Add(5 * time.Second)
	_, resp := client.call(t, http.MethodPost, "/flow/settle", nil)
	assert.Equal(t, string(reviewflow.StateHighRatingRedirect), resp["state"])
	assert.Equal(t, true, resp["pendingReturn"])

	// 새로고침은 바로 복귀로 처리
	_, resp = client.call(t, http.MethodGet, "/flow", nil)
	assert.Equal(t, string(reviewflow.StateThankYou), resp["state"])
}

func TestFlowController_RatingErrors(t *testing.T) {
	env := setupControllerTest(t)
	owner, _ := env.createOwner(t, "owner@example.com")
	env.createBusiness(t, owner.ID, "joes-cafe", "Joe's Cafe", model.DefaultBusinessSettings())
	client := &flowClient{env: env, query: "?biz=joes-cafe"}

	w, resp := client.call(t, http.MethodPost, "/flow/rating", map[string]int{"rating": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_REQUIRED", resp["error"])

	w, resp = client.call(t, http.MethodPost, "/flow/rating", map[string]int{"rating": 7})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "REVIEW_INVALID_RATING", resp["error"])

	w, resp = client.call(t, http.MethodPost, "/flow/rating", map[string]string{"rating": "five"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "REVIEW_INVALID_RATING", resp["error"])
}

func TestFlowController_MissingReviewURL(t *testing.T) {
	env := setupControllerTestWithReviewBase(t, "")
	owner, _ := env.createOwner(t, "owner@example.com")
	env.createBusiness(t, owner.ID, "joes-cafe", "Joe's Cafe", model.DefaultBusinessSettings())
	client := &flowClient{env: env, query: "?biz=joes-cafe"}

	w, resp := client.call(t, http.MethodPost, "/flow/rating", map[string]int{"rating": 5})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "REVIEW_URL_MISSING", resp["error"])

	// 세션은 평점 선택 단계 그대로
	_, resp = client.call(t, http.MethodGet, "/flow", nil)
	assert.Equal(t, string(reviewflow.StateRatingSelection), resp["state"])
}

func TestFlowController_SessionPerTenant(t *testing.T) {
	env := setupControllerTest(t)
	owner, _ := env.createOwner(t, "owner@example.com")
	env.createBusiness(t, owner.ID, "joes-cafe", "Joe's Cafe", model.DefaultBusinessSettings())
	client := &flowClient{env: env, query: "?biz=joes-cafe"}

	client.call(t, http.MethodPost, "/flow/rating", map[string]int{"rating": 2})
	first := client.cookies[0].Value

	// 다른 테넌트로 이동하면 새 세션
	client.query = "?biz=tacos"
	_, resp := client.call(t, http.MethodGet, "/flow", nil)
	assert.Equal(t, string(reviewflow.StateRatingSelection), resp["state"])
	assert.Equal(t, "default", resp["business"].(map[string]interface{})["slug"])
	assert.NotEqual(t, first, client.cookies[0].Value)
}

func TestFlowController_DefaultTenantFeedback(t *testing.T) {
	env := setupControllerTest(t)
	client := &flowClient{env: env}

	w, resp := client.call(t, http.MethodPost, "/flow/rating", map[string]int{"rating": 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(reviewflow.StateFollowupFeedback), resp["state"])

	w, resp = client.call(t, http.MethodPost, "/flow/feedback", map[string]string{"comments": "meh"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "BUSINESS_NOT_FOUND", resp["error"])

	// 저장 실패 시 세션은 진행되지 않음
	_, resp = client.call(t, http.MethodGet, "/flow", nil)
	assert.Equal(t, string(reviewflow.StateFollowupFeedback), resp["state"])
}
