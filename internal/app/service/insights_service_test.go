package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, status int, content string) (*httptest.Server, *chatRequest) {
	t.Helper()
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 400 {
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
			return
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func sampleReviews() []model.Review {
	now := time.Date(2026, 5, 30, 12, 0, 0, 0, time.UTC)
	return []model.Review{
		{Rating: 2, Comments: "Cold coffee", SubmittedAt: now},
		{Rating: 3, Comments: "Slow service", SubmittedAt: now},
	}
}

func TestInsightsService_NotConfigured(t *testing.T) {
	svc := NewInsightsService("", "gpt-4o-mini", "http://127.0.0.1:1")

	_, err := svc.Generate(context.Background(), &model.Business{Name: "Joe's"}, sampleReviews())
	assert.ErrorIs(t, err, ErrInsightsNotConfigured)
}

func TestInsightsService_NoReviews(t *testing.T) {
	svc := NewInsightsService("sk-test", "gpt-4o-mini", "http://127.0.0.1:1")

	insights, err := svc.Generate(context.Background(), &model.Business{Name: "Joe's"}, nil)
	require.NoError(t, err)
	assert.Equal(t, noReviewsSummary, insights.Summary)
	assert.Empty(t, insights.Themes)
}

func TestInsightsService_Generate(t *testing.T) {
	content := "```json\n{\"summary\":\"Service is slow\",\"themes\":[{\"type\":\"negative\",\"description\":\"Wait times\",\"frequency\":\"often\"}],\"recommendations\":[\"Add staff at lunch\"]}\n```"
	srv, got := completionServer(t, http.StatusOK, content)
	svc := NewInsightsService("sk-test", "gpt-4o-mini", srv.URL)

	insights, err := svc.Generate(context.Background(), &model.Business{Name: "Joe's Cafe", Category: "cafe"}, sampleReviews())
	require.NoError(t, err)
	assert.Equal(t, "Service is slow", insights.Summary)
	require.Len(t, insights.Themes, 1)
	assert.Equal(t, "negative", insights.Themes[0].Type)
	assert.Equal(t, []string{"Add staff at lunch"}, insights.Recommendations)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[1].Content, `"Joe's Cafe" (cafe)`)
	assert.Contains(t, got.Messages[1].Content, "Average rating: 2.5/5")
}

func TestInsightsService_UnparseableResponse(t *testing.T) {
	srv, _ := completionServer(t, http.StatusOK, "Here are some thoughts about your reviews")
	svc := NewInsightsService("sk-test", "gpt-4o-mini", srv.URL)

	insights, err := svc.Generate(context.Background(), &model.Business{Name: "Joe's"}, sampleReviews())
	require.NoError(t, err)
	assert.Equal(t, parseErrorSummary, insights.Summary)
}

func TestInsightsService_UpstreamError(t *testing.T) {
	srv, _ := completionServer(t, http.StatusTooManyRequests, "")
	svc := NewInsightsService("sk-test", "gpt-4o-mini", srv.URL)

	_, err := svc.Generate(context.Background(), &model.Business{Name: "Joe's"}, sampleReviews())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestParseInsights_RawJSON(t *testing.T) {
	insights, err := parseInsights(`{"summary":"fine"}`)
	require.NoError(t, err)
	assert.Equal(t, "fine", insights.Summary)
	assert.NotNil(t, insights.Themes)
	assert.NotNil(t, insights.Recommendations)
}
