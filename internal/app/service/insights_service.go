package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/pkg/logger"
)

const (
	insightsSystemPrompt = "You are a helpful business consultant that provides actionable insights from customer reviews. Always respond with valid JSON only, no markdown formatting."
	insightsTemperature  = 0.7
	insightsMaxTokens    = 1000
	insightsTimeout      = 60 * time.Second

	noReviewsSummary  = "No reviews found in the last 30 days to analyze."
	parseErrorSummary = "Unable to parse AI response. Please try again."
)

var ErrInsightsNotConfigured = errors.New("OpenAI API key not configured")

var codeBlockRe = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*\\})\\s*```")

// Insights AI가 생성한 리뷰 요약
type Insights struct {
	Summary         string         `json:"summary"`
	Themes          []InsightTheme `json:"themes"`
	Recommendations []string       `json:"recommendations"`
}

type InsightTheme struct {
	Type        string `json:"type"` // positive, negative
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
}

// InsightsService 최근 피드백을 LLM으로 분석
type InsightsService interface {
	Generate(ctx context.Context, business *model.Business, reviews []model.Review) (*Insights, error)
}

type insightsService struct {
	client *resty.Client
	apiKey string
	model  string
}

func NewInsightsService(apiKey, modelName, baseURL string) InsightsService {
	return &insightsService{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(insightsTimeout).
			SetHeader("Content-Type", "application/json").
			SetAuthToken(apiKey),
		apiKey: apiKey,
		model:  modelName,
	}
}

// OpenAI API 요청 구조체
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (s *insightsService) Generate(ctx context.Context, business *model.Business, reviews []model.Review) (*Insights, error) {
	if s.apiKey == "" {
		return nil, ErrInsightsNotConfigured
	}
	if len(reviews) == 0 {
		return emptyInsights(noReviewsSummary), nil
	}

	content, err := s.complete(ctx, buildInsightsPrompt(business, reviews))
	if err != nil {
		return nil, fmt.Errorf("failed to call OpenAI API: %w", err)
	}

	insights, err := parseInsights(content)
	if err != nil {
		logger.Warn("Failed to parse OpenAI response", map[string]interface{}{
			"business_id": business.ID,
			"response":    content,
		})
		return emptyInsights(parseErrorSummary), nil
	}
	return insights, nil
}

func (s *insightsService) complete(ctx context.Context, prompt string) (string, error) {
	var out chatResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: s.model,
			Messages: []chatMessage{
				{Role: "system", Content: insightsSystemPrompt},
				{Role: "user", Content: prompt},
			},
			Temperature: insightsTemperature,
			MaxTokens:   insightsMaxTokens,
		}).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		return "", err
	}
	if out.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s", out.Error.Message)
	}
	if resp.IsError() {
		return "", fmt.Errorf("OpenAI API returned %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return "{}", nil
	}
	return out.Choices[0].Message.Content, nil
}

func buildInsightsPrompt(business *model.Business, reviews []model.Review) string {
	var texts []string
	counts := map[int]int{}
	sum := 0
	for _, r := range reviews {
		comment := r.Comments
		if comment == "" {
			comment = "No comment"
		}
		texts = append(texts, fmt.Sprintf("Rating: %d/5 - %q", r.Rating, comment))
		counts[r.Rating]++
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(reviews))

	category := business.Category
	if category == "" {
		category = "business"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a business consultant analyzing customer reviews. Analyze the following reviews from the last 30 days for %q (%s):\n\n", business.Name, category)
	b.WriteString(strings.Join(texts, "\n\n"))
	b.WriteString("\n\nStatistics:\n")
	fmt.Fprintf(&b, "- Total reviews: %d\n", len(reviews))
	fmt.Fprintf(&b, "- Average rating: %.1f/5\n", avg)
	fmt.Fprintf(&b, "- Rating distribution: 1★: %d, 2★: %d, 3★: %d, 4★: %d\n\n", counts[1], counts[2], counts[3], counts[4])
	b.WriteString(`Provide a JSON response with the following structure:
{
  "summary": "A concise 2-3 sentence summary of the overall customer sentiment and key patterns",
  "themes": [
    {"type": "positive" or "negative", "description": "Theme description", "frequency": "how often mentioned"}
  ],
  "recommendations": [
    "Actionable recommendation 1",
    "Actionable recommendation 2"
  ]
}

Focus on actionable insights. Keep recommendations specific and practical. Limit to top 3-5 themes and 3-5 recommendations.`)
	return b.String()
}

// parseInsights accepts raw JSON or JSON wrapped in a markdown code block
func parseInsights(content string) (*Insights, error) {
	raw := strings.TrimSpace(content)
	if m := codeBlockRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}

	var insights Insights
	if err := json.Unmarshal([]byte(raw), &insights); err != nil {
		return nil, err
	}
	if insights.Themes == nil {
		insights.Themes = []InsightTheme{}
	}
	if insights.Recommendations == nil {
		insights.Recommendations = []string{}
	}
	return &insights, nil
}

func emptyInsights(summary string) *Insights {
	return &Insights{
		Summary:         summary,
		Themes:          []InsightTheme{},
		Recommendations: []string{},
	}
}
