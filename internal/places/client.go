// Package places looks up business details from a Google Maps link.
package places

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ikkim/reviewfunnel-backend/pkg/logger"
)

const (
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

	detailsFields   = "place_id,name,formatted_address,types,photos,url,geometry"
	photoMaxWidth   = 800
	searchRadius    = 500
	photoAttempts   = 3
	photoBackoff    = time.Second
	requestTimeout  = 10 * time.Second
	defaultCategory = "Business"
)

var (
	ErrNotConfigured = errors.New("Google Maps API key not configured")
	ErrPlaceNotFound = errors.New("Business not found in Google Places")
)

var (
	placeIDRe   = regexp.MustCompile(`place_id:([A-Za-z0-9_-]+)`)
	placeNameRe = regexp.MustCompile(`(?i)/maps/place/([^/]+)`)
	preciseRe   = regexp.MustCompile(`!8m2!3d(-?\d+\.\d+)!4d(-?\d+\.\d+)`)
	atCoordsRe  = regexp.MustCompile(`@(-?\d+\.\d+),(-?\d+\.\d+)`)
)

// Place is what the admin form pre-fills from a Maps link
type Place struct {
	PlaceID   string `json:"placeId"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	MapsURL   string `json:"mapsUrl"`
	HeroImage string `json:"heroImage"`
	Address   string `json:"address"`
}

// ParsedURL holds what can be read straight from a Maps link
type ParsedURL struct {
	PlaceID    string
	SearchName string
	Latitude   float64
	Longitude  float64
	HasCoords  bool
}

type Client struct {
	http    *resty.Client
	apiKey  string
	baseURL string
	backoff time.Duration
}

func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(requestTimeout).
			SetHeader("Accept", "application/json"),
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		backoff: photoBackoff,
	}
}

// ParseMapsURL extracts place id, name and coordinates from a Maps link
func ParseMapsURL(raw string) ParsedURL {
	var p ParsedURL

	if m := placeIDRe.FindStringSubmatch(raw); m != nil {
		p.PlaceID = m[1]
	}

	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}

	if m := placeNameRe.FindStringSubmatch(decoded); m != nil {
		name := strings.NewReplacer("+", " ", "-", " ").Replace(m[1])
		p.SearchName = strings.TrimSpace(name)
	}

	m := preciseRe.FindStringSubmatch(decoded)
	if m == nil {
		m = atCoordsRe.FindStringSubmatch(decoded)
	}
	if m != nil {
		lat, errLat := strconv.ParseFloat(m[1], 64)
		lng, errLng := strconv.ParseFloat(m[2], 64)
		if errLat == nil && errLng == nil {
			p.Latitude, p.Longitude, p.HasCoords = lat, lng, true
		}
	}
	return p
}

// FormatCategory turns a place type like "coffee_shop" into "Coffee Shop"
func FormatCategory(placeType string) string {
	words := strings.Split(placeType, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

type placeResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Types            []string `json:"types"`
	URL              string   `json:"url"`
	Photos           []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
}

type detailsResponse struct {
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message"`
	Result       *placeResult `json:"result"`
}

type searchResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Results      []placeResult `json:"results"`
}

// Lookup resolves a Maps link to place details
func (c *Client) Lookup(ctx context.Context, mapsURL string) (*Place, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	parsed := ParseMapsURL(mapsURL)
	if parsed.PlaceID != "" {
		return c.Details(ctx, parsed.PlaceID)
	}
	return c.search(ctx, parsed)
}

func (c *Client) search(ctx context.Context, parsed ParsedURL) (*Place, error) {
	query := parsed.SearchName
	if query == "" {
		query = "business"
	}

	params := map[string]string{
		"query": query,
		"key":   c.apiKey,
	}
	if parsed.HasCoords {
		params["location"] = fmt.Sprintf("%v,%v", parsed.Latitude, parsed.Longitude)
		params["radius"] = strconv.Itoa(searchRadius)
	}

	var out searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&out).
		Get("/textsearch/json")
	if err != nil {
		return nil, fmt.Errorf("places text search failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Places API error: %d", resp.StatusCode())
	}
	if out.Status != "OK" || len(out.Results) == 0 {
		return nil, notFound(out.ErrorMessage)
	}

	return c.Details(ctx, out.Results[0].PlaceID)
}

// Details fetches a place by id
func (c *Client) Details(ctx context.Context, placeID string) (*Place, error) {
	var out detailsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"place_id": placeID,
			"fields":   detailsFields,
			"key":      c.apiKey,
		}).
		SetResult(&out).
		Get("/details/json")
	if err != nil {
		return nil, fmt.Errorf("places details failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Places API error: %d", resp.StatusCode())
	}
	if out.Status != "OK" || out.Result == nil {
		return nil, notFound(out.ErrorMessage)
	}

	r := out.Result
	place := &Place{
		PlaceID:  r.PlaceID,
		Name:     r.Name,
		Category: defaultCategory,
		MapsURL:  r.URL,
		Address:  r.FormattedAddress,
	}
	if len(r.Types) > 0 {
		place.Category = FormatCategory(r.Types[0])
	}
	if place.MapsURL == "" {
		place.MapsURL = "https://www.google.com/maps/place/?q=place_id:" + r.PlaceID
	}
	if len(r.Photos) > 0 && r.Photos[0].PhotoReference != "" {
		place.HeroImage = c.ResolvePhoto(ctx, c.photoURL(r.Photos[0].PhotoReference))
	}
	return place, nil
}

func (c *Client) photoURL(reference string) string {
	q := url.Values{}
	q.Set("maxwidth", strconv.Itoa(photoMaxWidth))
	q.Set("photoreference", reference)
	q.Set("key", c.apiKey)
	return c.baseURL + "/photo?" + q.Encode()
}

// ResolvePhoto follows the photo redirect chain to a keyless image URL.
// Returns "" when the image cannot be resolved without exposing the key.
func (c *Client) ResolvePhoto(ctx context.Context, photoURL string) string {
	var lastErr error
	for attempt := 1; attempt <= photoAttempts; attempt++ {
		resp, err := c.http.R().SetContext(ctx).Head(photoURL)
		if err == nil && resp.IsSuccess() {
			final := photoURL
			if resp.RawResponse != nil && resp.RawResponse.Request != nil {
				final = resp.RawResponse.Request.URL.String()
			}
			if hasKey(final) {
				return ""
			}
			return final
		}

		lastErr = err
		if err == nil {
			lastErr = fmt.Errorf("photo endpoint returned %d", resp.StatusCode())
		}
		logger.Warn("Photo URL resolution attempt failed", map[string]interface{}{
			"attempt": attempt,
			"error":   lastErr.Error(),
		})

		if attempt < photoAttempts {
			select {
			case <-ctx.Done():
				return ""
			case <-time.After(c.backoff * time.Duration(1<<(attempt-1))):
			}
		}
	}

	logger.Error("Failed to resolve photo URL after all retries", lastErr)
	if hasKey(photoURL) {
		return ""
	}
	return photoURL
}

func hasKey(u string) bool {
	return strings.Contains(u, "&key=") || strings.Contains(u, "?key=")
}

func notFound(message string) error {
	if message == "" {
		return ErrPlaceNotFound
	}
	return fmt.Errorf("%w: %s", ErrPlaceNotFound, message)
}
