package mealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"planneat/internal/logger"
	"planneat/internal/recipe"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public TheMealDB v1 endpoint with the test key.
	DefaultBaseURL = "https://www.themealdb.com/api/json/v1/1"
	DefaultTimeout = 10 * time.Second
)

// RequestError reports a failed call to one TheMealDB endpoint.
// It matches recipe.ErrRequestFailed under errors.Is.
type RequestError struct {
	Endpoint string
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("mealdb %s: %v", e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

func (e *RequestError) Is(target error) bool {
	return target == recipe.ErrRequestFailed
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 disables throttling
	RateBurst  int
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client is a recipe.Source backed by the TheMealDB HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

var _ recipe.Source = (*Client)(nil)

// NewClient creates a new TheMealDB client.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		limiter:    limiter,
		logger:     logger.OrNop(opts.Logger),
	}
}

type mealsResponse struct {
	Meals []recipe.Recipe `json:"meals"`
}

type categoriesResponse struct {
	Categories []struct {
		Name string `json:"strCategory"`
	} `json:"categories"`
}

type areaListResponse struct {
	Meals []struct {
		Name string `json:"strArea"`
	} `json:"meals"`
}

type ingredientListResponse struct {
	Meals []struct {
		Name string `json:"strIngredient"`
	} `json:"meals"`
}

// SearchByName fetches recipes whose name contains query.
func (c *Client) SearchByName(ctx context.Context, query string) ([]recipe.Recipe, error) {
	return c.meals(ctx, "search.php", url.Values{"s": {query}})
}

// SearchByIngredient fetches recipe summaries that use the ingredient.
func (c *Client) SearchByIngredient(ctx context.Context, ingredient string) ([]recipe.Recipe, error) {
	return c.meals(ctx, "filter.php", url.Values{"i": {ingredient}})
}

// FilterByCategory fetches recipe summaries for a category. Summaries
// carry only id, name and thumbnail, so the requested category is filled in.
func (c *Client) FilterByCategory(ctx context.Context, category string) ([]recipe.Recipe, error) {
	meals, err := c.meals(ctx, "filter.php", url.Values{"c": {category}})
	for i := range meals {
		if meals[i].Category == "" {
			meals[i].Category = category
		}
	}
	return meals, err
}

// FilterByArea fetches recipe summaries for a cuisine area, filling in Area.
func (c *Client) FilterByArea(ctx context.Context, area string) ([]recipe.Recipe, error) {
	meals, err := c.meals(ctx, "filter.php", url.Values{"a": {area}})
	for i := range meals {
		if meals[i].Area == "" {
			meals[i].Area = area
		}
	}
	return meals, err
}

// GetByID fetches one full recipe. The bool is false when no record exists.
func (c *Client) GetByID(ctx context.Context, id string) (recipe.Recipe, bool, error) {
	meals, err := c.meals(ctx, "lookup.php", url.Values{"i": {id}})
	return first(meals, err)
}

// GetRandom fetches one random recipe.
func (c *Client) GetRandom(ctx context.Context) (recipe.Recipe, bool, error) {
	meals, err := c.meals(ctx, "random.php", nil)
	return first(meals, err)
}

// ListCategories returns all category names.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var resp categoriesResponse
	if err := c.get(ctx, "categories.php", nil, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Categories))
	for _, cat := range resp.Categories {
		names = append(names, cat.Name)
	}
	return names, nil
}

// ListAreas returns all cuisine area names.
func (c *Client) ListAreas(ctx context.Context) ([]string, error) {
	var resp areaListResponse
	if err := c.get(ctx, "list.php", url.Values{"a": {"list"}}, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Meals))
	for _, a := range resp.Meals {
		names = append(names, a.Name)
	}
	return names, nil
}

// ListIngredients returns all known ingredient names.
func (c *Client) ListIngredients(ctx context.Context) ([]string, error) {
	var resp ingredientListResponse
	if err := c.get(ctx, "list.php", url.Values{"i": {"list"}}, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Meals))
	for _, i := range resp.Meals {
		names = append(names, i.Name)
	}
	return names, nil
}

func first(meals []recipe.Recipe, err error) (recipe.Recipe, bool, error) {
	if err != nil || len(meals) == 0 {
		return recipe.Recipe{}, false, err
	}
	return meals[0], true, nil
}

// meals returns an empty, non-nil slice when the API answers {"meals": null}.
func (c *Client) meals(ctx context.Context, endpoint string, params url.Values) ([]recipe.Recipe, error) {
	var resp mealsResponse
	if err := c.get(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}
	if resp.Meals == nil {
		return []recipe.Recipe{}, nil
	}
	return resp.Meals, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &RequestError{Endpoint: endpoint, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	target := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &RequestError{Endpoint: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Endpoint: endpoint, Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	log := logger.FromContext(ctx, c.logger)
	log.Debug("mealdb request",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return &RequestError{Endpoint: endpoint, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Endpoint: endpoint, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
