// Package spoonacular implements the recipe API client on top of the
// Spoonacular REST API.
package spoonacular

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/mealquest/backend/internal/domain"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultMaxRetries = 3
	maxBodyBytes      = 1 << 20
	tracerName        = "github.com/mealquest/backend/internal/infrastructure/spoonacular"
)

// Compile-time interface check.
var _ domain.RecipeClient = (*Client)(nil)

// Client handles communication with the Spoonacular recipe API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	maxRetries  int
	backoff     func(attempt int) time.Duration
	debug       bool
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewClient creates a new Spoonacular API client
func NewClient(apiKey, baseURL string) *Client {
	// Free plan allows roughly one request per second
	limiter := rate.NewLimiter(rate.Limit(1), 5)

	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		apiKey:      apiKey,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		rateLimiter: limiter,
		maxRetries:  defaultMaxRetries,
		backoff:     exponentialBackoff,
		logger:      slog.Default(),
		tracer:      otel.Tracer(tracerName),
	}
}

// SetDebug enables or disables request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// SetLogger replaces the logger used for debug and error output
func (c *Client) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// SetTimeout sets the per-request HTTP timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
}

// SetRateLimit replaces the outbound rate limiter
func (c *Client) SetRateLimit(requestsPerSecond float64, burst int) {
	if requestsPerSecond <= 0 || burst <= 0 {
		return
	}
	c.rateLimiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// SetMaxRetries sets how many attempts a request gets before failing
func (c *Client) SetMaxRetries(n int) {
	if n > 0 {
		c.maxRetries = n
	}
}

// Search runs a complex recipe search and returns one page of results
func (c *Client) Search(ctx context.Context, query domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error) {
	ctx, span := c.tracer.Start(ctx, "spoonacular.Search", trace.WithAttributes(
		attribute.String("recipe.query", query.Term),
		attribute.Int("recipe.offset", offset),
		attribute.Int("recipe.page_size", pageSize),
	))
	defer span.End()

	params := buildSearchParams(query, offset, pageSize)

	var resp searchResponse
	if err := c.get(ctx, "/recipes/complexSearch", params, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	c.debugLog("found %d recipes for query %q at offset %d", len(resp.Results), query.Term, offset)
	span.SetAttributes(attribute.Int("recipe.results", len(resp.Results)))

	return mapSearchResponse(&resp, offset, pageSize), nil
}

// GetDetail retrieves the full recipe information including nutrition
func (c *Client) GetDetail(ctx context.Context, id int) (*domain.RecipeDetail, error) {
	ctx, span := c.tracer.Start(ctx, "spoonacular.GetDetail", trace.WithAttributes(
		attribute.Int("recipe.id", id),
	))
	defer span.End()

	params := url.Values{}
	params.Set("includeNutrition", "true")

	var info recipeInformation
	if err := c.get(ctx, fmt.Sprintf("/recipes/%d/information", id), params, &info); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return mapRecipeInformation(&info), nil
}

// buildSearchParams serializes the query the way complexSearch expects.
// diet is omitted when no filter is active; sort always pairs with a descending direction.
func buildSearchParams(query domain.SearchQuery, offset, pageSize int) url.Values {
	params := url.Values{}
	params.Set("query", strings.TrimSpace(query.Term))
	params.Set("number", strconv.Itoa(pageSize))
	params.Set("offset", strconv.Itoa(offset))

	if tags := query.Diets.Tags(); len(tags) > 0 {
		params.Set("diet", strings.Join(tags, ","))
	}
	if query.Sort != domain.SortNone {
		params.Set("sort", string(query.Sort))
		params.Set("sortDirection", "desc")
	}

	return params
}

// get performs a rate limited GET with retries on 429 and 5xx responses
// and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	logged := fmt.Sprintf("%s?%s", path, params.Encode())

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("apiKey", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %v", domain.ErrNetworkFailure, err)
		}

		c.debugLog("GET %s (attempt %d)", logged, attempt)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "MealQuest/1.0")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
			if ctx.Err() != nil {
				return lastErr
			}
			c.logger.Warn("spoonacular request failed", "path", path, "attempt", attempt, "error", err)
			if err := c.wait(ctx, attempt); err != nil {
				return lastErr
			}
			continue
		}

		body, readErr := readLimitedBody(resp.Body, maxBodyBytes)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: reading body: %v", domain.ErrNetworkFailure, readErr)
			if err := c.wait(ctx, attempt); err != nil {
				return lastErr
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("%w: failed to decode response: %v", domain.ErrNetworkFailure, err)
			}
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return domain.ErrRecipeNotFound
		case resp.StatusCode == http.StatusPaymentRequired:
			return fmt.Errorf("%w: %w", domain.ErrNetworkFailure, domain.ErrQuotaExceeded)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			c.logger.Warn("spoonacular API error", "path", path, "attempt", attempt, "status", resp.StatusCode)
			lastErr = fmt.Errorf("%w: status %d", domain.ErrNetworkFailure, resp.StatusCode)
			if attempt < c.maxRetries {
				if err := c.wait(ctx, attempt); err != nil {
					return lastErr
				}
			}
		default:
			return fmt.Errorf("%w: status %d, body: %s", domain.ErrNetworkFailure, resp.StatusCode, string(body))
		}
	}

	c.logger.Error("spoonacular retries exhausted", "path", path, "attempts", c.maxRetries)
	return lastErr
}

// wait sleeps for the backoff of the given attempt unless ctx ends first
func (c *Client) wait(ctx context.Context, attempt int) error {
	d := c.backoff(attempt)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func (c *Client) debugLog(format string, args ...any) {
	if !c.debug {
		return
	}
	c.logger.Info("[Spoonacular] " + fmt.Sprintf(format, args...))
}
