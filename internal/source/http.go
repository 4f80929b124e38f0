package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/intelliplan/planboard/internal/dates"
)

const rangeLayout = "2006-01-02 15:04:05"

// HTTPClient reads the four record kinds from the planner's JSON endpoints.
type HTTPClient struct {
	BaseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// HTTPOptions tunes the HTTP adapter.
type HTTPOptions struct {
	Token          string
	RequestsPerSec float64
	Timeout        time.Duration
}

// NewHTTPClient creates an adapter rooted at baseURL, e.g.
// https://planner.example/lib/api/.
func NewHTTPClient(baseURL string, opts HTTPOptions) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrNoBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	client := &http.Client{Timeout: opts.Timeout}
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"})
		client = oauth2.NewClient(context.Background(), ts)
		client.Timeout = opts.Timeout
	}

	limit := rate.Inf
	if opts.RequestsPerSec > 0 {
		limit = rate.Limit(opts.RequestsPerSec)
	}

	return &HTTPClient{
		BaseURL: baseURL,
		client:  client,
		// Burst of four lets one full fan-out through at once.
		limiter: rate.NewLimiter(limit, 4),
	}, nil
}

func (c *HTTPClient) Events(ctx context.Context, r Range) ([]CalendarEvent, error) {
	body, err := c.get(ctx, "calendar.php", url.Values{
		"start": {r.Start.Format(rangeLayout)},
		"end":   {r.End.Format(rangeLayout)},
	})
	if err != nil {
		return nil, err
	}
	return decodeList[CalendarEvent](body)
}

func (c *HTTPClient) Tasks(ctx context.Context) ([]Task, error) {
	body, err := c.get(ctx, "tasks.php", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Task](body)
}

func (c *HTTPClient) Classes(ctx context.Context, view ClassView) ([]ClassSchedule, error) {
	var q url.Values
	if view != "" {
		q = url.Values{"view": {string(view)}}
	}
	body, err := c.get(ctx, "classes.php", q)
	if err != nil {
		return nil, err
	}
	return decodeList[ClassSchedule](body)
}

func (c *HTTPClient) Exams(ctx context.Context, r Range) ([]Exam, error) {
	q := url.Values{
		"start": {dates.ISODate(r.Start)},
		"end":   {dates.ISODate(r.End)},
	}
	if dates.ISODate(r.Start) == dates.ISODate(r.End) {
		q = url.Values{"date": {dates.ISODate(r.Start)}}
	}
	body, err := c.get(ctx, "exams.php", q)
	if err != nil {
		return nil, err
	}
	return decodeList[Exam](body)
}

func (c *HTTPClient) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}

	u := c.BaseURL + endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrSourceStatus, endpoint, resp.StatusCode)
	}

	return body, nil
}
