// Package smoobu provides a client for the Smoobu availability and rates API.
package smoobu

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/finikas-suites/pricing-cli/internal/resilience"
)

const (
	defaultBaseURL   = "https://login.smoobu.com"
	availabilityPath = "/booking/checkApartmentAvailability"
	ratesPath        = "/api/rates"

	dateFormat = "2006-01-02"
)

// Client defines the Smoobu operations the pricing loop consumes.
type Client interface {
	// CheckAvailability returns the apartments, among those requested,
	// still available for a one-night stay starting on arrival.
	CheckAvailability(ctx context.Context, arrival time.Time, apartments []int64) ([]int64, error)
	// UpdateRate pushes a daily price and minimum stay for one apartment
	// and date.
	UpdateRate(ctx context.Context, apartmentID int64, date time.Time, dailyPrice float64, minStay int) error
}

// Option configures the Smoobu client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry overrides the retry policy for outbound calls.
func WithRetry(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

// WithRateLimit overrides the outbound request rate limit.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

type httpClient struct {
	apiKey     string
	customerID int64
	baseURL    string
	http       *http.Client
	retry      resilience.Policy
	limiter    *rate.Limiter
}

// NewClient creates a Smoobu client for the given account.
func NewClient(apiKey string, customerID int64, opts ...Option) Client {
	c := &httpClient{
		apiKey:     apiKey,
		customerID: customerID,
		baseURL:    defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry:   resilience.DefaultPolicy(),
		limiter: rate.NewLimiter(5, 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type availabilityRequest struct {
	ArrivalDate   string  `json:"arrivalDate"`
	DepartureDate string  `json:"departureDate"`
	Apartments    []int64 `json:"apartments"`
	CustomerID    int64   `json:"customerId"`
}

type availabilityResponse struct {
	AvailableApartments []int64 `json:"availableApartments"`
}

type rateOperation struct {
	Dates           []string `json:"dates"`
	DailyPrice      float64  `json:"daily_price"`
	MinLengthOfStay int      `json:"min_length_of_stay"`
}

type rateRequest struct {
	Apartments []int64         `json:"apartments"`
	Operations []rateOperation `json:"operations"`
}

func (c *httpClient) CheckAvailability(ctx context.Context, arrival time.Time, apartments []int64) ([]int64, error) {
	req := availabilityRequest{
		ArrivalDate:   arrival.Format(dateFormat),
		DepartureDate: arrival.AddDate(0, 0, 1).Format(dateFormat),
		Apartments:    apartments,
		CustomerID:    c.customerID,
	}

	var resp availabilityResponse
	if err := c.postJSON(ctx, "availability", availabilityPath, req, &resp); err != nil {
		return nil, err
	}
	return resp.AvailableApartments, nil
}

func (c *httpClient) UpdateRate(ctx context.Context, apartmentID int64, date time.Time, dailyPrice float64, minStay int) error {
	req := rateRequest{
		Apartments: []int64{apartmentID},
		Operations: []rateOperation{{
			Dates:           []string{date.Format(dateFormat)},
			DailyPrice:      dailyPrice,
			MinLengthOfStay: minStay,
		}},
	}
	return c.postJSON(ctx, "rates", ratesPath, req, nil)
}

// postJSON posts the payload under the retry policy. Transport errors and
// transient statuses (408/429/5xx) are retried; anything else fails fast.
func (c *httpClient) postJSON(ctx context.Context, operation, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrapf(err, "smoobu: marshal %s request", operation)
	}

	p := c.retry
	if p.OnRetry == nil {
		p.OnRetry = resilience.RetryLogger("smoobu", operation)
	}

	data, err := resilience.DoVal(ctx, p, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, eris.Wrapf(err, "smoobu: create %s request", operation)
		}
		req.Header.Set("Api-Key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			// Returned unwrapped so the transient classifier can see
			// the net error.
			return nil, err
		}
		defer resp.Body.Close() //nolint:errcheck

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrapf(err, "smoobu: read %s response", operation)
		}

		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(
				eris.Errorf("smoobu: %s status %d: %s", operation, resp.StatusCode, respBody),
				resp.StatusCode,
			)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("smoobu: %s unexpected status %d: %s", operation, resp.StatusCode, respBody)
		}

		return respBody, nil
	})
	if err != nil {
		return eris.Wrapf(err, "smoobu: %s", operation)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return eris.Wrapf(err, "smoobu: unmarshal %s response", operation)
		}
	}
	return nil
}
