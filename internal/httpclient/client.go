package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/tracing"
)

// ErrStatus marks a response outside the 2xx range.
var ErrStatus = errors.New("unexpected response status")

// StatusError carries the status and raw body of a non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Code)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Config controls the outbound client. Zero values mean no explicit timeout,
// a single attempt and no rate limit.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Retries   int
	RateLimit float64
	UserAgent string
	// OnBreakerChange observes the per-endpoint circuit breakers.
	OnBreakerChange func(endpoint string, from, to resilience.State)
}

// DefaultConfig returns the single-attempt configuration widgets use.
func DefaultConfig() Config {
	return Config{UserAgent: "widgetkit/1.0"}
}

// Response is a completed exchange.
type Response struct {
	Status   int
	Body     []byte
	Header   http.Header
	Duration time.Duration
}

// maxBreakers bounds the endpoint table; closed breakers are evicted past it.
const maxBreakers = 1024

// Client wraps resty with rate limiting and one circuit breaker per endpoint
// (method, host and path). It is safe for concurrent use; widgets on the same
// page share one Client, but a failing endpoint never refuses calls to another.
type Client struct {
	resty    *resty.Client
	limiter  *rate.Limiter
	base     *url.URL
	policy   resilience.Policy
	breakers map[string]*resilience.Breaker
	mu       sync.RWMutex
}

// New creates a client. Retries are delegated to go-retryablehttp so that
// resty sees one logical request per call.
func New(cfg Config) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetRetryCount(0).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		restyClient.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.Timeout > 0 {
		restyClient.SetTimeout(cfg.Timeout)
	}
	if cfg.BaseURL != "" {
		restyClient.SetBaseURL(cfg.BaseURL)
	}

	policy := resilience.Policy{
		Probes:   5,
		Window:   60 * time.Second,
		Cooldown: 30 * time.Second,
		// Only a sustained outage trips it
		Trip: func(t resilience.Tally) bool {
			return t.FailureStreak >= 10 || (t.Calls >= 20 && t.FailureRatio() > 0.7)
		},
	}
	if cfg.OnBreakerChange != nil {
		policy.OnChange = cfg.OnBreakerChange
	}

	c := &Client{
		resty:    restyClient,
		limiter:  rate.NewLimiter(rate.Inf, 0),
		policy:   policy,
		breakers: make(map[string]*resilience.Breaker),
	}
	if cfg.BaseURL != "" {
		c.base, _ = url.Parse(cfg.BaseURL)
	}
	c.SetRateLimit(cfg.RateLimit)
	return c
}

// SetHeader adds a default header
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resty.SetHeader(key, value)
}

// SetRateLimit configures requests per second; non-positive disables it
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// Endpoint names the breaker that guards a request: method, host and path.
// Relative URLs resolve against the base URL; the query is ignored.
func (c *Client) Endpoint(method, rawURL string) string {
	method = strings.ToUpper(method)
	u, err := url.Parse(rawURL)
	if err != nil {
		return method + " " + rawURL
	}
	if c.base != nil && !u.IsAbs() {
		u = c.base.ResolveReference(u)
	}
	return method + " " + u.Host + u.Path
}

// BreakerState returns the state of the breaker guarding method and rawURL.
// Endpoints never called are Closed.
func (c *Client) BreakerState(method, rawURL string) resilience.State {
	c.mu.RLock()
	b, ok := c.breakers[c.Endpoint(method, rawURL)]
	c.mu.RUnlock()
	if !ok {
		return resilience.Closed
	}
	return b.State()
}

// OpenEndpoints lists, sorted, the endpoints whose breaker is not closed.
func (c *Client) OpenEndpoints() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	open := []string{}
	for name, b := range c.breakers {
		if b.State() != resilience.Closed {
			open = append(open, name)
		}
	}
	sort.Strings(open)
	return open
}

func (c *Client) breaker(endpoint string) *resilience.Breaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.breakers[endpoint]; ok {
		return b
	}
	if len(c.breakers) >= maxBreakers {
		for name, b := range c.breakers {
			if b.State() == resilience.Closed {
				delete(c.breakers, name)
			}
		}
	}
	b := resilience.New(endpoint, c.policy)
	c.breakers[endpoint] = b
	return b
}

// Get issues one GET request.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, rawURL, nil)
}

// Do issues one request. A non-nil payload is sent as the request body:
// strings and byte slices verbatim, anything else JSON encoded. A non-2xx
// status returns both the Response and a *StatusError.
func (c *Client) Do(ctx context.Context, method, rawURL string, payload any) (*Response, error) {
	c.mu.RLock()
	limiter := c.limiter
	c.mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	var raw *resty.Response
	err := c.breaker(c.Endpoint(method, rawURL)).Do(func() error {
		req := c.request(ctx, payload)

		resp, err := req.Execute(method, rawURL)
		raw = resp
		if err != nil {
			return err
		}
		// Only server-side failures count against the endpoint
		if resp.StatusCode() >= http.StatusInternalServerError {
			return c.statusError(method, rawURL, resp)
		}
		return nil
	})

	if errors.Is(err, resilience.ErrOpen) || errors.Is(err, resilience.ErrProbeLimit) {
		return nil, fmt.Errorf("%s %s: upstream unavailable: %w", method, rawURL, err)
	}
	if raw == nil || raw.RawResponse == nil {
		if err == nil {
			err = errors.New("no response")
		}
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}

	resp := &Response{
		Status:   raw.StatusCode(),
		Body:     raw.Body(),
		Header:   raw.Header(),
		Duration: raw.Time(),
	}
	if err != nil {
		return resp, err
	}
	if raw.IsError() {
		return resp, c.statusError(method, rawURL, raw)
	}
	return resp, nil
}

func (c *Client) request(ctx context.Context, payload any) *resty.Request {
	c.mu.RLock()
	defer c.mu.RUnlock()

	req := c.resty.R().SetContext(ctx)

	trace := map[string]string{}
	tracing.InjectTraceContext(ctx, trace)
	req.SetHeaders(trace)

	if payload != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}
	return req
}

func (c *Client) statusError(method, rawURL string, resp *resty.Response) error {
	return &StatusError{
		Method: method,
		URL:    rawURL,
		Code:   resp.StatusCode(),
		Body:   resp.String(),
	}
}

// DecodeJSON decodes a response body.
func DecodeJSON(body []byte, v any) error {
	if err := sonic.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
