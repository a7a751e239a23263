package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/config"
	applog "storefront/internal/log"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Client talks JSON to the catalog backend with timeout and retry.
type Client struct {
	baseURL     string
	fallbackURL string
	timeout     time.Duration
	attempts    int
	delay       time.Duration
	sleep       SleepFunc
}

func New(cfg config.APIConfig) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		fallbackURL: strings.TrimRight(cfg.FallbackURL, "/"),
		timeout:     cfg.Timeout,
		attempts:    cfg.RetryAttempts,
		delay:       cfg.RetryDelay,
		sleep:       sleepCtx,
	}
	if c.attempts < 0 {
		c.attempts = 0
	}
	if c.fallbackURL == c.baseURL {
		c.fallbackURL = ""
	}
	return c
}

// SetSleep replaces the backoff wait, mostly for tests.
func (c *Client) SetSleep(fn SleepFunc) { c.sleep = fn }

func (c *Client) BaseURL() string { return c.baseURL }

// Get fetches path and decodes the body into out. A relative path that fails
// with a network error gets one more try against the fallback backend, if
// one is configured. That try does not count towards the retry budget.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	err := c.do(ctx, fiber.MethodGet, c.resolve(c.baseURL, path), nil, out)
	if err == nil || c.fallbackURL == "" || isAbsolute(path) {
		return err
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Code != CodeNetwork {
		return err
	}
	url := c.resolve(c.fallbackURL, path)
	applog.Warn("api.fallback", err, map[string]any{"url": url})
	if ferr := c.send(ctx, fiber.MethodGet, url, nil, out); ferr != nil {
		return ferr
	}
	return nil
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.withBody(ctx, fiber.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.withBody(ctx, fiber.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.withBody(ctx, fiber.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, fiber.MethodDelete, c.resolve(c.baseURL, path), nil, out)
}

func (c *Client) withBody(ctx context.Context, method, path string, body, out any) error {
	var raw []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return unknownError(err)
		}
		raw = b
	}
	return c.do(ctx, method, c.resolve(c.baseURL, path), raw, out)
}

// do runs send with linear backoff: retry n waits n*delay.
func (c *Client) do(ctx context.Context, method, url string, body []byte, out any) error {
	for attempt := 0; ; attempt++ {
		err := c.send(ctx, method, url, body, out)
		if err == nil {
			return nil
		}
		if !err.Retryable() || attempt >= c.attempts {
			return err
		}
		retry := attempt + 1
		applog.Event("info", "api.retry", nil, map[string]any{
			"method": method, "url": url, "attempt": retry, "max": c.attempts, "status": err.Status,
		})
		if serr := c.sleep(ctx, time.Duration(retry)*c.delay); serr != nil {
			return unknownError(serr)
		}
	}
}

// send performs exactly one request.
func (c *Client) send(ctx context.Context, method, url string, body []byte, out any) *Error {
	if err := ctx.Err(); err != nil {
		return unknownError(err)
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(url)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if body != nil {
		a.ContentType(fiber.MIMEApplicationJSON)
		a.Body(body)
	}
	if c.timeout > 0 {
		a.Timeout(c.timeout)
	}
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		e := unknownError(err)
		applog.Event("error", "api.error", e, map[string]any{"method": method, "url": url})
		return e
	}

	applog.Debug("api.request", map[string]any{"method": method, "url": url})
	start := time.Now()
	status, raw, errs := a.Bytes()
	if len(errs) > 0 {
		e := networkError(errs[0])
		applog.Event("error", "api.error", e, map[string]any{"method": method, "url": url})
		return e
	}
	if status < 200 || status >= 300 {
		e := responseError(status, raw)
		applog.Event("error", "api.error", e, map[string]any{"method": method, "url": url, "status": status})
		return e
	}
	applog.Timed("api.response", time.Since(start), status, map[string]any{"method": method, "url": url})

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Message: "invalid response body: " + err.Error(), Status: status, Code: CodeUnknown}
	}
	return nil
}

func (c *Client) resolve(base, path string) string {
	if isAbsolute(path) {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func isAbsolute(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
