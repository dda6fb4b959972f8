package lexicon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/ppiankov/etymologia/internal/model"
	"github.com/ppiankov/etymologia/internal/ratelimit"
	"github.com/ppiankov/etymologia/internal/util"
)

const maxBodyBytes = 4 << 20

// retrySleep waits between attempts; replaced in tests
var retrySleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// StatusError reports a non-success HTTP status from the lexicon
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.Status)
}

// Options configures a KotusClient
type Options struct {
	BaseURL       string
	ArticleURL    string // %s is replaced with the etym id
	UserAgent     string
	Timeout       time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration
	RespectRobots bool
	HTTPProxy     string
	HTTPSProxy    string

	RequestsPerSecond float64
	BurstSize         int
}

// OptionsFromConfig builds client options from the application config
func OptionsFromConfig(cfg *model.Config) Options {
	return Options{
		BaseURL:           cfg.Lexicon.BaseURL,
		ArticleURL:        cfg.Lexicon.ArticleURL,
		UserAgent:         cfg.Lexicon.UserAgent,
		Timeout:           cfg.Lexicon.Timeout,
		MaxRetries:        cfg.Lexicon.MaxRetries,
		RetryBackoff:      cfg.Lexicon.RetryBackoff,
		RespectRobots:     cfg.Lexicon.RespectRobots,
		HTTPProxy:         cfg.Lexicon.HTTPProxy,
		HTTPSProxy:        cfg.Lexicon.HTTPSProxy,
		RequestsPerSecond: cfg.RateLimiting.RequestsPerSecond,
		BurstSize:         cfg.RateLimiting.BurstSize,
	}
}

// KotusClient queries the Institute for the Languages of Finland
// etymology dictionary (Suomen sanojen alkuperä) ajax endpoint.
type KotusClient struct {
	baseURL    *url.URL
	articleURL string
	userAgent  string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	robots     *util.RobotsChecker
	maxRetries int
	backoff    time.Duration
	requests   atomic.Int64
	log        *slog.Logger
}

// NewKotusClient creates a client for the given options
func NewKotusClient(opts Options, logger *slog.Logger) (*KotusClient, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute: %q", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy),
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	log := logger.With("component", "lexicon", "lexicon", "kotus")

	c := &KotusClient{
		baseURL:    base,
		articleURL: opts.ArticleURL,
		userAgent:  opts.UserAgent,
		httpClient: httpClient,
		limiter:    ratelimit.NewLimiter(rps, opts.BurstSize),
		maxRetries: opts.MaxRetries,
		backoff:    opts.RetryBackoff,
		log:        log,
	}
	if opts.RespectRobots {
		c.robots = util.NewRobotsChecker(opts.UserAgent, httpClient, logger)
	}

	return c, nil
}

// Requests reports how many HTTP requests have been sent to the lexicon
func (c *KotusClient) Requests() int64 {
	return c.requests.Load()
}

// Exists checks whether the word is a headword in the dictionary
func (c *KotusClient) Exists(ctx context.Context, word string) (bool, error) {
	params := url.Values{
		"m":     {"qs-ajax-results"},
		"query": {word},
	}

	var resp suggestResponse
	if err := c.getJSON(ctx, params, &resp); err != nil {
		return false, fmt.Errorf("kotus: exists %q: %w", word, err)
	}

	for _, rec := range resp.Record {
		if rec.Value == word {
			return true, nil
		}
	}
	return false, nil
}

// Lookup fetches the etymology article of the word
func (c *KotusClient) Lookup(ctx context.Context, word string) (*model.Etymology, error) {
	params := url.Values{
		"m":       {"qs-results"},
		"prefix":  {word},
		"list_id": {"1"},
	}

	var resp resultsResponse
	if err := c.getJSON(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("kotus: lookup %q: %w", word, err)
	}

	for _, rec := range resp.Record {
		if rec.Headword != word {
			continue
		}
		return &model.Etymology{
			Definition: rec.Meaning,
			URL:        fmt.Sprintf(c.articleURL, url.QueryEscape(string(rec.EtymID))),
		}, nil
	}

	c.log.DebugContext(ctx, "no exact headword match",
		slog.String("word", word),
		slog.Int("candidates", len(resp.Record)))
	return nil, nil
}

func (c *KotusClient) getJSON(ctx context.Context, params url.Values, out any) error {
	u := *c.baseURL
	u.RawQuery = params.Encode()
	reqURL := u.String()

	if err := c.checkRobots(ctx, reqURL); err != nil {
		return err
	}

	body, err := c.fetchWithRetry(ctx, reqURL)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func (c *KotusClient) checkRobots(ctx context.Context, reqURL string) error {
	if c.robots == nil {
		return nil
	}

	decision, err := c.robots.Check(ctx, reqURL)
	if err != nil {
		return fmt.Errorf("robots: %w", err)
	}
	if !decision.Allowed {
		return ErrDisallowed
	}
	c.limiter.ApplyCrawlDelay(c.baseURL.Host, decision.CrawlDelay)
	return nil
}

// fetchWithRetry retries transport errors, 429 and 5xx with exponential backoff
func (c *KotusClient) fetchWithRetry(ctx context.Context, reqURL string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx, reqURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}

		body, err := c.fetch(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		if !retryable(ctx, err) || attempt >= c.maxRetries {
			return nil, err
		}

		delay := c.backoff << attempt
		c.log.WarnContext(ctx, "lexicon request failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		if err := retrySleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (c *KotusClient) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.requests.Add(1)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.DebugContext(ctx, "lexicon response",
		slog.String("url", reqURL),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}
	return true
}
