// Package oracle asks an OpenAI-compatible chat completion service for the
// next move.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/iamasit07/drop4/internal/domain"
	"github.com/iamasit07/drop4/pkg/logger"
)

// Cache stores answered columns keyed by model, player and position.
type Cache interface {
	LookupMove(ctx context.Context, key string) (column int, ok bool, err error)
	StoreMove(ctx context.Context, key string, column int, ttl time.Duration) error
}

type Options struct {
	APIKey        string
	BaseURL       string
	Model         string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	Cache         Cache
	CacheTTL      time.Duration

	// HTTPClient is the base transport; the bearer token is layered on top.
	HTTPClient *http.Client
}

type Client struct {
	httpClient *http.Client
	endpoint   string
	model      string
	timeout    time.Duration
	limiter    *rate.Limiter
	cache      Cache
	cacheTTL   time.Duration
}

func NewClient(opts Options) *Client {
	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{}
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: opts.APIKey,
		TokenType:   "Bearer",
	}))

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   opts.BaseURL + "/chat/completions",
		model:      opts.Model,
		timeout:    timeout,
		limiter:    rate.NewLimiter(limit, burst),
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
	}
}

func (c *Client) Name() string {
	return "openai/" + c.model
}

// RequestMove returns the column the oracle picked. The column is not checked
// for legality; every failure is reported as domain.ErrOracleFailure.
func (c *Client) RequestMove(ctx context.Context, board domain.Board, player domain.PlayerID) (int, error) {
	key := c.cacheKey(board, player)
	if col, ok := c.cached(ctx, key); ok {
		logger.Debug("ORACLE", "cache hit for %s on %s", player.Name(), board.Key())
		return col, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return -1, fmt.Errorf("%w: rate limit: %v", domain.ErrOracleFailure, err)
	}

	resp, err := c.complete(ctx, newChatRequest(c.model, board, player))
	if err != nil {
		return -1, fmt.Errorf("%w: %v", domain.ErrOracleFailure, err)
	}

	col, err := columnFromResponse(resp)
	if err != nil {
		return -1, fmt.Errorf("%w: %v", domain.ErrOracleFailure, err)
	}

	// an illegal answer must not be replayed from the cache on retry
	if domain.IsLegal(board, col) {
		c.store(ctx, key, col)
	}
	return col, nil
}

func (c *Client) complete(ctx context.Context, body chatRequest) (chatResponse, error) {
	var out chatResponse

	payload, err := json.Marshal(body)
	if err != nil {
		return out, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return out, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return out, fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return out, fmt.Errorf("status %d: %s", res.StatusCode, truncate(string(data), 200))
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func (c *Client) cacheKey(board domain.Board, player domain.PlayerID) string {
	return fmt.Sprintf("oracle:move:%s:%d:%s", c.model, player, board.Key())
}

func (c *Client) cached(ctx context.Context, key string) (int, bool) {
	if c.cache == nil {
		return -1, false
	}
	col, ok, err := c.cache.LookupMove(ctx, key)
	if err != nil {
		logger.Warn("ORACLE", "Cache lookup failed: %v", err)
		return -1, false
	}
	return col, ok
}

func (c *Client) store(ctx context.Context, key string, col int) {
	if c.cache == nil {
		return
	}
	if err := c.cache.StoreMove(ctx, key, col, c.cacheTTL); err != nil {
		logger.Warn("ORACLE", "Failed to cache answer: %v", err)
	}
}
