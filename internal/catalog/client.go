package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
)

const (
	lookupMaxTries  = 3
	cacheKeyPrefix  = "inventory:variant-exists:"
	defaultCacheTTL = 5 * time.Minute
)

// Client checks product variant existence against the catalog service. Lookups
// retry on transient failures and results are cached in Redis so hot variants
// do not hammer the catalog on every stock movement.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// New creates a catalog client. The cache is optional; pass nil to disable
// caching.
func New(baseURL string, timeout time.Duration, cache *redis.Client, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		cacheTTL:   defaultCacheTTL,
		logger:     logger,
	}
}

// VariantExists reports whether the catalog knows the given variant. Transient
// transport and server errors are retried with exponential backoff; a definite
// 404 is not.
func (c *Client) VariantExists(ctx context.Context, variantID string) (bool, error) {
	if cached, ok := c.cachedExists(ctx, variantID); ok {
		return cached, nil
	}

	url := fmt.Sprintf("%s/api/v1/variants/%s", c.baseURL, variantID)

	operation := func() (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false, backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return false, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return true, nil
		case resp.StatusCode == http.StatusNotFound:
			return false, nil
		case resp.StatusCode >= 500:
			return false, fmt.Errorf("catalog returned status %d", resp.StatusCode)
		default:
			return false, backoff.Permanent(fmt.Errorf("catalog returned status %d", resp.StatusCode))
		}
	}

	exists, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(lookupMaxTries),
	)
	if err != nil {
		return false, fmt.Errorf("catalog variant lookup: %w", err)
	}

	c.storeExists(ctx, variantID, exists)

	return exists, nil
}

func (c *Client) cachedExists(ctx context.Context, variantID string) (bool, bool) {
	if c.cache == nil {
		return false, false
	}

	val, err := c.cache.Get(ctx, cacheKeyPrefix+variantID).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.DebugContext(ctx, "variant cache read failed",
				slog.String("variant_id", variantID),
				slog.String("error", err.Error()),
			)
		}
		return false, false
	}

	return val == "1", true
}

func (c *Client) storeExists(ctx context.Context, variantID string, exists bool) {
	if c.cache == nil {
		return
	}

	val := "0"
	if exists {
		val = "1"
	}

	if err := c.cache.Set(ctx, cacheKeyPrefix+variantID, val, c.cacheTTL).Err(); err != nil {
		c.logger.DebugContext(ctx, "variant cache write failed",
			slog.String("variant_id", variantID),
			slog.String("error", err.Error()),
		)
	}
}
